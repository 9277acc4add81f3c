package billing

import (
	"time"

	"github.com/google/uuid"
)

// Fees is the itemized charge breakdown for one visit. All amounts are in
// integer currency units.
type Fees struct {
	ExamFee     int64 `json:"exam_fee"`
	TestFee     int64 `json:"test_fee"`
	MedicineFee int64 `json:"medicine_fee"`
	Total       int64 `json:"total"`
}

// Invoice maps to the invoices table. One invoice per visit, frozen at the
// moment the exam is finalized.
type Invoice struct {
	ID          uuid.UUID `db:"id" json:"id"`
	VisitID     uuid.UUID `db:"visit_id" json:"visit_id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patient_id"`
	ExamFee     int64     `db:"exam_fee" json:"exam_fee"`
	TestFee     int64     `db:"test_fee" json:"test_fee"`
	MedicineFee int64     `db:"medicine_fee" json:"medicine_fee"`
	Total       int64     `db:"total" json:"total"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

package medrecord

import (
	"time"

	"github.com/google/uuid"
)

// PlaceholderDiagnosis is stored when a record is created as a side effect of
// ordering tests, before the doctor has written a real diagnosis.
const PlaceholderDiagnosis = "Chờ kết quả xét nghiệm"

// MedicalRecord maps to the medical_records table. One record per visit.
// Records start hidden and stay hidden through finalization; a doctor
// releases them to the patient explicitly.
type MedicalRecord struct {
	ID        uuid.UUID `db:"id" json:"id"`
	VisitID   uuid.UUID `db:"visit_id" json:"visit_id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Diagnosis string    `db:"diagnosis" json:"diagnosis"`
	Treatment *string   `db:"treatment" json:"treatment,omitempty"`
	Note      *string   `db:"note" json:"note,omitempty"`
	Visible   bool      `db:"visible" json:"visible"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	Prescriptions []*PrescriptionLine `db:"-" json:"prescriptions,omitempty"`
}

// PrescriptionLine maps to the prescription_lines table: one medicine on the
// record's prescription.
type PrescriptionLine struct {
	ID       uuid.UUID `db:"id" json:"id"`
	RecordID uuid.UUID `db:"record_id" json:"record_id"`
	Name     string    `db:"name" json:"name"`
	Dosage   *string   `db:"dosage" json:"dosage,omitempty"`
	Duration *string   `db:"duration" json:"duration,omitempty"`
}

package testorder

import (
	"time"

	"github.com/google/uuid"
)

// ItemStatus is the fulfillment state of one ordered test.
type ItemStatus string

const (
	ItemPending    ItemStatus = "pending"
	ItemInProgress ItemStatus = "in_progress"
	ItemCompleted  ItemStatus = "completed"
)

// Resolved reports whether the item no longer blocks finalizing the visit.
func (s ItemStatus) Resolved() bool {
	return s != ItemPending && s != ItemInProgress
}

// Item maps to the test_order_items table: one diagnostic test requested for
// a visit. The price is fixed at order time. GroupTotal denormalizes the
// whole order's total onto every row of the batch.
type Item struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	VisitID        uuid.UUID  `db:"visit_id" json:"visit_id"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	Name           string     `db:"name" json:"name"`
	Price          int64      `db:"price" json:"price"`
	GroupTotal     int64      `db:"group_total" json:"group_total"`
	Status         ItemStatus `db:"status" json:"status"`
	ResultValue    *string    `db:"result_value" json:"result_value,omitempty"`
	ResultUnit     *string    `db:"result_unit" json:"result_unit,omitempty"`
	ReferenceRange *string    `db:"reference_range" json:"reference_range,omitempty"`
	FileURL        *string    `db:"file_url" json:"file_url,omitempty"`
	OrderedAt      time.Time  `db:"ordered_at" json:"ordered_at"`
	PerformedAt    *time.Time `db:"performed_at" json:"performed_at,omitempty"`
}

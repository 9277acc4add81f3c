package testorder

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/domain/visit"
)

type Repository interface {
	CreateBatch(ctx context.Context, items []*Item) error
	ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*Item, error)

	// CountUnresolved counts items for the visit still pending or in
	// progress. Zero means the order is resolved.
	CountUnresolved(ctx context.Context, visitID uuid.UUID) (int, error)

	// SumPrices totals the per-item prices for the visit. Billing reads the
	// test fee through this.
	SumPrices(ctx context.Context, visitID uuid.UUID) (int64, error)

	// RecordResult stores a result on an item and marks it completed.
	RecordResult(ctx context.Context, id uuid.UUID, value, unit, refRange, fileURL *string) error
}

// VisitStore is the slice of the visit domain that submitting an order needs:
// a read and a conditional status transition.
type VisitStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*visit.Visit, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to visit.Status) error
}

// RecordUpserter creates the placeholder medical record when tests are first
// ordered, or leaves an existing record alone.
type RecordUpserter interface {
	EnsurePlaceholder(ctx context.Context, visitID, patientID, doctorID uuid.UUID, note string) error
}

package visit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListFilter narrows visit listings. Zero values mean "any".
type ListFilter struct {
	Status Status
	// Day restricts results to visits scheduled on the same UTC calendar day.
	Day *time.Time
}

type Repository interface {
	Create(ctx context.Context, v *Visit) error
	GetByID(ctx context.Context, id uuid.UUID) (*Visit, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, f ListFilter, limit, offset int) ([]*Visit, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, f ListFilter, limit, offset int) ([]*Visit, int, error)

	// UpdateStatus moves the visit from one status to another only if the
	// stored status still equals from. It returns ErrStatusConflict when no
	// row matched, so a concurrent writer's transition is never overwritten.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error

	// Cancel is UpdateStatus plus the cancellation audit fields.
	Cancel(ctx context.Context, id uuid.UUID, from, to Status, by, reason string) error
}

package billing

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/domain/visit"
)

type Repository interface {
	// Create inserts the invoice. A visit carries at most one invoice, so a
	// second insert for the same visit returns ErrInvoiceExists.
	Create(ctx context.Context, inv *Invoice) error
	GetByVisit(ctx context.Context, visitID uuid.UUID) (*Invoice, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Invoice, int, error)
}

// VisitReader is the slice of the visit domain fee computation needs.
type VisitReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*visit.Visit, error)
}

// TestFeeSource totals the ordered test prices for a visit.
type TestFeeSource interface {
	SumPrices(ctx context.Context, visitID uuid.UUID) (int64, error)
}

// ServicePricer looks up the booked service's examination price. The second
// return is false when the service is not in the catalog.
type ServicePricer interface {
	ServicePrice(ctx context.Context, id uuid.UUID) (int64, bool, error)
}

// MedicinePricer resolves unit prices by medicine name. Names missing from
// the returned map are unknown to the catalog.
type MedicinePricer interface {
	MedicinePrices(ctx context.Context, names []string) (map[string]int64, error)
}

// PrescriptionSource lists the prescribed medicine names for a visit, one
// entry per prescription line.
type PrescriptionSource interface {
	MedicineNames(ctx context.Context, visitID uuid.UUID) ([]string, error)
}

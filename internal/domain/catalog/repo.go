package catalog

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	ListServices(ctx context.Context) ([]*ExamService, error)
	ListLabTests(ctx context.Context) ([]*LabTest, error)
	ListMedicines(ctx context.Context) ([]*Medicine, error)

	// ServicePrice returns the price of one exam service. The boolean is
	// false when the id is unknown.
	ServicePrice(ctx context.Context, id uuid.UUID) (int64, bool, error)

	// MedicinePrices resolves unit prices for the given names. Unknown
	// names are simply absent from the result.
	MedicinePrices(ctx context.Context, names []string) (map[string]int64, error)
}

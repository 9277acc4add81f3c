package medrecord

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/domain/billing"
	"github.com/clinic/clinic/internal/domain/visit"
)

type Repository interface {
	// EnsurePlaceholder creates a hidden record with the placeholder
	// diagnosis unless the visit already has one.
	EnsurePlaceholder(ctx context.Context, visitID, patientID, doctorID uuid.UUID, note string) error

	// UpsertByVisit writes the record's diagnosis, note and visibility,
	// creating the record if the visit has none yet. On return rec.ID is the
	// stored record's id.
	UpsertByVisit(ctx context.Context, rec *MedicalRecord) error

	GetByVisit(ctx context.Context, visitID uuid.UUID) (*MedicalRecord, error)
	ListVisibleByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalRecord, int, error)
	SetVisibility(ctx context.Context, visitID uuid.UUID, visible bool) error

	// ReplaceLines swaps the record's prescription for the given lines so a
	// re-finalized draft never accumulates duplicates.
	ReplaceLines(ctx context.Context, recordID uuid.UUID, lines []*PrescriptionLine) error
	LinesByRecord(ctx context.Context, recordID uuid.UUID) ([]*PrescriptionLine, error)

	// MedicineNames lists the visit's prescribed medicine names for billing.
	MedicineNames(ctx context.Context, visitID uuid.UUID) ([]string, error)
}

// VisitStore is the slice of the visit domain finalization needs.
type VisitStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*visit.Visit, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to visit.Status) error
}

// OrderChecker reports outstanding test results for a visit.
type OrderChecker interface {
	CountUnresolved(ctx context.Context, visitID uuid.UUID) (int, error)
}

// Biller freezes the visit's charges at finalization.
type Biller interface {
	ComputeFees(ctx context.Context, visitID uuid.UUID, includeMedicine bool) (*billing.Fees, error)
	CreateInvoice(ctx context.Context, visitID, patientID uuid.UUID, fees *billing.Fees) (*billing.Invoice, error)
}

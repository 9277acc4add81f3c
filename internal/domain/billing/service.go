package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrInvoiceExists signals that the visit already has an invoice.
var ErrInvoiceExists = errors.New("invoice already exists for visit")

// ErrInvoiceNotFound signals that no invoice has been issued for the visit.
var ErrInvoiceNotFound = errors.New("invoice not found")

type Service struct {
	repo           Repository
	visits         VisitReader
	tests          TestFeeSource
	services       ServicePricer
	medicines      MedicinePricer
	lines          PrescriptionSource
	defaultExamFee int64
}

func NewService(repo Repository, visits VisitReader, tests TestFeeSource, services ServicePricer, medicines MedicinePricer, lines PrescriptionSource, defaultExamFee int64) *Service {
	return &Service{
		repo:           repo,
		visits:         visits,
		tests:          tests,
		services:       services,
		medicines:      medicines,
		lines:          lines,
		defaultExamFee: defaultExamFee,
	}
}

// ComputeFees derives the charge breakdown for a visit from current data. It
// writes nothing, so it is safe to call repeatedly as a preview. The exam fee
// comes from the booked service's catalog price, falling back to the default
// when no service is booked or the service is unknown. Unknown medicine names
// price at zero rather than failing the computation.
func (s *Service) ComputeFees(ctx context.Context, visitID uuid.UUID, includeMedicine bool) (*Fees, error) {
	v, err := s.visits.GetByID(ctx, visitID)
	if err != nil {
		return nil, err
	}

	examFee := s.defaultExamFee
	if v.ServiceID != nil {
		price, ok, err := s.services.ServicePrice(ctx, *v.ServiceID)
		if err != nil {
			return nil, err
		}
		if ok {
			examFee = price
		}
	}

	testFee, err := s.tests.SumPrices(ctx, visitID)
	if err != nil {
		return nil, err
	}

	var medicineFee int64
	if includeMedicine {
		names, err := s.lines.MedicineNames(ctx, visitID)
		if err != nil {
			return nil, err
		}
		if len(names) > 0 {
			prices, err := s.medicines.MedicinePrices(ctx, names)
			if err != nil {
				return nil, err
			}
			// Each line contributes its catalog price once, unweighted.
			for _, n := range names {
				medicineFee += prices[n]
			}
		}
	}

	return &Fees{
		ExamFee:     examFee,
		TestFee:     testFee,
		MedicineFee: medicineFee,
		Total:       examFee + testFee + medicineFee,
	}, nil
}

// CreateInvoice freezes the computed fees into the visit's invoice. The visit
// can be invoiced once; a repeat returns ErrInvoiceExists.
func (s *Service) CreateInvoice(ctx context.Context, visitID, patientID uuid.UUID, fees *Fees) (*Invoice, error) {
	inv := &Invoice{
		VisitID:     visitID,
		PatientID:   patientID,
		ExamFee:     fees.ExamFee,
		TestFee:     fees.TestFee,
		MedicineFee: fees.MedicineFee,
		Total:       fees.Total,
	}
	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// InvoiceByVisit returns the visit's invoice, if one has been issued.
func (s *Service) InvoiceByVisit(ctx context.Context, visitID uuid.UUID) (*Invoice, error) {
	return s.repo.GetByVisit(ctx, visitID)
}

// ListByPatient returns the patient's invoices, newest first.
func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Invoice, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

package medrecord

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/domain/visit"
	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/db"
)

// ErrRecordNotFound signals that the visit has no medical record.
var ErrRecordNotFound = errors.New("medical record not found")

// ErrResultsPending blocks finalization while ordered tests lack results.
var ErrResultsPending = errors.New("test results are still pending")

// ErrVisitSealed blocks changes to a visit that has already been completed
// or cancelled.
var ErrVisitSealed = errors.New("visit is already closed")

type Service struct {
	repo   Repository
	visits VisitStore
	orders OrderChecker
	biller Biller
	txer   db.Txer
}

func NewService(repo Repository, visits VisitStore, orders OrderChecker, biller Biller, txer db.Txer) *Service {
	return &Service{repo: repo, visits: visits, orders: orders, biller: biller, txer: txer}
}

// PrescriptionInput is one medicine the doctor prescribes at finalization.
type PrescriptionInput struct {
	Name     string  `json:"name"`
	Dosage   *string `json:"dosage,omitempty"`
	Duration *string `json:"duration,omitempty"`
}

// FinalizeInput is everything the doctor submits to close out an exam.
// IncludeMedicine controls whether the prescription is billed; a doctor can
// prescribe and still leave the medicine cost off the invoice.
type FinalizeInput struct {
	Diagnosis       string              `json:"diagnosis"`
	Treatment       *string             `json:"treatment,omitempty"`
	Note            *string             `json:"note,omitempty"`
	Prescriptions   []PrescriptionInput `json:"prescriptions,omitempty"`
	IncludeMedicine bool                `json:"include_medicine"`
}

// Finalize closes out the visit's examination as one unit: the record gets
// its final diagnosis, the prescription is written, the invoice is issued
// from the fees as they stand (medicine billed only when the doctor includes
// it), and the visit moves to completed. The record
// remains hidden from the patient until released. A visit finalizes once;
// outstanding test results block it.
func (s *Service) Finalize(ctx context.Context, visitID, doctorID uuid.UUID, in FinalizeInput) (*MedicalRecord, error) {
	if strings.TrimSpace(in.Diagnosis) == "" {
		return nil, apperr.Validation("diagnosis", "diagnosis is required")
	}
	for i, p := range in.Prescriptions {
		if strings.TrimSpace(p.Name) == "" {
			return nil, apperr.Validation(fmt.Sprintf("prescriptions[%d].name", i), "medicine name is required")
		}
	}

	v, err := s.visits.GetByID(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if v.Status.Terminal() {
		return nil, ErrVisitSealed
	}
	if v.Status != visit.StatusConfirmed && v.Status != visit.StatusWaitingResults {
		return nil, ErrVisitSealed
	}

	unresolved, err := s.orders.CountUnresolved(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if unresolved > 0 {
		return nil, ErrResultsPending
	}

	rec := &MedicalRecord{
		VisitID:   visitID,
		PatientID: v.PatientID,
		DoctorID:  doctorID,
		Diagnosis: strings.TrimSpace(in.Diagnosis),
		Treatment: in.Treatment,
		Note:      in.Note,
		Visible:   false,
	}

	err = s.txer.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.UpsertByVisit(ctx, rec); err != nil {
			return fmt.Errorf("upsert medical record: %w", err)
		}

		lines := make([]*PrescriptionLine, 0, len(in.Prescriptions))
		for _, p := range in.Prescriptions {
			lines = append(lines, &PrescriptionLine{
				Name:     strings.TrimSpace(p.Name),
				Dosage:   p.Dosage,
				Duration: p.Duration,
			})
		}
		if err := s.repo.ReplaceLines(ctx, rec.ID, lines); err != nil {
			return fmt.Errorf("write prescription: %w", err)
		}
		rec.Prescriptions = lines

		fees, err := s.biller.ComputeFees(ctx, visitID, in.IncludeMedicine)
		if err != nil {
			return fmt.Errorf("compute fees: %w", err)
		}
		if _, err := s.biller.CreateInvoice(ctx, visitID, v.PatientID, fees); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}

		return s.visits.UpdateStatus(ctx, visitID, v.Status, visit.StatusCompleted)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ByVisit returns the visit's record. Patients only see released records.
func (s *Service) ByVisit(ctx context.Context, visitID uuid.UUID, includeHidden bool) (*MedicalRecord, error) {
	rec, err := s.repo.GetByVisit(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if !includeHidden && !rec.Visible {
		return nil, ErrRecordNotFound
	}
	return rec, nil
}

// ListVisibleByPatient returns the patient's released records, newest first.
func (s *Service) ListVisibleByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalRecord, int, error) {
	return s.repo.ListVisibleByPatient(ctx, patientID, limit, offset)
}

// SetVisibility releases the visit's record to the patient or hides it again.
func (s *Service) SetVisibility(ctx context.Context, visitID uuid.UUID, visible bool) error {
	return s.repo.SetVisibility(ctx, visitID, visible)
}

package visit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Actor identifies which side of the visit is acting. It selects the
// cancellation target state.
type Actor string

const (
	ActorPatient Actor = "patient"
	ActorDoctor  Actor = "doctor"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Book creates a new visit in the pending state.
func (s *Service) Book(ctx context.Context, v *Visit) error {
	if v.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if v.DoctorID == uuid.Nil {
		return fmt.Errorf("doctor_id is required")
	}
	if v.ScheduledAt.IsZero() {
		return fmt.Errorf("scheduled_at is required")
	}
	if v.Status == "" {
		v.Status = StatusPending
	}
	if v.Status != StatusPending {
		return fmt.Errorf("a new visit must start pending, got %q", v.Status)
	}
	return s.repo.Create(ctx, v)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, f ListFilter, limit, offset int) ([]*Visit, int, error) {
	return s.repo.ListByDoctor(ctx, doctorID, f, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, f ListFilter, limit, offset int) ([]*Visit, int, error) {
	return s.repo.ListByPatient(ctx, patientID, f, limit, offset)
}

// Confirm moves a pending visit to confirmed. Only the doctor confirms.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, StatusPending, StatusConfirmed)
}

// Cancel moves a non-terminal visit to the cancelling actor's terminal state
// and records who cancelled and why.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, actor Actor, reason string) error {
	target := StatusPatientCancelled
	if actor == ActorDoctor {
		target = StatusDoctorCancelled
	}

	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !CanTransition(v.Status, target) {
		return &TransitionError{From: v.Status, To: target}
	}

	err = s.repo.Cancel(ctx, id, v.Status, target, string(actor), reason)
	if errors.Is(err, ErrStatusConflict) {
		return &TransitionError{From: v.Status, To: target}
	}
	return err
}

// transition applies a guarded edge: the table is consulted against the
// currently stored status, and the write succeeds only if that status is
// still in place at write time.
func (s *Service) transition(ctx context.Context, id uuid.UUID, from, to Status) error {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if v.Status != from || !CanTransition(from, to) {
		return &TransitionError{From: v.Status, To: to}
	}

	err = s.repo.UpdateStatus(ctx, id, from, to)
	if errors.Is(err, ErrStatusConflict) {
		return &TransitionError{From: from, To: to}
	}
	return err
}

// ExamWindow reports whether the visit is currently actionable for starting
// the exam.
func (s *Service) ExamWindow(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if v.Status.Terminal() {
		return false, nil
	}
	return v.WithinExamWindow(now), nil
}

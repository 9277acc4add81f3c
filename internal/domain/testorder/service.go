package testorder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/domain/visit"
	"github.com/clinic/clinic/internal/platform/db"
)

// ErrEmptyOrder rejects a submission with no tests selected.
var ErrEmptyOrder = errors.New("test order is empty")

// ErrNotActionable rejects a submission against a visit that is not confirmed
// for today. Ordering tests only makes sense mid-examination.
var ErrNotActionable = errors.New("visit is not in an examinable state")

type Service struct {
	repo    Repository
	visits  VisitStore
	records RecordUpserter
	txer    db.Txer
}

func NewService(repo Repository, visits VisitStore, records RecordUpserter, txer db.Txer) *Service {
	return &Service{repo: repo, visits: visits, records: records, txer: txer}
}

// Submit persists a doctor's selected tests for the visit as one unit: the
// placeholder medical record is created if missing, every selection becomes a
// pending item stamped with the order total, and the visit moves from
// confirmed to waiting_results. If any step fails nothing is kept.
func (s *Service) Submit(ctx context.Context, visitID, doctorID uuid.UUID, note string, order *Order) ([]*Item, error) {
	if order == nil || order.Empty() {
		return nil, ErrEmptyOrder
	}

	v, err := s.visits.GetByID(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if v.Status != visit.StatusConfirmed || !v.ScheduledToday(time.Now()) {
		return nil, ErrNotActionable
	}

	total := order.Total()
	items := make([]*Item, 0, order.Len())
	for _, sel := range order.Items() {
		items = append(items, &Item{
			VisitID:    visitID,
			PatientID:  v.PatientID,
			Name:       sel.Name,
			Price:      sel.Price,
			GroupTotal: total,
			Status:     ItemPending,
		})
	}

	err = s.txer.InTx(ctx, func(ctx context.Context) error {
		if err := s.records.EnsurePlaceholder(ctx, visitID, v.PatientID, doctorID, note); err != nil {
			return fmt.Errorf("ensure medical record: %w", err)
		}
		if err := s.repo.CreateBatch(ctx, items); err != nil {
			return err
		}
		return s.visits.UpdateStatus(ctx, visitID, visit.StatusConfirmed, visit.StatusWaitingResults)
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ListByVisit returns every ordered item for the visit.
func (s *Service) ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*Item, error) {
	return s.repo.ListByVisit(ctx, visitID)
}

// RecordResult stores a result value on one item and marks it completed.
func (s *Service) RecordResult(ctx context.Context, itemID uuid.UUID, value, unit, refRange, fileURL *string) error {
	return s.repo.RecordResult(ctx, itemID, value, unit, refRange, fileURL)
}

// Unresolved reports how many items for the visit still lack a result.
func (s *Service) Unresolved(ctx context.Context, visitID uuid.UUID) (int, error) {
	return s.repo.CountUnresolved(ctx, visitID)
}

package medrecord

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/domain/billing"
	"github.com/clinic/clinic/internal/domain/visit"
	"github.com/clinic/clinic/internal/platform/apperr"
)

type mockRepo struct {
	byVisit    map[uuid.UUID]*MedicalRecord
	lines      map[uuid.UUID][]*PrescriptionLine
	failUpsert error
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		byVisit: map[uuid.UUID]*MedicalRecord{},
		lines:   map[uuid.UUID][]*PrescriptionLine{},
	}
}

func (m *mockRepo) EnsurePlaceholder(_ context.Context, visitID, patientID, doctorID uuid.UUID, note string) error {
	if _, ok := m.byVisit[visitID]; ok {
		return nil
	}
	var notePtr *string
	if note != "" {
		notePtr = &note
	}
	m.byVisit[visitID] = &MedicalRecord{
		ID:        uuid.New(),
		VisitID:   visitID,
		PatientID: patientID,
		DoctorID:  doctorID,
		Diagnosis: PlaceholderDiagnosis,
		Note:      notePtr,
	}
	return nil
}

func (m *mockRepo) UpsertByVisit(_ context.Context, rec *MedicalRecord) error {
	if m.failUpsert != nil {
		return m.failUpsert
	}
	if existing, ok := m.byVisit[rec.VisitID]; ok {
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
	} else if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	cp := *rec
	m.byVisit[rec.VisitID] = &cp
	return nil
}

func (m *mockRepo) GetByVisit(_ context.Context, visitID uuid.UUID) (*MedicalRecord, error) {
	rec, ok := m.byVisit[visitID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	cp := *rec
	cp.Prescriptions = m.lines[rec.ID]
	return &cp, nil
}

func (m *mockRepo) ListVisibleByPatient(_ context.Context, patientID uuid.UUID, _, _ int) ([]*MedicalRecord, int, error) {
	var out []*MedicalRecord
	for _, rec := range m.byVisit {
		if rec.PatientID == patientID && rec.Visible {
			out = append(out, rec)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) SetVisibility(_ context.Context, visitID uuid.UUID, visible bool) error {
	rec, ok := m.byVisit[visitID]
	if !ok {
		return ErrRecordNotFound
	}
	rec.Visible = visible
	return nil
}

func (m *mockRepo) ReplaceLines(_ context.Context, recordID uuid.UUID, lines []*PrescriptionLine) error {
	for _, l := range lines {
		l.ID = uuid.New()
		l.RecordID = recordID
	}
	m.lines[recordID] = lines
	return nil
}

func (m *mockRepo) LinesByRecord(_ context.Context, recordID uuid.UUID) ([]*PrescriptionLine, error) {
	return m.lines[recordID], nil
}

func (m *mockRepo) MedicineNames(_ context.Context, visitID uuid.UUID) ([]string, error) {
	rec, ok := m.byVisit[visitID]
	if !ok {
		return nil, nil
	}
	var out []string
	for _, l := range m.lines[rec.ID] {
		out = append(out, l.Name)
	}
	return out, nil
}

type mockVisitStore struct {
	visits map[uuid.UUID]*visit.Visit
}

func (m *mockVisitStore) GetByID(_ context.Context, id uuid.UUID) (*visit.Visit, error) {
	v, ok := m.visits[id]
	if !ok {
		return nil, visit.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *mockVisitStore) UpdateStatus(_ context.Context, id uuid.UUID, from, to visit.Status) error {
	v, ok := m.visits[id]
	if !ok {
		return visit.ErrNotFound
	}
	if v.Status != from {
		return visit.ErrStatusConflict
	}
	v.Status = to
	return nil
}

type mockOrderChecker struct {
	unresolved map[uuid.UUID]int
	sums       map[uuid.UUID]int64
}

func (m *mockOrderChecker) CountUnresolved(_ context.Context, visitID uuid.UUID) (int, error) {
	return m.unresolved[visitID], nil
}

func (m *mockOrderChecker) SumPrices(_ context.Context, visitID uuid.UUID) (int64, error) {
	return m.sums[visitID], nil
}

type mockServicePrices struct{}

func (mockServicePrices) ServicePrice(_ context.Context, _ uuid.UUID) (int64, bool, error) {
	return 0, false, nil
}

type mockMedicinePrices struct {
	prices map[string]int64
}

func (m *mockMedicinePrices) MedicinePrices(_ context.Context, names []string) (map[string]int64, error) {
	out := map[string]int64{}
	for _, n := range names {
		if p, ok := m.prices[n]; ok {
			out[n] = p
		}
	}
	return out, nil
}

type fakeTxer struct{}

func (fakeTxer) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fixture wires the medical record service to a real billing service over
// in-memory stores so finalization exercises the whole fee path.
type fixture struct {
	svc      *Service
	repo     *mockRepo
	visits   *mockVisitStore
	orders   *mockOrderChecker
	invoices *billing.Service
	invRepo  *fakeInvoiceRepo
	visit    *visit.Visit
}

type fakeInvoiceRepo struct {
	byVisit map[uuid.UUID]*billing.Invoice
}

func (m *fakeInvoiceRepo) Create(_ context.Context, inv *billing.Invoice) error {
	if _, ok := m.byVisit[inv.VisitID]; ok {
		return billing.ErrInvoiceExists
	}
	inv.ID = uuid.New()
	m.byVisit[inv.VisitID] = inv
	return nil
}

func (m *fakeInvoiceRepo) GetByVisit(_ context.Context, visitID uuid.UUID) (*billing.Invoice, error) {
	inv, ok := m.byVisit[visitID]
	if !ok {
		return nil, billing.ErrInvoiceNotFound
	}
	return inv, nil
}

func (m *fakeInvoiceRepo) ListByPatient(_ context.Context, _ uuid.UUID, _, _ int) ([]*billing.Invoice, int, error) {
	return nil, 0, nil
}

func newFixture(status visit.Status) *fixture {
	v := &visit.Visit{
		ID:        uuid.New(),
		PatientID: uuid.New(),
		DoctorID:  uuid.New(),
		Status:    status,
	}
	repo := newMockRepo()
	visits := &mockVisitStore{visits: map[uuid.UUID]*visit.Visit{v.ID: v}}
	orders := &mockOrderChecker{unresolved: map[uuid.UUID]int{}, sums: map[uuid.UUID]int64{}}
	invRepo := &fakeInvoiceRepo{byVisit: map[uuid.UUID]*billing.Invoice{}}
	medicines := &mockMedicinePrices{prices: map[string]int64{"Paracetamol": 20000}}

	biller := billing.NewService(invRepo, visits, orders, mockServicePrices{}, medicines, repo, 200000)

	return &fixture{
		svc:      NewService(repo, visits, orders, biller, fakeTxer{}),
		repo:     repo,
		visits:   visits,
		orders:   orders,
		invoices: biller,
		invRepo:  invRepo,
		visit:    v,
	}
}

func TestFinalizeRequiresDiagnosis(t *testing.T) {
	f := newFixture(visit.StatusWaitingResults)
	_, err := f.svc.Finalize(context.Background(), f.visit.ID, f.visit.DoctorID, FinalizeInput{Diagnosis: "  "})
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFinalizeBlockedWhileResultsPending(t *testing.T) {
	f := newFixture(visit.StatusWaitingResults)
	f.orders.unresolved[f.visit.ID] = 2

	_, err := f.svc.Finalize(context.Background(), f.visit.ID, f.visit.DoctorID, FinalizeInput{Diagnosis: "Viêm họng"})
	if !errors.Is(err, ErrResultsPending) {
		t.Fatalf("expected ErrResultsPending, got %v", err)
	}
	if f.visits.visits[f.visit.ID].Status != visit.StatusWaitingResults {
		t.Error("visit must not advance while results are pending")
	}
}

func TestFinalizeWithTestsAndPrescription(t *testing.T) {
	f := newFixture(visit.StatusWaitingResults)
	f.orders.sums[f.visit.ID] = 50000

	treatment := "Nghỉ ngơi, uống nhiều nước"
	rec, err := f.svc.Finalize(context.Background(), f.visit.ID, f.visit.DoctorID, FinalizeInput{
		Diagnosis:       "Viêm họng",
		Treatment:       &treatment,
		Prescriptions:   []PrescriptionInput{{Name: "Paracetamol"}},
		IncludeMedicine: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Diagnosis != "Viêm họng" {
		t.Errorf("expected diagnosis kept, got %q", rec.Diagnosis)
	}
	if rec.Treatment == nil || *rec.Treatment != treatment {
		t.Error("treatment not carried onto the record")
	}
	stored, _ := f.repo.GetByVisit(context.Background(), f.visit.ID)
	if stored.Treatment == nil || *stored.Treatment != treatment {
		t.Error("treatment not persisted")
	}
	if rec.Visible {
		t.Error("finalized record must stay hidden from the patient")
	}
	if f.visits.visits[f.visit.ID].Status != visit.StatusCompleted {
		t.Errorf("expected completed visit, got %s", f.visits.visits[f.visit.ID].Status)
	}

	inv, err := f.invoices.InvoiceByVisit(context.Background(), f.visit.ID)
	if err != nil {
		t.Fatalf("expected invoice: %v", err)
	}
	if inv.ExamFee != 200000 || inv.TestFee != 50000 || inv.MedicineFee != 20000 {
		t.Errorf("unexpected fee breakdown: %+v", inv)
	}
	if inv.Total != 270000 {
		t.Errorf("expected total 270000, got %d", inv.Total)
	}
}

func TestFinalizeWithoutPrescription(t *testing.T) {
	f := newFixture(visit.StatusWaitingResults)
	f.orders.sums[f.visit.ID] = 50000

	_, err := f.svc.Finalize(context.Background(), f.visit.ID, f.visit.DoctorID, FinalizeInput{Diagnosis: "Khỏe mạnh"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	inv, err := f.invoices.InvoiceByVisit(context.Background(), f.visit.ID)
	if err != nil {
		t.Fatalf("expected invoice: %v", err)
	}
	if inv.Total != 250000 {
		t.Errorf("expected total 250000, got %d", inv.Total)
	}
}

func TestFinalizeExcludesMedicineWhenNotBilled(t *testing.T) {
	f := newFixture(visit.StatusWaitingResults)
	f.orders.sums[f.visit.ID] = 50000

	// Medicine is prescribed but the doctor keeps it off the invoice.
	rec, err := f.svc.Finalize(context.Background(), f.visit.ID, f.visit.DoctorID, FinalizeInput{
		Diagnosis:       "Viêm họng",
		Prescriptions:   []PrescriptionInput{{Name: "Paracetamol"}},
		IncludeMedicine: false,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines, _ := f.repo.LinesByRecord(context.Background(), rec.ID)
	if len(lines) != 1 {
		t.Fatalf("prescription must still be recorded, got %d lines", len(lines))
	}

	inv, err := f.invoices.InvoiceByVisit(context.Background(), f.visit.ID)
	if err != nil {
		t.Fatalf("expected invoice: %v", err)
	}
	if inv.MedicineFee != 0 {
		t.Errorf("expected medicine fee 0 when excluded, got %d", inv.MedicineFee)
	}
	if inv.Total != 250000 {
		t.Errorf("expected total 250000, got %d", inv.Total)
	}
}

func TestFinalizeDirectFromConfirmed(t *testing.T) {
	f := newFixture(visit.StatusConfirmed)

	_, err := f.svc.Finalize(context.Background(), f.visit.ID, f.visit.DoctorID, FinalizeInput{Diagnosis: "Khỏe mạnh"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	inv, _ := f.invoices.InvoiceByVisit(context.Background(), f.visit.ID)
	if inv.Total != 200000 {
		t.Errorf("exam with no tests or medicine should bill the exam fee only, got %d", inv.Total)
	}
}

func TestFinalizeRejectsClosedVisit(t *testing.T) {
	for _, status := range []visit.Status{visit.StatusCompleted, visit.StatusPatientCancelled, visit.StatusDoctorCancelled, visit.StatusPending} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(status)
			_, err := f.svc.Finalize(context.Background(), f.visit.ID, f.visit.DoctorID, FinalizeInput{Diagnosis: "X"})
			if !errors.Is(err, ErrVisitSealed) {
				t.Fatalf("expected ErrVisitSealed, got %v", err)
			}
		})
	}
}

func TestFinalizeTwiceRejected(t *testing.T) {
	f := newFixture(visit.StatusWaitingResults)

	if _, err := f.svc.Finalize(context.Background(), f.visit.ID, f.visit.DoctorID, FinalizeInput{Diagnosis: "Viêm họng"}); err != nil {
		t.Fatalf("first finalize failed: %v", err)
	}
	_, err := f.svc.Finalize(context.Background(), f.visit.ID, f.visit.DoctorID, FinalizeInput{Diagnosis: "Viêm họng"})
	if !errors.Is(err, ErrVisitSealed) {
		t.Fatalf("expected ErrVisitSealed on second finalize, got %v", err)
	}
	if len(f.invRepo.byVisit) != 1 {
		t.Errorf("expected exactly one invoice, got %d", len(f.invRepo.byVisit))
	}
}

func TestFinalizeReplacesPrescription(t *testing.T) {
	f := newFixture(visit.StatusWaitingResults)

	dosage := "1 viên x 2 lần/ngày"
	duration := "5 ngày"
	rec, err := f.svc.Finalize(context.Background(), f.visit.ID, f.visit.DoctorID, FinalizeInput{
		Diagnosis:       "Viêm họng",
		Prescriptions:   []PrescriptionInput{{Name: "Paracetamol", Dosage: &dosage, Duration: &duration}},
		IncludeMedicine: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines, _ := f.repo.LinesByRecord(context.Background(), rec.ID)
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %+v", lines)
	}
	if lines[0].Duration == nil || *lines[0].Duration != duration {
		t.Errorf("expected duration kept, got %+v", lines[0])
	}
}

func TestVisibilityGate(t *testing.T) {
	f := newFixture(visit.StatusWaitingResults)

	if _, err := f.svc.Finalize(context.Background(), f.visit.ID, f.visit.DoctorID, FinalizeInput{Diagnosis: "Viêm họng"}); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	// Hidden from the patient, visible to the doctor.
	if _, err := f.svc.ByVisit(context.Background(), f.visit.ID, false); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("patient should not see hidden record, got %v", err)
	}
	if _, err := f.svc.ByVisit(context.Background(), f.visit.ID, true); err != nil {
		t.Errorf("doctor should see hidden record, got %v", err)
	}

	if err := f.svc.SetVisibility(context.Background(), f.visit.ID, true); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	rec, err := f.svc.ByVisit(context.Background(), f.visit.ID, false)
	if err != nil {
		t.Fatalf("patient should see released record, got %v", err)
	}
	if !rec.Visible {
		t.Error("record should be marked visible")
	}
}

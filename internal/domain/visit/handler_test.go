package visit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/auth"
)

func newTestHandler() (*Handler, *mockRepo, *echo.Echo) {
	repo := newMockRepo()
	h := NewHandler(NewService(repo))
	e := echo.New()
	return h, repo, e
}

// authedContext builds an echo context whose request carries actor identity,
// the way the auth middleware would.
func authedContext(e *echo.Echo, req *http.Request, rec *httptest.ResponseRecorder, userID uuid.UUID, roles ...string) echo.Context {
	ctx := req.Context()
	ctx = context.WithValue(ctx, auth.UserIDKey, userID.String())
	ctx = context.WithValue(ctx, auth.UserRolesKey, roles)
	c := e.NewContext(req.WithContext(ctx), rec)
	return c
}

func TestHandler_BookVisit(t *testing.T) {
	h, repo, e := newTestHandler()
	patientID := uuid.New()

	body := `{"doctor_id":"` + uuid.New().String() + `","scheduled_at":"` +
		time.Now().Add(24*time.Hour).UTC().Format(time.RFC3339) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := authedContext(e, req, rec, patientID, "patient")

	if err := h.BookVisit(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var v Visit
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if v.PatientID != patientID {
		t.Error("patient id must come from the authenticated actor")
	}
	if v.Status != StatusPending {
		t.Errorf("expected pending, got %s", v.Status)
	}
	if len(repo.visits) != 1 {
		t.Errorf("expected one stored visit, got %d", len(repo.visits))
	}
}

func TestHandler_BookVisit_IgnoresPatientIDInBody(t *testing.T) {
	h, _, e := newTestHandler()
	actor := uuid.New()
	spoofed := uuid.New()

	body := `{"patient_id":"` + spoofed.String() + `","doctor_id":"` + uuid.New().String() +
		`","scheduled_at":"` + time.Now().Add(time.Hour).UTC().Format(time.RFC3339) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := authedContext(e, req, rec, actor, "patient")

	if err := h.BookVisit(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var v Visit
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if v.PatientID == spoofed {
		t.Error("body-supplied patient id must be ignored")
	}
	if v.PatientID != actor {
		t.Error("patient id must be the authenticated actor")
	}
}

func TestHandler_GetVisit_InvalidID(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	if err := h.GetVisit(c); err == nil {
		t.Error("expected error for invalid id")
	}
}

func TestHandler_ConfirmVisit(t *testing.T) {
	h, repo, e := newTestHandler()
	v := &Visit{PatientID: uuid.New(), DoctorID: uuid.New(), ScheduledAt: time.Now(), Status: StatusPending}
	repo.Create(context.Background(), v)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := authedContext(e, req, rec, v.DoctorID, "physician")
	c.SetParamNames("id")
	c.SetParamValues(v.ID.String())

	if err := h.ConfirmVisit(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if repo.visits[v.ID].Status != StatusConfirmed {
		t.Errorf("expected confirmed, got %s", repo.visits[v.ID].Status)
	}
}

func TestHandler_ConfirmVisit_Conflict(t *testing.T) {
	h, repo, e := newTestHandler()
	v := &Visit{PatientID: uuid.New(), DoctorID: uuid.New(), ScheduledAt: time.Now(), Status: StatusCompleted}
	repo.Create(context.Background(), v)
	repo.visits[v.ID].Status = StatusCompleted

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := authedContext(e, req, rec, v.DoctorID, "physician")
	c.SetParamNames("id")
	c.SetParamValues(v.ID.String())

	err := h.ConfirmVisit(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %v", err)
	}
}

func TestHandler_CancelVisit_ActorPicksTerminalState(t *testing.T) {
	h, repo, e := newTestHandler()
	v := &Visit{PatientID: uuid.New(), DoctorID: uuid.New(), ScheduledAt: time.Now(), Status: StatusConfirmed}
	repo.Create(context.Background(), v)
	repo.visits[v.ID].Status = StatusConfirmed

	body := `{"reason":"bận việc đột xuất"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := authedContext(e, req, rec, v.PatientID, "patient")
	c.SetParamNames("id")
	c.SetParamValues(v.ID.String())

	if err := h.CancelVisit(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := repo.visits[v.ID]
	if got.Status != StatusPatientCancelled {
		t.Errorf("expected patient_cancelled, got %s", got.Status)
	}
	if got.CancelReason == nil || *got.CancelReason != "bận việc đột xuất" {
		t.Error("cancel reason not recorded")
	}
}

package visit

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("physician", "patient"))
	read.GET("/visits", h.ListVisits)
	read.GET("/visits/:id", h.GetVisit)
	read.GET("/visits/:id/exam-window", h.ExamWindow)

	api.POST("/visits", h.BookVisit, auth.RequireRole("patient"))
	api.POST("/visits/:id/confirm", h.ConfirmVisit, auth.RequireRole("physician"))
	api.POST("/visits/:id/cancel", h.CancelVisit, auth.RequireRole("physician", "patient"))
}

type bookRequest struct {
	DoctorID    uuid.UUID  `json:"doctor_id"`
	ServiceID   *uuid.UUID `json:"service_id,omitempty"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	Symptoms    *string    `json:"symptoms,omitempty"`
}

func (h *Handler) BookVisit(c echo.Context) error {
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	// The patient reference is always the authenticated actor, never taken
	// from the request body.
	patientID, err := actorID(c)
	if err != nil {
		return err
	}

	v := &Visit{
		PatientID:   patientID,
		DoctorID:    req.DoctorID,
		ServiceID:   req.ServiceID,
		ScheduledAt: req.ScheduledAt,
		Symptoms:    req.Symptoms,
	}
	if err := h.svc.Book(c.Request().Context(), v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) GetVisit(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	v, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "visit not found")
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) ListVisits(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()

	uid, err := actorID(c)
	if err != nil {
		return err
	}

	var f ListFilter
	if st := c.QueryParam("status"); st != "" {
		if !Status(st).Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid status filter")
		}
		f.Status = Status(st)
	}
	if c.QueryParam("today") == "true" {
		now := time.Now().UTC()
		f.Day = &now
	}

	var visits []*Visit
	var total int
	if auth.HasRole(ctx, "physician") {
		visits, total, err = h.svc.ListByDoctor(ctx, uid, f, pg.Limit, pg.Offset)
	} else {
		visits, total, err = h.svc.ListByPatient(ctx, uid, f, pg.Limit, pg.Offset)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(visits, total, pg.Limit, pg.Offset))
}

func (h *Handler) ConfirmVisit(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Confirm(c.Request().Context(), id); err != nil {
		return transitionHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) CancelVisit(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req cancelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	actor := ActorPatient
	if auth.HasRole(c.Request().Context(), "physician") {
		actor = ActorDoctor
	}

	if err := h.svc.Cancel(c.Request().Context(), id, actor, req.Reason); err != nil {
		return transitionHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ExamWindow(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	open, err := h.svc.ExamWindow(c.Request().Context(), id, time.Now().UTC())
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "visit not found")
	}
	return c.JSON(http.StatusOK, map[string]bool{"actionable": open})
}

// actorID parses the authenticated actor's id into a UUID.
func actorID(c echo.Context) (uuid.UUID, error) {
	uid, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "unknown actor identity")
	}
	return uid, nil
}

// transitionHTTPError maps state machine failures to HTTP responses.
func transitionHTTPError(err error) error {
	switch {
	case IsTransitionError(err):
		return echo.NewHTTPError(http.StatusConflict, "visit state changed, please refresh and try again")
	case err == ErrNotFound:
		return echo.NewHTTPError(http.StatusNotFound, "visit not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

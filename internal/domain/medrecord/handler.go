package medrecord

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/domain/billing"
	"github.com/clinic/clinic/internal/domain/visit"
	"github.com/clinic/clinic/internal/platform/apperr"
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
	api.POST("/visits/:id/finalize", h.Finalize, auth.RequireRole("physician"))
	api.PATCH("/visits/:id/record/visibility", h.SetVisibility, auth.RequireRole("physician"))
	api.GET("/visits/:id/record", h.GetRecord, auth.RequireRole("physician", "patient"))
	api.GET("/records", h.ListRecords, auth.RequireRole("patient"))
}

func (h *Handler) Finalize(c echo.Context) error {
	visitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	doctorID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown actor identity")
	}

	var in FinalizeInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	rec, err := h.svc.Finalize(c.Request().Context(), visitID, doctorID, in)
	if err != nil {
		return finalizeHTTPError(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

type visibilityRequest struct {
	Visible bool `json:"visible"`
}

func (h *Handler) SetVisibility(c echo.Context) error {
	visitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req visibilityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SetVisibility(c.Request().Context(), visitID, req.Visible); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "medical record not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetRecord(c echo.Context) error {
	visitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	// Doctors see drafts; patients only see released records.
	includeHidden := auth.HasRole(c.Request().Context(), "physician")

	rec, err := h.svc.ByVisit(c.Request().Context(), visitID, includeHidden)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "medical record not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) ListRecords(c echo.Context) error {
	pg := pagination.FromContext(c)

	patientID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown actor identity")
	}

	records, total, err := h.svc.ListVisibleByPatient(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(records, total, pg.Limit, pg.Offset))
}

func finalizeHTTPError(err error) error {
	switch {
	case apperr.IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrResultsPending):
		return echo.NewHTTPError(http.StatusConflict, "test results are still pending")
	case errors.Is(err, ErrVisitSealed), errors.Is(err, billing.ErrInvoiceExists):
		return echo.NewHTTPError(http.StatusConflict, "visit is already closed")
	case visit.IsTransitionError(err), errors.Is(err, visit.ErrStatusConflict):
		return echo.NewHTTPError(http.StatusConflict, "visit state changed, please refresh and try again")
	case errors.Is(err, visit.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "visit not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

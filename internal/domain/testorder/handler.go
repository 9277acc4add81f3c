package testorder

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/domain/visit"
	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/visits/:id/test-orders", h.SubmitOrder, auth.RequireRole("physician"))
	api.GET("/visits/:id/test-orders", h.ListOrders, auth.RequireRole("physician", "patient"))
	api.PATCH("/test-orders/:id/result", h.RecordResult, auth.RequireRole("physician"))
}

type submitRequest struct {
	Note  string `json:"note"`
	Tests []struct {
		Name     string `json:"name"`
		Price    int64  `json:"price"`
		Custom   bool   `json:"custom,omitempty"`
		RawPrice string `json:"raw_price,omitempty"`
	} `json:"tests"`
}

func (h *Handler) SubmitOrder(c echo.Context) error {
	visitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	doctorID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown actor identity")
	}

	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	order := NewOrder()
	for _, t := range req.Tests {
		if t.Custom {
			if err := order.AddCustom(t.Name, t.RawPrice); err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, err.Error())
			}
			continue
		}
		order.Toggle(t.Name, t.Price)
	}

	items, err := h.svc.Submit(c.Request().Context(), visitID, doctorID, req.Note, order)
	if err != nil {
		return orderHTTPError(err)
	}
	return c.JSON(http.StatusCreated, items)
}

func (h *Handler) ListOrders(c echo.Context) error {
	visitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.ListByVisit(c.Request().Context(), visitID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

type resultRequest struct {
	Value          *string `json:"value,omitempty"`
	Unit           *string `json:"unit,omitempty"`
	ReferenceRange *string `json:"reference_range,omitempty"`
	FileURL        *string `json:"file_url,omitempty"`
}

func (h *Handler) RecordResult(c echo.Context) error {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req resultRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.RecordResult(c.Request().Context(), itemID, req.Value, req.Unit, req.ReferenceRange, req.FileURL); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func orderHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrEmptyOrder), errors.Is(err, ErrNotActionable), apperr.IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case visit.IsTransitionError(err), errors.Is(err, visit.ErrStatusConflict):
		return echo.NewHTTPError(http.StatusConflict, "visit state changed, please refresh and try again")
	case errors.Is(err, visit.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "visit not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

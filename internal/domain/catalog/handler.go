package catalog

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/auth"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("/catalog", auth.RequireRole("physician", "patient"))
	read.GET("/services", h.ListServices)
	read.GET("/lab-tests", h.ListLabTests)
	read.GET("/medicines", h.ListMedicines)
}

func (h *Handler) ListServices(c echo.Context) error {
	services, err := h.repo.ListServices(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, services)
}

func (h *Handler) ListLabTests(c echo.Context) error {
	tests, err := h.repo.ListLabTests(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, tests)
}

func (h *Handler) ListMedicines(c echo.Context) error {
	medicines, err := h.repo.ListMedicines(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, medicines)
}

package prescription

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/domain/scheduling"
	"github.com/clinic/clinic/internal/platform/auth"
)

type Handler struct {
	svc   *Service
	guard *auth.Guard
}

func NewHandler(svc *Service, guard *auth.Guard) *Handler {
	return &Handler{svc: svc, guard: guard}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	doctor := api.Group("/doctor", auth.RequireRole(h.guard, auth.RoleDoctor))
	doctor.POST("/prescriptions", h.Save)
	doctor.GET("/appointments/:id/prescription", h.GetByAppointment)
}

func (h *Handler) Save(c echo.Context) error {
	doctorID := auth.PrincipalIDFromContext(c.Request().Context())
	if doctorID == uuid.Nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing principal")
	}
	var in SaveInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.Save(c.Request().Context(), doctorID, in)
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicate):
			return echo.NewHTTPError(http.StatusConflict, "prescription already exists for this appointment")
		case errors.Is(err, scheduling.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
		case errors.Is(err, scheduling.ErrNotOwner):
			return echo.NewHTTPError(http.StatusForbidden, "appointment belongs to another doctor")
		case errors.Is(err, scheduling.ErrTerminalState):
			return echo.NewHTTPError(http.StatusConflict, "appointment is already completed or cancelled")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetByAppointment(c echo.Context) error {
	apptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetByAppointment(c.Request().Context(), apptID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no prescription found for this appointment")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "lookup failed")
	}
	return c.JSON(http.StatusOK, p)
}

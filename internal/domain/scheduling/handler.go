package scheduling

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/pkg/pagination"
)

type Handler struct {
	svc   *Service
	guard *auth.Guard
}

func NewHandler(svc *Service, guard *auth.Guard) *Handler {
	return &Handler{svc: svc, guard: guard}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// The availability route declares the caller's role in the path; any
	// authenticated principal may look at a doctor's free slots.
	api.GET("/:role/doctors/:id/availability", h.DoctorAvailability,
		auth.RequireDeclaredRole(h.guard, auth.RoleAdmin, auth.RoleDoctor, auth.RolePatient))

	patient := api.Group("/patient", auth.RequireRole(h.guard, auth.RolePatient))
	patient.POST("/appointments", h.Book)
	patient.GET("/appointments", h.PatientAppointments)
	patient.GET("/appointments/:id", h.GetAppointment)
	patient.PUT("/appointments/:id", h.Reschedule)
	patient.DELETE("/appointments/:id", h.Cancel)

	doctor := api.Group("/doctor", auth.RequireRole(h.guard, auth.RoleDoctor))
	doctor.GET("/appointments", h.DoctorDay)
	doctor.GET("/appointments/:id", h.GetAppointment)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	case errors.Is(err, ErrDoctorNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
	case errors.Is(err, ErrPastTime):
		return echo.NewHTTPError(http.StatusBadRequest, "appointment time must be in the future")
	case errors.Is(err, ErrSlotUnavailable):
		return echo.NewHTTPError(http.StatusConflict, "slot is not available")
	case errors.Is(err, ErrTerminalState):
		return echo.NewHTTPError(http.StatusConflict, "appointment is already completed or cancelled")
	case errors.Is(err, ErrNotOwner):
		return echo.NewHTTPError(http.StatusForbidden, "appointment belongs to another principal")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "operation failed")
}

// parseDay reads a "date" query param as YYYY-MM-DD, defaulting to today.
func parseDay(c echo.Context) (time.Time, error) {
	raw := c.QueryParam("date")
	if raw == "" {
		return time.Now(), nil
	}
	day, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	return day, nil
}

func (h *Handler) DoctorAvailability(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	day, err := parseDay(c)
	if err != nil {
		return err
	}
	free, err := h.svc.DoctorAvailability(c.Request().Context(), doctorID, day)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"doctor_id": doctorID,
		"date":      day.Format("2006-01-02"),
		"slots":     free,
	})
}

type bookRequest struct {
	DoctorID  uuid.UUID `json:"doctor_id"`
	StartTime time.Time `json:"start_time"`
}

func (h *Handler) Book(c echo.Context) error {
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.DoctorID == uuid.Nil || req.StartTime.IsZero() {
		return echo.NewHTTPError(http.StatusBadRequest, "doctor_id and start_time are required")
	}
	patientID := auth.PrincipalIDFromContext(c.Request().Context())
	if patientID == uuid.Nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing principal")
	}
	a, err := h.svc.Book(c.Request().Context(), patientID, req.DoctorID, req.StartTime)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

type rescheduleRequest struct {
	StartTime time.Time `json:"start_time"`
}

func (h *Handler) Reschedule(c echo.Context) error {
	apptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req rescheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.StartTime.IsZero() {
		return echo.NewHTTPError(http.StatusBadRequest, "start_time is required")
	}
	patientID := auth.PrincipalIDFromContext(c.Request().Context())
	if patientID == uuid.Nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing principal")
	}
	a, err := h.svc.Reschedule(c.Request().Context(), patientID, apptID, req.StartTime)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Cancel(c echo.Context) error {
	apptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	patientID := auth.PrincipalIDFromContext(c.Request().Context())
	if patientID == uuid.Nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing principal")
	}
	if err := h.svc.Cancel(c.Request().Context(), patientID, apptID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	apptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	principalID := auth.PrincipalIDFromContext(c.Request().Context())
	if principalID == uuid.Nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing principal")
	}
	a, err := h.svc.Get(c.Request().Context(), principalID, apptID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) DoctorDay(c echo.Context) error {
	doctorID := auth.PrincipalIDFromContext(c.Request().Context())
	if doctorID == uuid.Nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing principal")
	}
	day, err := parseDay(c)
	if err != nil {
		return err
	}
	items, err := h.svc.DoctorDay(c.Request().Context(), doctorID, day, c.QueryParam("patient"))
	if err != nil {
		return httpError(err)
	}
	pg := pagination.FromContext(c)
	page, total := pagination.Slice(items, pg)
	return c.JSON(http.StatusOK, pagination.NewResponse(page, total, pg.Limit, pg.Offset))
}

func (h *Handler) PatientAppointments(c echo.Context) error {
	patientID := auth.PrincipalIDFromContext(c.Request().Context())
	if patientID == uuid.Nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing principal")
	}
	items, err := h.svc.PatientAppointments(c.Request().Context(), patientID,
		c.QueryParam("condition"), c.QueryParam("doctor"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	pg := pagination.FromContext(c)
	page, total := pagination.Slice(items, pg)
	return c.JSON(http.StatusOK, pagination.NewResponse(page, total, pg.Limit, pg.Offset))
}

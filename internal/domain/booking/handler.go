package booking

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clinicbook/clinicbook/internal/platform/auth"
	"github.com/clinicbook/clinicbook/pkg/pagination"
)

// DoctorLookup is the slice of the doctor directory the booking handlers
// need.
type DoctorLookup interface {
	Exists(id int) bool
}

// OutcomeRecorder counts booking decisions by outcome.
type OutcomeRecorder interface {
	BookingCounter(outcome string)
}

type noopRecorder struct{}

func (noopRecorder) BookingCounter(string) {}

type Handler struct {
	engine  *Engine
	doctors DoctorLookup
	metrics OutcomeRecorder
}

func NewHandler(engine *Engine, doctors DoctorLookup, metrics OutcomeRecorder) *Handler {
	if metrics == nil {
		metrics = noopRecorder{}
	}
	return &Handler{engine: engine, doctors: doctors, metrics: metrics}
}

// RegisterRoutes registers booking routes: open routes on api, session-only
// routes on authed.
func (h *Handler) RegisterRoutes(api, authed *echo.Group) {
	authed.POST("/appointments", h.CreateAppointment)
	authed.GET("/appointments", h.ListAppointments)
	authed.PUT("/doctors/:id/availability", h.SetAvailability)

	// Cancellation has no lifecycle in this system; both routes reject
	// every request.
	api.GET("/cancel", h.RejectCancel)
	authed.POST("/appointments/:id/cancel", h.RejectCancel)
}

// bookRequest mirrors the booking form: a date and an hour-of-day time,
// combined into one timestamp before the engine is consulted.
type bookRequest struct {
	DoctorID int    `json:"doctor_id"`
	Date     string `json:"date"` // 2006-01-02
	Time     string `json:"time"` // 15:04
}

// CreateAppointment handles POST /appointments.
func (h *Handler) CreateAppointment(c echo.Context) error {
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Date == "" || req.Time == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "date and time are required")
	}

	when, err := time.ParseInLocation("2006-01-02T15:04", req.Date+"T"+req.Time, time.Local)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment date or time")
	}

	patient := auth.UsernameFromContext(c.Request().Context())

	appt, err := h.engine.Book(c.Request().Context(), req.DoctorID, when, patient)
	if err != nil {
		switch {
		case errors.Is(err, ErrSlotTaken):
			h.metrics.BookingCounter("slot_taken")
			return echo.NewHTTPError(http.StatusConflict,
				"The selected appointment time is not available. Please choose a different time.")
		case errors.Is(err, ErrDoctorUnavailable):
			h.metrics.BookingCounter("unavailable")
			return echo.NewHTTPError(http.StatusBadRequest,
				"The selected appointment time is not available. Please choose a different time.")
		case errors.Is(err, ErrOutsideWorkingHours):
			h.metrics.BookingCounter("outside_hours")
			return echo.NewHTTPError(http.StatusBadRequest,
				"The selected appointment time is outside working hours. Please choose a different time.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.metrics.BookingCounter("booked")
	c.Response().Header().Set("Location", "/api/v1/appointments")
	return c.JSON(http.StatusCreated, appt)
}

// ListAppointments handles GET /appointments for the current user.
func (h *Handler) ListAppointments(c echo.Context) error {
	patient := auth.UsernameFromContext(c.Request().Context())
	appts := h.engine.AppointmentsForPatient(patient)

	pg := pagination.FromContext(c)
	total := len(appts)
	appts = pagination.Window(appts, pg)
	return c.JSON(http.StatusOK, pagination.NewResponse(appts, total, pg.Limit, pg.Offset))
}

// availabilityRequest toggles one hour flag on a doctor's calendar.
type availabilityRequest struct {
	Hour      int  `json:"hour"`
	Weekend   bool `json:"weekend"`
	Available bool `json:"available"`
}

// SetAvailability handles PUT /doctors/:id/availability.
func (h *Handler) SetAvailability(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	if !h.doctors.Exists(id) {
		return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
	}

	var req availabilityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Hour < 0 || req.Hour > 23 {
		return echo.NewHTTPError(http.StatusBadRequest, "hour must be within 0-23")
	}

	h.engine.SetAvailability(id, req.Hour, req.Weekend, req.Available)
	return c.NoContent(http.StatusNoContent)
}

// RejectCancel admits nothing: there is no appointment lifecycle beyond
// "booked".
func (h *Handler) RejectCancel(c echo.Context) error {
	return echo.NewHTTPError(http.StatusBadRequest,
		"Invalid request. Please provide a valid appointment ID.")
}

package identity

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicbook/clinicbook/internal/domain/booking"
	"github.com/clinicbook/clinicbook/internal/platform/auth"
)

// AppointmentLister supplies a patient's booked appointments for the
// profile view.
type AppointmentLister interface {
	AppointmentsForPatient(patientName string) []booking.Appointment
}

type Handler struct {
	svc          *Service
	appointments AppointmentLister
	secret       string
}

func NewHandler(svc *Service, appointments AppointmentLister, secret string) *Handler {
	return &Handler{svc: svc, appointments: appointments, secret: secret}
}

// RegisterRoutes registers account routes: signup/login/logout on the open
// group, profile behind the session gate.
func (h *Handler) RegisterRoutes(api, authed *echo.Group) {
	api.POST("/signup", h.Signup)
	api.POST("/login", h.Login)
	api.POST("/logout", h.Logout)
	authed.GET("/profile", h.Profile)
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// Signup handles POST /signup.
func (h *Handler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.svc.Signup(req.Username, req.Email, req.Phone, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrUsernameTaken):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, user.Profile())
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string  `json:"token"`
	User  Profile `json:"user"`
}

// Login handles POST /login: verifies credentials, bumps the visit counter,
// and issues the session token as both cookie and body.
func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.svc.Authenticate(req.Username, req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Login failed. Invalid credentials.")
	}

	token, err := auth.MintToken(user.Username, h.secret)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create session")
	}

	auth.SetCookie(c, token)
	return c.JSON(http.StatusOK, loginResponse{Token: token, User: user.Profile()})
}

// Logout handles POST /logout.
func (h *Handler) Logout(c echo.Context) error {
	auth.ClearCookie(c)
	return c.NoContent(http.StatusNoContent)
}

// profileResponse pairs the account with its booked appointments.
type profileResponse struct {
	User         Profile               `json:"user"`
	Appointments []booking.Appointment `json:"appointments"`
}

// Profile handles GET /profile for the current user.
func (h *Handler) Profile(c echo.Context) error {
	username := auth.UsernameFromContext(c.Request().Context())
	user, ok := h.svc.Get(username)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}

	appts := h.appointments.AppointmentsForPatient(username)
	if appts == nil {
		appts = []booking.Appointment{}
	}
	return c.JSON(http.StatusOK, profileResponse{
		User:         user.Profile(),
		Appointments: appts,
	})
}

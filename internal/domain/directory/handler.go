package directory

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// GridSource supplies a doctor's weekly booked grid for the directory view.
type GridSource interface {
	BookedGrid(doctorID int) map[int][7]bool
}

type Handler struct {
	dir   *Directory
	grids GridSource
}

func NewHandler(dir *Directory, grids GridSource) *Handler {
	return &Handler{dir: dir, grids: grids}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/doctors", h.ListDoctors)
	api.GET("/doctors/:id", h.GetDoctor)
	api.GET("/doctors/specialty/:specialty", h.GetDoctorBySpecialty)
	api.POST("/doctors/search", h.SearchDoctor)
}

// ListDoctors handles GET /doctors.
func (h *Handler) ListDoctors(c echo.Context) error {
	return c.JSON(http.StatusOK, h.dir.List())
}

// doctorView pairs a doctor with their weekly booked grid.
type doctorView struct {
	Doctor *Doctor         `json:"doctor"`
	Booked map[int][7]bool `json:"booked_appointments"`
}

// GetDoctor handles GET /doctors/:id.
func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	doctor, ok := h.dir.ByID(id)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
	}
	return c.JSON(http.StatusOK, doctorView{
		Doctor: doctor,
		Booked: h.grids.BookedGrid(id),
	})
}

// GetDoctorBySpecialty handles GET /doctors/specialty/:specialty.
func (h *Handler) GetDoctorBySpecialty(c echo.Context) error {
	doctor, ok := h.dir.BySpecialty(c.Param("specialty"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
	}
	return c.JSON(http.StatusOK, doctor)
}

// searchRequest is the body of the specialty search.
type searchRequest struct {
	Specialty string `json:"specialty"`
}

// SearchDoctor handles POST /doctors/search.
func (h *Handler) SearchDoctor(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	doctor, ok := h.dir.BySpecialty(req.Specialty)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
	}
	return c.JSON(http.StatusOK, doctor)
}

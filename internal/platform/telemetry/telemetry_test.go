package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestHistogramObserve(t *testing.T) {
	h := newHistogram([]float64{0.1, 1.0, 10.0})

	h.Observe(0.05)
	h.Observe(0.5)
	h.Observe(5.0)
	h.Observe(50.0)

	if got := h.Count(); got != 4 {
		t.Fatalf("Count = %d, want 4", got)
	}
	if got := h.Sum(); got != 55.55 {
		t.Fatalf("Sum = %g, want 55.55", got)
	}

	cum := h.cumulativeBuckets()
	want := []int64{1, 2, 3}
	for i, w := range want {
		if cum[i] != w {
			t.Fatalf("cumulative bucket %d = %d, want %d", i, cum[i], w)
		}
	}
}

func TestBookingCounter(t *testing.T) {
	p := NewProvider()

	p.BookingCounter("booked")
	p.BookingCounter("booked")
	p.BookingCounter("slot_taken")

	if got := p.GetBookingCount("booked"); got != 2 {
		t.Fatalf("booked = %d, want 2", got)
	}
	if got := p.GetBookingCount("slot_taken"); got != 1 {
		t.Fatalf("slot_taken = %d, want 1", got)
	}
	if got := p.GetBookingCount("unavailable"); got != 0 {
		t.Fatalf("unavailable = %d, want 0", got)
	}
}

func TestMetricsMiddleware(t *testing.T) {
	p := NewProvider()

	e := echo.New()
	e.Use(p.MetricsMiddleware())
	e.GET("/doctors", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/doctors", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
	}

	if got := p.RequestCount(); got != 3 {
		t.Fatalf("RequestCount = %d, want 3", got)
	}
	if got := p.ActiveRequests(); got != 0 {
		t.Fatalf("ActiveRequests = %d after completion, want 0", got)
	}
}

func TestPrometheusHandler(t *testing.T) {
	p := NewProvider()
	p.BookingCounter("booked")

	e := echo.New()
	e.Use(p.MetricsMiddleware())
	e.GET("/doctors", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	e.GET("/metrics", p.PrometheusHandler())

	req := httptest.NewRequest(http.MethodGet, "/doctors", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	body := rec.Body.String()

	for _, want := range []string{
		"# TYPE http_server_request_duration_seconds histogram",
		"http_server_request_duration_seconds_count 1",
		"# TYPE http_server_active_requests gauge",
		`http_requests_total{method="GET",route="/doctors",status_code="200"} 1`,
		`booking_decisions_total{outcome="booked"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q:\n%s", want, body)
		}
	}
}

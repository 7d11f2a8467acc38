package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicbook/clinicbook/internal/platform/auth"
)

// Logger emits one access-log line per request. When the request carries a
// valid session the line is attributed to the username resolved by
// auth.SessionMiddleware, tying bookings in the log to accounts.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			// Read the request after the chain ran: the session
			// middleware swaps in a context carrying the username.
			req := c.Request()
			res := c.Response()
			rid, _ := c.Get("request_id").(string)

			evt := logger.Info()
			if err != nil {
				evt = logger.Error().Err(err)
			}
			evt = evt.
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Int64("bytes_out", res.Size).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP())
			if username := auth.UsernameFromContext(req.Context()); username != "" {
				evt = evt.Str("username", username)
			}
			evt.Msg("request")

			return err
		}
	}
}

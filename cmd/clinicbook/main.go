package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinicbook/clinicbook/internal/config"
	"github.com/clinicbook/clinicbook/internal/domain/booking"
	"github.com/clinicbook/clinicbook/internal/domain/directory"
	"github.com/clinicbook/clinicbook/internal/domain/identity"
	"github.com/clinicbook/clinicbook/internal/platform/auth"
	"github.com/clinicbook/clinicbook/internal/platform/middleware"
	"github.com/clinicbook/clinicbook/internal/platform/store"
	"github.com/clinicbook/clinicbook/internal/platform/telemetry"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinicbook",
		Short: "Clinic appointment booking server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(userCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the booking API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Write the default doctor directory to the data directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger("development")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			st := store.NewFile(filepath.Join(cfg.DataDir, "doctors.json"), logger)
			doc := directory.Document{Doctors: directory.DefaultDoctors()}
			if err := st.Save(doc); err != nil {
				return err
			}
			fmt.Printf("wrote %d doctors to %s\n", len(doc.Doctors), st.Path())
			return nil
		},
	}
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	createCmd := &cobra.Command{
		Use:   "create <username> <password>",
		Short: "Register a user account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger("development")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			st := store.NewFile(filepath.Join(cfg.DataDir, "users.json"), logger)
			svc := identity.NewService(st, logger)

			email, _ := cmd.Flags().GetString("email")
			phone, _ := cmd.Flags().GetString("phone")
			user, err := svc.Signup(args[0], email, phone, args[1])
			if err != nil {
				return err
			}
			fmt.Printf("created user %q\n", user.Username)
			return nil
		},
	}
	createCmd.Flags().String("email", "", "email address")
	createCmd.Flags().String("phone", "", "phone number")
	cmd.AddCommand(createCmd)

	return cmd
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func runServer() error {
	// Config
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Env)

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	e := buildServer(cfg, logger)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// buildServer assembles the full server: stores, doctor directory, booking
// engine, user accounts, middleware chain, and routes.
func buildServer(cfg *config.Config, logger zerolog.Logger) *echo.Echo {
	// Stores
	doctorStore := store.NewFile(filepath.Join(cfg.DataDir, "doctors.json"), logger)
	ledgerStore := store.NewFile(filepath.Join(cfg.DataDir, "appointments.json"), logger)
	userStore := store.NewFile(filepath.Join(cfg.DataDir, "users.json"), logger)

	// Doctor directory: persisted list when present, built-in seed otherwise.
	var doctorDoc directory.Document
	if err := doctorStore.Load(&doctorDoc); err != nil || len(doctorDoc.Doctors) == 0 {
		doctorDoc.Doctors = directory.DefaultDoctors()
	}
	dir := directory.New(doctorDoc.Doctors)
	logger.Info().Int("doctors", len(dir.List())).Msg("doctor directory loaded")

	// Booking engine
	hours := booking.Hours{Start: cfg.WorkingHoursStart, End: cfg.WorkingHoursEnd}
	engine := booking.NewEngine(booking.NewAvailabilityTable(dir.IDs()), ledgerStore, hours, logger)

	// User accounts
	users := identity.NewService(userStore, logger)

	// Metrics
	metrics := telemetry.NewProvider()

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(metrics.MetricsMiddleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}))
	e.Use(auth.SessionMiddleware(cfg.SessionSecret))

	// Rate limiting middleware. Subgroups snapshot the parent's middleware
	// when created, so the limiter must be on apiV1 before authed exists.
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}

	// API groups
	apiV1 := e.Group("/api/v1", middleware.RateLimit(rateLimitCfg))
	authed := apiV1.Group("", auth.RequireLogin())

	// Handlers
	directory.NewHandler(dir, engine).RegisterRoutes(apiV1)
	booking.NewHandler(engine, dir, metrics).RegisterRoutes(apiV1, authed)
	identity.NewHandler(users, engine, cfg.SessionSecret).RegisterRoutes(apiV1, authed)

	// Health and metrics endpoints
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", metrics.PrometheusHandler())

	return e
}

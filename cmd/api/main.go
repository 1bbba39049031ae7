package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	appointmentHandler "github.com/slotwise/booking-api/internal/handler/appointment"
	authHandler "github.com/slotwise/booking-api/internal/handler/auth"
	healthHandler "github.com/slotwise/booking-api/internal/handler/health"
	organizationHandler "github.com/slotwise/booking-api/internal/handler/organization"

	"github.com/slotwise/booking-api/internal/config"
	"github.com/slotwise/booking-api/internal/middleware"
	"github.com/slotwise/booking-api/internal/repository/postgres"
	"github.com/slotwise/booking-api/internal/router"
	analyticsService "github.com/slotwise/booking-api/internal/service/analytics"
	authService "github.com/slotwise/booking-api/internal/service/auth"
	eventService "github.com/slotwise/booking-api/internal/service/event"
	organizationService "github.com/slotwise/booking-api/internal/service/organization"
	schedulingService "github.com/slotwise/booking-api/internal/service/scheduling"
	jwtauth "github.com/slotwise/booking-api/pkg/auth"
	"github.com/slotwise/booking-api/pkg/logger"
	"github.com/slotwise/booking-api/pkg/metrics"
	"github.com/slotwise/booking-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := newLogger(cfg.Logging)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New("booking_api", registry)

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	organizationRepo := postgres.NewOrganizationRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	// Services
	jwtSvc := jwtauth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	authSvc := authService.NewService(userRepo, security.NewBcryptHasher(0), jwtSvc)
	eventSvc := eventService.NewService(outboxRepo)
	schedulingSvc := schedulingService.NewService(appointmentRepo, organizationRepo, eventSvc, appLogger, m)
	organizationSvc := organizationService.NewService(organizationRepo)
	analyticsSvc := analyticsService.NewService(appointmentRepo, organizationRepo)

	// Handlers
	authH := authHandler.NewHandler(authSvc)
	appointmentH := appointmentHandler.NewHandler(schedulingSvc)
	organizationH := organizationHandler.NewHandler(organizationSvc, analyticsSvc)
	healthH := healthHandler.NewHandler(db, registry)

	authMW := middleware.NewAuthMiddleware(authSvc)

	r := router.NewRouter(authMW, authH, appointmentH, organizationH, healthH, registry, router.RouterConfig{
		RateLimit:    rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst:    cfg.RateLimit.Burst,
		CORSConfig:   middleware.DefaultCORSConfig(),
		DirectoryTTL: 30 * time.Second,
		Logger:       *appLogger.Zerolog(),
	})
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	go func() {
		appLogger.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	appLogger.Info("server exited properly")
}

func newLogger(cfg config.LoggingConfig) *logger.Logger {
	level := logger.InfoLevel
	if parsed, err := logger.ParseLevel(cfg.Level); err == nil {
		level = parsed
	}
	return logger.New(&logger.Config{
		Level:      level,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		Pretty:     cfg.Pretty,
	})
}

package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/slotwise/booking-api/internal/handler/appointment"
	"github.com/slotwise/booking-api/internal/handler/auth"
	"github.com/slotwise/booking-api/internal/handler/health"
	"github.com/slotwise/booking-api/internal/handler/organization"
	"github.com/slotwise/booking-api/internal/middleware"
)

type Router struct {
	engine       *gin.Engine
	auth         *middleware.AuthMiddleware
	authH        *auth.Handler
	appointmentH *appointment.Handler
	orgH         *organization.Handler
	healthH      *health.Handler
	metrics      *routerMetrics
	config       RouterConfig
}

type RouterConfig struct {
	RateLimit    rate.Limit
	RateBurst    int
	CORSConfig   middleware.CORSConfig
	DirectoryTTL time.Duration
	Logger       zerolog.Logger
}

func NewRouter(
	authMW *middleware.AuthMiddleware,
	authH *auth.Handler,
	appointmentH *appointment.Handler,
	orgH *organization.Handler,
	healthH *health.Handler,
	registerer prometheus.Registerer,
	config RouterConfig,
) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()

	r := &Router{
		engine:       engine,
		auth:         authMW,
		authH:        authH,
		appointmentH: appointmentH,
		orgH:         orgH,
		healthH:      healthH,
		metrics:      initRouterMetrics("booking_api", registerer),
		config:       config,
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(config.Logger),
		middleware.ErrorHandler(),
		r.metricsMiddleware(),
	)

	engine.Use(middleware.CORS(config.CORSConfig))

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  config.RateLimit,
		Burst: config.RateBurst,
	})
	engine.Use(rateLimiter.RateLimit())

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.healthH.RegisterRoutes(api)

	// Public routes
	r.authH.RegisterRoutes(api.Group("/auth"))

	directory := api.Group("/organizations/directory")
	directoryCache := middleware.NewResponseCache(r.config.DirectoryTTL)
	directory.Use(directoryCache.Cache())
	r.orgH.RegisterPublicRoutes(directory)

	// Protected routes
	protected := api.Group("")
	protected.Use(r.auth.Authenticate())

	r.appointmentH.RegisterRoutes(protected.Group("/appointments"))
	r.orgH.RegisterRoutes(protected.Group("/organizations"))
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

func initRouterMetrics(prefix string, registerer prometheus.Registerer) *routerMetrics {
	m := &routerMetrics{
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		errorTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"method", "path", "type"},
		),
	}
	registerer.MustRegister(m.requestDuration, m.requestTotal, m.errorTotal)
	return m
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()

		c.Next()

		status := fmt.Sprintf("%d", c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		if c.Writer.Status() >= 400 {
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "http").Inc()
		}
	}
}

package rest

import (
	"net/http"

	commandbus "priorify/application/commands/bus"
	querybus "priorify/application/queries/bus"
	"priorify/interfaces/http/rest/handlers"
	"priorify/interfaces/http/rest/middleware"
	pkgerrors "priorify/pkg/errors"
	"priorify/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// MetricsCollector observes requests and serves the metrics endpoint
type MetricsCollector interface {
	middleware.HTTPObserver
	Handler() http.Handler
}

// RouterConfig collects the router dependencies
type RouterConfig struct {
	CommandBus      *commandbus.CommandBus
	QueryBus        *querybus.QueryBus
	Errors          *pkgerrors.ErrorHandler
	Auth            middleware.AuthOptions
	Metrics         MetricsCollector
	Tracer          *observability.Tracer
	Readiness       map[string]handlers.ReadinessCheck
	AllowedOrigins  []string
	DigestAdminRole string
	Logger          *zap.Logger
}

// Router creates and configures the HTTP router
type Router struct {
	cfg RouterConfig
}

// NewRouter creates a new router instance
func NewRouter(cfg RouterConfig) *Router {
	return &Router{cfg: cfg}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	cfg := rt.cfg
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(cfg.Errors.Middleware)
	router.Use(middleware.Logger(cfg.Logger))
	if cfg.Metrics != nil {
		router.Use(middleware.Metrics(cfg.Metrics))
	}
	router.Use(cfg.Tracer.Middleware)
	router.Use(versionMiddleware)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	health := handlers.NewHealthHandler(cfg.Readiness, cfg.Logger)
	router.Get("/health", health.Health)
	router.Get("/ready", health.Ready)
	if cfg.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	priorities := handlers.NewPrioritiesHandler(cfg.CommandBus, cfg.QueryBus, cfg.Errors, cfg.Logger)
	schedules := handlers.NewScheduleHandler(cfg.CommandBus, cfg.QueryBus, cfg.Errors, cfg.Logger)
	statistics := handlers.NewStatisticsHandler(cfg.CommandBus, cfg.QueryBus, cfg.Errors, cfg.Logger)
	digests := handlers.NewDigestHandler(cfg.CommandBus, cfg.QueryBus, cfg.Errors, cfg.Logger)

	router.Route("/api/v2", func(r chi.Router) {
		r.Use(middleware.Authenticate(cfg.Auth, cfg.Errors, cfg.Logger))

		r.Get("/priorities", priorities.GetPriorities)
		r.Put("/priorities", priorities.SetPriorities)

		r.Route("/schedules", func(r chi.Router) {
			r.Get("/", schedules.ListSchedules)
			r.Get("/graph", schedules.GetGraph)
			r.Get("/top-priority", schedules.GetTopPriority)
			r.Get("/{scheduleID}/similar", schedules.GetSimilar)
		})

		r.Route("/statistics", func(r chi.Router) {
			r.Get("/comprehensive", statistics.GetComprehensive)
			r.Get("/category", statistics.GetCategory)
		})

		r.Route("/digests", func(r chi.Router) {
			if cfg.DigestAdminRole != "" {
				r.Use(middleware.RequireRole(cfg.Errors, cfg.DigestAdminRole))
			}
			r.Post("/{job}/run", digests.RunDigest)
			r.Get("/batch-stats", digests.GetBatchStatistics)
		})
	})

	return router
}

// versionMiddleware adds API version headers to all responses
func versionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-API-Version", "v2")
		next.ServeHTTP(w, r)
	})
}

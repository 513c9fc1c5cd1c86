// @title Workflow API
// @version 1.0.0
// @description Programs, activities and their authorization rules
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.basic BasicAuth

package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/workflowhq/workflow/internal/audit"
	"github.com/workflowhq/workflow/internal/i18n"
	"github.com/workflowhq/workflow/internal/identity"
	"github.com/workflowhq/workflow/internal/observability/metrics"
	"github.com/workflowhq/workflow/internal/workflow"
)

// HealthChecker reports whether a backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Handler holds HTTP handlers and dependencies
type Handler struct {
	workflowService    *workflow.Service
	translationService *i18n.Service
	identityService    *identity.Service
	auditLogger        audit.Logger
	health             HealthChecker
}

// NewHandler creates a new HTTP handler. health may be nil.
func NewHandler(
	workflowService *workflow.Service,
	translationService *i18n.Service,
	identityService *identity.Service,
	auditLogger audit.Logger,
	health HealthChecker,
) *Handler {
	return &Handler{
		workflowService:    workflowService,
		translationService: translationService,
		identityService:    identityService,
		auditLogger:        auditLogger,
		health:             health,
	}
}

// RouterConfig carries the cross-cutting pieces of the router.
type RouterConfig struct {
	RateLimiter    *RateLimiter
	Metrics        *metrics.Metrics
	RequestTimeout time.Duration
	// ServeMetrics mounts /metrics on this router. Leave it off when a
	// dedicated metrics listener is running.
	ServeMetrics bool
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.StripSlashes)
	if cfg.RateLimiter != nil {
		r.Use(RateLimitMiddleware(cfg.RateLimiter))
	}
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	r.Get("/health", h.HealthCheck)
	if cfg.Metrics != nil && cfg.ServeMetrics {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.BasicAuth)

		r.Route("/workflowlevel1", func(r chi.Router) {
			r.Get("/", h.ListPrograms)
			r.Post("/", h.CreateProgram)
			r.Get("/permissions", h.ProgramPermissions)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetProgram)
				r.Put("/", h.ReplaceProgram)
				r.Patch("/", h.PatchProgram)
				r.Delete("/", h.DeleteProgram)

				r.Get("/members", h.ListMembers)
				r.Post("/members", h.AddMember)
				r.Delete("/members/{membershipID}", h.RemoveMember)
			})
		})

		r.Route("/workflowlevel2", func(r chi.Router) {
			r.Get("/", h.ListActivities)
			r.Post("/", h.CreateActivity)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetActivity)
				r.Put("/", h.ReplaceActivity)
				r.Patch("/", h.PatchActivity)
				r.Delete("/", h.DeleteActivity)
			})
		})

		r.Route("/internationalization", func(r chi.Router) {
			r.Get("/", h.ListTranslations)
			r.Post("/", h.CreateTranslation)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetTranslation)
				r.Put("/", h.UpdateTranslation)
				r.Patch("/", h.UpdateTranslation)
				r.Delete("/", h.DeleteTranslation)
			})
		})
	})

	return r
}

// HealthCheck returns the health status
// @Summary Health Check
// @Description Checks if the service is up and its store is reachable
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.health.Ping(ctx); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":  "unhealthy",
				"service": "workflow",
			})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "workflow",
	})
}

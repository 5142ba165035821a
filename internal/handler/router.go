package handler

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openworkbench/chatcore/internal/middleware"
	"github.com/openworkbench/chatcore/pkg/logger"
)

// RouterConfig carries the knobs the router needs from configuration.
type RouterConfig struct {
	JWTSecret         string
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Services bundles the mock gateway services behind the router.
type Services struct {
	Conversations *ConversationHandler
	Messages      *MessageHandler
	Projects      *ProjectHandler
	Templates     *TemplateHandler
	Health        *HealthHandler
}

// NewRouter builds the mock gateway's chi router. Tests mount it on an
// httptest server; cmd/mockgateway serves it directly.
func NewRouter(cfg RouterConfig, svcs Services, log *logger.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", svcs.Health.Health)
	r.Get("/ready", svcs.Health.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		if cfg.RateLimitRequests > 0 {
			r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
		}

		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", svcs.Conversations.Create)
			r.Get("/", svcs.Conversations.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", svcs.Conversations.Get)
				r.Put("/", svcs.Conversations.Update)
				r.Delete("/", svcs.Conversations.Delete)
			})
		})

		r.Post("/messages", svcs.Messages.Send)

		r.Route("/projects", func(r chi.Router) {
			r.Post("/", svcs.Projects.Create)
			r.Get("/", svcs.Projects.List)
			r.Put("/{id}", svcs.Projects.Update)
			r.Delete("/{id}", svcs.Projects.Delete)
		})

		r.Get("/templates", svcs.Templates.List)
	})

	return r
}

package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/ClaimBridge/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClaimBridge/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ClaimBridge/internal/interfaces/http/handlers"
	"github.com/turtacn/ClaimBridge/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies needed to
// build the full route tree.
type RouterConfig struct {
	ItemHandler    *handlers.ItemHandler
	ClaimHandler   *handlers.ClaimHandler
	MessageHandler *handlers.MessageHandler
	HealthHandler  *handlers.HealthHandler

	AuthMiddleware *middleware.AuthMiddleware
	CORSConfig     *middleware.CORSConfig
	LoggingConfig  *middleware.LoggingConfig

	Logger           logging.Logger
	Metrics          *prometheus.AppMetrics
	MetricsCollector prometheus.MetricsCollector
}

// NewRouter wires global middleware, public probes, and the /api/v1 resource
// groups into a single http.Handler.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	corsConfig := middleware.DefaultCORSConfig()
	if cfg.CORSConfig != nil {
		corsConfig = *cfg.CORSConfig
	}
	r.Use(middleware.CORS(corsConfig))

	logConfig := middleware.DefaultLoggingConfig()
	if cfg.LoggingConfig != nil {
		logConfig = *cfg.LoggingConfig
	}
	r.Use(middleware.RequestLogging(cfg.Logger, cfg.Metrics, logConfig))

	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsCollector != nil {
		r.Handle("/metrics", cfg.MetricsCollector.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		if cfg.AuthMiddleware != nil {
			api.Use(cfg.AuthMiddleware.Identify)
		}

		registerItemRoutes(api, cfg.ItemHandler)
		registerClaimRoutes(api, cfg.ClaimHandler)
		registerMessageRoutes(api, cfg.MessageHandler)
	})

	return r
}

// registerItemRoutes mounts item endpoints under /items.
func registerItemRoutes(r chi.Router, h *handlers.ItemHandler) {
	if h == nil {
		return
	}
	r.Route("/items", func(ir chi.Router) {
		ir.Get("/", h.List)
		ir.Get("/categories", h.Categories)
		ir.With(middleware.RequireAdmin).Post("/", h.Create)

		ir.Route("/{itemID}", func(item chi.Router) {
			item.Get("/", h.Get)
			item.With(middleware.RequireAdmin).Post("/photo", h.AttachPhoto)
			item.With(middleware.RequireAdmin).Delete("/", h.Delete)
		})
	})
}

// registerClaimRoutes mounts claim lifecycle endpoints under /claims and the
// per-item adjudication endpoints under /items/{itemID}/claims.
func registerClaimRoutes(r chi.Router, h *handlers.ClaimHandler) {
	if h == nil {
		return
	}
	r.Get("/delivery/regions", h.Regions)

	r.Route("/claims", func(cr chi.Router) {
		cr.With(middleware.RequireUser).Post("/", h.Submit)
		cr.With(middleware.RequireUser).Get("/mine", h.ListMine)

		cr.Route("/{claimID}", func(claim chi.Router) {
			claim.With(middleware.RequireUser).Get("/", h.Get)
			claim.With(middleware.RequireAdmin).Post("/actions", h.Action)
			claim.With(middleware.RequireAdmin).Get("/evaluation", h.Evaluate)
		})
	})

	r.Route("/items/{itemID}/claims", func(ic chi.Router) {
		ic.With(middleware.RequireAdmin).Get("/", h.ListByItem)
		ic.With(middleware.RequireAdmin).Post("/{claimID}/approve", h.Approve)
		ic.With(middleware.RequireAdmin).Post("/{claimID}/reject", h.Reject)
	})
}

// registerMessageRoutes mounts inbox and notification endpoints.
func registerMessageRoutes(r chi.Router, h *handlers.MessageHandler) {
	if h == nil {
		return
	}
	r.Route("/messages", func(mr chi.Router) {
		mr.With(middleware.RequireUser).Get("/", h.Inbox)
		mr.With(middleware.RequireUser).Get("/claim/{claimID}", h.ByClaim)
	})

	r.Route("/notifications", func(nr chi.Router) {
		nr.With(middleware.RequireAdmin).Get("/unread", h.UnreadNotifications)
		nr.With(middleware.RequireAdmin).Post("/{notificationID}/read", h.MarkNotificationRead)
	})
}

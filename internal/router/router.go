package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lumiere/internal/config"
	"lumiere/internal/gateway"
	"lumiere/internal/handler"
	"lumiere/internal/middleware"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	Gallery *handler.GalleryHandler
	Health  *handler.HealthHandler
	Audit   *handler.AuditHandler
}

// New builds the HTTP entry point. Each area gets its own gateway so routes
// stay scoped to a local base; anything the areas do not claim falls through
// to the root gateway, which also owns the uniform 404.
func New(cfg *config.Config, auth gateway.Authenticator, handlers Handlers, registry *prometheus.Registry) http.Handler {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	responder := gateway.NewResponder(cfg.Debug)
	rateLimit := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM, cfg.BasePath+"/auth")
	metrics := middleware.NewMetrics(registry)

	r := chi.NewRouter()
	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(metrics.Handler)
	r.Use(middleware.Security(cfg.Debug))
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	newGateway := func(local string) *gateway.Router {
		gw := gateway.New(auth, responder,
			gateway.WithGlobalBase(cfg.BasePath),
			gateway.RequireGlobalBase(),
			gateway.WithBase(local),
		)
		gw.Use(gateway.Preflight())
		return gw
	}

	authGateway := newGateway("/auth")
	handlers.Auth.Mount(authGateway)

	galleryGateway := newGateway("/galleries")
	handlers.Gallery.Mount(galleryGateway)

	rootGateway := newGateway("")
	handlers.Health.Mount(rootGateway)
	if handlers.Audit != nil {
		handlers.Audit.Mount(rootGateway)
	}

	for _, gw := range []*gateway.Router{authGateway, galleryGateway, rootGateway} {
		for _, route := range gw.Routes() {
			slog.Debug("route registered", "method", route.Method, "pattern", route.Pattern, "auth", route.RequiresAuth)
		}
	}

	r.Group(func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))
		api.Use(rateLimit.Handler)

		api.Mount(cfg.BasePath+"/auth", authGateway)
		api.Mount(cfg.BasePath+"/galleries", galleryGateway)
		api.NotFound(rootGateway.ServeHTTP)
		api.MethodNotAllowed(rootGateway.ServeHTTP)
	})

	return r
}

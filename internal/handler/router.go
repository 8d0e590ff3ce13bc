package handler

import (
	"net/http"

	"github.com/dandantas/pimpush/pkg/middleware"
	"github.com/go-chi/chi/v5"
)

// Router handles HTTP routing
type Router struct {
	pushHandler    *PushHandler
	mappingHandler *MappingHandler
	healthHandler  *HealthHandler
	corsConfig     middleware.CORSConfig
	identityHeader string
}

// NewRouter creates a new router
func NewRouter(
	pushHandler *PushHandler,
	mappingHandler *MappingHandler,
	healthHandler *HealthHandler,
	corsConfig middleware.CORSConfig,
	identityHeader string,
) *Router {
	return &Router{
		pushHandler:    pushHandler,
		mappingHandler: mappingHandler,
		healthHandler:  healthHandler,
		corsConfig:     corsConfig,
		identityHeader: identityHeader,
	}
}

// Handler returns the configured HTTP handler with middleware
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.CorrelationID)
	r.Use(middleware.Identity(rt.identityHeader))
	r.Use(middleware.Logging)
	r.Use(middleware.Recovery)
	r.Use(middleware.CORS(rt.corsConfig))

	r.Get("/health", rt.healthHandler.Health)
	r.Get("/ready", rt.healthHandler.Ready)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/push-jobs", rt.pushHandler.Enqueue)
		r.Get("/push-jobs", rt.pushHandler.List)
		r.Get("/push-jobs/{id}", rt.pushHandler.Get)
		r.Get("/field-mappings", rt.mappingHandler.Get)
	})

	return r
}

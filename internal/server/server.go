// Package server exposes the engine over HTTP: isochrones, accessibility,
// suitability, route optimization, meeting points, and city comparison.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/urbansight/geocore/internal/access"
	"github.com/urbansight/geocore/internal/cityrank"
	"github.com/urbansight/geocore/internal/isochrone"
	"github.com/urbansight/geocore/internal/route"
	"github.com/urbansight/geocore/internal/spatial"
	"github.com/urbansight/geocore/internal/suitability"
)

// Server wires the engine components behind a chi router.
type Server struct {
	index       *spatial.Index
	isochrones  *isochrone.Builder
	access      *access.Scorer
	suitability *suitability.Scorer
	optimizer   *route.Optimizer
	meetings    *route.MeetingPointPlanner
	ranker      *cityrank.Ranker

	suitabilityDefaults suitability.Config
	accessCeiling       float64
}

// Config collects the server's dependencies.
type Config struct {
	Index               *spatial.Index
	Isochrones          *isochrone.Builder
	Access              *access.Scorer
	Suitability         *suitability.Scorer
	Optimizer           *route.Optimizer
	Meetings            *route.MeetingPointPlanner
	Ranker              *cityrank.Ranker
	SuitabilityDefaults suitability.Config

	// AccessCeilingMinutes applies when a request omits its own ceiling.
	// Zero falls through to the scorer's default.
	AccessCeilingMinutes float64
}

// New returns a Server over the given components.
func New(cfg Config) *Server {
	return &Server{
		index:               cfg.Index,
		isochrones:          cfg.Isochrones,
		access:              cfg.Access,
		suitability:         cfg.Suitability,
		optimizer:           cfg.Optimizer,
		meetings:            cfg.Meetings,
		ranker:              cfg.Ranker,
		suitabilityDefaults: cfg.SuitabilityDefaults,
		accessCeiling:       cfg.AccessCeilingMinutes,
	}
}

// Router builds the HTTP routing table.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/isochrone", s.handleIsochrone)
		r.Post("/accessibility", s.handleAccessibility)
		r.Post("/suitability", s.handleSuitability)
		r.Post("/route/optimize", s.handleOptimizeRoute)
		r.Post("/route/meeting-point", s.handleMeetingPoint)
		r.Post("/cities/compare", s.handleCompareCities)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"index_ready":   s.index.Ready(),
		"index_version": s.index.Version(),
		"poi_count":     s.index.POICount(),
	})
}

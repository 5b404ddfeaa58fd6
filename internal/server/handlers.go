package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/urbansight/geocore/internal/access"
	"github.com/urbansight/geocore/internal/cityrank"
	"github.com/urbansight/geocore/internal/geo"
	"github.com/urbansight/geocore/internal/geoerr"
	"github.com/urbansight/geocore/internal/isochrone"
	"github.com/urbansight/geocore/internal/route"
	"github.com/urbansight/geocore/internal/spatial"
	"github.com/urbansight/geocore/internal/travel"
)

type isochroneRequest struct {
	Center             geo.Location `json:"center"`
	Mode               string       `json:"mode"`
	MaxDurationMinutes float64      `json:"max_duration_minutes"`
	IntervalsMinutes   []float64    `json:"intervals_minutes,omitempty"`
}

func (s *Server) handleIsochrone(w http.ResponseWriter, r *http.Request) {
	var req isochroneRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	mode, err := travel.ParseMode(req.Mode)
	if err != nil {
		writeError(w, err)
		return
	}
	zone, err := s.isochrones.Build(r.Context(), isochrone.Request{
		Origin:             req.Center,
		Mode:               mode,
		MaxDurationMinutes: req.MaxDurationMinutes,
		IntervalsMinutes:   req.IntervalsMinutes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, zone)
}

type accessibilityRequest struct {
	Location       geo.Location `json:"location"`
	Mode           string       `json:"mode"`
	Categories     []string     `json:"categories,omitempty"`
	CeilingMinutes float64      `json:"ceiling_minutes,omitempty"`
}

func (s *Server) handleAccessibility(w http.ResponseWriter, r *http.Request) {
	var req accessibilityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Mode == "" {
		req.Mode = string(travel.ModeWalking)
	}
	mode, err := travel.ParseMode(req.Mode)
	if err != nil {
		writeError(w, err)
		return
	}
	ceiling := req.CeilingMinutes
	if ceiling <= 0 {
		ceiling = s.accessCeiling
	}
	report, err := s.access.Score(r.Context(), access.Request{
		Location:       req.Location,
		Mode:           mode,
		Categories:     req.Categories,
		CeilingMinutes: ceiling,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type suitabilityRequest struct {
	Regions             []spatial.Region `json:"regions,omitempty"`
	Weights             *weightsPayload  `json:"weights,omitempty"`
	MinDemographicRatio float64          `json:"min_demographic_ratio,omitempty"`
	CompetitorCategory  string           `json:"competitor_category,omitempty"`
}

type weightsPayload struct {
	Demographic float64 `json:"demographic"`
	Scarcity    float64 `json:"scarcity"`
	Proximity   float64 `json:"proximity"`
}

func (s *Server) handleSuitability(w http.ResponseWriter, r *http.Request) {
	var req suitabilityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cfg := s.suitabilityDefaults
	if req.Weights != nil {
		cfg.DemographicWeight = req.Weights.Demographic
		cfg.ScarcityWeight = req.Weights.Scarcity
		cfg.ProximityWeight = req.Weights.Proximity
	}
	if req.MinDemographicRatio > 0 {
		cfg.MinDemographicRatio = req.MinDemographicRatio
	}
	if req.CompetitorCategory != "" {
		cfg.CompetitorCategory = req.CompetitorCategory
	}
	regions := req.Regions
	if len(regions) == 0 {
		// No explicit candidates: scan every indexed region.
		regions = s.index.Regions()
	}
	report, err := s.suitability.Score(regions, cfg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type optimizeRequest struct {
	Origin      geo.Location   `json:"origin"`
	Destination geo.Location   `json:"destination"`
	Waypoints   []geo.Location `json:"waypoints,omitempty"`
	Mode        string         `json:"mode"`
}

func (s *Server) handleOptimizeRoute(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	mode, err := travel.ParseMode(req.Mode)
	if err != nil {
		writeError(w, err)
		return
	}
	order, err := s.optimizer.Optimize(r.Context(), route.Request{
		Origin:      req.Origin,
		Destination: req.Destination,
		Waypoints:   req.Waypoints,
		Mode:        mode,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

type meetingRequest struct {
	Participants  []geo.Location `json:"participants"`
	Mode          string         `json:"mode"`
	VenueCategory string         `json:"venue_category,omitempty"`
}

func (s *Server) handleMeetingPoint(w http.ResponseWriter, r *http.Request) {
	var req meetingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Mode == "" {
		req.Mode = string(travel.ModeWalking)
	}
	mode, err := travel.ParseMode(req.Mode)
	if err != nil {
		writeError(w, err)
		return
	}
	mp, err := s.meetings.Plan(r.Context(), route.MeetingRequest{
		Participants:  req.Participants,
		Mode:          mode,
		VenueCategory: req.VenueCategory,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mp)
}

type compareRequest struct {
	Cities       []cityrank.CityMetrics `json:"cities"`
	Weights      *cityrank.Weights      `json:"weights,omitempty"`
	BusinessType string                 `json:"business_type,omitempty"`
}

func (s *Server) handleCompareCities(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	weights := cityrank.DefaultWeights()
	if req.Weights != nil {
		weights = *req.Weights
	}
	cmp, err := s.ranker.Compare(req.Cities, weights, req.BusinessType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, geoerr.Wrap(geoerr.KindInvalidInput, err, "server: decode request body"))
		return false
	}
	return true
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// writeError maps error kinds onto HTTP statuses: invalid input 400,
// unreachable 422, provider unavailable 503, anything else 500.
func writeError(w http.ResponseWriter, err error) {
	kind := geoerr.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case geoerr.KindInvalidInput:
		status = http.StatusBadRequest
	case geoerr.KindUnreachable:
		status = http.StatusUnprocessableEntity
	case geoerr.KindProviderUnavailable:
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		zap.L().Error("server: request failed", zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Kind: kind.String()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Error("server: encode response", zap.Error(err))
	}
}

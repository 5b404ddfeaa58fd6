package route

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/urbansight/geocore/internal/geo"
	"github.com/urbansight/geocore/internal/geoerr"
	"github.com/urbansight/geocore/internal/spatial"
	"github.com/urbansight/geocore/internal/travel"
)

const (
	// DefaultVenueCategory is searched when a meeting request names none.
	DefaultVenueCategory = "cafe"

	venueSearchRadiusMeters = 2000
	maxVenueCandidates      = 5
)

// MeetingPoint is the chosen venue plus per-participant travel times.
type MeetingPoint struct {
	Venue                spatial.POI  `json:"venue"`
	Centroid             geo.Location `json:"centroid"`
	TotalDurationMinutes float64      `json:"total_duration_minutes"`
	PerParticipant       []float64    `json:"per_participant_minutes"`
	Approximate          bool         `json:"approximate"`
	GeneratedAt          time.Time    `json:"generated_at"`
}

// MeetingRequest finds a venue convenient for every participant.
type MeetingRequest struct {
	Participants  []geo.Location
	Mode          travel.Mode
	VenueCategory string
}

// MeetingPointPlanner picks the venue near the participants' centroid that
// minimizes their combined travel time.
type MeetingPointPlanner struct {
	index    *spatial.Index
	provider travel.Provider
}

// NewMeetingPointPlanner returns a planner over the index and provider.
func NewMeetingPointPlanner(index *spatial.Index, provider travel.Provider) *MeetingPointPlanner {
	return &MeetingPointPlanner{index: index, provider: provider}
}

// Plan finds the best meeting venue. It needs at least two participants and
// at least one candidate venue near their centroid; with no venue in range it
// fails as unreachable.
func (p *MeetingPointPlanner) Plan(ctx context.Context, req MeetingRequest) (*MeetingPoint, error) {
	if len(req.Participants) < 2 {
		return nil, geoerr.InvalidInputf("route: meeting needs at least 2 participants, got %d", len(req.Participants))
	}
	for _, loc := range req.Participants {
		if err := loc.Validate(); err != nil {
			return nil, geoerr.Wrap(geoerr.KindInvalidInput, err, "route: participant")
		}
	}
	if !req.Mode.Valid() {
		return nil, geoerr.InvalidInputf("route: unknown mode %q", req.Mode)
	}
	category := req.VenueCategory
	if category == "" {
		category = DefaultVenueCategory
	}

	centroid := geo.Centroid(req.Participants)
	venues, err := p.index.WithinRadius(centroid, venueSearchRadiusMeters, category)
	if err != nil {
		return nil, err
	}
	if len(venues) == 0 {
		return nil, geoerr.Newf(geoerr.KindUnreachable,
			"route: no %s venues within %dm of the group centroid", category, int(venueSearchRadiusMeters))
	}
	if len(venues) > maxVenueCandidates {
		venues = venues[:maxVenueCandidates]
	}

	queries := make([]travel.Query, 0, len(venues)*len(req.Participants))
	for _, v := range venues {
		for _, loc := range req.Participants {
			queries = append(queries, travel.Query{Origin: loc, Destination: v.Location, Mode: req.Mode})
		}
	}
	ests, err := p.provider.EstimateMany(ctx, queries)
	if err != nil {
		if geoerr.IsInvalidInput(err) {
			return nil, err
		}
		return nil, geoerr.Wrap(geoerr.KindUnreachable, err, "route: venue estimates")
	}

	best := -1
	var bestTotal float64
	var bestTimes []float64
	approximate := false
	for vi := range venues {
		var total float64
		times := make([]float64, len(req.Participants))
		for pi := range req.Participants {
			est := ests[vi*len(req.Participants)+pi]
			times[pi] = est.DurationMinutes
			total += est.DurationMinutes
			approximate = approximate || est.Approximate
		}
		if best == -1 || total < bestTotal {
			best = vi
			bestTotal = total
			bestTimes = times
		}
	}

	zap.L().Debug("route: meeting point chosen",
		zap.String("venue_id", venues[best].ID),
		zap.Int("participants", len(req.Participants)),
		zap.Float64("total_minutes", bestTotal))
	return &MeetingPoint{
		Venue:                venues[best],
		Centroid:             centroid,
		TotalDurationMinutes: bestTotal,
		PerParticipant:       bestTimes,
		Approximate:          approximate,
		GeneratedAt:          time.Now().UTC(),
	}, nil
}

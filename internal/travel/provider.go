package travel

import (
	"context"

	"github.com/urbansight/geocore/internal/geo"
)

// Estimate is one origin-destination travel estimate. Approximate marks
// results produced by the geometric fallback rather than a live provider.
type Estimate struct {
	DurationMinutes float64 `json:"duration_minutes"`
	DistanceMeters  float64 `json:"distance_meters"`
	Approximate     bool    `json:"approximate"`
}

// Query is one origin-destination pair to estimate.
type Query struct {
	Origin      geo.Location
	Destination geo.Location
	Mode        Mode
}

// Provider estimates travel between points. Implementations must be safe for
// concurrent use.
type Provider interface {
	// Estimate returns the travel estimate for a single query.
	Estimate(ctx context.Context, q Query) (Estimate, error)

	// EstimateMany returns one estimate per query, in query order.
	// Implementations may batch or parallelize internally.
	EstimateMany(ctx context.Context, qs []Query) ([]Estimate, error)

	// Name identifies the provider in logs and results.
	Name() string
}

package travel

import (
	"context"

	"github.com/urbansight/geocore/internal/geo"
	"github.com/urbansight/geocore/internal/geoerr"
)

// GeometricProvider estimates travel time from great-circle distance and a
// per-mode cruising speed. It never fails for valid input, which makes it the
// terminal provider in a failover chain.
type GeometricProvider struct{}

// NewGeometricProvider returns the straight-line estimator.
func NewGeometricProvider() *GeometricProvider {
	return &GeometricProvider{}
}

// Name implements Provider.
func (g *GeometricProvider) Name() string { return "geometric" }

// Estimate implements Provider. The result is always marked approximate.
func (g *GeometricProvider) Estimate(_ context.Context, q Query) (Estimate, error) {
	if err := validateQuery(q); err != nil {
		return Estimate{}, err
	}
	dist := geo.Haversine(q.Origin, q.Destination)
	speed := q.Mode.SpeedKmh() * 1000 / 60 // meters per minute
	return Estimate{
		DurationMinutes: dist / speed,
		DistanceMeters:  dist,
		Approximate:     true,
	}, nil
}

// EstimateMany implements Provider.
func (g *GeometricProvider) EstimateMany(ctx context.Context, qs []Query) ([]Estimate, error) {
	out := make([]Estimate, len(qs))
	for i, q := range qs {
		est, err := g.Estimate(ctx, q)
		if err != nil {
			return nil, err
		}
		out[i] = est
	}
	return out, nil
}

func validateQuery(q Query) error {
	if err := q.Origin.Validate(); err != nil {
		return geoerr.Wrap(geoerr.KindInvalidInput, err, "travel: origin")
	}
	if err := q.Destination.Validate(); err != nil {
		return geoerr.Wrap(geoerr.KindInvalidInput, err, "travel: destination")
	}
	if !q.Mode.Valid() {
		return geoerr.InvalidInputf("travel: unknown mode %q", q.Mode)
	}
	return nil
}

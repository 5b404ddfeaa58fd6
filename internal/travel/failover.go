package travel

import (
	"context"

	"go.uber.org/zap"

	"github.com/urbansight/geocore/internal/geoerr"
)

// Failover chains providers in priority order. When a provider fails with a
// provider-unavailable error the next one is tried; estimates produced by any
// provider after the first are marked approximate. Invalid-input errors stop
// the cascade immediately since retrying them elsewhere cannot help.
type Failover struct {
	providers []Provider
}

// NewFailover builds a cascade over the given providers. Callers should put
// the live provider first and NewGeometricProvider last so every valid query
// gets an answer.
func NewFailover(providers ...Provider) *Failover {
	return &Failover{providers: providers}
}

// Name implements Provider.
func (f *Failover) Name() string { return "failover" }

// Estimate implements Provider.
func (f *Failover) Estimate(ctx context.Context, q Query) (Estimate, error) {
	ests, err := f.EstimateMany(ctx, []Query{q})
	if err != nil {
		return Estimate{}, err
	}
	return ests[0], nil
}

// EstimateMany implements Provider.
func (f *Failover) EstimateMany(ctx context.Context, qs []Query) ([]Estimate, error) {
	if len(f.providers) == 0 {
		return nil, geoerr.New(geoerr.KindProviderUnavailable, "travel: no providers configured")
	}
	var lastErr error
	for i, p := range f.providers {
		ests, err := p.EstimateMany(ctx, qs)
		if err == nil {
			if i > 0 {
				for j := range ests {
					ests[j].Approximate = true
				}
			}
			return ests, nil
		}
		if geoerr.IsInvalidInput(err) || ctx.Err() != nil {
			return nil, err
		}
		zap.L().Warn("travel: provider failed, trying next",
			zap.String("provider", p.Name()),
			zap.Int("queries", len(qs)),
			zap.Error(err))
		lastErr = err
	}
	return nil, geoerr.Wrap(geoerr.KindProviderUnavailable, lastErr, "travel: all providers failed")
}

var _ Provider = (*Failover)(nil)

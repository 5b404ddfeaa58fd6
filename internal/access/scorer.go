// Package access scores how well a location reaches everyday amenities. Each
// category contributes the travel time to its nearest POI, mapped onto a 0-10
// scale where 0 means at or beyond the duration ceiling.
package access

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/urbansight/geocore/internal/geo"
	"github.com/urbansight/geocore/internal/geoerr"
	"github.com/urbansight/geocore/internal/spatial"
	"github.com/urbansight/geocore/internal/travel"
)

// DefaultCategories are scored when a request names none.
var DefaultCategories = []string{
	"transit_station", "hospital", "school", "supermarket", "pharmacy",
}

// DefaultCeilingMinutes is the travel time at which a category scores zero.
const DefaultCeilingMinutes = 15.0

// searchRadiusMeters bounds the nearest-POI lookup. Anything farther scores
// as absent.
const searchRadiusMeters = 5000.0

// CategoryScore is the result for a single amenity category.
type CategoryScore struct {
	Category        string       `json:"category"`
	Score           float64      `json:"score"`
	Accessible      bool         `json:"accessible"`
	NearestPOI      *spatial.POI `json:"nearest_poi,omitempty"`
	DurationMinutes float64      `json:"duration_minutes,omitempty"`
}

// Report is the full accessibility result for one location.
type Report struct {
	Location    geo.Location    `json:"location"`
	Mode        travel.Mode     `json:"mode"`
	Overall     float64         `json:"overall_score"`
	Categories  []CategoryScore `json:"categories"`
	Approximate bool            `json:"approximate"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// Request scores Location against Categories using Mode travel times.
type Request struct {
	Location       geo.Location
	Mode           travel.Mode
	Categories     []string
	CeilingMinutes float64
}

// Scorer computes accessibility reports from the spatial index and a travel
// provider.
type Scorer struct {
	index    *spatial.Index
	provider travel.Provider
	workers  int
}

// NewScorer returns a Scorer. Workers bounds concurrent travel lookups.
func NewScorer(index *spatial.Index, provider travel.Provider, workers int) *Scorer {
	if workers < 1 {
		workers = 1
	}
	return &Scorer{index: index, provider: provider, workers: workers}
}

// Score computes the accessibility report for req. Categories with no POI in
// range score zero and are kept in the report, so the overall mean reflects
// missing amenities instead of hiding them.
func (s *Scorer) Score(ctx context.Context, req Request) (*Report, error) {
	if err := req.Location.Validate(); err != nil {
		return nil, geoerr.Wrap(geoerr.KindInvalidInput, err, "access: location")
	}
	if !req.Mode.Valid() {
		return nil, geoerr.InvalidInputf("access: unknown mode %q", req.Mode)
	}
	categories := req.Categories
	if categories == nil {
		categories = DefaultCategories
	}
	if len(categories) == 0 {
		return nil, geoerr.InvalidInputf("access: no categories to score")
	}
	for _, c := range categories {
		if c == "" {
			return nil, geoerr.InvalidInputf("access: empty category name")
		}
	}
	ceiling := req.CeilingMinutes
	if ceiling <= 0 {
		ceiling = DefaultCeilingMinutes
	}

	scores := make([]CategoryScore, len(categories))
	approx := make([]bool, len(categories))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, cat := range categories {
		i, cat := i, cat
		g.Go(func() error {
			sc, a, err := s.scoreCategory(gctx, req.Location, req.Mode, cat, ceiling)
			if err != nil {
				return err
			}
			scores[i] = sc
			approx[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{
		Location:    req.Location,
		Mode:        req.Mode,
		Categories:  scores,
		GeneratedAt: time.Now().UTC(),
	}
	var sum float64
	for i, sc := range scores {
		sum += sc.Score
		report.Approximate = report.Approximate || approx[i]
	}
	report.Overall = sum / float64(len(scores))

	zap.L().Debug("access: scored location",
		zap.Float64("lat", req.Location.Lat),
		zap.Float64("lng", req.Location.Lng),
		zap.Float64("overall", report.Overall),
		zap.Int("categories", len(scores)))
	return report, nil
}

func (s *Scorer) scoreCategory(ctx context.Context, loc geo.Location, mode travel.Mode, category string, ceiling float64) (CategoryScore, bool, error) {
	nearest, err := s.index.Nearest(loc, category, 1)
	if err != nil {
		return CategoryScore{}, false, err
	}
	if len(nearest) == 0 || geo.Haversine(loc, nearest[0].Location) > searchRadiusMeters {
		return CategoryScore{Category: category, Score: 0, Accessible: false}, false, nil
	}

	poi := nearest[0]
	est, err := s.provider.Estimate(ctx, travel.Query{Origin: loc, Destination: poi.Location, Mode: mode})
	if err != nil {
		return CategoryScore{}, false, geoerr.Wrap(geoerr.KindOf(err), err, "access: category %s", category)
	}

	return CategoryScore{
		Category:        category,
		Score:           durationScore(est.DurationMinutes, ceiling),
		Accessible:      est.DurationMinutes <= ceiling,
		NearestPOI:      &poi,
		DurationMinutes: est.DurationMinutes,
	}, est.Approximate, nil
}

// durationScore maps a travel time onto 0-10: zero minutes scores 10, the
// ceiling and beyond score 0, linear in between.
func durationScore(durationMinutes, ceiling float64) float64 {
	return math.Max(0, 10-durationMinutes/ceiling*10)
}

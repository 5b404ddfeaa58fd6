// Package isochrone builds reachability polygons: for an origin, travel mode,
// and a set of time intervals, it samples destinations along concentric rings,
// asks the travel provider how long each takes to reach, and wraps the points
// reachable within each interval in a convex hull.
package isochrone

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/urbansight/geocore/internal/geo"
	"github.com/urbansight/geocore/internal/geoerr"
	"github.com/urbansight/geocore/internal/travel"
)

const (
	pointsPerRing = 12
	minRings      = 4
	maxRings      = 8

	// degenerateDiskRadius is the fallback disk drawn around the origin when
	// an interval has too few reachable samples to form a polygon.
	degenerateDiskRadius = 50.0
	degenerateDiskPoints = 16
)

// Band colors, from fastest interval to slowest, keyed by position within the
// interval list.
const (
	colorNear = "#10b981"
	colorMid  = "#f59e0b"
	colorFar  = "#ef4444"
)

// Band is one reachability interval of a Zone.
type Band struct {
	MaxDurationMinutes float64  `json:"max_duration_minutes"`
	Boundary           geo.Ring `json:"boundary"`
	Color              string   `json:"color"`
	AreaSqKm           float64  `json:"area_sq_km"`
	SampleCount        int      `json:"sample_count"`
	Degenerate         bool     `json:"degenerate,omitempty"`
}

// Zone is a full isochrone result: one band per requested interval, sorted by
// ascending duration so bands nest from fastest to slowest.
type Zone struct {
	Origin      geo.Location `json:"origin"`
	Mode        travel.Mode  `json:"mode"`
	Bands       []Band       `json:"bands"`
	Approximate bool         `json:"approximate"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// Request asks for an isochrone around Origin. Intervals are upper bounds in
// minutes; when empty, thirds of MaxDurationMinutes are used.
type Request struct {
	Origin             geo.Location
	Mode               travel.Mode
	MaxDurationMinutes float64
	IntervalsMinutes   []float64
}

// Builder samples travel times and assembles zones.
type Builder struct {
	provider    travel.Provider
	concurrency int
}

// NewBuilder returns a Builder over the given provider. Concurrency bounds the
// number of in-flight provider batches; values below 1 mean no parallelism.
func NewBuilder(provider travel.Provider, concurrency int) *Builder {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Builder{provider: provider, concurrency: concurrency}
}

// Build computes the isochrone zone for req.
func (b *Builder) Build(ctx context.Context, req Request) (*Zone, error) {
	if err := req.Origin.Validate(); err != nil {
		return nil, geoerr.Wrap(geoerr.KindInvalidInput, err, "isochrone: origin")
	}
	if !req.Mode.Valid() {
		return nil, geoerr.InvalidInputf("isochrone: unknown mode %q", req.Mode)
	}
	if req.MaxDurationMinutes <= 0 || math.IsNaN(req.MaxDurationMinutes) {
		return nil, geoerr.InvalidInputf("isochrone: max duration must be positive, got %v", req.MaxDurationMinutes)
	}
	intervals, err := normalizeIntervals(req.IntervalsMinutes, req.MaxDurationMinutes)
	if err != nil {
		return nil, err
	}

	samples := b.samplePoints(req)
	estimates, approximate, err := b.estimateAll(ctx, req, samples)
	if err != nil {
		return nil, err
	}

	zone := &Zone{
		Origin:      req.Origin,
		Mode:        req.Mode,
		Bands:       make([]Band, 0, len(intervals)),
		Approximate: approximate,
		GeneratedAt: time.Now().UTC(),
	}
	for i, limit := range intervals {
		band := b.buildBand(req.Origin, samples, estimates, limit)
		band.Color = bandColor(i, len(intervals))
		zone.Bands = append(zone.Bands, band)
	}
	zap.L().Debug("isochrone: zone built",
		zap.Float64("lat", req.Origin.Lat),
		zap.Float64("lng", req.Origin.Lng),
		zap.String("mode", string(req.Mode)),
		zap.Int("bands", len(zone.Bands)),
		zap.Bool("approximate", zone.Approximate))
	return zone, nil
}

// normalizeIntervals validates explicit intervals or derives thirds of the
// maximum. Returned intervals are sorted ascending with duplicates dropped;
// derived thirds are floored to whole minutes.
func normalizeIntervals(intervals []float64, maxDuration float64) ([]float64, error) {
	if len(intervals) == 0 {
		derived := []float64{math.Floor(maxDuration / 3), math.Floor(2 * maxDuration / 3), maxDuration}
		out := make([]float64, 0, len(derived))
		for _, v := range derived {
			if v > 0 && (len(out) == 0 || v > out[len(out)-1]) {
				out = append(out, v)
			}
		}
		return out, nil
	}
	sorted := make([]float64, len(intervals))
	copy(sorted, intervals)
	sort.Float64s(sorted)
	out := make([]float64, 0, len(sorted))
	for _, v := range sorted {
		if v <= 0 || math.IsNaN(v) {
			return nil, geoerr.InvalidInputf("isochrone: intervals must be positive, got %v", v)
		}
		if v > maxDuration {
			return nil, geoerr.InvalidInputf("isochrone: interval %v exceeds max duration %v", v, maxDuration)
		}
		if len(out) == 0 || v > out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out, nil
}

// samplePoints lays destinations on concentric rings around the origin out to
// the distance the mode could cover in the maximum duration. The layout is
// deterministic: same request, same points.
func (b *Builder) samplePoints(req Request) []geo.Location {
	rings := minRings + int(req.MaxDurationMinutes/15)
	if rings > maxRings {
		rings = maxRings
	}
	maxDist := req.Mode.SpeedKmh() * 1000 / 60 * req.MaxDurationMinutes

	points := make([]geo.Location, 0, rings*pointsPerRing)
	for r := 1; r <= rings; r++ {
		dist := maxDist * float64(r) / float64(rings)
		for p := 0; p < pointsPerRing; p++ {
			bearing := 360 * float64(p) / pointsPerRing
			points = append(points, geo.Destination(req.Origin, bearing, dist))
		}
	}
	return points
}

// estimateAll fetches travel estimates for every sample, in chunks sized to
// the worker count, writing into index-addressed slots so output order never
// depends on scheduling.
func (b *Builder) estimateAll(ctx context.Context, req Request, samples []geo.Location) ([]travel.Estimate, bool, error) {
	queries := make([]travel.Query, len(samples))
	for i, s := range samples {
		queries[i] = travel.Query{Origin: req.Origin, Destination: s, Mode: req.Mode}
	}

	estimates := make([]travel.Estimate, len(queries))
	chunk := (len(queries) + b.concurrency - 1) / b.concurrency
	if chunk < 1 {
		chunk = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for start := 0; start < len(queries); start += chunk {
		end := start + chunk
		if end > len(queries) {
			end = len(queries)
		}
		start, end := start, end
		g.Go(func() error {
			ests, err := b.provider.EstimateMany(gctx, queries[start:end])
			if err != nil {
				return err
			}
			copy(estimates[start:end], ests)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, false, geoerr.Wrap(geoerr.KindOf(err), err, "isochrone: estimate samples")
	}

	approximate := false
	for _, e := range estimates {
		if e.Approximate {
			approximate = true
			break
		}
	}
	return estimates, approximate, nil
}

// buildBand hulls the samples reachable within limit minutes. The origin is
// always included so a band never excludes its own center.
func (b *Builder) buildBand(origin geo.Location, samples []geo.Location, estimates []travel.Estimate, limit float64) Band {
	reachable := []geo.Location{origin}
	for i, est := range estimates {
		if est.DurationMinutes <= limit {
			reachable = append(reachable, samples[i])
		}
	}

	band := Band{MaxDurationMinutes: limit, SampleCount: len(reachable) - 1}
	hull := geo.ConvexHull(reachable)
	if hull == nil {
		band.Boundary = geo.Disk(origin, degenerateDiskRadius, degenerateDiskPoints)
		band.Degenerate = true
	} else {
		band.Boundary = hull
	}
	band.AreaSqKm = band.Boundary.ApproxAreaSqMeters() / 1e6
	return band
}

// bandColor maps an interval's position in the list to its display color:
// first third green, middle third amber, rest red.
func bandColor(index, total int) string {
	ratio := float64(index+1) / float64(total)
	switch {
	case ratio <= 1.0/3:
		return colorNear
	case ratio <= 2.0/3:
		return colorMid
	default:
		return colorFar
	}
}

package spatial

import (
	"math"
	"sort"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/urbansight/geocore/internal/geo"
	"github.com/urbansight/geocore/internal/geoerr"
)

// DefaultCellSizeDegrees is the grid bucket size used when none is configured.
// 0.01 degrees is roughly 1.1 km of latitude, a good fit for city-scale data.
const DefaultCellSizeDegrees = 0.01

const metersPerDegreeLat = 111_195.0

type cellKey struct {
	lat int32
	lng int32
}

// snapshot is an immutable view of the dataset. Queries read a snapshot;
// Rebuild constructs a fresh one and swaps it in atomically, so readers never
// observe a half-built index.
type snapshot struct {
	cellSize float64
	pois     []POI
	cells    map[cellKey][]int32
	byCat    map[string][]int32
	regions  []Region
	version  int64
	builtAt  time.Time
}

// Index answers spatial queries over POIs and regions. The zero value is not
// usable; construct with NewIndex. All methods are safe for concurrent use,
// and Rebuild may run concurrently with queries.
type Index struct {
	cellSize float64
	snap     atomic.Pointer[snapshot]
	version  atomic.Int64
}

// RebuildStats reports what a Rebuild kept and what it dropped.
type RebuildStats struct {
	POIs           int
	Regions        int
	SkippedPOIs    int
	SkippedRegions int
	Version        int64
}

// NewIndex returns an empty index bucketed at cellSizeDegrees. Zero or
// negative cell sizes fall back to DefaultCellSizeDegrees.
func NewIndex(cellSizeDegrees float64) *Index {
	if cellSizeDegrees <= 0 || math.IsNaN(cellSizeDegrees) {
		cellSizeDegrees = DefaultCellSizeDegrees
	}
	ix := &Index{cellSize: cellSizeDegrees}
	ix.snap.Store(&snapshot{
		cellSize: cellSizeDegrees,
		cells:    map[cellKey][]int32{},
		byCat:    map[string][]int32{},
		builtAt:  time.Now(),
	})
	return ix
}

// Rebuild replaces the index contents in one atomic step. Records that fail
// validation are skipped and logged rather than failing the whole rebuild.
func (ix *Index) Rebuild(pois []POI, regions []Region) RebuildStats {
	next := &snapshot{
		cellSize: ix.cellSize,
		cells:    map[cellKey][]int32{},
		byCat:    map[string][]int32{},
		version:  ix.version.Add(1),
		builtAt:  time.Now(),
	}
	stats := RebuildStats{Version: next.version}

	kept := make([]POI, 0, len(pois))
	for _, p := range pois {
		if err := p.Location.Validate(); err != nil {
			stats.SkippedPOIs++
			zap.L().Warn("spatial: skipping POI with invalid location",
				zap.String("poi_id", p.ID),
				zap.Error(geoerr.Wrap(geoerr.KindDataIntegrity, err, "spatial: poi %s", p.ID)))
			continue
		}
		kept = append(kept, p)
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].ID < kept[j].ID })
	next.pois = kept
	for i, p := range kept {
		key := next.cellOf(p.Location)
		next.cells[key] = append(next.cells[key], int32(i))
		next.byCat[p.Category] = append(next.byCat[p.Category], int32(i))
	}
	stats.POIs = len(kept)

	keptRegions := make([]Region, 0, len(regions))
	for _, r := range regions {
		if err := r.Boundary.Validate(); err != nil {
			stats.SkippedRegions++
			zap.L().Warn("spatial: skipping region with invalid boundary",
				zap.String("region_id", r.ID),
				zap.Error(err))
			continue
		}
		keptRegions = append(keptRegions, r)
	}
	sort.Slice(keptRegions, func(i, j int) bool { return keptRegions[i].ID < keptRegions[j].ID })
	next.regions = keptRegions
	stats.Regions = len(keptRegions)

	ix.snap.Store(next)
	zap.L().Info("spatial: index rebuilt",
		zap.Int64("version", next.version),
		zap.Int("pois", stats.POIs),
		zap.Int("regions", stats.Regions),
		zap.Int("skipped_pois", stats.SkippedPOIs),
		zap.Int("skipped_regions", stats.SkippedRegions))
	return stats
}

// Ready reports whether at least one Rebuild has completed.
func (ix *Index) Ready() bool {
	return ix.snap.Load().version > 0
}

// Version returns the snapshot version, incremented on each Rebuild.
func (ix *Index) Version() int64 {
	return ix.snap.Load().version
}

// WithinRadius returns every POI within radiusMeters of center, optionally
// filtered to one category (empty string matches all). Results are ordered by
// ascending distance, ties broken by ID. An empty result is not an error.
func (ix *Index) WithinRadius(center geo.Location, radiusMeters float64, category string) ([]POI, error) {
	if err := center.Validate(); err != nil {
		return nil, geoerr.Wrap(geoerr.KindInvalidInput, err, "spatial: within radius")
	}
	if radiusMeters <= 0 || math.IsNaN(radiusMeters) {
		return nil, geoerr.InvalidInputf("spatial: radius must be positive, got %v", radiusMeters)
	}
	snap := ix.snap.Load()

	type hit struct {
		idx  int32
		dist float64
	}
	var hits []hit
	for _, idx := range snap.candidates(center, radiusMeters) {
		p := snap.pois[idx]
		if category != "" && p.Category != category {
			continue
		}
		d := geo.Haversine(center, p.Location)
		if d <= radiusMeters {
			hits = append(hits, hit{idx: idx, dist: d})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return snap.pois[hits[i].idx].ID < snap.pois[hits[j].idx].ID
	})
	out := make([]POI, len(hits))
	for i, h := range hits {
		out[i] = snap.pois[h.idx]
	}
	return out, nil
}

// CountWithinRadius is WithinRadius without materializing the result slice.
func (ix *Index) CountWithinRadius(center geo.Location, radiusMeters float64, category string) (int, error) {
	if err := center.Validate(); err != nil {
		return 0, geoerr.Wrap(geoerr.KindInvalidInput, err, "spatial: count within radius")
	}
	if radiusMeters <= 0 || math.IsNaN(radiusMeters) {
		return 0, geoerr.InvalidInputf("spatial: radius must be positive, got %v", radiusMeters)
	}
	snap := ix.snap.Load()
	n := 0
	for _, idx := range snap.candidates(center, radiusMeters) {
		p := snap.pois[idx]
		if category != "" && p.Category != category {
			continue
		}
		if geo.Haversine(center, p.Location) <= radiusMeters {
			n++
		}
	}
	return n, nil
}

// Nearest returns up to maxResults POIs of the category closest to center,
// ordered by ascending distance with ID tie-breaks. Category may be empty to
// match all POIs.
func (ix *Index) Nearest(center geo.Location, category string, maxResults int) ([]POI, error) {
	if err := center.Validate(); err != nil {
		return nil, geoerr.Wrap(geoerr.KindInvalidInput, err, "spatial: nearest")
	}
	if maxResults <= 0 {
		return nil, geoerr.InvalidInputf("spatial: maxResults must be positive, got %d", maxResults)
	}
	snap := ix.snap.Load()

	idxs := snap.byCat[category]
	if category == "" {
		idxs = make([]int32, len(snap.pois))
		for i := range snap.pois {
			idxs[i] = int32(i)
		}
	}
	type hit struct {
		idx  int32
		dist float64
	}
	hits := make([]hit, 0, len(idxs))
	for _, idx := range idxs {
		hits = append(hits, hit{idx: idx, dist: geo.Haversine(center, snap.pois[idx].Location)})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return snap.pois[hits[i].idx].ID < snap.pois[hits[j].idx].ID
	})
	if len(hits) > maxResults {
		hits = hits[:maxResults]
	}
	out := make([]POI, len(hits))
	for i, h := range hits {
		out[i] = snap.pois[h.idx]
	}
	return out, nil
}

// RegionContaining returns the region whose boundary contains loc. When
// several overlap, the one with the smallest ID wins, keeping lookups
// deterministic. The boolean is false when no region contains the point.
func (ix *Index) RegionContaining(loc geo.Location) (Region, bool) {
	snap := ix.snap.Load()
	for _, r := range snap.regions {
		if r.Boundary.Contains(loc) {
			return r, true
		}
	}
	return Region{}, false
}

// Regions returns all indexed regions ordered by ID. The slice is a copy and
// safe to retain.
func (ix *Index) Regions() []Region {
	snap := ix.snap.Load()
	out := make([]Region, len(snap.regions))
	copy(out, snap.regions)
	return out
}

// POICount returns the number of indexed POIs.
func (ix *Index) POICount() int {
	return len(ix.snap.Load().pois)
}

func (s *snapshot) cellOf(loc geo.Location) cellKey {
	lngLo := int32(math.Floor(-180 / s.cellSize))
	width := int32(math.Ceil(360 / s.cellSize))
	ln := int32(math.Floor(loc.Lng / s.cellSize))
	return cellKey{
		lat: int32(math.Floor(loc.Lat / s.cellSize)),
		lng: lngLo + ((ln-lngLo)%width+width)%width,
	}
}

// candidates returns POI indices in every grid cell that the radius could
// touch. Longitude span widens with latitude; near the poles the cosine
// collapses and we scan the full longitude range rather than divide by ~0.
func (s *snapshot) candidates(center geo.Location, radiusMeters float64) []int32 {
	latSpan := radiusMeters / metersPerDegreeLat
	cosLat := math.Cos(center.Lat * math.Pi / 180)
	lngSpan := 180.0
	if cosLat > 1e-6 {
		lngSpan = radiusMeters / (metersPerDegreeLat * cosLat)
	}

	minLat := int32(math.Floor((center.Lat - latSpan) / s.cellSize))
	maxLat := int32(math.Floor((center.Lat + latSpan) / s.cellSize))
	minLng := int32(math.Floor((center.Lng - lngSpan) / s.cellSize))
	maxLng := int32(math.Floor((center.Lng + lngSpan) / s.cellSize))

	// Longitude cells wrap at the antimeridian: indices past either edge
	// fold back into [-180, 180) so a query near +-180 sees both sides.
	lngLo := int32(math.Floor(-180 / s.cellSize))
	width := int32(math.Ceil(360 / s.cellSize))
	if maxLng-minLng+1 >= width {
		minLng = lngLo
		maxLng = lngLo + width - 1
	}

	var out []int32
	for la := minLat; la <= maxLat; la++ {
		for ln := minLng; ln <= maxLng; ln++ {
			wrapped := lngLo + ((ln-lngLo)%width+width)%width
			out = append(out, s.cells[cellKey{lat: la, lng: wrapped}]...)
		}
	}
	return out
}

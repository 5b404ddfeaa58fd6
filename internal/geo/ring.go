package geo

import (
	"math"

	"github.com/urbansight/geocore/internal/geoerr"
)

// Ring is a closed polygon boundary: an ordered sequence of locations where
// the first and last entries are equal.
type Ring []Location

// Validate checks the ring invariants: at least 4 points, closed, and
// non-self-intersecting. Violations are classified as data-integrity errors
// so batch callers can skip the record.
func (r Ring) Validate() error {
	if len(r) < 4 {
		return geoerr.Newf(geoerr.KindDataIntegrity, "geo: ring has %d points, need at least 4", len(r))
	}
	if r[0] != r[len(r)-1] {
		return geoerr.New(geoerr.KindDataIntegrity, "geo: ring is not closed")
	}
	for _, p := range r {
		if err := p.Validate(); err != nil {
			return geoerr.Wrap(geoerr.KindDataIntegrity, err, "geo: ring vertex")
		}
	}
	if r.selfIntersects() {
		return geoerr.New(geoerr.KindDataIntegrity, "geo: ring is self-intersecting")
	}
	return nil
}

// Contains reports whether p lies inside the ring, using even-odd ray
// casting in lat/lng space. Points exactly on an edge are not guaranteed
// either way.
func (r Ring) Contains(p Location) bool {
	if len(r) < 4 {
		return false
	}
	inside := false
	// Skip the duplicated closing vertex.
	n := len(r) - 1
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := r[i], r[j]
		if (a.Lat > p.Lat) != (b.Lat > p.Lat) {
			x := (b.Lng-a.Lng)*(p.Lat-a.Lat)/(b.Lat-a.Lat) + a.Lng
			if p.Lng < x {
				inside = !inside
			}
		}
	}
	return inside
}

// Centroid returns the arithmetic centroid of the ring vertices
// (closing vertex excluded).
func (r Ring) Centroid() Location {
	if len(r) < 2 {
		return Location{}
	}
	return Centroid(r[:len(r)-1])
}

// ApproxAreaSqMeters returns the shoelace area of the ring projected onto a
// local tangent plane at its centroid. Good enough for nested-zone size
// comparisons; not a surveying-grade geodesic area.
func (r Ring) ApproxAreaSqMeters() float64 {
	if len(r) < 4 {
		return 0
	}
	c := r.Centroid()
	metersPerDegLat := 2 * math.Pi * EarthRadiusMeters / 360
	metersPerDegLng := metersPerDegLat * math.Cos(radians(c.Lat))

	var area float64
	n := len(r) - 1
	for i := 0; i < n; i++ {
		x1 := (r[i].Lng - c.Lng) * metersPerDegLng
		y1 := (r[i].Lat - c.Lat) * metersPerDegLat
		x2 := (r[i+1].Lng - c.Lng) * metersPerDegLng
		y2 := (r[i+1].Lat - c.Lat) * metersPerDegLat
		area += x1*y2 - x2*y1
	}
	return math.Abs(area) / 2
}

// selfIntersects checks every non-adjacent edge pair for crossing.
// O(n²), fine for the ring sizes this engine handles.
func (r Ring) selfIntersects() bool {
	n := len(r) - 1 // edges
	for i := 0; i < n; i++ {
		for j := i + 2; j < n; j++ {
			// Adjacent edges share a vertex; the first and last edge too.
			if i == 0 && j == n-1 {
				continue
			}
			if segmentsCross(r[i], r[i+1], r[j], r[j+1]) {
				return true
			}
		}
	}
	return false
}

// segmentsCross reports proper intersection of segments ab and cd.
func segmentsCross(a, b, c, d Location) bool {
	d1 := cross(c, d, a)
	d2 := cross(c, d, b)
	d3 := cross(a, b, c)
	d4 := cross(a, b, d)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

// cross returns the z component of (b-a) × (p-a) in lng/lat space.
func cross(a, b, p Location) float64 {
	return (b.Lng-a.Lng)*(p.Lat-a.Lat) - (b.Lat-a.Lat)*(p.Lng-a.Lng)
}

// Disk returns a closed ring approximating a geodesic circle around center.
// Used when an isochrone band has no reachable samples and must degrade to a
// minimal footprint instead of failing.
func Disk(center Location, radiusMeters float64, segments int) Ring {
	if segments < 3 {
		segments = 16
	}
	ring := make(Ring, 0, segments+1)
	for i := 0; i < segments; i++ {
		bearing := 360 * float64(i) / float64(segments)
		ring = append(ring, Destination(center, bearing, radiusMeters))
	}
	ring = append(ring, ring[0])
	return ring
}

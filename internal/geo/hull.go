package geo

import "sort"

// ConvexHull returns the convex hull of the given points as a closed ring,
// computed with Andrew's monotone chain. Input order does not affect the
// result: points are sorted by (lng, lat) first, which also makes repeated
// calls byte-identical for identical point sets.
//
// Fewer than 3 distinct points yield a nil ring; callers degrade to a disk.
func ConvexHull(points []Location) Ring {
	if len(points) < 3 {
		return nil
	}

	pts := make([]Location, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].Lng != pts[j].Lng {
			return pts[i].Lng < pts[j].Lng
		}
		return pts[i].Lat < pts[j].Lat
	})

	// Deduplicate after sorting.
	uniq := pts[:1]
	for _, p := range pts[1:] {
		if p != uniq[len(uniq)-1] {
			uniq = append(uniq, p)
		}
	}
	if len(uniq) < 3 {
		return nil
	}

	// Lower hull.
	var lower []Location
	for _, p := range uniq {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}

	// Upper hull.
	var upper []Location
	for i := len(uniq) - 1; i >= 0; i-- {
		p := uniq[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}

	// Concatenate, dropping the duplicated endpoints, then close the ring.
	hull := append(lower[:len(lower)-1], upper[:len(upper)-1]...)
	if len(hull) < 3 {
		return nil
	}
	ring := make(Ring, 0, len(hull)+1)
	ring = append(ring, hull...)
	ring = append(ring, hull[0])
	return ring
}

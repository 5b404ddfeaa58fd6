// Package geo provides the geodesic primitives shared by every scoring
// component: locations, polygon rings, great-circle math, and hulls.
package geo

import (
	"math"

	"github.com/urbansight/geocore/internal/geoerr"
)

// EarthRadiusMeters is the IUGG mean Earth radius.
const EarthRadiusMeters = 6371008.8

// Location is a WGS84 coordinate pair in degrees.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate checks that the coordinates are within WGS84 bounds.
func (l Location) Validate() error {
	if math.IsNaN(l.Lat) || math.IsNaN(l.Lng) {
		return geoerr.InvalidInputf("geo: coordinates must not be NaN")
	}
	if l.Lat < -90 || l.Lat > 90 {
		return geoerr.InvalidInputf("geo: latitude %.6f out of range [-90, 90]", l.Lat)
	}
	if l.Lng < -180 || l.Lng > 180 {
		return geoerr.InvalidInputf("geo: longitude %.6f out of range [-180, 180]", l.Lng)
	}
	return nil
}

// Haversine returns the great-circle distance between two locations in meters.
// Planar distance on raw degrees would shrink fixed-radius queries toward the
// poles; this keeps them geodesically honest.
func Haversine(a, b Location) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng

	return 2 * EarthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Destination returns the location reached by traveling distanceMeters from
// origin along the given initial bearing (degrees clockwise from north),
// using the standard great-circle destination formula.
func Destination(origin Location, bearingDeg, distanceMeters float64) Location {
	lat1 := radians(origin.Lat)
	lng1 := radians(origin.Lng)
	brng := radians(bearingDeg)
	d := distanceMeters / EarthRadiusMeters

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) + math.Cos(lat1)*math.Sin(d)*math.Cos(brng))
	lng2 := lng1 + math.Atan2(
		math.Sin(brng)*math.Sin(d)*math.Cos(lat1),
		math.Cos(d)-math.Sin(lat1)*math.Sin(lat2),
	)

	// Normalize longitude to [-180, 180).
	lng := math.Mod(degrees(lng2)+540, 360) - 180

	return Location{Lat: degrees(lat2), Lng: lng}
}

// Centroid returns the arithmetic centroid of the given locations.
// Adequate for the small extents this engine works over; not suitable for
// point sets spanning the antimeridian.
func Centroid(points []Location) Location {
	if len(points) == 0 {
		return Location{}
	}
	var sumLat, sumLng float64
	for _, p := range points {
		sumLat += p.Lat
		sumLng += p.Lng
	}
	n := float64(len(points))
	return Location{Lat: sumLat / n, Lng: sumLng / n}
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }

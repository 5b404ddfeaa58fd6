package geo

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/urbansight/geocore/internal/geoerr"
)

// ToGeomPolygon converts a closed ring into a go-geom polygon with SRID 4326.
// Coordinates follow GeoJSON order: [lng, lat].
func (r Ring) ToGeomPolygon() (*geom.Polygon, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	coords := make([]geom.Coord, 0, len(r))
	for _, p := range r {
		coords = append(coords, geom.Coord{p.Lng, p.Lat})
	}
	poly := geom.NewPolygon(geom.XY).SetSRID(4326)
	poly, err := poly.SetCoords([][]geom.Coord{coords})
	if err != nil {
		return nil, eris.Wrap(err, "geo: build polygon")
	}
	return poly, nil
}

// RingFromGeomPolygon extracts the exterior ring of a go-geom polygon.
func RingFromGeomPolygon(poly *geom.Polygon) (Ring, error) {
	if poly == nil || poly.NumLinearRings() == 0 {
		return nil, geoerr.New(geoerr.KindDataIntegrity, "geo: polygon has no exterior ring")
	}
	ext := poly.LinearRing(0)
	coords := ext.Coords()
	ring := make(Ring, 0, len(coords))
	for _, c := range coords {
		ring = append(ring, Location{Lat: c[1], Lng: c[0]})
	}
	// GeoJSON rings arrive closed; tolerate unclosed input anyway.
	if len(ring) > 0 && ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	if err := ring.Validate(); err != nil {
		return nil, err
	}
	return ring, nil
}

// MarshalGeoJSON serializes a ring as a GeoJSON Polygon geometry.
func (r Ring) MarshalGeoJSON() ([]byte, error) {
	poly, err := r.ToGeomPolygon()
	if err != nil {
		return nil, err
	}
	data, err := geojson.Marshal(poly)
	if err != nil {
		return nil, eris.Wrap(err, "geo: marshal ring")
	}
	return data, nil
}

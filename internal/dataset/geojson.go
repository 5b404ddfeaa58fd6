package dataset

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	geopkg "github.com/urbansight/geocore/internal/geo"
	"github.com/urbansight/geocore/internal/spatial"
)

// LoadPOIsFromGeoJSON reads a FeatureCollection of points. Feature properties
// id, name, category, and rating map onto the POI fields; non-point features
// are skipped.
func LoadPOIsFromGeoJSON(path string) ([]spatial.POI, error) {
	fc, err := readFeatureCollection(path)
	if err != nil {
		return nil, err
	}

	var pois []spatial.POI
	var skipped int
	for i, f := range fc.Features {
		pt, ok := f.Geometry.(*geom.Point)
		if !ok {
			skipped++
			continue
		}
		poi := spatial.POI{
			ID:       propString(f.Properties, "id"),
			Name:     propString(f.Properties, "name"),
			Category: propString(f.Properties, "category"),
			Rating:   propFloat(f.Properties, "rating"),
			Location: geopkg.Location{Lat: pt.Y(), Lng: pt.X()},
		}
		if poi.ID == "" {
			poi.ID = "geojson-poi-" + strconv.Itoa(i)
		}
		pois = append(pois, poi)
	}
	if skipped > 0 {
		zap.L().Info("dataset: skipped non-point features",
			zap.String("path", path), zap.Int("skipped", skipped))
	}
	return pois, nil
}

// LoadRegionsFromGeoJSON reads a FeatureCollection of polygons into regions.
// Numeric feature properties become region attributes verbatim.
func LoadRegionsFromGeoJSON(path string) ([]spatial.Region, error) {
	fc, err := readFeatureCollection(path)
	if err != nil {
		return nil, err
	}

	var regions []spatial.Region
	var skipped int
	for i, f := range fc.Features {
		poly, ok := f.Geometry.(*geom.Polygon)
		if !ok {
			skipped++
			continue
		}
		ring, err := geopkg.RingFromGeomPolygon(poly)
		if err != nil {
			skipped++
			zap.L().Warn("dataset: skipping malformed polygon feature",
				zap.String("path", path), zap.Int("feature", i), zap.Error(err))
			continue
		}

		region := spatial.Region{
			ID:         propString(f.Properties, "id"),
			Name:       propString(f.Properties, "name"),
			Boundary:   ring,
			Attributes: map[string]float64{},
		}
		if region.ID == "" {
			region.ID = "geojson-region-" + strconv.Itoa(i)
		}
		for k, v := range f.Properties {
			if n, ok := toFloat(v); ok {
				region.Attributes[k] = n
			}
		}
		regions = append(regions, region)
	}
	if skipped > 0 {
		zap.L().Info("dataset: skipped non-polygon features",
			zap.String("path", path), zap.Int("skipped", skipped))
	}
	return regions, nil
}

func readFeatureCollection(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read %s", path)
	}
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrapf(err, "dataset: parse geojson %s", path)
	}
	return &fc, nil
}

func propString(props map[string]any, key string) string {
	s, _ := props[key].(string)
	return s
}

func propFloat(props map[string]any, key string) float64 {
	n, _ := toFloat(props[key])
	return n
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

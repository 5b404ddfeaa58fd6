package dataset

import (
	"fmt"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	geopkg "github.com/urbansight/geocore/internal/geo"
	"github.com/urbansight/geocore/internal/spatial"
)

// ShapefileFields names the DBF attribute columns holding region metadata.
// Missing columns leave the corresponding attribute at zero.
type ShapefileFields struct {
	ID         string
	Name       string
	Population string
	Young      string
	Income     string
	Growth     string
}

// DefaultShapefileFields matches the column names the census-style exports
// use.
func DefaultShapefileFields() ShapefileFields {
	return ShapefileFields{
		ID:         "region_id",
		Name:       "name",
		Population: "population",
		Young:      "young_pop",
		Income:     "income",
		Growth:     "growth",
	}
}

// LoadRegionsFromShapefile reads polygon records into regions. Records whose
// shape is missing, non-polygonal, or fails ring validation are skipped with
// a logged count rather than failing the load.
func LoadRegionsFromShapefile(path string, fields ShapefileFields) ([]spatial.Region, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fieldIdx := make(map[string]int)
	for i, f := range reader.Fields() {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}
	// Attribute reads from the reader's current record.
	attr := func(column string) string {
		idx, ok := fieldIdx[strings.ToLower(column)]
		if !ok {
			return ""
		}
		return strings.TrimSpace(strings.TrimRight(reader.Attribute(idx), "\x00"))
	}

	var regions []spatial.Region
	var skipped int
	row := 0
	for reader.Next() {
		n, shape := reader.Shape()
		row = n

		poly, ok := shape.(*shp.Polygon)
		if !ok || len(poly.Points) < 4 {
			skipped++
			continue
		}
		ring := make(geopkg.Ring, 0, len(poly.Points))
		// Only the outer ring; holes are not meaningful at this resolution.
		end := len(poly.Points)
		if len(poly.Parts) > 1 {
			end = int(poly.Parts[1])
		}
		for _, pt := range poly.Points[:end] {
			ring = append(ring, geopkg.Location{Lat: pt.Y, Lng: pt.X})
		}
		if ring[0] != ring[len(ring)-1] {
			ring = append(ring, ring[0])
		}
		if err := ring.Validate(); err != nil {
			skipped++
			zap.L().Warn("dataset: skipping shapefile region",
				zap.Int("record", row), zap.Error(err))
			continue
		}

		id := attr(fields.ID)
		if id == "" {
			id = fmt.Sprintf("shp-%d", row)
		}
		regions = append(regions, spatial.Region{
			ID:       id,
			Name:     attr(fields.Name),
			Boundary: ring,
			Attributes: map[string]float64{
				spatial.AttrPopulation:      parseFloat(attr(fields.Population)),
				spatial.AttrYoungPopulation: parseFloat(attr(fields.Young)),
				spatial.AttrIncomeTier:      parseFloat(attr(fields.Income)),
				spatial.AttrGrowthRate:      parseFloat(attr(fields.Growth)),
			},
		})
	}

	if skipped > 0 {
		zap.L().Info("dataset: skipped shapefile records",
			zap.String("path", path), zap.Int("skipped", skipped))
	}
	return regions, nil
}

// Package dataset builds spatial index snapshots from external sources: a
// PostGIS database, shapefiles, GeoJSON files, and YAML city fixtures.
package dataset

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"

	geopkg "github.com/urbansight/geocore/internal/geo"
	"github.com/urbansight/geocore/internal/spatial"
)

// DB is the database surface the loader needs. *pgxpool.Pool satisfies it, as
// does a pgxmock pool in tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PGLoader reads POIs, demographic regions, and business zones out of
// PostGIS. Geometry columns come back as WKB.
type PGLoader struct {
	db DB
}

// NewPGLoader returns a loader over db.
func NewPGLoader(db DB) *PGLoader {
	return &PGLoader{db: db}
}

const poiQuery = `
SELECT id, name, category, COALESCE(rating, 0), ST_AsBinary(location)
FROM points_of_interest`

const regionQuery = `
SELECT id, region_name, population, young_population,
       COALESCE(income_tier, 0), COALESCE(growth_rate, 0),
       ST_AsBinary(boundary)
FROM demographics`

const businessZoneQuery = `
SELECT id, name, ST_AsBinary(center)
FROM business_zones`

// LoadPOIs reads every point of interest. Rows with undecodable geometry are
// skipped with a logged warning.
func (l *PGLoader) LoadPOIs(ctx context.Context) ([]spatial.POI, error) {
	rows, err := l.db.Query(ctx, poiQuery)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: query points_of_interest")
	}
	defer rows.Close()

	var pois []spatial.POI
	var skipped int
	for rows.Next() {
		var p spatial.POI
		var wkb []byte
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Rating, &wkb); err != nil {
			return nil, eris.Wrap(err, "dataset: scan poi row")
		}
		loc, err := decodePoint(wkb)
		if err != nil {
			skipped++
			zap.L().Warn("dataset: skipping POI with bad geometry",
				zap.String("poi_id", p.ID), zap.Error(err))
			continue
		}
		p.Location = loc
		pois = append(pois, p)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "dataset: iterate poi rows")
	}
	if skipped > 0 {
		zap.L().Info("dataset: skipped POI rows", zap.Int("skipped", skipped))
	}
	return pois, nil
}

// LoadRegions reads every demographic region.
func (l *PGLoader) LoadRegions(ctx context.Context) ([]spatial.Region, error) {
	rows, err := l.db.Query(ctx, regionQuery)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: query demographics")
	}
	defer rows.Close()

	var regions []spatial.Region
	var skipped int
	for rows.Next() {
		var r spatial.Region
		var population, young, income, growth float64
		var wkb []byte
		if err := rows.Scan(&r.ID, &r.Name, &population, &young, &income, &growth, &wkb); err != nil {
			return nil, eris.Wrap(err, "dataset: scan region row")
		}
		ring, err := decodePolygon(wkb)
		if err != nil {
			skipped++
			zap.L().Warn("dataset: skipping region with bad geometry",
				zap.String("region_id", r.ID), zap.Error(err))
			continue
		}
		r.Boundary = ring
		r.Attributes = map[string]float64{
			spatial.AttrPopulation:      population,
			spatial.AttrYoungPopulation: young,
			spatial.AttrIncomeTier:      income,
			spatial.AttrGrowthRate:      growth,
		}
		regions = append(regions, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "dataset: iterate region rows")
	}
	if skipped > 0 {
		zap.L().Info("dataset: skipped region rows", zap.Int("skipped", skipped))
	}
	return regions, nil
}

// LoadBusinessZones reads business zone centers as POIs in the
// business-center category so the suitability scorer can count them.
func (l *PGLoader) LoadBusinessZones(ctx context.Context) ([]spatial.POI, error) {
	rows, err := l.db.Query(ctx, businessZoneQuery)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: query business_zones")
	}
	defer rows.Close()

	var pois []spatial.POI
	for rows.Next() {
		var p spatial.POI
		var wkb []byte
		if err := rows.Scan(&p.ID, &p.Name, &wkb); err != nil {
			return nil, eris.Wrap(err, "dataset: scan business zone row")
		}
		loc, err := decodePoint(wkb)
		if err != nil {
			zap.L().Warn("dataset: skipping business zone with bad geometry",
				zap.String("zone_id", p.ID), zap.Error(err))
			continue
		}
		p.Location = loc
		p.Category = "business_center"
		pois = append(pois, p)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "dataset: iterate business zone rows")
	}
	return pois, nil
}

// Refresh loads everything and swaps it into the index in one rebuild.
func (l *PGLoader) Refresh(ctx context.Context, index *spatial.Index) (spatial.RebuildStats, error) {
	pois, err := l.LoadPOIs(ctx)
	if err != nil {
		return spatial.RebuildStats{}, err
	}
	zones, err := l.LoadBusinessZones(ctx)
	if err != nil {
		return spatial.RebuildStats{}, err
	}
	regions, err := l.LoadRegions(ctx)
	if err != nil {
		return spatial.RebuildStats{}, err
	}
	return index.Rebuild(append(pois, zones...), regions), nil
}

func decodePoint(data []byte) (geopkg.Location, error) {
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return geopkg.Location{}, eris.Wrap(err, "dataset: decode point wkb")
	}
	pt, ok := g.(*geom.Point)
	if !ok {
		return geopkg.Location{}, eris.Errorf("dataset: expected point geometry, got %T", g)
	}
	loc := geopkg.Location{Lat: pt.Y(), Lng: pt.X()}
	if err := loc.Validate(); err != nil {
		return geopkg.Location{}, err
	}
	return loc, nil
}

func decodePolygon(data []byte) (geopkg.Ring, error) {
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: decode polygon wkb")
	}
	poly, ok := g.(*geom.Polygon)
	if !ok {
		return nil, eris.Errorf("dataset: expected polygon geometry, got %T", g)
	}
	return geopkg.RingFromGeomPolygon(poly)
}

package dataset

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/urbansight/geocore/internal/spatial"
)

func pointWKB(t *testing.T, lng, lat float64) []byte {
	t.Helper()
	data, err := ewkb.Marshal(geom.NewPointFlat(geom.XY, []float64{lng, lat}), binary.LittleEndian)
	require.NoError(t, err)
	return data
}

func polygonWKB(t *testing.T, coords [][]geom.Coord) []byte {
	t.Helper()
	poly := geom.NewPolygon(geom.XY)
	_, err := poly.SetCoords(coords)
	require.NoError(t, err)
	data, err := ewkb.Marshal(poly, binary.LittleEndian)
	require.NoError(t, err)
	return data
}

func TestLoadPOIs(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("FROM points_of_interest").WillReturnRows(
		pgxmock.NewRows([]string{"id", "name", "category", "rating", "geom"}).
			AddRow("poi-1", "Mercado Central", "supermarket", 4.5, pointWKB(t, -51.2177, -30.0346)).
			AddRow("poi-2", "Farmacia Sul", "pharmacy", 0.0, pointWKB(t, -51.21, -30.03)).
			AddRow("poi-bad", "Broken", "cafe", 0.0, []byte{0x01, 0x02}),
	)

	pois, err := NewPGLoader(mock).LoadPOIs(context.Background())
	require.NoError(t, err)
	require.Len(t, pois, 2)
	assert.Equal(t, "poi-1", pois[0].ID)
	assert.Equal(t, "supermarket", pois[0].Category)
	assert.InDelta(t, -30.0346, pois[0].Location.Lat, 1e-9)
	assert.InDelta(t, -51.2177, pois[0].Location.Lng, 1e-9)
	assert.InDelta(t, 4.5, pois[0].Rating, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadRegions(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	boundary := polygonWKB(t, [][]geom.Coord{{
		{-51.23, -30.04}, {-51.20, -30.04}, {-51.20, -30.02}, {-51.23, -30.02}, {-51.23, -30.04},
	}})
	mock.ExpectQuery("FROM demographics").WillReturnRows(
		pgxmock.NewRows([]string{"id", "region_name", "population", "young_population", "income_tier", "growth_rate", "geom"}).
			AddRow("reg-1", "Centro", 42000.0, 9000.0, 3.0, 1.2, boundary),
	)

	regions, err := NewPGLoader(mock).LoadRegions(context.Background())
	require.NoError(t, err)
	require.Len(t, regions, 1)

	r := regions[0]
	assert.Equal(t, "Centro", r.Name)
	assert.Equal(t, 42000.0, r.Attribute(spatial.AttrPopulation))
	assert.Equal(t, 9000.0, r.Attribute(spatial.AttrYoungPopulation))
	assert.Equal(t, 1.2, r.Attribute(spatial.AttrGrowthRate))
	require.NoError(t, r.Boundary.Validate())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadBusinessZonesBecomeCenterPOIs(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("FROM business_zones").WillReturnRows(
		pgxmock.NewRows([]string{"id", "name", "geom"}).
			AddRow("bz-1", "Distrito Financeiro", pointWKB(t, -51.21, -30.03)),
	)

	zones, err := NewPGLoader(mock).LoadBusinessZones(context.Background())
	require.NoError(t, err)
	require.Len(t, zones, 1)
	assert.Equal(t, "business_center", zones[0].Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshRebuildsIndex(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("FROM points_of_interest").WillReturnRows(
		pgxmock.NewRows([]string{"id", "name", "category", "rating", "geom"}).
			AddRow("poi-1", "Cafe Gaucho", "cafe", 4.0, pointWKB(t, -51.2177, -30.0346)),
	)
	mock.ExpectQuery("FROM business_zones").WillReturnRows(
		pgxmock.NewRows([]string{"id", "name", "geom"}).
			AddRow("bz-1", "Centro Comercial", pointWKB(t, -51.2170, -30.0340)),
	)
	boundary := polygonWKB(t, [][]geom.Coord{{
		{-51.23, -30.04}, {-51.20, -30.04}, {-51.20, -30.02}, {-51.23, -30.02}, {-51.23, -30.04},
	}})
	mock.ExpectQuery("FROM demographics").WillReturnRows(
		pgxmock.NewRows([]string{"id", "region_name", "population", "young_population", "income_tier", "growth_rate", "geom"}).
			AddRow("reg-1", "Centro", 42000.0, 9000.0, 3.0, 1.2, boundary),
	)

	ix := spatial.NewIndex(0)
	stats, err := NewPGLoader(mock).Refresh(context.Background(), ix)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.POIs)
	assert.Equal(t, 1, stats.Regions)
	assert.True(t, ix.Ready())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadPOIsQueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("FROM points_of_interest").WillReturnError(assert.AnError)

	_, err = NewPGLoader(mock).LoadPOIs(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "points_of_interest")
}

package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbansight/geocore/internal/geo"
	"github.com/urbansight/geocore/internal/geoerr"
)

var center = geo.Location{Lat: -30.0346, Lng: -51.2177}

// testPOIs spreads a handful of POIs around Porto Alegre's center at known
// offsets. 0.001 deg of latitude is ~111 m.
func testPOIs() []POI {
	return []POI{
		{ID: "poi-1", Name: "Mercado Central", Category: "supermarket", Location: geo.Location{Lat: -30.0346, Lng: -51.2177}},
		{ID: "poi-2", Name: "Farmacia Sul", Category: "pharmacy", Location: geo.Location{Lat: -30.0356, Lng: -51.2177}},
		{ID: "poi-3", Name: "Hospital Moinhos", Category: "hospital", Location: geo.Location{Lat: -30.0256, Lng: -51.2087}},
		{ID: "poi-4", Name: "Cafe Gaucho", Category: "cafe", Location: geo.Location{Lat: -30.0348, Lng: -51.2180}},
		{ID: "poi-5", Name: "Cafe Norte", Category: "cafe", Location: geo.Location{Lat: -30.0446, Lng: -51.2277}},
		{ID: "poi-6", Name: "Escola Estadual", Category: "school", Location: geo.Location{Lat: -30.1346, Lng: -51.3177}},
	}
}

func testRegions() []Region {
	square := func(lat, lng, half float64) geo.Ring {
		return geo.Ring{
			{Lat: lat - half, Lng: lng - half},
			{Lat: lat - half, Lng: lng + half},
			{Lat: lat + half, Lng: lng + half},
			{Lat: lat + half, Lng: lng - half},
			{Lat: lat - half, Lng: lng - half},
		}
	}
	return []Region{
		{ID: "reg-centro", Name: "Centro", Boundary: square(-30.0346, -51.2177, 0.01),
			Attributes: map[string]float64{AttrPopulation: 42000, AttrYoungPopulation: 9000}},
		{ID: "reg-zona-sul", Name: "Zona Sul", Boundary: square(-30.12, -51.24, 0.02),
			Attributes: map[string]float64{AttrPopulation: 81000}},
	}
}

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	ix := NewIndex(0)
	stats := ix.Rebuild(testPOIs(), testRegions())
	require.Equal(t, 6, stats.POIs)
	require.Equal(t, 2, stats.Regions)
	return ix
}

func TestIndexRebuildSkipsInvalidRecords(t *testing.T) {
	ix := NewIndex(0.01)
	pois := append(testPOIs(),
		POI{ID: "poi-bad", Category: "cafe", Location: geo.Location{Lat: 91, Lng: 0}},
	)
	regions := append(testRegions(),
		Region{ID: "reg-open", Boundary: geo.Ring{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 1}, {Lat: 1, Lng: 1}, {Lat: 1, Lng: 0}}},
	)
	stats := ix.Rebuild(pois, regions)

	assert.Equal(t, 6, stats.POIs)
	assert.Equal(t, 1, stats.SkippedPOIs)
	assert.Equal(t, 2, stats.Regions)
	assert.Equal(t, 1, stats.SkippedRegions)
	assert.True(t, ix.Ready())
	assert.Equal(t, int64(1), ix.Version())
}

func TestIndexRebuildBumpsVersion(t *testing.T) {
	ix := newTestIndex(t)
	v1 := ix.Version()
	ix.Rebuild(testPOIs(), nil)
	assert.Equal(t, v1+1, ix.Version())
	assert.Empty(t, ix.Regions())
}

func TestWithinRadius(t *testing.T) {
	ix := newTestIndex(t)

	tests := []struct {
		name     string
		radius   float64
		category string
		wantIDs  []string
	}{
		{
			name:    "tight radius all categories",
			radius:  150,
			wantIDs: []string{"poi-1", "poi-4", "poi-2"},
		},
		{
			name:     "category filter",
			radius:   2000,
			category: "cafe",
			wantIDs:  []string{"poi-4", "poi-5"},
		},
		{
			name:     "no matches is not an error",
			radius:   100,
			category: "hospital",
			wantIDs:  []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ix.WithinRadius(center, tt.radius, tt.category)
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, p := range got {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestWithinRadiusOrdersByDistanceThenID(t *testing.T) {
	ix := NewIndex(0.01)
	// Two POIs at the exact same spot must come back in ID order.
	ix.Rebuild([]POI{
		{ID: "b", Category: "cafe", Location: geo.Location{Lat: -30.035, Lng: -51.218}},
		{ID: "a", Category: "cafe", Location: geo.Location{Lat: -30.035, Lng: -51.218}},
	}, nil)

	got, err := ix.WithinRadius(center, 500, "cafe")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
}

func TestWithinRadiusWrapsAntimeridian(t *testing.T) {
	ix := NewIndex(0.01)
	// ~2.2 km apart across the 180th meridian at the equator.
	ix.Rebuild([]POI{
		{ID: "east", Category: "cafe", Location: geo.Location{Lat: 0, Lng: 179.99}},
		{ID: "west", Category: "cafe", Location: geo.Location{Lat: 0, Lng: -179.99}},
	}, nil)

	got, err := ix.WithinRadius(geo.Location{Lat: 0, Lng: 179.995}, 3000, "cafe")
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Same query from the western side.
	got, err = ix.WithinRadius(geo.Location{Lat: 0, Lng: -179.995}, 3000, "cafe")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestWithinRadiusRejectsBadInput(t *testing.T) {
	ix := newTestIndex(t)

	_, err := ix.WithinRadius(center, 0, "")
	require.Error(t, err)
	assert.True(t, geoerr.IsInvalidInput(err))

	_, err = ix.WithinRadius(geo.Location{Lat: 100, Lng: 0}, 100, "")
	require.Error(t, err)
	assert.True(t, geoerr.IsInvalidInput(err))
}

func TestCountWithinRadius(t *testing.T) {
	ix := newTestIndex(t)

	n, err := ix.CountWithinRadius(center, 2000, "cafe")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = ix.CountWithinRadius(center, 2000, "")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestNearest(t *testing.T) {
	ix := newTestIndex(t)

	got, err := ix.Nearest(center, "cafe", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "poi-4", got[0].ID)

	got, err = ix.Nearest(center, "", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{got[0].ID, got[1].ID, got[2].ID}, []string{"poi-1", "poi-4", "poi-2"})

	// Asking for more than exist returns what exists.
	got, err = ix.Nearest(center, "hospital", 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = ix.Nearest(center, "", 0)
	require.Error(t, err)
	assert.True(t, geoerr.IsInvalidInput(err))
}

func TestRegionContaining(t *testing.T) {
	ix := newTestIndex(t)

	r, ok := ix.RegionContaining(center)
	require.True(t, ok)
	assert.Equal(t, "reg-centro", r.ID)
	assert.Equal(t, 42000.0, r.Attribute(AttrPopulation))

	_, ok = ix.RegionContaining(geo.Location{Lat: 10, Lng: 10})
	assert.False(t, ok)
}

func TestRegionContainingPrefersSmallestID(t *testing.T) {
	ix := NewIndex(0.01)
	big := geo.Ring{
		{Lat: -31, Lng: -52}, {Lat: -31, Lng: -50}, {Lat: -29, Lng: -50}, {Lat: -29, Lng: -52}, {Lat: -31, Lng: -52},
	}
	ix.Rebuild(nil, []Region{
		{ID: "reg-b", Boundary: big},
		{ID: "reg-a", Boundary: big},
	})
	r, ok := ix.RegionContaining(center)
	require.True(t, ok)
	assert.Equal(t, "reg-a", r.ID)
}

func TestEmptyIndexQueries(t *testing.T) {
	ix := NewIndex(0.01)
	assert.False(t, ix.Ready())

	got, err := ix.WithinRadius(center, 1000, "")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, ok := ix.RegionContaining(center)
	assert.False(t, ok)
}

package geo

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvexHull_Square(t *testing.T) {
	pts := []Location{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 1},
		{Lat: 1, Lng: 1},
		{Lat: 1, Lng: 0},
		{Lat: 0.5, Lng: 0.5}, // interior point must be dropped
	}

	hull := ConvexHull(pts)
	require.NoError(t, hull.Validate())
	assert.Len(t, hull, 5) // 4 corners + closing vertex
	assert.True(t, hull.Contains(Location{Lat: 0.5, Lng: 0.5}))
	assert.False(t, hull.Contains(Location{Lat: 1.5, Lng: 0.5}))
}

func TestConvexHull_OrderInvariant(t *testing.T) {
	base := []Location{
		{Lat: 0, Lng: 0}, {Lat: 0, Lng: 2}, {Lat: 2, Lng: 2},
		{Lat: 2, Lng: 0}, {Lat: 1, Lng: 1}, {Lat: 0.3, Lng: 1.7},
	}
	expected := ConvexHull(base)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		shuffled := make([]Location, len(base))
		copy(shuffled, base)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, expected, ConvexHull(shuffled))
	}
}

func TestConvexHull_Degenerate(t *testing.T) {
	assert.Nil(t, ConvexHull(nil))
	assert.Nil(t, ConvexHull([]Location{{Lat: 1, Lng: 1}}))
	assert.Nil(t, ConvexHull([]Location{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}))
	// Collinear points have no polygon hull.
	assert.Nil(t, ConvexHull([]Location{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}))
	// Duplicates collapse.
	assert.Nil(t, ConvexHull([]Location{{Lat: 1, Lng: 1}, {Lat: 1, Lng: 1}, {Lat: 1, Lng: 1}}))
}

func TestRingGeomRoundTrip(t *testing.T) {
	ring := squareRing(-30, -51, 0.01)

	poly, err := ring.ToGeomPolygon()
	require.NoError(t, err)
	assert.Equal(t, 4326, poly.SRID())

	back, err := RingFromGeomPolygon(poly)
	require.NoError(t, err)
	assert.Equal(t, ring, back)
}

func TestMarshalGeoJSON(t *testing.T) {
	ring := squareRing(-30, -51, 0.01)
	data, err := ring.MarshalGeoJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"Polygon"`)
}

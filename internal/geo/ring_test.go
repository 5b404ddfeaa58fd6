package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbansight/geocore/internal/geoerr"
)

func squareRing(lat, lng, half float64) Ring {
	return Ring{
		{Lat: lat - half, Lng: lng - half},
		{Lat: lat - half, Lng: lng + half},
		{Lat: lat + half, Lng: lng + half},
		{Lat: lat + half, Lng: lng - half},
		{Lat: lat - half, Lng: lng - half},
	}
}

func TestRingValidate(t *testing.T) {
	tests := []struct {
		name    string
		ring    Ring
		wantErr bool
	}{
		{"valid square", squareRing(-30, -51, 0.01), false},
		{"too few points", Ring{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}, {Lat: 0, Lng: 0}}, true},
		{"not closed", Ring{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 1}, {Lat: 1, Lng: 1}, {Lat: 1, Lng: 0}}, true},
		{"bowtie self-intersection", Ring{
			{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}, {Lat: 1, Lng: 0}, {Lat: 0, Lng: 1}, {Lat: 0, Lng: 0},
		}, true},
		{"bad coordinate", Ring{
			{Lat: 0, Lng: 0}, {Lat: 0, Lng: 200}, {Lat: 1, Lng: 1}, {Lat: 0, Lng: 0},
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ring.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, geoerr.IsDataIntegrity(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRingContains(t *testing.T) {
	ring := squareRing(-30, -51, 0.05)

	assert.True(t, ring.Contains(Location{Lat: -30, Lng: -51}))
	assert.True(t, ring.Contains(Location{Lat: -30.04, Lng: -51.04}))
	assert.False(t, ring.Contains(Location{Lat: -30.06, Lng: -51}))
	assert.False(t, ring.Contains(Location{Lat: -29, Lng: -51}))
}

func TestRingApproxArea(t *testing.T) {
	// 0.01° half-width square at the equator: ~2.22 km per side.
	ring := squareRing(0, 0, 0.01)
	area := ring.ApproxAreaSqMeters()

	side := 0.02 * 111195.0
	assert.InDelta(t, side*side, area, side*side*0.01)
}

func TestDisk(t *testing.T) {
	center := Location{Lat: -30.0346, Lng: -51.2177}
	ring := Disk(center, 50, 16)

	require.NoError(t, ring.Validate())
	assert.Len(t, ring, 17)
	assert.True(t, ring.Contains(center))

	for _, p := range ring[:16] {
		assert.InDelta(t, 50, Haversine(center, p), 0.5)
	}
}

// Package travel estimates point-to-point travel times. A Provider may be a
// live matrix API or the built-in geometric fallback; Failover chains them so
// callers always get an estimate, flagged approximate when degraded.
package travel

import (
	"strings"

	"github.com/urbansight/geocore/internal/geoerr"
)

// Mode is a supported travel mode.
type Mode string

const (
	ModeWalking   Mode = "walking"
	ModeBicycling Mode = "bicycling"
	ModeTransit   Mode = "transit"
	ModeDriving   Mode = "driving"
)

// speedsKmh are the straight-line fallback speeds per mode.
var speedsKmh = map[Mode]float64{
	ModeWalking:   5,
	ModeBicycling: 15,
	ModeTransit:   25,
	ModeDriving:   40,
}

// ParseMode normalizes s into a Mode, accepting any casing. Unknown modes are
// an invalid-input error listing the accepted values.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := speedsKmh[m]; !ok {
		return "", geoerr.InvalidInputf(
			"travel: unknown mode %q, want one of walking, bicycling, transit, driving", s)
	}
	return m, nil
}

// SpeedKmh returns the fallback straight-line speed for the mode, or 0 for an
// unknown mode.
func (m Mode) SpeedKmh() float64 {
	return speedsKmh[m]
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	_, ok := speedsKmh[m]
	return ok
}

// Package suitability ranks candidate regions for opening a new site,
// combining demographics, competitor scarcity, and proximity to business
// centers into a weighted composite score.
package suitability

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
)

// Config is the scoring configuration surface. Weights are fractions of the
// composite; they must be non-negative and sum to ~1.
type Config struct {
	// Weights (sum = 1).
	DemographicWeight float64 `mapstructure:"demographic_weight" yaml:"demographic_weight"`
	ScarcityWeight    float64 `mapstructure:"scarcity_weight" yaml:"scarcity_weight"`
	ProximityWeight   float64 `mapstructure:"proximity_weight" yaml:"proximity_weight"`

	// Search radii in meters.
	CompetitorRadiusMeters float64 `mapstructure:"competitor_radius_meters" yaml:"competitor_radius_meters"`
	BusinessRadiusMeters   float64 `mapstructure:"business_radius_meters" yaml:"business_radius_meters"`

	// CompetitorCategory filters the competitor count to one POI category.
	// Empty counts every POI as a competitor.
	CompetitorCategory string `mapstructure:"competitor_category" yaml:"competitor_category"`

	// MinDemographicRatio excludes regions whose young-population share is
	// below this fraction. Zero disables the filter.
	MinDemographicRatio float64 `mapstructure:"min_demographic_ratio" yaml:"min_demographic_ratio"`
}

// DefaultConfig returns the standard weighting: demographics 0.4, competitor
// scarcity 0.3, business proximity 0.3, competitors counted within 500 m.
func DefaultConfig() Config {
	return Config{
		DemographicWeight:      0.4,
		ScarcityWeight:         0.3,
		ProximityWeight:        0.3,
		CompetitorRadiusMeters: 500,
		BusinessRadiusMeters:   1000,
	}
}

// WeightSum returns the sum of the component weights.
func (c Config) WeightSum() float64 {
	return c.DemographicWeight + c.ScarcityWeight + c.ProximityWeight
}

// Validate checks that the config is internally consistent.
func (c Config) Validate() error {
	var errs []string

	weights := map[string]float64{
		"demographic_weight": c.DemographicWeight,
		"scarcity_weight":    c.ScarcityWeight,
		"proximity_weight":   c.ProximityWeight,
	}
	for name, w := range weights {
		if w < 0 || math.IsNaN(w) {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}

	sum := c.WeightSum()
	if sum <= 0 {
		errs = append(errs, "weight sum must be > 0")
	} else if math.Abs(sum-1) > 0.01 {
		errs = append(errs, fmt.Sprintf("weights should sum to 1, got %.3f", sum))
	}

	if c.CompetitorRadiusMeters <= 0 {
		errs = append(errs, "competitor_radius_meters must be > 0")
	}
	if c.BusinessRadiusMeters <= 0 {
		errs = append(errs, "business_radius_meters must be > 0")
	}
	if c.MinDemographicRatio < 0 || c.MinDemographicRatio > 1 {
		errs = append(errs, "min_demographic_ratio must be between 0 and 1")
	}

	if len(errs) > 0 {
		return eris.Errorf("suitability: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

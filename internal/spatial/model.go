// Package spatial owns the in-memory POI/region dataset and answers radius,
// nearest-neighbor, and containment queries against an immutable snapshot.
package spatial

import "github.com/urbansight/geocore/internal/geo"

// POI is a point of interest: a categorized point record with an optional
// 0-5 rating.
type POI struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Location geo.Location `json:"location"`
	Category string       `json:"category"`
	Rating   float64      `json:"rating,omitempty"`
}

// Region is a named polygon with numeric attributes (population,
// young_population, income tier, growth rate, ...).
type Region struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Boundary   geo.Ring           `json:"boundary"`
	Attributes map[string]float64 `json:"attributes,omitempty"`
}

// Attribute returns the named attribute or 0 when absent.
func (r Region) Attribute(key string) float64 {
	return r.Attributes[key]
}

// Centroid returns the centroid of the region boundary.
func (r Region) Centroid() geo.Location {
	return r.Boundary.Centroid()
}

// Well-known attribute keys used by the suitability scorer.
const (
	AttrPopulation      = "population"
	AttrYoungPopulation = "young_population"
	AttrIncomeTier      = "income_tier"
	AttrGrowthRate      = "growth_rate"
)

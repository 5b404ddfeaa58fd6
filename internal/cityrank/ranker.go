// Package cityrank compares candidate cities for a business expansion.
// Metrics are min-max normalized against the compared set, so a score only
// says how a city stands among its peers, never on an absolute scale.
package cityrank

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/urbansight/geocore/internal/geoerr"
)

// CityMetrics is the per-city input record.
type CityMetrics struct {
	Name              string             `json:"name" yaml:"name"`
	Population        float64            `json:"population" yaml:"population"`
	AverageIncome     float64            `json:"average_income" yaml:"average_income"`
	GDPPerCapita      float64            `json:"gdp_per_capita" yaml:"gdp_per_capita"`
	CompetitorDensity float64            `json:"competitor_density" yaml:"competitor_density"`
	GrowthRate        float64            `json:"growth_rate" yaml:"growth_rate"`
	Signals           map[string]float64 `json:"signals,omitempty" yaml:"signals,omitempty"`
}

// Weights is the per-metric weight configuration. Fractions of the composite,
// non-negative, summing to ~1. CompetitorDensity is inverse-weighted: denser
// competition lowers the score.
type Weights struct {
	Population        float64 `mapstructure:"population" yaml:"population"`
	AverageIncome     float64 `mapstructure:"average_income" yaml:"average_income"`
	GDPPerCapita      float64 `mapstructure:"gdp_per_capita" yaml:"gdp_per_capita"`
	CompetitorDensity float64 `mapstructure:"competitor_density" yaml:"competitor_density"`
	GrowthRate        float64 `mapstructure:"growth_rate" yaml:"growth_rate"`
}

// DefaultWeights returns the standard metric weighting.
func DefaultWeights() Weights {
	return Weights{
		Population:        0.25,
		AverageIncome:     0.20,
		GDPPerCapita:      0.20,
		CompetitorDensity: 0.20,
		GrowthRate:        0.15,
	}
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Population + w.AverageIncome + w.GDPPerCapita + w.CompetitorDensity + w.GrowthRate
}

// Validate checks that the weights are usable.
func (w Weights) Validate() error {
	var errs []string
	fields := map[string]float64{
		"population":         w.Population,
		"average_income":     w.AverageIncome,
		"gdp_per_capita":     w.GDPPerCapita,
		"competitor_density": w.CompetitorDensity,
		"growth_rate":        w.GrowthRate,
	}
	for name, v := range fields {
		if v < 0 || math.IsNaN(v) {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}
	sum := w.Sum()
	if sum <= 0 {
		errs = append(errs, "weight sum must be > 0")
	} else if math.Abs(sum-1) > 0.01 {
		errs = append(errs, fmt.Sprintf("weights should sum to 1, got %.3f", sum))
	}
	if len(errs) > 0 {
		return eris.Errorf("cityrank: weight validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// signalWeight is the weight of the business-signal metric when the requested
// business type maps to one, e.g. food_culture for a restaurant. It joins the
// weighted sum for every city, so a city missing the signal is penalized
// relative to one carrying it.
const signalWeight = 0.1

// businessSignals maps a business type to the metric signal it favors.
var businessSignals = map[string]string{
	"restaurant": "food_culture",
	"cafe":       "food_culture",
	"retail":     "foot_traffic",
	"gym":        "health_awareness",
}

// Medal labels for the top three ranks.
var medals = [3]string{"gold", "silver", "bronze"}

// CityRank is one ranked city.
type CityRank struct {
	Rank            int                `json:"rank"`
	Name            string             `json:"name"`
	Score           float64            `json:"score"`
	Medal           string             `json:"medal,omitempty"`
	ComponentScores map[string]float64 `json:"component_scores"`
	Recommendation  string             `json:"recommendation"`
}

// Comparison is the full ranking result.
type Comparison struct {
	Cities       []CityRank `json:"cities"`
	BusinessType string     `json:"business_type,omitempty"`
	GeneratedAt  time.Time  `json:"generated_at"`
}

// Ranker scores and ranks cities.
type Ranker struct {
	workers int
}

// NewRanker returns a Ranker. Workers bounds per-city scoring concurrency.
func NewRanker(workers int) *Ranker {
	if workers < 1 {
		workers = 1
	}
	return &Ranker{workers: workers}
}

// Compare ranks the cities under the given weights. businessType may be empty.
// The result is order-invariant: permuting the input produces the same ranks
// for the same cities. Ties are broken by city name ascending.
func (r *Ranker) Compare(cities []CityMetrics, weights Weights, businessType string) (*Comparison, error) {
	if len(cities) < 2 {
		return nil, geoerr.InvalidInputf("cityrank: need at least 2 cities, got %d", len(cities))
	}
	if err := weights.Validate(); err != nil {
		return nil, geoerr.Wrap(geoerr.KindInvalidInput, err, "cityrank: weights")
	}
	seen := map[string]bool{}
	for _, c := range cities {
		if c.Name == "" {
			return nil, geoerr.InvalidInputf("cityrank: city with empty name")
		}
		if seen[c.Name] {
			return nil, geoerr.InvalidInputf("cityrank: duplicate city %q", c.Name)
		}
		seen[c.Name] = true
	}

	norm := normalizer(cities)
	ranked := make([]CityRank, len(cities))

	g := new(errgroup.Group)
	g.SetLimit(r.workers)
	for i, city := range cities {
		i, city := i, city
		g.Go(func() error {
			ranked[i] = r.scoreCity(city, weights, norm, businessType)
			return nil
		})
	}
	// Scoring is pure; the group exists to bound fan-out on large inputs.
	_ = g.Wait()

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Name < ranked[j].Name
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
		if i < len(medals) {
			ranked[i].Medal = medals[i]
		}
		ranked[i].Recommendation = recommendation(ranked[i].Name, ranked[i].Score)
	}

	zap.L().Debug("cityrank: comparison complete",
		zap.Int("cities", len(ranked)),
		zap.String("business_type", businessType),
		zap.String("winner", ranked[0].Name))
	return &Comparison{
		Cities:       ranked,
		BusinessType: businessType,
		GeneratedAt:  time.Now().UTC(),
	}, nil
}

type metricRange struct{ min, max float64 }

// normalize maps v onto [0,1] within the range. A degenerate range (all
// cities equal) maps to 0.5 so the metric neither rewards nor punishes.
func (m metricRange) normalize(v float64) float64 {
	if m.max == m.min {
		return 0.5
	}
	return (v - m.min) / (m.max - m.min)
}

type ranges struct {
	population metricRange
	income     metricRange
	gdp        metricRange
	density    metricRange
	growth     metricRange
}

func normalizer(cities []CityMetrics) ranges {
	span := func(get func(CityMetrics) float64) metricRange {
		mr := metricRange{min: get(cities[0]), max: get(cities[0])}
		for _, c := range cities[1:] {
			v := get(c)
			mr.min = math.Min(mr.min, v)
			mr.max = math.Max(mr.max, v)
		}
		return mr
	}
	return ranges{
		population: span(func(c CityMetrics) float64 { return c.Population }),
		income:     span(func(c CityMetrics) float64 { return c.AverageIncome }),
		gdp:        span(func(c CityMetrics) float64 { return c.GDPPerCapita }),
		density:    span(func(c CityMetrics) float64 { return c.CompetitorDensity }),
		growth:     span(func(c CityMetrics) float64 { return c.GrowthRate }),
	}
}

func (r *Ranker) scoreCity(city CityMetrics, w Weights, norm ranges, businessType string) CityRank {
	components := map[string]float64{
		"population":     norm.population.normalize(city.Population) * 100,
		"average_income": norm.income.normalize(city.AverageIncome) * 100,
		"gdp_per_capita": norm.gdp.normalize(city.GDPPerCapita) * 100,
		// Inverse: the densest market scores 0, the emptiest 100.
		"competitor_scarcity": (1 - norm.density.normalize(city.CompetitorDensity)) * 100,
		"growth_rate":         norm.growth.normalize(city.GrowthRate) * 100,
	}

	weighted := components["population"]*w.Population +
		components["average_income"]*w.AverageIncome +
		components["gdp_per_capita"]*w.GDPPerCapita +
		components["competitor_scarcity"]*w.CompetitorDensity +
		components["growth_rate"]*w.GrowthRate
	weightSum := w.Sum()

	if signal, ok := businessSignals[businessType]; ok {
		sv := math.Min(math.Max(city.Signals[signal], 0), 1) * 100
		components["business_signal"] = sv
		weighted += sv * signalWeight
		weightSum += signalWeight
	}

	return CityRank{Name: city.Name, Score: weighted / weightSum, ComponentScores: components}
}

// recommendation renders a short verdict per score band.
func recommendation(name string, score float64) string {
	switch {
	case score >= 85:
		return fmt.Sprintf("%s is an excellent market: strong fundamentals across the board.", name)
	case score >= 70:
		return fmt.Sprintf("%s is a good market with favorable conditions.", name)
	case score >= 60:
		return fmt.Sprintf("%s is a viable market, worth a closer look.", name)
	default:
		return fmt.Sprintf("%s shows weak fundamentals for this business; consider alternatives.", name)
	}
}

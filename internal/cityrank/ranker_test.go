package cityrank

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbansight/geocore/internal/geoerr"
)

func brazilianCities() []CityMetrics {
	return []CityMetrics{
		{
			Name: "Porto Alegre", Population: 1_480_000, AverageIncome: 3200,
			GDPPerCapita: 49_700, CompetitorDensity: 8.2, GrowthRate: 0.6,
			Signals: map[string]float64{"food_culture": 0.9},
		},
		{
			Name: "Curitiba", Population: 1_960_000, AverageIncome: 3400,
			GDPPerCapita: 47_800, CompetitorDensity: 7.1, GrowthRate: 0.9,
		},
		{
			Name: "Florianopolis", Population: 510_000, AverageIncome: 3900,
			GDPPerCapita: 45_200, CompetitorDensity: 9.8, GrowthRate: 1.8,
			Signals: map[string]float64{"food_culture": 0.4},
		},
		{
			Name: "Caxias do Sul", Population: 520_000, AverageIncome: 2900,
			GDPPerCapita: 43_100, CompetitorDensity: 4.3, GrowthRate: 0.7,
		},
	}
}

func TestDefaultWeightsAreValid(t *testing.T) {
	require.NoError(t, DefaultWeights().Validate())
	assert.InDelta(t, 1.0, DefaultWeights().Sum(), 0.001)
}

func TestCompareRanksAndMedals(t *testing.T) {
	cmp, err := NewRanker(4).Compare(brazilianCities(), DefaultWeights(), "")
	require.NoError(t, err)
	require.Len(t, cmp.Cities, 4)

	for i, c := range cmp.Cities {
		assert.Equal(t, i+1, c.Rank)
		assert.NotEmpty(t, c.Recommendation)
		if i > 0 {
			assert.GreaterOrEqual(t, cmp.Cities[i-1].Score, c.Score)
		}
	}
	assert.Equal(t, "gold", cmp.Cities[0].Medal)
	assert.Equal(t, "silver", cmp.Cities[1].Medal)
	assert.Equal(t, "bronze", cmp.Cities[2].Medal)
	assert.Empty(t, cmp.Cities[3].Medal)
}

func TestCompareIsOrderInvariant(t *testing.T) {
	base, err := NewRanker(2).Compare(brazilianCities(), DefaultWeights(), "restaurant")
	require.NoError(t, err)

	rankOf := map[string]int{}
	scoreOf := map[string]float64{}
	for _, c := range base.Cities {
		rankOf[c.Name] = c.Rank
		scoreOf[c.Name] = c.Score
	}

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 5; trial++ {
		shuffled := brazilianCities()
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		cmp, err := NewRanker(2).Compare(shuffled, DefaultWeights(), "restaurant")
		require.NoError(t, err)
		for _, c := range cmp.Cities {
			assert.Equal(t, rankOf[c.Name], c.Rank)
			assert.InDelta(t, scoreOf[c.Name], c.Score, 1e-9)
		}
	}
}

func TestCompareInverseCompetitorDensity(t *testing.T) {
	// Identical cities except competitor density: the sparse one must win.
	cities := []CityMetrics{
		{Name: "Dense", Population: 100, AverageIncome: 100, GDPPerCapita: 100, CompetitorDensity: 10, GrowthRate: 1},
		{Name: "Sparse", Population: 100, AverageIncome: 100, GDPPerCapita: 100, CompetitorDensity: 1, GrowthRate: 1},
	}
	cmp, err := NewRanker(1).Compare(cities, DefaultWeights(), "")
	require.NoError(t, err)
	assert.Equal(t, "Sparse", cmp.Cities[0].Name)
	assert.InDelta(t, 100, cmp.Cities[0].ComponentScores["competitor_scarcity"], 0.001)
	assert.InDelta(t, 0, cmp.Cities[1].ComponentScores["competitor_scarcity"], 0.001)
}

func TestCompareEqualMetricsNormalizeToMidpoint(t *testing.T) {
	cities := []CityMetrics{
		{Name: "Alpha", Population: 100, AverageIncome: 100, GDPPerCapita: 100, CompetitorDensity: 5, GrowthRate: 1},
		{Name: "Beta", Population: 100, AverageIncome: 100, GDPPerCapita: 100, CompetitorDensity: 5, GrowthRate: 1},
	}
	cmp, err := NewRanker(1).Compare(cities, DefaultWeights(), "")
	require.NoError(t, err)

	// Every metric degenerate: both cities land on 50, names break the tie.
	assert.InDelta(t, 50, cmp.Cities[0].Score, 0.001)
	assert.InDelta(t, 50, cmp.Cities[1].Score, 0.001)
	assert.Equal(t, "Alpha", cmp.Cities[0].Name)
	assert.Equal(t, 1, cmp.Cities[0].Rank)
}

func TestCompareBusinessSignalBonus(t *testing.T) {
	cities := []CityMetrics{
		{Name: "Foodie", Population: 100, AverageIncome: 100, GDPPerCapita: 100, CompetitorDensity: 5, GrowthRate: 1,
			Signals: map[string]float64{"food_culture": 1}},
		{Name: "Plain", Population: 100, AverageIncome: 100, GDPPerCapita: 100, CompetitorDensity: 5, GrowthRate: 1},
	}

	// Without a business type the signal is ignored and names decide.
	cmp, err := NewRanker(1).Compare(cities, DefaultWeights(), "")
	require.NoError(t, err)
	assert.Equal(t, "Foodie", cmp.Cities[0].Name) // alphabetical tie-break
	assert.InDelta(t, cmp.Cities[0].Score, cmp.Cities[1].Score, 0.001)

	// A restaurant comparison scores the food-culture signal as a sixth
	// metric at weight 0.1, with the weight sum renormalized over it: base
	// metrics all sit at 50, so Foodie lands at (50 + 100*0.1)/1.1 and
	// Plain at 50/1.1.
	cmp, err = NewRanker(1).Compare(cities, DefaultWeights(), "restaurant")
	require.NoError(t, err)
	assert.Equal(t, "Foodie", cmp.Cities[0].Name)
	assert.InDelta(t, 60.0/1.1, cmp.Cities[0].Score, 0.001)
	assert.InDelta(t, 50.0/1.1, cmp.Cities[1].Score, 0.001)
	assert.InDelta(t, 100, cmp.Cities[0].ComponentScores["business_signal"], 0.001)
	assert.InDelta(t, 0, cmp.Cities[1].ComponentScores["business_signal"], 0.001)
}

func TestCompareRecommendationBands(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{score: 90, want: "excellent market"},
		{score: 75, want: "good market"},
		{score: 62, want: "viable market"},
		{score: 30, want: "weak fundamentals"},
	}
	for _, tt := range tests {
		assert.Contains(t, recommendation("Testville", tt.score), tt.want)
	}
}

func TestCompareRejectsBadInput(t *testing.T) {
	r := NewRanker(1)

	tests := []struct {
		name    string
		cities  []CityMetrics
		weights Weights
	}{
		{name: "one city", cities: brazilianCities()[:1], weights: DefaultWeights()},
		{name: "empty name", cities: []CityMetrics{{Name: ""}, {Name: "B"}}, weights: DefaultWeights()},
		{name: "duplicate name", cities: []CityMetrics{{Name: "A"}, {Name: "A"}}, weights: DefaultWeights()},
		{name: "bad weights", cities: brazilianCities(), weights: Weights{Population: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Compare(tt.cities, tt.weights, "")
			require.Error(t, err)
			assert.True(t, geoerr.IsInvalidInput(err))
		})
	}
}

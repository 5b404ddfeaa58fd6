package suitability

import (
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/urbansight/geocore/internal/geoerr"
	"github.com/urbansight/geocore/internal/spatial"
)

// BusinessCenterCategory is the POI category counted by the
// business-proximity sub-score.
const BusinessCenterCategory = "business_center"

// Component score keys.
const (
	ComponentDemographic = "demographic"
	ComponentScarcity    = "competitor_scarcity"
	ComponentProximity   = "business_proximity"
)

// Result is the composite score for one candidate region.
type Result struct {
	RegionID        string             `json:"region_id"`
	RegionName      string             `json:"region_name"`
	Score           float64            `json:"score"`
	ComponentScores map[string]float64 `json:"component_scores"`
	CompetitorCount int                `json:"competitor_count"`
	BusinessCenters int                `json:"business_centers"`
}

// Report is a ranked suitability scan.
type Report struct {
	Results     []Result  `json:"results"`
	Skipped     int       `json:"skipped"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Scorer ranks candidate regions against POI density from the spatial index.
type Scorer struct {
	index *spatial.Index
}

// NewScorer returns a Scorer over the index.
func NewScorer(index *spatial.Index) *Scorer {
	return &Scorer{index: index}
}

// Score ranks the candidate regions. Regions with defective data (zero
// population, invalid boundary) are skipped with a logged warning; regions
// below the configured demographic threshold are excluded outright. Results
// are ordered by descending score, ties broken by region ID ascending.
func (s *Scorer) Score(regions []spatial.Region, cfg Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, geoerr.Wrap(geoerr.KindInvalidInput, err, "suitability: config")
	}
	if len(regions) == 0 {
		return nil, geoerr.InvalidInputf("suitability: no candidate regions")
	}

	report := &Report{GeneratedAt: time.Now().UTC()}
	for _, region := range regions {
		res, err := s.scoreRegion(region, cfg)
		if err != nil {
			if geoerr.IsDataIntegrity(err) {
				report.Skipped++
				zap.L().Warn("suitability: skipping region",
					zap.String("region_id", region.ID),
					zap.Error(err))
				continue
			}
			return nil, err
		}
		if res == nil {
			// Below the demographic threshold: excluded, not scored low.
			continue
		}
		report.Results = append(report.Results, *res)
	}

	sort.Slice(report.Results, func(i, j int) bool {
		a, b := report.Results[i], report.Results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.RegionID < b.RegionID
	})
	return report, nil
}

func (s *Scorer) scoreRegion(region spatial.Region, cfg Config) (*Result, error) {
	if err := region.Boundary.Validate(); err != nil {
		return nil, err
	}
	population := region.Attribute(spatial.AttrPopulation)
	if population <= 0 {
		return nil, geoerr.Newf(geoerr.KindDataIntegrity,
			"suitability: region %s has population %v", region.ID, population)
	}

	young := region.Attribute(spatial.AttrYoungPopulation)
	ratio := young / population
	if cfg.MinDemographicRatio > 0 && ratio < cfg.MinDemographicRatio {
		return nil, nil
	}

	center := region.Centroid()
	competitors, err := s.index.CountWithinRadius(center, cfg.CompetitorRadiusMeters, cfg.CompetitorCategory)
	if err != nil {
		return nil, err
	}
	businessCenters, err := s.index.CountWithinRadius(center, cfg.BusinessRadiusMeters, BusinessCenterCategory)
	if err != nil {
		return nil, err
	}

	components := map[string]float64{
		ComponentDemographic: math.Min(ratio*100, 100),
		ComponentScarcity:    scarcityScore(competitors),
		ComponentProximity:   math.Min(float64(businessCenters)*15, 100),
	}
	score := (components[ComponentDemographic]*cfg.DemographicWeight +
		components[ComponentScarcity]*cfg.ScarcityWeight +
		components[ComponentProximity]*cfg.ProximityWeight) / cfg.WeightSum()

	return &Result{
		RegionID:        region.ID,
		RegionName:      region.Name,
		Score:           score,
		ComponentScores: components,
		CompetitorCount: competitors,
		BusinessCenters: businessCenters,
	}, nil
}

// scarcityScore starts at 100 and loses 20 points per nearby competitor,
// floored at 0.
func scarcityScore(competitors int) float64 {
	return 100 - math.Min(float64(competitors)*20, 100)
}

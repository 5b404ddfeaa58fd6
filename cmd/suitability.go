package main

import (
	"github.com/spf13/cobra"

	"github.com/urbansight/geocore/internal/spatial"
)

var (
	suitCategory  string
	suitThreshold float64
	suitRegionIDs []string
)

var suitabilityCmd = &cobra.Command{
	Use:   "suitability",
	Short: "Rank regions by site suitability",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := contextWithTimeout(cmd.Context())
		defer cancel()

		eng, err := newEngine(ctx)
		if err != nil {
			return err
		}
		defer eng.Close()

		sc := eng.suitabilityConfig()
		if suitCategory != "" {
			sc.CompetitorCategory = suitCategory
		}
		if suitThreshold > 0 {
			sc.MinDemographicRatio = suitThreshold
		}

		regions := eng.index.Regions()
		if len(suitRegionIDs) > 0 {
			regions = filterRegions(regions, suitRegionIDs)
		}

		report, err := eng.suitability.Score(regions, sc)
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}

func filterRegions(regions []spatial.Region, ids []string) []spatial.Region {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make([]spatial.Region, 0, len(ids))
	for _, r := range regions {
		if want[r.ID] {
			out = append(out, r)
		}
	}
	return out
}

func init() {
	suitabilityCmd.Flags().StringVar(&suitCategory, "competitor-category", "", "POI category counted as competition (default from config)")
	suitabilityCmd.Flags().Float64Var(&suitThreshold, "min-demographic", 0, "minimum young-population ratio, regions below are excluded")
	suitabilityCmd.Flags().StringSliceVar(&suitRegionIDs, "region-ids", nil, "restrict scoring to these region IDs")
	registerDataFlags(suitabilityCmd)
	rootCmd.AddCommand(suitabilityCmd)
}

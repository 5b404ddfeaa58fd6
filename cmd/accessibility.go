package main

import (
	"github.com/spf13/cobra"

	"github.com/urbansight/geocore/internal/access"
	"github.com/urbansight/geocore/internal/travel"
)

var (
	accessLocation   string
	accessMode       string
	accessCategories []string
	accessCeiling    float64
)

var accessibilityCmd = &cobra.Command{
	Use:   "accessibility",
	Short: "Score amenity accessibility for a location",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := contextWithTimeout(cmd.Context())
		defer cancel()

		loc, err := parseLocation(accessLocation)
		if err != nil {
			return err
		}
		mode, err := travel.ParseMode(accessMode)
		if err != nil {
			return err
		}

		eng, err := newEngine(ctx)
		if err != nil {
			return err
		}
		defer eng.Close()

		ceiling := accessCeiling
		if ceiling <= 0 {
			ceiling = cfg.Access.CeilingMinutes
		}

		report, err := eng.access.Score(ctx, access.Request{
			Location:       loc,
			Mode:           mode,
			Categories:     accessCategories,
			CeilingMinutes: ceiling,
		})
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}

func init() {
	accessibilityCmd.Flags().StringVar(&accessLocation, "location", "", "location as lat,lng (required)")
	accessibilityCmd.Flags().StringVar(&accessMode, "mode", "walking", "travel mode: walking, bicycling, transit, driving")
	accessibilityCmd.Flags().StringSliceVar(&accessCategories, "categories", nil, "amenity categories to score (default standard set)")
	accessibilityCmd.Flags().Float64Var(&accessCeiling, "ceiling", 0, "travel-time ceiling in minutes (default from config)")
	accessibilityCmd.MarkFlagRequired("location")
	registerDataFlags(accessibilityCmd)
	rootCmd.AddCommand(accessibilityCmd)
}

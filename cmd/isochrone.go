package main

import (
	"github.com/spf13/cobra"

	"github.com/urbansight/geocore/internal/isochrone"
	"github.com/urbansight/geocore/internal/travel"
)

var (
	isoOrigin    string
	isoMode      string
	isoDuration  float64
	isoIntervals []float64
)

var isochroneCmd = &cobra.Command{
	Use:   "isochrone",
	Short: "Compute reachability bands around an origin",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := contextWithTimeout(cmd.Context())
		defer cancel()

		origin, err := parseLocation(isoOrigin)
		if err != nil {
			return err
		}
		mode, err := travel.ParseMode(isoMode)
		if err != nil {
			return err
		}

		eng, err := newEngine(ctx)
		if err != nil {
			return err
		}
		defer eng.Close()

		zone, err := eng.isochrones.Build(ctx, isochrone.Request{
			Origin:             origin,
			Mode:               mode,
			MaxDurationMinutes: isoDuration,
			IntervalsMinutes:   isoIntervals,
		})
		if err != nil {
			return err
		}
		return printJSON(zone)
	},
}

func init() {
	isochroneCmd.Flags().StringVar(&isoOrigin, "origin", "", "origin as lat,lng (required)")
	isochroneCmd.Flags().StringVar(&isoMode, "mode", "walking", "travel mode: walking, bicycling, transit, driving")
	isochroneCmd.Flags().Float64Var(&isoDuration, "max-duration", 30, "maximum travel time in minutes")
	isochroneCmd.Flags().Float64SliceVar(&isoIntervals, "intervals", nil, "band upper bounds in minutes (default thirds of max-duration)")
	isochroneCmd.MarkFlagRequired("origin")
	rootCmd.AddCommand(isochroneCmd)
}

package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/urbansight/geocore/internal/geo"
	"github.com/urbansight/geocore/internal/route"
	"github.com/urbansight/geocore/internal/travel"
)

var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Route optimization and meeting points",
}

var (
	routeOrigin      string
	routeDestination string
	routeWaypoints   []string
	routeMode        string
)

var routeOptimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Order waypoints to minimize total travel time",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := contextWithTimeout(cmd.Context())
		defer cancel()

		origin, err := parseLocation(routeOrigin)
		if err != nil {
			return err
		}
		dest, err := parseLocation(routeDestination)
		if err != nil {
			return err
		}
		waypoints, err := parseLocations(routeWaypoints)
		if err != nil {
			return err
		}
		mode, err := travel.ParseMode(routeMode)
		if err != nil {
			return err
		}

		eng, err := newEngine(ctx)
		if err != nil {
			return err
		}
		defer eng.Close()

		order, err := eng.optimizer.Optimize(ctx, route.Request{
			Origin:      origin,
			Destination: dest,
			Waypoints:   waypoints,
			Mode:        mode,
		})
		if err != nil {
			return err
		}
		return printJSON(order)
	},
}

var (
	meetParticipants []string
	meetMode         string
	meetCategory     string
)

var routeMeetCmd = &cobra.Command{
	Use:   "meet",
	Short: "Find the venue minimizing combined travel time",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := contextWithTimeout(cmd.Context())
		defer cancel()

		participants, err := parseLocations(meetParticipants)
		if err != nil {
			return err
		}
		mode, err := travel.ParseMode(meetMode)
		if err != nil {
			return err
		}

		eng, err := newEngine(ctx)
		if err != nil {
			return err
		}
		defer eng.Close()

		point, err := eng.meetings.Plan(ctx, route.MeetingRequest{
			Participants:  participants,
			Mode:          mode,
			VenueCategory: meetCategory,
		})
		if err != nil {
			return err
		}
		return printJSON(point)
	},
}

func parseLocations(values []string) ([]geo.Location, error) {
	locs := make([]geo.Location, 0, len(values))
	for _, v := range values {
		loc, err := parseLocation(v)
		if err != nil {
			return nil, eris.Wrapf(err, "geocore: location %q", v)
		}
		locs = append(locs, loc)
	}
	return locs, nil
}

func init() {
	routeOptimizeCmd.Flags().StringVar(&routeOrigin, "origin", "", "start as lat,lng (required)")
	routeOptimizeCmd.Flags().StringVar(&routeDestination, "destination", "", "end as lat,lng (required)")
	routeOptimizeCmd.Flags().StringArrayVar(&routeWaypoints, "waypoint", nil, "intermediate stop as lat,lng (repeatable)")
	routeOptimizeCmd.Flags().StringVar(&routeMode, "mode", "driving", "travel mode: walking, bicycling, transit, driving")
	routeOptimizeCmd.MarkFlagRequired("origin")
	routeOptimizeCmd.MarkFlagRequired("destination")

	routeMeetCmd.Flags().StringArrayVar(&meetParticipants, "participant", nil, "participant location as lat,lng (repeatable, at least two)")
	routeMeetCmd.Flags().StringVar(&meetMode, "mode", "walking", "travel mode: walking, bicycling, transit, driving")
	routeMeetCmd.Flags().StringVar(&meetCategory, "venue-category", "", "venue category to search (default cafe)")
	routeMeetCmd.MarkFlagRequired("participant")
	registerDataFlags(routeMeetCmd)

	routeCmd.AddCommand(routeOptimizeCmd)
	routeCmd.AddCommand(routeMeetCmd)
	rootCmd.AddCommand(routeCmd)
}

package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load data sources and report index statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := contextWithTimeout(cmd.Context())
		defer cancel()

		eng, err := newEngine(ctx)
		if err != nil {
			return err
		}
		defer eng.Close()

		zap.L().Info("index rebuilt",
			zap.Int("pois", eng.stats.POIs),
			zap.Int("regions", eng.stats.Regions),
			zap.Int("skipped_pois", eng.stats.SkippedPOIs),
			zap.Int("skipped_regions", eng.stats.SkippedRegions),
			zap.Int64("version", eng.stats.Version),
		)
		return printJSON(eng.stats)
	},
}

func init() {
	registerDataFlags(loadCmd)
	rootCmd.AddCommand(loadCmd)
}

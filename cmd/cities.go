package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/urbansight/geocore/internal/cityrank"
	"github.com/urbansight/geocore/internal/dataset"
)

var (
	citiesFile     string
	citiesBusiness string
	citiesWeights  []float64
)

var citiesCmd = &cobra.Command{
	Use:   "cities",
	Short: "City comparison for expansion planning",
}

var citiesCompareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Rank cities from a metrics file",
	RunE: func(cmd *cobra.Command, args []string) error {
		metrics, err := dataset.LoadCityMetrics(citiesFile)
		if err != nil {
			return err
		}

		weights := cityrank.DefaultWeights()
		if len(citiesWeights) > 0 && len(citiesWeights) != 5 {
			return eris.Errorf("geocore: --weights wants 5 values, got %d", len(citiesWeights))
		}
		if len(citiesWeights) == 5 {
			weights = cityrank.Weights{
				Population:        citiesWeights[0],
				AverageIncome:     citiesWeights[1],
				GDPPerCapita:      citiesWeights[2],
				CompetitorDensity: citiesWeights[3],
				GrowthRate:        citiesWeights[4],
			}
		}

		ranker := cityrank.NewRanker(cfg.Isochrone.Workers)
		comparison, err := ranker.Compare(metrics, weights, citiesBusiness)
		if err != nil {
			return err
		}
		return printJSON(comparison)
	},
}

func init() {
	citiesCompareCmd.Flags().StringVar(&citiesFile, "file", "", "YAML file of city metrics (required)")
	citiesCompareCmd.Flags().StringVar(&citiesBusiness, "business-type", "", "business type for signal bonuses")
	citiesCompareCmd.Flags().Float64SliceVar(&citiesWeights, "weights", nil,
		"five weights: population,income,gdp,competitor-scarcity,growth")
	citiesCompareCmd.MarkFlagRequired("file")
	citiesCmd.AddCommand(citiesCompareCmd)
	rootCmd.AddCommand(citiesCmd)
}

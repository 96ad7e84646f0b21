package cli

import (
	"github.com/spf13/cobra"

	"riskpipe/internal/app"
)

var (
	featuresInput  string
	featuresOutput string
	featuresBatch  string
)

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Compute the leakage-free feature table from a raw ledger CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.FeaturesOptions{
			InputPath:  featuresInput,
			OutputPath: featuresOutput,
			Batch:      featuresBatch,
		}
		return getApp().Features(cmd.Context(), opts)
	},
}

func init() {
	featuresCmd.Flags().StringVar(&featuresInput, "input", "", "Path to raw transactions CSV")
	featuresCmd.Flags().StringVar(&featuresOutput, "output", "", "Path to write the feature table CSV")
	featuresCmd.Flags().StringVar(&featuresBatch, "batch", "default", "Batch label for persistence")
}

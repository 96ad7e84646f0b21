package cli

import (
	"github.com/spf13/cobra"

	"riskpipe/internal/app"
)

var (
	explainFeatures string
	explainScores   string
	explainImpacts  string
	explainOut      string
	explainGlobal   string
	explainChart    string
	explainBatch    string
)

var explainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Rank top-risk explanations and apply the decision policy",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ExplainOptions{
			FeaturesPath: explainFeatures,
			ScoresPath:   explainScores,
			ImpactsPath:  explainImpacts,
			OutputPath:   explainOut,
			GlobalPath:   explainGlobal,
			ChartPath:    explainChart,
			Batch:        explainBatch,
		}
		return getApp().Explain(cmd.Context(), opts)
	},
}

func init() {
	explainCmd.Flags().StringVar(&explainFeatures, "features", "", "Path to feature table CSV")
	explainCmd.Flags().StringVar(&explainScores, "scores", "", "Path to risk scores CSV")
	explainCmd.Flags().StringVar(&explainImpacts, "impacts", "", "Path to impact matrix JSON")
	explainCmd.Flags().StringVar(&explainOut, "out", "", "Path to write explanation records JSON")
	explainCmd.Flags().StringVar(&explainGlobal, "global", "", "Path to write global importance JSON")
	explainCmd.Flags().StringVar(&explainChart, "chart", "", "Path to write global importance PNG")
	explainCmd.Flags().StringVar(&explainBatch, "batch", "default", "Batch label for persistence")
}

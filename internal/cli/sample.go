package cli

import (
	"github.com/spf13/cobra"

	"riskpipe/internal/app"
)

var (
	sampleScores string
	sampleOut    string
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Compute the sample index set for the attribution collaborator",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.SampleOptions{
			ScoresPath: sampleScores,
			OutputPath: sampleOut,
		}
		return getApp().Sample(cmd.Context(), opts)
	},
}

func init() {
	sampleCmd.Flags().StringVar(&sampleScores, "scores", "", "Path to risk scores CSV")
	sampleCmd.Flags().StringVar(&sampleOut, "out", "", "Path to write the sample index set JSON")
}

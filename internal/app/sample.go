package app

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	"riskpipe/internal/explain"
)

// sampleDocument is handed to the attribution collaborator: it must
// compute one impact row per listed index before explain can run.
type sampleDocument struct {
	Population int   `json:"population"`
	TopRisk    int   `json:"top_risk"`
	Baseline   int   `json:"baseline"`
	Seed       int64 `json:"seed"`
	Indices    []int `json:"indices"`
}

// Sample computes the SampleIndexSet for a score vector and writes it as
// JSON for the external attribution step.
func (a *App) Sample(_ context.Context, opts SampleOptions) error {
	if opts.ScoresPath == "" {
		return errors.New("--scores is required")
	}
	if opts.OutputPath == "" {
		return errors.New("--out is required")
	}

	scores, err := loadScores(opts.ScoresPath)
	if err != nil {
		return err
	}

	policy, err := a.loadPolicy()
	if err != nil {
		return err
	}

	explainer := explain.New(a.explainConfig(), policy, a.Logger)
	indices, err := explainer.SampleIndices(scores)
	if err != nil {
		return err
	}

	doc := sampleDocument{
		Population: len(scores),
		TopRisk:    a.Config.Explain.TopRisk,
		Baseline:   a.Config.Explain.BaselineSize,
		Seed:       a.Config.Explain.BaselineSeed,
		Indices:    indices,
	}
	if err := writeJSON(opts.OutputPath, doc); err != nil {
		return err
	}

	a.Logger.Info().Int("indices", len(indices)).Str("path", opts.OutputPath).Msg("sample index set written")
	return nil
}

func writeJSON(path string, v any) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

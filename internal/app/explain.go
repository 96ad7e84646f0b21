package app

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	chart "github.com/wcharczuk/go-chart/v2"

	"riskpipe/internal/explain"
	"riskpipe/internal/storage"
)

// Explain ranks the top-risk explanation set from externally supplied
// scores and impacts, applies the decision policy, and writes the
// explanation and global-importance artifacts.
func (a *App) Explain(ctx context.Context, opts ExplainOptions) error {
	if opts.FeaturesPath == "" || opts.ScoresPath == "" || opts.ImpactsPath == "" {
		return errors.New("--features, --scores, and --impacts are required")
	}
	if opts.OutputPath == "" {
		return errors.New("--out is required")
	}

	rows, err := readFeatureCSV(opts.FeaturesPath)
	if err != nil {
		return err
	}

	scores, err := loadScores(opts.ScoresPath)
	if err != nil {
		return err
	}

	impacts, err := explain.LoadImpactMatrix(opts.ImpactsPath)
	if err != nil {
		return err
	}

	policy, err := a.loadPolicy()
	if err != nil {
		return err
	}

	explainer := explain.New(a.explainConfig(), policy, a.Logger)
	records, global, err := explainer.Explain(rows, scores, impacts)
	if err != nil {
		return err
	}

	if err := writeJSON(opts.OutputPath, records); err != nil {
		return err
	}
	a.Logger.Info().Int("records", len(records)).Str("path", opts.OutputPath).Msg("explanations written")

	if opts.GlobalPath != "" {
		if err := writeJSON(opts.GlobalPath, global); err != nil {
			return err
		}
	}

	if opts.ChartPath != "" {
		if err := writeImportancePNG(opts.ChartPath, global); err != nil {
			return err
		}
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return nil
	}
	defer closeStore()

	return a.persistExplanations(ctx, store, opts.Batch, records)
}

func (a *App) persistExplanations(ctx context.Context, store storage.ExplanationStore, batch string, records []explain.ExplanationRecord) error {
	rows := make([]storage.ExplanationRow, len(records))
	for i, rec := range records {
		drivers, err := json.Marshal(rec.TopDrivers)
		if err != nil {
			return err
		}
		rows[i] = storage.ExplanationRow{
			Batch:       batch,
			RecordIndex: rec.RecordIndex,
			RiskScore:   rec.RiskScore,
			FraudLabel:  rec.FraudLabel,
			Decision:    rec.Decision,
			Drivers:     drivers,
		}
	}

	if err := store.UpsertExplanations(ctx, rows); err != nil {
		return err
	}
	a.Logger.Info().Str("batch", batch).Int("rows", len(rows)).Msg("explanations persisted")
	return nil
}

func writeImportancePNG(path string, global []explain.FeatureImportance) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	bars := make([]chart.Value, len(global))
	for i, g := range global {
		bars[i] = chart.Value{Label: g.Feature, Value: g.MeanAbsImpact}
	}

	graph := chart.BarChart{
		Title:    "Mean |impact| per feature",
		Width:    1280,
		Height:   720,
		BarWidth: 40,
		Bars:     bars,
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

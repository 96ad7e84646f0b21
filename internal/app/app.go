package app

import (
	"context"

	"github.com/rs/zerolog"

	"riskpipe/internal/config"
	"riskpipe/internal/decision"
	"riskpipe/internal/explain"
	"riskpipe/internal/pipeline"
	"riskpipe/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) pipelineConfig() pipeline.Config {
	return pipeline.Config{
		Window:          a.Config.Pipeline.Window,
		RecencyHorizon:  a.Config.Pipeline.RecencyHorizon,
		SequenceHorizon: a.Config.Pipeline.SequenceHorizon,
		Epsilon:         a.Config.Pipeline.Epsilon,
		Workers:         a.Config.Pipeline.Workers,
	}
}

func (a *App) explainConfig() explain.Config {
	return explain.Config{
		TopRisk:      a.Config.Explain.TopRisk,
		BaselineSize: a.Config.Explain.BaselineSize,
		BaselineSeed: a.Config.Explain.BaselineSeed,
		TopDrivers:   a.Config.Explain.TopDrivers,
		GlobalTop:    a.Config.Explain.GlobalTop,
	}
}

// loadPolicy resolves the decision policy: a JSON policy file wins over the
// inline config values.
func (a *App) loadPolicy() (decision.Policy, error) {
	if a.Config.Policy.File != "" {
		return decision.LoadFile(a.Config.Policy.File)
	}
	p := decision.Policy{
		Threshold: a.Config.Policy.Threshold,
		Labels: decision.Labels{
			Block: a.Config.Policy.BlockLabel,
			Allow: a.Config.Policy.AllowLabel,
		},
	}
	if err := p.Validate(); err != nil {
		return decision.Policy{}, err
	}
	return p, nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// FeaturesOptions configure the feature computation run.
type FeaturesOptions struct {
	InputPath  string
	OutputPath string
	Batch      string
}

// SampleOptions configure the sample index computation.
type SampleOptions struct {
	ScoresPath string
	OutputPath string
}

// ExplainOptions configure the explanation run.
type ExplainOptions struct {
	FeaturesPath string
	ScoresPath   string
	ImpactsPath  string
	OutputPath   string
	GlobalPath   string
	ChartPath    string
	Batch        string
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"riskpipe/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logging  logging.Config `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Policy   PolicyConfig   `mapstructure:"policy"`
	Explain  ExplainConfig  `mapstructure:"explain"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// PipelineConfig governs feature computation.
type PipelineConfig struct {
	HashSalt        string  `mapstructure:"hash_salt"`
	Window          int     `mapstructure:"window"`
	RecencyHorizon  int     `mapstructure:"recency_horizon"`
	SequenceHorizon int     `mapstructure:"sequence_horizon"`
	Epsilon         float64 `mapstructure:"epsilon"`
	Workers         int     `mapstructure:"workers"`
}

// PolicyConfig holds the decision threshold and labels.
// File, when set, overrides the inline values with a JSON policy document.
type PolicyConfig struct {
	Threshold  float64 `mapstructure:"threshold"`
	BlockLabel string  `mapstructure:"block_label"`
	AllowLabel string  `mapstructure:"allow_label"`
	File       string  `mapstructure:"file"`
}

// ExplainConfig tunes sampling and driver ranking.
type ExplainConfig struct {
	TopRisk      int   `mapstructure:"top_risk"`
	BaselineSize int   `mapstructure:"baseline_size"`
	BaselineSeed int64 `mapstructure:"baseline_seed"`
	TopDrivers   int   `mapstructure:"top_drivers"`
	GlobalTop    int   `mapstructure:"global_top"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RISKPIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "riskpipe")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("pipeline.hash_salt", "paysim_project_salt_v1")
	v.SetDefault("pipeline.window", 24)
	v.SetDefault("pipeline.recency_horizon", 168)
	v.SetDefault("pipeline.sequence_horizon", 6)
	v.SetDefault("pipeline.epsilon", 1e-6)
	v.SetDefault("pipeline.workers", 4)

	v.SetDefault("policy.threshold", 0.5)
	v.SetDefault("policy.block_label", "BLOCK_AND_REVIEW")
	v.SetDefault("policy.allow_label", "ALLOW")

	v.SetDefault("explain.top_risk", 200)
	v.SetDefault("explain.baseline_size", 2000)
	v.SetDefault("explain.baseline_seed", 42)
	v.SetDefault("explain.top_drivers", 5)
	v.SetDefault("explain.global_top", 20)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.migrations_path", "migrations")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Pipeline.HashSalt == "" {
		return fmt.Errorf("pipeline.hash_salt must not be empty")
	}
	if c.Pipeline.Window <= 0 {
		return fmt.Errorf("pipeline.window must be greater than zero")
	}
	if c.Pipeline.RecencyHorizon <= 0 {
		return fmt.Errorf("pipeline.recency_horizon must be greater than zero")
	}
	if c.Pipeline.SequenceHorizon <= 0 {
		return fmt.Errorf("pipeline.sequence_horizon must be greater than zero")
	}
	if c.Pipeline.Epsilon <= 0 {
		return fmt.Errorf("pipeline.epsilon must be greater than zero")
	}
	if c.Policy.Threshold < 0 || c.Policy.Threshold > 1 {
		return fmt.Errorf("policy.threshold must be within [0,1]")
	}
	if c.Policy.BlockLabel == "" || c.Policy.AllowLabel == "" {
		return fmt.Errorf("policy block/allow labels must not be empty")
	}
	if c.Explain.TopRisk <= 0 {
		return fmt.Errorf("explain.top_risk must be greater than zero")
	}
	if c.Explain.BaselineSize <= 0 {
		return fmt.Errorf("explain.baseline_size must be greater than zero")
	}
	if c.Explain.TopDrivers <= 0 {
		return fmt.Errorf("explain.top_drivers must be greater than zero")
	}
	if c.Explain.GlobalTop <= 0 {
		return fmt.Errorf("explain.global_top must be greater than zero")
	}
	return nil
}

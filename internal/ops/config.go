// Package ops loads run configuration from a JSON file plus the
// process environment.
package ops

import (
	"encoding/json"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Cash          float64        `json:"cash"`
	Margin        float64        `json:"margin"`
	Symbols       []string       `json:"symbols"`
	Benchmark     string         `json:"benchmark"`
	DataStart     string         `json:"dataStart"`
	BacktestStart string         `json:"backtestStart"`
	BacktestEnd   string         `json:"backtestEnd"`
	Feed          FeedConfig     `json:"feed"`
	Strategy      StrategyConfig `json:"strategy"`
	Persist       bool           `json:"persist"`
}

// FeedConfig selects and configures the data feed.
type FeedConfig struct {
	// Type is one of csv, alphavantage, synthetic.
	Type            string  `json:"type"`
	Path            string  `json:"path"`
	SymbolOverride  string  `json:"symbolOverride"`
	TimestampLayout string  `json:"timestampLayout"`
	Bars            int     `json:"bars"`
	BasePrice       float64 `json:"basePrice"`
	Drift           float64 `json:"drift"`
}

// StrategyConfig selects and configures the strategy.
type StrategyConfig struct {
	Type         string  `json:"type"`
	Symbol       string  `json:"symbol"`
	TargetWeight float64 `json:"targetWeight"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Cash          float64
	Margin        float64
	Symbols       []string
	Benchmark     string
	DataStart     time.Time
	BacktestStart time.Time
	BacktestEnd   time.Time
	Feed          FeedConfig
	Strategy      StrategyConfig
	Persist       bool
}

// Env carries settings read from the process environment.
type Env struct {
	AlphaVantageAPIKey string `env:"ALPHA_VANTAGE_API_KEY"`
	DatabaseURL        string `env:"DATABASE_URL"`
}

// Load reads and resolves a JSON config file.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, errors.Wrap(err, "read config")
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, errors.Wrap(err, "parse config")
	}

	if len(cfg.Symbols) == 0 {
		return Loaded{}, errors.New("config has no symbols")
	}
	if cfg.Margin == 0 {
		cfg.Margin = 1.0
	}
	if cfg.Margin < 1.0 {
		return Loaded{}, errors.New("margin must be at least 1.0")
	}

	loaded := Loaded{
		Cash:      cfg.Cash,
		Margin:    cfg.Margin,
		Symbols:   cfg.Symbols,
		Benchmark: cfg.Benchmark,
		Feed:      cfg.Feed,
		Strategy:  cfg.Strategy,
		Persist:   cfg.Persist,
	}
	if loaded.DataStart, err = parseTimestamp(cfg.DataStart); err != nil {
		return Loaded{}, errors.Wrap(err, "parse dataStart")
	}
	if loaded.BacktestStart, err = parseTimestamp(cfg.BacktestStart); err != nil {
		return Loaded{}, errors.Wrap(err, "parse backtestStart")
	}
	if loaded.BacktestEnd, err = parseTimestamp(cfg.BacktestEnd); err != nil {
		return Loaded{}, errors.Wrap(err, "parse backtestEnd")
	}

	// The engine does not enforce boundary ordering; surface suspicious
	// windows here instead of failing a run halfway through.
	if !loaded.BacktestStart.IsZero() && !loaded.BacktestEnd.IsZero() &&
		loaded.BacktestEnd.Before(loaded.BacktestStart) {
		logs.Warnf("backtestEnd %s is before backtestStart %s",
			cfg.BacktestEnd, cfg.BacktestStart)
	}
	if !loaded.DataStart.IsZero() && !loaded.BacktestStart.IsZero() &&
		loaded.BacktestStart.Before(loaded.DataStart) {
		logs.Warnf("backtestStart %s is before dataStart %s",
			cfg.BacktestStart, cfg.DataStart)
	}
	return loaded, nil
}

// LoadEnv parses environment-provided settings.
func LoadEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, errors.Wrap(err, "parse environment")
	}
	return e, nil
}

func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if ts, err := time.Parse("2006-01-02", value); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339, value)
}

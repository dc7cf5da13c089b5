package ops

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "backtest.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `{
		"cash": 100000,
		"margin": 2.0,
		"symbols": ["AAPL", "MSFT"],
		"benchmark": "SPY",
		"dataStart": "2020-01-01",
		"backtestStart": "2021-01-01",
		"backtestEnd": "2023-12-31T00:00:00Z",
		"feed": {"type": "csv", "path": "bars.csv"},
		"strategy": {"type": "buy-and-hold", "symbol": "AAPL", "targetWeight": 0.8},
		"persist": true
	}`)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.InDelta(t, 100000.0, loaded.Cash, 1e-9)
	assert.InDelta(t, 2.0, loaded.Margin, 1e-9)
	assert.Equal(t, []string{"AAPL", "MSFT"}, loaded.Symbols)
	assert.Equal(t, "SPY", loaded.Benchmark)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), loaded.DataStart)
	assert.Equal(t, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), loaded.BacktestStart)
	assert.Equal(t, time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), loaded.BacktestEnd)
	assert.Equal(t, "csv", loaded.Feed.Type)
	assert.Equal(t, "buy-and-hold", loaded.Strategy.Type)
	assert.True(t, loaded.Persist)
}

func TestLoadDefaultsMarginToOne(t *testing.T) {
	path := writeConfig(t, `{"cash": 1000, "symbols": ["AAPL"]}`)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, loaded.Margin, 1e-9)
	assert.True(t, loaded.DataStart.IsZero())
}

func TestLoadRejectsSubUnitMargin(t *testing.T) {
	path := writeConfig(t, `{"cash": 1000, "margin": 0.5, "symbols": ["AAPL"]}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "margin")
}

func TestLoadRequiresSymbols(t *testing.T) {
	path := writeConfig(t, `{"cash": 1000}`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsBadTimestamp(t *testing.T) {
	path := writeConfig(t, `{"cash": 1000, "symbols": ["AAPL"], "backtestStart": "01/02/2024"}`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("ALPHA_VANTAGE_API_KEY", "key-123")
	t.Setenv("DATABASE_URL", "postgres://localhost/alphaflow")

	environ, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "key-123", environ.AlphaVantageAPIKey)
	assert.Equal(t, "postgres://localhost/alphaflow", environ.DatabaseURL)
}

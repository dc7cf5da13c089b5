package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntheticGeneratesDeterministicBars(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := NewSynthetic(SyntheticConfig{Start: start, Bars: 3, BasePrice: 100, Drift: 1})

	first, err := f.Run(context.Background(), "AAPL", time.Time{}, time.Time{})
	require.NoError(t, err)
	second, err := f.Run(context.Background(), "AAPL", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.Len(t, first, 3)
	assert.Equal(t, start, first[0].Time)
	assert.Equal(t, start.Add(48*time.Hour), first[2].Time)
	assert.InDelta(t, first[0].Close+2, first[2].Close, 1e-9)
}

func TestSyntheticSymbolsDiffer(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := NewSynthetic(SyntheticConfig{Start: start, Bars: 1})

	aapl, err := f.Run(context.Background(), "AAPL", time.Time{}, time.Time{})
	require.NoError(t, err)
	msft, err := f.Run(context.Background(), "MSFT", time.Time{}, time.Time{})
	require.NoError(t, err)

	require.Len(t, aapl, 1)
	require.Len(t, msft, 1)
	assert.NotEqual(t, aapl[0].Close, msft[0].Close)
}

func TestSyntheticWindowBounds(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := NewSynthetic(SyntheticConfig{Start: start, Bars: 5})

	bars, err := f.Run(context.Background(), "AAPL",
		start.Add(24*time.Hour), start.Add(72*time.Hour))
	require.NoError(t, err)
	require.Len(t, bars, 3)
	assert.Equal(t, start.Add(24*time.Hour), bars[0].Time)
}

func TestSyntheticRequiresStart(t *testing.T) {
	f := NewSynthetic(SyntheticConfig{Bars: 3})

	_, err := f.Run(context.Background(), "AAPL", time.Time{}, time.Time{})
	require.Error(t, err)
}

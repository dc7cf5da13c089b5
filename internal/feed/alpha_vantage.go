package feed

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"github.com/brandonschabell/alphaflow/internal/event"
)

const defaultAlphaVantageBaseURL = "https://www.alphavantage.co"

// AlphaVantageConfig configures the Alpha Vantage daily-bars feed.
type AlphaVantageConfig struct {
	// APIKey falls back to the ALPHA_VANTAGE_API_KEY environment
	// variable when empty.
	APIKey  string
	BaseURL string
	Client  *http.Client
}

// AlphaVantage fetches daily adjusted bars from the Alpha Vantage REST
// API. The adjusted close is used as the bar close.
type AlphaVantage struct {
	cfg AlphaVantageConfig
}

// NewAlphaVantage creates the feed, filling config defaults.
func NewAlphaVantage(cfg AlphaVantageConfig) *AlphaVantage {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("ALPHA_VANTAGE_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultAlphaVantageBaseURL
	}
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	return &AlphaVantage{cfg: cfg}
}

type alphaVantageResponse struct {
	Series map[string]alphaVantageBar `json:"Time Series (Daily)"`
}

type alphaVantageBar struct {
	Open          string `json:"1. open"`
	High          string `json:"2. high"`
	Low           string `json:"3. low"`
	AdjustedClose string `json:"5. adjusted close"`
	Volume        string `json:"6. volume"`
}

// Run fetches the full daily history for the symbol and returns the
// bars inside the window in chronological order. Any fetch or parse
// failure is returned as-is and aborts the run.
func (f *AlphaVantage) Run(ctx context.Context, symbol string, start, end time.Time) ([]event.MarketData, error) {
	if f.cfg.APIKey == "" {
		return nil, errors.New("alpha vantage api key not configured")
	}

	query := url.Values{}
	query.Set("function", "TIME_SERIES_DAILY_ADJUSTED")
	query.Set("symbol", symbol)
	query.Set("apikey", f.cfg.APIKey)
	query.Set("outputsize", "full")
	endpoint := f.cfg.BaseURL + "/query?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build alpha vantage request")
	}
	logs.Debugf("fetching %s daily bars from alpha vantage", symbol)
	resp, err := f.cfg.Client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch alpha vantage data")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, errors.New("alpha vantage returned " + resp.Status + ": " + string(body))
	}

	var payload alphaVantageResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, "decode alpha vantage response")
	}
	if len(payload.Series) == 0 {
		return nil, errors.New("alpha vantage returned no daily series for " + symbol)
	}

	bars := make([]event.MarketData, 0, len(payload.Series))
	for date, raw := range payload.Series {
		ts, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, errors.Wrap(err, "parse alpha vantage date")
		}
		if !start.IsZero() && ts.Before(start) {
			continue
		}
		if !end.IsZero() && ts.After(end) {
			continue
		}
		bar, err := parseAlphaVantageBar(ts, symbol, raw)
		if err != nil {
			return nil, err
		}
		bars = append(bars, bar)
	}

	// The API returns a date-keyed map; order it before handing it to
	// the engine.
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func parseAlphaVantageBar(ts time.Time, symbol string, raw alphaVantageBar) (event.MarketData, error) {
	values := [5]float64{}
	for i, field := range [5]string{raw.Open, raw.High, raw.Low, raw.AdjustedClose, raw.Volume} {
		value, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return event.MarketData{}, errors.Wrap(err, "parse alpha vantage value")
		}
		values[i] = value
	}
	return event.MarketData{
		Time:   ts,
		Symbol: symbol,
		Open:   values[0],
		High:   values[1],
		Low:    values[2],
		Close:  values[3],
		Volume: values[4],
	}, nil
}

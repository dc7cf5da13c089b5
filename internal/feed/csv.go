// Package feed provides data feeds that load per-symbol market data
// for the engine.
package feed

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"github.com/brandonschabell/alphaflow/internal/event"
)

// CSVConfig configures a CSV-file feed. Column names and the timestamp
// layout default to a daily Yahoo-style export.
type CSVConfig struct {
	Path            string
	TimestampColumn string
	SymbolColumn    string
	OpenColumn      string
	HighColumn      string
	LowColumn       string
	CloseColumn     string
	VolumeColumn    string
	TimestampLayout string

	// SymbolOverride stamps every row with a fixed symbol, for files
	// without a symbol column.
	SymbolOverride string
}

// CSV loads bars from a local CSV file.
type CSV struct {
	cfg CSVConfig
}

// NewCSV creates a CSV feed, filling config defaults.
func NewCSV(cfg CSVConfig) *CSV {
	if cfg.TimestampColumn == "" {
		cfg.TimestampColumn = "Date"
	}
	if cfg.SymbolColumn == "" {
		cfg.SymbolColumn = "Symbol"
	}
	if cfg.OpenColumn == "" {
		cfg.OpenColumn = "Open"
	}
	if cfg.HighColumn == "" {
		cfg.HighColumn = "High"
	}
	if cfg.LowColumn == "" {
		cfg.LowColumn = "Low"
	}
	if cfg.CloseColumn == "" {
		cfg.CloseColumn = "Close"
	}
	if cfg.VolumeColumn == "" {
		cfg.VolumeColumn = "Volume"
	}
	if cfg.TimestampLayout == "" {
		cfg.TimestampLayout = "2006-01-02"
	}
	return &CSV{cfg: cfg}
}

// Run reads the file and returns the bars for the requested symbol
// inside the window, in file order. Zero start/end times disable the
// corresponding bound.
func (f *CSV) Run(ctx context.Context, symbol string, start, end time.Time) ([]event.MarketData, error) {
	file, err := os.Open(f.cfg.Path)
	if err != nil {
		return nil, errors.Wrap(err, "open csv")
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read csv header")
	}
	columns, err := f.resolveColumns(header)
	if err != nil {
		return nil, err
	}

	logs.Debugf("loading %s bars from %s", symbol, f.cfg.Path)
	var bars []event.MarketData
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read csv row")
		}

		bar, err := f.parseRow(columns, row)
		if err != nil {
			return nil, err
		}
		if bar.Symbol != symbol {
			continue
		}
		if !start.IsZero() && bar.Time.Before(start) {
			continue
		}
		if !end.IsZero() && bar.Time.After(end) {
			continue
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

type csvColumns struct {
	timestamp, symbol, open, high, low, close, volume int
}

func (f *CSV) resolveColumns(header []string) (csvColumns, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	columns := csvColumns{symbol: -1}
	var missing []string
	lookup := func(name string) int {
		i, ok := index[name]
		if !ok {
			missing = append(missing, name)
			return -1
		}
		return i
	}
	columns.timestamp = lookup(f.cfg.TimestampColumn)
	columns.open = lookup(f.cfg.OpenColumn)
	columns.high = lookup(f.cfg.HighColumn)
	columns.low = lookup(f.cfg.LowColumn)
	columns.close = lookup(f.cfg.CloseColumn)
	columns.volume = lookup(f.cfg.VolumeColumn)
	if f.cfg.SymbolOverride == "" {
		columns.symbol = lookup(f.cfg.SymbolColumn)
	}
	if len(missing) > 0 {
		return csvColumns{}, errors.New("missing csv columns: " + strings.Join(missing, ", "))
	}
	return columns, nil
}

func (f *CSV) parseRow(columns csvColumns, row []string) (event.MarketData, error) {
	ts, err := time.Parse(f.cfg.TimestampLayout, row[columns.timestamp])
	if err != nil {
		return event.MarketData{}, errors.Wrap(err, "parse csv timestamp")
	}
	symbol := f.cfg.SymbolOverride
	if symbol == "" {
		symbol = row[columns.symbol]
	}

	fields := [5]float64{}
	for i, column := range [5]int{columns.open, columns.high, columns.low, columns.close, columns.volume} {
		value, err := strconv.ParseFloat(row[column], 64)
		if err != nil {
			return event.MarketData{}, errors.Wrap(err, "parse csv value")
		}
		fields[i] = value
	}
	return event.MarketData{
		Time:   ts,
		Symbol: symbol,
		Open:   fields[0],
		High:   fields[1],
		Low:    fields[2],
		Close:  fields[3],
		Volume: fields[4],
	}, nil
}

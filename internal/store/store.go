package store

import (
	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
	"gorm.io/gorm"

	"github.com/brandonschabell/alphaflow/internal/event"
)

// Store wraps a database handle with the persistence operations the
// simulation needs.
type Store struct {
	db *gorm.DB
}

// New creates a store over an open database handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the backing tables.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Bar{}, &StrategyRun{}, &Trade{})
}

// SaveBars persists a batch of market data events.
func (s *Store) SaveBars(bars []event.MarketData) error {
	if len(bars) == 0 {
		return nil
	}
	rows := make([]Bar, 0, len(bars))
	for _, bar := range bars {
		rows = append(rows, Bar{
			Timestamp: bar.Time,
			Symbol:    bar.Symbol,
			Open:      bar.Open,
			High:      bar.High,
			Low:       bar.Low,
			Close:     bar.Close,
			Volume:    bar.Volume,
		})
	}
	return errors.Wrap(s.db.CreateInBatches(rows, 500).Error, "save bars")
}

// CreateRun inserts a strategy run row and returns it.
func (s *Store) CreateRun(run *StrategyRun) error {
	return errors.Wrap(s.db.Create(run).Error, "create strategy run")
}

// FinishRun records the final results on an existing run row.
func (s *Store) FinishRun(run *StrategyRun, finalValue float64, sharpe, maxDrawdown *float64) error {
	run.FinalValue = decimal.NullDecimal{Decimal: decimal.NewFromFloat(finalValue), Valid: true}
	run.SharpeRatio = sharpe
	run.MaxDrawdown = maxDrawdown
	return errors.Wrap(s.db.Save(run).Error, "finish strategy run")
}

// SaveTrades persists fills, optionally linked to a run.
func (s *Store) SaveTrades(runID *uint, fills []event.Fill) error {
	if len(fills) == 0 {
		return nil
	}
	rows := make([]Trade, 0, len(fills))
	for _, fill := range fills {
		rows = append(rows, TradeFromFill(runID, fill))
	}
	return errors.Wrap(s.db.CreateInBatches(rows, 500).Error, "save trades")
}

// TradeFromFill converts a fill event to its persisted form. The
// signed fill quantity becomes an explicit side plus a positive
// quantity.
func TradeFromFill(runID *uint, fill event.Fill) Trade {
	side := event.SideBuy
	qty := fill.Qty
	if qty < 0 {
		side = event.SideSell
		qty = -qty
	}
	return Trade{
		StrategyRunID: runID,
		Timestamp:     fill.Time,
		Symbol:        fill.Symbol,
		Side:          side.String(),
		Quantity:      qty,
		Price:         decimal.NewFromFloat(fill.Price),
		Commission:    decimal.NewFromFloat(fill.Commission),
	}
}

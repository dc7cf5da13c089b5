// Package store persists market data, strategy runs and trades to a
// relational database.
package store

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bar is a persisted market data row.
type Bar struct {
	ID        uint      `gorm:"primaryKey"`
	Timestamp time.Time `gorm:"index;not null"`
	Symbol    string    `gorm:"size:20;index;not null"`
	Open      float64   `gorm:"not null"`
	High      float64   `gorm:"not null"`
	Low       float64   `gorm:"not null"`
	Close     float64   `gorm:"not null"`
	Volume    float64   `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName keeps the historical table name.
func (Bar) TableName() string { return "market_data" }

// StrategyRun is a persisted backtest run with its headline results.
type StrategyRun struct {
	ID             uint            `gorm:"primaryKey"`
	StrategyName   string          `gorm:"size:100;not null"`
	StartTimestamp time.Time       `gorm:"not null"`
	EndTimestamp   time.Time       `gorm:"not null"`
	InitialCash    decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	FinalValue     decimal.NullDecimal
	SharpeRatio    *float64
	MaxDrawdown    *float64
	CreatedAt      time.Time `gorm:"not null"`
}

func (StrategyRun) TableName() string { return "strategy_runs" }

// Trade is a persisted fill.
type Trade struct {
	ID            uint      `gorm:"primaryKey"`
	StrategyRunID *uint     `gorm:"index"`
	Timestamp     time.Time `gorm:"index;not null"`
	Symbol        string    `gorm:"size:20;index;not null"`
	Side          string    `gorm:"size:10;not null"`
	Quantity      float64   `gorm:"not null"`
	Price         decimal.Decimal `gorm:"type:numeric(20,8);not null"`
	Commission    decimal.Decimal `gorm:"type:numeric(20,8);not null"`
	CreatedAt     time.Time `gorm:"not null"`
}

func (Trade) TableName() string { return "trades" }

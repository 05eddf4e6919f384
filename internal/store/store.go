// Package store defines storage interfaces for persisting and retrieving
// bar data and completed backtest runs.
package store

import (
	"context"
	"time"

	"tradesim/internal/domain"
)

// BarStore persists and retrieves OHLCV bar data.
type BarStore interface {
	// WriteBars persists a batch of bars to storage.
	WriteBars(ctx context.Context, bars []domain.Bar) error

	// ReadBars returns bars for the given symbol within [start, end].
	ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all distinct symbols available in storage.
	ListSymbols(ctx context.Context) ([]string, error)
}

// Run is the persisted summary of one completed backtest.
type Run struct {
	ID        string
	Strategy  string
	Symbols   []string
	StartDate string
	EndDate   string
	CreatedAt time.Time

	InitialValue float64
	FinalValue   float64
	TotalReturn  float64
	AnnualReturn float64
	Volatility   float64
	SharpeRatio  float64
	MaxDrawdown  float64
	WinRate      float64
	NumTrades    int
}

// RunStore persists completed backtest runs and their trade logs.
type RunStore interface {
	// SaveRun inserts a run summary together with its trade log.
	SaveRun(ctx context.Context, run Run, trades []domain.Trade) error

	// GetRun retrieves a single run by ID.
	GetRun(ctx context.Context, id string) (*Run, error)

	// ListRuns returns the most recent runs, newest first, up to limit.
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	// ListTrades returns the trade log of a run in execution order.
	ListTrades(ctx context.Context, runID string) ([]domain.Trade, error)
}

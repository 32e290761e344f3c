// Package db
package db

import (
	"context"
	"time"

	"github.com/amirphl/signal-engine/internal/backtest"
	"github.com/amirphl/signal-engine/internal/candle"
	"github.com/amirphl/signal-engine/internal/journal"
)

// Run is one persisted backtest run: which profile ran over which data,
// and the resulting summary metrics.
type Run struct {
	ID        string
	Symbol    string
	Timeframe string
	Profile   string
	TrendMode string
	StartedAt time.Time
	Summary   backtest.Summary
}

// Storage is the interface for all persistent storage.
type Storage interface {
	SaveCandles(ctx context.Context, candles []candle.Candle) error
	GetCandles(ctx context.Context, symbol, timeframe, source string, start, end time.Time) ([]candle.Candle, error)

	SaveRun(ctx context.Context, run Run) error
	SaveTrades(ctx context.Context, runID string, trades []backtest.Trade) error
	GetTrades(ctx context.Context, runID string) ([]backtest.Trade, error)

	LogEvent(ctx context.Context, event journal.Event) error
	GetEvents(ctx context.Context, eventType string, start, end time.Time) ([]journal.Event, error)

	Close() error
}

// Package exchange
package exchange

import (
	"context"
	"strings"
	"time"

	"github.com/amirphl/signal-engine/internal/candle"
)

// MarketDataSource fetches historical candles from a market data provider.
type MarketDataSource interface {
	Name() string
	FetchCandles(ctx context.Context, symbol, timeframe string, start, end time.Time) ([]candle.Candle, error)
}

// NormalizeSymbol converts e.g. "btc-usdt" to "BTCUSDT".
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(symbol, "-", ""))
}

// NormalizeTimeframe maps our timeframe notation to the provider's
// resolution string ("5m" -> "5").
func NormalizeTimeframe(timeframe string) string {
	return strings.TrimSuffix(timeframe, "m")
}

// Package notifier
package notifier

import (
	"fmt"
	"math"
	"time"

	"github.com/amirphl/signal-engine/internal/backtest"
	"github.com/amirphl/signal-engine/internal/utils"
)

// Notifier interface for sending notifications (e.g., Telegram).
type Notifier interface {
	Send(msg string) error
	SendWithRetry(msg string) error
}

// NoopNotifier discards every message. Used when no notifier is configured.
type NoopNotifier struct{}

func (NoopNotifier) Send(string) error          { return nil }
func (NoopNotifier) SendWithRetry(string) error { return nil }

// SendWithRetry tries n.Send a few times with a fixed delay, logging each
// failure. The last error is returned if all attempts fail.
func SendWithRetry(n Notifier, msg string, attempts int, delay time.Duration) error {
	var err error
	for i := 1; i <= attempts; i++ {
		if err = n.Send(msg); err == nil {
			return nil
		}
		utils.GetLogger().Warnw("notification attempt failed",
			"attempt", i, "max_attempts", attempts, "error", err)
		if i == attempts {
			break
		}
		time.Sleep(delay)
	}
	return err
}

// SummaryMessage formats one run's headline numbers for a chat message.
func SummaryMessage(symbol, timeframe, profile string, s backtest.Summary) string {
	pf := fmt.Sprintf("%.2f", s.ProfitFactor)
	if math.IsInf(s.ProfitFactor, 1) {
		pf = "inf"
	}
	return fmt.Sprintf(
		"Backtest %s %s [%s]\ntrades: %d | win rate: %.1f%%\nnet pnl: %.2f (%.2f%%)\nmax drawdown: %.2f%% | profit factor: %s | sharpe: %.2f",
		symbol, timeframe, profile,
		s.TotalTrades, s.WinRate*100,
		s.NetPnL, s.TotalReturnPct,
		s.MaxDrawdown*100, pf, s.SharpeRatio)
}

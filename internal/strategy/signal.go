package strategy

import (
	"fmt"
	"time"
)

// Decision is the final per-bar call.
type Decision string

const (
	Buy  Decision = "BUY"
	Sell Decision = "SELL"
	Hold Decision = "HOLD"
)

// TrendMode selects how the SMA stack is interpreted.
type TrendMode string

const (
	// TrendPullback buys dips in an uptrend: SMA50 > SMA200 with SMA20 below SMA50.
	TrendPullback TrendMode = "pullback"
	// TrendStacked requires the full SMA ordering: SMA20 > SMA50 > SMA200.
	TrendStacked TrendMode = "stacked"
)

// Validate checks that the trend mode is one of the supported values.
func (m TrendMode) Validate() error {
	switch m {
	case TrendPullback, TrendStacked:
		return nil
	default:
		return fmt.Errorf("invalid trend mode: %s (must be %q or %q)", m, TrendPullback, TrendStacked)
	}
}

// ConditionRow holds the per-bar filter outcomes and the derived decision.
type ConditionRow struct {
	Timestamp time.Time `json:"timestamp"`

	TrendLongOK  bool `json:"trend_long_ok"`
	TrendShortOK bool `json:"trend_short_ok"`
	MACDUpOK     bool `json:"macd_up_ok"`
	MACDDownOK   bool `json:"macd_down_ok"`
	RSIUpOK      bool `json:"rsi_up_ok"`
	RSIDownOK    bool `json:"rsi_down_ok"`

	// VolumeOK is only meaningful when the profile enables the volume filter.
	VolumeOK bool `json:"volume_ok"`

	BuySignal  bool     `json:"buy_signal"`
	SellSignal bool     `json:"sell_signal"`
	Decision   Decision `json:"decision"`
}

// MatchesCriteria reports whether the bar produced an actionable signal.
func (r *ConditionRow) MatchesCriteria() bool {
	return r.BuySignal || r.SellSignal
}

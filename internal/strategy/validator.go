package strategy

import (
	"fmt"
	"time"
)

// Validation is the structured result of cross-checking a produced signal
// series. A single inconsistency invalidates the whole run.
type Validation struct {
	Valid       bool    `json:"valid"`
	TotalBars   int     `json:"total_bars"`
	BuySignals  int     `json:"buy_signals"`
	SellSignals int     `json:"sell_signals"`
	HoldSignals int     `json:"hold_signals"`
	SignalRate  float64 `json:"signal_rate"`
}

// ValidateSignals checks the whole produced series for internal consistency:
// no simultaneous buy+sell on one bar, and the decision column must agree
// with the boolean flags.
func ValidateSignals(rows []ConditionRow) (Validation, error) {
	if len(rows) == 0 {
		return Validation{}, ErrEmptyInput
	}

	var buyFlags, sellFlags, buyDecisions, sellDecisions, holds int
	for i := range rows {
		if rows[i].BuySignal && rows[i].SellSignal {
			return Validation{}, fmt.Errorf("%w: simultaneous buy and sell at %s",
				ErrSignalInconsistency, rows[i].Timestamp.Format(time.RFC3339))
		}
		if rows[i].BuySignal {
			buyFlags++
		}
		if rows[i].SellSignal {
			sellFlags++
		}
		switch rows[i].Decision {
		case Buy:
			buyDecisions++
		case Sell:
			sellDecisions++
		case Hold:
			holds++
		}
	}

	if buyFlags != buyDecisions {
		return Validation{}, fmt.Errorf("%w: BUY flag/decision mismatch: %d vs %d",
			ErrSignalInconsistency, buyFlags, buyDecisions)
	}
	if sellFlags != sellDecisions {
		return Validation{}, fmt.Errorf("%w: SELL flag/decision mismatch: %d vs %d",
			ErrSignalInconsistency, sellFlags, sellDecisions)
	}

	return Validation{
		Valid:       true,
		TotalBars:   len(rows),
		BuySignals:  buyFlags,
		SellSignals: sellFlags,
		HoldSignals: holds,
		SignalRate:  float64(buyFlags+sellFlags) / float64(len(rows)),
	}, nil
}

// Summary describes signal frequency over a validated series.
type Summary struct {
	TrendMode        TrendMode  `json:"trend_mode"`
	Validation       Validation `json:"validation"`
	BuyFrequencyPct  float64    `json:"buy_frequency_pct"`
	SellFrequencyPct float64    `json:"sell_frequency_pct"`
	FirstSignalTime  time.Time  `json:"first_signal_time"`
	LastSignalTime   time.Time  `json:"last_signal_time"`
}

// Summarize validates the series and reports signal frequencies and the
// first/last signal timestamps (zero times when no signal fired).
func Summarize(rows []ConditionRow, mode TrendMode) (Summary, error) {
	v, err := ValidateSignals(rows)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{
		TrendMode:        mode,
		Validation:       v,
		BuyFrequencyPct:  float64(v.BuySignals) / float64(v.TotalBars) * 100,
		SellFrequencyPct: float64(v.SellSignals) / float64(v.TotalBars) * 100,
	}
	for i := range rows {
		if !rows[i].MatchesCriteria() {
			continue
		}
		if s.FirstSignalTime.IsZero() {
			s.FirstSignalTime = rows[i].Timestamp
		}
		s.LastSignalTime = rows[i].Timestamp
	}
	return s, nil
}

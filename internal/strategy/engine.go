package strategy

import (
	"errors"
	"fmt"
	"time"

	"github.com/amirphl/signal-engine/internal/indicator"
)

var (
	// ErrEmptyInput is returned when no bars are supplied.
	ErrEmptyInput = errors.New("input series is empty")

	// ErrMissingField is returned when a bar is missing a required indicator
	// value. This is an upstream bug: the engine expects warm-up rows to be
	// dropped before evaluation.
	ErrMissingField = errors.New("missing indicator value")

	// ErrSignalInconsistency is returned when a bar carries both a buy and a
	// sell signal, or when flags and decisions disagree. It indicates a logic
	// defect and is never repaired silently.
	ErrSignalInconsistency = errors.New("signal inconsistency")
)

// Engine derives per-bar condition flags and BUY/SELL/HOLD decisions for one
// strategy profile. It only looks at the current and previous bar, so no
// decision can depend on future data.
type Engine struct {
	profile Profile
	mode    TrendMode
}

// NewEngine validates the profile and trend mode and returns an engine.
func NewEngine(profile Profile, mode TrendMode) (*Engine, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if err := mode.Validate(); err != nil {
		return nil, err
	}
	return &Engine{profile: profile, mode: mode}, nil
}

// Profile returns the profile the engine evaluates.
func (e *Engine) Profile() Profile { return e.profile }

// Mode returns the trend mode the engine evaluates.
func (e *Engine) Mode() TrendMode { return e.mode }

// Evaluate produces one ConditionRow per input bar.
func (e *Engine) Evaluate(bars []indicator.Bar) ([]ConditionRow, error) {
	if len(bars) == 0 {
		return nil, ErrEmptyInput
	}
	for i := range bars {
		if bars[i].HasNaN() {
			return nil, fmt.Errorf("%w at %s", ErrMissingField, bars[i].Timestamp.Format(time.RFC3339))
		}
	}

	trendLong, trendShort := e.trendFilters(bars)
	rows := make([]ConditionRow, len(bars))

	for i := range bars {
		row := ConditionRow{
			Timestamp:    bars[i].Timestamp,
			TrendLongOK:  trendLong[i],
			TrendShortOK: trendShort[i],
		}
		row.MACDUpOK, row.MACDDownOK = e.macdFilter(bars, i)
		row.RSIUpOK, row.RSIDownOK = e.rsiFilter(bars, i)
		if e.profile.UseVolumeFilter {
			row.VolumeOK = e.volumeFilter(bars, i)
		}

		longCount := countTrue(row.TrendLongOK, row.MACDUpOK, row.RSIUpOK)
		shortCount := countTrue(row.TrendShortOK, row.MACDDownOK, row.RSIDownOK)
		if e.profile.UseVolumeFilter && row.VolumeOK {
			longCount++
			shortCount++
		}

		row.BuySignal = longCount >= e.profile.IndicatorsRequired
		row.SellSignal = shortCount >= e.profile.IndicatorsRequired
		if row.BuySignal && row.SellSignal {
			return nil, fmt.Errorf("%w: simultaneous buy and sell at %s", ErrSignalInconsistency, row.Timestamp.Format(time.RFC3339))
		}

		switch {
		case row.BuySignal:
			row.Decision = Buy
		case row.SellSignal:
			row.Decision = Sell
		default:
			row.Decision = Hold
		}
		rows[i] = row
	}

	return rows, nil
}

// trendFilters computes the raw per-bar trend conditions and applies the
// profile's consecutive-bar confirmation window.
func (e *Engine) trendFilters(bars []indicator.Bar) (long, short []bool) {
	long = make([]bool, len(bars))
	short = make([]bool, len(bars))
	for i := range bars {
		switch e.mode {
		case TrendStacked:
			long[i] = bars[i].SMA20 > bars[i].SMA50 && bars[i].SMA50 > bars[i].SMA200
			short[i] = bars[i].SMA20 < bars[i].SMA50 && bars[i].SMA50 < bars[i].SMA200
		default: // TrendPullback
			long[i] = bars[i].SMA50 > bars[i].SMA200 && bars[i].SMA20 < bars[i].SMA50
			short[i] = bars[i].SMA50 < bars[i].SMA200 && bars[i].SMA20 > bars[i].SMA50
		}
	}
	if n := e.profile.TrendConfirmationPeriods; n > 1 {
		long = confirmConsecutive(long, n)
		short = confirmConsecutive(short, n)
	}
	return long, short
}

// confirmConsecutive requires the condition to hold for n consecutive bars
// ending at each position. Positions without n trailing bars are false.
func confirmConsecutive(raw []bool, n int) []bool {
	out := make([]bool, len(raw))
	run := 0
	for i, ok := range raw {
		if ok {
			run++
		} else {
			run = 0
		}
		out[i] = run >= n
	}
	return out
}

func (e *Engine) macdFilter(bars []indicator.Bar, i int) (up, down bool) {
	if i == 0 {
		return false, false
	}
	prevM, prevS := bars[i-1].MACD, bars[i-1].MACDSignal
	currM, currS := bars[i].MACD, bars[i].MACDSignal

	up = prevM <= prevS && currM > currS
	down = prevM >= prevS && currM < currS
	if e.profile.MACDRequireZeroCross {
		up = up && currM < 0 && currS < 0
		down = down && currM > 0 && currS > 0
	}
	return up, down
}

func (e *Engine) rsiFilter(bars []indicator.Bar, i int) (up, down bool) {
	if i == 0 {
		return false, false
	}
	prev, curr := bars[i-1].RSI, bars[i].RSI
	up = prev < 50 && curr > e.profile.RSIBuyThreshold
	down = prev > 50 && curr < e.profile.RSISellThreshold
	return up, down
}

// volumeFilter checks the current volume against the trailing simple average
// over the lookback window ending at the current bar. Incomplete windows
// are false.
func (e *Engine) volumeFilter(bars []indicator.Bar, i int) bool {
	n := e.profile.VolumeLookbackPeriods
	if i+1 < n {
		return false
	}
	var sum float64
	for j := i - n + 1; j <= i; j++ {
		sum += bars[j].Volume
	}
	return bars[i].Volume > sum/float64(n)
}

func countTrue(flags ...bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}

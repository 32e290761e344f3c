package indicator

import (
	"errors"
	"fmt"
	"math"

	"github.com/amirphl/signal-engine/internal/candle"
)

// ErrInsufficientData is returned when a series is too short to survive
// warm-up removal.
var ErrInsufficientData = errors.New("insufficient data for indicator warm-up")

// Bar is one candle enriched with the indicator columns the signal engine
// consumes. Values inside an indicator's warm-up window are NaN.
type Bar struct {
	candle.Candle

	SMA20      float64 `json:"sma_20"`
	SMA50      float64 `json:"sma_50"`
	SMA200     float64 `json:"sma_200"`
	MACD       float64 `json:"macd"`
	MACDSignal float64 `json:"macd_signal"`
	RSI        float64 `json:"rsi"`
}

// HasNaN reports whether any indicator column is still NaN.
func (b *Bar) HasNaN() bool {
	return math.IsNaN(b.SMA20) || math.IsNaN(b.SMA50) || math.IsNaN(b.SMA200) ||
		math.IsNaN(b.MACD) || math.IsNaN(b.MACDSignal) || math.IsNaN(b.RSI)
}

// Params configures indicator computation.
type Params struct {
	FastSMA   int
	MidSMA    int
	SlowSMA   int
	MACDFast  int
	MACDSlow  int
	MACDSig   int
	RSIPeriod int
	WilderRSI bool
}

// DefaultParams returns the standard SMA(20/50/200) + MACD(12,26,9) +
// Wilder RSI(14) parameter set.
func DefaultParams() Params {
	return Params{
		FastSMA:   20,
		MidSMA:    50,
		SlowSMA:   200,
		MACDFast:  12,
		MACDSlow:  26,
		MACDSig:   9,
		RSIPeriod: 14,
		WilderRSI: true,
	}
}

// Compute attaches all indicator columns to a candle series.
func Compute(candles []candle.Candle, p Params) ([]Bar, error) {
	if len(candles) == 0 {
		return nil, candle.ErrEmptySeries
	}

	closes := candle.Closes(candles)

	sma20 := SMA(closes, p.FastSMA)
	sma50 := SMA(closes, p.MidSMA)
	sma200 := SMA(closes, p.SlowSMA)
	macd := MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSig)

	var rsi []float64
	if p.WilderRSI {
		rsi = WilderRSI(closes, p.RSIPeriod)
	} else {
		rsi = SimpleRSI(closes, p.RSIPeriod)
	}

	bars := make([]Bar, len(candles))
	for i := range candles {
		bars[i] = Bar{
			Candle:     candles[i],
			SMA20:      sma20[i],
			SMA50:      sma50[i],
			SMA200:     sma200[i],
			MACD:       macd.Line[i],
			MACDSignal: macd.Signal[i],
			RSI:        rsi[i],
		}
	}
	return bars, nil
}

// DropWarmup removes the first minWarmup bars plus any remaining leading
// bars with NaN indicator values, so the signal engine never sees an
// incomplete row.
func DropWarmup(bars []Bar, minWarmup int) ([]Bar, error) {
	if len(bars) <= minWarmup {
		return nil, fmt.Errorf("%w: %d bars, need more than %d", ErrInsufficientData, len(bars), minWarmup)
	}

	out := bars[minWarmup:]
	start := 0
	for start < len(out) && out[start].HasNaN() {
		start++
	}
	if start == len(out) {
		return nil, fmt.Errorf("%w: no complete indicator rows after warm-up", ErrInsufficientData)
	}
	return out[start:], nil
}

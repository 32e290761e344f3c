// Package candle
package candle

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrEmptySeries is returned when an operation expects at least one candle.
var ErrEmptySeries = errors.New("candle series is empty")

type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	Symbol    string    `json:"symbol"`
	Timeframe string    `json:"timeframe"`
	Source    string    `json:"source"`
}

// Validate checks if a candle has valid data
func (c *Candle) Validate() error {
	if c.Timestamp.IsZero() {
		return errors.New("candle timestamp is zero")
	}
	if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
		return errors.New("candle prices must be positive")
	}
	if c.High < c.Low {
		return errors.New("candle high cannot be less than low")
	}
	if c.Open < c.Low || c.Open > c.High {
		return errors.New("candle open price must be between high and low")
	}
	if c.Close < c.Low || c.Close > c.High {
		return errors.New("candle close price must be between high and low")
	}
	if c.Volume < 0 {
		return errors.New("candle volume cannot be negative")
	}
	if c.Symbol == "" {
		return errors.New("candle symbol cannot be empty")
	}
	if c.Timeframe == "" {
		return errors.New("candle timeframe cannot be empty")
	}
	return nil
}

// ValidateSeries checks that a series is suitable as engine input:
// every candle valid, strictly increasing timestamps, no duplicates,
// and at least minBars entries.
func ValidateSeries(candles []Candle, minBars int) error {
	if len(candles) == 0 {
		return ErrEmptySeries
	}
	if len(candles) < minBars {
		return fmt.Errorf("insufficient data: %d bars, need at least %d", len(candles), minBars)
	}
	for i := range candles {
		if err := candles[i].Validate(); err != nil {
			return fmt.Errorf("candle at %s: %w", candles[i].Timestamp.Format(time.RFC3339), err)
		}
		if i > 0 && !candles[i].Timestamp.After(candles[i-1].Timestamp) {
			return fmt.Errorf("candles out of order at %s", candles[i].Timestamp.Format(time.RFC3339))
		}
	}
	return nil
}

// SortByTimestamp sorts candles chronologically in place.
func SortByTimestamp(candles []Candle) {
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})
}

// Closes extracts the close price column.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i := range candles {
		out[i] = candles[i].Close
	}
	return out
}

// Volumes extracts the volume column.
func Volumes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i := range candles {
		out[i] = candles[i].Volume
	}
	return out
}

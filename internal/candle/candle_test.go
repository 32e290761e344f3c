package candle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCandle(ts time.Time) Candle {
	return Candle{
		Timestamp: ts,
		Open:      100,
		High:      105,
		Low:       95,
		Close:     102,
		Volume:    1000,
		Symbol:    "BTCUSDT",
		Timeframe: "5m",
		Source:    "test",
	}
}

func TestCandleValidate(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("Valid candle", func(t *testing.T) {
		c := validCandle(now)
		assert.NoError(t, c.Validate())
	})

	tests := []struct {
		name   string
		mutate func(*Candle)
	}{
		{"Zero timestamp", func(c *Candle) { c.Timestamp = time.Time{} }},
		{"Non-positive price", func(c *Candle) { c.Close = 0 }},
		{"High below low", func(c *Candle) { c.High = 90 }},
		{"Open above high", func(c *Candle) { c.Open = 110 }},
		{"Close below low", func(c *Candle) { c.Close = 90 }},
		{"Negative volume", func(c *Candle) { c.Volume = -1 }},
		{"Empty symbol", func(c *Candle) { c.Symbol = "" }},
		{"Empty timeframe", func(c *Candle) { c.Timeframe = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCandle(now)
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestValidateSeries(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("Empty series", func(t *testing.T) {
		assert.ErrorIs(t, ValidateSeries(nil, 1), ErrEmptySeries)
	})

	t.Run("Too short", func(t *testing.T) {
		candles := []Candle{validCandle(base)}
		assert.Error(t, ValidateSeries(candles, 2))
	})

	t.Run("Out of order", func(t *testing.T) {
		candles := []Candle{
			validCandle(base.Add(5 * time.Minute)),
			validCandle(base),
		}
		assert.Error(t, ValidateSeries(candles, 1))
	})

	t.Run("Duplicate timestamp", func(t *testing.T) {
		candles := []Candle{validCandle(base), validCandle(base)}
		assert.Error(t, ValidateSeries(candles, 1))
	})

	t.Run("Valid series", func(t *testing.T) {
		candles := []Candle{
			validCandle(base),
			validCandle(base.Add(5 * time.Minute)),
			validCandle(base.Add(10 * time.Minute)),
		}
		assert.NoError(t, ValidateSeries(candles, 3))
	})
}

func TestSortByTimestamp(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	candles := []Candle{
		validCandle(base.Add(10 * time.Minute)),
		validCandle(base),
		validCandle(base.Add(5 * time.Minute)),
	}
	SortByTimestamp(candles)
	require.Len(t, candles, 3)
	assert.Equal(t, base, candles[0].Timestamp)
	assert.Equal(t, base.Add(10*time.Minute), candles[2].Timestamp)
}

func TestColumnExtraction(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	a := validCandle(base)
	b := validCandle(base.Add(5 * time.Minute))
	b.Close = 104
	b.Volume = 2000

	assert.Equal(t, []float64{102, 104}, Closes([]Candle{a, b}))
	assert.Equal(t, []float64{1000, 2000}, Volumes([]Candle{a, b}))
}

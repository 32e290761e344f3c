package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirphl/signal-engine/internal/candle"
)

func TestSMA(t *testing.T) {
	t.Run("Basic window", func(t *testing.T) {
		out := SMA([]float64{1, 2, 3, 4, 5}, 3)
		require.Len(t, out, 5)
		assert.True(t, math.IsNaN(out[0]))
		assert.True(t, math.IsNaN(out[1]))
		assert.InDelta(t, 2.0, out[2], 1e-12)
		assert.InDelta(t, 3.0, out[3], 1e-12)
		assert.InDelta(t, 4.0, out[4], 1e-12)
	})

	t.Run("Period one is identity", func(t *testing.T) {
		out := SMA([]float64{7, 8, 9}, 1)
		assert.Equal(t, []float64{7, 8, 9}, out)
	})

	t.Run("Invalid period yields NaN", func(t *testing.T) {
		out := SMA([]float64{1, 2}, 0)
		assert.True(t, math.IsNaN(out[0]))
		assert.True(t, math.IsNaN(out[1]))
	})

	t.Run("Empty input", func(t *testing.T) {
		assert.Empty(t, SMA(nil, 3))
	})
}

func TestEMA(t *testing.T) {
	t.Run("Span three recursion", func(t *testing.T) {
		// alpha = 0.5: out = [2, 3, 5.5]
		out := EMA([]float64{2, 4, 8}, 3)
		require.Len(t, out, 3)
		assert.InDelta(t, 2.0, out[0], 1e-12)
		assert.InDelta(t, 3.0, out[1], 1e-12)
		assert.InDelta(t, 5.5, out[2], 1e-12)
	})

	t.Run("Constant series stays constant", func(t *testing.T) {
		out := EMA([]float64{5, 5, 5, 5}, 10)
		for _, v := range out {
			assert.InDelta(t, 5.0, v, 1e-12)
		}
	})
}

func TestMACD(t *testing.T) {
	t.Run("Constant series gives zero lines", func(t *testing.T) {
		values := []float64{100, 100, 100, 100, 100}
		res := MACD(values, 12, 26, 9)
		require.Len(t, res.Line, len(values))
		require.Len(t, res.Signal, len(values))
		for i := range values {
			assert.InDelta(t, 0.0, res.Line[i], 1e-12)
			assert.InDelta(t, 0.0, res.Signal[i], 1e-12)
		}
	})

	t.Run("Rising series gives positive MACD", func(t *testing.T) {
		values := make([]float64, 60)
		for i := range values {
			values[i] = 100 + float64(i)
		}
		res := MACD(values, 12, 26, 9)
		assert.Greater(t, res.Line[len(values)-1], 0.0)
		assert.Greater(t, res.Signal[len(values)-1], 0.0)
	})
}

func TestWilderRSI(t *testing.T) {
	t.Run("Flat series has no RSI", func(t *testing.T) {
		out := WilderRSI([]float64{10, 10, 10}, 14)
		for _, v := range out {
			assert.True(t, math.IsNaN(v))
		}
	})

	t.Run("Pure uptrend saturates at 100", func(t *testing.T) {
		values := []float64{1, 2, 3, 4, 5, 6}
		out := WilderRSI(values, 14)
		assert.True(t, math.IsNaN(out[0]))
		for _, v := range out[1:] {
			assert.InDelta(t, 100.0, v, 1e-12)
		}
	})

	t.Run("Pure downtrend saturates at 0", func(t *testing.T) {
		values := []float64{6, 5, 4, 3, 2, 1}
		out := WilderRSI(values, 14)
		for _, v := range out[1:] {
			assert.InDelta(t, 0.0, v, 1e-12)
		}
	})

	t.Run("Mixed moves stay between 0 and 100", func(t *testing.T) {
		values := []float64{100, 102, 101, 105, 103, 108, 107, 110}
		out := WilderRSI(values, 3)
		for _, v := range out[1:] {
			assert.Greater(t, v, 0.0)
			assert.Less(t, v, 100.0)
		}
	})
}

func TestSimpleRSI(t *testing.T) {
	out := SimpleRSI([]float64{100, 101, 102, 101, 103, 104}, 3)
	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	for _, v := range out[2:] {
		assert.False(t, math.IsNaN(v))
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
}

func testCandles(n int) []candle.Candle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]candle.Candle, n)
	for i := range out {
		price := 100 + math.Sin(float64(i)/5)*10
		out[i] = candle.Candle{
			Timestamp: base.Add(time.Duration(i) * 5 * time.Minute),
			Open:      price,
			High:      price + 1,
			Low:       price - 1,
			Close:     price + 0.5,
			Volume:    1000 + float64(i),
			Symbol:    "BTCUSDT",
			Timeframe: "5m",
			Source:    "test",
		}
	}
	return out
}

func TestCompute(t *testing.T) {
	t.Run("Empty input", func(t *testing.T) {
		_, err := Compute(nil, DefaultParams())
		assert.ErrorIs(t, err, candle.ErrEmptySeries)
	})

	t.Run("Columns attached", func(t *testing.T) {
		candles := testCandles(250)
		bars, err := Compute(candles, DefaultParams())
		require.NoError(t, err)
		require.Len(t, bars, len(candles))

		// Warm-up rows carry NaN for the slow SMA.
		assert.True(t, math.IsNaN(bars[100].SMA200))
		// After the warm-up, everything is filled.
		last := bars[len(bars)-1]
		assert.False(t, last.HasNaN())
		assert.Equal(t, candles[len(candles)-1].Close, last.Close)
	})
}

func TestDropWarmup(t *testing.T) {
	t.Run("Too short", func(t *testing.T) {
		candles := testCandles(150)
		bars, err := Compute(candles, DefaultParams())
		require.NoError(t, err)
		_, err = DropWarmup(bars, 200)
		assert.ErrorIs(t, err, ErrInsufficientData)
	})

	t.Run("No NaN rows survive", func(t *testing.T) {
		candles := testCandles(260)
		bars, err := Compute(candles, DefaultParams())
		require.NoError(t, err)
		out, err := DropWarmup(bars, 200)
		require.NoError(t, err)
		require.NotEmpty(t, out)
		for i := range out {
			assert.False(t, out[i].HasNaN(), "bar %d still has NaN", i)
		}
		// Chronological order is preserved.
		assert.Equal(t, candles[len(candles)-1].Timestamp, out[len(out)-1].Timestamp)
	})
}

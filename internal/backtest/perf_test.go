package backtest

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func curve(equities ...float64) []EquitySample {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	out := make([]EquitySample, len(equities))
	for i, eq := range equities {
		out[i] = EquitySample{
			Timestamp:   base.Add(time.Duration(i) * 5 * time.Minute),
			Capital:     eq,
			TotalEquity: eq,
		}
	}
	return out
}

func TestAnalyzeNoTrades(t *testing.T) {
	res := &Result{InitialCapital: 10000, FinalCapital: 10000, EquityCurve: curve(10000, 10000, 10000)}
	s := Analyze(res)
	assert.Equal(t, 10000.0, s.InitialCapital)
	assert.Equal(t, 10000.0, s.FinalCapital)
	assert.Zero(t, s.TotalTrades)
	assert.Zero(t, s.WinRate)
	assert.Zero(t, s.ProfitFactor)
	assert.Zero(t, s.SharpeRatio)
	assert.Zero(t, s.MaxDrawdown)
}

func TestAnalyzeMixedTrades(t *testing.T) {
	res := &Result{
		InitialCapital: 10000,
		FinalCapital:   10000 + 10 - 4 - 3,
		Trades: []Trade{
			{PnL: 6, Commission: 1},
			{PnL: 4, Commission: 1},
			{PnL: -4, Commission: 1},
		},
		EquityCurve: curve(10000, 10006, 10010, 10003),
	}
	s := Analyze(res)
	assert.Equal(t, 3, s.TotalTrades)
	assert.Equal(t, 2, s.WinningTrades)
	assert.Equal(t, 1, s.LosingTrades)
	assert.InDelta(t, 2.0/3.0, s.WinRate, 1e-12)
	assert.InDelta(t, 5.0, s.AvgWin, 1e-12)
	assert.InDelta(t, 4.0, s.AvgLoss, 1e-12)
	assert.InDelta(t, 10.0, s.GrossProfit, 1e-12)
	assert.InDelta(t, 4.0, s.GrossLoss, 1e-12)
	assert.InDelta(t, 6.0, s.TotalPnL, 1e-12)
	assert.InDelta(t, 3.0, s.TotalCommission, 1e-12)
	assert.InDelta(t, 3.0, s.NetPnL, 1e-12)
	assert.InDelta(t, 0.03, s.TotalReturnPct, 1e-12)
	assert.InDelta(t, 2.5, s.ProfitFactor, 1e-12)
}

func TestProfitFactorEdges(t *testing.T) {
	t.Run("Only winners is infinite", func(t *testing.T) {
		res := &Result{Trades: []Trade{{PnL: 5}}, EquityCurve: curve(100, 105)}
		s := Analyze(res)
		assert.True(t, math.IsInf(s.ProfitFactor, 1))
	})

	t.Run("All flat trades is zero", func(t *testing.T) {
		res := &Result{Trades: []Trade{{PnL: 0}}, EquityCurve: curve(100, 100)}
		s := Analyze(res)
		assert.Zero(t, s.ProfitFactor)
	})
}

func TestMaxDrawdown(t *testing.T) {
	t.Run("Monotonic equity never draws down", func(t *testing.T) {
		assert.Zero(t, maxDrawdown(curve(100, 110, 120)))
	})

	t.Run("Deepest dip below running peak", func(t *testing.T) {
		// Peak 120, trough 90: drawdown -25%.
		dd := maxDrawdown(curve(100, 120, 90, 110, 100))
		assert.InDelta(t, -0.25, dd, 1e-12)
	})

	t.Run("Empty curve", func(t *testing.T) {
		assert.Zero(t, maxDrawdown(nil))
	})
}

func TestSharpeRatio(t *testing.T) {
	t.Run("Too few samples", func(t *testing.T) {
		assert.Zero(t, sharpeRatio(curve(100, 110)))
	})

	t.Run("Zero variance", func(t *testing.T) {
		// Constant percentage growth: every return is exactly 10%.
		assert.Zero(t, sharpeRatio(curve(100, 110, 121)))
	})

	t.Run("Known value", func(t *testing.T) {
		// Returns 10% then 5%: mean 0.075, sample std 0.025*sqrt(2).
		got := sharpeRatio(curve(100, 110, 115.5))
		mean := 0.075
		std := math.Sqrt((0.025*0.025 + 0.025*0.025) / 1)
		want := mean / std * math.Sqrt(252)
		assert.InDelta(t, want, got, 1e-9)
	})
}

func TestSummaryJSON(t *testing.T) {
	t.Run("Infinite profit factor serializes as inf", func(t *testing.T) {
		res := &Result{
			InitialCapital: 1000,
			FinalCapital:   1010,
			Trades:         []Trade{{PnL: 10, Commission: 0}},
			EquityCurve:    curve(1000, 1010),
		}
		s := Analyze(res)
		require.True(t, math.IsInf(s.ProfitFactor, 1))

		data, err := json.Marshal(s)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"profit_factor":"inf"`)

		var decoded Summary
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.True(t, math.IsInf(decoded.ProfitFactor, 1))
		assert.Equal(t, s.NetPnL, decoded.NetPnL)
	})

	t.Run("Finite profit factor stays numeric", func(t *testing.T) {
		s := Summary{ProfitFactor: 2.5, TotalTrades: 3}
		data, err := json.Marshal(s)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"profit_factor":2.5`)

		var decoded Summary
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, 2.5, decoded.ProfitFactor)
		assert.Equal(t, 3, decoded.TotalTrades)
	})
}

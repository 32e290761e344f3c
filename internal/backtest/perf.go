package backtest

import (
	"encoding/json"
	"math"
)

// tradingDaysPerYear is the annualization base for the Sharpe ratio,
// applied regardless of the actual bar interval.
const tradingDaysPerYear = 252

// Summary reduces a simulation result to its performance statistics.
// WinRate and MaxDrawdown are fractions (drawdown is zero or negative);
// TotalReturnPct is a percentage. ProfitFactor may be +Inf.
type Summary struct {
	InitialCapital  float64 `json:"initial_capital"`
	FinalCapital    float64 `json:"final_capital"`
	TotalTrades     int     `json:"total_trades"`
	WinningTrades   int     `json:"winning_trades"`
	LosingTrades    int     `json:"losing_trades"`
	WinRate         float64 `json:"win_rate"`
	AvgWin          float64 `json:"avg_win"`
	AvgLoss         float64 `json:"avg_loss"`
	GrossProfit     float64 `json:"gross_profit"`
	GrossLoss       float64 `json:"gross_loss"`
	TotalPnL        float64 `json:"total_pnl"`
	TotalCommission float64 `json:"total_commission"`
	NetPnL          float64 `json:"net_pnl"`
	TotalReturn     float64 `json:"total_return"`
	TotalReturnPct  float64 `json:"total_return_pct"`
	MaxDrawdown     float64 `json:"max_drawdown"`
	ProfitFactor    float64 `json:"profit_factor"`
	SharpeRatio     float64 `json:"sharpe_ratio"`
}

// Analyze computes the summary statistics for one simulation result.
// A result with zero trades yields the defined-empty summary rather than
// an error.
func Analyze(res *Result) Summary {
	s := Summary{
		InitialCapital: res.InitialCapital,
		FinalCapital:   res.FinalCapital,
	}
	if len(res.Trades) == 0 {
		return s
	}

	for _, t := range res.Trades {
		s.TotalPnL += t.PnL
		s.TotalCommission += t.Commission
		switch {
		case t.PnL > 0:
			s.WinningTrades++
			s.GrossProfit += t.PnL
		case t.PnL < 0:
			s.LosingTrades++
			s.GrossLoss += -t.PnL
		}
	}

	s.TotalTrades = len(res.Trades)
	s.NetPnL = s.TotalPnL - s.TotalCommission
	s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades)
	if s.WinningTrades > 0 {
		s.AvgWin = s.GrossProfit / float64(s.WinningTrades)
	}
	if s.LosingTrades > 0 {
		s.AvgLoss = s.GrossLoss / float64(s.LosingTrades)
	}

	switch {
	case s.GrossLoss > 0:
		s.ProfitFactor = s.GrossProfit / s.GrossLoss
	case s.GrossProfit > 0:
		s.ProfitFactor = math.Inf(1)
	default:
		s.ProfitFactor = 0
	}

	s.TotalReturn = s.NetPnL
	if s.InitialCapital != 0 {
		s.TotalReturnPct = s.NetPnL / s.InitialCapital * 100
	}

	s.MaxDrawdown = maxDrawdown(res.EquityCurve)
	s.SharpeRatio = sharpeRatio(res.EquityCurve)
	return s
}

// maxDrawdown returns the most negative relative dip of total equity below
// its running peak, as a fraction (0 when equity never dips).
func maxDrawdown(curve []EquitySample) float64 {
	if len(curve) == 0 {
		return 0
	}
	runningMax := curve[0].TotalEquity
	minDD := 0.0
	for _, p := range curve {
		if p.TotalEquity > runningMax {
			runningMax = p.TotalEquity
		}
		dd := (p.TotalEquity - runningMax) / runningMax
		if dd < minDD {
			minDD = dd
		}
	}
	return minDD
}

// sharpeRatio computes mean/stdev of bar-over-bar equity percentage changes,
// annualized with a fixed sqrt(252). The standard deviation is the sample
// form (n-1 denominator). Fewer than two returns, or zero deviation,
// yields 0.
func sharpeRatio(curve []EquitySample) float64 {
	if len(curve) < 3 {
		return 0
	}
	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].TotalEquity
		returns = append(returns, (curve[i].TotalEquity-prev)/prev)
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var sumSq float64
	for _, r := range returns {
		d := r - mean
		sumSq += d * d
	}
	std := math.Sqrt(sumSq / float64(len(returns)-1))
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(tradingDaysPerYear)
}

// profitFactorInf is the serialized form of an infinite profit factor.
// encoding/json rejects IEEE infinities, so the sentinel string stands in
// on the wire.
const profitFactorInf = "inf"

// MarshalJSON encodes an infinite profit factor as the string "inf";
// every other field serializes as usual.
func (s Summary) MarshalJSON() ([]byte, error) {
	type alias Summary
	aux := struct {
		alias
		ProfitFactor any `json:"profit_factor"`
	}{alias: alias(s), ProfitFactor: s.ProfitFactor}
	if math.IsInf(s.ProfitFactor, 1) {
		aux.ProfitFactor = profitFactorInf
	}
	return json.Marshal(aux)
}

// UnmarshalJSON accepts both the numeric profit factor and the "inf"
// sentinel.
func (s *Summary) UnmarshalJSON(data []byte) error {
	type alias Summary
	aux := struct {
		*alias
		ProfitFactor any `json:"profit_factor"`
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	switch v := aux.ProfitFactor.(type) {
	case string:
		if v == profitFactorInf {
			s.ProfitFactor = math.Inf(1)
		}
	case float64:
		s.ProfitFactor = v
	}
	return nil
}

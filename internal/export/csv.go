package export

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

// CSVSaver writes a sectioned report: summary metrics, then the trade log,
// then the equity curve, separated by blank lines.
type CSVSaver struct{}

func (CSVSaver) Extension() string { return "csv" }

func (CSVSaver) Save(report *Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()

	header := [][]string{
		{"run_id", report.RunID},
		{"symbol", report.Symbol},
		{"timeframe", report.Timeframe},
		{"profile", report.Profile},
		{"trend_mode", report.TrendMode},
		{"generated_at", report.GeneratedAt.UTC().Format(time.RFC3339)},
	}
	for _, rec := range header {
		if err := w.Write(rec); err != nil {
			return err
		}
	}

	if err := w.Write([]string{""}); err != nil {
		return err
	}
	if err := w.Write([]string{"metric", "value"}); err != nil {
		return err
	}
	s := report.Summary
	metrics := [][]string{
		{"initial_capital", floatStr(s.InitialCapital)},
		{"final_capital", floatStr(s.FinalCapital)},
		{"total_trades", strconv.Itoa(s.TotalTrades)},
		{"winning_trades", strconv.Itoa(s.WinningTrades)},
		{"losing_trades", strconv.Itoa(s.LosingTrades)},
		{"win_rate", floatStr(s.WinRate)},
		{"avg_win", floatStr(s.AvgWin)},
		{"avg_loss", floatStr(s.AvgLoss)},
		{"gross_profit", floatStr(s.GrossProfit)},
		{"gross_loss", floatStr(s.GrossLoss)},
		{"total_pnl", floatStr(s.TotalPnL)},
		{"total_commission", floatStr(s.TotalCommission)},
		{"net_pnl", floatStr(s.NetPnL)},
		{"total_return", floatStr(s.TotalReturn)},
		{"total_return_pct", floatStr(s.TotalReturnPct)},
		{"max_drawdown", floatStr(s.MaxDrawdown)},
		{"profit_factor", floatStr(s.ProfitFactor)},
		{"sharpe_ratio", floatStr(s.SharpeRatio)},
	}
	for _, rec := range metrics {
		if err := w.Write(rec); err != nil {
			return err
		}
	}

	if len(report.Signals) > 0 {
		if err := w.Write([]string{""}); err != nil {
			return err
		}
		if err := w.Write([]string{"timestamp", "trend_long_ok", "trend_short_ok", "macd_up_ok", "macd_down_ok", "rsi_up_ok", "rsi_down_ok", "volume_ok", "decision"}); err != nil {
			return err
		}
		for _, s := range report.signalRows() {
			if err := w.Write([]string{
				strconv.FormatInt(s.Timestamp, 10),
				strconv.FormatBool(s.TrendLongOK),
				strconv.FormatBool(s.TrendShortOK),
				strconv.FormatBool(s.MACDUpOK),
				strconv.FormatBool(s.MACDDownOK),
				strconv.FormatBool(s.RSIUpOK),
				strconv.FormatBool(s.RSIDownOK),
				strconv.FormatBool(s.VolumeOK),
				s.Decision,
			}); err != nil {
				return err
			}
		}
	}

	if err := w.Write([]string{""}); err != nil {
		return err
	}
	if err := w.Write([]string{"entry_time", "exit_time", "entry_price", "exit_price", "side", "pnl", "commission"}); err != nil {
		return err
	}
	for _, t := range report.tradeRows() {
		if err := w.Write([]string{
			strconv.FormatInt(t.EntryTime, 10),
			strconv.FormatInt(t.ExitTime, 10),
			floatStr(t.EntryPrice),
			floatStr(t.ExitPrice),
			t.Side,
			floatStr(t.PnL),
			floatStr(t.Commission),
		}); err != nil {
			return err
		}
	}

	if err := w.Write([]string{""}); err != nil {
		return err
	}
	if err := w.Write([]string{"timestamp", "capital", "unrealized_pnl", "total_equity", "side", "mark_price"}); err != nil {
		return err
	}
	for _, p := range report.equityRows() {
		if err := w.Write([]string{
			strconv.FormatInt(p.Timestamp, 10),
			floatStr(p.Capital),
			floatStr(p.UnrealizedPnL),
			floatStr(p.TotalEquity),
			p.Side,
			floatStr(p.MarkPrice),
		}); err != nil {
			return err
		}
	}
	return nil
}

func floatStr(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

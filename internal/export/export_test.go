package export

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirphl/signal-engine/internal/backtest"
	"github.com/amirphl/signal-engine/internal/candle"
	"github.com/amirphl/signal-engine/internal/indicator"
	"github.com/amirphl/signal-engine/internal/strategy"
)

func testReport() *Report {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return &Report{
		RunID:       "run-1",
		Symbol:      "BTC-USDT",
		Timeframe:   "5m",
		Profile:     "current",
		TrendMode:   "pullback",
		GeneratedAt: base,
		Summary: backtest.Summary{
			InitialCapital: 10000,
			FinalCapital:   10010,
			TotalTrades:    1,
			WinningTrades:  1,
			WinRate:        1,
			NetPnL:         10,
		},
		Signals: []strategy.ConditionRow{
			{Timestamp: base.Add(-2 * time.Hour), Decision: strategy.Hold},
			{Timestamp: base.Add(-time.Hour), TrendLongOK: true, MACDUpOK: true, RSIUpOK: true, BuySignal: true, Decision: strategy.Buy},
		},
		Trades: []backtest.Trade{
			{
				EntryTime:  base.Add(-time.Hour),
				ExitTime:   base,
				EntryPrice: 100,
				ExitPrice:  110,
				Side:       backtest.Long,
				PnL:        10,
			},
		},
		EquityCurve: []backtest.EquitySample{
			{Timestamp: base.Add(-time.Hour), Capital: 10000, TotalEquity: 10000},
			{Timestamp: base, Capital: 10010, TotalEquity: 10010},
		},
	}
}

func TestNewReportSaver(t *testing.T) {
	assert.IsType(t, CSVSaver{}, NewReportSaver("csv"))
	assert.IsType(t, JSONSaver{}, NewReportSaver("JSON"))
	assert.IsType(t, ParquetSaver{}, NewReportSaver(" parquet "))
	assert.Nil(t, NewReportSaver("xml"))
}

func TestWriteFilename(t *testing.T) {
	dir := t.TempDir()
	path, err := Write(dir, testReport(), JSONSaver{})
	require.NoError(t, err)
	assert.Equal(t, "backtest_BTCUSDT_current_20240301_120000.json", filepath.Base(path))

	_, err = Write(dir, testReport(), nil)
	assert.Error(t, err)
}

func TestJSONSaver(t *testing.T) {
	dir := t.TempDir()
	report := testReport()
	path, err := Write(dir, report, JSONSaver{})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, report.RunID, decoded.RunID)
	assert.Equal(t, report.Summary.NetPnL, decoded.Summary.NetPnL)
	require.Len(t, decoded.Trades, 1)
	assert.Equal(t, report.Trades[0].PnL, decoded.Trades[0].PnL)
}

func TestJSONSaverInfiniteProfitFactor(t *testing.T) {
	// A run with only winning trades has an infinite profit factor, which
	// encoding/json rejects as a number. The report must still serialize,
	// carrying the "inf" sentinel instead of failing the export.
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	opens := []float64{100, 100, 102, 104}
	closes := []float64{100, 102, 104, 106}
	bars := make([]indicator.Bar, len(opens))
	rows := make([]strategy.ConditionRow, len(opens))
	for i := range opens {
		bars[i] = indicator.Bar{
			Candle: candle.Candle{
				Timestamp: base.Add(time.Duration(i) * 5 * time.Minute),
				Open:      opens[i],
				High:      closes[i] + 1,
				Low:       opens[i] - 1,
				Close:     closes[i],
				Volume:    1000,
				Symbol:    "BTCUSDT",
				Timeframe: "5m",
				Source:    "test",
			},
			SMA20: 100, SMA50: 100, SMA200: 100, RSI: 50,
		}
		rows[i] = strategy.ConditionRow{Timestamp: bars[i].Timestamp, Decision: strategy.Hold}
	}
	rows[0].Decision = strategy.Buy
	rows[0].BuySignal = true

	bt := backtest.New(backtest.Config{InitialCapital: 10000})
	res, err := bt.Run(bars, rows)
	require.NoError(t, err)
	summary := backtest.Analyze(res)
	require.True(t, math.IsInf(summary.ProfitFactor, 1))

	report := testReport()
	report.Summary = summary
	report.Trades = res.Trades
	report.EquityCurve = res.EquityCurve

	dir := t.TempDir()
	path, err := Write(dir, report, JSONSaver{})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"profit_factor":"inf"`)

	var decoded Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, math.IsInf(decoded.Summary.ProfitFactor, 1))
}

func TestCSVSaver(t *testing.T) {
	dir := t.TempDir()
	path, err := Write(dir, testReport(), CSVSaver{})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "run_id,run-1")
	assert.Contains(t, content, "net_pnl,10")
	assert.Contains(t, content, "entry_time,exit_time,entry_price,exit_price,side,pnl,commission")
	assert.Contains(t, content, "timestamp,trend_long_ok,trend_short_ok,macd_up_ok,macd_down_ok,rsi_up_ok,rsi_down_ok,volume_ok,decision")
	assert.Contains(t, content, "timestamp,capital,unrealized_pnl,total_equity,side,mark_price")
	assert.Contains(t, content, ",long,")
	assert.Contains(t, content, ",BUY")
}

func TestParquetSaver(t *testing.T) {
	dir := t.TempDir()
	path, err := Write(dir, testReport(), ParquetSaver{})
	require.NoError(t, err)

	// Parquet emits the trade table at the main path and the equity curve
	// next to it.
	_, err = os.Stat(path)
	assert.NoError(t, err)
	_, err = os.Stat(strings.TrimSuffix(path, ".parquet") + "_equity.parquet")
	assert.NoError(t, err)
	_, err = os.Stat(strings.TrimSuffix(path, ".parquet") + "_signals.parquet")
	assert.NoError(t, err)
}

func TestRowFlattening(t *testing.T) {
	report := testReport()
	trades := report.tradeRows()
	require.Len(t, trades, 1)
	assert.Equal(t, report.Trades[0].EntryTime.UnixMilli(), trades[0].EntryTime)
	assert.Equal(t, "long", trades[0].Side)

	equity := report.equityRows()
	require.Len(t, equity, 2)
	assert.Equal(t, "flat", equity[0].Side)
	assert.Equal(t, 10010.0, equity[1].TotalEquity)

	signals := report.signalRows()
	require.Len(t, signals, 2)
	assert.Equal(t, "HOLD", signals[0].Decision)
	assert.True(t, signals[1].TrendLongOK)
	assert.Equal(t, "BUY", signals[1].Decision)
}

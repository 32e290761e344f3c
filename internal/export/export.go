// Package export writes backtest reports to disk in csv, json or parquet
// format.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/amirphl/signal-engine/internal/backtest"
	"github.com/amirphl/signal-engine/internal/strategy"
)

// Report is everything one finished backtest run produces.
type Report struct {
	RunID       string                  `json:"run_id"`
	Symbol      string                  `json:"symbol"`
	Timeframe   string                  `json:"timeframe"`
	Profile     string                  `json:"profile"`
	TrendMode   string                  `json:"trend_mode"`
	GeneratedAt time.Time               `json:"generated_at"`
	Summary     backtest.Summary        `json:"summary"`
	Signals     []strategy.ConditionRow `json:"signals,omitempty"`
	Trades      []backtest.Trade        `json:"trades"`
	EquityCurve []backtest.EquitySample `json:"equity_curve"`
}

// SignalRow is a flat, column-oriented view of one condition row.
type SignalRow struct {
	Timestamp    int64  `json:"timestamp" parquet:"timestamp"` // Unix timestamp in milliseconds
	TrendLongOK  bool   `json:"trend_long_ok" parquet:"trend_long_ok"`
	TrendShortOK bool   `json:"trend_short_ok" parquet:"trend_short_ok"`
	MACDUpOK     bool   `json:"macd_up_ok" parquet:"macd_up_ok"`
	MACDDownOK   bool   `json:"macd_down_ok" parquet:"macd_down_ok"`
	RSIUpOK      bool   `json:"rsi_up_ok" parquet:"rsi_up_ok"`
	RSIDownOK    bool   `json:"rsi_down_ok" parquet:"rsi_down_ok"`
	VolumeOK     bool   `json:"volume_ok" parquet:"volume_ok"`
	Decision     string `json:"decision" parquet:"decision"`
}

// TradeRow is a flat, column-oriented view of one trade.
type TradeRow struct {
	EntryTime  int64   `json:"entry_time" parquet:"entry_time"` // Unix timestamp in milliseconds
	ExitTime   int64   `json:"exit_time" parquet:"exit_time"`
	EntryPrice float64 `json:"entry_price" parquet:"entry_price"`
	ExitPrice  float64 `json:"exit_price" parquet:"exit_price"`
	Side       string  `json:"side" parquet:"side"`
	PnL        float64 `json:"pnl" parquet:"pnl"`
	Commission float64 `json:"commission" parquet:"commission"`
}

// EquityRow is a flat, column-oriented view of one equity sample.
type EquityRow struct {
	Timestamp     int64   `json:"timestamp" parquet:"timestamp"` // Unix timestamp in milliseconds
	Capital       float64 `json:"capital" parquet:"capital"`
	UnrealizedPnL float64 `json:"unrealized_pnl" parquet:"unrealized_pnl"`
	TotalEquity   float64 `json:"total_equity" parquet:"total_equity"`
	Side          string  `json:"side" parquet:"side"`
	MarkPrice     float64 `json:"mark_price" parquet:"mark_price"`
}

func (r *Report) tradeRows() []TradeRow {
	rows := make([]TradeRow, len(r.Trades))
	for i, t := range r.Trades {
		rows[i] = TradeRow{
			EntryTime:  t.EntryTime.UnixMilli(),
			ExitTime:   t.ExitTime.UnixMilli(),
			EntryPrice: t.EntryPrice,
			ExitPrice:  t.ExitPrice,
			Side:       t.Side.String(),
			PnL:        t.PnL,
			Commission: t.Commission,
		}
	}
	return rows
}

func (r *Report) signalRows() []SignalRow {
	rows := make([]SignalRow, len(r.Signals))
	for i, s := range r.Signals {
		rows[i] = SignalRow{
			Timestamp:    s.Timestamp.UnixMilli(),
			TrendLongOK:  s.TrendLongOK,
			TrendShortOK: s.TrendShortOK,
			MACDUpOK:     s.MACDUpOK,
			MACDDownOK:   s.MACDDownOK,
			RSIUpOK:      s.RSIUpOK,
			RSIDownOK:    s.RSIDownOK,
			VolumeOK:     s.VolumeOK,
			Decision:     string(s.Decision),
		}
	}
	return rows
}

func (r *Report) equityRows() []EquityRow {
	rows := make([]EquityRow, len(r.EquityCurve))
	for i, p := range r.EquityCurve {
		rows[i] = EquityRow{
			Timestamp:     p.Timestamp.UnixMilli(),
			Capital:       p.Capital,
			UnrealizedPnL: p.UnrealizedPnL,
			TotalEquity:   p.TotalEquity,
			Side:          p.Side.String(),
			MarkPrice:     p.MarkPrice,
		}
	}
	return rows
}

// ReportSaver writes a report to a file. The path it receives carries the
// saver's own extension.
type ReportSaver interface {
	Save(report *Report, path string) error
	Extension() string
}

// NewReportSaver creates the saver for a format. Returns nil for an
// unsupported format.
func NewReportSaver(format string) ReportSaver {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return CSVSaver{}
	case "json":
		return JSONSaver{}
	case "parquet":
		return ParquetSaver{}
	default:
		return nil
	}
}

// Write saves the report under dir using the saver's format. The filename
// encodes symbol, profile and generation time so successive runs never
// overwrite each other. Returns the written path.
func Write(dir string, report *Report, saver ReportSaver) (string, error) {
	if saver == nil {
		return "", fmt.Errorf("nil report saver")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}
	name := fmt.Sprintf("backtest_%s_%s_%s.%s",
		strings.ToUpper(strings.ReplaceAll(report.Symbol, "-", "")),
		report.Profile,
		report.GeneratedAt.UTC().Format("20060102_150405"),
		saver.Extension())
	path := filepath.Join(dir, name)
	if err := saver.Save(report, path); err != nil {
		return "", err
	}
	return path, nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/amirphl/signal-engine/internal/backtest"
	"github.com/amirphl/signal-engine/internal/candle"
	"github.com/amirphl/signal-engine/internal/compare"
	"github.com/amirphl/signal-engine/internal/config"
	"github.com/amirphl/signal-engine/internal/db"
	"github.com/amirphl/signal-engine/internal/exchange"
	"github.com/amirphl/signal-engine/internal/export"
	"github.com/amirphl/signal-engine/internal/indicator"
	"github.com/amirphl/signal-engine/internal/journal"
	"github.com/amirphl/signal-engine/internal/notifier"
	"github.com/amirphl/signal-engine/internal/strategy"
	"github.com/amirphl/signal-engine/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	zl, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "initializing logger:", err)
		os.Exit(1)
	}
	defer zl.Sync()
	utils.SetLogger(zl)
	logger := utils.GetLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Infow("received signal, shutting down", "signal", sig)
		cancel()
	}()

	var storage db.Storage
	if cfg.DBConnStr != "" {
		storage, err = db.NewPostgres(cfg.DBConnStr, cfg.DBMaxOpen, cfg.DBMaxIdle)
		if err != nil {
			logger.Fatalw("connecting to postgres", "error", err)
		}
		logger.Infow("connected to postgres")
	} else {
		storage = db.NewMemory()
		logger.Infow("no database configured, using in-memory storage")
	}
	defer storage.Close()

	var notify notifier.Notifier = notifier.NoopNotifier{}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		notify = notifier.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID)
	}

	var source exchange.MarketDataSource
	if cfg.WallexAPIKey != "" {
		source = exchange.NewWallexSource(cfg.WallexAPIKey)
	}

	bars, err := loadBars(ctx, cfg, storage, source)
	if err != nil {
		logger.Fatalw("preparing candle series", "error", err)
	}
	logger.Infow("series ready", "symbol", cfg.Symbol, "timeframe", cfg.Timeframe, "bars", len(bars))

	switch cfg.Mode {
	case "backtest":
		err = runBacktest(ctx, cfg, bars, storage, notify)
	case "compare":
		err = runCompare(ctx, cfg, bars, storage)
	default:
		err = fmt.Errorf("unknown mode %q", cfg.Mode)
	}
	if err != nil {
		logger.Fatalw("run failed", "mode", cfg.Mode, "error", err)
	}
}

// loadBars fetches the candle range from storage, falling back to the
// exchange when storage has nothing, then computes indicators and drops
// the warmup rows.
func loadBars(ctx context.Context, cfg config.Config, storage db.Storage, source exchange.MarketDataSource) ([]indicator.Bar, error) {
	logger := utils.GetLogger()
	from, _ := cfg.FromTime()
	to, _ := cfg.ToTime()

	candles, err := storage.GetCandles(ctx, cfg.Symbol, cfg.Timeframe, "", from, to)
	if err != nil {
		return nil, fmt.Errorf("loading candles from storage: %w", err)
	}
	if len(candles) == 0 {
		if source == nil {
			return nil, fmt.Errorf("no stored candles for %s %s and no exchange API key configured", cfg.Symbol, cfg.Timeframe)
		}
		logger.Infow("fetching candles from exchange", "exchange", source.Name(), "symbol", cfg.Symbol, "from", from, "to", to)
		candles, err = source.FetchCandles(ctx, cfg.Symbol, cfg.Timeframe, from, to)
		if err != nil {
			return nil, fmt.Errorf("fetching candles: %w", err)
		}
		if err := storage.SaveCandles(ctx, candles); err != nil {
			return nil, fmt.Errorf("saving candles: %w", err)
		}
	}

	params := indicator.DefaultParams()
	if err := candle.ValidateSeries(candles, params.SlowSMA+1); err != nil {
		return nil, err
	}
	bars, err := indicator.Compute(candles, params)
	if err != nil {
		return nil, err
	}
	return indicator.DropWarmup(bars, params.SlowSMA)
}

func runBacktest(ctx context.Context, cfg config.Config, bars []indicator.Bar, storage db.Storage, notify notifier.Notifier) error {
	logger := utils.GetLogger()

	profile, err := strategy.ProfileByName(cfg.Profile)
	if err != nil {
		return err
	}
	mode := strategy.TrendMode(cfg.TrendMode)

	engine, err := strategy.NewEngine(profile, mode)
	if err != nil {
		return err
	}
	signals, err := engine.Evaluate(bars)
	if err != nil {
		return fmt.Errorf("evaluating signals: %w", err)
	}
	summary, err := strategy.Summarize(signals, mode)
	if err != nil {
		return fmt.Errorf("validating signals: %w", err)
	}
	logger.Infow("signals evaluated",
		"profile", profile.Name,
		"bars", summary.Validation.TotalBars,
		"buy_signals", summary.Validation.BuySignals,
		"sell_signals", summary.Validation.SellSignals,
		"signal_rate", summary.Validation.SignalRate)

	bt := backtest.New(backtest.Config{
		InitialCapital: cfg.InitialCapital,
		Commission:     cfg.Commission,
		Slippage:       cfg.Slippage,
	})
	res, err := bt.Run(bars, signals)
	if err != nil {
		return fmt.Errorf("running backtest: %w", err)
	}
	perf := backtest.Analyze(res)

	runID := uuid.NewString()
	run := db.Run{
		ID:        runID,
		Symbol:    cfg.Symbol,
		Timeframe: cfg.Timeframe,
		Profile:   profile.Name,
		TrendMode: cfg.TrendMode,
		StartedAt: time.Now().UTC(),
		Summary:   perf,
	}
	if err := storage.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	if err := storage.SaveTrades(ctx, runID, res.Trades); err != nil {
		return fmt.Errorf("saving trades: %w", err)
	}
	if err := storage.LogEvent(ctx, journal.Event{
		RunID:       runID,
		Type:        "backtest",
		Description: "run_complete",
		Data:        map[string]any{"summary": perf},
	}); err != nil {
		logger.Warnw("journaling run event", "error", err)
	}

	report := &export.Report{
		RunID:       runID,
		Symbol:      cfg.Symbol,
		Timeframe:   cfg.Timeframe,
		Profile:     profile.Name,
		TrendMode:   cfg.TrendMode,
		GeneratedAt: run.StartedAt,
		Summary:     perf,
		Signals:     signals,
		Trades:      res.Trades,
		EquityCurve: res.EquityCurve,
	}
	for _, format := range cfg.ExportFormats {
		saver := export.NewReportSaver(format)
		if saver == nil {
			logger.Warnw("skipping unsupported export format", "format", format)
			continue
		}
		path, err := export.Write(cfg.OutputDir, report, saver)
		if err != nil {
			return fmt.Errorf("exporting %s report: %w", format, err)
		}
		logger.Infow("report written", "format", format, "path", path)
	}

	msg := notifier.SummaryMessage(cfg.Symbol, cfg.Timeframe, profile.Name, perf)
	if err := notifier.SendWithRetry(notify, msg, cfg.NotificationRetries, cfg.NotificationDelay); err != nil {
		logger.Warnw("sending summary notification", "error", err)
	}

	logger.Infow("backtest complete",
		"run_id", runID,
		"trades", perf.TotalTrades,
		"final_capital", perf.FinalCapital,
		"net_pnl", perf.NetPnL,
		"max_drawdown", perf.MaxDrawdown,
		"sharpe", perf.SharpeRatio)
	return nil
}

func runCompare(ctx context.Context, cfg config.Config, bars []indicator.Bar, storage db.Storage) error {
	logger := utils.GetLogger()

	mode := strategy.TrendMode(cfg.TrendMode)
	if err := mode.Validate(); err != nil {
		return err
	}
	btCfg := backtest.Config{
		InitialCapital: cfg.InitialCapital,
		Commission:     cfg.Commission,
		Slippage:       cfg.Slippage,
	}

	rows := compare.Run(ctx, bars, strategy.AllProfiles(), mode, btCfg)
	table := compare.FormatTable(rows)
	fmt.Print(table)

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	tablePath := filepath.Join(cfg.OutputDir,
		fmt.Sprintf("comparison_%s_%s.txt", cfg.Symbol, time.Now().UTC().Format("20060102_150405")))
	if err := os.WriteFile(tablePath, []byte(table), 0o644); err != nil {
		return fmt.Errorf("writing comparison table: %w", err)
	}
	logger.Infow("comparison table written", "path", tablePath)

	runID := uuid.NewString()
	for _, row := range rows {
		if row.Err != nil {
			logger.Warnw("profile run failed", "profile", row.Profile, "error", row.Err)
			continue
		}
		if err := storage.LogEvent(ctx, journal.Event{
			RunID:       runID,
			Type:        "compare",
			Description: row.Profile,
			Data:        map[string]any{"summary": row.Summary},
		}); err != nil {
			logger.Warnw("journaling compare event", "profile", row.Profile, "error", err)
		}
	}
	return nil
}

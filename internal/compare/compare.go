// Package compare runs the same candle series through several strategy
// profiles and reports their backtest results side by side.
package compare

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/amirphl/signal-engine/internal/backtest"
	"github.com/amirphl/signal-engine/internal/indicator"
	"github.com/amirphl/signal-engine/internal/strategy"
	"github.com/amirphl/signal-engine/internal/utils"
)

// Row is the outcome of one profile's run.
type Row struct {
	Profile    string
	Validation strategy.Validation
	Summary    backtest.Summary
	Err        error
}

// Run backtests every profile over the same bars concurrently. Each
// profile gets its own engine so no state leaks between runs. Row order
// follows the input profile order regardless of completion order.
func Run(ctx context.Context, bars []indicator.Bar, profiles []strategy.Profile, mode strategy.TrendMode, cfg backtest.Config) []Row {
	rows := make([]Row, len(profiles))
	var wg sync.WaitGroup
	for i := range profiles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rows[i] = runOne(ctx, bars, profiles[i], mode, cfg)
		}(i)
	}
	wg.Wait()
	return rows
}

func runOne(ctx context.Context, bars []indicator.Bar, profile strategy.Profile, mode strategy.TrendMode, cfg backtest.Config) Row {
	row := Row{Profile: profile.Name}

	if err := ctx.Err(); err != nil {
		row.Err = err
		return row
	}

	engine, err := strategy.NewEngine(profile, mode)
	if err != nil {
		row.Err = fmt.Errorf("building engine for %s: %w", profile.Name, err)
		return row
	}
	signals, err := engine.Evaluate(bars)
	if err != nil {
		row.Err = fmt.Errorf("evaluating %s: %w", profile.Name, err)
		return row
	}
	validation, err := strategy.ValidateSignals(signals)
	if err != nil {
		row.Err = fmt.Errorf("validating %s: %w", profile.Name, err)
		return row
	}
	row.Validation = validation

	bt := backtest.New(cfg)
	res, err := bt.Run(bars, signals)
	if err != nil {
		row.Err = fmt.Errorf("backtesting %s: %w", profile.Name, err)
		return row
	}
	row.Summary = backtest.Analyze(res)

	utils.GetLogger().Infow("profile run complete",
		"profile", profile.Name,
		"trades", row.Summary.TotalTrades,
		"net_pnl", row.Summary.NetPnL,
		"sharpe", row.Summary.SharpeRatio)
	return row
}

// Best returns the profile names leading on return, Sharpe and drawdown.
// Failed rows are skipped; an all-failed comparison yields empty names.
func Best(rows []Row) (byReturn, bySharpe, byDrawdown string) {
	bestReturn := math.Inf(-1)
	bestSharpe := math.Inf(-1)
	bestDD := math.Inf(-1)
	for _, r := range rows {
		if r.Err != nil {
			continue
		}
		if r.Summary.TotalReturnPct > bestReturn {
			bestReturn = r.Summary.TotalReturnPct
			byReturn = r.Profile
		}
		if r.Summary.SharpeRatio > bestSharpe {
			bestSharpe = r.Summary.SharpeRatio
			bySharpe = r.Profile
		}
		// Drawdown is zero or negative; closest to zero wins.
		if r.Summary.MaxDrawdown > bestDD {
			bestDD = r.Summary.MaxDrawdown
			byDrawdown = r.Profile
		}
	}
	return byReturn, bySharpe, byDrawdown
}

// FormatTable renders the comparison as a fixed-width console table,
// sorted by net return descending, with the best performers underneath.
func FormatTable(rows []Row) string {
	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Err != nil {
			return false
		}
		if sorted[j].Err != nil {
			return true
		}
		return sorted[i].Summary.TotalReturnPct > sorted[j].Summary.TotalReturnPct
	})

	var b strings.Builder
	fmt.Fprintf(&b, "%-14s %8s %10s %9s %10s %12s %8s\n",
		"PROFILE", "TRADES", "WIN RATE", "RETURN%", "MAX DD%", "PROFIT FCT", "SHARPE")
	b.WriteString(strings.Repeat("-", 78))
	b.WriteByte('\n')
	for _, r := range sorted {
		if r.Err != nil {
			fmt.Fprintf(&b, "%-14s failed: %v\n", r.Profile, r.Err)
			continue
		}
		s := r.Summary
		pf := fmt.Sprintf("%.2f", s.ProfitFactor)
		if math.IsInf(s.ProfitFactor, 1) {
			pf = "inf"
		}
		fmt.Fprintf(&b, "%-14s %8d %9.1f%% %8.2f%% %9.2f%% %12s %8.2f\n",
			r.Profile, s.TotalTrades, s.WinRate*100, s.TotalReturnPct,
			s.MaxDrawdown*100, pf, s.SharpeRatio)
	}

	byReturn, bySharpe, byDrawdown := Best(rows)
	if byReturn != "" {
		fmt.Fprintf(&b, "\nbest return:   %s\nbest sharpe:   %s\nbest drawdown: %s\n",
			byReturn, bySharpe, byDrawdown)
	}
	return b.String()
}

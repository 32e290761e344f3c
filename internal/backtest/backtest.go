// Package backtest
package backtest

import (
	"errors"
	"fmt"
	"time"

	"github.com/amirphl/signal-engine/internal/indicator"
	"github.com/amirphl/signal-engine/internal/strategy"
)

// ErrEmptyInput is returned when no bars are supplied to the simulation.
var ErrEmptyInput = errors.New("input series is empty")

// Side is the direction of an open position.
type Side int8

const (
	Flat  Side = 0
	Long  Side = 1
	Short Side = -1
)

func (s Side) String() string {
	switch s {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return "flat"
	}
}

// Config holds simulation cost parameters. Commission is a flat fee per
// executed order; slippage is a fraction of price, always adverse.
type Config struct {
	InitialCapital float64
	Commission     float64
	Slippage       float64
}

// Trade is the immutable record emitted whenever a position closes.
type Trade struct {
	EntryTime  time.Time `json:"entry_time"`
	ExitTime   time.Time `json:"exit_time"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	Side       Side      `json:"side"`
	PnL        float64   `json:"pnl"`
	Commission float64   `json:"commission"`
}

// EquitySample is the start-of-bar mark: realized capital plus the open
// position's unrealized P&L at the bar close, captured before any signal
// from that bar executes.
type EquitySample struct {
	Timestamp     time.Time `json:"timestamp"`
	Capital       float64   `json:"capital"`
	UnrealizedPnL float64   `json:"unrealized_pnl"`
	TotalEquity   float64   `json:"total_equity"`
	Side          Side      `json:"position_side"`
	MarkPrice     float64   `json:"mark_price"`
}

// Result is the complete output of one simulation pass.
type Result struct {
	InitialCapital float64        `json:"initial_capital"`
	FinalCapital   float64        `json:"final_capital"`
	Trades         []Trade        `json:"trades"`
	EquityCurve    []EquitySample `json:"equity_curve"`
}

// Engine simulates position entry and exit over a decided bar series.
// One position at a time; signals fill at the next bar's open. The engine
// owns its state exclusively for the duration of one Run.
type Engine struct {
	cfg Config

	capital    float64
	side       Side
	entryPrice float64
	entryTime  time.Time
	trades     []Trade
	equity     []EquitySample
}

// New creates an engine with the given cost configuration.
func New(cfg Config) *Engine {
	e := &Engine{cfg: cfg}
	e.reset()
	return e
}

func (e *Engine) reset() {
	e.capital = e.cfg.InitialCapital
	e.side = Flat
	e.entryPrice = 0
	e.entryTime = time.Time{}
	e.trades = nil
	e.equity = nil
}

// fillPrice applies slippage to the execution open price, always against
// the trader.
func (e *Engine) fillPrice(open float64, decision strategy.Decision) float64 {
	switch decision {
	case strategy.Buy:
		return open * (1 + e.cfg.Slippage)
	case strategy.Sell:
		return open * (1 - e.cfg.Slippage)
	default:
		return open
	}
}

// unrealizedPnL marks the open position against the given price.
func (e *Engine) unrealizedPnL(price float64) float64 {
	switch e.side {
	case Long:
		return price - e.entryPrice
	case Short:
		return e.entryPrice - price
	default:
		return 0
	}
}

// Run replays the decision series over the bars and returns the trade
// ledger, equity curve and final capital. The engine state is reset first,
// so re-running the same inputs is idempotent.
func (e *Engine) Run(bars []indicator.Bar, rows []strategy.ConditionRow) (*Result, error) {
	if len(bars) == 0 {
		return nil, ErrEmptyInput
	}
	if len(rows) != len(bars) {
		return nil, fmt.Errorf("decision series length %d does not match bar series length %d", len(rows), len(bars))
	}
	e.reset()

	for i := range bars {
		unrealized := e.unrealizedPnL(bars[i].Close)
		e.equity = append(e.equity, EquitySample{
			Timestamp:     bars[i].Timestamp,
			Capital:       e.capital,
			UnrealizedPnL: unrealized,
			TotalEquity:   e.capital + unrealized,
			Side:          e.side,
			MarkPrice:     bars[i].Close,
		})

		// A signal on the final bar has no next open to fill at.
		if i+1 >= len(bars) {
			continue
		}
		if rows[i].Decision == strategy.Buy || rows[i].Decision == strategy.Sell {
			// A position opened at the final bar's open would be unwound at
			// that same bar's close, so entries are suppressed there; closes
			// still execute.
			fillsOnFinalBar := i+1 == len(bars)-1
			e.execute(rows[i].Timestamp, bars[i+1].Open, rows[i].Decision, fillsOnFinalBar)
		}
	}

	e.forceClose(bars[len(bars)-1])

	return &Result{
		InitialCapital: e.cfg.InitialCapital,
		FinalCapital:   e.capital,
		Trades:         e.trades,
		EquityCurve:    e.equity,
	}, nil
}

// execute applies one signal to the position state machine. Opposite
// signals close the position and reverse; same-direction signals and HOLD
// are no-ops.
func (e *Engine) execute(ts time.Time, open float64, decision strategy.Decision, suppressEntry bool) {
	fill := e.fillPrice(open, decision)

	switch decision {
	case strategy.Buy:
		switch e.side {
		case Flat:
			if !suppressEntry {
				e.enter(Long, fill, ts)
			}
		case Short:
			e.close(ts, fill)
			if !suppressEntry {
				e.enter(Long, fill, ts)
			}
		}
	case strategy.Sell:
		switch e.side {
		case Flat:
			if !suppressEntry {
				e.enter(Short, fill, ts)
			}
		case Long:
			e.close(ts, fill)
			if !suppressEntry {
				e.enter(Short, fill, ts)
			}
		}
	}
}

func (e *Engine) enter(side Side, fill float64, ts time.Time) {
	e.side = side
	e.entryPrice = fill
	e.entryTime = ts
	e.capital -= e.cfg.Commission
}

func (e *Engine) close(ts time.Time, fill float64) {
	pnl := e.unrealizedPnL(fill)
	e.capital += pnl - e.cfg.Commission
	e.trades = append(e.trades, Trade{
		EntryTime:  e.entryTime,
		ExitTime:   ts,
		EntryPrice: e.entryPrice,
		ExitPrice:  fill,
		Side:       e.side,
		PnL:        pnl,
		Commission: e.cfg.Commission,
	})
	e.side = Flat
	e.entryPrice = 0
	e.entryTime = time.Time{}
}

// forceClose unwinds a surviving position at the last bar's close price.
// This is a mark-to-market exit: no slippage, one closing commission.
func (e *Engine) forceClose(last indicator.Bar) {
	if e.side == Flat {
		return
	}
	e.close(last.Timestamp, last.Close)
}

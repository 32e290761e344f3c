package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/amirphl/signal-engine/internal/backtest"
	"github.com/amirphl/signal-engine/internal/candle"
	"github.com/amirphl/signal-engine/internal/journal"

	_ "github.com/lib/pq"
)

// PostgresStorage persists candles, backtest runs, trade ledgers and
// journal events in Postgres.
type PostgresStorage struct {
	db *sql.DB
}

// NewPostgres opens a connection pool and ensures the schema exists.
func NewPostgres(connStr string, maxOpen, maxIdle int) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	s := &PostgresStorage{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStorage) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS candles (
			symbol TEXT NOT NULL,
			timeframe TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL,
			source TEXT NOT NULL,
			open DOUBLE PRECISION NOT NULL,
			high DOUBLE PRECISION NOT NULL,
			low DOUBLE PRECISION NOT NULL,
			close DOUBLE PRECISION NOT NULL,
			volume DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (symbol, timeframe, timestamp, source)
		)`,
		`CREATE TABLE IF NOT EXISTS backtest_runs (
			id TEXT PRIMARY KEY,
			symbol TEXT NOT NULL,
			timeframe TEXT NOT NULL,
			profile TEXT NOT NULL,
			trend_mode TEXT NOT NULL,
			started_at TIMESTAMPTZ NOT NULL,
			summary JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS backtest_trades (
			run_id TEXT NOT NULL REFERENCES backtest_runs(id),
			seq INT NOT NULL,
			entry_time TIMESTAMPTZ NOT NULL,
			exit_time TIMESTAMPTZ NOT NULL,
			entry_price DOUBLE PRECISION NOT NULL,
			exit_price DOUBLE PRECISION NOT NULL,
			side SMALLINT NOT NULL,
			pnl DOUBLE PRECISION NOT NULL,
			commission DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (run_id, seq)
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id BIGSERIAL PRIMARY KEY,
			run_id TEXT,
			time TIMESTAMPTZ NOT NULL,
			type TEXT NOT NULL,
			description TEXT,
			data JSONB
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("running migration: %w", err)
		}
	}
	return nil
}

func (s *PostgresStorage) SaveCandles(ctx context.Context, candles []candle.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO candles (symbol, timeframe, timestamp, source, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (symbol, timeframe, timestamp, source) DO UPDATE SET
			open = EXCLUDED.open, high = EXCLUDED.high, low = EXCLUDED.low,
			close = EXCLUDED.close, volume = EXCLUDED.volume`)
	if err != nil {
		return fmt.Errorf("preparing candle insert: %w", err)
	}
	defer stmt.Close()

	for i := range candles {
		if err := candles[i].Validate(); err != nil {
			return err
		}
		c := candles[i]
		if _, err := stmt.ExecContext(ctx, c.Symbol, c.Timeframe, c.Timestamp.UTC(), c.Source,
			c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			return fmt.Errorf("inserting candle at %s: %w", c.Timestamp.Format(time.RFC3339), err)
		}
	}
	return tx.Commit()
}

func (s *PostgresStorage) GetCandles(ctx context.Context, symbol, timeframe, source string, start, end time.Time) ([]candle.Candle, error) {
	query := `
		SELECT symbol, timeframe, timestamp, source, open, high, low, close, volume
		FROM candles
		WHERE symbol = $1 AND timeframe = $2 AND timestamp >= $3 AND timestamp <= $4`
	args := []any{symbol, timeframe, start.UTC(), end.UTC()}
	if source != "" {
		query += ` AND source = $5`
		args = append(args, source)
	}
	query += ` ORDER BY timestamp ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying candles: %w", err)
	}
	defer rows.Close()

	var out []candle.Candle
	for rows.Next() {
		var c candle.Candle
		if err := rows.Scan(&c.Symbol, &c.Timeframe, &c.Timestamp, &c.Source,
			&c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scanning candle: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStorage) SaveRun(ctx context.Context, run Run) error {
	summary, err := json.Marshal(run.Summary)
	if err != nil {
		return fmt.Errorf("marshaling run summary: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO backtest_runs (id, symbol, timeframe, profile, trend_mode, started_at, summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		run.ID, run.Symbol, run.Timeframe, run.Profile, run.TrendMode, run.StartedAt.UTC(), summary)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}
	return nil
}

func (s *PostgresStorage) SaveTrades(ctx context.Context, runID string, trades []backtest.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO backtest_trades (run_id, seq, entry_time, exit_time, entry_price, exit_price, side, pnl, commission)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`)
	if err != nil {
		return fmt.Errorf("preparing trade insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range trades {
		if _, err := stmt.ExecContext(ctx, runID, i, t.EntryTime.UTC(), t.ExitTime.UTC(),
			t.EntryPrice, t.ExitPrice, int16(t.Side), t.PnL, t.Commission); err != nil {
			return fmt.Errorf("inserting trade %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func (s *PostgresStorage) GetTrades(ctx context.Context, runID string) ([]backtest.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT entry_time, exit_time, entry_price, exit_price, side, pnl, commission
		FROM backtest_trades WHERE run_id = $1 ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying trades: %w", err)
	}
	defer rows.Close()

	var out []backtest.Trade
	for rows.Next() {
		var t backtest.Trade
		var side int16
		if err := rows.Scan(&t.EntryTime, &t.ExitTime, &t.EntryPrice, &t.ExitPrice,
			&side, &t.PnL, &t.Commission); err != nil {
			return nil, fmt.Errorf("scanning trade: %w", err)
		}
		t.Side = backtest.Side(side)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStorage) LogEvent(ctx context.Context, event journal.Event) error {
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}
	data, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("marshaling event data: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO events (run_id, time, type, description, data)
		VALUES ($1, $2, $3, $4, $5)`,
		event.RunID, event.Time.UTC(), event.Type, event.Description, data)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	return nil
}

func (s *PostgresStorage) GetEvents(ctx context.Context, eventType string, start, end time.Time) ([]journal.Event, error) {
	query := `SELECT run_id, time, type, description, data FROM events WHERE time >= $1 AND time <= $2`
	args := []any{start.UTC(), end.UTC()}
	if eventType != "" {
		query += ` AND type = $3`
		args = append(args, eventType)
	}
	query += ` ORDER BY time ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var out []journal.Event
	for rows.Next() {
		var e journal.Event
		var runID sql.NullString
		var data []byte
		if err := rows.Scan(&runID, &e.Time, &e.Type, &e.Description, &data); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		e.RunID = runID.String
		if len(data) > 0 {
			if err := json.Unmarshal(data, &e.Data); err != nil {
				return nil, fmt.Errorf("unmarshaling event data: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStorage) Close() error { return s.db.Close() }

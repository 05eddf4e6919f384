package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"tradesim/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ RunStore = (*SQLiteStore)(nil)

// SQLiteStore implements RunStore backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	strategy      TEXT NOT NULL,
	symbols       TEXT NOT NULL,
	start_date    TEXT NOT NULL,
	end_date      TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	initial_value REAL NOT NULL,
	final_value   REAL NOT NULL,
	total_return  REAL NOT NULL,
	annual_return REAL NOT NULL,
	volatility    REAL NOT NULL,
	sharpe_ratio  REAL NOT NULL,
	max_drawdown  REAL NOT NULL,
	win_rate      REAL NOT NULL,
	num_trades    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS run_trades (
	run_id     TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	seq        INTEGER NOT NULL,
	date       TEXT NOT NULL,
	symbol     TEXT NOT NULL,
	action     TEXT NOT NULL,
	quantity   REAL NOT NULL,
	price      REAL NOT NULL,
	commission REAL NOT NULL,
	value      REAL NOT NULL,
	PRIMARY KEY (run_id, seq)
);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, applies the
// schema, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun inserts the run summary and its trade log in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, run Run, trades []domain.Trade) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (
			id, strategy, symbols, start_date, end_date, created_at,
			initial_value, final_value, total_return, annual_return,
			volatility, sharpe_ratio, max_drawdown, win_rate, num_trades
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Strategy, strings.Join(run.Symbols, ","),
		run.StartDate, run.EndDate, run.CreatedAt.UTC().Format(time.RFC3339),
		run.InitialValue, run.FinalValue, run.TotalReturn, run.AnnualReturn,
		run.Volatility, run.SharpeRatio, run.MaxDrawdown, run.WinRate, run.NumTrades,
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_trades (run_id, seq, date, symbol, action, quantity, price, commission, value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, t := range trades {
		_, err := stmt.ExecContext(ctx, run.ID, i, t.Date.UTC().Format("2006-01-02"),
			t.Symbol, string(t.Action), t.Quantity, t.Price, t.Commission, t.Value)
		if err != nil {
			return fmt.Errorf("inserting trade %d for run %s: %w", i, run.ID, err)
		}
	}

	return tx.Commit()
}

// GetRun retrieves a single run by ID. It returns (nil, nil) when the run
// does not exist.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, strategy, symbols, start_date, end_date, created_at,
		       initial_value, final_value, total_return, annual_return,
		       volatility, sharpe_ratio, max_drawdown, win_rate, num_trades
		FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, strategy, symbols, start_date, end_date, created_at,
		       initial_value, final_value, total_return, annual_return,
		       volatility, sharpe_ratio, max_drawdown, win_rate, num_trades
		FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// ListTrades returns the trade log of a run in execution order.
func (s *SQLiteStore) ListTrades(ctx context.Context, runID string) ([]domain.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, symbol, action, quantity, price, commission, value
		FROM run_trades WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		var t domain.Trade
		var date, action string
		if err := rows.Scan(&date, &t.Symbol, &action, &t.Quantity, &t.Price, &t.Commission, &t.Value); err != nil {
			return nil, err
		}
		t.Date, err = time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("parsing trade date %q: %w", date, err)
		}
		t.Action = domain.OrderSide(action)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var symbols, createdAt string
	err := row.Scan(&run.ID, &run.Strategy, &symbols, &run.StartDate, &run.EndDate, &createdAt,
		&run.InitialValue, &run.FinalValue, &run.TotalReturn, &run.AnnualReturn,
		&run.Volatility, &run.SharpeRatio, &run.MaxDrawdown, &run.WinRate, &run.NumTrades)
	if err != nil {
		return nil, err
	}
	if symbols != "" {
		run.Symbols = strings.Split(symbols, ",")
	}
	run.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing run created_at %q: %w", createdAt, err)
	}
	return &run, nil
}

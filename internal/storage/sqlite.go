// Package storage persists leadership series and archived backtest runs in SQLite.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"
	_ "modernc.org/sqlite"

	"github.com/ducminhle1904/sector-rotation/internal/backtest"
	"github.com/ducminhle1904/sector-rotation/internal/sector"
)

// Store is a SQLite database of leadership records and run archives.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *log.Logger
}

// Open opens (or creates) the database at path and runs migrations.
func Open(path string, logger *log.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info().Str("path", path).Msg("sqlite store opened")
	return s, nil
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS leadership (
			date        TEXT NOT NULL,
			rank        INTEGER NOT NULL,
			sector_code TEXT NOT NULL,
			sector_name TEXT,
			rs          REAL NOT NULL,
			PRIMARY KEY (date, rank)
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id                TEXT PRIMARY KEY,
			created_at        INTEGER NOT NULL,
			start_date        TEXT NOT NULL,
			end_date          TEXT NOT NULL,
			params            TEXT NOT NULL,
			config            TEXT NOT NULL,
			final_equity      REAL,
			cumulative_return REAL,
			benchmark_return  REAL,
			total_trades      INTEGER,
			win_rate          REAL,
			max_drawdown      REAL,
			sharpe_ratio      REAL
		)`,
		`CREATE TABLE IF NOT EXISTS trades (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id         TEXT NOT NULL REFERENCES runs(id),
			ticker         TEXT NOT NULL,
			name           TEXT,
			sector_code    TEXT,
			sector_name    TEXT,
			entry_date     TEXT NOT NULL,
			entry_price    REAL NOT NULL,
			exit_date      TEXT NOT NULL,
			exit_price     REAL NOT NULL,
			holding_days   INTEGER,
			net_multiplier REAL NOT NULL,
			exit_reason    TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id)`,
		`CREATE TABLE IF NOT EXISTS equity (
			run_id TEXT NOT NULL REFERENCES runs(id),
			date   TEXT NOT NULL,
			equity REAL NOT NULL,
			state  TEXT NOT NULL,
			event  TEXT,
			ticker TEXT,
			PRIMARY KEY (run_id, date)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveLeadership upserts the leader lists of series. Dates already stored are replaced.
func (s *Store) SaveLeadership(series sector.LeadershipSeries) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, l := range series {
		day := l.Date.Format(time.DateOnly)
		if _, err := tx.Exec(`DELETE FROM leadership WHERE date = ?`, day); err != nil {
			return fmt.Errorf("clear leadership %s: %w", day, err)
		}
		for rank, leader := range l.Leaders {
			if _, err := tx.Exec(`INSERT INTO leadership (date, rank, sector_code, sector_name, rs) VALUES (?, ?, ?, ?, ?)`,
				day, rank, leader.Code, leader.Name, leader.RS); err != nil {
				return fmt.Errorf("insert leadership %s: %w", day, err)
			}
		}
	}
	return tx.Commit()
}

// LoadLeadership returns the stored records dated within [start, end], date ascending.
// Dates stored without any leader are not returned.
func (s *Store) LoadLeadership(start, end time.Time) (sector.LeadershipSeries, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT date, sector_code, sector_name, rs FROM leadership
		WHERE date >= ? AND date <= ? ORDER BY date, rank`,
		start.Format(time.DateOnly), end.Format(time.DateOnly))
	if err != nil {
		return nil, fmt.Errorf("query leadership: %w", err)
	}
	defer rows.Close()

	var series sector.LeadershipSeries
	for rows.Next() {
		var day, code string
		var name sql.NullString
		var rs float64
		if err := rows.Scan(&day, &code, &name, &rs); err != nil {
			return nil, fmt.Errorf("scan leadership: %w", err)
		}
		date, err := time.Parse(time.DateOnly, day)
		if err != nil {
			return nil, fmt.Errorf("parse leadership date %q: %w", day, err)
		}
		leader := sector.Leader{Code: code, Name: name.String, RS: rs}
		if n := len(series); n > 0 && series[n-1].Date.Equal(date) {
			series[n-1].Leaders = append(series[n-1].Leaders, leader)
			continue
		}
		series = append(series, sector.Leadership{Date: date, Leaders: []sector.Leader{leader}})
	}
	return series, rows.Err()
}

// RunSummary is one archived run.
type RunSummary struct {
	ID               string
	CreatedAt        time.Time
	Start            time.Time
	End              time.Time
	Params           string
	FinalEquity      float64
	CumulativeReturn float64
	BenchmarkReturn  float64
	TotalTrades      int
}

// SaveRun archives a finished run under a new id and returns it.
func (s *Store) SaveRun(res *backtest.Results) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := json.Marshal(res.Config)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}

	id := uuid.NewString()
	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	sum := res.Summary
	if _, err := tx.Exec(`INSERT INTO runs (id, created_at, start_date, end_date, params, config,
		final_equity, cumulative_return, benchmark_return, total_trades, win_rate, max_drawdown, sharpe_ratio)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, time.Now().Unix(),
		res.Config.Start.Format(time.DateOnly), res.Config.End.Format(time.DateOnly),
		res.Params.String(), string(cfg),
		sum.FinalEquity, sum.CumulativeReturn, res.BenchmarkReturn,
		sum.TotalTrades, sum.WinRate, sum.MaxDrawdown, sum.SharpeRatio,
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, t := range res.Trades {
		if _, err := tx.Exec(`INSERT INTO trades (run_id, ticker, name, sector_code, sector_name, entry_date, entry_price,
			exit_date, exit_price, holding_days, net_multiplier, exit_reason)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, t.Ticker, t.Name, t.SectorCode, t.SectorName,
			t.EntryDate.Format(time.DateOnly), t.EntryPrice,
			t.ExitDate.Format(time.DateOnly), t.ExitPrice,
			t.HoldingDays, t.NetMultiplier, string(t.ExitReason),
		); err != nil {
			return "", fmt.Errorf("insert trade: %w", err)
		}
	}

	for _, p := range res.Equity {
		if _, err := tx.Exec(`INSERT INTO equity (run_id, date, equity, state, event, ticker) VALUES (?, ?, ?, ?, ?, ?)`,
			id, p.Date.Format(time.DateOnly), p.Equity, p.State.String(), string(p.Event), p.Ticker,
		); err != nil {
			return "", fmt.Errorf("insert equity: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	s.logger.Info().Str("run_id", id).Int("trades", len(res.Trades)).Msg("run archived")
	return id, nil
}

// Runs lists archived runs, newest first.
func (s *Store) Runs(limit int) ([]RunSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`SELECT id, created_at, start_date, end_date, params,
		final_equity, cumulative_return, benchmark_return, total_trades
		FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		var created int64
		var start, end string
		if err := rows.Scan(&r.ID, &created, &start, &end, &r.Params,
			&r.FinalEquity, &r.CumulativeReturn, &r.BenchmarkReturn, &r.TotalTrades); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.CreatedAt = time.Unix(created, 0)
		r.Start, _ = time.Parse(time.DateOnly, start)
		r.End, _ = time.Parse(time.DateOnly, end)
		out = append(out, r)
	}
	return out, rows.Err()
}

// RunTrades returns the trade log of an archived run in exit order.
func (s *Store) RunTrades(runID string) ([]backtest.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT ticker, name, sector_code, sector_name, entry_date, entry_price, exit_date, exit_price,
		holding_days, net_multiplier, exit_reason FROM trades WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var out []backtest.Trade
	for rows.Next() {
		var t backtest.Trade
		var name, code, sectorName sql.NullString
		var entry, exit, reason string
		if err := rows.Scan(&t.Ticker, &name, &code, &sectorName, &entry, &t.EntryPrice, &exit, &t.ExitPrice,
			&t.HoldingDays, &t.NetMultiplier, &reason); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		t.Name, t.SectorCode, t.SectorName = name.String, code.String, sectorName.String
		t.EntryDate, _ = time.Parse(time.DateOnly, entry)
		t.ExitDate, _ = time.Parse(time.DateOnly, exit)
		t.ExitReason = backtest.ExitReason(reason)
		t.GrossReturn = t.ExitPrice/t.EntryPrice - 1
		t.NetReturn = t.NetMultiplier - 1
		out = append(out, t)
	}
	return out, rows.Err()
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

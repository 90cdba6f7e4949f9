package store

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"PatternScanner/internal/model"
)

const dateLayout = "2006-01-02"

// SQLiteStore persists bar history and detected patterns to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so readers are not blocked while a scan is writing.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite store opened: %s", dbPath)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS daily_bars (
			symbol  TEXT NOT NULL,
			date    TEXT NOT NULL,
			open    REAL NOT NULL,
			high    REAL NOT NULL,
			low     REAL NOT NULL,
			close   REAL NOT NULL,
			volume  REAL NOT NULL DEFAULT 0,
			PRIMARY KEY (symbol, date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_daily_date ON daily_bars(date)`,

		`CREATE TABLE IF NOT EXISTS aggregated_bars (
			symbol       TEXT NOT NULL,
			timeframe    TEXT NOT NULL,
			period_date  TEXT NOT NULL,
			period_start TEXT NOT NULL,
			open         REAL NOT NULL,
			high         REAL NOT NULL,
			low          REAL NOT NULL,
			close        REAL NOT NULL,
			volume       REAL NOT NULL DEFAULT 0,
			trading_days INTEGER NOT NULL,
			PRIMARY KEY (symbol, timeframe, period_date)
		)`,

		`CREATE TABLE IF NOT EXISTS detected_patterns (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol             TEXT NOT NULL,
			timeframe          TEXT NOT NULL,
			direction          TEXT NOT NULL,
			marubozu_date      TEXT NOT NULL,
			doji_date          TEXT NOT NULL,
			breakout_amount    REAL,
			rejection_strength REAL,
			scanned_at         INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_patterns_symbol ON detected_patterns(symbol, doji_date)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) UpsertDailyBars(symbol string, bars []model.Bar) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin upsert: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO daily_bars (symbol, date, open, high, low, close, volume)
		VALUES (?,?,?,?,?,?,?)
		ON CONFLICT(symbol, date) DO UPDATE SET
			open=excluded.open, high=excluded.high, low=excluded.low,
			close=excluded.close, volume=excluded.volume`)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	var affected int64
	for _, b := range bars {
		res, err := stmt.Exec(symbol, b.Date.Format(dateLayout), b.Open, b.High, b.Low, b.Close, b.Volume)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("upsert bar %s %s: %w", symbol, b.Date.Format(dateLayout), err)
		}
		if n, err := res.RowsAffected(); err == nil {
			affected += n
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert: %w", err)
	}
	return affected, nil
}

func (s *SQLiteStore) ReadDailyBars(symbol string, start, end time.Time) ([]model.Bar, error) {
	rows, err := s.db.Query(`SELECT date, open, high, low, close, volume
		FROM daily_bars
		WHERE symbol = ? AND date BETWEEN ? AND ?
		ORDER BY date`,
		symbol, start.Format(dateLayout), end.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("read daily bars: %w", err)
	}
	defer rows.Close()

	var bars []model.Bar
	for rows.Next() {
		var day string
		var b model.Bar
		if err := rows.Scan(&day, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan daily bar: %w", err)
		}
		d, err := time.Parse(dateLayout, day)
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", day, err)
		}
		b.Date = d
		b.PeriodStart = d
		b.TradingDays = 1
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

func (s *SQLiteStore) ReadAggregatedBars(symbol string, tf model.Timeframe, start, end time.Time) ([]model.Bar, error) {
	rows, err := s.db.Query(`SELECT period_date, period_start, open, high, low, close, volume, trading_days
		FROM aggregated_bars
		WHERE symbol = ? AND timeframe = ? AND period_date BETWEEN ? AND ?
		ORDER BY period_date`,
		symbol, string(tf), start.Format(dateLayout), end.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("read aggregated bars: %w", err)
	}
	defer rows.Close()

	var bars []model.Bar
	for rows.Next() {
		var day, startDay string
		var b model.Bar
		if err := rows.Scan(&day, &startDay, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.TradingDays); err != nil {
			return nil, fmt.Errorf("scan aggregated bar: %w", err)
		}
		d, err := time.Parse(dateLayout, day)
		if err != nil {
			return nil, fmt.Errorf("parse period date %q: %w", day, err)
		}
		ps, err := time.Parse(dateLayout, startDay)
		if err != nil {
			return nil, fmt.Errorf("parse period start %q: %w", startDay, err)
		}
		b.Date = d
		b.PeriodStart = ps
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

func (s *SQLiteStore) SaveAggregatedBars(symbol string, tf model.Timeframe, bars []model.Bar) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin aggregate save: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO aggregated_bars
		(symbol, timeframe, period_date, period_start, open, high, low, close, volume, trading_days)
		VALUES (?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(symbol, timeframe, period_date) DO UPDATE SET
			period_start=excluded.period_start, open=excluded.open, high=excluded.high,
			low=excluded.low, close=excluded.close, volume=excluded.volume,
			trading_days=excluded.trading_days`)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("prepare aggregate save: %w", err)
	}
	defer stmt.Close()

	var affected int64
	for _, b := range bars {
		res, err := stmt.Exec(symbol, string(tf), b.Date.Format(dateLayout), b.PeriodStart.Format(dateLayout),
			b.Open, b.High, b.Low, b.Close, b.Volume, b.TradingDays)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("save aggregated bar %s %s: %w", symbol, b.Date.Format(dateLayout), err)
		}
		if n, err := res.RowsAffected(); err == nil {
			affected += n
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit aggregate save: %w", err)
	}
	return affected, nil
}

func (s *SQLiteStore) SaveMatches(matches []model.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin match save: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO detected_patterns
		(symbol, timeframe, direction, marubozu_date, doji_date, breakout_amount, rejection_strength, scanned_at)
		VALUES (?,?,?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare match save: %w", err)
	}
	defer stmt.Close()

	for _, m := range matches {
		if _, err := stmt.Exec(m.Symbol, string(m.Timeframe), string(m.Direction),
			m.Marubozu.Date.Format(dateLayout), m.Doji.Date.Format(dateLayout),
			m.BreakoutAmount, m.RejectionStrength, m.ScannedAt.Unix()); err != nil {
			tx.Rollback()
			return fmt.Errorf("save match %s: %w", m.Symbol, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit match save: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	log.Println("[INFO] closing sqlite store")
	return s.db.Close()
}

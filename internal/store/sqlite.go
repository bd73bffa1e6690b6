package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"keylevels/internal/models"
)

// SQLiteStore implements BarStore using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates a new SQLite-based bar store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for concurrent access
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Bars table for historical OHLCV data
	CREATE TABLE IF NOT EXISTS bars (
		ticker TEXT NOT NULL,
		timeframe TEXT NOT NULL,
		time INTEGER NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		volume REAL NOT NULL,
		PRIMARY KEY (ticker, timeframe, time)
	);

	CREATE INDEX IF NOT EXISTS idx_bars_lookup ON bars(ticker, timeframe, time);

	-- Fetch freshness per ticker/timeframe
	CREATE TABLE IF NOT EXISTS fetches (
		ticker TEXT NOT NULL,
		timeframe TEXT NOT NULL,
		fetched_at INTEGER NOT NULL,
		PRIMARY KEY (ticker, timeframe)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

type barRow struct {
	Ticker    string  `db:"ticker"`
	Timeframe string  `db:"timeframe"`
	Time      int64   `db:"time"`
	Open      float64 `db:"open"`
	High      float64 `db:"high"`
	Low       float64 `db:"low"`
	Close     float64 `db:"close"`
	Volume    float64 `db:"volume"`
}

// SaveBars upserts bars in a single transaction and bumps freshness.
func (s *SQLiteStore) SaveBars(ctx context.Context, ticker string, timeframe models.Timeframe, bars []models.Bar) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamedContext(ctx, `
		INSERT INTO bars (ticker, timeframe, time, open, high, low, close, volume)
		VALUES (:ticker, :timeframe, :time, :open, :high, :low, :close, :volume)
		ON CONFLICT(ticker, timeframe, time) DO UPDATE SET
			open = excluded.open, high = excluded.high,
			low = excluded.low, close = excluded.close,
			volume = excluded.volume`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		row := barRow{
			Ticker:    ticker,
			Timeframe: string(timeframe),
			Time:      b.Time,
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		}
		if _, err := stmt.ExecContext(ctx, row); err != nil {
			return fmt.Errorf("upsert bar: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO fetches (ticker, timeframe, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(ticker, timeframe) DO UPDATE SET fetched_at = excluded.fetched_at`,
		ticker, string(timeframe), time.Now().Unix()); err != nil {
		return fmt.Errorf("update freshness: %w", err)
	}

	return tx.Commit()
}

// GetBars returns stored bars in ascending time order.
func (s *SQLiteStore) GetBars(ctx context.Context, ticker string, timeframe models.Timeframe, from, to int64) ([]models.Bar, error) {
	query := `SELECT time, open, high, low, close, volume FROM bars
		WHERE ticker = ? AND timeframe = ? AND time >= ?`
	args := []interface{}{ticker, string(timeframe), from}
	if to > 0 {
		query += ` AND time <= ?`
		args = append(args, to)
	}
	query += ` ORDER BY time ASC`

	var bars []models.Bar
	if err := s.db.SelectContext(ctx, &bars, query, args...); err != nil {
		return nil, fmt.Errorf("select bars: %w", err)
	}
	return bars, nil
}

// Freshness returns when bars for a ticker/timeframe were last saved.
func (s *SQLiteStore) Freshness(ctx context.Context, ticker string, timeframe models.Timeframe) (time.Time, error) {
	var fetchedAt int64
	err := s.db.GetContext(ctx, &fetchedAt,
		`SELECT fetched_at FROM fetches WHERE ticker = ? AND timeframe = ?`,
		ticker, string(timeframe))
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("select freshness: %w", err)
	}
	return time.Unix(fetchedAt, 0), nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

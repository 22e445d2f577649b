package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"collar-backtester/internal/models"
)

// SQLiteStore implements SeriesStore using SQLite.
type SQLiteStore struct {
	db        *sql.DB
	mu        sync.RWMutex
	syncTimes map[string]time.Time
}

// NewSQLiteStore creates a new SQLite-based series store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{
		db:        db,
		syncTimes: make(map[string]time.Time),
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Dated observations of price, dividend and rate series
	CREATE TABLE IF NOT EXISTS series_points (
		source TEXT NOT NULL,
		symbol TEXT NOT NULL,
		kind TEXT NOT NULL,
		date TEXT NOT NULL,
		value REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (source, symbol, kind, date)
	);

	-- Sync status table
	CREATE TABLE IF NOT EXISTS sync_status (
		series_key TEXT PRIMARY KEY,
		last_sync DATETIME NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_series_points_date ON series_points(date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveSeries saves observations, replacing any already stored for the same dates.
func (s *SQLiteStore) SaveSeries(ctx context.Context, key SeriesKey, obs []models.Observation) error {
	if len(obs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO series_points (source, symbol, kind, date, value)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, o := range obs {
		_, err := stmt.ExecContext(ctx, key.Source, key.Symbol, key.Kind, o.Date.Format(models.DateLayout), o.Value)
		if err != nil {
			return fmt.Errorf("failed to insert observation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetSeries retrieves observations dated in [from, to].
func (s *SQLiteStore) GetSeries(ctx context.Context, key SeriesKey, from, to time.Time) ([]models.Observation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, value
		FROM series_points
		WHERE source = ? AND symbol = ? AND kind = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`, key.Source, key.Symbol, key.Kind, from.Format(models.DateLayout), to.Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query series: %w", err)
	}
	defer rows.Close()

	var obs []models.Observation
	for rows.Next() {
		var (
			date  string
			value float64
		)
		if err := rows.Scan(&date, &value); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		d, err := models.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("corrupt observation date: %w", err)
		}
		obs = append(obs, models.Observation{Date: d, Value: value})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating series: %w", err)
	}

	return obs, nil
}

// GetSeriesRange returns the first and last stored dates of a series.
// Both are zero when nothing is stored.
func (s *SQLiteStore) GetSeriesRange(ctx context.Context, key SeriesKey) (DateRange, error) {
	var first, last sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT MIN(date), MAX(date) FROM series_points WHERE source = ? AND symbol = ? AND kind = ?
	`, key.Source, key.Symbol, key.Kind).Scan(&first, &last)
	if err != nil && err != sql.ErrNoRows {
		return DateRange{}, fmt.Errorf("failed to get series range: %w", err)
	}
	if !first.Valid || !last.Valid {
		return DateRange{}, nil
	}

	var r DateRange
	if r.Start, err = models.ParseDate(first.String); err != nil {
		return DateRange{}, err
	}
	if r.End, err = models.ParseDate(last.String); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

// GetLastSync returns the last fetch time of a series.
func (s *SQLiteStore) GetLastSync(key SeriesKey) time.Time {
	id := key.String()
	s.mu.RLock()
	if t, ok := s.syncTimes[id]; ok {
		s.mu.RUnlock()
		return t
	}
	s.mu.RUnlock()

	var lastSync time.Time
	err := s.db.QueryRow(`
		SELECT last_sync FROM sync_status WHERE series_key = ?
	`, id).Scan(&lastSync)
	if err != nil {
		return time.Time{}
	}

	s.mu.Lock()
	s.syncTimes[id] = lastSync
	s.mu.Unlock()

	return lastSync
}

// SetLastSync records the fetch time of a series.
func (s *SQLiteStore) SetLastSync(key SeriesKey, t time.Time) error {
	id := key.String()
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO sync_status (series_key, last_sync, updated_at)
		VALUES (?, ?, ?)
	`, id, t, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set last sync: %w", err)
	}

	s.mu.Lock()
	s.syncTimes[id] = t
	s.mu.Unlock()

	return nil
}

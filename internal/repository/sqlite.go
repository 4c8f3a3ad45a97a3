package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/you/bixi-explorer/internal/trips"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var sqliteSchema string

// SQLiteTripStore keeps imported trips in a SQLite file
type SQLiteTripStore struct {
	db      *sql.DB
	writeMu sync.Mutex
}

// OpenSQLite opens (or creates) a SQLite database with WAL mode enabled
func OpenSQLite(dbPath string) (*SQLiteTripStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteTripStore{db: db}, nil
}

// NewSQLiteTripStore wraps an already open connection
func NewSQLiteTripStore(db *sql.DB) *SQLiteTripStore {
	return &SQLiteTripStore{db: db}
}

// Close closes the database connection
func (s *SQLiteTripStore) Close() error {
	return s.db.Close()
}

// EnsureSchema creates tables if they don't exist
func (s *SQLiteTripStore) EnsureSchema(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// ReplaceSource stores records as a new batch for sourceFile, removing any
// trips previously imported from the same file. It returns the batch ID.
func (s *SQLiteTripStore) ReplaceSource(ctx context.Context, sourceFile string, records []trips.Record) (string, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM trips WHERE batch_id IN (SELECT batch_id FROM import_batches WHERE source_file = ?)`,
		sourceFile,
	); err != nil {
		return "", fmt.Errorf("failed to delete previous trips: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM import_batches WHERE source_file = ?`, sourceFile); err != nil {
		return "", fmt.Errorf("failed to delete previous batch: %w", err)
	}

	batchID := uuid.New().String()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO import_batches (batch_id, source_file, row_count, imported_at) VALUES (?, ?, ?, ?)`,
		batchID, sourceFile, len(records), time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return "", fmt.Errorf("failed to create batch: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trips (
			batch_id, start_station_code, end_station_code,
			start_date, end_date, duration_sec, is_member
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare trip insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			batchID,
			r.StartStationCode,
			r.EndStationCode,
			r.StartDate.Format(trips.ValueLayout),
			r.EndDate.Format(trips.ValueLayout),
			r.DurationSec,
			boolToInt(r.IsMember),
		); err != nil {
			return "", fmt.Errorf("failed to insert trip: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit batch: %w", err)
	}
	return batchID, nil
}

// LoadAll returns every stored trip in import order
func (s *SQLiteTripStore) LoadAll(ctx context.Context) ([]trips.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			start_station_code,
			end_station_code,
			start_date,
			end_date,
			duration_sec,
			is_member
		FROM trips
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query trips: %w", err)
	}
	defer rows.Close()

	var records []trips.Record
	for rows.Next() {
		var r trips.Record
		var startStr, endStr string
		var isMember int
		if err := rows.Scan(
			&r.StartStationCode,
			&r.EndStationCode,
			&startStr,
			&endStr,
			&r.DurationSec,
			&isMember,
		); err != nil {
			return nil, fmt.Errorf("failed to scan trip row: %w", err)
		}

		if r.StartDate, err = trips.ParseTimestamp(startStr); err != nil {
			return nil, fmt.Errorf("trip start_date: %w", err)
		}
		if r.EndDate, err = trips.ParseTimestamp(endStr); err != nil {
			return nil, fmt.Errorf("trip end_date: %w", err)
		}
		r.IsMember = isMember != 0
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trip rows: %w", err)
	}
	return records, nil
}

// Ping checks that the database is reachable
func (s *SQLiteTripStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

package repository

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/you/bixi-explorer/internal/trips"
)

//go:embed schema_postgres.sql
var postgresSchema string

// PostgresTripStore keeps imported trips in PostgreSQL
type PostgresTripStore struct {
	pool *pgxpool.Pool
}

// NewPostgresTripStore connects to databaseURL and verifies the connection
func NewPostgresTripStore(ctx context.Context, databaseURL string) (*PostgresTripStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresTripStore{pool: pool}, nil
}

func (s *PostgresTripStore) Close() {
	s.pool.Close()
}

func (s *PostgresTripStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// ReplaceSource stores records as a new batch for sourceFile using COPY,
// removing trips previously imported from the same file.
func (s *PostgresTripStore) ReplaceSource(ctx context.Context, sourceFile string, records []trips.Record) (string, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// trips rows go with their batch via ON DELETE CASCADE
	if _, err := tx.Exec(ctx, `DELETE FROM import_batches WHERE source_file = $1`, sourceFile); err != nil {
		return "", fmt.Errorf("failed to delete previous batch: %w", err)
	}

	batchID := uuid.New()
	if _, err := tx.Exec(ctx,
		`INSERT INTO import_batches (batch_id, source_file, row_count, imported_at) VALUES ($1, $2, $3, $4)`,
		batchID, sourceFile, len(records), time.Now().UTC(),
	); err != nil {
		return "", fmt.Errorf("failed to create batch: %w", err)
	}

	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = []any{batchID, r.StartStationCode, r.EndStationCode, r.StartDate, r.EndDate, r.DurationSec, r.IsMember}
	}

	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{"trips"},
		[]string{"batch_id", "start_station_code", "end_station_code", "start_date", "end_date", "duration_sec", "is_member"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return "", fmt.Errorf("failed to copy trips: %w", err)
	}
	if int(copied) != len(records) {
		return "", fmt.Errorf("copied %d of %d trips", copied, len(records))
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit batch: %w", err)
	}
	return batchID.String(), nil
}

// LoadAll returns every stored trip in import order
func (s *PostgresTripStore) LoadAll(ctx context.Context) ([]trips.Record, error) {
	rows, err := s.pool.Query(ctx, `
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
		if err := rows.Scan(
			&r.StartStationCode,
			&r.EndStationCode,
			&r.StartDate,
			&r.EndDate,
			&r.DurationSec,
			&r.IsMember,
		); err != nil {
			return nil, fmt.Errorf("failed to scan trip row: %w", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trip rows: %w", err)
	}
	return records, nil
}

func (s *PostgresTripStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

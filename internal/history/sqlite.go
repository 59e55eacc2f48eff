package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS comparison_runs (
    id                   INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id               TEXT NOT NULL UNIQUE,
    source_instance      TEXT NOT NULL,
    destination_instance TEXT NOT NULL,
    source_schema        TEXT NOT NULL,
    destination_schema   TEXT NOT NULL,
    success              INTEGER NOT NULL,
    error_message        TEXT NOT NULL DEFAULT '',
    missing_count        INTEGER NOT NULL,
    extra_count          INTEGER NOT NULL,
    modified_count       INTEGER NOT NULL,
    breaking_count       INTEGER NOT NULL,
    fingerprint          TEXT NOT NULL,
    profile              TEXT NOT NULL DEFAULT '',
    username             TEXT NOT NULL DEFAULT '',
    compared_at          TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_pair
    ON comparison_runs (source_instance, destination_instance, compared_at DESC);
CREATE INDEX IF NOT EXISTS idx_runs_compared_at
    ON comparison_runs (compared_at);
`

// SQLiteStore persists run history in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and if necessary initializes) the history database at
// path. Use ":memory:" for an ephemeral store.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// SQLite handles one writer at a time; serializing here avoids busy errors.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Save(ctx context.Context, rec *Record) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO comparison_runs (
			run_id, source_instance, destination_instance,
			source_schema, destination_schema,
			success, error_message,
			missing_count, extra_count, modified_count, breaking_count,
			fingerprint, profile, username, compared_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.SourceInstance, rec.DestinationInstance,
		rec.SourceSchema, rec.DestinationSchema,
		rec.Success, rec.ErrorMessage,
		rec.MissingCount, rec.ExtraCount, rec.ModifiedCount, rec.BreakingCount,
		rec.Fingerprint, rec.Profile, rec.Username, rec.ComparedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save comparison run: %w", err)
	}
	rec.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted run ID: %w", err)
	}
	return nil
}

const selectColumns = `
	id, run_id, source_instance, destination_instance,
	source_schema, destination_schema, success, error_message,
	missing_count, extra_count, modified_count, breaking_count,
	fingerprint, profile, username, compared_at`

func (s *SQLiteStore) FindRecent(ctx context.Context, limit int) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM comparison_runs ORDER BY compared_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query comparison runs: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *SQLiteStore) FindByInstances(ctx context.Context, source, destination string, days, limit int) ([]*Record, error) {
	query := `SELECT ` + selectColumns + ` FROM comparison_runs
		 WHERE source_instance = ? AND destination_instance = ?`
	args := []any{source, destination}
	if days > 0 {
		query += ` AND compared_at >= ?`
		args = append(args, time.Now().UTC().AddDate(0, 0, -days))
	}
	query += ` ORDER BY compared_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query comparison runs: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *SQLiteStore) FindMostRecent(ctx context.Context, source, destination string) (*Record, error) {
	recs, err := s.FindByInstances(ctx, source, destination, 0, 1)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return recs[0], nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comparison_runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count comparison runs: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM comparison_runs WHERE compared_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old comparison runs: %w", err)
	}
	return res.RowsAffected()
}

func scanRecords(rows *sql.Rows) ([]*Record, error) {
	var recs []*Record
	for rows.Next() {
		rec := &Record{}
		if err := rows.Scan(
			&rec.ID, &rec.RunID, &rec.SourceInstance, &rec.DestinationInstance,
			&rec.SourceSchema, &rec.DestinationSchema, &rec.Success, &rec.ErrorMessage,
			&rec.MissingCount, &rec.ExtraCount, &rec.ModifiedCount, &rec.BreakingCount,
			&rec.Fingerprint, &rec.Profile, &rec.Username, &rec.ComparedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan comparison run: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Package ledger keeps an append-only sqlite history of processed work items.
package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Register sqlite driver

	apperrors "finscrape/internal/errors"
	"finscrape/pkg/contracts/domain"
)

//go:embed migrations/001_attempts.sql
var migration string

// DefaultListLimit caps List when no limit is given
const DefaultListLimit = 100

// Ledger stores item attempts
type Ledger struct {
	db *sql.DB
}

// Open opens (and migrates) the ledger database at dsn
func Open(dsn string) (*Ledger, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, apperrors.NewStorageError("open ledger", err)
	}

	// In-memory databases are per-connection.
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, apperrors.NewStorageError(fmt.Sprintf("exec %s", pragma), err)
		}
	}

	if _, err := db.Exec(migration); err != nil {
		_ = db.Close()
		return nil, apperrors.NewStorageError("migrate ledger", err)
	}
	return &Ledger{db: db}, nil
}

// Close closes the database
func (l *Ledger) Close() error {
	return l.db.Close()
}

// RecordAttempt appends one attempt
func (l *Ledger) RecordAttempt(ctx context.Context, a domain.Attempt) error {
	const query = `INSERT INTO attempts (run_id, work_list, item_index, identifier,
		resolution, missing_fields, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := l.db.ExecContext(ctx, query,
		a.RunID, a.WorkList, a.ItemIndex, a.Identifier,
		string(a.Resolution), a.MissingFields, a.DurationMS,
		createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return apperrors.NewStorageError("record attempt", err).
			WithContext("work_list", a.WorkList).
			WithContext("item_index", a.ItemIndex)
	}
	return nil
}

// List returns the most recent attempts of a work list, newest first
func (l *Ledger) List(ctx context.Context, workList string, limit int) ([]domain.Attempt, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	const query = `SELECT run_id, work_list, item_index, identifier, resolution,
		missing_fields, duration_ms, created_at
		FROM attempts WHERE work_list = ?
		ORDER BY id DESC LIMIT ?`

	rows, err := l.db.QueryContext(ctx, query, workList, limit)
	if err != nil {
		return nil, apperrors.NewStorageError("list attempts", err)
	}
	defer func() { _ = rows.Close() }()

	attempts := []domain.Attempt{}
	for rows.Next() {
		var a domain.Attempt
		var resolution, createdStr string
		if err := rows.Scan(
			&a.RunID, &a.WorkList, &a.ItemIndex, &a.Identifier, &resolution,
			&a.MissingFields, &a.DurationMS, &createdStr,
		); err != nil {
			return nil, apperrors.NewStorageError("scan attempt", err)
		}
		a.Resolution = domain.Resolution(resolution)
		a.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("list attempts", err)
	}
	return attempts, nil
}

// Package store journals game events to SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"treasure-hunt-backend/internal/grid"
	"treasure-hunt-backend/internal/models"
	"treasure-hunt-backend/internal/oracle"
)

var ErrDuplicateEvent = errors.New("event already recorded")

const schema = `
CREATE TABLE IF NOT EXISTS game_events (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	type       TEXT NOT NULL,
	account    TEXT NOT NULL DEFAULT '',
	from_cell  INTEGER,
	to_cell    INTEGER,
	amount     INTEGER NOT NULL DEFAULT 0,
	request_id INTEGER NOT NULL DEFAULT 0,
	kind       TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_game_events_account ON game_events (account, seq);
`

// Journal is an append-only log of game events.
type Journal struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the journal at path and creates its table. ":memory:" keeps the
// journal in process.
func Open(path string) (*Journal, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("journal path is required")
	}

	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	}

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// An in-memory database only exists on its own connection.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Journal{sqlDB: sqlDB}, nil
}

func (j *Journal) Close() error {
	if j == nil || j.sqlDB == nil {
		return nil
	}
	return j.sqlDB.Close()
}

func nullCell(p *grid.Position) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func cellPtr(v sql.NullInt64) *grid.Position {
	if !v.Valid {
		return nil
	}
	p := grid.Position(v.Int64)
	return &p
}

// RecordEvent appends event to the journal.
func (j *Journal) RecordEvent(ctx context.Context, event *models.GameEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if event == nil || event.ID == "" {
		return fmt.Errorf("event id is required")
	}

	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := j.sqlDB.ExecContext(
		ctx,
		`INSERT INTO game_events (
		   id, type, account, from_cell, to_cell, amount, request_id, kind, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		string(event.Type),
		event.Account,
		nullCell(event.From),
		nullCell(event.To),
		event.Amount,
		int64(event.RequestID),
		string(event.Kind),
		toMillis(createdAt),
	)
	if err != nil {
		if isConstraintError(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateEvent, event.ID)
		}
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ListEvents returns up to limit events, newest first. An empty account lists
// every event.
func (j *Journal) ListEvents(ctx context.Context, account string, limit int) ([]*models.GameEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `SELECT id, type, account, from_cell, to_cell, amount, request_id, kind, created_at
	          FROM game_events`
	args := []any{}
	if account != "" {
		query += ` WHERE account = ?`
		args = append(args, account)
	}
	query += ` ORDER BY seq DESC LIMIT ?`
	args = append(args, limit)

	rows, err := j.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []*models.GameEvent{}
	for rows.Next() {
		var (
			event     models.GameEvent
			eventType string
			kind      string
			from, to  sql.NullInt64
			requestID int64
			createdAt int64
		)
		if err := rows.Scan(&event.ID, &eventType, &event.Account, &from, &to, &event.Amount, &requestID, &kind, &createdAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		event.Type = models.EventType(eventType)
		event.Kind = models.MoveKind(kind)
		event.From = cellPtr(from)
		event.To = cellPtr(to)
		event.RequestID = oracle.RequestID(requestID)
		event.CreatedAt = fromMillis(createdAt)
		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

func isConstraintError(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/torctl/internal/model"
)

// fileName is the database file created inside the recording
// directory.
const fileName = "torctl-events.db"

// EventDB is an SQLite-backed store of daemon events.
type EventDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures EventDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file when
	// they do not exist. Without it, a missing database is an error.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging, which keeps reads cheap
	// while the recorder is appending.
	EnableWAL bool
}

// DefaultOptions returns the options the listen command uses.
func DefaultOptions() Options {
	return Options{CreateIfNotExists: true, EnableWAL: true}
}

// Open opens or creates the event database inside dir.
func Open(dir string, opts Options) (*EventDB, error) {
	dbPath := filepath.Join(dir, fileName)

	var dsn string
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = dbPath + "?mode=rwc"
	} else {
		if _, err := os.Stat(dbPath); err != nil {
			return nil, fmt.Errorf("event database not found at %s: %w", dbPath, err)
		}
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open event database: %w", err)
	}

	// SQLite supports a single writer; keeping one connection avoids
	// SQLITE_BUSY churn from the recorder goroutine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	edb := &EventDB{db: db, dbPath: dbPath}
	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}
	if err := edb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return edb, nil
}

// Close closes the database.
func (e *EventDB) Close() error {
	return e.db.Close()
}

// Path returns the database file path.
func (e *EventDB) Path() string {
	return e.dbPath
}

// createTables creates the schema if it does not exist.
func (e *EventDB) createTables() error {
	const schema = `
CREATE TABLE IF NOT EXISTS events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL,
	args        TEXT NOT NULL,
	received_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_name ON events(name);
`
	_, err := e.db.ExecContext(context.Background(), schema)
	return err
}

// InsertEvent appends one event.
func (e *EventDB) InsertEvent(ctx context.Context, name, args string, receivedAt time.Time) error {
	_, err := e.db.ExecContext(ctx,
		"INSERT INTO events (name, args, received_at) VALUES (?, ?, ?)",
		name, args, receivedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Events returns the most recent events, newest first, up to limit. A
// limit of 0 or less returns everything.
func (e *EventDB) Events(ctx context.Context, limit int) ([]model.EventRecord, error) {
	query := "SELECT id, name, args, received_at FROM events ORDER BY id DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var records []model.EventRecord
	for rows.Next() {
		var r model.EventRecord
		if err := rows.Scan(&r.ID, &r.Name, &r.Args, &r.ReceivedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// CountByName returns how many events of each name were recorded.
func (e *EventDB) CountByName(ctx context.Context) (map[string]int, error) {
	rows, err := e.db.QueryContext(ctx,
		"SELECT name, COUNT(*) FROM events GROUP BY name")
	if err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[name] = n
	}
	return counts, rows.Err()
}

package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Journal kinds
const (
	KindSetup  = "setup"
	KindStatus = "status"
	KindReset  = "reset"
)

// Journal outcomes
const (
	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
	OutcomeAborted = "aborted"
)

// JournalEntry is one recorded command run
type JournalEntry struct {
	ID        int64
	CreatedAt time.Time
	Kind      string
	DeviceID  string
	Outcome   string
	Detail    string
}

// Journal is a local SQLite history of setup, status and reset runs. It is
// kept next to the device record and survives reset.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

// OpenJournal opens (creating if needed) the journal database at dbPath
func OpenJournal(dbPath string) (*Journal, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Journal{db: db, now: time.Now}, nil
}

// runMigrations applies the embedded schema migrations
func runMigrations(db *sql.DB) error {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migration source: %w", err)
	}

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migrate driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Close closes the database connection
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends an entry. CreatedAt is filled in when zero.
func (j *Journal) Record(ctx context.Context, entry JournalEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = j.now()
	}

	query := `
		INSERT INTO journal (created_at, kind, device_id, outcome, detail)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := j.db.ExecContext(ctx, query,
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
		entry.Kind, entry.DeviceID, entry.Outcome, entry.Detail,
	)
	if err != nil {
		return fmt.Errorf("record journal entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first
func (j *Journal) Recent(ctx context.Context, limit int) ([]JournalEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, created_at, kind, device_id, outcome, detail
		FROM journal
		ORDER BY id DESC
		LIMIT ?
	`
	rows, err := j.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		var (
			entry     JournalEntry
			createdAt string
		)
		if err := rows.Scan(&entry.ID, &createdAt, &entry.Kind, &entry.DeviceID, &entry.Outcome, &entry.Detail); err != nil {
			return nil, err
		}
		entry.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse journal timestamp %q: %w", createdAt, err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

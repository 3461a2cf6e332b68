package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"crivo-thalam/devsvc/app/domains"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Store represents the SQLite storage implementation
type Store struct {
	db *sql.DB
}

// NewStore opens the database at path and applies migrations. ":memory:"
// keeps everything in process.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection, so an in-memory database is shared by every query
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

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

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateDevice inserts a new device
func (s *Store) CreateDevice(ctx context.Context, device *domains.Device) error {
	query := `
		INSERT INTO devices (device_id, device_name, platform, platform_version, machine, processor, hardware_id, registered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := s.db.ExecContext(ctx, query,
		device.DeviceID, device.DeviceName, device.Platform, device.PlatformVersion,
		device.Machine, device.Processor, device.HardwareID, formatTime(device.RegisteredAt),
	)
	if err != nil {
		return fmt.Errorf("insert device: %w", err)
	}
	device.ID, err = res.LastInsertId()
	return err
}

// GetDevice retrieves a device by its service-assigned id
func (s *Store) GetDevice(ctx context.Context, deviceID string) (*domains.Device, error) {
	query := `
		SELECT id, device_id, device_name, platform, platform_version, machine, processor,
		       hardware_id, registered_at, is_authorized, authorized_by, authorized_at
		FROM devices WHERE device_id = ?
	`
	device, err := scanDevice(s.db.QueryRowContext(ctx, query, deviceID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return device, nil
}

// AuthorizeDevice marks a device authorized. It reports false when the device
// does not exist. Authorizing twice keeps the first approval.
func (s *Store) AuthorizeDevice(ctx context.Context, deviceID, authorizedBy string, at time.Time) (bool, error) {
	query := `
		UPDATE devices
		SET is_authorized = 1,
		    authorized_by = COALESCE(authorized_by, ?),
		    authorized_at = COALESCE(authorized_at, ?)
		WHERE device_id = ?
	`
	res, err := s.db.ExecContext(ctx, query, authorizedBy, formatTime(at), deviceID)
	if err != nil {
		return false, fmt.Errorf("authorize device: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListDevices returns all devices, newest first
func (s *Store) ListDevices(ctx context.Context) ([]domains.Device, error) {
	query := `
		SELECT id, device_id, device_name, platform, platform_version, machine, processor,
		       hardware_id, registered_at, is_authorized, authorized_by, authorized_at
		FROM devices ORDER BY id DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query devices: %w", err)
	}
	defer rows.Close()

	var devices []domains.Device
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, *device)
	}
	return devices, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDevice(row scanner) (*domains.Device, error) {
	var (
		device       domains.Device
		registeredAt string
		authorizedBy sql.NullString
		authorizedAt sql.NullString
	)
	err := row.Scan(
		&device.ID, &device.DeviceID, &device.DeviceName, &device.Platform, &device.PlatformVersion,
		&device.Machine, &device.Processor, &device.HardwareID, &registeredAt, &device.IsAuthorized,
		&authorizedBy, &authorizedAt,
	)
	if err != nil {
		return nil, err
	}

	if device.RegisteredAt, err = time.Parse(time.RFC3339Nano, registeredAt); err != nil {
		return nil, fmt.Errorf("parse registered_at %q: %w", registeredAt, err)
	}
	if authorizedBy.Valid {
		device.AuthorizedBy = &authorizedBy.String
	}
	if authorizedAt.Valid {
		at, err := time.Parse(time.RFC3339Nano, authorizedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse authorized_at %q: %w", authorizedAt.String, err)
		}
		device.AuthorizedAt = &at
	}
	return &device, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

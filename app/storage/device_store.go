package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DeviceRecord is the persisted identity and authorization state of this
// installation.
type DeviceRecord struct {
	DeviceID     string `json:"device_id"`
	DeviceName   string `json:"device_name"`
	AuthLink     string `json:"auth_link"`
	IsAuthorized bool   `json:"is_authorized"`
	AuthorizedBy string `json:"authorized_by,omitempty"`
	AuthorizedAt string `json:"authorized_at,omitempty"`
}

// CorruptStateError is returned when the record file exists but cannot be
// understood. The file is left in place for the user to inspect or reset.
type CorruptStateError struct {
	Path string
	Err  error
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("device record %s is corrupt: %v", e.Path, e.Err)
}

func (e *CorruptStateError) Unwrap() error { return e.Err }

// DeviceStore reads and writes the device record file
type DeviceStore struct {
	path string
}

// NewDeviceStore creates a store for the record at path
func NewDeviceStore(path string) *DeviceStore {
	return &DeviceStore{path: path}
}

// Path returns the record file location
func (s *DeviceStore) Path() string {
	return s.path
}

// Exists reports whether a record file is present, valid or not
func (s *DeviceStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load loads the record from disk. It returns nil, nil when no record exists.
func (s *DeviceStore) Load() (*DeviceRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read device record: %w", err)
	}

	var record DeviceRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, &CorruptStateError{Path: s.path, Err: err}
	}
	if strings.TrimSpace(record.DeviceID) == "" {
		return nil, &CorruptStateError{Path: s.path, Err: errors.New("device_id is missing")}
	}

	return &record, nil
}

// Save writes the full record, replacing any previous one. The write goes to a
// temporary file in the same directory which is then renamed over the target,
// so readers see either the old or the new record.
func (s *DeviceStore) Save(record *DeviceRecord) error {
	if record == nil {
		return errors.New("device record is nil")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config directory %q: %w", dir, err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal device record: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp device record: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp device record: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("sync temp device record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp device record: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod temp device record: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace device record %q: %w", s.path, err)
	}

	return nil
}

// Delete removes the record file. It reports false when there was nothing to
// remove.
func (s *DeviceStore) Delete() (bool, error) {
	if err := os.Remove(s.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("remove device record: %w", err)
	}
	return true, nil
}

// Lock takes an exclusive advisory lock guarding load-modify-save sequences
// on the record. The returned function releases it.
func (s *DeviceStore) Lock() (func(), error) {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create config directory %q: %w", dir, err)
	}
	return lockFile(s.path + ".lock")
}

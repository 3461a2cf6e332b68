package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *DeviceStore {
	t.Helper()
	return NewDeviceStore(filepath.Join(t.TempDir(), "nested", "device.json"))
}

func TestLoadMissingReturnsNil(t *testing.T) {
	s := newTestStore(t)
	record, err := s.Load()
	require.NoError(t, err)
	require.Nil(t, record)
	require.False(t, s.Exists())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	want := &DeviceRecord{
		DeviceID:     "abc",
		DeviceName:   "laptop",
		AuthLink:     "http://x/auth/abc",
		IsAuthorized: true,
		AuthorizedBy: "alice",
		AuthorizedAt: "2024-01-01T00:00:00Z",
	}

	require.NoError(t, s.Save(want))
	require.True(t, s.Exists())

	got, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, want, got)

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSaveWritesPrettyJSONWithoutOptionalFields(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save(&DeviceRecord{DeviceID: "dev-1", DeviceName: "box", AuthLink: "http://svc/auth/dev-1"}))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	require.Equal(t, `{
  "device_id": "dev-1",
  "device_name": "box",
  "auth_link": "http://svc/auth/dev-1",
  "is_authorized": false
}
`, string(data))
}

func TestSaveOverwritesAndLeavesNoTempFiles(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save(&DeviceRecord{DeviceID: "first"}))
	require.NoError(t, s.Save(&DeviceRecord{DeviceID: "second"}))

	got, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, "second", got.DeviceID)

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestLoadCorrupt(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{name: "not json", content: "device_id=abc"},
		{name: "truncated", content: `{"device_id": "abc"`},
		{name: "wrong type", content: `{"device_id": "abc", "is_authorized": "yes"}`},
		{name: "missing device id", content: `{"device_name": "laptop"}`},
		{name: "array", content: `[]`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestStore(t)
			require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o700))
			require.NoError(t, os.WriteFile(s.Path(), []byte(tc.content), 0o600))

			record, err := s.Load()
			require.Nil(t, record)
			var corrupt *CorruptStateError
			require.True(t, errors.As(err, &corrupt), "got %v", err)
			require.Equal(t, s.Path(), corrupt.Path)
			require.True(t, s.Exists())
		})
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)

	removed, err := s.Delete()
	require.NoError(t, err)
	require.False(t, removed)

	require.NoError(t, s.Save(&DeviceRecord{DeviceID: "abc"}))
	removed, err = s.Delete()
	require.NoError(t, err)
	require.True(t, removed)
	require.False(t, s.Exists())
}

func TestLockReleases(t *testing.T) {
	s := newTestStore(t)

	unlock, err := s.Lock()
	require.NoError(t, err)
	unlock()

	unlock, err = s.Lock()
	require.NoError(t, err)
	unlock()
}

func TestRecordJSONFieldNames(t *testing.T) {
	data, err := json.Marshal(DeviceRecord{DeviceID: "a", AuthorizedBy: "b", AuthorizedAt: "c"})
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	for _, key := range []string{"device_id", "device_name", "auth_link", "is_authorized", "authorized_by", "authorized_at"} {
		require.Contains(t, fields, key)
	}
}

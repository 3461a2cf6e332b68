package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"crivo-thalam/devsvc/app/domains"

	"github.com/stretchr/testify/require"
)

func TestDeviceLifecycle(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "devsvc.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	registered := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	device := &domains.Device{
		DeviceID:     "dev-1",
		DeviceName:   "laptop",
		Platform:     "Linux",
		HardwareID:   "1234",
		RegisteredAt: registered,
	}
	require.NoError(t, store.CreateDevice(ctx, device))
	require.NotZero(t, device.ID)

	got, err := store.GetDevice(ctx, "dev-1")
	require.NoError(t, err)
	require.Equal(t, "laptop", got.DeviceName)
	require.True(t, got.RegisteredAt.Equal(registered))
	require.False(t, got.IsAuthorized)
	require.Nil(t, got.AuthorizedBy)
	require.Nil(t, got.AuthorizedAt)

	ok, err := store.AuthorizeDevice(ctx, "dev-1", "alice", registered.Add(time.Hour))
	require.NoError(t, err)
	require.True(t, ok)

	got, err = store.GetDevice(ctx, "dev-1")
	require.NoError(t, err)
	require.True(t, got.IsAuthorized)
	require.Equal(t, "alice", *got.AuthorizedBy)
	require.True(t, got.AuthorizedAt.Equal(registered.Add(time.Hour)))

	ok, err = store.AuthorizeDevice(ctx, "missing", "alice", registered)
	require.NoError(t, err)
	require.False(t, ok)

	missing, err := store.GetDevice(ctx, "missing")
	require.NoError(t, err)
	require.Nil(t, missing)

	devices, err := store.ListDevices(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 1)
}

func TestDuplicateDeviceIDRejected(t *testing.T) {
	store, err := NewStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	device := &domains.Device{DeviceID: "dev-1", DeviceName: "a", Platform: "Linux", HardwareID: "1", RegisteredAt: time.Now()}
	require.NoError(t, store.CreateDevice(ctx, device))

	dup := *device
	require.Error(t, store.CreateDevice(ctx, &dup))
}

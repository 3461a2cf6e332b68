package clients

import (
	"context"
	"time"

	"crivo-thalam/devsvc/app/domains"
)

// StorageAdapter defines the interface for storage operations
type StorageAdapter interface {
	CreateDevice(ctx context.Context, device *domains.Device) error
	GetDevice(ctx context.Context, deviceID string) (*domains.Device, error)
	AuthorizeDevice(ctx context.Context, deviceID, authorizedBy string, at time.Time) (bool, error)
	ListDevices(ctx context.Context) ([]domains.Device, error)
	Close() error
}

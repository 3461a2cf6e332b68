package domains

import "time"

// Device represents a registered device
type Device struct {
	ID              int64
	DeviceID        string
	DeviceName      string
	Platform        string
	PlatformVersion string
	Machine         string
	Processor       string
	HardwareID      string
	RegisteredAt    time.Time
	IsAuthorized    bool
	AuthorizedBy    *string
	AuthorizedAt    *time.Time
}

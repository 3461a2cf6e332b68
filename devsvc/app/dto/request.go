package dto

// RegisterDeviceRequest is the identity a device submits on registration
type RegisterDeviceRequest struct {
	DeviceName      string `json:"device_name" validate:"required,max=255"`
	Platform        string `json:"platform" validate:"required,max=64"`
	PlatformVersion string `json:"platform_version" validate:"max=255"`
	Machine         string `json:"machine" validate:"max=64"`
	Processor       string `json:"processor" validate:"max=255"`
	DeviceID        string `json:"device_id" validate:"required,max=64"`
}

// AuthorizeRequest is the approval form posted from the auth page
type AuthorizeRequest struct {
	AuthorizedBy string `form:"authorized_by" json:"authorized_by" validate:"required,max=255"`
}

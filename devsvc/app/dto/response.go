package dto

// RegisterDeviceResponse is returned with 201 Created
type RegisterDeviceResponse struct {
	DeviceID string `json:"device_id"`
	AuthLink string `json:"auth_link"`
	Message  string `json:"message"`
}

// DeviceStatusResponse reports authorization state
type DeviceStatusResponse struct {
	DeviceID     string  `json:"device_id"`
	IsAuthorized bool    `json:"is_authorized"`
	AuthorizedBy *string `json:"authorized_by"`
	AuthorizedAt *string `json:"authorized_at"`
}

// DeviceSummary is one row of the device listing
type DeviceSummary struct {
	DeviceID     string `json:"device_id"`
	DeviceName   string `json:"device_name"`
	Platform     string `json:"platform"`
	RegisteredAt string `json:"registered_at"`
	IsAuthorized bool   `json:"is_authorized"`
}

// ListDevicesResponse wraps the device listing
type ListDevicesResponse struct {
	Devices []DeviceSummary `json:"devices"`
}

// ErrorResponse carries a human readable reason
type ErrorResponse struct {
	Detail string `json:"detail"`
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"crivo-thalam/app/clients"
	"crivo-thalam/app/identity"
)

// RegistrationResult is what the service assigns on registration
type RegistrationResult struct {
	DeviceID string `json:"device_id"`
	AuthLink string `json:"auth_link"`
}

// StatusResult is the service's view of a device's authorization
type StatusResult struct {
	IsAuthorized bool    `json:"is_authorized"`
	AuthorizedBy *string `json:"authorized_by,omitempty"`
	AuthorizedAt *string `json:"authorized_at,omitempty"`
}

// DeviceClient provides the device endpoints of the authorization service
type DeviceClient struct {
	httpClient *clients.HTTPClient
}

// NewDeviceClient creates a new device client
func NewDeviceClient(httpClient *clients.HTTPClient) *DeviceClient {
	return &DeviceClient{
		httpClient: httpClient,
	}
}

// RegisterDevice registers the identity and expects 201 Created
func (c *DeviceClient) RegisterDevice(ctx context.Context, ident identity.DeviceIdentity) (*RegistrationResult, error) {
	var result RegistrationResult
	err := c.httpClient.DoRequest(ctx, http.MethodPost, "/api/devices/register", ident, http.StatusCreated,
		func(resp *http.Response) error {
			if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
			if result.DeviceID == "" || result.AuthLink == "" {
				return errors.New("registration response is missing device_id or auth_link")
			}
			return nil
		})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// DeviceStatus fetches the authorization status of deviceID
func (c *DeviceClient) DeviceStatus(ctx context.Context, deviceID string) (*StatusResult, error) {
	path := fmt.Sprintf("/api/devices/%s/status", url.PathEscape(deviceID))

	var result struct {
		IsAuthorized *bool   `json:"is_authorized"`
		AuthorizedBy *string `json:"authorized_by"`
		AuthorizedAt *string `json:"authorized_at"`
	}
	err := c.httpClient.DoRequest(ctx, http.MethodGet, path, nil, http.StatusOK,
		func(resp *http.Response) error {
			if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
			if result.IsAuthorized == nil {
				return errors.New("status response is missing is_authorized")
			}
			return nil
		})
	if err != nil {
		return nil, err
	}

	status := &StatusResult{IsAuthorized: *result.IsAuthorized}
	if result.AuthorizedBy != nil && *result.AuthorizedBy != "" {
		status.AuthorizedBy = result.AuthorizedBy
	}
	if result.AuthorizedAt != nil && *result.AuthorizedAt != "" {
		status.AuthorizedAt = result.AuthorizedAt
	}
	return status, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crivo-thalam/devsvc/app/clients"
	"crivo-thalam/devsvc/app/domains"
	"crivo-thalam/devsvc/app/dto"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrDeviceNotFound is returned for unknown device ids
var ErrDeviceNotFound = errors.New("device not found")

// DeviceRegistryService handles device registration and approval
type DeviceRegistryService struct {
	storage   clients.StorageAdapter
	tokens    *TokenService
	publicURL string
	log       zerolog.Logger
	now       func() time.Time
}

// NewDeviceRegistryService creates a new device registry service
func NewDeviceRegistryService(storage clients.StorageAdapter, tokens *TokenService, publicURL string, log zerolog.Logger) *DeviceRegistryService {
	return &DeviceRegistryService{
		storage:   storage,
		tokens:    tokens,
		publicURL: publicURL,
		log:       log,
		now:       time.Now,
	}
}

// Register stores a new device and returns it with its auth link. Every call
// creates a new device, even for a hardware id seen before.
func (s *DeviceRegistryService) Register(ctx context.Context, req *dto.RegisterDeviceRequest) (*domains.Device, string, error) {
	device := &domains.Device{
		DeviceID:        uuid.NewString(),
		DeviceName:      req.DeviceName,
		Platform:        req.Platform,
		PlatformVersion: req.PlatformVersion,
		Machine:         req.Machine,
		Processor:       req.Processor,
		HardwareID:      req.DeviceID,
		RegisteredAt:    s.now(),
	}
	if err := s.storage.CreateDevice(ctx, device); err != nil {
		return nil, "", err
	}

	link, err := s.AuthLink(device.DeviceID)
	if err != nil {
		return nil, "", err
	}

	s.log.Info().Str("device_id", device.DeviceID).Str("device_name", device.DeviceName).Str("hardware_id", device.HardwareID).Msg("device registered")
	return device, link, nil
}

// AuthLink builds the approval URL for deviceID
func (s *DeviceRegistryService) AuthLink(deviceID string) (string, error) {
	token, err := s.tokens.GenerateToken(deviceID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/auth/%s", s.publicURL, token), nil
}

// GetDevice returns the device or ErrDeviceNotFound
func (s *DeviceRegistryService) GetDevice(ctx context.Context, deviceID string) (*domains.Device, error) {
	device, err := s.storage.GetDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, ErrDeviceNotFound
	}
	return device, nil
}

// DeviceForToken resolves an auth link token to its device
func (s *DeviceRegistryService) DeviceForToken(ctx context.Context, token string) (*domains.Device, error) {
	deviceID, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	return s.GetDevice(ctx, deviceID)
}

// Authorize approves the device named by token
func (s *DeviceRegistryService) Authorize(ctx context.Context, token, authorizedBy string) (*domains.Device, error) {
	deviceID, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	ok, err := s.storage.AuthorizeDevice(ctx, deviceID, authorizedBy, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrDeviceNotFound
	}

	s.log.Info().Str("device_id", deviceID).Str("authorized_by", authorizedBy).Msg("device authorized")
	return s.GetDevice(ctx, deviceID)
}

// ListDevices returns every registered device
func (s *DeviceRegistryService) ListDevices(ctx context.Context) ([]domains.Device, error) {
	return s.storage.ListDevices(ctx)
}

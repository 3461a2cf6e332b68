package services

import (
	"context"

	"crivo-thalam/app/identity"

	"github.com/rs/zerolog"
)

// RegistrationService performs the one-time device registration
type RegistrationService struct {
	client *DeviceClient
	log    zerolog.Logger
}

// NewRegistrationService creates a new registration service
func NewRegistrationService(client *DeviceClient, log zerolog.Logger) *RegistrationService {
	return &RegistrationService{
		client: client,
		log:    log,
	}
}

// Register registers the device with the service. Each call creates a new
// server-side registration; callers decide whether re-registering is wanted.
//
// Errors: *RejectedError when the service declines, ErrServiceUnavailable
// when it cannot be reached, *clients.TransportError otherwise.
func (r *RegistrationService) Register(ctx context.Context, ident identity.DeviceIdentity) (*RegistrationResult, error) {
	r.log.Info().Str("device_name", ident.DeviceName).Str("hardware_id", ident.DeviceID).Msg("registering device")

	result, err := r.client.RegisterDevice(ctx, ident)
	if err != nil {
		err = translate(OpRegistration, err)
		r.log.Debug().Err(err).Msg("registration failed")
		return nil, err
	}

	r.log.Info().Str("device_id", result.DeviceID).Msg("registered device")
	return result, nil
}

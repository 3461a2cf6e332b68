package services

import (
	"context"

	"crivo-thalam/app/storage"

	"github.com/rs/zerolog"
)

// StatusService fetches authorization status from the service
type StatusService struct {
	client *DeviceClient
	log    zerolog.Logger
}

// NewStatusService creates a new status service
func NewStatusService(client *DeviceClient, log zerolog.Logger) *StatusService {
	return &StatusService{
		client: client,
		log:    log,
	}
}

// FetchStatus queries the current authorization status of deviceID.
//
// Errors: *RejectedError when the service declines, ErrServiceUnavailable
// when it cannot be reached, *clients.TransportError otherwise.
func (s *StatusService) FetchStatus(ctx context.Context, deviceID string) (*StatusResult, error) {
	status, err := s.client.DeviceStatus(ctx, deviceID)
	if err != nil {
		err = translate(OpStatus, err)
		s.log.Debug().Err(err).Str("device_id", deviceID).Msg("status fetch failed")
		return nil, err
	}

	s.log.Debug().Str("device_id", deviceID).Bool("is_authorized", status.IsAuthorized).Msg("fetched status")
	return status, nil
}

// MergeStatus returns record with the authorization fields taken from status.
// is_authorized is always copied; authorized_by and authorized_at only when
// the service reported them. Identity fields are never touched.
func MergeStatus(record storage.DeviceRecord, status StatusResult) storage.DeviceRecord {
	record.IsAuthorized = status.IsAuthorized
	if status.AuthorizedBy != nil {
		record.AuthorizedBy = *status.AuthorizedBy
	}
	if status.AuthorizedAt != nil {
		record.AuthorizedAt = *status.AuthorizedAt
	}
	return record
}

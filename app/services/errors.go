package services

import (
	"errors"
	"fmt"

	"crivo-thalam/app/clients"
)

// ErrNotConfigured is returned by operations that need a device record when
// none exists.
var ErrNotConfigured = errors.New("device not configured")

// ErrServiceUnavailable re-exports the transport sentinel so callers only
// need this package.
var ErrServiceUnavailable = clients.ErrServiceUnavailable

const unknownDetail = "Unknown error"

// Rejection operations
const (
	OpRegistration = "registration"
	OpStatus       = "status"
)

// RejectedError is returned when the service answers a request with a
// non-success status. Detail is the server's reason or "Unknown error".
type RejectedError struct {
	Op         string
	StatusCode int
	Detail     string
}

func (e *RejectedError) Error() string {
	switch e.Op {
	case OpRegistration:
		return fmt.Sprintf("registration failed: %s", e.Detail)
	case OpStatus:
		return fmt.Sprintf("could not fetch status: %s", e.Detail)
	default:
		return fmt.Sprintf("%s failed: %s", e.Op, e.Detail)
	}
}

// translate turns a transport *StatusError into a *RejectedError for op and
// passes every other error through unchanged.
func translate(op string, err error) error {
	var statusErr *clients.StatusError
	if errors.As(err, &statusErr) {
		detail := statusErr.Detail
		if detail == "" {
			detail = unknownDetail
		}
		return &RejectedError{Op: op, StatusCode: statusErr.StatusCode, Detail: detail}
	}
	return err
}

// Package apperr defines the error taxonomy shared by the stores, services and controllers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidCoordinate   = fmt.Errorf("%w: invalid coordinate", ErrInvalidInput)
	ErrOutOfOrderTimestamp = errors.New("checkpoint timestamp is earlier than the previous checkpoint")
	ErrNotFound            = errors.New("not found")
	ErrNoActiveConfig      = errors.New("no active fare config for vehicle type")
	ErrInvalidVehicleType  = errors.New("invalid vehicle type")
	ErrConfigInUse         = errors.New("fare config is in use")
	ErrInvalidRideState    = errors.New("ride does not accept checkpoints")
	ErrForbidden           = errors.New("ride belongs to another rider")

	// ErrStoreUnavailable marks persistence failures. Callers may retry these.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Invalid wraps ErrInvalidInput with a field-level message.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Transient wraps a persistence error so it classifies as ErrStoreUnavailable
// while keeping the driver error in the chain.
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// IsRetryable reports whether err is safe to retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// HTTPStatus maps an error to the status the dashboard expects.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrOutOfOrderTimestamp):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidVehicleType):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNoActiveConfig):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrConfigInUse), errors.Is(err, ErrInvalidRideState):
		return http.StatusConflict
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Code returns a stable machine-readable name for err.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCoordinate):
		return "InvalidCoordinate"
	case errors.Is(err, ErrInvalidInput):
		return "InvalidInput"
	case errors.Is(err, ErrOutOfOrderTimestamp):
		return "OutOfOrderTimestamp"
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrNoActiveConfig):
		return "NoActiveConfig"
	case errors.Is(err, ErrInvalidVehicleType):
		return "InvalidVehicleType"
	case errors.Is(err, ErrConfigInUse):
		return "ConfigInUse"
	case errors.Is(err, ErrInvalidRideState):
		return "InvalidRideState"
	case errors.Is(err, ErrForbidden):
		return "Forbidden"
	case errors.Is(err, ErrStoreUnavailable):
		return "StoreUnavailable"
	default:
		return "Internal"
	}
}

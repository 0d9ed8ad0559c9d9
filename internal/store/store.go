// Package store persists rides, checkpoints and fare configs in Postgres through GORM.
package store

import (
	"errors"

	"gorm.io/gorm"

	"trip_tracker/internal/apperr"
)

var domainErrors = []error{
	apperr.ErrInvalidInput,
	apperr.ErrOutOfOrderTimestamp,
	apperr.ErrNotFound,
	apperr.ErrNoActiveConfig,
	apperr.ErrInvalidVehicleType,
	apperr.ErrConfigInUse,
	apperr.ErrInvalidRideState,
	apperr.ErrForbidden,
	apperr.ErrStoreUnavailable,
}

// classify passes domain errors through and marks everything else coming out
// of the driver as transient.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, d := range domainErrors {
		if errors.Is(err, d) {
			return err
		}
	}
	return apperr.Transient(op, err)
}

func notFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

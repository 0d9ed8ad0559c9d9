package services

import (
	"fmt"
	"time"

	"trip_tracker/internal/apperr"
	"trip_tracker/internal/geo"
	"trip_tracker/internal/models"
)

// NextCheckpoint derives the row that follows prev in a ride's ledger.
// prev is nil for the first checkpoint. k is the number of interpolation
// points kept between prev and the new location.
func NextCheckpoint(prev *models.Checkpoint, in models.CheckpointInput, k int, receivedAt time.Time) (*models.Checkpoint, error) {
	captured := in.CapturedAt
	if captured.IsZero() {
		captured = receivedAt
	}

	cp := &models.Checkpoint{
		RideID:           in.RideID,
		RiderID:          in.RiderID,
		CustomerID:       in.CustomerID,
		CheckpointType:   in.CheckpointType,
		SequenceNumber:   1,
		Location:         in.Location,
		Address:          in.Address,
		CapturedAt:       captured,
		ReceivedAt:       receivedAt,
		ClockSkewSeconds: receivedAt.Sub(captured).Seconds(),
	}
	if prev == nil {
		return cp, nil
	}

	if captured.Before(prev.CapturedAt) {
		return nil, fmt.Errorf("%w: %s is before checkpoint %d at %s",
			apperr.ErrOutOfOrderTimestamp,
			captured.Format(time.RFC3339Nano), prev.SequenceNumber, prev.CapturedAt.Format(time.RFC3339Nano))
	}

	from := prev.Location.Point()
	dist := geo.DistanceKm(from, in.Location.Point())

	cp.SequenceNumber = prev.SequenceNumber + 1
	cp.DistanceFromPrevious = dist
	cp.CumulativeDistance = prev.CumulativeDistance + dist
	cp.DurationFromPrevious = captured.Sub(prev.CapturedAt).Seconds()
	cp.PrevLatitude = from.Lat
	cp.PrevLongitude = from.Lng
	cp.InterpolationCount = max(k, 0)
	return cp, nil
}

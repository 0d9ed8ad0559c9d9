package services

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"trip_tracker/internal/apperr"
	"trip_tracker/internal/geo"
	"trip_tracker/internal/models"
)

type CheckpointOptions struct {
	// InterpolationPoints is k, the number of display points stored between
	// two consecutive checkpoints.
	InterpolationPoints int
	// SkewWarn is the clock skew above which an append is logged as a warning.
	SkewWarn time.Duration
}

// CheckpointService appends checkpoints to ride ledgers. Appends to one ride
// are serialized in process by RideLocks and across replicas by the ride row
// lock taken in the store.
type CheckpointService struct {
	repo  CheckpointRepository
	locks *RideLocks
	opts  CheckpointOptions
	now   func() time.Time
}

func NewCheckpointService(repo CheckpointRepository, locks *RideLocks, opts CheckpointOptions) *CheckpointService {
	if locks == nil {
		locks = NewRideLocks()
	}
	return &CheckpointService{repo: repo, locks: locks, opts: opts, now: time.Now}
}

func (s *CheckpointService) Append(ctx context.Context, in models.CheckpointInput) (*models.Checkpoint, error) {
	in.RideID = strings.TrimSpace(in.RideID)
	if err := validateCheckpointInput(in); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(in.RideID)
	defer unlock()

	receivedAt := s.now().UTC()
	cp, err := s.repo.Append(ctx, in.RideID, func(ride *models.Ride, prev *models.Checkpoint) (*models.Checkpoint, error) {
		if err := checkOwner(ride, in.RiderID); err != nil {
			return nil, err
		}
		if in.RiderID == "" {
			in.RiderID = ride.RiderID
		}
		if in.CustomerID == "" {
			in.CustomerID = ride.CustomerID
		}
		return NextCheckpoint(prev, in, s.opts.InterpolationPoints, receivedAt)
	})
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"ride_id":         in.RideID,
			"checkpoint_type": in.CheckpointType,
		}).Warn("Checkpoint append rejected")
		return nil, err
	}

	fields := logrus.Fields{
		"ride_id":             cp.RideID,
		"sequence_number":     cp.SequenceNumber,
		"checkpoint_type":     cp.CheckpointType,
		"cumulative_distance": cp.CumulativeDistance,
	}
	if s.opts.SkewWarn > 0 && math.Abs(cp.ClockSkewSeconds) > s.opts.SkewWarn.Seconds() {
		fields["clock_skew_seconds"] = cp.ClockSkewSeconds
		logrus.WithFields(fields).Warn("Checkpoint clock skew above threshold")
	} else {
		logrus.WithFields(fields).Debug("Checkpoint appended")
	}
	return cp, nil
}

func (s *CheckpointService) ListByRide(ctx context.Context, rideID string) ([]models.Checkpoint, error) {
	return s.repo.ListByRide(ctx, rideID)
}

func validateCheckpointInput(in models.CheckpointInput) error {
	if in.RideID == "" {
		return apperr.Invalid("rideId is required")
	}
	if !in.CheckpointType.Valid() {
		return apperr.Invalid("unknown checkpointType %q", in.CheckpointType)
	}
	if err := geo.Validate(in.Location.Point()); err != nil {
		return err
	}
	loc := in.Location
	if loc.Speed != nil && (*loc.Speed < 0 || !finite(*loc.Speed)) {
		return apperr.Invalid("speed must be a non-negative number")
	}
	if loc.Heading != nil && (*loc.Heading < 0 || *loc.Heading > 360 || !finite(*loc.Heading)) {
		return apperr.Invalid("heading must be between 0 and 360")
	}
	if loc.Accuracy != nil && (*loc.Accuracy < 0 || !finite(*loc.Accuracy)) {
		return apperr.Invalid("accuracy must be a non-negative number")
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

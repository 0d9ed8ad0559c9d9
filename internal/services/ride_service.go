package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"trip_tracker/internal/apperr"
	"trip_tracker/internal/models"
)

type OpenRideInput struct {
	RiderID        string             `json:"riderId"`
	CustomerID     string             `json:"customerId"`
	VehicleType    models.VehicleType `json:"vehicleType"`
	PassengerCount int                `json:"passengerCount"`
	BookedAt       time.Time          `json:"bookedAt"`
}

type RideService struct {
	repo  RideRepository
	locks *RideLocks
	now   func() time.Time
}

func NewRideService(repo RideRepository, locks *RideLocks) *RideService {
	if locks == nil {
		locks = NewRideLocks()
	}
	return &RideService{repo: repo, locks: locks, now: time.Now}
}

// Open creates an active ride that checkpoints can be appended to.
func (s *RideService) Open(ctx context.Context, in OpenRideInput) (*models.Ride, error) {
	if !in.VehicleType.Valid() {
		return nil, apperr.ErrInvalidVehicleType
	}
	if in.PassengerCount == 0 {
		in.PassengerCount = 1
	}
	if in.PassengerCount < 1 {
		return nil, apperr.Invalid("passengerCount must be at least 1")
	}
	booked := in.BookedAt
	if booked.IsZero() {
		booked = s.now()
	}

	ride := &models.Ride{
		ID:             uuid.NewString(),
		RiderID:        strings.TrimSpace(in.RiderID),
		CustomerID:     strings.TrimSpace(in.CustomerID),
		VehicleType:    in.VehicleType,
		PassengerCount: in.PassengerCount,
		Status:         models.RideActive,
		BookedAt:       booked.UTC(),
	}
	if err := s.repo.Create(ctx, ride); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"ride_id":      ride.ID,
		"vehicle_type": ride.VehicleType,
		"passengers":   ride.PassengerCount,
	}).Info("Ride opened")
	return ride, nil
}

// Get returns a ride. A non-empty riderID restricts the lookup to rides of
// that rider.
func (s *RideService) Get(ctx context.Context, id, riderID string) (*models.Ride, error) {
	ride, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(ride, riderID); err != nil {
		return nil, err
	}
	return ride, nil
}

// Cancel closes an active ride without a drop-off. It waits for in-flight
// appends of the same ride to finish first. A non-empty riderID may only
// cancel its own rides.
func (s *RideService) Cancel(ctx context.Context, id, riderID string) (*models.Ride, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	if riderID != "" {
		if _, err := s.Get(ctx, id, riderID); err != nil {
			return nil, err
		}
	}
	ride, err := s.repo.Close(ctx, id, models.RideCancelled, s.now().UTC())
	if err != nil {
		return nil, err
	}
	logrus.WithField("ride_id", id).Info("Ride cancelled")
	return ride, nil
}

// checkOwner rejects a rider acting on a ride opened for someone else. Rides
// without a rider and callers without one (operators) pass.
func checkOwner(ride *models.Ride, riderID string) error {
	if riderID == "" || ride.RiderID == "" || ride.RiderID == riderID {
		return nil
	}
	logrus.WithFields(logrus.Fields{
		"ride_id":  ride.ID,
		"rider_id": riderID,
	}).Warn("Rider denied access to another rider's ride")
	return fmt.Errorf("ride %s: %w", ride.ID, apperr.ErrForbidden)
}

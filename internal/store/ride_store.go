package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"trip_tracker/internal/apperr"
	"trip_tracker/internal/models"
)

type RideStore struct {
	db *gorm.DB
}

func NewRideStore(db *gorm.DB) *RideStore {
	return &RideStore{db: db}
}

func (s *RideStore) Create(ctx context.Context, ride *models.Ride) error {
	if err := s.db.WithContext(ctx).Create(ride).Error; err != nil {
		return classify("create ride", err)
	}
	return nil
}

func (s *RideStore) Get(ctx context.Context, id string) (*models.Ride, error) {
	var ride models.Ride
	if err := s.db.WithContext(ctx).First(&ride, "id = ?", id).Error; err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("ride %s: %w", id, apperr.ErrNotFound)
		}
		return nil, classify("get ride", err)
	}
	return &ride, nil
}

// Close moves an active ride to a terminal status. Closing a ride that is
// already closed is an InvalidRideState.
func (s *RideStore) Close(ctx context.Context, id string, status models.RideStatus, at time.Time) (*models.Ride, error) {
	var ride models.Ride
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRide(tx, id, &ride); err != nil {
			if notFound(err) {
				return fmt.Errorf("ride %s: %w", id, apperr.ErrNotFound)
			}
			return err
		}
		if !ride.AcceptsCheckpoints() {
			return fmt.Errorf("ride %s is %s: %w", id, ride.Status, apperr.ErrInvalidRideState)
		}
		return closeRide(tx, &ride, status, at)
	})
	if err != nil {
		return nil, classify("close ride", err)
	}
	return &ride, nil
}

func closeRide(tx *gorm.DB, ride *models.Ride, status models.RideStatus, at time.Time) error {
	ride.Status = status
	ride.ClosedAt = &at
	return tx.Model(ride).Updates(map[string]any{
		"status":    status,
		"closed_at": at,
	}).Error
}

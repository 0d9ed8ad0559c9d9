package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"trip_tracker/internal/apperr"
	"trip_tracker/internal/models"
)

type FareConfigService struct {
	repo     FareConfigRepository
	inflight *InFlight
}

// NewFareConfigService shares inflight with the FareEngine so deletes can see
// computations that are still reading a vehicle type's configs.
func NewFareConfigService(repo FareConfigRepository, inflight *InFlight) *FareConfigService {
	if inflight == nil {
		inflight = NewInFlight()
	}
	return &FareConfigService{repo: repo, inflight: inflight}
}

func (s *FareConfigService) List(ctx context.Context, includeInactive bool) ([]models.FareConfig, error) {
	return s.repo.List(ctx, includeInactive)
}

func (s *FareConfigService) Get(ctx context.Context, id uint) (*models.FareConfig, error) {
	return s.repo.Get(ctx, id)
}

func (s *FareConfigService) GetActive(ctx context.Context, vt models.VehicleType) (*models.FareConfig, error) {
	if !vt.Valid() {
		return nil, apperr.ErrInvalidVehicleType
	}
	return s.repo.GetActive(ctx, vt)
}

// Upsert makes cfg the current config of its vehicle type. The previous
// active row stays in the table, inactive.
func (s *FareConfigService) Upsert(ctx context.Context, cfg models.FareConfig) (*models.FareConfig, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Upsert(ctx, &cfg); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"fare_config_id": cfg.ID,
		"vehicle_type":   cfg.VehicleType,
	}).Info("Fare config saved")
	return &cfg, nil
}

func (s *FareConfigService) Toggle(ctx context.Context, id uint) (*models.FareConfig, error) {
	cfg, err := s.repo.Toggle(ctx, id)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"fare_config_id": cfg.ID,
		"vehicle_type":   cfg.VehicleType,
		"is_active":      cfg.IsActive,
	}).Info("Fare config toggled")
	return cfg, nil
}

// Delete hard-deletes a config unless a fare computation for its vehicle
// type is running.
func (s *FareConfigService) Delete(ctx context.Context, id uint) error {
	cfg, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	release, ok := s.inflight.TryExclusive(cfg.VehicleType)
	if !ok {
		return fmt.Errorf("fare config %d: %w", id, apperr.ErrConfigInUse)
	}
	defer release()

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"fare_config_id": id,
		"vehicle_type":   cfg.VehicleType,
	}).Info("Fare config deleted")
	return nil
}

// InitializeDefaults inserts a default config for every vehicle type that
// has no active one and returns the rows created.
func (s *FareConfigService) InitializeDefaults(ctx context.Context) ([]models.FareConfig, error) {
	created, err := s.repo.InitializeDefaults(ctx, models.DefaultFareConfigs())
	if err != nil {
		return nil, err
	}
	logrus.WithField("created", len(created)).Info("Default fare configs initialized")
	return created, nil
}

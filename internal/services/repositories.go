// Package services holds the ride ledger, route reconstruction, fare engine
// and dashboard query logic. Persistence is reached through the small
// interfaces below so the logic can be tested without Postgres.
package services

import (
	"context"
	"time"

	"trip_tracker/internal/models"
	"trip_tracker/internal/store"
)

type CheckpointRepository interface {
	Append(ctx context.Context, rideID string, build store.AppendFunc) (*models.Checkpoint, error)
	ListByRide(ctx context.Context, rideID string) ([]models.Checkpoint, error)
	ListFiltered(ctx context.Context, f models.CheckpointFilter) ([]models.Checkpoint, int64, error)
	Statistics(ctx context.Context, f models.CheckpointFilter) (models.CheckpointStats, error)
}

type RideRepository interface {
	Create(ctx context.Context, ride *models.Ride) error
	Get(ctx context.Context, id string) (*models.Ride, error)
	Close(ctx context.Context, id string, status models.RideStatus, at time.Time) (*models.Ride, error)
}

type FareConfigRepository interface {
	List(ctx context.Context, includeInactive bool) ([]models.FareConfig, error)
	Get(ctx context.Context, id uint) (*models.FareConfig, error)
	GetActive(ctx context.Context, vt models.VehicleType) (*models.FareConfig, error)
	Upsert(ctx context.Context, cfg *models.FareConfig) error
	Toggle(ctx context.Context, id uint) (*models.FareConfig, error)
	Delete(ctx context.Context, id uint) error
	InitializeDefaults(ctx context.Context, defaults []models.FareConfig) ([]models.FareConfig, error)
}

var (
	_ CheckpointRepository = (*store.CheckpointStore)(nil)
	_ RideRepository       = (*store.RideStore)(nil)
	_ FareConfigRepository = (*store.FareConfigStore)(nil)
)

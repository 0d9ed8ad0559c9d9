package controllers

import (
	"context"
	"io"

	"trip_tracker/internal/models"
	"trip_tracker/internal/services"
)

type CheckpointIngestor interface {
	Append(ctx context.Context, in models.CheckpointInput) (*models.Checkpoint, error)
}

type CheckpointQueries interface {
	List(ctx context.Context, f models.CheckpointFilter) ([]models.Checkpoint, models.Pagination, error)
	Stats(ctx context.Context, f models.CheckpointFilter) (models.CheckpointStats, error)
	RideDetail(ctx context.Context, rideID string) (*services.Route, error)
	Export(ctx context.Context, f models.CheckpointFilter, w io.Writer) (rows int, total int64, err error)
}

type FareCalculator interface {
	Calculate(ctx context.Context, req services.FareRequest) (*services.FareBreakdown, error)
	CalculateForRide(ctx context.Context, rideID string) (*services.FareBreakdown, error)
}

type FareConfigManager interface {
	List(ctx context.Context, includeInactive bool) ([]models.FareConfig, error)
	Get(ctx context.Context, id uint) (*models.FareConfig, error)
	Upsert(ctx context.Context, cfg models.FareConfig) (*models.FareConfig, error)
	Toggle(ctx context.Context, id uint) (*models.FareConfig, error)
	Delete(ctx context.Context, id uint) error
	InitializeDefaults(ctx context.Context) ([]models.FareConfig, error)
}

type RideManager interface {
	Open(ctx context.Context, in services.OpenRideInput) (*models.Ride, error)
	Get(ctx context.Context, id, riderID string) (*models.Ride, error)
	Cancel(ctx context.Context, id, riderID string) (*models.Ride, error)
}

var (
	_ CheckpointIngestor = (*services.CheckpointService)(nil)
	_ CheckpointQueries  = (*services.QueryService)(nil)
	_ FareCalculator     = (*services.FareEngine)(nil)
	_ FareConfigManager  = (*services.FareConfigService)(nil)
	_ RideManager        = (*services.RideService)(nil)
)

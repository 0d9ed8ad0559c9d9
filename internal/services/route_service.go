package services

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"trip_tracker/internal/geo"
	"trip_tracker/internal/models"
)

// Route is a reconstructed ride: the ordered ledger, the display polyline and
// the trip summary.
type Route struct {
	Ride            *models.Ride        `json:"ride"`
	Checkpoints     []models.Checkpoint `json:"checkpoints"`
	Polyline        []geo.Point         `json:"polyline"`
	GeoJSON         json.RawMessage     `json:"geojson,omitempty"`
	TotalDistance   float64             `json:"totalDistance"`
	TotalDuration   float64             `json:"totalDuration"`
	CheckpointCount int                 `json:"checkpointCount"`
	PickupAddress   string              `json:"pickupAddress,omitempty"`
	DropoffAddress  string              `json:"dropoffAddress,omitempty"`
}

// RouteCache stores reconstructions of rides that can no longer change.
type RouteCache interface {
	Get(ctx context.Context, rideID string) (*Route, bool, error)
	Set(ctx context.Context, route *Route) error
}

type RouteService struct {
	rides       RideRepository
	checkpoints CheckpointRepository
	cache       RouteCache
}

// NewRouteService builds the reconstructor. cache may be nil.
func NewRouteService(rides RideRepository, checkpoints CheckpointRepository, cache RouteCache) *RouteService {
	return &RouteService{rides: rides, checkpoints: checkpoints, cache: cache}
}

// Reconstruct returns the route of rideID. Unknown rides fail with
// apperr.ErrNotFound.
func (s *RouteService) Reconstruct(ctx context.Context, rideID string) (*Route, error) {
	ride, err := s.rides.Get(ctx, rideID)
	if err != nil {
		return nil, err
	}

	cacheable := s.cache != nil && ride.Status == models.RideCompleted
	if cacheable {
		route, ok, err := s.cache.Get(ctx, rideID)
		if err != nil {
			logrus.WithError(err).WithField("ride_id", rideID).Warn("Route cache read failed")
		} else if ok {
			return route, nil
		}
	}

	cps, err := s.checkpoints.ListByRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	route, err := BuildRoute(ride, cps)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if err := s.cache.Set(ctx, route); err != nil {
			logrus.WithError(err).WithField("ride_id", rideID).Warn("Route cache write failed")
		}
	}
	return route, nil
}

// BuildRoute assembles a route from a ledger already ordered by sequence
// number. It is deterministic for a given ledger.
func BuildRoute(ride *models.Ride, cps []models.Checkpoint) (*Route, error) {
	route := &Route{
		Ride:            ride,
		Checkpoints:     cps,
		Polyline:        make([]geo.Point, 0, len(cps)),
		CheckpointCount: len(cps),
	}
	for _, cp := range cps {
		for p := range cp.InterpolationPoints() {
			route.Polyline = append(route.Polyline, p)
		}
		route.Polyline = append(route.Polyline, cp.Location.Point())
		route.TotalDuration += cp.DurationFromPrevious

		switch cp.CheckpointType {
		case models.CheckpointPickup:
			if route.PickupAddress == "" {
				route.PickupAddress = cp.Address
			}
		case models.CheckpointDropoff:
			route.DropoffAddress = cp.Address
		}
	}
	if n := len(cps); n > 0 {
		route.TotalDistance = cps[n-1].CumulativeDistance
	}

	gj, err := geo.LineStringGeoJSON(route.Polyline)
	if err != nil {
		return nil, err
	}
	if gj != "" {
		route.GeoJSON = json.RawMessage(gj)
	}
	return route, nil
}

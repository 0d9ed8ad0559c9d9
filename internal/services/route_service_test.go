package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trip_tracker/internal/apperr"
	"trip_tracker/internal/models"
)

type memRouteCache struct {
	routes map[string]*Route
	sets   int
}

func (c *memRouteCache) Get(_ context.Context, rideID string) (*Route, bool, error) {
	r, ok := c.routes[rideID]
	return r, ok, nil
}

func (c *memRouteCache) Set(_ context.Context, route *Route) error {
	c.sets++
	c.routes[route.Ride.ID] = route
	return nil
}

func seedRide(t *testing.T, ledger *memLedger, id string, k int, types ...models.CheckpointType) {
	t.Helper()
	ledger.addRide(id, models.VehicleTricycle, 1, t0)
	svc := newTestCheckpointService(ledger, k)
	for i, typ := range types {
		in := input(id, typ, 1+float64(i)*0.01, 36.8, t0.Add(time.Duration(i)*time.Minute))
		in.Address = string(typ) + " street"
		_, err := svc.Append(context.Background(), in)
		require.NoError(t, err)
	}
}

func TestReconstruct_SingleCheckpoint(t *testing.T) {
	ledger := newMemLedger()
	seedRide(t, ledger, "solo", 5, models.CheckpointSearching)

	route, err := NewRouteService(ledger, ledger, nil).Reconstruct(context.Background(), "solo")
	require.NoError(t, err)

	assert.Zero(t, route.TotalDistance)
	assert.Zero(t, route.TotalDuration)
	assert.Equal(t, 1, route.CheckpointCount)
	assert.Len(t, route.Polyline, 1, "no interpolation for a lone checkpoint")
}

func TestReconstruct_Polyline(t *testing.T) {
	ledger := newMemLedger()
	seedRide(t, ledger, "r", 4,
		models.CheckpointSearching, models.CheckpointPickup, models.CheckpointOngoing, models.CheckpointDropoff)

	route, err := NewRouteService(ledger, ledger, nil).Reconstruct(context.Background(), "r")
	require.NoError(t, err)

	// each checkpoint after the first contributes k interpolation points
	require.Len(t, route.Polyline, 4+3*4)
	for i, cp := range route.Checkpoints {
		assert.Equal(t, cp.Location.Point(), route.Polyline[i*5], "raw coordinate follows its interpolation points")
	}
	for i := 1; i < len(route.Polyline); i++ {
		assert.Greater(t, route.Polyline[i].Lat, route.Polyline[i-1].Lat)
	}
	assert.Equal(t, 180.0, route.TotalDuration)
	assert.Equal(t, route.Checkpoints[3].CumulativeDistance, route.TotalDistance)
	assert.Equal(t, "PICKUP street", route.PickupAddress)
	assert.Equal(t, "DROPOFF street", route.DropoffAddress)

	var gj struct {
		Type        string      `json:"type"`
		Coordinates [][]float64 `json:"coordinates"`
	}
	require.NoError(t, json.Unmarshal(route.GeoJSON, &gj))
	assert.Equal(t, "LineString", gj.Type)
	assert.Len(t, gj.Coordinates, len(route.Polyline))
	assert.Equal(t, 36.8, gj.Coordinates[0][0])
}

func TestReconstruct_Deterministic(t *testing.T) {
	ledger := newMemLedger()
	seedRide(t, ledger, "r", 5, models.CheckpointSearching, models.CheckpointAccepted, models.CheckpointOngoing)
	svc := NewRouteService(ledger, ledger, nil)

	a, err := svc.Reconstruct(context.Background(), "r")
	require.NoError(t, err)
	b, err := svc.Reconstruct(context.Background(), "r")
	require.NoError(t, err)

	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	assert.Equal(t, string(ja), string(jb))
}

func TestReconstruct_UnknownRide(t *testing.T) {
	ledger := newMemLedger()
	_, err := NewRouteService(ledger, ledger, nil).Reconstruct(context.Background(), "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestReconstruct_CachesOnlyCompletedRides(t *testing.T) {
	ledger := newMemLedger()
	seedRide(t, ledger, "open", 1, models.CheckpointSearching, models.CheckpointOngoing)
	seedRide(t, ledger, "done", 1, models.CheckpointPickup, models.CheckpointDropoff)

	cache := &memRouteCache{routes: map[string]*Route{}}
	svc := NewRouteService(ledger, ledger, cache)
	ctx := context.Background()

	_, err := svc.Reconstruct(ctx, "open")
	require.NoError(t, err)
	assert.Zero(t, cache.sets)

	first, err := svc.Reconstruct(ctx, "done")
	require.NoError(t, err)
	second, err := svc.Reconstruct(ctx, "done")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)
	assert.Same(t, first, second)
}

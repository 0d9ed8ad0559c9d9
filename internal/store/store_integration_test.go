package store_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"trip_tracker/internal/apperr"
	"trip_tracker/internal/config"
	"trip_tracker/internal/models"
	"trip_tracker/internal/services"
	"trip_tracker/internal/store"
)

// openTestDB connects to TRACKER_TEST_DSN or skips. Each test works on its
// own rides so runs against a shared database do not interfere.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TRACKER_TEST_DSN")
	if dsn == "" {
		t.Skip("TRACKER_TEST_DSN not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newRide(t *testing.T, db *gorm.DB) *models.Ride {
	t.Helper()
	ride := &models.Ride{
		ID:             uuid.NewString(),
		RiderID:        "rider-" + uuid.NewString()[:8],
		CustomerID:     "cust-1",
		VehicleType:    models.VehicleTricycle,
		PassengerCount: 1,
		Status:         models.RideActive,
		BookedAt:       time.Now().UTC(),
	}
	require.NoError(t, store.NewRideStore(db).Create(context.Background(), ride))
	t.Cleanup(func() {
		db.Where("ride_id = ?", ride.ID).Delete(&models.Checkpoint{})
		db.Delete(&models.Ride{}, "id = ?", ride.ID)
	})
	return ride
}

func appendAt(t *testing.T, cs *store.CheckpointStore, rideID string, typ models.CheckpointType, lat, lng float64, at time.Time) (*models.Checkpoint, error) {
	t.Helper()
	in := models.CheckpointInput{
		RideID:         rideID,
		CheckpointType: typ,
		Location:       models.Location{Latitude: lat, Longitude: lng},
		CapturedAt:     at,
	}
	return cs.Append(context.Background(), rideID, func(ride *models.Ride, prev *models.Checkpoint) (*models.Checkpoint, error) {
		return services.NextCheckpoint(prev, in, 3, at)
	})
}

func TestCheckpointStore_LedgerExample(t *testing.T) {
	db := openTestDB(t)
	ride := newRide(t, db)
	cs := store.NewCheckpointStore(db)
	t0 := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)

	kmPerDegree := 111.195
	_, err := appendAt(t, cs, ride.ID, models.CheckpointPickup, 0, 0, t0)
	require.NoError(t, err)
	_, err = appendAt(t, cs, ride.ID, models.CheckpointOngoing, 0.2/kmPerDegree, 0, t0.Add(30*time.Second))
	require.NoError(t, err)
	last, err := appendAt(t, cs, ride.ID, models.CheckpointDropoff, 0.5/kmPerDegree, 0, t0.Add(90*time.Second))
	require.NoError(t, err)

	assert.Equal(t, 3, last.SequenceNumber)
	assert.InDelta(t, 0.5, last.CumulativeDistance, 1e-3)

	cps, err := cs.ListByRide(context.Background(), ride.ID)
	require.NoError(t, err)
	require.Len(t, cps, 3)
	assert.InDelta(t, 0, cps[0].CumulativeDistance, 1e-9)
	assert.InDelta(t, 0.2, cps[1].CumulativeDistance, 1e-3)
	assert.InDelta(t, 60, cps[2].DurationFromPrevious, 1e-9)

	// DROPOFF closed the ride in the same transaction
	got, err := store.NewRideStore(db).Get(context.Background(), ride.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RideCompleted, got.Status)
	require.NotNil(t, got.ClosedAt)

	_, err = appendAt(t, cs, ride.ID, models.CheckpointOngoing, 0, 0, t0.Add(2*time.Minute))
	assert.ErrorIs(t, err, apperr.ErrInvalidRideState)
}

func TestCheckpointStore_RejectsOutOfOrder(t *testing.T) {
	db := openTestDB(t)
	ride := newRide(t, db)
	cs := store.NewCheckpointStore(db)
	t0 := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)

	_, err := appendAt(t, cs, ride.ID, models.CheckpointPickup, 1, 36, t0)
	require.NoError(t, err)
	_, err = appendAt(t, cs, ride.ID, models.CheckpointOngoing, 1.001, 36, t0.Add(-time.Second))
	assert.ErrorIs(t, err, apperr.ErrOutOfOrderTimestamp)

	cps, err := cs.ListByRide(context.Background(), ride.ID)
	require.NoError(t, err)
	assert.Len(t, cps, 1)
}

func TestCheckpointStore_ConcurrentAppends(t *testing.T) {
	db := openTestDB(t)
	ride := newRide(t, db)
	cs := store.NewCheckpointStore(db)
	t0 := time.Now().UTC()

	const n = 25
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// the capture time is shared so the ledger order is decided by the lock
			_, err := appendAt(t, cs, ride.ID, models.CheckpointOngoing, 1+float64(i)*1e-4, 36, t0)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	cps, err := cs.ListByRide(context.Background(), ride.ID)
	require.NoError(t, err)
	require.Len(t, cps, n)
	for i, cp := range cps {
		assert.Equal(t, i+1, cp.SequenceNumber)
		if i > 0 {
			assert.GreaterOrEqual(t, cp.CumulativeDistance, cps[i-1].CumulativeDistance)
		}
	}
}

func TestCheckpointStore_FilterTotalsMatchRows(t *testing.T) {
	db := openTestDB(t)
	ride := newRide(t, db)
	cs := store.NewCheckpointStore(db)
	t0 := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)

	for i, typ := range []models.CheckpointType{models.CheckpointPickup, models.CheckpointOngoing, models.CheckpointOngoing} {
		_, err := appendAt(t, cs, ride.ID, typ, 1+float64(i)*0.001, 36, t0.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	f := models.CheckpointFilter{RideID: ride.ID, CheckpointType: models.CheckpointOngoing, Page: 1, Limit: 1}
	page, total, err := cs.ListFiltered(context.Background(), f)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, page, 1)

	f.Limit = 0
	all, total, err := cs.ListFiltered(context.Background(), f)
	require.NoError(t, err)
	assert.EqualValues(t, total, len(all))

	stats, err := cs.Statistics(context.Background(), models.CheckpointFilter{RideID: ride.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.Totals.TotalCheckpoints)
	assert.EqualValues(t, 1, stats.Totals.UniqueRides)
	require.Len(t, stats.ByType, 2)

	f = models.CheckpointFilter{Search: ride.ID[:8], Limit: 0}
	_, total, err = cs.ListFiltered(context.Background(), f)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, total, int64(3))
}

func TestRideStore_CloseTwice(t *testing.T) {
	db := openTestDB(t)
	ride := newRide(t, db)
	rs := store.NewRideStore(db)

	closed, err := rs.Close(context.Background(), ride.ID, models.RideCancelled, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, models.RideCancelled, closed.Status)

	_, err = rs.Close(context.Background(), ride.ID, models.RideCancelled, time.Now().UTC())
	assert.ErrorIs(t, err, apperr.ErrInvalidRideState)

	_, err = rs.Get(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

// The fare config tests own the fare_configs table; run them against a
// dedicated database.
func TestFareConfigStore_Lifecycle(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Exec("DELETE FROM fare_configs").Error)
	fs := store.NewFareConfigStore(db)
	ctx := context.Background()

	_, err := fs.GetActive(ctx, models.VehicleCab)
	assert.ErrorIs(t, err, apperr.ErrNoActiveConfig)

	created, err := fs.InitializeDefaults(ctx, models.DefaultFareConfigs())
	require.NoError(t, err)
	assert.Len(t, created, len(models.VehicleTypes))

	again, err := fs.InitializeDefaults(ctx, models.DefaultFareConfigs())
	require.NoError(t, err)
	assert.Empty(t, again)

	active, err := fs.GetActive(ctx, models.VehicleCab)
	require.NoError(t, err)
	oldID := active.ID

	next := *active
	next.BaseFare = 50
	require.NoError(t, fs.Upsert(ctx, &next))
	assert.NotEqual(t, oldID, next.ID)

	active, err = fs.GetActive(ctx, models.VehicleCab)
	require.NoError(t, err)
	assert.Equal(t, next.ID, active.ID)
	assert.InDelta(t, 50, active.BaseFare, 1e-9)

	all, err := fs.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, len(models.VehicleTypes)+1)

	// re-activating the old version deactivates the current one
	toggled, err := fs.Toggle(ctx, oldID)
	require.NoError(t, err)
	assert.True(t, toggled.IsActive)
	active, err = fs.GetActive(ctx, models.VehicleCab)
	require.NoError(t, err)
	assert.Equal(t, oldID, active.ID)

	require.NoError(t, fs.Delete(ctx, next.ID))
	assert.ErrorIs(t, fs.Delete(ctx, next.ID), apperr.ErrNotFound)

	_, err = fs.Get(ctx, next.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

package models

import (
	"encoding/json"
	"math"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trip_tracker/internal/apperr"
	"trip_tracker/internal/geo"
)

func TestHourWindow_Contains(t *testing.T) {
	night := HourWindow{Start: 22, End: 5}
	assert.True(t, night.Contains(22))
	assert.True(t, night.Contains(0))
	assert.True(t, night.Contains(4))
	assert.False(t, night.Contains(5))
	assert.False(t, night.Contains(12))

	peak := HourWindow{Start: 7, End: 9}
	assert.True(t, peak.Contains(7))
	assert.True(t, peak.Contains(8))
	assert.False(t, peak.Contains(9))

	off := HourWindow{Start: 3, End: 3}
	for h := range 24 {
		assert.False(t, off.Contains(h), "hour %d", h)
	}
}

func TestFareConfig_Validate(t *testing.T) {
	for _, cfg := range DefaultFareConfigs() {
		assert.NoError(t, cfg.Validate(), cfg.VehicleType)
	}

	cfg := DefaultFareConfigs()[0]
	cfg.VehicleType = "Bus"
	assert.ErrorIs(t, cfg.Validate(), apperr.ErrInvalidVehicleType)

	cfg = DefaultFareConfigs()[0]
	cfg.PerKmRate = -1
	err := cfg.Validate()
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	assert.Contains(t, err.Error(), "perKmRate")

	cfg = DefaultFareConfigs()[0]
	cfg.AdditionalCharges.NightSurchargePercent = math.NaN()
	assert.ErrorIs(t, cfg.Validate(), apperr.ErrInvalidInput)

	cfg = DefaultFareConfigs()[0]
	cfg.AdditionalCharges.PeakEndHour = 24
	assert.ErrorIs(t, cfg.Validate(), apperr.ErrInvalidInput)
}

func TestDefaultFareConfigs_CoverEveryVehicleType(t *testing.T) {
	var got []VehicleType
	for _, cfg := range DefaultFareConfigs() {
		assert.True(t, cfg.IsActive)
		got = append(got, cfg.VehicleType)
	}
	for _, vt := range VehicleTypes {
		assert.True(t, slices.Contains(got, vt), vt)
	}
}

func TestCheckpointInput_UnmarshalTimestamps(t *testing.T) {
	want := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

	cases := map[string]string{
		"rfc3339 zulu":   `"2025-03-14T09:30:00Z"`,
		"without zone":   `"2025-03-14T09:30:00"`,
		"with offset":    `"2025-03-14T12:30:00+03:00"`,
		"epoch millis":   `1741944600000`,
		"fraction no tz": `"2025-03-14T09:30:00.000"`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			var in CheckpointInput
			body := `{"rideId":"r1","checkpointType":"PICKUP","location":{"latitude":1,"longitude":36},"capturedAt":` + raw + `}`
			require.NoError(t, json.Unmarshal([]byte(body), &in))
			assert.True(t, want.Equal(in.CapturedAt), "got %s", in.CapturedAt)
			assert.Equal(t, "r1", in.RideID)
			assert.Equal(t, CheckpointPickup, in.CheckpointType)
			assert.InDelta(t, 36, in.Location.Longitude, 1e-9)
		})
	}

	var in CheckpointInput
	require.NoError(t, json.Unmarshal([]byte(`{"rideId":"r1","capturedAt":null}`), &in))
	assert.True(t, in.CapturedAt.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"capturedAt":"yesterday"}`), &in))
	assert.Error(t, json.Unmarshal([]byte(`{"capturedAt":true}`), &in))
}

func TestParseTimestamp_Empty(t *testing.T) {
	_, err := ParseTimestamp("  ")
	assert.Error(t, err)
}

func TestCheckpoint_InterpolationPoints(t *testing.T) {
	first := Checkpoint{Location: Location{Latitude: 1, Longitude: 36}}
	assert.Empty(t, slices.Collect(first.InterpolationPoints()))

	cp := Checkpoint{
		Location:           Location{Latitude: 0, Longitude: 1},
		PrevLatitude:       0,
		PrevLongitude:      0,
		InterpolationCount: 3,
	}
	pts := slices.Collect(cp.InterpolationPoints())
	require.Len(t, pts, 3)
	for i, p := range pts {
		assert.InDelta(t, float64(i+1)*0.25, p.Lng, 1e-6)
		assert.InDelta(t, 0, p.Lat, 1e-6)
	}
	assert.Equal(t, geo.Point{Lat: 0, Lng: 1}, cp.Location.Point())
}

func TestNewPagination(t *testing.T) {
	assert.Equal(t, Pagination{Page: 2, Limit: 20, Total: 41, Pages: 3}, NewPagination(2, 20, 41))
	assert.Equal(t, 0, NewPagination(1, 20, 0).Pages)
	assert.Equal(t, 0, NewPagination(1, 0, 10).Pages)
}

func TestRide_AcceptsCheckpoints(t *testing.T) {
	assert.True(t, Ride{Status: RideActive}.AcceptsCheckpoints())
	assert.False(t, Ride{Status: RideCompleted}.AcceptsCheckpoints())
	assert.False(t, Ride{Status: RideCancelled}.AcceptsCheckpoints())
}

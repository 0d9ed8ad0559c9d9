package services

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"trip_tracker/internal/apperr"
	"trip_tracker/internal/models"
	"trip_tracker/internal/store"
)

// memLedger is an in-memory ride + checkpoint store. Its mutex plays the
// part of the ride row lock.
type memLedger struct {
	mu     sync.Mutex
	rides  map[string]*models.Ride
	cps    map[string][]models.Checkpoint
	nextID uint
}

func newMemLedger() *memLedger {
	return &memLedger{rides: map[string]*models.Ride{}, cps: map[string][]models.Checkpoint{}}
}

func (m *memLedger) Create(_ context.Context, ride *models.Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := *ride
	m.rides[ride.ID] = &r
	return nil
}

func (m *memLedger) Get(_ context.Context, id string) (*models.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[id]
	if !ok {
		return nil, fmt.Errorf("ride %s: %w", id, apperr.ErrNotFound)
	}
	out := *r
	return &out, nil
}

func (m *memLedger) Close(_ context.Context, id string, status models.RideStatus, at time.Time) (*models.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[id]
	if !ok {
		return nil, fmt.Errorf("ride %s: %w", id, apperr.ErrNotFound)
	}
	if !r.AcceptsCheckpoints() {
		return nil, apperr.ErrInvalidRideState
	}
	r.Status = status
	r.ClosedAt = &at
	out := *r
	return &out, nil
}

func (m *memLedger) Append(_ context.Context, rideID string, build store.AppendFunc) (*models.Checkpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[rideID]
	if !ok || !ride.AcceptsCheckpoints() {
		return nil, apperr.ErrInvalidRideState
	}
	var prev *models.Checkpoint
	if list := m.cps[rideID]; len(list) > 0 {
		p := list[len(list)-1]
		prev = &p
	}
	cp, err := build(ride, prev)
	if err != nil {
		return nil, err
	}
	for _, c := range m.cps[rideID] {
		if c.SequenceNumber == cp.SequenceNumber {
			return nil, apperr.Transient("append checkpoint", fmt.Errorf("duplicate sequence %d", cp.SequenceNumber))
		}
	}
	m.nextID++
	cp.ID = m.nextID
	cp.CreatedAt = cp.ReceivedAt
	m.cps[rideID] = append(m.cps[rideID], *cp)
	if cp.CheckpointType == models.CheckpointDropoff {
		ride.Status = models.RideCompleted
		at := cp.ReceivedAt
		ride.ClosedAt = &at
	}
	return cp, nil
}

func (m *memLedger) ListByRide(_ context.Context, rideID string) ([]models.Checkpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.cps[rideID]), nil
}

func (m *memLedger) ListFiltered(_ context.Context, f models.CheckpointFilter) ([]models.Checkpoint, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []models.Checkpoint
	for _, list := range m.cps {
		for _, c := range list {
			if f.CheckpointType != "" && c.CheckpointType != f.CheckpointType {
				continue
			}
			if f.RideID != "" && c.RideID != f.RideID {
				continue
			}
			all = append(all, c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	if f.Limit > 0 {
		start := min((max(f.Page, 1)-1)*f.Limit, len(all))
		end := min(start+f.Limit, len(all))
		all = all[start:end]
	}
	return all, total, nil
}

func (m *memLedger) Statistics(context.Context, models.CheckpointFilter) (models.CheckpointStats, error) {
	return models.CheckpointStats{}, nil
}

func (m *memLedger) addRide(id string, vt models.VehicleType, passengers int, booked time.Time) {
	m.rides[id] = &models.Ride{
		ID:             id,
		RiderID:        "rider-1",
		CustomerID:     "customer-1",
		VehicleType:    vt,
		PassengerCount: passengers,
		Status:         models.RideActive,
		BookedAt:       booked,
	}
}

// MockFareConfigs is a testify mock of FareConfigRepository.
type MockFareConfigs struct {
	mock.Mock
}

func (m *MockFareConfigs) List(ctx context.Context, includeInactive bool) ([]models.FareConfig, error) {
	args := m.Called(ctx, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FareConfig), args.Error(1)
}

func (m *MockFareConfigs) Get(ctx context.Context, id uint) (*models.FareConfig, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FareConfig), args.Error(1)
}

func (m *MockFareConfigs) GetActive(ctx context.Context, vt models.VehicleType) (*models.FareConfig, error) {
	args := m.Called(ctx, vt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FareConfig), args.Error(1)
}

func (m *MockFareConfigs) Upsert(ctx context.Context, cfg *models.FareConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

func (m *MockFareConfigs) Toggle(ctx context.Context, id uint) (*models.FareConfig, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FareConfig), args.Error(1)
}

func (m *MockFareConfigs) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockFareConfigs) InitializeDefaults(ctx context.Context, defaults []models.FareConfig) ([]models.FareConfig, error) {
	args := m.Called(ctx, defaults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FareConfig), args.Error(1)
}

func tricycleConfig() models.FareConfig {
	return models.FareConfig{
		ID:             7,
		VehicleType:    models.VehicleTricycle,
		BaseFare:       20,
		PerKmRate:      2.8,
		MinimumFare:    20,
		BaseDistanceKm: 1,
		AdditionalCharges: models.AdditionalCharges{
			NightSurchargePercent:    10,
			NightStartHour:           22,
			NightEndHour:             5,
			PeakHourSurchargePercent: 0,
			PeakStartHour:            7,
			PeakEndHour:              9,
			PerPassengerCharge:       0,
		},
		IsActive: true,
	}
}

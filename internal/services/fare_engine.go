package services

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"trip_tracker/internal/apperr"
	"trip_tracker/internal/models"
)

type FareRequest struct {
	VehicleType    models.VehicleType `json:"vehicleType"`
	DistanceKm     float64            `json:"distanceKm"`
	PassengerCount int                `json:"passengerCount"`
	BookingTime    time.Time          `json:"bookingTime"`
}

// FareBreakdown is the itemized price of a trip. Amounts are kept at full
// precision and rounded to cents only when encoded.
type FareBreakdown struct {
	BaseFare           float64
	DistanceFare       float64
	NightSurcharge     float64
	PeakSurcharge      float64
	PassengerSurcharge float64
	TotalFare          float64

	VehicleType        models.VehicleType
	DistanceKm         float64
	PassengerCount     int
	IsNight            bool
	IsPeak             bool
	MinimumFareApplied bool
	FareConfigID       uint
}

func (b FareBreakdown) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		BaseFare           float64            `json:"baseFare"`
		DistanceFare       float64            `json:"distanceFare"`
		NightSurcharge     float64            `json:"nightSurcharge"`
		PeakSurcharge      float64            `json:"peakSurcharge"`
		PassengerSurcharge float64            `json:"passengerSurcharge"`
		TotalFare          float64            `json:"totalFare"`
		VehicleType        models.VehicleType `json:"vehicleType"`
		DistanceKm         float64            `json:"distanceKm"`
		PassengerCount     int                `json:"passengerCount"`
		IsNight            bool               `json:"isNight"`
		IsPeak             bool               `json:"isPeak"`
		MinimumFareApplied bool               `json:"minimumFareApplied"`
		FareConfigID       uint               `json:"fareConfigId"`
	}{
		BaseFare:           roundCents(b.BaseFare),
		DistanceFare:       roundCents(b.DistanceFare),
		NightSurcharge:     roundCents(b.NightSurcharge),
		PeakSurcharge:      roundCents(b.PeakSurcharge),
		PassengerSurcharge: roundCents(b.PassengerSurcharge),
		TotalFare:          roundCents(b.TotalFare),
		VehicleType:        b.VehicleType,
		DistanceKm:         b.DistanceKm,
		PassengerCount:     b.PassengerCount,
		IsNight:            b.IsNight,
		IsPeak:             b.IsPeak,
		MinimumFareApplied: b.MinimumFareApplied,
		FareConfigID:       b.FareConfigID,
	})
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeFare applies cfg to a trip booked at hour (0-23). Night and peak
// surcharges are both applied when both windows match.
func ComputeFare(cfg models.FareConfig, distanceKm float64, passengers, hour int) FareBreakdown {
	b := FareBreakdown{
		BaseFare:       cfg.BaseFare,
		VehicleType:    cfg.VehicleType,
		DistanceKm:     distanceKm,
		PassengerCount: passengers,
		FareConfigID:   cfg.ID,
	}
	b.DistanceFare = math.Max(0, distanceKm-cfg.BaseDistanceKm) * cfg.PerKmRate

	sub := b.BaseFare + b.DistanceFare
	ac := cfg.AdditionalCharges
	if ac.Night().Contains(hour) {
		b.IsNight = true
		b.NightSurcharge = sub * ac.NightSurchargePercent / 100
	}
	if ac.Peak().Contains(hour) {
		b.IsPeak = true
		b.PeakSurcharge = sub * ac.PeakHourSurchargePercent / 100
	}
	b.PassengerSurcharge = float64(max(0, passengers-1)) * ac.PerPassengerCharge

	raw := b.BaseFare + b.DistanceFare + b.NightSurcharge + b.PeakSurcharge + b.PassengerSurcharge
	b.TotalFare = raw
	if raw < cfg.MinimumFare {
		b.TotalFare = cfg.MinimumFare
		b.MinimumFareApplied = true
	}
	return b
}

type FareSource interface {
	GetActive(ctx context.Context, vt models.VehicleType) (*models.FareConfig, error)
}

// FareEngine prices trips against the active config of their vehicle type.
type FareEngine struct {
	configs  FareSource
	routes   *RouteService
	inflight *InFlight
	loc      *time.Location
	now      func() time.Time
}

// NewFareEngine builds the engine. Booking hours are read in loc (UTC when nil).
func NewFareEngine(configs FareSource, routes *RouteService, inflight *InFlight, loc *time.Location) *FareEngine {
	if inflight == nil {
		inflight = NewInFlight()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &FareEngine{configs: configs, routes: routes, inflight: inflight, loc: loc, now: time.Now}
}

func (e *FareEngine) Calculate(ctx context.Context, req FareRequest) (*FareBreakdown, error) {
	if !req.VehicleType.Valid() {
		return nil, apperr.ErrInvalidVehicleType
	}
	if math.IsNaN(req.DistanceKm) || math.IsInf(req.DistanceKm, 0) || req.DistanceKm < 0 {
		return nil, apperr.Invalid("distanceKm must be a non-negative number")
	}
	if req.PassengerCount < 1 {
		return nil, apperr.Invalid("passengerCount must be at least 1")
	}
	booked := req.BookingTime
	if booked.IsZero() {
		booked = e.now()
	}

	release := e.inflight.Acquire(req.VehicleType)
	defer release()
	cfg, err := e.configs.GetActive(ctx, req.VehicleType)
	if err != nil {
		return nil, err
	}
	if !cfg.IsActive {
		return nil, apperr.ErrNoActiveConfig
	}

	b := ComputeFare(*cfg, req.DistanceKm, req.PassengerCount, booked.In(e.loc).Hour())
	logrus.WithFields(logrus.Fields{
		"vehicle_type":   b.VehicleType,
		"distance_km":    b.DistanceKm,
		"passengers":     b.PassengerCount,
		"total_fare":     roundCents(b.TotalFare),
		"fare_config_id": b.FareConfigID,
	}).Debug("Fare calculated")
	return &b, nil
}

// CalculateForRide prices a ride from its reconstructed distance, vehicle
// type, passenger count and booking time.
func (e *FareEngine) CalculateForRide(ctx context.Context, rideID string) (*FareBreakdown, error) {
	route, err := e.routes.Reconstruct(ctx, rideID)
	if err != nil {
		return nil, err
	}
	return e.Calculate(ctx, FareRequest{
		VehicleType:    route.Ride.VehicleType,
		DistanceKm:     route.TotalDistance,
		PassengerCount: route.Ride.PassengerCount,
		BookingTime:    route.Ride.BookedAt,
	})
}

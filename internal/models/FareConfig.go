package models

import (
	"maps"
	"math"
	"slices"
	"time"

	"trip_tracker/internal/apperr"
)

type VehicleType string

const (
	VehicleTricycle         VehicleType = "Tricycle"
	VehicleSingleMotorcycle VehicleType = "Single Motorcycle"
	VehicleCab              VehicleType = "Cab"
)

var VehicleTypes = []VehicleType{VehicleTricycle, VehicleSingleMotorcycle, VehicleCab}

func (v VehicleType) Valid() bool {
	for _, k := range VehicleTypes {
		if v == k {
			return true
		}
	}
	return false
}

// HourWindow is an hour-of-day range [Start, End). Start == End disables the
// window and Start > End wraps past midnight.
type HourWindow struct {
	Start int
	End   int
}

func (w HourWindow) Contains(hour int) bool {
	switch {
	case w.Start == w.End:
		return false
	case w.Start < w.End:
		return hour >= w.Start && hour < w.End
	default:
		return hour >= w.Start || hour < w.End
	}
}

// AdditionalCharges holds the surcharge settings of a fare config.
type AdditionalCharges struct {
	NightSurchargePercent    float64 `json:"nightSurchargePercent"`
	NightStartHour           int     `json:"nightStartHour"`
	NightEndHour             int     `json:"nightEndHour"`
	PeakHourSurchargePercent float64 `json:"peakHourSurchargePercent"`
	PeakStartHour            int     `json:"peakStartHour"`
	PeakEndHour              int     `json:"peakEndHour"`
	PerPassengerCharge       float64 `json:"perPassengerCharge"`
}

func (a AdditionalCharges) Night() HourWindow {
	return HourWindow{Start: a.NightStartHour, End: a.NightEndHour}
}

func (a AdditionalCharges) Peak() HourWindow {
	return HourWindow{Start: a.PeakStartHour, End: a.PeakEndHour}
}

// FareConfig is one version of the pricing rules of a vehicle type. At most
// one row per vehicle type is active; older rows are kept for audit.
type FareConfig struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	VehicleType       VehicleType       `gorm:"type:varchar(32);not null;index" json:"vehicleType"`
	BaseFare          float64           `gorm:"not null" json:"baseFare"`
	PerKmRate         float64           `gorm:"not null" json:"perKmRate"`
	MinimumFare       float64           `gorm:"not null" json:"minimumFare"`
	BaseDistanceKm    float64           `gorm:"not null" json:"baseDistanceKm"`
	AdditionalCharges AdditionalCharges `gorm:"embedded" json:"additionalCharges"`
	IsActive          bool              `gorm:"not null" json:"isActive"`
	Description       string            `json:"description"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// Validate checks everything an upsert must reject before touching the store.
func (f FareConfig) Validate() error {
	if !f.VehicleType.Valid() {
		return apperr.ErrInvalidVehicleType
	}
	amounts := map[string]float64{
		"baseFare":                 f.BaseFare,
		"perKmRate":                f.PerKmRate,
		"minimumFare":              f.MinimumFare,
		"baseDistanceKm":           f.BaseDistanceKm,
		"nightSurchargePercent":    f.AdditionalCharges.NightSurchargePercent,
		"peakHourSurchargePercent": f.AdditionalCharges.PeakHourSurchargePercent,
		"perPassengerCharge":       f.AdditionalCharges.PerPassengerCharge,
	}
	for _, name := range slices.Sorted(maps.Keys(amounts)) {
		v := amounts[name]
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return apperr.Invalid("%s must be a non-negative number", name)
		}
	}
	hours := []struct {
		name string
		v    int
	}{
		{"nightStartHour", f.AdditionalCharges.NightStartHour},
		{"nightEndHour", f.AdditionalCharges.NightEndHour},
		{"peakStartHour", f.AdditionalCharges.PeakStartHour},
		{"peakEndHour", f.AdditionalCharges.PeakEndHour},
	}
	for _, h := range hours {
		if h.v < 0 || h.v > 23 {
			return apperr.Invalid("%s must be between 0 and 23", h.name)
		}
	}
	return nil
}

// DefaultFareConfigs are the rows "initialize defaults" inserts for vehicle
// types that have no active config.
func DefaultFareConfigs() []FareConfig {
	night := AdditionalCharges{
		NightSurchargePercent: 10,
		NightStartHour:        22,
		NightEndHour:          5,
		PeakStartHour:         7,
		PeakEndHour:           9,
	}
	cab := night
	cab.NightSurchargePercent = 20
	cab.PeakHourSurchargePercent = 15
	cab.PeakStartHour = 17
	cab.PeakEndHour = 20
	cab.PerPassengerCharge = 5

	moto := night
	moto.PeakHourSurchargePercent = 10

	return []FareConfig{
		{
			VehicleType:       VehicleTricycle,
			BaseFare:          20,
			PerKmRate:         2.8,
			MinimumFare:       20,
			BaseDistanceKm:    1,
			AdditionalCharges: night,
			IsActive:          true,
			Description:       "Default tricycle fare",
		},
		{
			VehicleType:       VehicleSingleMotorcycle,
			BaseFare:          40,
			PerKmRate:         10,
			MinimumFare:       40,
			BaseDistanceKm:    2,
			AdditionalCharges: moto,
			IsActive:          true,
			Description:       "Default single motorcycle fare",
		},
		{
			VehicleType:       VehicleCab,
			BaseFare:          45,
			PerKmRate:         13.5,
			MinimumFare:       45,
			BaseDistanceKm:    1,
			AdditionalCharges: cab,
			IsActive:          true,
			Description:       "Default cab fare",
		},
	}
}

package models

import "time"

type RideStatus string

const (
	RideActive    RideStatus = "active"
	RideCompleted RideStatus = "completed"
	RideCancelled RideStatus = "cancelled"
)

// Ride is the parent row checkpoints are appended to. Its row lock is the
// per-ride critical section for appends.
type Ride struct {
	ID             string      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	RiderID        string      `gorm:"index" json:"riderId"`
	CustomerID     string      `gorm:"index" json:"customerId"`
	VehicleType    VehicleType `gorm:"type:varchar(32);not null" json:"vehicleType"`
	PassengerCount int         `gorm:"not null" json:"passengerCount"`
	Status         RideStatus  `gorm:"type:varchar(16);not null;index" json:"status"`
	BookedAt       time.Time   `gorm:"not null" json:"bookedAt"`
	ClosedAt       *time.Time  `json:"closedAt,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

func (r Ride) AcceptsCheckpoints() bool {
	return r.Status == RideActive
}

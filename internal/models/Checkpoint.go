package models

import (
	"iter"
	"time"

	"trip_tracker/internal/geo"
)

// CheckpointType tags the ride lifecycle moment a snapshot was taken at.
// The order below is the usual progression but it is not enforced.
type CheckpointType string

const (
	CheckpointSearching CheckpointType = "SEARCHING"
	CheckpointAccepted  CheckpointType = "ACCEPTED"
	CheckpointPickup    CheckpointType = "PICKUP"
	CheckpointOngoing   CheckpointType = "ONGOING"
	CheckpointDropoff   CheckpointType = "DROPOFF"
)

// CheckpointTypes lists every known type in lifecycle order.
var CheckpointTypes = []CheckpointType{
	CheckpointSearching,
	CheckpointAccepted,
	CheckpointPickup,
	CheckpointOngoing,
	CheckpointDropoff,
}

func (t CheckpointType) Valid() bool {
	for _, k := range CheckpointTypes {
		if t == k {
			return true
		}
	}
	return false
}

// Location is the GPS part of a checkpoint.
type Location struct {
	Latitude  float64  `json:"latitude" gorm:"not null"`
	Longitude float64  `json:"longitude" gorm:"not null"`
	Speed     *float64 `json:"speed,omitempty"`    // m/s
	Heading   *float64 `json:"heading,omitempty"`  // degrees 0-360
	Accuracy  *float64 `json:"accuracy,omitempty"` // meters
}

func (l Location) Point() geo.Point {
	return geo.Point{Lat: l.Latitude, Lng: l.Longitude}
}

// Checkpoint is one append-only GPS snapshot of a ride. SequenceNumber,
// the distance fields and DurationFromPrevious are derived by the ledger.
type Checkpoint struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	RideID         string         `gorm:"type:varchar(36);not null;uniqueIndex:idx_checkpoints_ride_seq,priority:1" json:"rideId"`
	RiderID        string         `gorm:"index" json:"riderId"`
	CustomerID     string         `gorm:"index" json:"customerId"`
	CheckpointType CheckpointType `gorm:"type:varchar(16);not null;index" json:"checkpointType"`
	SequenceNumber int            `gorm:"not null;uniqueIndex:idx_checkpoints_ride_seq,priority:2" json:"sequenceNumber"`
	Location       Location       `gorm:"embedded" json:"location"`
	Address        string         `json:"address,omitempty"`

	CapturedAt       time.Time `gorm:"not null;index" json:"capturedAt"`
	ReceivedAt       time.Time `gorm:"not null" json:"receivedAt"`
	ClockSkewSeconds float64   `json:"clockSkewSeconds"`

	DistanceFromPrevious float64 `json:"distanceFromPrevious"` // km
	CumulativeDistance   float64 `gorm:"index" json:"cumulativeDistance"`
	DurationFromPrevious float64 `json:"durationFromPrevious"` // seconds

	PrevLatitude       float64 `json:"-"`
	PrevLongitude      float64 `json:"-"`
	InterpolationCount int     `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
}

// InterpolationPoints yields the display-only points between the previous
// checkpoint and this one. It is empty for the first checkpoint of a ride.
func (c Checkpoint) InterpolationPoints() iter.Seq[geo.Point] {
	if c.InterpolationCount <= 0 {
		return func(func(geo.Point) bool) {}
	}
	prev := geo.Point{Lat: c.PrevLatitude, Lng: c.PrevLongitude}
	seq, err := geo.Interpolate(prev, c.Location.Point(), c.InterpolationCount)
	if err != nil {
		// stored rows were validated on append
		return func(func(geo.Point) bool) {}
	}
	return seq
}

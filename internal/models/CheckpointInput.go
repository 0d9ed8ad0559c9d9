package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CheckpointInput is what a client may send for a new checkpoint. Derived
// ledger fields are intentionally absent.
type CheckpointInput struct {
	RideID         string         `json:"rideId"`
	RiderID        string         `json:"riderId"`
	CustomerID     string         `json:"customerId"`
	CheckpointType CheckpointType `json:"checkpointType"`
	Location       Location       `json:"location"`
	Address        string         `json:"address"`
	CapturedAt     time.Time      `json:"capturedAt"`
}

// UnmarshalJSON accepts capturedAt as RFC3339 with or without a zone suffix
// (zone-less values are read as UTC) or as epoch milliseconds.
func (in *CheckpointInput) UnmarshalJSON(data []byte) error {
	type alias CheckpointInput
	aux := &struct {
		CapturedAt json.RawMessage `json:"capturedAt"`
		*alias
	}{alias: (*alias)(in)}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	if len(aux.CapturedAt) == 0 || string(aux.CapturedAt) == "null" {
		in.CapturedAt = time.Time{}
		return nil
	}

	var raw string
	if err := json.Unmarshal(aux.CapturedAt, &raw); err != nil {
		// not a string, try epoch millis
		ms, numErr := strconv.ParseInt(string(aux.CapturedAt), 10, 64)
		if numErr != nil {
			return fmt.Errorf("invalid capturedAt %s", aux.CapturedAt)
		}
		in.CapturedAt = time.UnixMilli(ms).UTC()
		return nil
	}

	t, err := ParseTimestamp(raw)
	if err != nil {
		return err
	}
	in.CapturedAt = t
	return nil
}

// ParseTimestamp parses RFC3339(Nano), appending Z when the client omitted the zone.
func ParseTimestamp(raw string) (time.Time, error) {
	ts := strings.TrimSpace(raw)
	if ts == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if !hasZone(ts) {
		ts += "Z"
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", raw, err)
	}
	return t, nil
}

func hasZone(ts string) bool {
	if strings.HasSuffix(ts, "Z") || strings.HasSuffix(ts, "z") {
		return true
	}
	// look for a +hh:mm / -hh:mm offset after the time part
	i := strings.IndexByte(ts, 'T')
	if i < 0 {
		return false
	}
	return strings.ContainsAny(ts[i:], "+-")
}

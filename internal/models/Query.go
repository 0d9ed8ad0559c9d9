package models

import "time"

// CheckpointFilter narrows the dashboard listing, statistics and export.
type CheckpointFilter struct {
	CheckpointType CheckpointType
	RideID         string
	RiderID        string
	Search         string
	StartDate      *time.Time
	EndDate        *time.Time

	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

type TypeCount struct {
	Type  CheckpointType `json:"_id" gorm:"column:checkpoint_type"`
	Count int64          `json:"count"`
}

type StatsTotals struct {
	TotalCheckpoints int64 `json:"totalCheckpoints"`
	UniqueRides      int64 `json:"uniqueRides"`
	UniqueRiders     int64 `json:"uniqueRiders"`
}

type StatsDistance struct {
	AvgDistance float64 `json:"avgDistance"`
}

// CheckpointStats is the aggregate block of the dashboard statistics card.
type CheckpointStats struct {
	Totals   StatsTotals   `json:"totals"`
	Distance StatsDistance `json:"distance"`
	ByType   []TypeCount   `json:"byType"`
}

package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"trip_tracker/internal/apperr"
	"trip_tracker/internal/models"
)

// AppendFunc derives the row to insert from the locked ride and the last
// stored checkpoint of that ride (nil for the first one).
type AppendFunc func(ride *models.Ride, prev *models.Checkpoint) (*models.Checkpoint, error)

type CheckpointStore struct {
	db *gorm.DB
}

func NewCheckpointStore(db *gorm.DB) *CheckpointStore {
	return &CheckpointStore{db: db}
}

// sortColumns whitelists the sortBy values the dashboard may send.
var sortColumns = map[string]string{
	"createdAt":            "created_at",
	"capturedAt":           "captured_at",
	"sequenceNumber":       "sequence_number",
	"cumulativeDistance":   "cumulative_distance",
	"distanceFromPrevious": "distance_from_previous",
	"checkpointType":       "checkpoint_type",
	"rideId":               "ride_id",
	"riderId":              "rider_id",
}

// Append runs build and inserts its result while holding the ride row lock,
// so two appends to the same ride never see the same previous checkpoint.
// A DROPOFF checkpoint closes the ride in the same transaction.
func (s *CheckpointStore) Append(ctx context.Context, rideID string, build AppendFunc) (*models.Checkpoint, error) {
	var out *models.Checkpoint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ride models.Ride
		if err := lockRide(tx, rideID, &ride); err != nil {
			if notFound(err) {
				return fmt.Errorf("ride %s does not exist: %w", rideID, apperr.ErrInvalidRideState)
			}
			return err
		}
		if !ride.AcceptsCheckpoints() {
			return fmt.Errorf("ride %s is %s: %w", rideID, ride.Status, apperr.ErrInvalidRideState)
		}

		var prev models.Checkpoint
		var prevPtr *models.Checkpoint
		err := tx.Where("ride_id = ?", rideID).Order("sequence_number desc").Take(&prev).Error
		switch {
		case err == nil:
			prevPtr = &prev
		case notFound(err):
		default:
			return err
		}

		cp, err := build(&ride, prevPtr)
		if err != nil {
			return err
		}
		if err := tx.Create(cp).Error; err != nil {
			return err
		}
		if cp.CheckpointType == models.CheckpointDropoff {
			if err := closeRide(tx, &ride, models.RideCompleted, cp.ReceivedAt); err != nil {
				return err
			}
		}
		out = cp
		return nil
	})
	if err != nil {
		return nil, classify("append checkpoint", err)
	}
	return out, nil
}

// ListByRide returns the ledger of a ride in sequence order.
func (s *CheckpointStore) ListByRide(ctx context.Context, rideID string) ([]models.Checkpoint, error) {
	var cps []models.Checkpoint
	err := s.db.WithContext(ctx).
		Where("ride_id = ?", rideID).
		Order("sequence_number asc").
		Find(&cps).Error
	if err != nil {
		return nil, classify("list ride checkpoints", err)
	}
	return cps, nil
}

// ListFiltered returns one page of checkpoints and the total number matching
// the filter. Limit <= 0 returns every matching row.
func (s *CheckpointStore) ListFiltered(ctx context.Context, f models.CheckpointFilter) ([]models.Checkpoint, int64, error) {
	base := applyFilter(s.db.WithContext(ctx).Model(&models.Checkpoint{}), f)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, classify("count checkpoints", err)
	}

	q := base.Session(&gorm.Session{}).Order(orderClause(f.SortBy, f.SortOrder))
	if f.Limit > 0 {
		page := max(f.Page, 1)
		q = q.Offset((page - 1) * f.Limit).Limit(f.Limit)
	}

	var cps []models.Checkpoint
	if err := q.Find(&cps).Error; err != nil {
		return nil, 0, classify("list checkpoints", err)
	}
	return cps, total, nil
}

// Statistics aggregates the filtered checkpoint set. avgDistance is the mean
// distanceFromPrevious of the matched checkpoints.
func (s *CheckpointStore) Statistics(ctx context.Context, f models.CheckpointFilter) (models.CheckpointStats, error) {
	var stats models.CheckpointStats
	base := applyFilter(s.db.WithContext(ctx).Model(&models.Checkpoint{}), f)

	var row struct {
		TotalCheckpoints int64
		UniqueRides      int64
		UniqueRiders     int64
		AvgDistance      float64
	}
	err := base.Session(&gorm.Session{}).Select(
		"COUNT(*) AS total_checkpoints, " +
			"COUNT(DISTINCT ride_id) AS unique_rides, " +
			"COUNT(DISTINCT NULLIF(rider_id, '')) AS unique_riders, " +
			"COALESCE(AVG(distance_from_previous), 0) AS avg_distance",
	).Scan(&row).Error
	if err != nil {
		return stats, classify("checkpoint totals", err)
	}

	var byType []models.TypeCount
	err = base.Session(&gorm.Session{}).
		Select("checkpoint_type, COUNT(*) AS count").
		Group("checkpoint_type").
		Order("checkpoint_type").
		Scan(&byType).Error
	if err != nil {
		return stats, classify("checkpoint counts by type", err)
	}

	stats.Totals = models.StatsTotals{
		TotalCheckpoints: row.TotalCheckpoints,
		UniqueRides:      row.UniqueRides,
		UniqueRiders:     row.UniqueRiders,
	}
	stats.Distance.AvgDistance = row.AvgDistance
	stats.ByType = byType
	return stats, nil
}

func applyFilter(q *gorm.DB, f models.CheckpointFilter) *gorm.DB {
	if f.CheckpointType != "" {
		q = q.Where("checkpoint_type = ?", f.CheckpointType)
	}
	if f.RideID != "" {
		q = q.Where("ride_id = ?", f.RideID)
	}
	if f.RiderID != "" {
		q = q.Where("rider_id = ?", f.RiderID)
	}
	if f.StartDate != nil {
		q = q.Where("captured_at >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("captured_at <= ?", *f.EndDate)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + escapeLike(term) + "%"
		q = q.Where(
			"(ride_id ILIKE ? OR rider_id ILIKE ? OR customer_id ILIKE ? OR address ILIKE ?)",
			like, like, like, like,
		)
	}
	return q
}

func orderClause(sortBy, sortOrder string) string {
	col, ok := sortColumns[sortBy]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		dir = "ASC"
	}
	return pq.QuoteIdentifier(col) + " " + dir + ", " + pq.QuoteIdentifier("id") + " " + dir
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func lockRide(tx *gorm.DB, id string, ride *models.Ride) error {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(ride, "id = ?", id).Error
}

package services

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"trip_tracker/internal/apperr"
	"trip_tracker/internal/models"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 1000
)

var csvHeader = []string{
	"id", "rideId", "riderId", "customerId", "checkpointType", "sequenceNumber",
	"latitude", "longitude", "speed", "heading", "accuracy", "address",
	"capturedAt", "receivedAt", "distanceFromPrevious", "cumulativeDistance", "durationFromPrevious",
}

// QueryService is the read side used by the dashboard.
type QueryService struct {
	checkpoints CheckpointRepository
	routes      *RouteService
	exportMax   int
}

func NewQueryService(checkpoints CheckpointRepository, routes *RouteService, exportMax int) *QueryService {
	return &QueryService{checkpoints: checkpoints, routes: routes, exportMax: exportMax}
}

func (s *QueryService) List(ctx context.Context, f models.CheckpointFilter) ([]models.Checkpoint, models.Pagination, error) {
	if err := validateFilter(f); err != nil {
		return nil, models.Pagination{}, err
	}
	f.Page = max(f.Page, 1)
	switch {
	case f.Limit <= 0:
		f.Limit = DefaultPageSize
	case f.Limit > MaxPageSize:
		f.Limit = MaxPageSize
	}

	cps, total, err := s.checkpoints.ListFiltered(ctx, f)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return cps, models.NewPagination(f.Page, f.Limit, total), nil
}

func (s *QueryService) Stats(ctx context.Context, f models.CheckpointFilter) (models.CheckpointStats, error) {
	if err := validateFilter(f); err != nil {
		return models.CheckpointStats{}, err
	}
	return s.checkpoints.Statistics(ctx, f)
}

func (s *QueryService) RideDetail(ctx context.Context, rideID string) (*Route, error) {
	return s.routes.Reconstruct(ctx, rideID)
}

// Export writes the filtered checkpoints as CSV, header first. It returns
// the number of data rows written and the number of checkpoints matching f;
// they differ when the export hit the configured row cap. Paging fields of f
// are ignored.
func (s *QueryService) Export(ctx context.Context, f models.CheckpointFilter, w io.Writer) (rows int, total int64, err error) {
	if err := validateFilter(f); err != nil {
		return 0, 0, err
	}
	f.Page = 1
	f.Limit = s.exportMax

	cps, total, err := s.checkpoints.ListFiltered(ctx, f)
	if err != nil {
		return 0, 0, err
	}
	if int64(len(cps)) < total {
		logrus.WithFields(logrus.Fields{
			"total":    total,
			"exported": len(cps),
		}).Warn("Checkpoint export truncated")
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return 0, total, err
	}
	for _, cp := range cps {
		if err := cw.Write(csvRecord(cp)); err != nil {
			return 0, total, err
		}
	}
	cw.Flush()
	return len(cps), total, cw.Error()
}

func csvRecord(cp models.Checkpoint) []string {
	return []string{
		strconv.FormatUint(uint64(cp.ID), 10),
		cp.RideID,
		cp.RiderID,
		cp.CustomerID,
		string(cp.CheckpointType),
		strconv.Itoa(cp.SequenceNumber),
		formatFloat(cp.Location.Latitude),
		formatFloat(cp.Location.Longitude),
		formatOptional(cp.Location.Speed),
		formatOptional(cp.Location.Heading),
		formatOptional(cp.Location.Accuracy),
		cp.Address,
		cp.CapturedAt.UTC().Format(time.RFC3339Nano),
		cp.ReceivedAt.UTC().Format(time.RFC3339Nano),
		formatFloat(cp.DistanceFromPrevious),
		formatFloat(cp.CumulativeDistance),
		formatFloat(cp.DurationFromPrevious),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func validateFilter(f models.CheckpointFilter) error {
	if f.CheckpointType != "" && !f.CheckpointType.Valid() {
		return apperr.Invalid("unknown checkpointType %q", f.CheckpointType)
	}
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return apperr.Invalid("endDate is before startDate")
	}
	return nil
}

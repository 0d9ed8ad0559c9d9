package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"trip_tracker/internal/apperr"
	"trip_tracker/internal/middleware"
	"trip_tracker/internal/models"
)

type CheckpointController struct {
	ingest  CheckpointIngestor
	queries CheckpointQueries
	fares   FareCalculator
}

func NewCheckpointController(ingest CheckpointIngestor, queries CheckpointQueries, fares FareCalculator) *CheckpointController {
	return &CheckpointController{ingest: ingest, queries: queries, fares: fares}
}

// CreateCheckpoint appends one checkpoint to a ride. Riders append on their
// own behalf; the riderId in the body is replaced by the token subject.
func (cc *CheckpointController) CreateCheckpoint(c *gin.Context) {
	var in models.CheckpointInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid checkpoint payload: %v", err)
		return
	}
	if c.GetString("role") == middleware.RoleRider {
		in.RiderID = c.GetString("user_id")
	}

	cp, err := cc.ingest.Append(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"checkpoint": cp})
}

func (cc *CheckpointController) ListCheckpoints(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}
	cps, page, err := cc.queries.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"checkpoints": nonNil(cps), "pagination": page})
}

func (cc *CheckpointController) CheckpointStats(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}
	stats, err := cc.queries.Stats(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	stats.ByType = nonNil(stats.ByType)
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// RideCheckpoints is the per-ride detail view of the dashboard.
func (cc *CheckpointController) RideCheckpoints(c *gin.Context) {
	route, err := cc.queries.RideDetail(c.Request.Context(), c.Param("rideId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ride":            route.Ride,
		"checkpoints":     nonNil(route.Checkpoints),
		"totalDistance":   route.TotalDistance,
		"totalDuration":   route.TotalDuration,
		"checkpointCount": route.CheckpointCount,
		"pickupAddress":   route.PickupAddress,
		"dropoffAddress":  route.DropoffAddress,
	})
}

func (cc *CheckpointController) RideRoute(c *gin.Context) {
	route, err := cc.queries.RideDetail(c.Request.Context(), c.Param("rideId"))
	if err != nil {
		respondError(c, err)
		return
	}
	route.Checkpoints = nonNil(route.Checkpoints)
	c.JSON(http.StatusOK, route)
}

func (cc *CheckpointController) RideFare(c *gin.Context) {
	fare, err := cc.fares.CalculateForRide(c.Request.Context(), c.Param("rideId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fareEstimate": fare})
}

// ExportCheckpoints renders the filtered set as CSV. The body is built in
// memory so a failure can still be reported as JSON. X-Total-Count is the
// number of matching checkpoints, X-Exported-Count the rows in the body.
func (cc *CheckpointController) ExportCheckpoints(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var buf bytes.Buffer
	rows, total, err := cc.queries.Export(c.Request.Context(), f, &buf)
	if err != nil {
		respondError(c, err)
		return
	}

	name := fmt.Sprintf("checkpoints-%s.csv", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Header("X-Total-Count", strconv.FormatInt(total, 10))
	c.Header("X-Exported-Count", strconv.Itoa(rows))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func parseFilter(c *gin.Context) (models.CheckpointFilter, error) {
	f := models.CheckpointFilter{
		RideID:    strings.TrimSpace(c.Query("rideId")),
		RiderID:   strings.TrimSpace(c.Query("riderId")),
		Search:    c.Query("search"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}
	if t := strings.ToUpper(strings.TrimSpace(c.Query("checkpointType"))); t != "" && t != "ALL" {
		f.CheckpointType = models.CheckpointType(t)
	}

	var err error
	if f.Page, err = queryInt(c, "page"); err != nil {
		return f, err
	}
	if f.Limit, err = queryInt(c, "limit"); err != nil {
		return f, err
	}
	if f.StartDate, err = queryTime(c, "startDate", false); err != nil {
		return f, err
	}
	if f.EndDate, err = queryTime(c, "endDate", true); err != nil {
		return f, err
	}
	return f, nil
}

func queryInt(c *gin.Context, key string) (int, error) {
	v := c.Query(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, apperr.Invalid("%s must be a non-negative integer", key)
	}
	return n, nil
}

// queryTime accepts RFC3339 or a bare date. A bare endDate covers the whole day.
func queryTime(c *gin.Context, key string, endOfDay bool) (*time.Time, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil, nil
	}
	if d, err := time.Parse(time.DateOnly, v); err == nil {
		if endOfDay {
			d = d.Add(24*time.Hour - time.Nanosecond)
		}
		return &d, nil
	}
	t, err := models.ParseTimestamp(v)
	if err != nil {
		return nil, apperr.Invalid("%s: %v", key, err)
	}
	return &t, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

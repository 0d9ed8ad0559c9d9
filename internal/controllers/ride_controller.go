package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trip_tracker/internal/middleware"
	"trip_tracker/internal/services"
)

type RideController struct {
	rides RideManager
}

func NewRideController(rides RideManager) *RideController {
	return &RideController{rides: rides}
}

func (rc *RideController) OpenRide(c *gin.Context) {
	var in services.OpenRideInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid ride payload: %v", err)
		return
	}
	if rider := riderScope(c); rider != "" {
		in.RiderID = rider
	}
	ride, err := rc.rides.Open(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ride": ride})
}

func (rc *RideController) GetRide(c *gin.Context) {
	ride, err := rc.rides.Get(c.Request.Context(), c.Param("rideId"), riderScope(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ride": ride})
}

func (rc *RideController) CancelRide(c *gin.Context) {
	ride, err := rc.rides.Cancel(c.Request.Context(), c.Param("rideId"), riderScope(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ride": ride})
}

// riderScope is the token subject for rider tokens and empty for operators.
func riderScope(c *gin.Context) string {
	if c.GetString("role") == middleware.RoleRider {
		return c.GetString("user_id")
	}
	return ""
}

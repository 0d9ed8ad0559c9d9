package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"trip_tracker/internal/models"
	"trip_tracker/internal/services"
)

type FareConfigController struct {
	configs FareConfigManager
	fares   FareCalculator
}

func NewFareConfigController(configs FareConfigManager, fares FareCalculator) *FareConfigController {
	return &FareConfigController{configs: configs, fares: fares}
}

func (fc *FareConfigController) ListFareConfigs(c *gin.Context) {
	includeInactive, _ := strconv.ParseBool(c.DefaultQuery("includeInactive", "false"))
	cfgs, err := fc.configs.List(c.Request.Context(), includeInactive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fareConfigs": nonNil(cfgs)})
}

func (fc *FareConfigController) GetFareConfig(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	cfg, err := fc.configs.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fareConfig": cfg})
}

// UpsertFareConfig saves the body as the current config of its vehicle type.
func (fc *FareConfigController) UpsertFareConfig(c *gin.Context) {
	var cfg models.FareConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		badRequest(c, "invalid fare config: %v", err)
		return
	}
	saved, err := fc.configs.Upsert(c.Request.Context(), cfg)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"fareConfig": saved})
}

func (fc *FareConfigController) ToggleFareConfig(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	cfg, err := fc.configs.Toggle(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fareConfig": cfg})
}

func (fc *FareConfigController) DeleteFareConfig(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := fc.configs.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Fare config deleted"})
}

func (fc *FareConfigController) InitializeFareConfigs(c *gin.Context) {
	created, err := fc.configs.InitializeDefaults(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fareConfigs": nonNil(created), "created": len(created)})
}

// CalculateFare prices an ad-hoc trip. bookingTime may omit its zone (read as
// UTC) and defaults to now.
func (fc *FareConfigController) CalculateFare(c *gin.Context) {
	var body struct {
		VehicleType    models.VehicleType `json:"vehicleType"`
		DistanceKm     float64            `json:"distanceKm"`
		PassengerCount *int               `json:"passengerCount"`
		BookingTime    string             `json:"bookingTime"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid fare request: %v", err)
		return
	}

	req := services.FareRequest{
		VehicleType:    body.VehicleType,
		DistanceKm:     body.DistanceKm,
		PassengerCount: 1,
	}
	if body.PassengerCount != nil {
		req.PassengerCount = *body.PassengerCount
	}
	if body.BookingTime != "" {
		t, err := models.ParseTimestamp(body.BookingTime)
		if err != nil {
			badRequest(c, "bookingTime: %v", err)
			return
		}
		req.BookingTime = t
	} else {
		req.BookingTime = time.Now()
	}

	fare, err := fc.fares.Calculate(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fareEstimate": fare})
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid id %q", c.Param("id"))
		return 0, false
	}
	return uint(id), true
}

package routes

import (
	"github.com/gin-gonic/gin"

	"trip_tracker/internal/controllers"
)

// Handlers groups the controllers the router mounts.
type Handlers struct {
	Checkpoints *controllers.CheckpointController
	Rides       *controllers.RideController
	FareConfigs *controllers.FareConfigController
	Socket      *controllers.CheckpointSocket
	Health      gin.HandlerFunc
}

// SetupRouter builds the engine. mw runs before every route (recovery,
// request logging).
func SetupRouter(h Handlers, mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)

	if h.Health != nil {
		r.GET("/health", h.Health)
	}

	api := r.Group("/api")
	CheckpointRoutes(api, h.Checkpoints)
	RideRoutes(api, h.Rides)
	FareConfigRoutes(api, h.FareConfigs)
	WebSocketRoutes(r, h.Socket)

	return r
}

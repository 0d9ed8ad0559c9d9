package routes

import (
	"github.com/gin-gonic/gin"

	"trip_tracker/internal/controllers"
	"trip_tracker/internal/middleware"
)

func CheckpointRoutes(api *gin.RouterGroup, cc *controllers.CheckpointController) {
	ingest := api.Group("/checkpoints")
	ingest.Use(middleware.RequireAuthWithRole(middleware.RoleRider, middleware.RoleAdmin))
	{
		ingest.POST("", cc.CreateCheckpoint)
	}

	dashboard := api.Group("/checkpoints")
	dashboard.Use(middleware.RequireAuthWithRole(middleware.RoleAdmin))
	{
		dashboard.GET("", cc.ListCheckpoints)
		dashboard.GET("/stats", cc.CheckpointStats)
		dashboard.GET("/export", cc.ExportCheckpoints)
		dashboard.GET("/ride/:rideId", cc.RideCheckpoints)
		dashboard.GET("/ride/:rideId/route", cc.RideRoute)
		dashboard.GET("/ride/:rideId/fare", cc.RideFare)
	}
}

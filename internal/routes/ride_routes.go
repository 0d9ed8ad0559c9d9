package routes

import (
	"github.com/gin-gonic/gin"

	"trip_tracker/internal/controllers"
	"trip_tracker/internal/middleware"
)

func RideRoutes(api *gin.RouterGroup, rc *controllers.RideController) {
	rides := api.Group("/rides")
	rides.Use(middleware.RequireAuthWithRole(middleware.RoleRider, middleware.RoleAdmin))
	{
		rides.POST("", rc.OpenRide)
		rides.GET("/:rideId", rc.GetRide)
		rides.POST("/:rideId/cancel", rc.CancelRide)
	}
}

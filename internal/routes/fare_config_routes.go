package routes

import (
	"github.com/gin-gonic/gin"

	"trip_tracker/internal/controllers"
	"trip_tracker/internal/middleware"
)

func FareConfigRoutes(api *gin.RouterGroup, fc *controllers.FareConfigController) {
	fares := api.Group("/fare-config")
	fares.Use(middleware.RequireAuthWithRole(middleware.RoleAdmin))
	{
		fares.GET("", fc.ListFareConfigs)
		fares.POST("", fc.UpsertFareConfig)
		fares.POST("/initialize", fc.InitializeFareConfigs)
		fares.POST("/calculate", fc.CalculateFare)
		fares.GET("/:id", fc.GetFareConfig)
		fares.PATCH("/:id/toggle", fc.ToggleFareConfig)
		fares.DELETE("/:id", fc.DeleteFareConfig)
	}
}

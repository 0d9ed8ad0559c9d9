package routes

import (
	"github.com/gin-gonic/gin"

	"trip_tracker/internal/controllers"
)

// WebSocketRoutes mounts the device socket. It authenticates from the token
// query parameter itself.
func WebSocketRoutes(r *gin.Engine, s *controllers.CheckpointSocket) {
	ws := r.Group("/ws")
	{
		ws.GET("/checkpoints", s.HandleCheckpointWebSocket)
	}
}

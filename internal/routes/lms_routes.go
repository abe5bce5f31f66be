package routes

import (
	"meetspace_backend/internal/handlers"
	"meetspace_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupLMSRoutes - операции с комнатами по токену параметров комнаты.
func SetupLMSRoutes(r *gin.Engine, h *handlers.AppHandlers, g Guards) {
	lms := r.Group("/lms-api")
	lms.Use(middleware.RoomTokenMiddleware(g.RoomTokens, handlers.WriteEnvelopeError))
	{
		lms.POST("/rooms", h.LMSHandler.CreateRoom)
		lms.GET("/rooms/:meetingId", h.LMSHandler.GetRoom)
		lms.PUT("/rooms/:meetingId", h.LMSHandler.UpdateRoom)
		lms.DELETE("/rooms/:meetingId", h.LMSHandler.DeleteRoom)
	}
}

package routes

import (
	"meetspace_backend/internal/auth"
	"meetspace_backend/internal/handlers"
	"meetspace_backend/internal/middleware"
	"meetspace_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

func SetupDashboardRoutes(r *gin.Engine, h *handlers.AppHandlers, g Guards) {
	dashboard := r.Group("/dashboard-api")
	dashboard.Use(middleware.AuthMiddleware(g.JWT, handlers.WriteEnvelopeError))
	dashboard.Use(func(c *gin.Context) {
		if middleware.GetRole(c) != auth.RoleCustomer {
			handlers.WriteEnvelopeError(c, apperrors.ErrInsufficientPermissions)
			return
		}
		c.Next()
	})
	{
		dashboard.GET("/rooms", h.DashboardHandler.ListRooms)
		dashboard.GET("/rooms/:roomUUID", h.DashboardHandler.RoomInfo)
		dashboard.POST("/rooms/:roomUUID/stop", h.DashboardHandler.StopRoom)
		dashboard.GET("/rooms/:roomUUID/participants", h.DashboardHandler.Participants)
		dashboard.GET("/rooms/:roomUUID/timeline", h.DashboardHandler.Timeline)

		dashboard.GET("/analytics", h.DashboardHandler.Analytics)
		dashboard.GET("/meetings", h.DashboardHandler.ListMeetings)
		dashboard.POST("/room-tokens", h.DashboardHandler.IssueRoomToken)
		dashboard.GET("/organization/users", h.DashboardHandler.OrganizationUsers)
		dashboard.GET("/subscription", h.DashboardHandler.Subscription)
	}
}

package routes

import (
	"meetspace_backend/internal/auth"
	"meetspace_backend/internal/handlers"
	"meetspace_backend/internal/logger"
	"meetspace_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Guards - middleware, которые маршрутам нужны из внешних зависимостей.
type Guards struct {
	JWT         *auth.JWTManager
	RoomTokens  middleware.RoomTokenVerifier
	AuthLimiter *middleware.RateLimiter
}

func (g Guards) session() gin.HandlerFunc {
	return middleware.AuthMiddleware(g.JWT, nil)
}

func (g Guards) customer() []gin.HandlerFunc {
	return []gin.HandlerFunc{g.session(), middleware.RoleMiddleware(auth.RoleCustomer)}
}

func (g Guards) staff(permission string) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		g.session(),
		middleware.RoleMiddleware(auth.RoleAdmin, auth.RoleEditor),
		middleware.RequirePermission(permission),
	}
}

// RegisterRoutes регистрирует все HTTP маршруты.
func RegisterRoutes(r *gin.Engine, h *handlers.AppHandlers, g Guards) {
	SetupPublicRoutes(r, h, g)
	SetupCustomerRoutes(r, h, g)
	SetupAdminRoutes(r, h, g)
	SetupDashboardRoutes(r, h, g)
	SetupLMSRoutes(r, h, g)

	logger.Info("HTTP routes registered", "routes", len(r.Routes()))
}

package routes

import (
	_ "meetspace_backend/docs"
	"meetspace_backend/internal/handlers"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func SetupPublicRoutes(r *gin.Engine, h *handlers.AppHandlers, g Guards) {
	r.GET("/health", h.HealthHandler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	authGroup := r.Group("/api/auth")
	if g.AuthLimiter != nil {
		authGroup.Use(g.AuthLimiter.Middleware())
	}
	{
		authGroup.POST("/login", h.AuthHandler.Login)
		authGroup.POST("/register", h.AuthHandler.Register)
		authGroup.POST("/send-code", h.AuthHandler.SendCode)
		authGroup.POST("/admin/login", h.AuthHandler.AdminLogin)
		authGroup.GET("/me", g.session(), h.AuthHandler.Me)
	}

	plans := r.Group("/api/subscriptions/plans")
	{
		plans.GET("", h.SubscriptionHandler.GetPlans)
		plans.GET("/:planId", h.SubscriptionHandler.GetPlan)
	}
}

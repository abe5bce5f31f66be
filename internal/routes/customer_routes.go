package routes

import (
	"meetspace_backend/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupCustomerRoutes - маршруты клиента (сессия с ролью customer).
func SetupCustomerRoutes(r *gin.Engine, h *handlers.AppHandlers, g Guards) {
	customers := r.Group("/api/customers/me", g.customer()...)
	{
		customers.GET("", h.CustomerHandler.GetMe)
		customers.PUT("", h.CustomerHandler.UpdateMe)
		customers.POST("/avatar", h.CustomerHandler.UploadAvatar)
		customers.POST("/secret-key", h.CustomerHandler.RotateSecretKey)
		customers.GET("/client-key", h.CustomerHandler.GetClientKey)
	}

	subscriptions := r.Group("/api/subscriptions/me", g.customer()...)
	{
		subscriptions.GET("", h.SubscriptionHandler.GetMySubscription)
		subscriptions.GET("/usage-history", h.SubscriptionHandler.GetMyUsageHistory)
		subscriptions.PUT("/auto-renew", h.SubscriptionHandler.SetAutoRenew)
		subscriptions.POST("/cancel", h.SubscriptionHandler.CancelMySubscription)
	}

	invoices := r.Group("/api/invoices/me", g.customer()...)
	{
		invoices.GET("", h.InvoiceHandler.ListMine)
		invoices.GET("/export", h.InvoiceHandler.ExportMine)
		invoices.GET("/:invoiceId", h.InvoiceHandler.GetMine)
	}
}

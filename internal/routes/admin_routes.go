package routes

import (
	"meetspace_backend/internal/auth"
	"meetspace_backend/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupAdminRoutes - маршруты администраторов и редакторов. Доступ по
// разрешениям роли.
func SetupAdminRoutes(r *gin.Engine, h *handlers.AppHandlers, g Guards) {
	customers := r.Group("/api/customers")
	{
		customers.GET("", append(g.staff(auth.PermCustomersRead), h.CustomerHandler.List)...)
		customers.POST("", append(g.staff(auth.PermCustomersWrite), h.CustomerHandler.Create)...)
		customers.GET("/:customerId", append(g.staff(auth.PermCustomersRead), h.CustomerHandler.Get)...)
	}

	plans := r.Group("/api/subscriptions/plans", g.staff(auth.PermPlansWrite)...)
	{
		plans.POST("", h.SubscriptionHandler.CreatePlan)
		plans.PUT("/:planId", h.SubscriptionHandler.UpdatePlan)
		plans.DELETE("/:planId", h.SubscriptionHandler.DeletePlan)
	}

	subscriptions := r.Group("/api/subscriptions")
	{
		subscriptions.GET("", append(g.staff(auth.PermSubscriptionsRead), h.SubscriptionHandler.List)...)
		subscriptions.POST("", append(g.staff(auth.PermSubscriptionsWrite), h.SubscriptionHandler.CreateSubscription)...)
		subscriptions.PUT("/:subscriptionId/status", append(g.staff(auth.PermSubscriptionsWrite), h.SubscriptionHandler.UpdateStatus)...)
		subscriptions.POST("/:subscriptionId/usage", append(g.staff(auth.PermSubscriptionsWrite), h.SubscriptionHandler.UpdateUsage)...)
		subscriptions.POST("/process-expired", append(g.staff(auth.PermSubscriptionsWrite), h.SubscriptionHandler.ProcessExpired)...)
	}

	invoices := r.Group("/api/invoices")
	{
		invoices.GET("", append(g.staff(auth.PermInvoicesRead), h.InvoiceHandler.List)...)
		invoices.POST("", append(g.staff(auth.PermInvoicesWrite), h.InvoiceHandler.Create)...)
		invoices.PUT("/:invoiceId/status", append(g.staff(auth.PermInvoicesWrite), h.InvoiceHandler.UpdateStatus)...)
	}
}

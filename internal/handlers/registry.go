package handlers

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	AuthHandler         *AuthHandler
	CustomerHandler     *CustomerHandler
	SubscriptionHandler *SubscriptionHandler
	InvoiceHandler      *InvoiceHandler
	DashboardHandler    *DashboardHandler
	LMSHandler          *LMSHandler
	HealthHandler       *HealthHandler
}

package services

import (
	"meetspace_backend/internal/auth"
	"meetspace_backend/internal/cache"
	"meetspace_backend/internal/email"
	"meetspace_backend/internal/repositories"
	"meetspace_backend/internal/storage"
)

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	AuthService         AuthService
	CustomerService     CustomerService
	SubscriptionService SubscriptionService
	MeetingService      MeetingService
	InvoiceService      InvoiceService
	UploadService       UploadService
	AnalyticsService    AnalyticsService
	DashboardService    DashboardService
	RoomTokenService    RoomTokenService
	EmailService        email.Provider
}

// Dependencies - внешние зависимости, из которых собираются сервисы.
type Dependencies struct {
	Repos      *repositories.Container
	FlatAuth   FlatAuth
	FlatRooms  FlatRooms
	FlatUsers  FlatUsers
	FlatTokens FlatTokenSource
	Cache      cache.Cache
	Storage    storage.Storage
	Email      email.Provider
	JWT        *auth.JWTManager
	RoomTokens *auth.RoomTokenSigner

	Meeting MeetingConfig
	Upload  UploadConfig
}

func NewServiceContainer(deps Dependencies) *ServiceContainer {
	repos := deps.Repos

	customers := NewCustomerService(repos.Customers, deps.Meeting.ClientKeySalt)
	invoices := NewInvoiceService(repos.Invoices, repos.Customers, repos.Subscriptions, deps.Email)
	subscriptions := NewSubscriptionService(repos.Subscriptions, repos.Plans, repos.Customers, invoices, deps.Email)

	return &ServiceContainer{
		AuthService:         NewAuthService(deps.FlatAuth, customers, repos.Users, deps.JWT),
		CustomerService:     customers,
		SubscriptionService: subscriptions,
		MeetingService: NewMeetingService(repos.Meetings, repos.Customers, subscriptions,
			deps.FlatRooms, deps.FlatTokens, deps.Email, deps.Meeting),
		InvoiceService:   invoices,
		UploadService:    NewUploadService(repos.Media, repos.Customers, deps.Storage, deps.Upload),
		AnalyticsService: NewAnalyticsService(deps.FlatRooms, deps.FlatUsers, deps.Cache),
		DashboardService: NewDashboardService(deps.FlatRooms, deps.FlatUsers),
		RoomTokenService: NewRoomTokenService(deps.RoomTokens, repos.Meetings),
		EmailService:     deps.Email,
	}
}

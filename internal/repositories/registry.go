package repositories

// Container собирает все репозитории приложения.
type Container struct {
	Users         UserRepository
	Customers     CustomerRepository
	Plans         PlanRepository
	Subscriptions SubscriptionRepository
	Meetings      MeetingRepository
	Invoices      InvoiceRepository
	Media         MediaRepository
}

func NewContainer() *Container {
	return &Container{
		Users:         NewUserRepository(),
		Customers:     NewCustomerRepository(),
		Plans:         NewPlanRepository(),
		Subscriptions: NewSubscriptionRepository(),
		Meetings:      NewMeetingRepository(),
		Invoices:      NewInvoiceRepository(),
		Media:         NewMediaRepository(),
	}
}

package models

type UserRole string
type SubscriptionStatus string
type MeetingStatus string
type InvoiceStatus string
type BillingPeriod string

const (
	UserRoleAdmin    UserRole = "admin"
	UserRoleEditor   UserRole = "editor"
	UserRoleCustomer UserRole = "customer"

	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusInactive  SubscriptionStatus = "inactive"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusPending   SubscriptionStatus = "pending"

	MeetingStatusScheduled MeetingStatus = "scheduled"
	MeetingStatusStarted   MeetingStatus = "started"
	MeetingStatusStopped   MeetingStatus = "stopped"
	MeetingStatusCancelled MeetingStatus = "cancelled"

	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusFailed    InvoiceStatus = "failed"
	InvoiceStatusRefunded  InvoiceStatus = "refunded"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"

	BillingPeriodMonthly BillingPeriod = "monthly"
	BillingPeriodYearly  BillingPeriod = "yearly"
)

// IsValid reports whether s is one of the known subscription statuses.
func (s SubscriptionStatus) IsValid() bool {
	switch s {
	case SubscriptionStatusActive, SubscriptionStatusInactive, SubscriptionStatusCancelled,
		SubscriptionStatusExpired, SubscriptionStatusPending:
		return true
	}
	return false
}

func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusPending, InvoiceStatusPaid, InvoiceStatusFailed,
		InvoiceStatusRefunded, InvoiceStatusCancelled:
		return true
	}
	return false
}

func (p BillingPeriod) IsValid() bool {
	return p == BillingPeriodMonthly || p == BillingPeriodYearly
}

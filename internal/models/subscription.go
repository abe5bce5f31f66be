package models

import (
	"time"

	"gorm.io/datatypes"
)

// MonthFormat is the layout of MonthlyUsage.Month ("YYYY-MM").
const MonthFormat = "2006-01"

// MonthlyUsage - снимок использования за календарный месяц.
type MonthlyUsage struct {
	Month             string `json:"month"`
	RoomsCreated      int    `json:"roomsCreated"`
	TotalMinutes      int    `json:"totalMinutes"`
	ParticipantsCount int    `json:"participantsCount"`
}

type Subscription struct {
	BaseModel
	CustomerID   string                             `gorm:"type:uuid;not null;index" json:"customerId"`
	PlanID       string                             `gorm:"type:uuid;not null;index" json:"planId"`
	StartDate    time.Time                          `gorm:"not null" json:"startDate"`
	EndDate      time.Time                          `gorm:"not null" json:"endDate"`
	Status       SubscriptionStatus                 `gorm:"default:'pending';index" json:"status"`
	AutoRenew    bool                               `gorm:"default:true" json:"autoRenew"`
	MonthlyUsage MonthlyUsage                       `gorm:"embedded;embeddedPrefix:usage_" json:"monthlyUsage"`
	UsageHistory datatypes.JSONType[[]MonthlyUsage] `gorm:"type:jsonb" json:"usageHistory"`
	CancelledAt  *time.Time                         `json:"cancelledAt,omitempty"`

	// Relations
	Customer *Customer `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"customer,omitempty"`
	Plan     *Plan     `gorm:"foreignKey:PlanID;constraint:OnDelete:RESTRICT" json:"plan,omitempty"`
}

// CurrentUsage returns the stored usage when it belongs to month, otherwise a
// zero record for month. Stale months are never written back here.
func (s *Subscription) CurrentUsage(month string) MonthlyUsage {
	if s.MonthlyUsage.Month == month {
		return s.MonthlyUsage
	}
	return MonthlyUsage{Month: month}
}

// History returns a copy of the usage history entries.
func (s *Subscription) History() []MonthlyUsage {
	h := s.UsageHistory.Data()
	out := make([]MonthlyUsage, len(h))
	copy(out, h)
	return out
}

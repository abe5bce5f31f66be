package models

import (
	"time"

	"github.com/lib/pq"
)

// Meeting - локальная копия идентификаторов комнаты, созданной во Flat.
// Источник истины о состоянии комнаты - Flat.
type Meeting struct {
	BaseModel
	CustomerID        string         `gorm:"type:uuid;not null;index" json:"customerId"`
	SubscriptionID    *string        `gorm:"type:uuid;index" json:"subscriptionId,omitempty"`
	Name              string         `gorm:"not null" json:"name"`
	FlatRoomID        string         `gorm:"index;not null" json:"flatRoomId"`
	FlatRoomLink      string         `json:"flatRoomLink"`
	InviteCode        string         `json:"inviteCode,omitempty"`
	StartTime         time.Time      `json:"startTime"`
	EndTime           time.Time      `json:"endTime"`
	Duration          int            `json:"duration"` // минуты
	Status            MeetingStatus  `gorm:"default:'scheduled'" json:"status"`
	ParticipantEmails pq.StringArray `gorm:"type:text[]" json:"participantEmails"`

	Customer     *Customer     `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"-"`
	Subscription *Subscription `gorm:"foreignKey:SubscriptionID;constraint:OnDelete:SET NULL" json:"-"`
}

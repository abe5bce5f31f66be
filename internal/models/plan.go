package models

// Plan - тариф с лимитами. Редактируется только администраторами.
type Plan struct {
	BaseModel
	Name               string        `gorm:"uniqueIndex;not null" json:"name"`
	Description        string        `json:"description"`
	MaxRoomsPerMonth   int           `gorm:"not null" json:"maxRoomsPerMonth"`
	MaxParticipants    int           `gorm:"not null" json:"maxParticipants"`
	MaxDuration        int           `gorm:"not null" json:"maxDuration"`         // минут на комнату
	MaxMinutesPerMonth int           `gorm:"default:0" json:"maxMinutesPerMonth"` // 0 = без лимита
	Price              float64       `gorm:"not null" json:"price"`
	Currency           string        `gorm:"default:'USD'" json:"currency"`
	BillingPeriod      BillingPeriod `gorm:"default:'monthly'" json:"billingPeriod"`
	IsActive           bool          `gorm:"default:true" json:"isActive"`
}

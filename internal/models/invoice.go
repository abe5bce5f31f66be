package models

import "time"

type Invoice struct {
	BaseModel
	InvoiceNumber  string        `gorm:"uniqueIndex;not null" json:"invoiceNumber"`
	CustomerID     string        `gorm:"type:uuid;not null;index" json:"customerId"`
	SubscriptionID *string       `gorm:"type:uuid;index" json:"subscriptionId,omitempty"`
	Amount         float64       `gorm:"not null" json:"amount"`
	Currency       string        `gorm:"default:'USD'" json:"currency"`
	Status         InvoiceStatus `gorm:"default:'pending'" json:"status"`
	Description    string        `json:"description,omitempty"`
	DueDate        time.Time     `json:"dueDate"`
	PaidDate       *time.Time    `json:"paidDate,omitempty"`

	Customer     *Customer     `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"-"`
	Subscription *Subscription `gorm:"foreignKey:SubscriptionID;constraint:OnDelete:SET NULL" json:"-"`
}

package dto

import (
	"time"

	"meetspace_backend/internal/models"
)

type CreatePlanRequest struct {
	Name               string  `json:"name" validate:"required,max=100"`
	Description        string  `json:"description" validate:"omitempty,max=1000"`
	MaxRoomsPerMonth   int     `json:"maxRoomsPerMonth" validate:"min=0"`
	MaxParticipants    int     `json:"maxParticipants" validate:"required,min=1"`
	MaxDuration        int     `json:"maxDuration" validate:"required,min=1"`
	MaxMinutesPerMonth int     `json:"maxMinutesPerMonth" validate:"min=0"`
	Price              float64 `json:"price" validate:"min=0"`
	Currency           string  `json:"currency" validate:"omitempty,len=3"`
	BillingPeriod      string  `json:"billingPeriod" validate:"omitempty,is-billing-period"`
	IsActive           *bool   `json:"isActive"`
}

type UpdatePlanRequest struct {
	Name               *string  `json:"name" validate:"omitempty,min=1,max=100"`
	Description        *string  `json:"description" validate:"omitempty,max=1000"`
	MaxRoomsPerMonth   *int     `json:"maxRoomsPerMonth" validate:"omitempty,min=0"`
	MaxParticipants    *int     `json:"maxParticipants" validate:"omitempty,min=1"`
	MaxDuration        *int     `json:"maxDuration" validate:"omitempty,min=1"`
	MaxMinutesPerMonth *int     `json:"maxMinutesPerMonth" validate:"omitempty,min=0"`
	Price              *float64 `json:"price" validate:"omitempty,min=0"`
	Currency           *string  `json:"currency" validate:"omitempty,len=3"`
	BillingPeriod      *string  `json:"billingPeriod" validate:"omitempty,is-billing-period"`
	IsActive           *bool    `json:"isActive"`
}

// CreateSubscriptionRequest - выдача подписки администратором.
// Если EndDate не задан, он вычисляется по периоду тарифа.
type CreateSubscriptionRequest struct {
	CustomerID string     `json:"customerId" validate:"required,uuid"`
	PlanID     string     `json:"planId" validate:"required,uuid"`
	StartDate  *time.Time `json:"startDate"`
	EndDate    *time.Time `json:"endDate"`
	Status     string     `json:"status" validate:"omitempty,is-subscription-status"`
	AutoRenew  *bool      `json:"autoRenew"`
}

type UpdateSubscriptionStatusRequest struct {
	Status string `json:"status" validate:"required,is-subscription-status"`
}

type UpdateUsageRequest struct {
	Duration          int `json:"duration" validate:"min=0"`
	ParticipantsCount int `json:"participantsCount" validate:"min=0"`
	RoomsCount        int `json:"roomsCount" validate:"min=0"`
}

type AutoRenewRequest struct {
	AutoRenew *bool `json:"autoRenew" validate:"required"`
}

type SubscriptionFilter struct {
	CustomerID string `form:"customer_id" json:"customer_id" validate:"omitempty,uuid"`
	Status     string `form:"status" json:"status" validate:"omitempty,is-subscription-status"`
	Page       int    `form:"page" json:"page" validate:"omitempty,min=1"`
	PageSize   int    `form:"page_size" json:"page_size" validate:"omitempty,min=1,max=100"`
}

// UsageDelta - прирост использования за одну операцию
type UsageDelta struct {
	Duration          int
	ParticipantsCount int
	RoomsCount        int
}

// UsageSummary - использование текущего месяца относительно лимитов тарифа.
// RemainingMinutes = -1 означает отсутствие месячного лимита минут.
type UsageSummary struct {
	Month              string `json:"month"`
	RoomsCreated       int    `json:"roomsCreated"`
	TotalDuration      int    `json:"totalDuration"`
	ParticipantsCount  int    `json:"participantsCount"`
	MaxRoomsPerMonth   int    `json:"maxRoomsPerMonth"`
	MaxDurationPerRoom int    `json:"maxDurationPerRoom"`
	MaxMinutesPerMonth int    `json:"maxMinutesPerMonth"`
	MaxParticipants    int    `json:"maxParticipants"`
	RemainingRooms     int    `json:"remainingRooms"`
	RemainingMinutes   int    `json:"remainingMinutes"`
}

// QuotaCheck - результат проверки права на создание комнаты
type QuotaCheck struct {
	HasActiveSubscription bool                 `json:"hasActiveSubscription"`
	Subscription          *models.Subscription `json:"subscription,omitempty"`
	Plan                  *models.Plan         `json:"plan,omitempty"`
	Usage                 *UsageSummary        `json:"usage,omitempty"`
	CanCreateRoom         bool                 `json:"canCreateRoom"`
	Limitations           []string             `json:"limitations"`
}

package dto

import "time"

type CreateInvoiceRequest struct {
	CustomerID     string     `json:"customerId" validate:"required,uuid"`
	SubscriptionID *string    `json:"subscriptionId" validate:"omitempty,uuid"`
	Amount         float64    `json:"amount" validate:"gt=0"`
	Currency       string     `json:"currency" validate:"omitempty,len=3"`
	Description    string     `json:"description" validate:"omitempty,max=500"`
	DueDate        *time.Time `json:"dueDate"`
	Status         string     `json:"status" validate:"omitempty,is-invoice-status"`
}

type UpdateInvoiceStatusRequest struct {
	Status string `json:"status" validate:"required,is-invoice-status"`
}

type InvoiceFilter struct {
	CustomerID string `form:"customer_id" json:"customer_id" validate:"omitempty,uuid"`
	Status     string `form:"status" json:"status" validate:"omitempty,is-invoice-status"`
	Page       int    `form:"page" json:"page" validate:"omitempty,min=1"`
	PageSize   int    `form:"page_size" json:"page_size" validate:"omitempty,min=1,max=100"`
}

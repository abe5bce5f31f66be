package dto

type CreateCustomerRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Name         string `json:"name" validate:"required,max=100"`
	Organization string `json:"organization" validate:"omitempty,max=200"`
}

type UpdateCustomerRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=100"`
	Organization *string `json:"organization" validate:"omitempty,max=200"`
}

type CustomerFilter struct {
	Search   string `form:"search" json:"search"`
	Page     int    `form:"page" json:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"page_size" json:"page_size" validate:"omitempty,min=1,max=100"`
}

type ClientKeyResponse struct {
	ClientKey string `json:"clientKey"`
}

type SecretKeyResponse struct {
	SecretKey string `json:"secretKey"`
}

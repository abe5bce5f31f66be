package dto

import (
	"meetspace_backend/internal/models"
)

// LoginRequest - вход клиента через учетную запись Flat
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest - регистрация во Flat по коду из письма
type RegisterRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8"`
	Code         string `json:"code" validate:"required"`
	Name         string `json:"name" validate:"required,max=100"`
	Organization string `json:"organization" validate:"omitempty,max=200"`
}

type SendCodeRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Language string `json:"language" validate:"omitempty,oneof=en zh ru"`
}

type AdminLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse - ответ с токеном сессии
type AuthResponse struct {
	AccessToken string           `json:"access_token"`
	ExpiresAt   int64            `json:"expires_at"`
	Customer    *models.Customer `json:"customer,omitempty"`
	User        *models.User     `json:"user,omitempty"`
}

// MeResponse - текущий субъект сессии
type MeResponse struct {
	ID       string           `json:"id"`
	Role     models.UserRole  `json:"role"`
	Customer *models.Customer `json:"customer,omitempty"`
	User     *models.User     `json:"user,omitempty"`
}

package validator

import (
	"log"

	"meetspace_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

// Типы комнат, которые принимает Flat.
const (
	RoomTypeOneToOne   = "OneToOne"
	RoomTypeSmallClass = "SmallClass"
	RoomTypeBigClass   = "BigClass"
)

// registerCustomRules регистрирует все кастомные функции валидации в
// переданном экземпляре валидатора.
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	mustRegister("is-user-role", validateUserRole)
	mustRegister("is-subscription-status", validateSubscriptionStatus)
	mustRegister("is-invoice-status", validateInvoiceStatus)
	mustRegister("is-billing-period", validateBillingPeriod)
	mustRegister("is-room-type", validateRoomType)
}

// --- Функции валидации ---
// Пустые значения пропускаются, для них есть 'required'.

func validateUserRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.UserRole(value) {
	case models.UserRoleAdmin, models.UserRoleEditor:
		return true
	default:
		return false
	}
}

func validateSubscriptionStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || models.SubscriptionStatus(value).IsValid()
}

func validateInvoiceStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || models.InvoiceStatus(value).IsValid()
}

func validateBillingPeriod(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || models.BillingPeriod(value).IsValid()
}

func validateRoomType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "", RoomTypeOneToOne, RoomTypeSmallClass, RoomTypeBigClass:
		return true
	default:
		return false
	}
}

package auth

import "errors"

// RBAC роли и разрешения
const (
	RoleAdmin    = "admin"
	RoleEditor   = "editor"
	RoleCustomer = "customer"
)

const (
	PermCustomersRead      = "customers:read"
	PermCustomersWrite     = "customers:write"
	PermPlansWrite         = "plans:write"
	PermSubscriptionsRead  = "subscriptions:read"
	PermSubscriptionsWrite = "subscriptions:write"
	PermInvoicesRead       = "invoices:read"
	PermInvoicesWrite      = "invoices:write"
)

// Permissions список разрешений
var Permissions = map[string][]string{
	RoleAdmin: {
		PermCustomersRead,
		PermCustomersWrite,
		PermPlansWrite,
		PermSubscriptionsRead,
		PermSubscriptionsWrite,
		PermInvoicesRead,
		PermInvoicesWrite,
	},
	RoleEditor: {
		PermCustomersRead,
		PermPlansWrite,
		PermSubscriptionsRead,
		PermInvoicesRead,
	},
	RoleCustomer: {},
}

// HasPermission проверяет есть ли у роли указанное разрешение
func HasPermission(role, permission string) bool {
	permissions, exists := Permissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// IsStaff - администратор или редактор
func IsStaff(role string) bool {
	return role == RoleAdmin || role == RoleEditor
}

// ValidateRole проверяет валидность роли
func ValidateRole(role string) error {
	switch role {
	case RoleAdmin, RoleEditor, RoleCustomer:
		return nil
	default:
		return errors.New("invalid role")
	}
}

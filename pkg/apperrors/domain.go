package apperrors

import (
	"net/http"
)

/*
Фабрики и предопределенные переменные для ошибок бизнес-логики.
*/

// ErrNotFound - фабрика для ошибки "не найдено" (404)
func ErrNotFound(err error, domain string) *AppError {
	return Wrap(err, CodeNotFound, domain, "Resource not found", http.StatusNotFound)
}

// ErrAlreadyExists - фабрика для ошибки "уже существует" (409)
func ErrAlreadyExists(err error, domain, message string) *AppError {
	return Wrap(err, CodeAlreadyExists, domain, message, http.StatusConflict)
}

// ErrInvalidOperation - фабрика для невалидных операций (400)
func ErrInvalidOperation(domain, message string) *AppError {
	return New(CodeInvalidOperation, domain, message, http.StatusBadRequest)
}

// ErrInvalidRoomWindow - некорректное время встречи (400)
func ErrInvalidRoomWindow(message string) *AppError {
	return New(CodeInvalidRoomWindow, "meeting", message, http.StatusBadRequest)
}

// --- Auth ---

var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid email or password",
	http.StatusUnauthorized,
)

var ErrInvalidToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid or expired token",
	http.StatusUnauthorized,
)

var ErrTokenExpired = New(
	CodeTokenExpired,
	"auth",
	"Token has expired",
	http.StatusUnauthorized,
)

var ErrMissingToken = New(
	CodeUnauthorized,
	"auth",
	"Authorization header missing or invalid",
	http.StatusUnauthorized,
)

var ErrInsufficientPermissions = New(
	CodeForbidden,
	"auth",
	"Insufficient permissions",
	http.StatusForbidden,
)

var ErrEmailAlreadyRegistered = New(
	CodeAlreadyExists,
	"auth",
	"Email is already registered",
	http.StatusConflict,
)

var ErrTooManyRequests = New(
	CodeRateLimited,
	"auth",
	"Rate limit exceeded, try again later",
	http.StatusTooManyRequests,
)

// --- Customers ---

var ErrCustomerNotFound = New(
	CodeNotFound,
	"customer",
	"Customer not found",
	http.StatusNotFound,
)

// --- Subscriptions & Plans ---

var ErrNoActiveSubscription = New(
	CodeNoActiveSubscription,
	"subscription",
	"No active subscription found",
	http.StatusForbidden,
)

var ErrRoomLimitReached = New(
	CodeLimitExceeded,
	"subscription",
	"Subscription limit for room creation has been reached",
	http.StatusForbidden,
)

var ErrSubscriptionNotFound = New(
	CodeNotFound,
	"subscription",
	"Subscription not found",
	http.StatusNotFound,
)

var ErrPlanNotFound = New(
	CodeNotFound,
	"plan",
	"Plan not found",
	http.StatusNotFound,
)

var ErrSubscriptionCancelled = New(
	CodeInvalidOperation,
	"subscription",
	"Subscription is already cancelled",
	http.StatusBadRequest,
)

var ErrInvalidSubscriptionStatus = New(
	CodeInvalidStatus,
	"subscription",
	"Invalid subscription status",
	http.StatusBadRequest,
)

// --- Meetings ---

// ErrMeetingNotFound also covers meetings owned by another customer.
var ErrMeetingNotFound = New(
	CodeNotFound,
	"meeting",
	"Meeting not found",
	http.StatusNotFound,
)

// --- Invoices ---

var ErrInvoiceNotFound = New(
	CodeNotFound,
	"invoice",
	"Invoice not found",
	http.StatusNotFound,
)

var ErrInvalidInvoiceStatus = New(
	CodeInvalidStatus,
	"invoice",
	"Invalid invoice status",
	http.StatusBadRequest,
)

// --- Uploads ---

var ErrFileTooLarge = New(
	CodeLimitExceeded,
	"validation",
	"File size exceeds the allowed limit",
	http.StatusRequestEntityTooLarge,
)

var ErrInvalidFileType = New(
	CodeValidationFailed,
	"validation",
	"The provided file type is not allowed",
	http.StatusUnsupportedMediaType,
)

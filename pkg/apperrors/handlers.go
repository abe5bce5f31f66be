package apperrors

import (
	"log/slog"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

// ErrorResponse - стандартный ответ об ошибке
type ErrorResponse struct {
	Error *AppError `json:"error"`
}

var debug atomic.Bool

// SetDebug включает вывод текста внутренних ошибок в ответе (только development).
func SetDebug(enabled bool) {
	debug.Store(enabled)
}

// Resolve converts any error into the AppError that will be sent to the client.
func Resolve(err error) *AppError {
	appErr, ok := AsAppError(err)
	if ok {
		return appErr
	}
	appErr = InternalError(err)
	if debug.Load() && err != nil {
		appErr = appErr.WithDetails(err.Error())
	}
	return appErr
}

// HandleError - основная функция для отправки ошибки в Gin
func HandleError(c *gin.Context, err error) {
	appErr := Resolve(err)
	if appErr.HTTPCode >= 500 {
		slog.ErrorContext(c.Request.Context(), "server error", "error", appErr.Error())
	}
	c.AbortWithStatusJSON(appErr.HTTPCode, ErrorResponse{Error: appErr})
}

// AsAppError - пытается преобразовать error в *AppError
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

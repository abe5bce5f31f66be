package handlers

import (
	"log/slog"
	"net/http"

	"meetspace_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// Ответы /dashboard-api и /lms-api повторяют конверт Flat:
// {"status":0,"data":...} или {"status":1,"error":{...}}.

const (
	envelopeOK     = 0
	envelopeFailed = 1
)

type Envelope struct {
	Status int                 `json:"status"`
	Data   interface{}         `json:"data,omitempty"`
	Error  *apperrors.AppError `json:"error,omitempty"`
}

func RespondEnvelope(c *gin.Context, httpStatus int, data interface{}) {
	c.JSON(httpStatus, Envelope{Status: envelopeOK, Data: data})
}

// WriteEnvelopeError реализует middleware.ErrorWriter.
func WriteEnvelopeError(c *gin.Context, err error) {
	appErr := apperrors.Resolve(err)
	if appErr.HTTPCode >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "server error", "error", appErr.Error())
	}
	c.AbortWithStatusJSON(appErr.HTTPCode, Envelope{Status: envelopeFailed, Error: appErr})
}

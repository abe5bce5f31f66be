package flat

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes returned by the Flat server in the response envelope.
const (
	CodeParamsCheckFailed     = 100000
	CodeServerFail            = 100001
	CodeCurrentProcessFail    = 100002
	CodeNotPermission         = 100003
	CodeNeedLoginAgain        = 100004
	CodeJWTSignFailed         = 100006
	CodeExhaustiveAttack      = 100007
	CodeRoomNotFound          = 200000
	CodeRoomIsEnded           = 200001
	CodeRoomIsRunning         = 200002
	CodeRoomNotIsRunning      = 200003
	CodeRoomNotIsEnded        = 200004
	CodeRoomNotIsIdle         = 200005
	CodeUserNotFound          = 300000
	CodeUserPasswordIncorrect = 300001
	CodeUserAlreadyExists     = 300002
	CodeCodeInvalid           = 300003
	CodeCodeSendTooFast       = 300004
)

// APIError is a failure reported by the Flat API, either through the
// envelope (Status != 0) or through a non-2xx HTTP status.
type APIError struct {
	Status     int
	Code       int
	Message    string
	HTTPStatus int
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("flat api error (http %d, code %d): %s", e.HTTPStatus, e.Code, e.Message)
	}
	return fmt.Sprintf("flat api error (http %d, code %d)", e.HTTPStatus, e.Code)
}

// IsClientError reports whether the failure was caused by the request
// (bad params, business rule) rather than by Flat itself.
func (e *APIError) IsClientError() bool {
	if e.HTTPStatus >= 500 {
		return false
	}
	switch e.Code {
	case CodeServerFail, CodeCurrentProcessFail, CodeJWTSignFailed:
		return false
	}
	return true
}

func asAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given Flat error code.
func HasCode(err error, code int) bool {
	apiErr, ok := asAPIError(err)
	return ok && apiErr.Code == code
}

func IsAlreadyRegistered(err error) bool {
	apiErr, ok := asAPIError(err)
	if !ok {
		return false
	}
	return apiErr.Code == CodeUserAlreadyExists || apiErr.HTTPStatus == http.StatusConflict
}

func IsUnauthorized(err error) bool {
	apiErr, ok := asAPIError(err)
	if !ok {
		return false
	}
	switch apiErr.Code {
	case CodeNeedLoginAgain, CodeUserPasswordIncorrect, CodeUserNotFound:
		return true
	}
	return apiErr.HTTPStatus == http.StatusUnauthorized
}

func IsRoomNotFound(err error) bool {
	return HasCode(err, CodeRoomNotFound)
}

package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"meetspace_backend/internal/flat"
	"meetspace_backend/pkg/apperrors"
)

// Узкие интерфейсы поверх клиента Flat. *flat.RoomService, *flat.UserService,
// *flat.AuthService и *flat.TokenSource их реализуют; в тестах подменяются фейками.

type FlatAuth interface {
	Login(ctx context.Context, email, password string) (*flat.LoginResult, error)
	Register(ctx context.Context, params flat.RegisterParams) (*flat.LoginResult, error)
	SendVerificationCode(ctx context.Context, email, language string) error
}

type FlatRooms interface {
	CreateOrdinary(ctx context.Context, token string, params flat.CreateRoomParams) (*flat.CreateRoomResult, error)
	UpdateOrdinary(ctx context.Context, token string, params flat.UpdateRoomParams) error
	Info(ctx context.Context, token, roomUUID string) (*flat.RoomInfo, error)
	Stop(ctx context.Context, token, roomUUID string) error
	Cancel(ctx context.Context, token, roomUUID string) error
	ListAll(ctx context.Context, token, listType string) ([]flat.RoomItem, error)
	AllParticipants(ctx context.Context, token, roomUUID string, pageSize int) ([]flat.Participant, error)
}

type FlatUsers interface {
	AllInOutRecords(ctx context.Context, token, roomUUID string, pageSize int) ([]flat.UserInOutRecord, error)
	AllOrganizationUsers(ctx context.Context, token string, pageSize int) ([]flat.OrgUser, error)
}

// FlatTokenSource выдает токен сервисного аккаунта Flat.
type FlatTokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate(ctx context.Context)
}

// handleUpstreamError переводит ошибку Flat в AppError: отказ по бизнес-правилу
// (4xx или ненулевой код) -> 400, недоступность -> 502.
func handleUpstreamError(err error, message string) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var apiErr *flat.APIError
	if errors.As(err, &apiErr) && apiErr.IsClientError() {
		return apperrors.ErrUpstream(err, message, http.StatusBadRequest).WithDetails(map[string]interface{}{
			"flatCode": apiErr.Code,
		})
	}
	return apperrors.ErrUpstream(err, message, http.StatusBadGateway)
}

// handleServiceCallError используется там, где вызов Flat идет от имени
// сервисного аккаунта: любой отказ Flat или логина -> 502, код Flat в details.
func handleServiceCallError(err error, message string) error {
	var apiErr *flat.APIError
	if errors.As(err, &apiErr) {
		return apperrors.ErrUpstream(err, message, http.StatusBadGateway).WithDetails(map[string]interface{}{
			"flatCode": apiErr.Code,
		})
	}
	return apperrors.ErrUpstream(err, message, http.StatusBadGateway)
}

// withServiceToken выполняет вызов с токеном сервисного аккаунта. Если Flat
// ответил "нужен повторный вход", токен сбрасывается и вызов повторяется один раз.
func withServiceToken(ctx context.Context, ts FlatTokenSource, call func(token string) error) error {
	token, err := ts.Token(ctx)
	if err != nil {
		return err
	}
	err = call(token)
	if err == nil || !flat.HasCode(err, flat.CodeNeedLoginAgain) {
		return err
	}

	ts.Invalidate(ctx)
	token, err = ts.Token(ctx)
	if err != nil {
		return err
	}
	return call(token)
}

func normalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

func runAsync(fn func()) {
	go fn()
}

func utcNow() time.Time {
	return time.Now().UTC()
}

package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"meetspace_backend/internal/auth"
	"meetspace_backend/internal/email"
	"meetspace_backend/internal/flat"
	"meetspace_backend/internal/logger"
	"meetspace_backend/internal/metrics"
	"meetspace_backend/internal/models"
	"meetspace_backend/internal/repositories"
	"meetspace_backend/internal/services/dto"
	"meetspace_backend/pkg/apperrors"

	"gorm.io/gorm"
)

const (
	maxRoomSpan     = 24 * time.Hour
	beginTimeGrace  = time.Minute
	quotaReasonNone = "no_subscription"
	quotaReasonCap  = "limit"
)

type MeetingService interface {
	CreateRoom(ctx context.Context, db *gorm.DB, customerID string, req *dto.CreateRoomRequest) (*dto.CreateRoomResponse, error)
	UpdateRoom(ctx context.Context, db *gorm.DB, customerID, meetingID string, req *dto.UpdateRoomRequest) (*models.Meeting, error)
	DeleteRoom(ctx context.Context, db *gorm.DB, customerID, meetingID string) error
	GetRoom(ctx context.Context, db *gorm.DB, customerID, meetingID string) (*dto.MeetingDetails, error)
	ListMeetings(db *gorm.DB, customerID string, page, pageSize int) (*dto.PaginatedResponse, error)
	// CloseFinished помечает прошедшие встречи как stopped.
	CloseFinished(db *gorm.DB) (int64, error)
}

// MeetingConfig - параметры, которые сервис берет из конфигурации.
type MeetingConfig struct {
	PublicSiteURL string
	ClientKeySalt string
}

type meetingService struct {
	meetingRepo   repositories.MeetingRepository
	customerRepo  repositories.CustomerRepository
	subscriptions SubscriptionService
	rooms         FlatRooms
	tokens        FlatTokenSource
	emailProvider email.Provider
	cfg           MeetingConfig

	now   func() time.Time
	async func(fn func())
}

func NewMeetingService(
	meetingRepo repositories.MeetingRepository,
	customerRepo repositories.CustomerRepository,
	subscriptions SubscriptionService,
	rooms FlatRooms,
	tokens FlatTokenSource,
	emailProvider email.Provider,
	cfg MeetingConfig,
) MeetingService {
	return &meetingService{
		meetingRepo:   meetingRepo,
		customerRepo:  customerRepo,
		subscriptions: subscriptions,
		rooms:         rooms,
		tokens:        tokens,
		emailProvider: emailProvider,
		cfg:           cfg,
		now:           utcNow,
		async:         runAsync,
	}
}

// CreateRoom: проверка квоты -> проверка окна -> комната во Flat -> запись
// встречи -> учет использования. После успешного вызова Flat ошибки записи
// только логируются: комната уже существует и возвращается клиенту.
func (s *meetingService) CreateRoom(ctx context.Context, db *gorm.DB, customerID string, req *dto.CreateRoomRequest) (*dto.CreateRoomResponse, error) {
	customer, err := s.customerRepo.FindByID(db, customerID)
	if err != nil {
		return nil, handleMeetingError(err)
	}

	quota, err := s.subscriptions.CheckRoomPermission(db, customerID)
	if err != nil {
		return nil, err
	}
	if err := quotaError(quota); err != nil {
		return nil, err
	}

	emails := normalizeEmails(req.ParticipantEmails)
	if err := ValidateRoomWindow(req.BeginTime, req.EndTime, len(emails), quota.Plan, quota.Usage, s.now(), 0); err != nil {
		return nil, err
	}

	roomType := flat.RoomType(req.RoomType)
	if roomType == "" {
		roomType = flat.RoomTypeSmallClass
	}

	var created *flat.CreateRoomResult
	err = withServiceToken(ctx, s.tokens, func(token string) error {
		var callErr error
		created, callErr = s.rooms.CreateOrdinary(ctx, token, flat.CreateRoomParams{
			Title:     req.Title,
			Type:      roomType,
			BeginTime: flat.Millis(req.BeginTime),
			EndTime:   flat.Millis(req.EndTime),
			ClientKey: s.clientKey(customer),
			Emails:    emails,
		})
		return callErr
	})
	if err != nil {
		logger.CtxWithError(ctx, "flat room creation failed", err, "customer_id", customerID)
		return nil, handleServiceCallError(err, "Failed to create room")
	}
	metrics.RoomsCreated.Inc()

	duration := durationMinutes(req.BeginTime, req.EndTime)
	joinLink := s.joinLink(created.RoomUUID)
	subscriptionID := quota.Subscription.ID

	meeting := &models.Meeting{
		CustomerID:        customerID,
		SubscriptionID:    &subscriptionID,
		Name:              req.Title,
		FlatRoomID:        created.RoomUUID,
		FlatRoomLink:      joinLink,
		InviteCode:        created.InviteCode,
		StartTime:         req.BeginTime.UTC(),
		EndTime:           req.EndTime.UTC(),
		Duration:          duration,
		Status:            models.MeetingStatusScheduled,
		ParticipantEmails: emails,
	}
	if err := s.meetingRepo.Create(db, meeting); err != nil {
		logger.CtxWithError(ctx, "room created but meeting was not saved", err,
			"room_uuid", created.RoomUUID, "customer_id", customerID)
		meeting.ID = ""
	}

	delta := dto.UsageDelta{Duration: duration, ParticipantsCount: len(emails), RoomsCount: 1}
	if _, err := s.subscriptions.UpdateUsage(db, subscriptionID, delta); err != nil {
		logger.CtxWithError(ctx, "room created but usage was not updated", err,
			"room_uuid", created.RoomUUID, "subscription_id", subscriptionID)
	}

	s.sendInvitations(ctx, customer, meeting, joinLink)

	return &dto.CreateRoomResponse{
		MeetingID:  meeting.ID,
		RoomUUID:   created.RoomUUID,
		InviteCode: created.InviteCode,
		JoinLink:   joinLink,
	}, nil
}

// UpdateRoom переносит встречу. Старая длительность возвращается в остаток
// минут месяца перед проверкой нового окна.
func (s *meetingService) UpdateRoom(ctx context.Context, db *gorm.DB, customerID, meetingID string, req *dto.UpdateRoomRequest) (*models.Meeting, error) {
	meeting, err := s.meetingRepo.FindByIDAndCustomer(db, meetingID, customerID)
	if err != nil {
		return nil, handleMeetingError(err)
	}
	customer, err := s.customerRepo.FindByID(db, customerID)
	if err != nil {
		return nil, handleMeetingError(err)
	}

	quota, err := s.subscriptions.CheckRoomPermission(db, customerID)
	if err != nil {
		return nil, err
	}
	if !quota.HasActiveSubscription {
		metrics.QuotaDenials.WithLabelValues(quotaReasonNone).Inc()
		return nil, apperrors.ErrNoActiveSubscription.WithDetails(quota.Limitations)
	}

	emails := meeting.ParticipantEmails
	if req.ParticipantEmails != nil {
		emails = normalizeEmails(req.ParticipantEmails)
	}
	credit := 0
	if meeting.StartTime.Format(models.MonthFormat) == quota.Usage.Month {
		credit = meeting.Duration
	}
	if err := ValidateRoomWindow(req.BeginTime, req.EndTime, len(emails), quota.Plan, quota.Usage, s.now(), credit); err != nil {
		return nil, err
	}

	title := meeting.Name
	if strings.TrimSpace(req.Title) != "" {
		title = req.Title
	}

	err = withServiceToken(ctx, s.tokens, func(token string) error {
		return s.rooms.UpdateOrdinary(ctx, token, flat.UpdateRoomParams{
			RoomUUID:  meeting.FlatRoomID,
			Title:     title,
			BeginTime: flat.Millis(req.BeginTime),
			EndTime:   flat.Millis(req.EndTime),
			ClientKey: s.clientKey(customer),
			Emails:    emails,
		})
	})
	if err != nil {
		if flat.IsRoomNotFound(err) {
			return nil, apperrors.ErrMeetingNotFound.WithError(err)
		}
		return nil, handleServiceCallError(err, "Failed to update room")
	}

	meeting.Name = title
	meeting.StartTime = req.BeginTime.UTC()
	meeting.EndTime = req.EndTime.UTC()
	meeting.Duration = durationMinutes(req.BeginTime, req.EndTime)
	meeting.ParticipantEmails = emails
	if err := s.meetingRepo.Update(db, meeting); err != nil {
		return nil, handleMeetingError(err)
	}
	return meeting, nil
}

// DeleteRoom отменяет комнату во Flat (best effort) и удаляет запись.
func (s *meetingService) DeleteRoom(ctx context.Context, db *gorm.DB, customerID, meetingID string) error {
	meeting, err := s.meetingRepo.FindByIDAndCustomer(db, meetingID, customerID)
	if err != nil {
		return handleMeetingError(err)
	}

	err = withServiceToken(ctx, s.tokens, func(token string) error {
		return s.rooms.Cancel(ctx, token, meeting.FlatRoomID)
	})
	if err != nil && !flat.IsRoomNotFound(err) {
		logger.CtxWithError(ctx, "flat room cancel failed", err, "room_uuid", meeting.FlatRoomID)
	}

	if err := s.meetingRepo.Delete(db, meeting.ID, customerID); err != nil {
		return handleMeetingError(err)
	}
	return nil
}

// GetRoom - локальная запись и живое состояние комнаты. Недоступность Flat
// не мешает вернуть локальные данные.
func (s *meetingService) GetRoom(ctx context.Context, db *gorm.DB, customerID, meetingID string) (*dto.MeetingDetails, error) {
	meeting, err := s.meetingRepo.FindByIDAndCustomer(db, meetingID, customerID)
	if err != nil {
		return nil, handleMeetingError(err)
	}

	details := &dto.MeetingDetails{Meeting: meeting}
	err = withServiceToken(ctx, s.tokens, func(token string) error {
		info, callErr := s.rooms.Info(ctx, token, meeting.FlatRoomID)
		if callErr != nil {
			return callErr
		}
		details.Room = info
		return nil
	})
	if err != nil {
		logger.CtxWithError(ctx, "flat room info failed", err, "room_uuid", meeting.FlatRoomID)
	}
	return details, nil
}

func (s *meetingService) ListMeetings(db *gorm.DB, customerID string, page, pageSize int) (*dto.PaginatedResponse, error) {
	page, pageSize = normalizePage(page, pageSize)
	meetings, total, err := s.meetingRepo.ListByCustomer(db, customerID, page, pageSize)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return dto.NewPaginatedResponse(meetings, total, page, pageSize), nil
}

func (s *meetingService) CloseFinished(db *gorm.DB) (int64, error) {
	n, err := s.meetingRepo.MarkFinished(db, s.now())
	if err != nil {
		return 0, apperrors.InternalError(err)
	}
	return n, nil
}

func (s *meetingService) clientKey(customer *models.Customer) string {
	return auth.DeriveClientKey(s.cfg.ClientKeySalt, customer.SecretKey, customer.Email)
}

func (s *meetingService) joinLink(roomUUID string) string {
	return strings.TrimRight(s.cfg.PublicSiteURL, "/") + "/join/" + roomUUID
}

func (s *meetingService) sendInvitations(ctx context.Context, customer *models.Customer, meeting *models.Meeting, joinLink string) {
	if s.emailProvider == nil || len(meeting.ParticipantEmails) == 0 {
		return
	}

	organizer := customer.Name
	if organizer == "" {
		organizer = customer.Email
	}
	to := append([]string(nil), meeting.ParticipantEmails...)
	data := email.TemplateData{
		"Organizer":  organizer,
		"Title":      meeting.Name,
		"BeginTime":  meeting.StartTime.Format(time.RFC1123),
		"EndTime":    meeting.EndTime.Format(time.RFC1123),
		"JoinLink":   joinLink,
		"InviteCode": meeting.InviteCode,
	}
	// запрос уже завершится к моменту отправки
	sendCtx := context.WithoutCancel(ctx)

	s.async(func() {
		subject := fmt.Sprintf("Invitation: %s", meeting.Name)
		if err := s.emailProvider.SendTemplate(sendCtx, to, subject, email.TemplateRoomInvitation, data); err != nil {
			logger.CtxWithError(sendCtx, "failed to send room invitations", err, "room_uuid", meeting.FlatRoomID)
		}
	})
}

// quotaError переводит отрицательный результат проверки квоты в 403.
func quotaError(quota *dto.QuotaCheck) error {
	if !quota.HasActiveSubscription {
		metrics.QuotaDenials.WithLabelValues(quotaReasonNone).Inc()
		return apperrors.ErrNoActiveSubscription.WithDetails(quota.Limitations)
	}
	if !quota.CanCreateRoom {
		metrics.QuotaDenials.WithLabelValues(quotaReasonCap).Inc()
		return apperrors.ErrRoomLimitReached.WithDetails(quota.Limitations)
	}
	return nil
}

// ValidateRoomWindow проверяет время и состав встречи по лимитам тарифа.
// creditMinutes возвращается в остаток месяца (длительность переносимой встречи).
func ValidateRoomWindow(begin, end time.Time, participants int, plan *models.Plan, usage *dto.UsageSummary, now time.Time, creditMinutes int) error {
	if !end.After(begin) {
		return apperrors.ErrInvalidRoomWindow("End time must be after begin time")
	}

	duration := durationMinutes(begin, end)
	if plan != nil && duration > plan.MaxDuration {
		return apperrors.ErrInvalidRoomWindow(fmt.Sprintf(
			"Meeting duration (%d minutes) exceeds the maximum allowed by your plan (%d minutes)",
			duration, plan.MaxDuration))
	}

	if usage != nil && usage.RemainingMinutes >= 0 {
		remaining := usage.RemainingMinutes + creditMinutes
		if usage.MaxMinutesPerMonth > 0 && remaining > usage.MaxMinutesPerMonth {
			remaining = usage.MaxMinutesPerMonth
		}
		if duration > remaining {
			return apperrors.ErrInvalidRoomWindow(fmt.Sprintf(
				"Meeting duration (%d minutes) exceeds the remaining monthly minutes (%d minutes)",
				duration, remaining))
		}
	}

	if end.Sub(begin) > maxRoomSpan {
		return apperrors.ErrInvalidRoomWindow("Meeting cannot span more than 24 hours")
	}

	if begin.Before(now.Add(-beginTimeGrace)) {
		return apperrors.ErrInvalidRoomWindow("Begin time cannot be in the past")
	}

	if plan != nil && participants > plan.MaxParticipants {
		return apperrors.ErrInvalidRoomWindow(fmt.Sprintf(
			"Number of participants (%d) exceeds the maximum allowed by your plan (%d)",
			participants, plan.MaxParticipants))
	}
	return nil
}

// durationMinutes округляет длительность вверх до целой минуты.
func durationMinutes(begin, end time.Time) int {
	return int(math.Ceil(end.Sub(begin).Minutes()))
}

// normalizeEmails приводит адреса к нижнему регистру и убирает дубликаты.
func normalizeEmails(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, e := range in {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}

func handleMeetingError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrMeetingNotFound):
		return apperrors.ErrMeetingNotFound.WithError(err)
	case errors.Is(err, repositories.ErrCustomerNotFound):
		return apperrors.ErrCustomerNotFound.WithError(err)
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperrors.InternalError(err)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"meetspace_backend/internal/email"
	"meetspace_backend/internal/logger"
	"meetspace_backend/internal/models"
	"meetspace_backend/internal/repositories"
	"meetspace_backend/internal/services/dto"
	"meetspace_backend/pkg/apperrors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	LimitationNoSubscription = "No active subscription found"

	expiredBatchSize = 100
)

type SubscriptionService interface {
	// Plans
	ListPlans(db *gorm.DB, activeOnly bool) ([]models.Plan, error)
	GetPlan(db *gorm.DB, planID string) (*models.Plan, error)
	CreatePlan(db *gorm.DB, req *dto.CreatePlanRequest) (*models.Plan, error)
	UpdatePlan(db *gorm.DB, planID string, req *dto.UpdatePlanRequest) (*models.Plan, error)
	DeletePlan(db *gorm.DB, planID string) error

	// Quota & usage
	CheckRoomPermission(db *gorm.DB, customerID string) (*dto.QuotaCheck, error)
	UpdateUsage(db *gorm.DB, subscriptionID string, delta dto.UsageDelta) (*models.Subscription, error)
	GetUsageHistory(db *gorm.DB, customerID string) ([]models.MonthlyUsage, error)

	// Lifecycle
	CreateSubscription(db *gorm.DB, req *dto.CreateSubscriptionRequest) (*models.Subscription, error)
	UpdateStatus(db *gorm.DB, subscriptionID string, status models.SubscriptionStatus) (*models.Subscription, error)
	SetAutoRenew(db *gorm.DB, customerID string, autoRenew bool) (*models.Subscription, error)
	CancelMySubscription(db *gorm.DB, customerID string) (*models.Subscription, error)
	ListSubscriptions(db *gorm.DB, filter *dto.SubscriptionFilter) (*dto.PaginatedResponse, error)

	// ProcessExpired продлевает или закрывает активные подписки с истекшим периодом.
	ProcessExpired(ctx context.Context, db *gorm.DB) (renewed, expired int, err error)
}

type subscriptionService struct {
	subscriptionRepo repositories.SubscriptionRepository
	planRepo         repositories.PlanRepository
	customerRepo     repositories.CustomerRepository
	invoiceService   InvoiceService
	emailProvider    email.Provider
	now              func() time.Time
}

func NewSubscriptionService(
	subscriptionRepo repositories.SubscriptionRepository,
	planRepo repositories.PlanRepository,
	customerRepo repositories.CustomerRepository,
	invoiceService InvoiceService,
	emailProvider email.Provider,
) SubscriptionService {
	return &subscriptionService{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		customerRepo:     customerRepo,
		invoiceService:   invoiceService,
		emailProvider:    emailProvider,
		now:              utcNow,
	}
}

// --- Plans ---

func (s *subscriptionService) ListPlans(db *gorm.DB, activeOnly bool) ([]models.Plan, error) {
	plans, err := s.planRepo.List(db, activeOnly)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return plans, nil
}

func (s *subscriptionService) GetPlan(db *gorm.DB, planID string) (*models.Plan, error) {
	plan, err := s.planRepo.FindByID(db, planID)
	if err != nil {
		return nil, handleSubscriptionError(err)
	}
	return plan, nil
}

func (s *subscriptionService) CreatePlan(db *gorm.DB, req *dto.CreatePlanRequest) (*models.Plan, error) {
	plan := &models.Plan{
		Name:               strings.TrimSpace(req.Name),
		Description:        req.Description,
		MaxRoomsPerMonth:   req.MaxRoomsPerMonth,
		MaxParticipants:    req.MaxParticipants,
		MaxDuration:        req.MaxDuration,
		MaxMinutesPerMonth: req.MaxMinutesPerMonth,
		Price:              req.Price,
		Currency:           strings.ToUpper(req.Currency),
		BillingPeriod:      models.BillingPeriod(req.BillingPeriod),
		IsActive:           true,
	}
	if plan.Currency == "" {
		plan.Currency = "USD"
	}
	if plan.BillingPeriod == "" {
		plan.BillingPeriod = models.BillingPeriodMonthly
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}

	if err := s.planRepo.Create(db, plan); err != nil {
		return nil, handleSubscriptionError(err)
	}
	return plan, nil
}

func (s *subscriptionService) UpdatePlan(db *gorm.DB, planID string, req *dto.UpdatePlanRequest) (*models.Plan, error) {
	plan, err := s.planRepo.FindByID(db, planID)
	if err != nil {
		return nil, handleSubscriptionError(err)
	}

	if req.Name != nil {
		plan.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		plan.Description = *req.Description
	}
	if req.MaxRoomsPerMonth != nil {
		plan.MaxRoomsPerMonth = *req.MaxRoomsPerMonth
	}
	if req.MaxParticipants != nil {
		plan.MaxParticipants = *req.MaxParticipants
	}
	if req.MaxDuration != nil {
		plan.MaxDuration = *req.MaxDuration
	}
	if req.MaxMinutesPerMonth != nil {
		plan.MaxMinutesPerMonth = *req.MaxMinutesPerMonth
	}
	if req.Price != nil {
		plan.Price = *req.Price
	}
	if req.Currency != nil {
		plan.Currency = strings.ToUpper(*req.Currency)
	}
	if req.BillingPeriod != nil {
		plan.BillingPeriod = models.BillingPeriod(*req.BillingPeriod)
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}

	if err := s.planRepo.Update(db, plan); err != nil {
		return nil, handleSubscriptionError(err)
	}
	return plan, nil
}

func (s *subscriptionService) DeletePlan(db *gorm.DB, planID string) error {
	if err := s.planRepo.Delete(db, planID); err != nil {
		return handleSubscriptionError(err)
	}
	return nil
}

// --- Quota & usage ---

func (s *subscriptionService) CheckRoomPermission(db *gorm.DB, customerID string) (*dto.QuotaCheck, error) {
	now := s.now()

	sub, err := s.subscriptionRepo.FindActiveByCustomer(db, customerID, now)
	if err != nil {
		if errors.Is(err, repositories.ErrSubscriptionNotFound) {
			return BuildQuotaCheck(nil, now), nil
		}
		return nil, apperrors.InternalError(err)
	}

	if sub.Plan == nil {
		plan, err := s.planRepo.FindByID(db, sub.PlanID)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		sub.Plan = plan
	}

	return BuildQuotaCheck(sub, now), nil
}

func (s *subscriptionService) UpdateUsage(db *gorm.DB, subscriptionID string, delta dto.UsageDelta) (*models.Subscription, error) {
	if delta.Duration < 0 || delta.ParticipantsCount < 0 || delta.RoomsCount < 0 {
		return nil, apperrors.NewBadRequestError("Usage increments cannot be negative")
	}

	now := s.now()
	sub, err := s.subscriptionRepo.UpdateUsage(db, subscriptionID, func(sub *models.Subscription) error {
		ApplyUsage(sub, delta, now)
		return nil
	})
	if err != nil {
		return nil, handleSubscriptionError(err)
	}
	return sub, nil
}

// GetUsageHistory возвращает историю использования последней подписки клиента.
func (s *subscriptionService) GetUsageHistory(db *gorm.DB, customerID string) ([]models.MonthlyUsage, error) {
	sub, err := s.subscriptionRepo.FindLatestByCustomer(db, customerID)
	if err != nil {
		if errors.Is(err, repositories.ErrSubscriptionNotFound) {
			return []models.MonthlyUsage{}, nil
		}
		return nil, apperrors.InternalError(err)
	}
	return sub.History(), nil
}

// --- Lifecycle ---

func (s *subscriptionService) CreateSubscription(db *gorm.DB, req *dto.CreateSubscriptionRequest) (*models.Subscription, error) {
	if _, err := s.customerRepo.FindByID(db, req.CustomerID); err != nil {
		return nil, handleSubscriptionError(err)
	}
	plan, err := s.planRepo.FindByID(db, req.PlanID)
	if err != nil {
		return nil, handleSubscriptionError(err)
	}

	now := s.now()
	start := now
	if req.StartDate != nil {
		start = req.StartDate.UTC()
	}
	end := PeriodEnd(start, plan.BillingPeriod)
	if req.EndDate != nil {
		end = req.EndDate.UTC()
	}
	if !end.After(start) {
		return nil, apperrors.ErrInvalidOperation("subscription", "End date must be after start date")
	}

	status := models.SubscriptionStatusActive
	if req.Status != "" {
		status = models.SubscriptionStatus(req.Status)
	}
	if !status.IsValid() {
		return nil, apperrors.ErrInvalidSubscriptionStatus
	}

	autoRenew := true
	if req.AutoRenew != nil {
		autoRenew = *req.AutoRenew
	}

	sub := &models.Subscription{
		CustomerID:   req.CustomerID,
		PlanID:       plan.ID,
		StartDate:    start,
		EndDate:      end,
		Status:       status,
		AutoRenew:    autoRenew,
		MonthlyUsage: models.MonthlyUsage{Month: CurrentMonth(now)},
		UsageHistory: datatypes.NewJSONType([]models.MonthlyUsage{}),
	}
	if err := s.subscriptionRepo.Create(db, sub); err != nil {
		return nil, handleSubscriptionError(err)
	}
	sub.Plan = plan
	return sub, nil
}

func (s *subscriptionService) UpdateStatus(db *gorm.DB, subscriptionID string, status models.SubscriptionStatus) (*models.Subscription, error) {
	if !status.IsValid() {
		return nil, apperrors.ErrInvalidSubscriptionStatus
	}

	current, err := s.subscriptionRepo.FindByID(db, subscriptionID)
	if err != nil {
		return nil, handleSubscriptionError(err)
	}
	if current.Status == models.SubscriptionStatusCancelled && status == models.SubscriptionStatusCancelled {
		return nil, apperrors.ErrSubscriptionCancelled
	}

	sub, err := s.subscriptionRepo.UpdateStatus(db, subscriptionID, status, s.now())
	if err != nil {
		return nil, handleSubscriptionError(err)
	}
	return sub, nil
}

func (s *subscriptionService) SetAutoRenew(db *gorm.DB, customerID string, autoRenew bool) (*models.Subscription, error) {
	sub, err := s.subscriptionRepo.FindActiveByCustomer(db, customerID, s.now())
	if err != nil {
		return nil, handleSubscriptionError(err)
	}
	if err := s.subscriptionRepo.SetAutoRenew(db, sub.ID, autoRenew); err != nil {
		return nil, handleSubscriptionError(err)
	}
	sub.AutoRenew = autoRenew
	return sub, nil
}

func (s *subscriptionService) CancelMySubscription(db *gorm.DB, customerID string) (*models.Subscription, error) {
	sub, err := s.subscriptionRepo.FindActiveByCustomer(db, customerID, s.now())
	if err != nil {
		return nil, handleSubscriptionError(err)
	}
	return s.UpdateStatus(db, sub.ID, models.SubscriptionStatusCancelled)
}

func (s *subscriptionService) ListSubscriptions(db *gorm.DB, filter *dto.SubscriptionFilter) (*dto.PaginatedResponse, error) {
	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	subs, total, err := s.subscriptionRepo.List(db, filter.CustomerID, filter.Status, page, pageSize)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return dto.NewPaginatedResponse(subs, total, page, pageSize), nil
}

// --- Worker ---

func (s *subscriptionService) ProcessExpired(ctx context.Context, db *gorm.DB) (int, int, error) {
	now := s.now()
	subs, err := s.subscriptionRepo.FindExpiredActive(db, now, expiredBatchSize)
	if err != nil {
		return 0, 0, err
	}

	renewed, expired := 0, 0
	for i := range subs {
		if ctx.Err() != nil {
			return renewed, expired, ctx.Err()
		}

		sub := &subs[i]
		if sub.AutoRenew && sub.Plan != nil && sub.Plan.IsActive {
			if err := s.renew(ctx, db, sub, now); err != nil {
				logger.CtxWithError(ctx, "failed to renew subscription", err, "subscription_id", sub.ID)
				continue
			}
			renewed++
			continue
		}

		if _, err := s.subscriptionRepo.UpdateStatus(db, sub.ID, models.SubscriptionStatusExpired, now); err != nil {
			logger.CtxWithError(ctx, "failed to expire subscription", err, "subscription_id", sub.ID)
			continue
		}
		expired++
		s.notify(ctx, sub, "Your subscription has expired", email.TemplateSubscriptionExpired)
	}
	return renewed, expired, nil
}

// renew сдвигает период вперед, пока он не покроет now, и выставляет счет
// за новый период. Счетчики текущего месяца сохраняются.
func (s *subscriptionService) renew(ctx context.Context, db *gorm.DB, sub *models.Subscription, now time.Time) error {
	start := sub.EndDate
	end := PeriodEnd(start, sub.Plan.BillingPeriod)
	for !end.After(now) {
		start = end
		end = PeriodEnd(start, sub.Plan.BillingPeriod)
	}

	sub.StartDate = start
	sub.EndDate = end
	sub.Status = models.SubscriptionStatusActive
	if month := CurrentMonth(now); sub.MonthlyUsage.Month != month {
		sub.MonthlyUsage = models.MonthlyUsage{Month: month}
	}

	if err := s.subscriptionRepo.SavePeriod(db, sub); err != nil {
		return err
	}

	if s.invoiceService != nil {
		if _, err := s.invoiceService.CreateRenewalInvoice(ctx, db, sub); err != nil {
			logger.CtxWithError(ctx, "failed to create renewal invoice", err, "subscription_id", sub.ID)
		}
	}
	s.notify(ctx, sub, "Your subscription was renewed", email.TemplateSubscriptionRenewed)
	return nil
}

func (s *subscriptionService) notify(ctx context.Context, sub *models.Subscription, subject, template string) {
	if s.emailProvider == nil || sub.Customer == nil {
		return
	}
	planName := ""
	if sub.Plan != nil {
		planName = sub.Plan.Name
	}
	err := s.emailProvider.SendTemplate(ctx, []string{sub.Customer.Email}, subject, template, email.TemplateData{
		"Name":    sub.Customer.Name,
		"Plan":    planName,
		"EndDate": sub.EndDate.Format("2006-01-02"),
	})
	if err != nil {
		logger.CtxWithError(ctx, "failed to send subscription email", err, "subscription_id", sub.ID)
	}
}

// --- Helpers ---

// CurrentMonth форматирует месяц для учета использования ("YYYY-MM", UTC).
func CurrentMonth(now time.Time) string {
	return now.UTC().Format(models.MonthFormat)
}

// PeriodEnd - конец оплачиваемого периода, начатого в start.
func PeriodEnd(start time.Time, period models.BillingPeriod) time.Time {
	if period == models.BillingPeriodYearly {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}

// BuildQuotaCheck считает использование текущего месяца относительно лимитов
// тарифа. sub == nil означает отсутствие активной подписки. sub.Plan должен
// быть загружен.
func BuildQuotaCheck(sub *models.Subscription, now time.Time) *dto.QuotaCheck {
	if sub == nil || sub.Plan == nil {
		return &dto.QuotaCheck{
			HasActiveSubscription: false,
			CanCreateRoom:         false,
			Limitations:           []string{LimitationNoSubscription},
		}
	}

	plan := sub.Plan
	usage := sub.CurrentUsage(CurrentMonth(now))

	summary := &dto.UsageSummary{
		Month:              usage.Month,
		RoomsCreated:       usage.RoomsCreated,
		TotalDuration:      usage.TotalMinutes,
		ParticipantsCount:  usage.ParticipantsCount,
		MaxRoomsPerMonth:   plan.MaxRoomsPerMonth,
		MaxDurationPerRoom: plan.MaxDuration,
		MaxMinutesPerMonth: plan.MaxMinutesPerMonth,
		MaxParticipants:    plan.MaxParticipants,
		RemainingRooms:     max(plan.MaxRoomsPerMonth-usage.RoomsCreated, 0),
		RemainingMinutes:   -1,
	}
	if plan.MaxMinutesPerMonth > 0 {
		summary.RemainingMinutes = max(plan.MaxMinutesPerMonth-usage.TotalMinutes, 0)
	}

	limitations := []string{}
	if usage.RoomsCreated >= plan.MaxRoomsPerMonth {
		limitations = append(limitations,
			fmt.Sprintf("Monthly room limit reached (%d/%d)", usage.RoomsCreated, plan.MaxRoomsPerMonth))
	}
	if plan.MaxMinutesPerMonth > 0 && usage.TotalMinutes >= plan.MaxMinutesPerMonth {
		limitations = append(limitations,
			fmt.Sprintf("Monthly minutes limit reached (%d/%d)", usage.TotalMinutes, plan.MaxMinutesPerMonth))
	}

	return &dto.QuotaCheck{
		HasActiveSubscription: true,
		Subscription:          sub,
		Plan:                  plan,
		Usage:                 summary,
		CanCreateRoom:         len(limitations) == 0,
		Limitations:           limitations,
	}
}

// ApplyUsage прибавляет delta к использованию текущего месяца. Если сохраненный
// месяц устарел, счетчики начинаются с нуля. Запись месяца в истории
// заменяется, история отсортирована по месяцу.
func ApplyUsage(sub *models.Subscription, delta dto.UsageDelta, now time.Time) {
	month := CurrentMonth(now)

	usage := sub.CurrentUsage(month)
	usage.RoomsCreated += delta.RoomsCount
	usage.TotalMinutes += delta.Duration
	usage.ParticipantsCount += delta.ParticipantsCount
	sub.MonthlyUsage = usage

	history := sub.History()
	found := false
	for i := range history {
		if history[i].Month == month {
			history[i] = usage
			found = true
			break
		}
	}
	if !found {
		history = append(history, usage)
		sort.Slice(history, func(i, j int) bool { return history[i].Month < history[j].Month })
	}
	sub.UsageHistory = datatypes.NewJSONType(history)
}

func handleSubscriptionError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrSubscriptionNotFound):
		return apperrors.ErrSubscriptionNotFound.WithError(err)
	case errors.Is(err, repositories.ErrPlanNotFound):
		return apperrors.ErrPlanNotFound.WithError(err)
	case errors.Is(err, repositories.ErrCustomerNotFound):
		return apperrors.ErrCustomerNotFound.WithError(err)
	case errors.Is(err, repositories.ErrPlanNameTaken):
		return apperrors.ErrAlreadyExists(err, "plan", "Plan with this name already exists")
	case errors.Is(err, repositories.ErrPlanInUse):
		return apperrors.ErrInvalidOperation("plan", "Plan is used by subscriptions and cannot be deleted")
	case errors.Is(err, repositories.ErrActiveSubscriptionExists):
		return apperrors.ErrAlreadyExists(err, "subscription", "Customer already has an active subscription")
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperrors.InternalError(err)
}

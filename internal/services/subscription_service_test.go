package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"meetspace_backend/internal/email"
	"meetspace_backend/internal/models"
	"meetspace_backend/internal/services/dto"
	"meetspace_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

var june2024 = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func basicPlan() *models.Plan {
	return &models.Plan{
		BaseModel:        models.BaseModel{ID: "plan-basic"},
		Name:             "Basic",
		MaxRoomsPerMonth: 5,
		MaxParticipants:  10,
		MaxDuration:      60,
		Price:            19,
		Currency:         "USD",
		BillingPeriod:    models.BillingPeriodMonthly,
		IsActive:         true,
	}
}

func activeSub(id, customerID string, plan *models.Plan, usage models.MonthlyUsage) *models.Subscription {
	return &models.Subscription{
		BaseModel:    models.BaseModel{ID: id},
		CustomerID:   customerID,
		PlanID:       plan.ID,
		StartDate:    june2024.AddDate(0, 0, -10),
		EndDate:      june2024.AddDate(0, 0, 20),
		Status:       models.SubscriptionStatusActive,
		AutoRenew:    true,
		MonthlyUsage: usage,
		UsageHistory: datatypes.NewJSONType([]models.MonthlyUsage{}),
		Plan:         plan,
	}
}

func TestBuildQuotaCheck_RoomLimitReached(t *testing.T) {
	sub := activeSub("sub-1", "cust-1", basicPlan(), models.MonthlyUsage{Month: "2024-06", RoomsCreated: 5})

	check := BuildQuotaCheck(sub, june2024)

	assert.True(t, check.HasActiveSubscription)
	assert.False(t, check.CanCreateRoom)
	require.Len(t, check.Limitations, 1)
	assert.Equal(t, "Monthly room limit reached (5/5)", check.Limitations[0])
	assert.Equal(t, 0, check.Usage.RemainingRooms)
	assert.Equal(t, -1, check.Usage.RemainingMinutes)
	t.Logf("КВОТА: лимит комнат исчерпан - %v", check.Limitations)
}

func TestBuildQuotaCheck_StaleMonthIsReset(t *testing.T) {
	sub := activeSub("sub-1", "cust-1", basicPlan(), models.MonthlyUsage{Month: "2024-05", RoomsCreated: 5, TotalMinutes: 300})

	check := BuildQuotaCheck(sub, june2024)

	assert.True(t, check.CanCreateRoom)
	assert.Empty(t, check.Limitations)
	assert.Equal(t, "2024-06", check.Usage.Month)
	assert.Equal(t, 0, check.Usage.RoomsCreated)
	assert.Equal(t, 5, check.Usage.RemainingRooms)
	// сохраненная запись не меняется при чтении
	assert.Equal(t, "2024-05", sub.MonthlyUsage.Month)
}

func TestBuildQuotaCheck_MinutesLimit(t *testing.T) {
	plan := basicPlan()
	plan.MaxMinutesPerMonth = 120
	sub := activeSub("sub-1", "cust-1", plan, models.MonthlyUsage{Month: "2024-06", RoomsCreated: 2, TotalMinutes: 120})

	check := BuildQuotaCheck(sub, june2024)

	assert.False(t, check.CanCreateRoom)
	assert.Equal(t, []string{"Monthly minutes limit reached (120/120)"}, check.Limitations)
	assert.Equal(t, 0, check.Usage.RemainingMinutes)
}

func TestBuildQuotaCheck_NoSubscription(t *testing.T) {
	check := BuildQuotaCheck(nil, june2024)

	assert.False(t, check.HasActiveSubscription)
	assert.False(t, check.CanCreateRoom)
	assert.Equal(t, []string{LimitationNoSubscription}, check.Limitations)
	assert.Nil(t, check.Usage)
}

func TestApplyUsage_AccumulatesWithinMonth(t *testing.T) {
	sub := activeSub("sub-1", "cust-1", basicPlan(), models.MonthlyUsage{Month: "2024-06", RoomsCreated: 1, TotalMinutes: 30})

	ApplyUsage(sub, dto.UsageDelta{Duration: 45, ParticipantsCount: 3, RoomsCount: 1}, june2024)
	ApplyUsage(sub, dto.UsageDelta{Duration: 15, ParticipantsCount: 1, RoomsCount: 1}, june2024)

	assert.Equal(t, models.MonthlyUsage{Month: "2024-06", RoomsCreated: 3, TotalMinutes: 90, ParticipantsCount: 4}, sub.MonthlyUsage)
	history := sub.History()
	require.Len(t, history, 1)
	assert.Equal(t, sub.MonthlyUsage, history[0])
}

func TestApplyUsage_ResetsAcrossMonthsAndKeepsHistorySorted(t *testing.T) {
	sub := activeSub("sub-1", "cust-1", basicPlan(), models.MonthlyUsage{})

	ApplyUsage(sub, dto.UsageDelta{Duration: 60, RoomsCount: 1}, time.Date(2024, 5, 31, 23, 0, 0, 0, time.UTC))
	ApplyUsage(sub, dto.UsageDelta{Duration: 10, RoomsCount: 1}, june2024)
	ApplyUsage(sub, dto.UsageDelta{Duration: 5, RoomsCount: 1}, june2024)

	assert.Equal(t, "2024-06", sub.MonthlyUsage.Month)
	assert.Equal(t, 2, sub.MonthlyUsage.RoomsCreated)
	assert.Equal(t, 15, sub.MonthlyUsage.TotalMinutes)

	history := sub.History()
	require.Len(t, history, 2)
	assert.Equal(t, "2024-05", history[0].Month)
	assert.Equal(t, 60, history[0].TotalMinutes)
	assert.Equal(t, "2024-06", history[1].Month)
	assert.Equal(t, 15, history[1].TotalMinutes)
}

func TestPeriodEnd(t *testing.T) {
	start := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), PeriodEnd(start, models.BillingPeriodMonthly))
	assert.Equal(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), PeriodEnd(start, models.BillingPeriodYearly))
}

func newTestSubscriptionService(subs *fakeSubscriptionRepo, plans *fakePlanRepo, customers *fakeCustomerRepo, invoices InvoiceService, mailer email.Provider) *subscriptionService {
	svc := NewSubscriptionService(subs, plans, customers, invoices, mailer).(*subscriptionService)
	svc.now = fixedClock(june2024)
	return svc
}

func TestCheckRoomPermission_UsesActiveSubscription(t *testing.T) {
	plans := newFakePlanRepo(basicPlan())
	sub := activeSub("sub-1", "cust-1", basicPlan(), models.MonthlyUsage{Month: "2024-06", RoomsCreated: 2})
	sub.Plan = nil
	subs := newFakeSubscriptionRepo(plans, sub)
	svc := newTestSubscriptionService(subs, plans, newFakeCustomerRepo(), nil, nil)

	check, err := svc.CheckRoomPermission(nil, "cust-1")
	require.NoError(t, err)
	assert.True(t, check.CanCreateRoom)
	assert.Equal(t, 3, check.Usage.RemainingRooms)
	assert.Equal(t, "Basic", check.Plan.Name)

	check, err = svc.CheckRoomPermission(nil, "cust-unknown")
	require.NoError(t, err)
	assert.False(t, check.HasActiveSubscription)
}

func TestUpdateUsage_IncrementsStoredCounters(t *testing.T) {
	plans := newFakePlanRepo(basicPlan())
	subs := newFakeSubscriptionRepo(plans, activeSub("sub-1", "cust-1", basicPlan(), models.MonthlyUsage{Month: "2024-06", RoomsCreated: 1, TotalMinutes: 20}))
	svc := newTestSubscriptionService(subs, plans, newFakeCustomerRepo(), nil, nil)

	_, err := svc.UpdateUsage(nil, "sub-1", dto.UsageDelta{Duration: 40, ParticipantsCount: 2, RoomsCount: 1})
	require.NoError(t, err)

	stored := subs.get("sub-1")
	assert.Equal(t, 2, stored.MonthlyUsage.RoomsCreated)
	assert.Equal(t, 60, stored.MonthlyUsage.TotalMinutes)
	assert.Equal(t, 2, stored.MonthlyUsage.ParticipantsCount)

	_, err = svc.UpdateUsage(nil, "missing", dto.UsageDelta{RoomsCount: 1})
	assert.ErrorIs(t, err, apperrors.ErrSubscriptionNotFound)

	_, err = svc.UpdateUsage(nil, "sub-1", dto.UsageDelta{RoomsCount: -1})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.HTTPCode)
}

func TestCreateSubscription_DeactivatesPreviousAndStartsFresh(t *testing.T) {
	plans := newFakePlanRepo(basicPlan())
	old := activeSub("sub-old", "cust-1", basicPlan(), models.MonthlyUsage{Month: "2024-06", RoomsCreated: 4})
	subs := newFakeSubscriptionRepo(plans, old)
	customers := newFakeCustomerRepo(&models.Customer{BaseModel: models.BaseModel{ID: "cust-1"}, Email: "a@example.com"})
	svc := newTestSubscriptionService(subs, plans, customers, nil, nil)

	sub, err := svc.CreateSubscription(nil, &dto.CreateSubscriptionRequest{CustomerID: "cust-1", PlanID: "plan-basic"})
	require.NoError(t, err)

	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, june2024, sub.StartDate)
	assert.Equal(t, june2024.AddDate(0, 1, 0), sub.EndDate)
	assert.Equal(t, models.MonthlyUsage{Month: "2024-06"}, sub.MonthlyUsage)
	assert.Equal(t, models.SubscriptionStatusInactive, subs.get("sub-old").Status)

	_, err = svc.CreateSubscription(nil, &dto.CreateSubscriptionRequest{CustomerID: "cust-1", PlanID: "nope"})
	assert.ErrorIs(t, err, apperrors.ErrPlanNotFound)
}

func TestCancelMySubscription(t *testing.T) {
	plans := newFakePlanRepo(basicPlan())
	subs := newFakeSubscriptionRepo(plans, activeSub("sub-1", "cust-1", basicPlan(), models.MonthlyUsage{}))
	svc := newTestSubscriptionService(subs, plans, newFakeCustomerRepo(), nil, nil)

	sub, err := svc.CancelMySubscription(nil, "cust-1")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusCancelled, sub.Status)
	assert.False(t, sub.AutoRenew)
	require.NotNil(t, sub.CancelledAt)

	_, err = svc.CancelMySubscription(nil, "cust-1")
	assert.ErrorIs(t, err, apperrors.ErrSubscriptionNotFound)
}

func TestProcessExpired_RenewsAndExpires(t *testing.T) {
	plans := newFakePlanRepo(basicPlan())
	customer := &models.Customer{BaseModel: models.BaseModel{ID: "cust-1"}, Email: "a@example.com", Name: "Alice"}
	customers := newFakeCustomerRepo(customer, &models.Customer{BaseModel: models.BaseModel{ID: "cust-2"}, Email: "b@example.com"})

	renewing := activeSub("sub-renew", "cust-1", basicPlan(), models.MonthlyUsage{Month: "2024-05", RoomsCreated: 3})
	renewing.StartDate = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	renewing.EndDate = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	lapsing := activeSub("sub-lapse", "cust-2", basicPlan(), models.MonthlyUsage{})
	lapsing.AutoRenew = false
	lapsing.EndDate = time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	subs := newFakeSubscriptionRepo(plans, renewing, lapsing)
	invoiceRepo := newFakeInvoiceRepo()
	invoices := NewInvoiceService(invoiceRepo, customers, subs, nil).(*invoiceService)
	invoices.now = fixedClock(june2024)

	svc := newTestSubscriptionService(subs, plans, customers, invoices, email.NewMockProvider(nil))

	renewed, expired, err := svc.ProcessExpired(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, renewed)
	assert.Equal(t, 1, expired)

	r := subs.get("sub-renew")
	assert.Equal(t, models.SubscriptionStatusActive, r.Status)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), r.StartDate)
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), r.EndDate)
	assert.Equal(t, models.MonthlyUsage{Month: "2024-06"}, r.MonthlyUsage)

	assert.Equal(t, models.SubscriptionStatusExpired, subs.get("sub-lapse").Status)

	list, _, _ := invoiceRepo.List(nil, "cust-1", "", 1, 10)
	require.Len(t, list, 1)
	assert.Equal(t, models.InvoiceStatusPending, list[0].Status)
	assert.Equal(t, 19.0, list[0].Amount)
}

func TestProcessExpired_RenewalKeepsCurrentMonthUsage(t *testing.T) {
	plans := newFakePlanRepo(basicPlan())
	customers := newFakeCustomerRepo(&models.Customer{BaseModel: models.BaseModel{ID: "cust-1"}, Email: "a@example.com"})

	sub := activeSub("sub-1", "cust-1", basicPlan(), models.MonthlyUsage{Month: "2024-06", RoomsCreated: 5, TotalMinutes: 200})
	sub.StartDate = time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	sub.EndDate = time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	subs := newFakeSubscriptionRepo(plans, sub)
	svc := newTestSubscriptionService(subs, plans, customers, nil, nil)

	renewed, expired, err := svc.ProcessExpired(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, renewed)
	assert.Equal(t, 0, expired)

	r := subs.get("sub-1")
	assert.Equal(t, time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC), r.EndDate)
	assert.Equal(t, models.MonthlyUsage{Month: "2024-06", RoomsCreated: 5, TotalMinutes: 200}, r.MonthlyUsage, "продление в том же месяце не обнуляет счетчики")

	check, err := svc.CheckRoomPermission(nil, "cust-1")
	require.NoError(t, err)
	assert.True(t, check.HasActiveSubscription)
	assert.False(t, check.CanCreateRoom, "лимит комнат за месяц уже исчерпан")
}

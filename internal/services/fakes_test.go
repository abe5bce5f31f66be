package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"meetspace_backend/internal/flat"
	"meetspace_backend/internal/models"
	"meetspace_backend/internal/repositories"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Фейковые репозитории хранят данные в памяти и игнорируют db.

type fakeCustomerRepo struct {
	mu        sync.Mutex
	customers map[string]*models.Customer
}

func newFakeCustomerRepo(customers ...*models.Customer) *fakeCustomerRepo {
	r := &fakeCustomerRepo{customers: map[string]*models.Customer{}}
	for _, c := range customers {
		r.customers[c.ID] = c
	}
	return r
}

func (r *fakeCustomerRepo) Create(_ *gorm.DB, c *models.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.customers {
		if existing.Email == c.Email {
			return repositories.ErrCustomerEmailTaken
		}
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	cp := *c
	r.customers[c.ID] = &cp
	return nil
}

func (r *fakeCustomerRepo) FindByID(_ *gorm.DB, id string) (*models.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[id]
	if !ok {
		return nil, repositories.ErrCustomerNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCustomerRepo) FindByEmail(_ *gorm.DB, email string) (*models.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.customers {
		if c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repositories.ErrCustomerNotFound
}

func (r *fakeCustomerRepo) UpdateFields(_ *gorm.DB, id string, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[id]
	if !ok {
		return repositories.ErrCustomerNotFound
	}
	for k, v := range fields {
		switch k {
		case "name":
			c.Name = v.(string)
		case "organization":
			c.Organization = v.(string)
		case "secret_key":
			c.SecretKey = v.(string)
		case "flat_user_uuid":
			c.FlatUserUUID = v.(string)
		case "avatar_url":
			c.AvatarURL = v.(string)
		case "avatar_media_id":
			id := v.(string)
			c.AvatarMediaID = &id
		}
	}
	return nil
}

func (r *fakeCustomerRepo) List(_ *gorm.DB, _ string, _, _ int) ([]models.Customer, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Customer
	for _, c := range r.customers {
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

type fakePlanRepo struct {
	plans map[string]*models.Plan
}

func newFakePlanRepo(plans ...*models.Plan) *fakePlanRepo {
	r := &fakePlanRepo{plans: map[string]*models.Plan{}}
	for _, p := range plans {
		r.plans[p.ID] = p
	}
	return r
}

func (r *fakePlanRepo) Create(_ *gorm.DB, p *models.Plan) error {
	for _, existing := range r.plans {
		if existing.Name == p.Name {
			return repositories.ErrPlanNameTaken
		}
	}
	p.ID = uuid.NewString()
	r.plans[p.ID] = p
	return nil
}

func (r *fakePlanRepo) FindByID(_ *gorm.DB, id string) (*models.Plan, error) {
	p, ok := r.plans[id]
	if !ok {
		return nil, repositories.ErrPlanNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePlanRepo) List(_ *gorm.DB, activeOnly bool) ([]models.Plan, error) {
	var out []models.Plan
	for _, p := range r.plans {
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out, nil
}

func (r *fakePlanRepo) Update(_ *gorm.DB, p *models.Plan) error {
	if _, ok := r.plans[p.ID]; !ok {
		return repositories.ErrPlanNotFound
	}
	cp := *p
	r.plans[p.ID] = &cp
	return nil
}

func (r *fakePlanRepo) Delete(_ *gorm.DB, id string) error {
	if _, ok := r.plans[id]; !ok {
		return repositories.ErrPlanNotFound
	}
	delete(r.plans, id)
	return nil
}

type fakeSubscriptionRepo struct {
	mu    sync.Mutex
	subs  map[string]*models.Subscription
	plans *fakePlanRepo

	savedPeriods int
}

func newFakeSubscriptionRepo(plans *fakePlanRepo, subs ...*models.Subscription) *fakeSubscriptionRepo {
	r := &fakeSubscriptionRepo{subs: map[string]*models.Subscription{}, plans: plans}
	for _, s := range subs {
		r.subs[s.ID] = s
	}
	return r
}

func (r *fakeSubscriptionRepo) withPlan(s *models.Subscription) *models.Subscription {
	cp := *s
	if r.plans != nil {
		if p, err := r.plans.FindByID(nil, s.PlanID); err == nil {
			cp.Plan = p
		}
	}
	return &cp
}

func (r *fakeSubscriptionRepo) Create(_ *gorm.DB, s *models.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.Status == models.SubscriptionStatusActive {
		for _, other := range r.subs {
			if other.CustomerID == s.CustomerID && other.Status == models.SubscriptionStatusActive {
				other.Status = models.SubscriptionStatusInactive
			}
		}
	}
	s.ID = uuid.NewString()
	s.CreatedAt = time.Now()
	cp := *s
	cp.Plan = nil
	r.subs[s.ID] = &cp
	return nil
}

func (r *fakeSubscriptionRepo) FindByID(_ *gorm.DB, id string) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[id]
	if !ok {
		return nil, repositories.ErrSubscriptionNotFound
	}
	return r.withPlan(s), nil
}

func (r *fakeSubscriptionRepo) FindActiveByCustomer(_ *gorm.DB, customerID string, now time.Time) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *models.Subscription
	for _, s := range r.subs {
		if s.CustomerID != customerID || s.Status != models.SubscriptionStatusActive {
			continue
		}
		if s.StartDate.After(now) || s.EndDate.Before(now) {
			continue
		}
		if best == nil || s.StartDate.After(best.StartDate) {
			best = s
		}
	}
	if best == nil {
		return nil, repositories.ErrSubscriptionNotFound
	}
	return r.withPlan(best), nil
}

func (r *fakeSubscriptionRepo) FindLatestByCustomer(_ *gorm.DB, customerID string) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *models.Subscription
	for _, s := range r.subs {
		if s.CustomerID == customerID && (best == nil || s.StartDate.After(best.StartDate)) {
			best = s
		}
	}
	if best == nil {
		return nil, repositories.ErrSubscriptionNotFound
	}
	return r.withPlan(best), nil
}

func (r *fakeSubscriptionRepo) List(_ *gorm.DB, customerID, status string, _, _ int) ([]models.Subscription, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Subscription
	for _, s := range r.subs {
		if customerID != "" && s.CustomerID != customerID {
			continue
		}
		if status != "" && string(s.Status) != status {
			continue
		}
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (r *fakeSubscriptionRepo) UpdateStatus(_ *gorm.DB, id string, status models.SubscriptionStatus, now time.Time) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[id]
	if !ok {
		return nil, repositories.ErrSubscriptionNotFound
	}
	if status == models.SubscriptionStatusActive {
		for _, other := range r.subs {
			if other.ID != id && other.CustomerID == s.CustomerID && other.Status == models.SubscriptionStatusActive {
				other.Status = models.SubscriptionStatusInactive
			}
		}
	}
	if status == models.SubscriptionStatusCancelled {
		s.CancelledAt = &now
		s.AutoRenew = false
	}
	s.Status = status
	return r.withPlan(s), nil
}

func (r *fakeSubscriptionRepo) SetAutoRenew(_ *gorm.DB, id string, autoRenew bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[id]
	if !ok {
		return repositories.ErrSubscriptionNotFound
	}
	s.AutoRenew = autoRenew
	return nil
}

func (r *fakeSubscriptionRepo) UpdateUsage(_ *gorm.DB, id string, apply func(*models.Subscription) error) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[id]
	if !ok {
		return nil, repositories.ErrSubscriptionNotFound
	}
	cp := *s
	if err := apply(&cp); err != nil {
		return nil, err
	}
	s.MonthlyUsage = cp.MonthlyUsage
	s.UsageHistory = cp.UsageHistory
	return &cp, nil
}

func (r *fakeSubscriptionRepo) SavePeriod(_ *gorm.DB, sub *models.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[sub.ID]
	if !ok {
		return repositories.ErrSubscriptionNotFound
	}
	s.StartDate = sub.StartDate
	s.EndDate = sub.EndDate
	s.Status = sub.Status
	s.MonthlyUsage = sub.MonthlyUsage
	s.UsageHistory = sub.UsageHistory
	r.savedPeriods++
	return nil
}

func (r *fakeSubscriptionRepo) FindExpiredActive(_ *gorm.DB, now time.Time, limit int) ([]models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Subscription
	for _, s := range r.subs {
		if s.Status == models.SubscriptionStatusActive && s.EndDate.Before(now) {
			out = append(out, *r.withPlan(s))
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeSubscriptionRepo) get(id string) *models.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *r.subs[id]
	return &cp
}

type fakeMeetingRepo struct {
	mu        sync.Mutex
	meetings  map[string]*models.Meeting
	createErr error
}

func newFakeMeetingRepo(meetings ...*models.Meeting) *fakeMeetingRepo {
	r := &fakeMeetingRepo{meetings: map[string]*models.Meeting{}}
	for _, m := range meetings {
		r.meetings[m.ID] = m
	}
	return r
}

func (r *fakeMeetingRepo) Create(_ *gorm.DB, m *models.Meeting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	m.ID = uuid.NewString()
	cp := *m
	r.meetings[m.ID] = &cp
	return nil
}

func (r *fakeMeetingRepo) FindByIDAndCustomer(_ *gorm.DB, id, customerID string) (*models.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.meetings[id]
	if !ok || m.CustomerID != customerID {
		return nil, repositories.ErrMeetingNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMeetingRepo) Update(_ *gorm.DB, m *models.Meeting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.meetings[m.ID]; !ok {
		return repositories.ErrMeetingNotFound
	}
	cp := *m
	r.meetings[m.ID] = &cp
	return nil
}

func (r *fakeMeetingRepo) Delete(_ *gorm.DB, id, customerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.meetings[id]
	if !ok || m.CustomerID != customerID {
		return repositories.ErrMeetingNotFound
	}
	delete(r.meetings, id)
	return nil
}

func (r *fakeMeetingRepo) ListByCustomer(_ *gorm.DB, customerID string, _, _ int) ([]models.Meeting, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Meeting
	for _, m := range r.meetings {
		if m.CustomerID == customerID {
			out = append(out, *m)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeMeetingRepo) MarkFinished(_ *gorm.DB, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, m := range r.meetings {
		active := m.Status == models.MeetingStatusScheduled || m.Status == models.MeetingStatusStarted
		if active && m.EndTime.Before(before) {
			m.Status = models.MeetingStatusStopped
			n++
		}
	}
	return n, nil
}

func (r *fakeMeetingRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.meetings)
}

type fakeInvoiceRepo struct {
	mu        sync.Mutex
	invoices  map[string]*models.Invoice
	duplicate int
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{invoices: map[string]*models.Invoice{}}
}

func (r *fakeInvoiceRepo) Create(_ *gorm.DB, inv *models.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.duplicate > 0 {
		r.duplicate--
		return repositories.ErrInvoiceNumberTaken
	}
	inv.ID = uuid.NewString()
	cp := *inv
	r.invoices[inv.ID] = &cp
	return nil
}

func (r *fakeInvoiceRepo) FindByID(_ *gorm.DB, id string) (*models.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return nil, repositories.ErrInvoiceNotFound
	}
	cp := *inv
	return &cp, nil
}

func (r *fakeInvoiceRepo) FindByIDAndCustomer(db *gorm.DB, id, customerID string) (*models.Invoice, error) {
	inv, err := r.FindByID(db, id)
	if err != nil || inv.CustomerID != customerID {
		return nil, repositories.ErrInvoiceNotFound
	}
	return inv, nil
}

func (r *fakeInvoiceRepo) List(_ *gorm.DB, customerID, status string, _, _ int) ([]models.Invoice, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Invoice
	for _, inv := range r.invoices {
		if customerID != "" && inv.CustomerID != customerID {
			continue
		}
		if status != "" && string(inv.Status) != status {
			continue
		}
		out = append(out, *inv)
	}
	return out, int64(len(out)), nil
}

func (r *fakeInvoiceRepo) AllByCustomer(db *gorm.DB, customerID string) ([]models.Invoice, error) {
	out, _, err := r.List(db, customerID, "", 1, 1000)
	return out, err
}

func (r *fakeInvoiceRepo) UpdateStatus(_ *gorm.DB, id string, status models.InvoiceStatus, paidDate *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return repositories.ErrInvoiceNotFound
	}
	inv.Status = status
	inv.PaidDate = paidDate
	return nil
}

type fakeMediaRepo struct {
	media map[string]*models.Media
}

func newFakeMediaRepo() *fakeMediaRepo {
	return &fakeMediaRepo{media: map[string]*models.Media{}}
}

func (r *fakeMediaRepo) Create(_ *gorm.DB, m *models.Media) error {
	m.ID = uuid.NewString()
	cp := *m
	r.media[m.ID] = &cp
	return nil
}

func (r *fakeMediaRepo) FindByID(_ *gorm.DB, id string) (*models.Media, error) {
	m, ok := r.media[id]
	if !ok {
		return nil, repositories.ErrMediaNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMediaRepo) Delete(_ *gorm.DB, id string) error {
	delete(r.media, id)
	return nil
}

// --- Flat ---

type fakeRooms struct {
	mu sync.Mutex

	createErr  error
	created    []flat.CreateRoomParams
	updated    []flat.UpdateRoomParams
	cancelled  []string
	tokens     []string
	needLoginN int
	rooms      []flat.RoomItem
	info       *flat.RoomInfo
	infoErr    error
}

func (f *fakeRooms) CreateOrdinary(_ context.Context, token string, p flat.CreateRoomParams) (*flat.CreateRoomResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, token)
	if f.needLoginN > 0 {
		f.needLoginN--
		return nil, &flat.APIError{Status: 1, Code: flat.CodeNeedLoginAgain, HTTPStatus: 200}
	}
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, p)
	return &flat.CreateRoomResult{RoomUUID: "room-uuid-1", InviteCode: "1234567890"}, nil
}

func (f *fakeRooms) UpdateOrdinary(_ context.Context, _ string, p flat.UpdateRoomParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, p)
	return nil
}

func (f *fakeRooms) Info(_ context.Context, _ string, roomUUID string) (*flat.RoomInfo, error) {
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	if f.info != nil {
		return f.info, nil
	}
	return &flat.RoomInfo{RoomUUID: roomUUID, RoomStatus: flat.RoomStatusIdle}, nil
}

func (f *fakeRooms) Stop(_ context.Context, _, _ string) error { return nil }

func (f *fakeRooms) Cancel(_ context.Context, _ string, roomUUID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, roomUUID)
	return nil
}

func (f *fakeRooms) ListAll(_ context.Context, _, _ string) ([]flat.RoomItem, error) {
	return append([]flat.RoomItem(nil), f.rooms...), nil
}

func (f *fakeRooms) AllParticipants(_ context.Context, _, _ string, _ int) ([]flat.Participant, error) {
	return nil, nil
}

type fakeUsers struct {
	records map[string][]flat.UserInOutRecord
	calls   int
	mu      sync.Mutex
}

func (f *fakeUsers) AllInOutRecords(_ context.Context, _, roomUUID string, _ int) ([]flat.UserInOutRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.records[roomUUID], nil
}

func (f *fakeUsers) AllOrganizationUsers(_ context.Context, _ string, _ int) ([]flat.OrgUser, error) {
	return nil, nil
}

type fakeTokens struct {
	issued      int
	invalidated int
	err         error
}

func (f *fakeTokens) Token(context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.issued++
	return "service-token", nil
}

func (f *fakeTokens) Invalidate(context.Context) {
	f.invalidated++
}

type fakeFlatAuth struct {
	loginErr    error
	registerErr error
	sendErr     error
}

func (f *fakeFlatAuth) Login(_ context.Context, email, _ string) (*flat.LoginResult, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &flat.LoginResult{Token: "flat-token", UserUUID: "flat-user-1", Name: "Alice"}, nil
}

func (f *fakeFlatAuth) Register(_ context.Context, p flat.RegisterParams) (*flat.LoginResult, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &flat.LoginResult{Token: "flat-token", UserUUID: "flat-user-2", Name: p.Name}, nil
}

func (f *fakeFlatAuth) SendVerificationCode(context.Context, string, string) error {
	return f.sendErr
}

func syncRun(fn func()) { fn() }

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

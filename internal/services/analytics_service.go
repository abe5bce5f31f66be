package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"meetspace_backend/internal/cache"
	"meetspace_backend/internal/flat"
	"meetspace_backend/internal/logger"
	"meetspace_backend/internal/services/dto"
	"meetspace_backend/pkg/apperrors"

	"golang.org/x/sync/errgroup"
)

const (
	analyticsTTL         = 5 * time.Minute
	analyticsConcurrency = 4
)

type AnalyticsService interface {
	// Summary считает минуты и подключения по всем комнатам клиента.
	// Результат кешируется на 5 минут.
	Summary(ctx context.Context, customerID, flatToken string) (*dto.AnalyticsSummary, error)
}

type analyticsService struct {
	rooms FlatRooms
	users FlatUsers
	cache cache.Cache

	now func() time.Time
	loc *time.Location
}

func NewAnalyticsService(rooms FlatRooms, users FlatUsers, c cache.Cache) AnalyticsService {
	return &analyticsService{
		rooms: rooms,
		users: users,
		cache: c,
		now:   utcNow,
		loc:   time.UTC,
	}
}

func (s *analyticsService) cacheKey(customerID string) string {
	return "analytics:summary:" + customerID
}

func (s *analyticsService) Summary(ctx context.Context, customerID, flatToken string) (*dto.AnalyticsSummary, error) {
	var cached dto.AnalyticsSummary
	err := cache.GetJSON(ctx, s.cache, s.cacheKey(customerID), &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		logger.CtxWithError(ctx, "analytics cache read failed", err)
	}

	rooms, err := s.rooms.ListAll(ctx, flatToken, flat.ListHistory)
	if err != nil {
		return nil, handleDashboardError(err, "Failed to list rooms")
	}
	flat.SortRoomsByBegin(rooms)

	records := make([][]flat.UserInOutRecord, len(rooms))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(analyticsConcurrency)
	for i := range rooms {
		g.Go(func() error {
			recs, err := s.users.AllInOutRecords(gctx, flatToken, rooms[i].RoomUUID, flat.DefaultPageSize)
			if err != nil {
				return err
			}
			records[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, handleDashboardError(err, "Failed to load room attendance")
	}

	summary := BuildAnalytics(rooms, records, s.now(), s.loc)
	if err := cache.SetJSON(ctx, s.cache, s.cacheKey(customerID), summary, analyticsTTL); err != nil {
		logger.CtxWithError(ctx, "analytics cache write failed", err)
	}
	return summary, nil
}

// BuildAnalytics сводит записи входа/выхода по комнатам. records[i]
// соответствует rooms[i].
func BuildAnalytics(rooms []flat.RoomItem, records [][]flat.UserInOutRecord, now time.Time, loc *time.Location) *dto.AnalyticsSummary {
	summary := &dto.AnalyticsSummary{
		TotalRooms:    len(rooms),
		Rooms:         make([]dto.RoomMinutes, 0, len(rooms)),
		MinutesByUser: map[string]int{},
	}

	var all []flat.UserInOutRecord
	for i, room := range rooms {
		minutes := flat.TotalMinutes(records[i], now)
		summary.Rooms = append(summary.Rooms, dto.RoomMinutes{
			RoomUUID: room.RoomUUID,
			Title:    room.Title,
			Minutes:  minutes,
		})
		summary.TotalMinutes += minutes
		all = append(all, records[i]...)
	}

	for user, minutes := range flat.MinutesByUser(all, now) {
		summary.MinutesByUser[user] = minutes
	}
	summary.JoinsByHour = flat.JoinsByHour(all, loc)

	sort.SliceStable(summary.Rooms, func(i, j int) bool {
		return summary.Rooms[i].Minutes > summary.Rooms[j].Minutes
	})
	return summary
}

// DashboardService проксирует запросы кабинета во Flat от имени клиента
// (токен Flat из сессии).
type DashboardService interface {
	ListRooms(ctx context.Context, flatToken, listType string) ([]flat.RoomItem, error)
	RoomInfo(ctx context.Context, flatToken, roomUUID string) (*flat.RoomInfo, error)
	StopRoom(ctx context.Context, flatToken, roomUUID string) error
	Participants(ctx context.Context, flatToken, roomUUID string) ([]flat.Participant, error)
	Timeline(ctx context.Context, flatToken, roomUUID string) ([]flat.UserInOutRecord, error)
	OrganizationUsers(ctx context.Context, flatToken string) ([]flat.OrgUser, error)
}

type dashboardService struct {
	rooms FlatRooms
	users FlatUsers
}

func NewDashboardService(rooms FlatRooms, users FlatUsers) DashboardService {
	return &dashboardService{rooms: rooms, users: users}
}

func (s *dashboardService) ListRooms(ctx context.Context, flatToken, listType string) ([]flat.RoomItem, error) {
	switch listType {
	case "":
		listType = flat.ListAll
	case flat.ListAll, flat.ListToday, flat.ListPeriodic, flat.ListHistory:
	default:
		return nil, apperrors.NewBadRequestError("Unknown room list type")
	}

	rooms, err := s.rooms.ListAll(ctx, flatToken, listType)
	if err != nil {
		return nil, handleDashboardError(err, "Failed to list rooms")
	}
	flat.SortRoomsByBegin(rooms)
	return rooms, nil
}

func (s *dashboardService) RoomInfo(ctx context.Context, flatToken, roomUUID string) (*flat.RoomInfo, error) {
	info, err := s.rooms.Info(ctx, flatToken, roomUUID)
	if err != nil {
		return nil, handleDashboardError(err, "Failed to load room")
	}
	return info, nil
}

func (s *dashboardService) StopRoom(ctx context.Context, flatToken, roomUUID string) error {
	if err := s.rooms.Stop(ctx, flatToken, roomUUID); err != nil {
		return handleDashboardError(err, "Failed to stop room")
	}
	return nil
}

func (s *dashboardService) Participants(ctx context.Context, flatToken, roomUUID string) ([]flat.Participant, error) {
	participants, err := s.rooms.AllParticipants(ctx, flatToken, roomUUID, flat.DefaultPageSize)
	if err != nil {
		return nil, handleDashboardError(err, "Failed to load participants")
	}
	return participants, nil
}

func (s *dashboardService) Timeline(ctx context.Context, flatToken, roomUUID string) ([]flat.UserInOutRecord, error) {
	records, err := s.users.AllInOutRecords(ctx, flatToken, roomUUID, flat.DefaultPageSize)
	if err != nil {
		return nil, handleDashboardError(err, "Failed to load room timeline")
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].JoinTime < records[j].JoinTime })
	return records, nil
}

func (s *dashboardService) OrganizationUsers(ctx context.Context, flatToken string) ([]flat.OrgUser, error) {
	users, err := s.users.AllOrganizationUsers(ctx, flatToken, flat.DefaultPageSize)
	if err != nil {
		return nil, handleDashboardError(err, "Failed to load organization users")
	}
	return users, nil
}

// handleDashboardError: истекший токен Flat в сессии -> 401, комната не
// найдена -> 404, остальное как ошибка внешнего сервиса.
func handleDashboardError(err error, message string) error {
	switch {
	case flat.HasCode(err, flat.CodeNeedLoginAgain):
		return apperrors.ErrInvalidToken.WithError(err)
	case flat.IsRoomNotFound(err):
		return apperrors.NewNotFoundError("room", "Room not found")
	}
	return handleUpstreamError(err, message)
}

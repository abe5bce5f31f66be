package services

import (
	"context"
	"testing"
	"time"

	"meetspace_backend/internal/cache"
	"meetspace_backend/internal/flat"
	"meetspace_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ms(t time.Time) int64 { return t.UnixMilli() }

func analyticsFixture() ([]flat.RoomItem, map[string][]flat.UserInOutRecord) {
	base := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	rooms := []flat.RoomItem{
		{RoomUUID: "r1", Title: "Standup", BeginTime: ms(base)},
		{RoomUUID: "r2", Title: "Review", BeginTime: ms(base.Add(24 * time.Hour))},
	}
	records := map[string][]flat.UserInOutRecord{
		"r1": {
			{UserUUID: "u1", RoomUUID: "r1", JoinTime: ms(base), LeaveTime: ms(base.Add(10 * time.Minute))},
			{UserUUID: "u2", RoomUUID: "r1", JoinTime: ms(base.Add(time.Minute)), LeaveTime: ms(base.Add(6 * time.Minute))},
		},
		"r2": {
			{UserUUID: "u1", RoomUUID: "r2", JoinTime: ms(base.Add(24 * time.Hour)), LeaveTime: ms(base.Add(24*time.Hour + 30*time.Minute))},
		},
	}
	return rooms, records
}

func TestBuildAnalytics(t *testing.T) {
	rooms, byRoom := analyticsFixture()
	records := [][]flat.UserInOutRecord{byRoom["r1"], byRoom["r2"]}

	summary := BuildAnalytics(rooms, records, june2024, time.UTC)

	assert.Equal(t, 2, summary.TotalRooms)
	assert.Equal(t, 45, summary.TotalMinutes)
	require.Len(t, summary.Rooms, 2)
	assert.Equal(t, "r2", summary.Rooms[0].RoomUUID, "комнаты отсортированы по минутам")
	assert.Equal(t, 30, summary.Rooms[0].Minutes)
	assert.Equal(t, 40, summary.MinutesByUser["u1"])
	assert.Equal(t, 5, summary.MinutesByUser["u2"])
	assert.Equal(t, 3, summary.JoinsByHour[9])
}

func TestAnalyticsSummary_Cached(t *testing.T) {
	rooms, records := analyticsFixture()
	fr := &fakeRooms{rooms: rooms}
	fu := &fakeUsers{records: records}
	svc := NewAnalyticsService(fr, fu, cache.NewMemory())

	first, err := svc.Summary(context.Background(), "cust-1", "flat-token")
	require.NoError(t, err)
	assert.Equal(t, 2, fu.calls)

	second, err := svc.Summary(context.Background(), "cust-1", "flat-token")
	require.NoError(t, err)
	assert.Equal(t, 2, fu.calls, "повторный запрос берется из кеша")
	assert.Equal(t, first.TotalMinutes, second.TotalMinutes)

	_, err = svc.Summary(context.Background(), "cust-2", "flat-token")
	require.NoError(t, err)
	assert.Equal(t, 4, fu.calls)
}

func TestDashboardErrors(t *testing.T) {
	svc := NewDashboardService(&fakeRooms{
		infoErr: &flat.APIError{Status: 1, Code: flat.CodeNeedLoginAgain, HTTPStatus: 200},
	}, &fakeUsers{})

	_, err := svc.RoomInfo(context.Background(), "expired", "room-1")
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)

	_, err = svc.ListRooms(context.Background(), "token", "weekly")
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.HTTPCode)
}

func TestDashboardTimeline_SortedByJoin(t *testing.T) {
	svc := NewDashboardService(&fakeRooms{}, &fakeUsers{records: map[string][]flat.UserInOutRecord{
		"r1": {{UserUUID: "b", JoinTime: 200}, {UserUUID: "a", JoinTime: 100}},
	}})

	records, err := svc.Timeline(context.Background(), "token", "r1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].UserUUID)
}

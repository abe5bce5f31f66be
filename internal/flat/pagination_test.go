package flat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginate_StopsWhenTotalReached(t *testing.T) {
	calls := 0
	fetch := func(_ context.Context, page, size int) (Page[int], error) {
		calls++
		return Page[int]{Items: []int{page, page}, Total: 4}, nil
	}

	items, err := Paginate(context.Background(), 2, fetch)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 2, 2}, items)
	assert.Equal(t, 2, calls, "после достижения total запросов быть не должно")
}

func TestPaginate_StopsOnShortPage(t *testing.T) {
	fetch := func(_ context.Context, page, size int) (Page[string], error) {
		if page == 3 {
			return Page[string]{Items: []string{"last"}}, nil
		}
		return Page[string]{Items: []string{"a", "b"}}, nil
	}

	items, err := Paginate(context.Background(), 2, fetch)
	require.NoError(t, err)
	assert.Len(t, items, 5)
}

func TestPaginate_EmptyFirstPage(t *testing.T) {
	fetch := func(_ context.Context, page, size int) (Page[string], error) {
		return Page[string]{}, nil
	}

	items, err := Paginate(context.Background(), 10, fetch)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestPaginate_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	fetch := func(_ context.Context, page, size int) (Page[int], error) {
		if page == 2 {
			return Page[int]{}, boom
		}
		return Page[int]{Items: []int{1}}, nil
	}

	_, err := Paginate(context.Background(), 1, fetch)
	assert.ErrorIs(t, err, boom)
}

func TestPaginate_PageLimit(t *testing.T) {
	fetch := func(_ context.Context, page, size int) (Page[int], error) {
		return Page[int]{Items: []int{page}}, nil
	}

	items, err := Paginate(context.Background(), 1, fetch)
	assert.ErrorIs(t, err, ErrPageLimit)
	assert.Len(t, items, MaxPages)
}

func TestPaginate_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Paginate(ctx, 1, func(_ context.Context, page, size int) (Page[int], error) {
		return Page[int]{Items: []int{1}}, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAggregation(t *testing.T) {
	base := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	ms := func(d time.Duration) int64 { return base.Add(d).UnixMilli() }

	records := []UserInOutRecord{
		{UserUUID: "u1", JoinTime: ms(0), LeaveTime: ms(30 * time.Minute)},
		{UserUUID: "u1", JoinTime: ms(time.Hour), LeaveTime: ms(90 * time.Minute)},
		{UserUUID: "u2", JoinTime: ms(10 * time.Minute), LeaveTime: ms(25 * time.Minute)},
		{UserUUID: "u3", JoinTime: ms(2 * time.Hour), LeaveTime: 0},
		{UserUUID: "u4", JoinTime: ms(time.Hour), LeaveTime: ms(30 * time.Minute)},
	}
	now := base.Add(2*time.Hour + 5*time.Minute)

	assert.Equal(t, 30+30+15+5, TotalMinutes(records, now))

	byUser := MinutesByUser(records, now)
	assert.Equal(t, 60, byUser["u1"])
	assert.Equal(t, 15, byUser["u2"])
	assert.Equal(t, 5, byUser["u3"])
	assert.Equal(t, 0, byUser["u4"])

	hours := JoinsByHour(records, nil)
	assert.Equal(t, 2, hours[9])
	assert.Equal(t, 2, hours[10])
	assert.Equal(t, 1, hours[11])

	assert.Equal(t, 0, RoomDurationMinutes(nil))
}

package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type countingProcessor struct {
	calls atomic.Int32
	err   error
}

func (p *countingProcessor) ProcessExpired(context.Context, *gorm.DB) (int, int, error) {
	p.calls.Add(1)
	return 1, 2, p.err
}

type countingCloser struct {
	calls atomic.Int32
}

func (c *countingCloser) CloseFinished(*gorm.DB) (int64, error) {
	c.calls.Add(1)
	return 3, nil
}

func TestSubscriptionWorker_RunsUntilCancelled(t *testing.T) {
	processor := &countingProcessor{}
	w := NewSubscriptionWorker(nil, processor, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := w.Start(ctx)

	require.Eventually(t, func() bool { return processor.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("воркер не остановился после отмены контекста")
	}
}

func TestSubscriptionWorker_ErrorDoesNotStopLoop(t *testing.T) {
	processor := &countingProcessor{err: errors.New("db down")}
	w := NewSubscriptionWorker(nil, processor, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	require.Eventually(t, func() bool { return processor.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestNewSubscriptionWorker_DefaultInterval(t *testing.T) {
	w := NewSubscriptionWorker(nil, &countingProcessor{}, 0)
	assert.Equal(t, DefaultSubscriptionInterval, w.interval)
}

func TestMeetingWorker(t *testing.T) {
	closer := &countingCloser{}
	w := NewMeetingWorker(nil, closer, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := w.Start(ctx)
	require.Eventually(t, func() bool { return closer.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

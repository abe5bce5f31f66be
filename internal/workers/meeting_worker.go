package workers

import (
	"context"
	"time"

	"meetspace_backend/internal/logger"
	"meetspace_backend/internal/metrics"

	"gorm.io/gorm"
)

type MeetingCloser interface {
	CloseFinished(db *gorm.DB) (int64, error)
}

// MeetingWorker закрывает встречи, время которых прошло.
type MeetingWorker struct {
	db       *gorm.DB
	closer   MeetingCloser
	interval time.Duration
}

func NewMeetingWorker(db *gorm.DB, closer MeetingCloser, interval time.Duration) *MeetingWorker {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &MeetingWorker{db: db, closer: closer, interval: interval}
}

func (w *MeetingWorker) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				logger.Info("Meeting worker stopped")
				return
			case <-ticker.C:
				w.RunOnce()
			}
		}
	}()
	return done
}

func (w *MeetingWorker) RunOnce() {
	n, err := w.closer.CloseFinished(w.db)
	metrics.WorkerRuns.WithLabelValues("meetings_closed").Add(float64(n))
	logger.WorkerLog("meetings", "close_finished", n, err)
}

package workers

import (
	"context"
	"time"

	"meetspace_backend/internal/logger"
	"meetspace_backend/internal/metrics"

	"gorm.io/gorm"
)

const DefaultSubscriptionInterval = time.Hour

// SubscriptionProcessor продлевает или закрывает подписки с истекшим периодом.
type SubscriptionProcessor interface {
	ProcessExpired(ctx context.Context, db *gorm.DB) (renewed, expired int, err error)
}

type SubscriptionWorker struct {
	db        *gorm.DB
	processor SubscriptionProcessor
	interval  time.Duration
}

func NewSubscriptionWorker(db *gorm.DB, processor SubscriptionProcessor, interval time.Duration) *SubscriptionWorker {
	if interval <= 0 {
		interval = DefaultSubscriptionInterval
	}
	return &SubscriptionWorker{db: db, processor: processor, interval: interval}
}

// Start запускает воркер в отдельной горутине. Возвращаемый канал
// закрывается после остановки по ctx.
func (w *SubscriptionWorker) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.run(ctx)
	}()
	return done
}

func (w *SubscriptionWorker) run(ctx context.Context) {
	// первый проход сразу после старта
	w.RunOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Subscription worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce - один проход по истекшим подпискам.
func (w *SubscriptionWorker) RunOnce(ctx context.Context) {
	renewed, expired, err := w.processor.ProcessExpired(ctx, w.db)
	metrics.WorkerRuns.WithLabelValues("renewed").Add(float64(renewed))
	metrics.WorkerRuns.WithLabelValues("expired").Add(float64(expired))
	logger.WorkerLog("subscriptions", "process_expired", int64(renewed+expired), err)
}

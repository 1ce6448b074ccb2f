package dashboard

import (
	"context"
	"log/slog"
	"time"
)

// RefreshInterval — период фонового обновления.
const RefreshInterval = 60 * time.Second

// Refresher периодически перезагружает подразделения и статистику.
// Ошибки логируются, следующая попытка — на следующем тике.
type Refresher struct {
	store    *Store
	interval time.Duration
	logger   *slog.Logger
	// onRefresh вызывается после каждого цикла обновления (может быть nil)
	onRefresh func()

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRefresher создаёт сервис обновления. interval <= 0 → RefreshInterval.
func NewRefresher(store *Store, interval time.Duration, logger *slog.Logger, onRefresh func()) *Refresher {
	if interval <= 0 {
		interval = RefreshInterval
	}
	return &Refresher{
		store:     store,
		interval:  interval,
		logger:    logger.With(slog.String("component", "dashboard_refresh")),
		onRefresh: onRefresh,
	}
}

// Start запускает фоновую горутину. Первое обновление — через interval:
// начальная загрузка выполняется вызывающим.
func (r *Refresher) Start(ctx context.Context) {
	refreshCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	go r.run(refreshCtx)

	r.logger.Debug("Refresher запущен", slog.String("interval", r.interval.String()))
}

// Stop останавливает обновление и дожидается завершения горутины.
func (r *Refresher) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.logger.Debug("Refresher остановлен")
}

func (r *Refresher) run(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Refresh(ctx)
		}
	}
}

// Refresh выполняет один цикл: список подразделений и статистика.
func (r *Refresher) Refresh(ctx context.Context) {
	if err := r.store.Load(ctx); err != nil {
		r.logger.Warn("Ошибка обновления подразделений", slog.String("error", err.Error()))
	}
	if err := r.store.RefreshStats(ctx); err != nil {
		r.logger.Warn("Ошибка обновления статистики", slog.String("error", err.Error()))
	}
	if r.onRefresh != nil {
		r.onRefresh()
	}
}

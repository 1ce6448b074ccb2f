// Мониторинг внешних зависимостей через topologymetrics: PostgreSQL (только
// драйвер postgres) и JWKS endpoint (только при включённой аутентификации).
// SQLite работает в процессе и не мониторится. Метрики app_dependency_*
// публикуются на /metrics, состояние попадает в /health/ready.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/BigKAA/topologymetrics/sdk-go/dephealth"
	_ "github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/httpcheck" // регистрирует HTTP checker
	"github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/pgcheck"
	"github.com/prometheus/client_golang/prometheus"
)

// ErrNoDependencies — мониторить нечего (SQLite без аутентификации).
var ErrNoDependencies = errors.New("нет внешних зависимостей для мониторинга")

// DephealthTargets — что мониторить. Пустые поля пропускаются.
type DephealthTargets struct {
	// DB — пул PostgreSQL в виде *sql.DB (stdlib.OpenDBFromPool)
	DB *sql.DB
	// PostgresURL — адрес PostgreSQL для меток метрик
	PostgresURL string
	// JWKSURL — адрес JWKS провайдера токенов
	JWKSURL string
}

// dependencies строит опции SDK для заданных целей.
func (t DephealthTargets) dependencies(interval time.Duration) []dephealth.Option {
	var deps []dephealth.Option
	if t.DB != nil {
		// проверка через рабочий пул видит и его исчерпание
		deps = append(deps, dephealth.AddDependency("postgresql", dephealth.TypePostgres,
			pgcheck.New(pgcheck.WithDB(t.DB)),
			dephealth.FromURL(t.PostgresURL),
			dephealth.CheckInterval(interval),
			dephealth.Critical(true),
		))
	}
	if t.JWKSURL != "" {
		deps = append(deps, dephealth.HTTP("jwks",
			dephealth.FromURL(t.JWKSURL),
			dephealth.WithHTTPHealthPath(healthPath(t.JWKSURL)),
			dephealth.CheckInterval(interval),
			dephealth.Critical(true),
		))
	}
	return deps
}

// healthPath — путь JWKS для HTTP-проверки, "/" если путь пуст.
func healthPath(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		return u.Path
	}
	return "/"
}

// DephealthService — периодические проверки зависимостей.
type DephealthService struct {
	dh     *dephealth.DepHealth
	logger *slog.Logger
}

// NewDephealthService регистрирует метрики в глобальном registry Prometheus.
func NewDephealthService(
	serviceID, group string,
	targets DephealthTargets,
	checkInterval time.Duration,
	logger *slog.Logger,
) (*DephealthService, error) {
	return newDephealthService(serviceID, group, targets, checkInterval, logger)
}

// NewDephealthServiceWithRegisterer — то же с отдельным registerer (для тестов).
func NewDephealthServiceWithRegisterer(
	serviceID, group string,
	targets DephealthTargets,
	checkInterval time.Duration,
	logger *slog.Logger,
	registerer prometheus.Registerer,
) (*DephealthService, error) {
	return newDephealthService(serviceID, group, targets, checkInterval, logger,
		dephealth.WithRegisterer(registerer))
}

func newDephealthService(
	serviceID, group string,
	targets DephealthTargets,
	checkInterval time.Duration,
	logger *slog.Logger,
	extra ...dephealth.Option,
) (*DephealthService, error) {
	deps := targets.dependencies(checkInterval)
	if len(deps) == 0 {
		return nil, ErrNoDependencies
	}

	opts := append([]dephealth.Option{dephealth.WithLogger(logger)}, deps...)
	dh, err := dephealth.New(serviceID, group, append(opts, extra...)...)
	if err != nil {
		return nil, err
	}
	return &DephealthService{
		dh:     dh,
		logger: logger.With(slog.String("component", "dephealth")),
	}, nil
}

// Start запускает проверки в фоне.
func (ds *DephealthService) Start(ctx context.Context) error {
	if err := ds.dh.Start(ctx); err != nil {
		return err
	}
	ds.logger.Info("Мониторинг зависимостей запущен")
	return nil
}

// Stop останавливает проверки.
func (ds *DephealthService) Stop() {
	ds.dh.Stop()
	ds.logger.Info("Мониторинг зависимостей остановлен")
}

// Health — доступность зависимостей по имени.
func (ds *DephealthService) Health() map[string]bool {
	return ds.dh.Health()
}

package handlers

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bigkaa/unit-tracker/internal/config"
)

const serviceName = "unit-tracker"

// Статусы проверок в порядке ухудшения.
const (
	statusOK       = "ok"
	statusDegraded = "degraded"
	statusFail     = "fail"
)

// ReadinessChecker — проверка готовности хранилища.
type ReadinessChecker interface {
	// CheckReady возвращает "ok", "degraded" или "fail" и пояснение.
	CheckReady() (status string, message string)
}

// HealthReporter — состояние внешних зависимостей по имени (topologymetrics).
type HealthReporter interface {
	Health() map[string]bool
}

// HealthHandler обслуживает /health/live, /health/ready и /metrics.
type HealthHandler struct {
	dbChecker   ReadinessChecker
	deps        HealthReporter
	promHandler http.Handler
}

// NewHealthHandler создаёт обработчик. Без dbChecker readiness всегда fail,
// без deps проверка зависимостей в ответ не попадает.
func NewHealthHandler(dbChecker ReadinessChecker, deps HealthReporter) *HealthHandler {
	return &HealthHandler{
		dbChecker:   dbChecker,
		deps:        deps,
		promHandler: promhttp.Handler(),
	}
}

type checkResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// healthResponse — тело ответа обоих probe; checks только у readiness.
type healthResponse struct {
	Status    string                 `json:"status"`
	Service   string                 `json:"service"`
	Version   string                 `json:"version"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]checkResult `json:"checks,omitempty"`
}

func newHealthResponse(status string) healthResponse {
	return healthResponse{
		Status:    status,
		Service:   serviceName,
		Version:   config.Version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// HealthLive отвечает 200, пока процесс обслуживает запросы.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newHealthResponse(statusOK))
}

// HealthReady отвечает 503, если хранилище недоступно. Недоступная
// внешняя зависимость даёт degraded с кодом 200.
func (h *HealthHandler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	checks := make(map[string]checkResult, 2)

	db := checkResult{Status: statusFail, Message: "хранилище не подключено"}
	if h.dbChecker != nil {
		db.Status, db.Message = h.dbChecker.CheckReady()
	}
	checks["database"] = db

	if h.deps != nil {
		var dep checkResult
		dep.Status, dep.Message = dependencyStatus(h.deps.Health())
		checks["dependencies"] = dep
	}

	resp := newHealthResponse(statusOK)
	for _, c := range checks {
		resp.Status = worse(resp.Status, c.Status)
	}
	resp.Checks = checks

	code := http.StatusOK
	if resp.Status == statusFail {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

// GetMetrics отдаёт метрики Prometheus.
func (h *HealthHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.promHandler.ServeHTTP(w, r)
}

// dependencyStatus: все доступны (или ещё не проверялись) → ok,
// иначе degraded со списком недоступных.
func dependencyStatus(health map[string]bool) (string, string) {
	if len(health) == 0 {
		return statusOK, "проверки ещё не выполнялись"
	}
	var down []string
	for name, up := range health {
		if !up {
			down = append(down, name)
		}
	}
	if len(down) == 0 {
		return statusOK, fmt.Sprintf("зависимостей доступно: %d", len(health))
	}
	slices.Sort(down)
	return statusDegraded, "недоступны: " + strings.Join(down, ", ")
}

// worse возвращает худший из двух статусов; неизвестный считается fail.
func worse(a, b string) string {
	rank := func(s string) int {
		switch s {
		case statusOK:
			return 0
		case statusDegraded:
			return 1
		}
		return 2
	}
	if rank(b) > rank(a) {
		if rank(b) == 2 {
			return statusFail
		}
		return b
	}
	return a
}

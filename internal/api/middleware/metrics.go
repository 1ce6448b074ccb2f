// metrics.go — Prometheus HTTP метрики unit-tracker.
// Регистрирует метрики: ut_http_requests_total, ut_http_request_duration_seconds.
// Нормализация путей не даёт id и поисковым строкам попасть в лейблы.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ut_http_requests_total",
			Help: "Общее количество HTTP-запросов к unit-tracker",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ut_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к unit-tracker в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			path := normalizePath(r.URL.Path)

			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
			httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// normalizePath сворачивает динамические сегменты:
// /api/units/42 → /api/units/{id}
// /api/units/search/штаб → /api/units/search/{term}
// Неизвестные пути сворачиваются в "other".
func normalizePath(path string) string {
	switch path {
	case "/api/units", "/api/stats", "/api/statuses",
		"/health/live", "/health/ready", "/metrics", "/openapi.yaml":
		return path
	}

	const unitsPrefix = "/api/units/"
	const searchPrefix = unitsPrefix + "search/"
	switch {
	case strings.HasPrefix(path, searchPrefix):
		return searchPrefix + "{term}"
	case strings.HasPrefix(path, unitsPrefix) && !strings.Contains(path[len(unitsPrefix):], "/"):
		return unitsPrefix + "{id}"
	}
	return "other"
}

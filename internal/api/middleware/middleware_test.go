package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/units", "/api/units"},
		{"/api/units/42", "/api/units/{id}"},
		{"/api/units/abc", "/api/units/{id}"},
		{"/api/units/search/штаб", "/api/units/search/{term}"},
		{"/api/units/search/a/b", "/api/units/search/{term}"},
		{"/api/units/1/extra", "other"},
		{"/api/stats", "/api/stats"},
		{"/health/ready", "/health/ready"},
		{"/favicon.ico", "other"},
	}
	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, ожидался %q", tt.path, got, tt.want)
		}
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	// Сгенерированный идентификатор
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(seen) != 36 || w.Header().Get(HeaderRequestID) != seen {
		t.Errorf("сгенерирован %q, заголовок %q", seen, w.Header().Get(HeaderRequestID))
	}

	// Входящий идентификатор сохраняется
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if seen != "abc-123" || w.Header().Get(HeaderRequestID) != "abc-123" {
		t.Errorf("входящий id потерян: %q", seen)
	}
}

func TestRequestLogger_Level(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "level=INFO"},
		{http.StatusNotFound, "level=WARN"},
		{http.StatusInternalServerError, "level=ERROR"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tt.status)
			_, _ = w.Write([]byte("12345"))
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/units", nil))

		out := buf.String()
		if !strings.Contains(out, tt.level) || !strings.Contains(out, "bytes=5") {
			t.Errorf("статус %d: лог %q", tt.status, out)
		}
	}
}

func TestMetricsMiddleware_PassesStatus(t *testing.T) {
	h := MetricsMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/units/7", nil))
	if w.Code != http.StatusTeapot {
		t.Errorf("статус = %d", w.Code)
	}
}

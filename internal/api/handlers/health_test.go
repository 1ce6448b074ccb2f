package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubChecker struct {
	status, message string
}

func (s stubChecker) CheckReady() (string, string) { return s.status, s.message }

type stubReporter map[string]bool

func (s stubReporter) Health() map[string]bool { return s }

func TestHealthReady(t *testing.T) {
	tests := []struct {
		name       string
		db         ReadinessChecker
		deps       HealthReporter
		wantStatus string
		wantCode   int
	}{
		{"всё доступно", stubChecker{"ok", ""}, stubReporter{"jwks": true}, "ok", http.StatusOK},
		{"без зависимостей", stubChecker{"ok", ""}, nil, "ok", http.StatusOK},
		{"зависимость недоступна", stubChecker{"ok", ""}, stubReporter{"jwks": false}, "degraded", http.StatusOK},
		{"хранилище недоступно", stubChecker{"fail", "ping"}, stubReporter{"jwks": true}, "fail", http.StatusServiceUnavailable},
		{"хранилище не инициализировано", nil, nil, "fail", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.db, tt.deps)
			w := httptest.NewRecorder()
			h.HealthReady(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			if w.Code != tt.wantCode {
				t.Errorf("код = %d, ожидался %d", w.Code, tt.wantCode)
			}
			var resp healthResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("статус = %q, ожидался %q", resp.Status, tt.wantStatus)
			}
			if _, ok := resp.Checks["database"]; !ok {
				t.Error("нет проверки database")
			}
			if _, ok := resp.Checks["dependencies"]; ok != (tt.deps != nil) {
				t.Errorf("наличие dependencies = %v", ok)
			}
		})
	}
}

func TestHealthLive(t *testing.T) {
	h := NewHealthHandler(nil, nil)
	w := httptest.NewRecorder()
	h.HealthLive(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	var resp healthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if w.Code != http.StatusOK || resp.Status != "ok" || resp.Service != serviceName {
		t.Errorf("ответ = %d %+v", w.Code, resp)
	}
}

func TestDependencyStatus(t *testing.T) {
	st, msg := dependencyStatus(map[string]bool{"b": false, "a": false, "c": true})
	if st != "degraded" || msg != "недоступны: a, b" {
		t.Errorf("= %q %q", st, msg)
	}
	if st, _ := dependencyStatus(nil); st != "ok" {
		t.Errorf("пустое состояние = %q", st)
	}
}

func TestWorse(t *testing.T) {
	tests := []struct{ a, b, want string }{
		{"ok", "ok", "ok"},
		{"ok", "degraded", "degraded"},
		{"degraded", "ok", "degraded"},
		{"degraded", "fail", "fail"},
		{"ok", "unknown", "fail"},
	}
	for _, tt := range tests {
		if got := worse(tt.a, tt.b); got != tt.want {
			t.Errorf("worse(%q, %q) = %q, ожидался %q", tt.a, tt.b, got, tt.want)
		}
	}
}

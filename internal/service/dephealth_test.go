package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewDephealthService_NoTargets(t *testing.T) {
	_, err := NewDephealthServiceWithRegisterer(
		"unit-tracker", "test", DephealthTargets{}, time.Second, testLogger(), prometheus.NewRegistry())
	if !errors.Is(err, ErrNoDependencies) {
		t.Fatalf("ожидалась ErrNoDependencies, получено %v", err)
	}
}

func TestNewDephealthService_JWKSOnly(t *testing.T) {
	ds, err := NewDephealthServiceWithRegisterer("unit-tracker", "test",
		DephealthTargets{JWKSURL: "http://keycloak.local:8080/realms/units/protocol/openid-connect/certs"},
		15*time.Second, testLogger(), prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewDephealthServiceWithRegisterer: %v", err)
	}
	if ds == nil {
		t.Fatal("ожидался сервис")
	}
}

func TestDephealthService_JWKSStartStop(t *testing.T) {
	jwks := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"keys":[]}`))
	}))
	defer jwks.Close()

	ds, err := NewDephealthServiceWithRegisterer(
		"unit-tracker", "test",
		DephealthTargets{JWKSURL: jwks.URL + "/realms/units/protocol/openid-connect/certs"},
		time.Second,
		testLogger(),
		prometheus.NewRegistry(),
	)
	if err != nil {
		t.Fatalf("NewDephealthService: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := ds.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	ds.Stop()
}

func TestHealthPath(t *testing.T) {
	tests := []struct{ in, want string }{
		{"http://idp:8080/realms/units/protocol/openid-connect/certs", "/realms/units/protocol/openid-connect/certs"},
		{"http://idp:8080", "/"},
		{"://bad", "/"},
	}
	for _, tt := range tests {
		if got := healthPath(tt.in); got != tt.want {
			t.Errorf("healthPath(%q) = %q, ожидался %q", tt.in, got, tt.want)
		}
	}
}

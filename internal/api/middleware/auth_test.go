package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

const (
	testKeyID  = "test-key-ut"
	testIssuer = "https://idp.test/realms/units"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func generateTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	return key
}

// buildJWKSetJSON строит JWKS JSON из RSA публичного ключа.
func buildJWKSetJSON(pub *rsa.PublicKey, kid string) json.RawMessage {
	data, _ := json.Marshal(map[string]any{
		"keys": []map[string]any{{
			"kty": "RSA",
			"kid": kid,
			"use": "sig",
			"alg": "RS256",
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	})
	return data
}

func newTestJWTAuth(t *testing.T, key *rsa.PrivateKey) *JWTAuth {
	t.Helper()
	kf, err := keyfunc.NewJWKSetJSON(buildJWKSetJSON(&key.PublicKey, testKeyID))
	if err != nil {
		t.Fatalf("не удалось создать keyfunc: %v", err)
	}
	return NewJWTAuthWithKeyfunc(kf, testIssuer,
		[]string{"ut-admins"}, []string{"ut-viewers"}, testLogger())
}

// signToken подписывает токен; mutate позволяет испортить claims.
func signToken(t *testing.T, key *rsa.PrivateKey, groups []string, mutate func(jwt.MapClaims)) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":                "user-1",
		"preferred_username": "operator",
		"iss":                testIssuer,
		"exp":                jwt.NewNumericDate(time.Now().Add(time.Hour)),
		"iat":                jwt.NewNumericDate(time.Now()),
		"groups":             groups,
	}
	if mutate != nil {
		mutate(claims)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID
	s, err := token.SignedString(key)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func protected(auth *JWTAuth) http.Handler {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return auth.Middleware()(RequireMethodRole()(ok))
}

func TestJWTAuth(t *testing.T) {
	key := generateTestKey(t)
	otherKey := generateTestKey(t)
	h := protected(newTestJWTAuth(t, key))

	tests := []struct {
		name   string
		method string
		header string
		want   int
	}{
		{"нет заголовка", http.MethodGet, "", http.StatusUnauthorized},
		{"не Bearer", http.MethodGet, "Basic abc", http.StatusUnauthorized},
		{"пустой токен", http.MethodGet, "Bearer ", http.StatusUnauthorized},
		{"мусор", http.MethodGet, "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"чужая подпись", http.MethodGet, "Bearer " + signToken(t, otherKey, []string{"ut-admins"}, nil), http.StatusUnauthorized},
		{"просрочен", http.MethodGet, "Bearer " + signToken(t, key, []string{"ut-admins"}, func(c jwt.MapClaims) {
			c["exp"] = jwt.NewNumericDate(time.Now().Add(-time.Hour))
		}), http.StatusUnauthorized},
		{"чужой issuer", http.MethodGet, "Bearer " + signToken(t, key, []string{"ut-admins"}, func(c jwt.MapClaims) {
			c["iss"] = "https://evil.test"
		}), http.StatusUnauthorized},
		{"без sub", http.MethodGet, "Bearer " + signToken(t, key, []string{"ut-admins"}, func(c jwt.MapClaims) {
			delete(c, "sub")
		}), http.StatusUnauthorized},
		{"readonly читает", http.MethodGet, "Bearer " + signToken(t, key, []string{"ut-viewers"}, nil), http.StatusNoContent},
		{"readonly не пишет", http.MethodPost, "Bearer " + signToken(t, key, []string{"ut-viewers"}, nil), http.StatusForbidden},
		{"admin пишет", http.MethodDelete, "Bearer " + signToken(t, key, []string{"ut-viewers", "ut-admins"}, nil), http.StatusNoContent},
		{"без роли", http.MethodGet, "Bearer " + signToken(t, key, []string{"others"}, nil), http.StatusForbidden},
		{"роль из realm_access", http.MethodPut, "Bearer " + signToken(t, key, nil, func(c jwt.MapClaims) {
			c["realm_access"] = map[string]any{"roles": []string{"offline_access", "admin"}}
		}), http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/units", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("статус = %d, ожидался %d (%s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestJWTAuth_ClaimsInContext(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	var got *AuthClaims
	h := auth.Middleware()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = ClaimsFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/units", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, key, []string{"ut-viewers"}, nil))
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("claims не найдены в контексте")
	}
	if got.Subject != "user-1" || got.Username != "operator" || got.Role != RoleReadonly {
		t.Errorf("claims = %+v", got)
	}
}

func TestRequireMethodRole_NoClaims(t *testing.T) {
	h := RequireMethodRole()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("обработчик не должен вызываться")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/units", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("статус = %d", w.Code)
	}
}

func TestMapGroupsToRole(t *testing.T) {
	admins, viewers := []string{"a"}, []string{"v"}
	tests := []struct {
		groups []string
		want   string
	}{
		{nil, ""},
		{[]string{"x"}, ""},
		{[]string{"v"}, RoleReadonly},
		{[]string{"a"}, RoleAdmin},
		{[]string{"a", "v"}, RoleAdmin},
		{[]string{"v", "a"}, RoleAdmin},
	}
	for _, tt := range tests {
		if got := MapGroupsToRole(tt.groups, admins, viewers); got != tt.want {
			t.Errorf("MapGroupsToRole(%v) = %q, ожидалась %q", tt.groups, got, tt.want)
		}
	}
}

func TestRoleAllows(t *testing.T) {
	if !RoleAllows(RoleAdmin, RequiredRole(http.MethodPost)) {
		t.Error("admin должен иметь право на POST")
	}
	if RoleAllows(RoleReadonly, RequiredRole(http.MethodPut)) {
		t.Error("readonly не должен иметь право на PUT")
	}
	if !RoleAllows(RoleReadonly, RequiredRole(http.MethodGet)) {
		t.Error("readonly должен иметь право на GET")
	}
	if RoleAllows("", RoleReadonly) {
		t.Error("пустая роль не должна давать доступ")
	}
}

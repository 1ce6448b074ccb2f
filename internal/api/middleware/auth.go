// auth.go — JWT middleware для аутентификации и авторизации API.
// Подпись проверяется по JWKS (RS256), группы из токена маппятся в роль,
// роль сверяется с HTTP-методом запроса.
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	apierrors "github.com/bigkaa/unit-tracker/internal/api/errors"
	"github.com/bigkaa/unit-tracker/internal/i18n"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

// ContextKeyClaims — claims аутентифицированного субъекта.
const ContextKeyClaims contextKey = "jwt_claims"

// AuthClaims — claims субъекта, помещаемые в контекст запроса.
type AuthClaims struct {
	// Subject — sub из JWT
	Subject string
	// Username — preferred_username из JWT
	Username string
	// Groups — группы IdP
	Groups []string
	// Role — вычисленная роль (admin, readonly или пусто)
	Role string
}

// tokenClaims — raw claims JWT.
type tokenClaims struct {
	jwt.RegisteredClaims
	PreferredUsername string   `json:"preferred_username"`
	Groups            []string `json:"groups,omitempty"`
	RealmAccess       *struct {
		Roles []string `json:"roles"`
	} `json:"realm_access,omitempty"`
}

// JWTAuth — middleware JWT-аутентификации через JWKS.
type JWTAuth struct {
	jwks           keyfunc.Keyfunc
	logger         *slog.Logger
	adminGroups    []string
	readonlyGroups []string
	issuer         string
	leeway         time.Duration
}

// NewJWTAuth создаёт JWT middleware с фоновым обновлением JWKS.
// Старт не блокируется недоступностью JWKS endpoint.
func NewJWTAuth(
	jwksURL string,
	issuer string,
	adminGroups, readonlyGroups []string,
	refreshInterval time.Duration,
	leeway time.Duration,
	logger *slog.Logger,
) (*JWTAuth, error) {
	storage, err := jwkset.NewStorageFromHTTP(jwksURL, jwkset.HTTPClientStorageOptions{
		Client:                    &http.Client{Timeout: 10 * time.Second},
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           refreshInterval,
		RefreshErrorHandler: func(_ context.Context, err error) {
			logger.Error("Ошибка обновления JWKS",
				slog.String("error", err.Error()),
				slog.String("url", jwksURL),
			)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("создание JWKS storage: %w", err)
	}

	k, err := keyfunc.New(keyfunc.Options{Storage: storage})
	if err != nil {
		return nil, fmt.Errorf("создание keyfunc: %w", err)
	}

	a := NewJWTAuthWithKeyfunc(k, issuer, adminGroups, readonlyGroups, logger)
	a.leeway = leeway
	return a, nil
}

// NewJWTAuthWithKeyfunc создаёт JWT middleware с предоставленной keyfunc.
// Используется в тестах для подстановки JWKS.
func NewJWTAuthWithKeyfunc(
	kf keyfunc.Keyfunc,
	issuer string,
	adminGroups, readonlyGroups []string,
	logger *slog.Logger,
) *JWTAuth {
	return &JWTAuth{
		jwks:           kf,
		logger:         logger.With(slog.String("component", "jwt_auth")),
		adminGroups:    adminGroups,
		readonlyGroups: readonlyGroups,
		issuer:         issuer,
	}
}

// Middleware проверяет Bearer token и помещает AuthClaims в контекст.
// Роль не проверяется, см. RequireMethodRole.
func (j *JWTAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			tokenString, ok := bearerToken(r)
			if !ok {
				apierrors.Unauthorized(w, i18n.T(ctx, "api.unauthorized"))
				return
			}

			raw := &tokenClaims{}
			opts := []jwt.ParserOption{
				jwt.WithValidMethods([]string{"RS256"}),
				jwt.WithExpirationRequired(),
				jwt.WithLeeway(j.leeway),
			}
			if j.issuer != "" {
				opts = append(opts, jwt.WithIssuer(j.issuer))
			}

			token, err := jwt.ParseWithClaims(tokenString, raw, j.jwks.KeyfuncCtx(ctx), opts...)
			if err != nil || !token.Valid {
				j.logger.Debug("JWT валидация не пройдена",
					slog.Any("error", err),
					slog.String("remote_addr", r.RemoteAddr),
				)
				apierrors.Unauthorized(w, i18n.T(ctx, "api.unauthorized"))
				return
			}
			if raw.Subject == "" {
				apierrors.Unauthorized(w, i18n.T(ctx, "api.unauthorized"))
				return
			}

			claims := j.buildClaims(raw)
			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, ContextKeyClaims, claims)))
		})
	}
}

// buildClaims вычисляет роль: сначала по группам,
// затем по realm_access.roles с именами ролей.
func (j *JWTAuth) buildClaims(raw *tokenClaims) *AuthClaims {
	claims := &AuthClaims{
		Subject:  raw.Subject,
		Username: raw.PreferredUsername,
		Groups:   raw.Groups,
		Role:     MapGroupsToRole(raw.Groups, j.adminGroups, j.readonlyGroups),
	}
	if claims.Role == "" && raw.RealmAccess != nil {
		for _, r := range raw.RealmAccess.Roles {
			if _, ok := roleWeight[r]; ok {
				claims.Role = maxRole(claims.Role, r)
			}
		}
	}
	return claims
}

// bearerToken извлекает токен из заголовка Authorization.
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireMethodRole требует роль, соответствующую HTTP-методу (RequiredRole).
// Должен использоваться ПОСЛЕ JWTAuth.Middleware().
func RequireMethodRole() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				apierrors.Unauthorized(w, i18n.T(r.Context(), "api.unauthorized"))
				return
			}
			if !RoleAllows(claims.Role, RequiredRole(r.Method)) {
				apierrors.Forbidden(w, i18n.T(r.Context(), "api.forbidden"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClaimsFromContext извлекает AuthClaims из контекста запроса.
// Возвращает nil, если claims не найдены.
func ClaimsFromContext(ctx context.Context) *AuthClaims {
	claims, _ := ctx.Value(ContextKeyClaims).(*AuthClaims)
	return claims
}

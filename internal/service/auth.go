// Package service contains the orchestration layer: token validation and the
// typed event publishers.
package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/elevatecrm/realtime/internal/adapter/ristretto"
	"github.com/elevatecrm/realtime/internal/domain"
	"github.com/elevatecrm/realtime/internal/port/directory"
)

// Claims is the validated identity extracted from an access token.
type Claims struct {
	UserID   string
	TenantID string
}

// tokenClaims is the raw JWT claim set issued by the platform's auth
// service. tenant_id may be absent on older tokens; the directory resolves
// the tenant in that case.
type tokenClaims struct {
	TenantID string `json:"tenant_id"`
	jwt.RegisteredClaims
}

// AuthService validates access tokens for websocket admission. Validated
// claims are memoized in an in-process cache bounded by token expiry, since
// reconnect storms re-present the same token many times.
type AuthService struct {
	secret []byte
	cache  *ristretto.Cache[Claims]
	dir    directory.Directory // nil when no database is configured
}

// NewAuthService creates an AuthService. dir may be nil; tokens must then
// carry a tenant_id claim.
func NewAuthService(secret string, cache *ristretto.Cache[Claims], dir directory.Directory) *AuthService {
	return &AuthService{
		secret: []byte(secret),
		cache:  cache,
		dir:    dir,
	}
}

// ValidateToken verifies the token signature and expiry and returns the
// user/tenant identity. Any failure maps to domain.ErrInvalidToken.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (Claims, error) {
	if token == "" {
		return Claims{}, domain.ErrInvalidToken
	}
	if s.cache != nil {
		if c, ok := s.cache.Get(token); ok {
			return c, nil
		}
	}

	var tc tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &tc, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}

	userID := tc.Subject
	if userID == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", domain.ErrInvalidToken)
	}

	tenantID := tc.TenantID
	if tenantID == "" {
		if s.dir == nil {
			return Claims{}, fmt.Errorf("%w: missing tenant", domain.ErrInvalidToken)
		}
		tenantID, err = s.dir.UserTenant(ctx, userID)
		if err != nil {
			return Claims{}, fmt.Errorf("%w: resolve tenant: %v", domain.ErrInvalidToken, err)
		}
	}

	c := Claims{UserID: userID, TenantID: tenantID}

	if s.cache != nil && tc.ExpiresAt != nil {
		if ttl := time.Until(tc.ExpiresAt.Time); ttl > 0 {
			s.cache.Set(token, c, ttl)
		}
	}

	return c, nil
}

// TokenFromRequest extracts the access token from the Authorization header,
// falling back to the "token" query parameter used by browser websocket
// clients that cannot set headers.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token := strings.TrimPrefix(h, "Bearer "); token != h {
			return token
		}
	}
	return r.URL.Query().Get("token")
}

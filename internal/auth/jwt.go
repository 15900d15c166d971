package auth

import (
	"errors"
	"fmt"
	"time"

	"construction-platform/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// RefreshTokenTTL is fixed; only the access token lifetime is configurable.
const RefreshTokenTTL = 30 * 24 * time.Hour

// Manager issues and verifies HS256 tokens. The secret is read once at
// startup; rotating it invalidates every outstanding token.
type Manager struct {
	secret    []byte
	issuer    string
	audience  string
	accessTTL time.Duration
	now       func() time.Time
}

func NewManager(cfg config.AuthConfig) (*Manager, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.JWTIssuer == "" || cfg.JWTAudience == "" {
		return nil, errors.New("JWT_ISSUER and JWT_AUDIENCE are required")
	}
	if cfg.AccessTokenTTL <= 0 {
		return nil, errors.New("access token ttl must be > 0")
	}

	return &Manager{
		secret:    []byte(cfg.JWTSecret),
		issuer:    cfg.JWTIssuer,
		audience:  cfg.JWTAudience,
		accessTTL: cfg.AccessTokenTTL,
		now:       time.Now,
	}, nil
}

// WithClock returns a copy of m reading time from now. Used for expiry tests
// and for deterministic issuance.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	cp := *m
	cp.now = now
	return &cp
}

func (m *Manager) AccessTTL() time.Duration { return m.accessTTL }

/* ===================== ISSUE TOKENS ===================== */

// IssueAccessToken signs claims with a now+TTL expiry. Identical claims,
// clock and secret produce an identical token.
func (m *Manager) IssueAccessToken(claims TokenClaims) (string, error) {
	if claims.UserID == "" {
		return "", errors.New("auth: user id required")
	}
	if !claims.Role.Valid() {
		return "", fmt.Errorf("auth: invalid role %q", claims.Role)
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		RegisteredClaims: m.envelope(claims.UserID, m.accessTTL),
		TokenClaims:      claims,
	})
	return t.SignedString(m.secret)
}

// IssueRefreshToken signs an envelope with no identity claims.
func (m *Manager) IssueRefreshToken() (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims{
		RegisteredClaims: m.envelope("", RefreshTokenTTL),
	})
	return t.SignedString(m.secret)
}

func (m *Manager) envelope(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := m.now()
	return jwt.RegisteredClaims{
		Issuer:    m.issuer,
		Subject:   subject,
		Audience:  jwt.ClaimStrings{m.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

/* ===================== VERIFY TOKEN ===================== */

// Verify checks signature, algorithm, issuer, audience and expiry and returns
// the embedded claims. Failures wrap ErrTokenExpired or ErrTokenInvalid.
func (m *Manager) Verify(tokenString string) (TokenClaims, error) {
	var claims accessClaims

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(m.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)

	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return TokenClaims{}, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return TokenClaims{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	// Refresh tokens verify cryptographically but carry no identity.
	if claims.UserID == "" || claims.Subject != claims.UserID {
		return TokenClaims{}, fmt.Errorf("%w: subject missing", ErrTokenInvalid)
	}
	if !claims.Role.Valid() {
		return TokenClaims{}, fmt.Errorf("%w: unknown role %q", ErrTokenInvalid, claims.Role)
	}

	return claims.TokenClaims, nil
}

package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"construction-platform/internal/users"
)

// TokenClaims is the identity carried by an access token. It is immutable
// once issued; changed claims need a new token.
type TokenClaims struct {
	UserID string     `json:"userId"`
	Email  string     `json:"email"`
	Role   users.Role `json:"role"`
}

// accessClaims is the signed shape of an access token. Subject mirrors UserID.
type accessClaims struct {
	jwt.RegisteredClaims
	TokenClaims
}

// refreshClaims carries the envelope only.
type refreshClaims struct {
	jwt.RegisteredClaims
}

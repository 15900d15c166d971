package auth

import "errors"

var (
	// ErrTokenInvalid covers malformed tokens, bad signatures and issuer/audience mismatch.
	ErrTokenInvalid = errors.New("auth: token invalid")
	// ErrTokenExpired is returned once the token is past its expiry.
	ErrTokenExpired = errors.New("auth: token expired")

	// ErrUserNotFound and ErrUserInactive both reject the request with
	// INVALID_USER; they stay distinct for logging.
	ErrUserNotFound = errors.New("auth: user not found")
	ErrUserInactive = errors.New("auth: user inactive")
)

// Package apierror owns the JSON envelope every rejected request receives.
package apierror

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Code string

const (
	CodeAuthRequired          Code = "AUTH_REQUIRED"
	CodeInvalidUser           Code = "INVALID_USER"
	CodeInvalidToken          Code = "INVALID_TOKEN"
	CodeForbidden             Code = "FORBIDDEN"
	CodeRateLimitExceeded     Code = "RATE_LIMIT_EXCEEDED"
	CodeAuthRateLimitExceeded Code = "AUTH_RATE_LIMIT_EXCEEDED"

	CodeValidation         Code = "VALIDATION_ERROR"
	CodeConflict           Code = "CONFLICT"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeNotFound           Code = "NOT_FOUND"
	CodeInternal           Code = "INTERNAL_ERROR"
)

// Body is the rejection envelope. Required and Current are only set for
// FORBIDDEN responses.
type Body struct {
	Success  bool     `json:"success"`
	Error    string   `json:"error"`
	Code     Code     `json:"code"`
	Required []string `json:"required,omitempty"`
	Current  string   `json:"current,omitempty"`
}

// Abort stops the handler chain and writes the envelope.
func Abort(c *gin.Context, status int, code Code, msg string) {
	c.AbortWithStatusJSON(status, Body{Success: false, Error: msg, Code: code})
}

func AuthRequired(c *gin.Context) {
	Abort(c, http.StatusUnauthorized, CodeAuthRequired, "Authentication required")
}

func InvalidToken(c *gin.Context) {
	Abort(c, http.StatusUnauthorized, CodeInvalidToken, "Invalid or expired token")
}

func InvalidUser(c *gin.Context) {
	Abort(c, http.StatusUnauthorized, CodeInvalidUser, "Invalid or inactive user")
}

// Forbidden echoes the allowed role set and the caller's role. Role names are
// not secret.
func Forbidden(c *gin.Context, required []string, current string) {
	c.AbortWithStatusJSON(http.StatusForbidden, Body{
		Success:  false,
		Error:    "Insufficient permissions",
		Code:     CodeForbidden,
		Required: required,
		Current:  current,
	})
}

// Internal is the generic 5xx responder. It never includes error details.
func Internal(c *gin.Context) {
	if c.Writer.Written() {
		c.Abort()
		return
	}
	Abort(c, http.StatusInternalServerError, CodeInternal, "Internal server error")
}

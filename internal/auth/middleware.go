package auth

import (
	"errors"
	"strings"

	"construction-platform/internal/apierror"
	"construction-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

const authorizationHeader = "Authorization"
const bearerPrefix = "Bearer "

// Authenticator combines token verification and identity resolution.
// It does not perform RBAC checks; those belong to internal/rbac.
type Authenticator struct {
	tokens   *Manager
	resolver *Resolver
}

func NewAuthenticator(tokens *Manager, resolver *Resolver) *Authenticator {
	return &Authenticator{tokens: tokens, resolver: resolver}
}

// BearerToken extracts the token after the literal "Bearer " prefix. Any
// other form means no token is present.
func BearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	tok := header[len(bearerPrefix):]
	if tok == "" {
		return "", false
	}
	return tok, true
}

// Identify runs verification and resolution for a raw Authorization header.
func (a *Authenticator) Identify(c *gin.Context, header string) (Identity, error) {
	tok, ok := BearerToken(header)
	if !ok {
		return Identity{}, errNoToken
	}
	claims, err := a.tokens.Verify(tok)
	if err != nil {
		return Identity{}, err
	}
	return a.resolver.Resolve(c.Request.Context(), claims)
}

var errNoToken = errors.New("auth: no bearer token")

// Authenticate requires a valid token for an active account and attaches the
// identity to the request context.
func (a *Authenticator) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := a.Identify(c, c.GetHeader(authorizationHeader))
		switch {
		case err == nil:
		case errors.Is(err, errNoToken):
			apierror.AuthRequired(c)
			return
		case errors.Is(err, ErrTokenInvalid), errors.Is(err, ErrTokenExpired):
			_ = c.Error(err).SetType(gin.ErrorTypePublic)
			apierror.InvalidToken(c)
			return
		case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrUserInactive):
			_ = c.Error(err).SetType(gin.ErrorTypePublic)
			apierror.InvalidUser(c)
			return
		default:
			// Store failure: hand it to the error logger as an unhandled error.
			_ = c.Error(err)
			apierror.Internal(c)
			return
		}

		attach(c, id)
		c.Next()
	}
}

// OptionalAuth attaches an identity when one can be resolved and otherwise
// lets the request through anonymously. It never rejects.
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, err := a.Identify(c, c.GetHeader(authorizationHeader)); err == nil {
			attach(c, id)
		}
		c.Next()
	}
}

func attach(c *gin.Context, id Identity) {
	c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
	c.Set(ginIdentityKey, id)
	logger.SetUserID(c, id.ID)
}

// FromGin returns the identity attached by Authenticate or OptionalAuth.
func FromGin(c *gin.Context) (Identity, bool) {
	if v, ok := c.Get(ginIdentityKey); ok {
		if id, ok := v.(Identity); ok {
			return id, true
		}
	}
	return IdentityFrom(c.Request.Context())
}

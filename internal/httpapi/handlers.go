package httpapi

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"construction-platform/internal/apierror"
	"construction-platform/internal/audit"
	"construction-platform/internal/auth"
	"construction-platform/internal/users"
	"construction-platform/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Users  users.Repository
	Tokens *auth.Manager
	Hasher auth.PasswordHasher
	// Audit is optional; audit writes are best-effort.
	Audit *audit.Service

	dummyOnce sync.Once
	dummyHash string
}

type tokenResponse struct {
	User         users.User `json:"user"`
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
	ExpiresIn    int64      `json:"expiresIn"`
}

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// bindJSON decodes the body and reports validation failures as
// VALIDATION_ERROR with the offending field names.
func bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body",
			"code":    apierror.CodeValidation,
			"fields":  fields,
		})
		return false
	}
	apierror.Abort(c, http.StatusBadRequest, apierror.CodeValidation, "Invalid request body")
	return false
}

// internal hands err to the error logger and answers with a generic 500.
func internal(c *gin.Context, err error) {
	_ = c.Error(err)
	apierror.Internal(c)
}

func (h *Handlers) issue(u users.User) (tokenResponse, error) {
	access, err := h.Tokens.IssueAccessToken(auth.TokenClaims{UserID: u.ID, Email: u.Email, Role: u.Role})
	if err != nil {
		return tokenResponse{}, err
	}
	refresh, err := h.Tokens.IssueRefreshToken()
	if err != nil {
		return tokenResponse{}, err
	}
	return tokenResponse{
		User:         u,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(h.Tokens.AccessTTL().Seconds()),
	}, nil
}

// record runs an audit write and logs, rather than returns, its failure.
func (h *Handlers) record(c *gin.Context, write func(ctx context.Context, svc *audit.Service) error) {
	if h.Audit == nil {
		return
	}
	if err := write(context.WithoutCancel(c.Request.Context()), h.Audit); err != nil {
		logger.FromGin(c).Warn("audit write failed", "error", err.Error())
	}
}

// burnPasswordCheck spends one bcrypt comparison so unknown emails take as
// long as wrong passwords.
func (h *Handlers) burnPasswordCheck(password string) {
	h.dummyOnce.Do(func() {
		h.dummyHash, _ = h.Hasher.Hash("construction-platform-dummy-password")
	})
	_ = h.Hasher.Verify(password, h.dummyHash)
}

// Health reports liveness and whether the caller presented a usable token.
// It runs behind OptionalAuth.
func (h *Handlers) Health(c *gin.Context) {
	_, authenticated := auth.FromGin(c)
	c.JSON(http.StatusOK, gin.H{
		"status":        "OK",
		"authenticated": authenticated,
	})
}

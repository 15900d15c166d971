package httpapi

import (
	"context"
	"errors"
	"net/http"

	"construction-platform/internal/apierror"
	"construction-platform/internal/audit"
	"construction-platform/internal/auth"
	"construction-platform/internal/users"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Name     string `json:"name" binding:"required,min=2,max=120"`
}

// Register creates a WORKER account. Elevated roles are granted by an
// administrator, never self-assigned.
func (h *Handlers) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	digest, err := h.Hasher.Hash(req.Password)
	if err != nil {
		apierror.Abort(c, http.StatusBadRequest, apierror.CodeValidation, "Password cannot be used")
		return
	}

	u, err := h.Users.Create(c.Request.Context(), users.User{
		Email:        req.Email,
		Name:         req.Name,
		Role:         users.RoleWorker,
		PasswordHash: digest,
		IsActive:     true,
	})
	switch {
	case errors.Is(err, users.ErrEmailTaken):
		apierror.Abort(c, http.StatusConflict, apierror.CodeConflict, "Email already registered")
		return
	case errors.Is(err, users.ErrInvalidArgument):
		apierror.Abort(c, http.StatusBadRequest, apierror.CodeValidation, "Invalid request body")
		return
	case err != nil:
		internal(c, err)
		return
	}

	resp, err := h.issue(u)
	if err != nil {
		internal(c, err)
		return
	}
	h.record(c, func(ctx context.Context, svc *audit.Service) error {
		return svc.UserRegistered(ctx, u.ID, u.Email, c.ClientIP())
	})
	ok(c, http.StatusCreated, resp)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login exchanges credentials for a token pair. Unknown emails and wrong
// passwords share one response so accounts cannot be enumerated.
func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	u, err := h.Users.GetByEmail(c.Request.Context(), req.Email)
	if errors.Is(err, users.ErrNotFound) {
		h.burnPasswordCheck(req.Password)
		h.loginFailed(c, "", req.Email, "unknown email")
		return
	}
	if err != nil {
		internal(c, err)
		return
	}

	if !h.Hasher.Verify(req.Password, u.PasswordHash) {
		h.loginFailed(c, u.ID, u.Email, "wrong password")
		return
	}
	if !u.IsActive {
		h.record(c, func(ctx context.Context, svc *audit.Service) error {
			return svc.LoginFailed(ctx, u.ID, u.Email, c.ClientIP(), "inactive account")
		})
		apierror.InvalidUser(c)
		return
	}

	resp, err := h.issue(u)
	if err != nil {
		internal(c, err)
		return
	}
	h.record(c, func(ctx context.Context, svc *audit.Service) error {
		return svc.LoginSucceeded(ctx, u.ID, u.Email, c.ClientIP())
	})
	ok(c, http.StatusOK, resp)
}

func (h *Handlers) loginFailed(c *gin.Context, userID, email, reason string) {
	h.record(c, func(ctx context.Context, svc *audit.Service) error {
		return svc.LoginFailed(ctx, userID, email, c.ClientIP(), reason)
	})
	apierror.Abort(c, http.StatusUnauthorized, apierror.CodeInvalidCredentials, "Invalid email or password")
}

// Me returns the caller's account. It runs behind Authenticate.
func (h *Handlers) Me(c *gin.Context) {
	id, found := auth.FromGin(c)
	if !found {
		apierror.AuthRequired(c)
		return
	}
	u, err := h.Users.GetByID(c.Request.Context(), id.ID)
	if errors.Is(err, users.ErrNotFound) {
		apierror.InvalidUser(c)
		return
	}
	if err != nil {
		internal(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// Logout is acknowledged only. Tokens are stateless, so the client discards
// them; they stay valid until expiry.
func (h *Handlers) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out"})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8,max=72"`
}

// ChangePassword replaces the caller's credential after re-checking the
// current one. Outstanding tokens are not revoked.
func (h *Handlers) ChangePassword(c *gin.Context) {
	id, found := auth.FromGin(c)
	if !found {
		apierror.AuthRequired(c)
		return
	}
	var req changePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	u, err := h.Users.GetByID(ctx, id.ID)
	if errors.Is(err, users.ErrNotFound) {
		apierror.InvalidUser(c)
		return
	}
	if err != nil {
		internal(c, err)
		return
	}
	if !h.Hasher.Verify(req.CurrentPassword, u.PasswordHash) {
		apierror.Abort(c, http.StatusUnauthorized, apierror.CodeInvalidCredentials, "Current password is incorrect")
		return
	}

	digest, err := h.Hasher.Hash(req.NewPassword)
	if err != nil {
		apierror.Abort(c, http.StatusBadRequest, apierror.CodeValidation, "Password cannot be used")
		return
	}
	if err := h.Users.UpdatePassword(ctx, u.ID, digest); err != nil {
		internal(c, err)
		return
	}
	h.record(c, func(ctx context.Context, svc *audit.Service) error {
		return svc.PasswordChanged(ctx, u.ID, c.ClientIP())
	})
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password updated"})
}

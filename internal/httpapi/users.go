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

type setStatusRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// SetUserStatus activates or deactivates an account. Deactivation takes
// effect on the target's next request because identities are resolved fresh.
// RBAC: ADMIN.
func (h *Handlers) SetUserStatus(c *gin.Context) {
	caller, found := auth.FromGin(c)
	if !found {
		apierror.AuthRequired(c)
		return
	}
	var req setStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	targetID := c.Param("id")
	if targetID == caller.ID {
		apierror.Abort(c, http.StatusBadRequest, apierror.CodeValidation, "Cannot change your own status")
		return
	}

	u, err := h.Users.SetActive(c.Request.Context(), targetID, *req.IsActive)
	if errors.Is(err, users.ErrNotFound) {
		apierror.Abort(c, http.StatusNotFound, apierror.CodeNotFound, "User not found")
		return
	}
	if err != nil {
		internal(c, err)
		return
	}

	h.record(c, func(ctx context.Context, svc *audit.Service) error {
		return svc.UserStatusChanged(ctx, caller.ID, u.ID, c.ClientIP(), u.IsActive)
	})
	ok(c, http.StatusOK, u)
}

package rbac

import (
	"construction-platform/internal/apierror"
	"construction-platform/internal/auth"
	"construction-platform/internal/users"

	"github.com/gin-gonic/gin"
)

// Authorize allows access if the caller's role is in allowed. It must run
// after auth.Authenticate; a missing identity means authentication was skipped
// and the request is treated as anonymous.
func Authorize(allowed ...users.Role) gin.HandlerFunc {
	allowedSet := make(map[users.Role]struct{}, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}
	required := names(allowed)

	return func(c *gin.Context) {
		id, ok := auth.FromGin(c)
		if !ok {
			apierror.AuthRequired(c)
			return
		}

		if _, ok := allowedSet[id.Role]; !ok {
			apierror.Forbidden(c, required, id.Role.String())
			return
		}
		c.Next()
	}
}

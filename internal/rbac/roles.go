package rbac

import "construction-platform/internal/users"

// Route policies. Each is the full allowed set; there is no implicit
// hierarchy, so an ADMIN-only route does not admit MANAGER and vice versa.
var (
	AdminOnly        = []users.Role{users.RoleAdmin}
	Management       = []users.Role{users.RoleAdmin, users.RoleManager}
	SiteLeads        = []users.Role{users.RoleAdmin, users.RoleManager, users.RoleSupervisor}
	SiteStaff        = []users.Role{users.RoleAdmin, users.RoleManager, users.RoleSupervisor, users.RoleWorker}
	AnyAuthenticated = users.Roles()
)

func names(roles []users.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = r.String()
	}
	return out
}

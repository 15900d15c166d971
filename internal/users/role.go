package users

import "strings"

// Role is the closed set of account roles. Keep the values stable; they are
// embedded in issued tokens and stored in the users table.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleManager    Role = "MANAGER"
	RoleSupervisor Role = "SUPERVISOR"
	RoleWorker     Role = "WORKER"
	RoleClient     Role = "CLIENT"
)

// Roles lists every valid role.
func Roles() []Role {
	return []Role{RoleAdmin, RoleManager, RoleSupervisor, RoleWorker, RoleClient}
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleSupervisor, RoleWorker, RoleClient:
		return true
	default:
		return false
	}
}

func (r Role) String() string { return string(r) }

// ParseRole accepts any casing ("worker", "Worker") and rejects unknown names.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", false
	}
	return r, true
}

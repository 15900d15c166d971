package auth

import (
	"context"
	"errors"
	"fmt"

	"construction-platform/internal/users"
)

// UserLookup is the slice of the account store the resolver needs.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (users.User, error)
}

// Identity is the per-request view of the caller. It is looked up fresh on
// every request and never cached.
type Identity struct {
	ID       string     `json:"id"`
	Email    string     `json:"email"`
	Role     users.Role `json:"role"`
	IsActive bool       `json:"isActive"`
}

type Resolver struct {
	users UserLookup
}

func NewResolver(lookup UserLookup) *Resolver {
	return &Resolver{users: lookup}
}

// Resolve maps verified claims to a live account. Store failures are returned
// wrapped and are not ErrUserNotFound or ErrUserInactive.
func (r *Resolver) Resolve(ctx context.Context, claims TokenClaims) (Identity, error) {
	u, err := r.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return Identity{}, ErrUserNotFound
		}
		return Identity{}, fmt.Errorf("auth: resolve user: %w", err)
	}
	if !u.IsActive {
		return Identity{}, ErrUserInactive
	}
	return Identity{ID: u.ID, Email: u.Email, Role: u.Role, IsActive: u.IsActive}, nil
}

package users

import (
	"context"
	"errors"
	"time"
)

// User is an account that can authenticate against the API.
//
// PasswordHash is an opaque bcrypt digest. It is replaced wholesale on
// password change and never serialized.
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	Role         Role      `json:"role" db:"role"`
	PasswordHash string    `json:"-" db:"password_hash"`
	IsActive     bool      `json:"isActive" db:"is_active"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

var (
	ErrNotFound        = errors.New("users: not found")
	ErrEmailTaken      = errors.New("users: email already registered")
	ErrInvalidArgument = errors.New("users: invalid argument")
)

// Repository is the persistence contract for accounts.
type Repository interface {
	Create(ctx context.Context, u User) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetActive(ctx context.Context, id string, active bool) (User, error)
}

package users

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// PostgresRepo stores accounts in the users table (see internal/db/migrations).
type PostgresRepo struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db, clock: time.Now}
}

func (r *PostgresRepo) Create(ctx context.Context, u User) (User, error) {
	u.Email = normalizeEmail(u.Email)
	if u.Email == "" || u.PasswordHash == "" || !u.Role.Valid() {
		return User{}, ErrInvalidArgument
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := r.clock().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	const q = `
INSERT INTO users (id, email, name, role, password_hash, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`
	_, err := r.db.ExecContext(ctx, q,
		u.ID,
		u.Email,
		u.Name,
		string(u.Role),
		u.PasswordHash,
		u.IsActive,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return User{}, ErrEmailTaken
		}
		return User{}, err
	}
	return u, nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (User, error) {
	if _, err := uuid.Parse(id); err != nil {
		// Not a uuid, so it cannot name a row; skip the round trip.
		return User{}, ErrNotFound
	}
	const q = `
SELECT id, email, name, role, password_hash, is_active, created_at, updated_at
FROM users
WHERE id = $1
`
	return scanUser(r.db.QueryRowContext(ctx, q, id))
}

func (r *PostgresRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	const q = `
SELECT id, email, name, role, password_hash, is_active, created_at, updated_at
FROM users
WHERE email = $1
`
	return scanUser(r.db.QueryRowContext(ctx, q, normalizeEmail(email)))
}

func (r *PostgresRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if id == "" || passwordHash == "" {
		return ErrInvalidArgument
	}
	const q = `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, q, passwordHash, r.clock().UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) SetActive(ctx context.Context, id string, active bool) (User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return User{}, ErrNotFound
	}
	const q = `
UPDATE users SET is_active = $1, updated_at = $2
WHERE id = $3
RETURNING id, email, name, role, password_hash, is_active, created_at, updated_at
`
	return scanUser(r.db.QueryRowContext(ctx, q, active, r.clock().UTC(), id))
}

func scanUser(row *sql.Row) (User, error) {
	var (
		u    User
		role string
	)
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&role,
		&u.PasswordHash,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	u.Role = Role(role)
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

package audit

import (
	"context"
	"database/sql"
)

// PostgresRepo appends to the auth_events table. It issues INSERTs only.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO auth_events (id, type, actor_user_id, target_user_id, email, ip_address, message, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		string(e.Type),
		e.ActorUserID,
		e.TargetUserID,
		e.Email,
		e.IPAddress,
		e.Message,
		e.CreatedAt,
	)
	return err
}

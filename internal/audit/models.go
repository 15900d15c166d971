package audit

import "time"

// Event is an immutable, append-only record of an account security event.
//
// Invariants:
// - Events are never updated or deleted.
// - Password material and tokens are never recorded.
// - actor and ip capture are best-effort; do not block critical flows on audit failures.
type Event struct {
	ID   string    `json:"id" db:"id"`
	Type EventType `json:"type" db:"type"`

	// ActorUserID is the authenticated user causing the event (if applicable).
	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`
	// TargetUserID is the account the event is about.
	TargetUserID string `json:"target_user_id,omitempty" db:"target_user_id"`
	// Email is kept for failed logins, where no account may exist.
	Email string `json:"email,omitempty" db:"email"`

	// IPAddress is the resolved client IP.
	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventUserRegistered    EventType = "user_registered"
	EventLoginSucceeded    EventType = "login_succeeded"
	EventLoginFailed       EventType = "login_failed"
	EventPasswordChanged   EventType = "password_changed"
	EventUserStatusChanged EventType = "user_status_changed"
)

package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
// No Update/Delete methods are provided.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service records account security events.
//
// IMPORTANT:
// - Audit is internal-only. Do not expose these records through the API.
// - Callers should treat audit logging as best-effort.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}
	if e.TargetUserID == "" && e.Email == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

func (s *Service) UserRegistered(ctx context.Context, userID, email, ip string) error {
	return s.Append(ctx, Event{
		Type:         EventUserRegistered,
		ActorUserID:  userID,
		TargetUserID: userID,
		Email:        email,
		IPAddress:    ip,
		Message:      "account registered",
	})
}

func (s *Service) LoginSucceeded(ctx context.Context, userID, email, ip string) error {
	return s.Append(ctx, Event{
		Type:         EventLoginSucceeded,
		ActorUserID:  userID,
		TargetUserID: userID,
		Email:        email,
		IPAddress:    ip,
	})
}

// LoginFailed records a rejected login. userID is empty when the email
// matched no account; reason is never shown to the caller.
func (s *Service) LoginFailed(ctx context.Context, userID, email, ip, reason string) error {
	return s.Append(ctx, Event{
		Type:         EventLoginFailed,
		TargetUserID: userID,
		Email:        email,
		IPAddress:    ip,
		Message:      reason,
	})
}

func (s *Service) PasswordChanged(ctx context.Context, userID, ip string) error {
	return s.Append(ctx, Event{
		Type:         EventPasswordChanged,
		ActorUserID:  userID,
		TargetUserID: userID,
		IPAddress:    ip,
	})
}

func (s *Service) UserStatusChanged(ctx context.Context, actorUserID, targetUserID, ip string, active bool) error {
	return s.Append(ctx, Event{
		Type:         EventUserStatusChanged,
		ActorUserID:  actorUserID,
		TargetUserID: targetUserID,
		IPAddress:    ip,
		Message:      fmt.Sprintf("is_active=%t", active),
	})
}

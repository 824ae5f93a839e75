package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// AllSessions is the session-id wildcard accepted by RemoveSession to drop
// every session a user owns.
const AllSessions = "*"

// ErrUserNotFound is returned when a user record is not found.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailTaken is returned when creating a user with an email that is
// already registered.
var ErrEmailTaken = errors.New("email already registered")

// UserStore provides operations on user records and their owned sessions.
// Sessions have no lifecycle of their own: they are created on
// register/login and removed individually or all at once on logout.
type UserStore interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	AppendSession(ctx context.Context, id uuid.UUID, session Session) error
	// RemoveSession removes one session, or all of them when sessionID is
	// AllSessions.
	RemoveSession(ctx context.Context, id uuid.UUID, sessionID string) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

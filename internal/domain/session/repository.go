package session

import (
	"context"
	"time"
)

// Repository persists sessions. Only this interface mutates session state;
// the lock service reads identity from it but never writes.
type Repository interface {
	Create(ctx context.Context, session *Session) error
	GetByID(ctx context.Context, sessionID string) (*Session, error)

	// ListActive returns non-expired sessions ordered by last activity
	// descending.
	ListActive(ctx context.Context) ([]*Session, error)

	// UpdateActivity refreshes last_activity for the session.
	UpdateActivity(ctx context.Context, sessionID string, at time.Time) error

	Delete(ctx context.Context, sessionID string) error

	// DeleteAllExcept removes every session but the given one in a single
	// statement, so sessions created afterwards are untouched. Returns the
	// number of sessions removed.
	DeleteAllExcept(ctx context.Context, sessionID string) (int64, error)

	// DeleteExpired removes sessions whose expiry has passed.
	DeleteExpired(ctx context.Context) (int64, error)
}

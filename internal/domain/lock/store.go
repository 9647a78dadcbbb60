package lock

import (
	"context"
	"time"
)

// Store is the mutual-exclusion primitive. Implementations must make
// TryAcquire atomic per tuple: under concurrent calls exactly one caller
// observes success, all others observe *ConflictError. The store is injected
// into the service layer explicitly; there is no package-level instance.
type Store interface {
	// TryAcquire claims the tuple for the holder. If the holder already owns
	// the live lock, the lease is refreshed and the existing lock returned
	// (idempotent re-acquire). If another identity owns a live lock, a
	// *ConflictError naming that holder is returned.
	TryAcquire(ctx context.Context, scopeID uint, recordType RecordType, recordID, holderID uint, holderName string, ttl time.Duration) (*Lock, error)

	// Renew extends the lease of a lock the holder owns. Returns ErrNotHeld
	// when the lock is missing, expired, or owned by someone else; an
	// expired lease is never resurrected.
	Renew(ctx context.Context, lockID string, holderID uint, ttl time.Duration) (*Lock, error)

	// Release removes the holder's lock. Releasing an absent or expired lock
	// is not an error (at-least-once client release). Releasing a live lock
	// owned by someone else returns ErrNotHeld and does not mutate it.
	Release(ctx context.Context, lockID string, holderID uint) error

	// ForceRelease removes any lock on the tuple regardless of holder.
	ForceRelease(ctx context.Context, scopeID uint, recordType RecordType, recordID uint) error

	// ListByScope returns all live locks in a scope.
	ListByScope(ctx context.Context, scopeID uint) ([]*Lock, error)

	// ListScopes returns the scope IDs that currently have live locks.
	ListScopes(ctx context.Context) ([]uint, error)

	// ReapExpired removes leases whose expiry has passed and prunes dangling
	// index entries, returning the number of locks removed.
	ReapExpired(ctx context.Context) (int, error)
}

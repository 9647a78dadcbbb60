// Package locksync provides a Go SDK for the opsync lock API plus a
// focus-driven lock controller for editor frontends.
package locksync

import (
	"errors"
	"fmt"
	"time"
)

// RecordRef identifies one engagement record.
type RecordRef struct {
	ScopeID    uint   `json:"scope_id"`
	RecordType string `json:"record_type"`
	RecordID   uint   `json:"record_id"`
}

func (r RecordRef) String() string {
	return fmt.Sprintf("%d/%s/%d", r.ScopeID, r.RecordType, r.RecordID)
}

// Lock represents a held record lock as returned by the API.
type Lock struct {
	ID         string    `json:"id"`
	ScopeID    uint      `json:"scope_id"`
	RecordType string    `json:"record_type"`
	RecordID   uint      `json:"record_id"`
	HolderID   uint      `json:"holder_id"`
	HolderName string    `json:"holder_name"`
	AcquiredAt time.Time `json:"acquired_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Ref returns the record the lock covers.
func (l *Lock) Ref() RecordRef {
	return RecordRef{ScopeID: l.ScopeID, RecordType: l.RecordType, RecordID: l.RecordID}
}

// ErrLockNotFound is returned when a renew or release targets a lock the
// server no longer attributes to the caller. The lease expired, was reaped,
// was force-released, or never existed; the caller cannot tell which.
var ErrLockNotFound = errors.New("locksync: lock not found")

// Conflict is returned by Acquire when another analyst holds the record.
type Conflict struct {
	Ref        RecordRef
	HolderName string
}

func (e *Conflict) Error() string {
	return fmt.Sprintf("locksync: %s is locked by %s", e.Ref, e.HolderName)
}

// AsConflict extracts a Conflict from err, or nil.
func AsConflict(err error) *Conflict {
	var conflict *Conflict
	if errors.As(err, &conflict) {
		return conflict
	}
	return nil
}

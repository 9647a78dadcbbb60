package lock

import (
	"errors"
	"fmt"
)

// ErrNotHeld is returned by renew and release when no live lock with the
// given ID is held by the caller. A lock that expired, was reaped, or never
// existed all look the same to the caller, which must re-acquire either way.
var ErrNotHeld = errors.New("lock not found or not held by caller")

// ConflictError is returned by TryAcquire when another identity holds a live
// lock on the tuple. It carries the holder so the UI can render "locked by X"
// without a second round trip.
type ConflictError struct {
	HolderID   uint
	HolderName string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("record locked by %s", e.HolderName)
}

// AsConflict extracts a ConflictError from err, or nil.
func AsConflict(err error) *ConflictError {
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return conflict
	}
	return nil
}

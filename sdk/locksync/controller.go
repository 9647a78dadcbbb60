package locksync

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// LockService is the slice of the API the controller needs. *Client
// implements it; tests substitute a fake.
type LockService interface {
	Acquire(ctx context.Context, ref RecordRef) (*Lock, error)
	Renew(ctx context.Context, lockID string) (*Lock, error)
	Release(ctx context.Context, lockID string) error
}

// State is the focus-lock controller state.
type State int

const (
	StateIdle State = iota
	StateAcquiring
	StateHeld
	StateReleasing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiring:
		return "acquiring"
	case StateHeld:
		return "held"
	case StateReleasing:
		return "releasing"
	default:
		return "unknown"
	}
}

// ControllerOption configures a FocusController.
type ControllerOption func(*FocusController)

// WithRenewInterval sets the heartbeat interval. It must be well under the
// server's lease TTL; the server default TTL is five times this default.
func WithRenewInterval(d time.Duration) ControllerOption {
	return func(fc *FocusController) {
		fc.renewInterval = d
	}
}

// WithOnConflict sets the callback fired when an acquire finds the record
// held by someone else. The holder's display name is passed for the UI.
func WithOnConflict(fn func(ref RecordRef, holderName string)) ControllerOption {
	return func(fc *FocusController) {
		fc.onConflict = fn
	}
}

// WithOnLockLost sets the callback fired when the held lease is discovered
// lost (expired, reaped, or force-released) and could not be re-acquired.
func WithOnLockLost(fn func(ref RecordRef)) ControllerOption {
	return func(fc *FocusController) {
		fc.onLockLost = fn
	}
}

// FocusController binds lock lifetime to editing focus: at most one
// self-acquired lock exists, always covering the record currently focused.
// Moving focus releases the old lock before acquiring the new one, a
// heartbeat renews the held lease, and failed releases are queued and
// retried on later focus changes (release is idempotent server-side).
type FocusController struct {
	svc           LockService
	renewInterval time.Duration
	onConflict    func(RecordRef, string)
	onLockLost    func(RecordRef)

	mu              sync.Mutex
	state           State
	held            *Lock
	heartbeatStop   context.CancelFunc
	pendingReleases []string
}

// NewFocusController creates a controller in the idle state.
func NewFocusController(svc LockService, opts ...ControllerOption) *FocusController {
	fc := &FocusController{
		svc:           svc,
		renewInterval: time.Minute,
		state:         StateIdle,
	}
	for _, opt := range opts {
		opt(fc)
	}
	return fc
}

// SetFocus moves editing focus to ref, or to nothing when ref is nil. A lock
// is only released when its target differs from the new focus target: a
// same-target focus event (a UI re-render re-emitting focus) keeps the live
// lock and its heartbeat, so no window opens for another holder. Otherwise
// the held lock and any queued failed releases go first, and the controller
// never holds more than one lock. A conflict is surfaced via the OnConflict
// callback and returned; the controller ends up idle.
func (fc *FocusController) SetFocus(ctx context.Context, ref *RecordRef) (*Lock, error) {
	fc.mu.Lock()
	if ref != nil && fc.state == StateHeld && fc.held != nil && fc.held.Ref() == *ref {
		kept := *fc.held
		toFlush := fc.pendingReleases
		fc.pendingReleases = nil
		fc.mu.Unlock()

		fc.releaseAll(ctx, toFlush)
		return &kept, nil
	}

	fc.stopHeartbeatLocked()
	fc.state = StateReleasing
	toRelease := fc.pendingReleases
	fc.pendingReleases = nil
	if fc.held != nil {
		toRelease = append(toRelease, fc.held.ID)
		fc.held = nil
	}
	fc.mu.Unlock()

	fc.releaseAll(ctx, toRelease)

	if ref == nil {
		fc.setState(StateIdle)
		return nil, nil
	}

	fc.setState(StateAcquiring)
	acquired, err := fc.svc.Acquire(ctx, *ref)
	if err != nil {
		fc.setState(StateIdle)
		if conflict := AsConflict(err); conflict != nil && fc.onConflict != nil {
			fc.onConflict(*ref, conflict.HolderName)
		}
		return nil, err
	}

	fc.mu.Lock()
	fc.held = acquired
	fc.state = StateHeld
	heartbeatCtx, cancel := context.WithCancel(context.Background())
	fc.heartbeatStop = cancel
	fc.mu.Unlock()

	go fc.heartbeat(heartbeatCtx, acquired)

	return acquired, nil
}

// releaseAll releases each lock id, re-queueing the ones that fail with
// anything other than not-found. Release is idempotent server-side.
func (fc *FocusController) releaseAll(ctx context.Context, lockIDs []string) {
	var failed []string
	for _, lockID := range lockIDs {
		if err := fc.svc.Release(ctx, lockID); err != nil && err != ErrLockNotFound {
			failed = append(failed, lockID)
		}
	}
	if len(failed) > 0 {
		fc.mu.Lock()
		fc.pendingReleases = append(fc.pendingReleases, failed...)
		fc.mu.Unlock()
	}
}

// Close releases the held lock and any queued releases. The reaper remains
// the correctness backstop when this cannot reach the server.
func (fc *FocusController) Close(ctx context.Context) error {
	if _, err := fc.SetFocus(ctx, nil); err != nil {
		return err
	}

	fc.mu.Lock()
	remaining := len(fc.pendingReleases)
	fc.mu.Unlock()

	if remaining > 0 {
		return fmt.Errorf("locksync: %d lock release(s) failed; leases will expire server-side", remaining)
	}
	return nil
}

// State returns the current controller state.
func (fc *FocusController) State() State {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.state
}

// Held returns a copy of the held lock, or nil.
func (fc *FocusController) Held() *Lock {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if fc.held == nil {
		return nil
	}
	copied := *fc.held
	return &copied
}

func (fc *FocusController) setState(s State) {
	fc.mu.Lock()
	fc.state = s
	fc.mu.Unlock()
}

// stopHeartbeatLocked cancels the heartbeat goroutine. Callers hold fc.mu.
func (fc *FocusController) stopHeartbeatLocked() {
	if fc.heartbeatStop != nil {
		fc.heartbeatStop()
		fc.heartbeatStop = nil
	}
}

// heartbeat renews the lease until the context is canceled. On a renew
// failure it makes a single re-acquire attempt to distinguish a transient
// error from a lost lease; if that also fails the lock is dropped and
// OnLockLost fires.
func (fc *FocusController) heartbeat(ctx context.Context, held *Lock) {
	ticker := time.NewTicker(fc.renewInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			renewed, err := fc.svc.Renew(ctx, held.ID)
			if err == nil {
				held = renewed
				fc.replaceHeld(ctx, renewed)
				continue
			}
			if ctx.Err() != nil {
				return
			}

			reacquired, acquireErr := fc.svc.Acquire(ctx, held.Ref())
			if acquireErr == nil {
				held = reacquired
				fc.replaceHeld(ctx, reacquired)
				continue
			}

			fc.dropLost(ctx, held)
			return
		}
	}
}

// replaceHeld swaps in the renewed or re-acquired lock if it still matches
// the current focus. If focus moved while the call was in flight, the new
// lock is queued for release instead.
func (fc *FocusController) replaceHeld(ctx context.Context, l *Lock) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if ctx.Err() == nil && fc.state == StateHeld && fc.held != nil && fc.held.Ref() == l.Ref() {
		fc.held = l
		return
	}
	if fc.held == nil || fc.held.ID != l.ID {
		fc.pendingReleases = append(fc.pendingReleases, l.ID)
	}
}

func (fc *FocusController) dropLost(ctx context.Context, l *Lock) {
	fc.mu.Lock()
	lost := ctx.Err() == nil && fc.held != nil && fc.held.ID == l.ID
	if lost {
		fc.held = nil
		fc.state = StateIdle
		fc.heartbeatStop = nil
	}
	fc.mu.Unlock()

	if lost && fc.onLockLost != nil {
		fc.onLockLost(l.Ref())
	}
}

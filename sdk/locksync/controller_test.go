package locksync

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeService is a scriptable in-memory LockService.
type fakeService struct {
	mu sync.Mutex

	nextID     int
	held       map[string]RecordRef
	conflictBy string // non-empty: acquires fail naming this holder
	renewErr   error
	releaseErr error

	acquires []RecordRef
	renews   []string
	releases []string
}

func newFakeService() *fakeService {
	return &fakeService{held: make(map[string]RecordRef)}
}

func (s *fakeService) Acquire(ctx context.Context, ref RecordRef) (*Lock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.acquires = append(s.acquires, ref)
	if s.conflictBy != "" {
		return nil, &Conflict{Ref: ref, HolderName: s.conflictBy}
	}

	s.nextID++
	id := fmt.Sprintf("lk_%d", s.nextID)
	s.held[id] = ref
	now := time.Now().UTC()
	return &Lock{
		ID:         id,
		ScopeID:    ref.ScopeID,
		RecordType: ref.RecordType,
		RecordID:   ref.RecordID,
		HolderID:   3,
		HolderName: "Dana Vess",
		AcquiredAt: now,
		ExpiresAt:  now.Add(time.Minute),
	}, nil
}

func (s *fakeService) Renew(ctx context.Context, lockID string) (*Lock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.renews = append(s.renews, lockID)
	if s.renewErr != nil {
		return nil, s.renewErr
	}
	ref, ok := s.held[lockID]
	if !ok {
		return nil, ErrLockNotFound
	}
	now := time.Now().UTC()
	return &Lock{
		ID:         lockID,
		ScopeID:    ref.ScopeID,
		RecordType: ref.RecordType,
		RecordID:   ref.RecordID,
		HolderID:   3,
		HolderName: "Dana Vess",
		AcquiredAt: now.Add(-time.Minute),
		ExpiresAt:  now.Add(time.Minute),
	}, nil
}

func (s *fakeService) Release(ctx context.Context, lockID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.releases = append(s.releases, lockID)
	if s.releaseErr != nil {
		return s.releaseErr
	}
	delete(s.held, lockID)
	return nil
}

func (s *fakeService) acquireCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.acquires)
}

func (s *fakeService) renewCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.renews)
}

func (s *fakeService) releasedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.releases))
	copy(out, s.releases)
	return out
}

func hostRef(recordID uint) RecordRef {
	return RecordRef{ScopeID: 8, RecordType: "host", RecordID: recordID}
}

func TestFocusControllerAcquireOnFocus(t *testing.T) {
	svc := newFakeService()
	fc := NewFocusController(svc)
	defer fc.Close(context.Background())

	ref := hostRef(42)
	held, err := fc.SetFocus(context.Background(), &ref)
	require.NoError(t, err)
	require.NotNil(t, held)
	assert.Equal(t, ref, held.Ref())
	assert.Equal(t, StateHeld, fc.State())
	assert.Equal(t, held.ID, fc.Held().ID)
}

func TestFocusControllerMovesFocus(t *testing.T) {
	svc := newFakeService()
	fc := NewFocusController(svc)
	defer fc.Close(context.Background())

	first := hostRef(1)
	firstLock, err := fc.SetFocus(context.Background(), &first)
	require.NoError(t, err)

	second := hostRef(2)
	secondLock, err := fc.SetFocus(context.Background(), &second)
	require.NoError(t, err)

	// The old lock is released before the new one is acquired.
	assert.Equal(t, []string{firstLock.ID}, svc.releasedIDs())
	assert.NotEqual(t, firstLock.ID, secondLock.ID)
	assert.Equal(t, second, fc.Held().Ref())
}

func TestFocusControllerSameTargetKeepsLock(t *testing.T) {
	svc := newFakeService()
	fc := NewFocusController(svc)
	defer fc.Close(context.Background())

	ref := hostRef(42)
	first, err := fc.SetFocus(context.Background(), &ref)
	require.NoError(t, err)

	// Re-emitting focus for the record already held must not release and
	// re-acquire: that would open a window for another holder to take it.
	same := hostRef(42)
	again, err := fc.SetFocus(context.Background(), &same)
	require.NoError(t, err)
	require.NotNil(t, again)

	assert.Equal(t, first.ID, again.ID)
	assert.Empty(t, svc.releasedIDs())
	assert.Equal(t, 1, svc.acquireCount())
	assert.Equal(t, StateHeld, fc.State())
	assert.Equal(t, first.ID, fc.Held().ID)
}

func TestFocusControllerSameTargetFlushesQueuedReleases(t *testing.T) {
	svc := newFakeService()
	fc := NewFocusController(svc)
	defer fc.Close(context.Background())

	first := hostRef(1)
	firstLock, err := fc.SetFocus(context.Background(), &first)
	require.NoError(t, err)

	svc.mu.Lock()
	svc.releaseErr = fmt.Errorf("network down")
	svc.mu.Unlock()

	second := hostRef(2)
	secondLock, err := fc.SetFocus(context.Background(), &second)
	require.NoError(t, err)

	svc.mu.Lock()
	svc.releaseErr = nil
	svc.mu.Unlock()

	// A same-target event still retries the queued release of the old lock
	// while keeping the current one untouched.
	sameSecond := hostRef(2)
	again, err := fc.SetFocus(context.Background(), &sameSecond)
	require.NoError(t, err)
	assert.Equal(t, secondLock.ID, again.ID)

	// One failed attempt during the focus move, one successful retry; the
	// held lock itself is never released.
	assert.Equal(t, []string{firstLock.ID, firstLock.ID}, svc.releasedIDs())
	assert.Equal(t, StateHeld, fc.State())
}

func TestFocusControllerClearFocus(t *testing.T) {
	svc := newFakeService()
	fc := NewFocusController(svc)

	ref := hostRef(42)
	held, err := fc.SetFocus(context.Background(), &ref)
	require.NoError(t, err)

	cleared, err := fc.SetFocus(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, cleared)
	assert.Equal(t, StateIdle, fc.State())
	assert.Nil(t, fc.Held())
	assert.Equal(t, []string{held.ID}, svc.releasedIDs())
}

func TestFocusControllerConflict(t *testing.T) {
	svc := newFakeService()
	svc.conflictBy = "Rene Ortiz"

	var gotRef RecordRef
	var gotHolder string
	fc := NewFocusController(svc, WithOnConflict(func(ref RecordRef, holderName string) {
		gotRef = ref
		gotHolder = holderName
	}))

	ref := hostRef(42)
	held, err := fc.SetFocus(context.Background(), &ref)
	require.Error(t, err)
	assert.Nil(t, held)

	conflict := AsConflict(err)
	require.NotNil(t, conflict)
	assert.Equal(t, "Rene Ortiz", conflict.HolderName)
	assert.Equal(t, ref, gotRef)
	assert.Equal(t, "Rene Ortiz", gotHolder)
	assert.Equal(t, StateIdle, fc.State())
	assert.Nil(t, fc.Held())
}

func TestFocusControllerQueuesFailedReleases(t *testing.T) {
	svc := newFakeService()
	fc := NewFocusController(svc)

	first := hostRef(1)
	firstLock, err := fc.SetFocus(context.Background(), &first)
	require.NoError(t, err)

	// The release fails; the controller must still acquire the new target
	// and retry the old release on the next transition.
	svc.mu.Lock()
	svc.releaseErr = fmt.Errorf("network down")
	svc.mu.Unlock()

	second := hostRef(2)
	_, err = fc.SetFocus(context.Background(), &second)
	require.NoError(t, err)
	assert.Equal(t, second, fc.Held().Ref())

	svc.mu.Lock()
	svc.releaseErr = nil
	svc.mu.Unlock()

	cleared, err := fc.SetFocus(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, cleared)

	released := svc.releasedIDs()
	assert.Contains(t, released, firstLock.ID)
	assert.Equal(t, StateIdle, fc.State())

	require.NoError(t, fc.Close(context.Background()))
}

func TestFocusControllerHeartbeatRenews(t *testing.T) {
	svc := newFakeService()
	fc := NewFocusController(svc, WithRenewInterval(10*time.Millisecond))
	defer fc.Close(context.Background())

	ref := hostRef(42)
	_, err := fc.SetFocus(context.Background(), &ref)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return svc.renewCount() >= 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, StateHeld, fc.State())
}

func TestFocusControllerHeartbeatReacquiresOnLostLease(t *testing.T) {
	svc := newFakeService()
	fc := NewFocusController(svc, WithRenewInterval(10*time.Millisecond))
	defer fc.Close(context.Background())

	ref := hostRef(42)
	held, err := fc.SetFocus(context.Background(), &ref)
	require.NoError(t, err)

	// Simulate the lease being reaped: renew fails, re-acquire succeeds.
	svc.mu.Lock()
	delete(svc.held, held.ID)
	svc.mu.Unlock()

	require.Eventually(t, func() bool {
		current := fc.Held()
		return current != nil && current.ID != held.ID
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, StateHeld, fc.State())
	assert.Equal(t, ref, fc.Held().Ref())
}

func TestFocusControllerLockLost(t *testing.T) {
	svc := newFakeService()

	lostCh := make(chan RecordRef, 1)
	fc := NewFocusController(svc,
		WithRenewInterval(10*time.Millisecond),
		WithOnLockLost(func(ref RecordRef) { lostCh <- ref }),
	)

	ref := hostRef(42)
	held, err := fc.SetFocus(context.Background(), &ref)
	require.NoError(t, err)

	// Renew fails and the re-acquire hits a conflict: the lock is gone and
	// someone else took it.
	svc.mu.Lock()
	delete(svc.held, held.ID)
	svc.conflictBy = "Rene Ortiz"
	svc.mu.Unlock()

	select {
	case lostRef := <-lostCh:
		assert.Equal(t, ref, lostRef)
	case <-time.After(time.Second):
		t.Fatal("expected lock lost callback")
	}

	assert.Equal(t, StateIdle, fc.State())
	assert.Nil(t, fc.Held())
}

func TestFocusControllerClose(t *testing.T) {
	svc := newFakeService()
	fc := NewFocusController(svc)

	ref := hostRef(42)
	held, err := fc.SetFocus(context.Background(), &ref)
	require.NoError(t, err)

	require.NoError(t, fc.Close(context.Background()))
	assert.Equal(t, []string{held.ID}, svc.releasedIDs())
	assert.Equal(t, StateIdle, fc.State())
}

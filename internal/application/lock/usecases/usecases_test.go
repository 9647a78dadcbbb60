package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsync/internal/domain/lock"
	"opsync/internal/shared/biztime"
	"opsync/internal/shared/errors"
	"opsync/internal/shared/logger"
)

// nopLogger is a no-op logger for testing.
type nopLogger struct{}

func newNopLogger() logger.Interface { return &nopLogger{} }

func (l *nopLogger) With(args ...any) logger.Interface               { return l }
func (l *nopLogger) Named(name string) logger.Interface              { return l }
func (l *nopLogger) Debugw(msg string, keysAndValues ...interface{}) {}
func (l *nopLogger) Infow(msg string, keysAndValues ...interface{})  {}
func (l *nopLogger) Warnw(msg string, keysAndValues ...interface{})  {}
func (l *nopLogger) Errorw(msg string, keysAndValues ...interface{}) {}
func (l *nopLogger) Fatalw(msg string, keysAndValues ...interface{}) {}

// fakeStore is an in-memory lock.Store with scripted errors for testing the
// use case layer in isolation.
type fakeStore struct {
	acquireErr error
	renewErr   error
	releaseErr error

	locks    map[string]*lock.Lock
	released []string
	reaped   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{locks: make(map[string]*lock.Lock)}
}

func (s *fakeStore) TryAcquire(ctx context.Context, scopeID uint, recordType lock.RecordType, recordID, holderID uint, holderName string, ttl time.Duration) (*lock.Lock, error) {
	if s.acquireErr != nil {
		return nil, s.acquireErr
	}
	l, err := lock.NewLock(scopeID, recordType, recordID, holderID, holderName, ttl)
	if err != nil {
		return nil, err
	}
	s.locks[l.ID] = l
	return l, nil
}

func (s *fakeStore) Renew(ctx context.Context, lockID string, holderID uint, ttl time.Duration) (*lock.Lock, error) {
	if s.renewErr != nil {
		return nil, s.renewErr
	}
	l, ok := s.locks[lockID]
	if !ok || !l.HeldBy(holderID) {
		return nil, lock.ErrNotHeld
	}
	l.ExtendLease(ttl)
	return l, nil
}

func (s *fakeStore) Release(ctx context.Context, lockID string, holderID uint) error {
	if s.releaseErr != nil {
		return s.releaseErr
	}
	delete(s.locks, lockID)
	s.released = append(s.released, lockID)
	return nil
}

func (s *fakeStore) ForceRelease(ctx context.Context, scopeID uint, recordType lock.RecordType, recordID uint) error {
	for id, l := range s.locks {
		if l.ScopeID == scopeID && l.RecordType == recordType && l.RecordID == recordID {
			delete(s.locks, id)
		}
	}
	return nil
}

func (s *fakeStore) ListByScope(ctx context.Context, scopeID uint) ([]*lock.Lock, error) {
	var out []*lock.Lock
	now := biztime.NowUTC()
	for _, l := range s.locks {
		if l.ScopeID == scopeID && l.IsLive(now) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *fakeStore) ListScopes(ctx context.Context) ([]uint, error) {
	seen := make(map[uint]bool)
	var out []uint
	for _, l := range s.locks {
		if !seen[l.ScopeID] {
			seen[l.ScopeID] = true
			out = append(out, l.ScopeID)
		}
	}
	return out, nil
}

func (s *fakeStore) ReapExpired(ctx context.Context) (int, error) {
	return s.reaped, nil
}

func TestAcquireLockUseCase(t *testing.T) {
	ctx := context.Background()

	t.Run("acquires a free record", func(t *testing.T) {
		store := newFakeStore()
		uc := NewAcquireLockUseCase(store, 5*time.Minute, newNopLogger())

		result, err := uc.Execute(ctx, AcquireLockCommand{
			ScopeID:    8,
			RecordType: "host",
			RecordID:   42,
			HolderID:   3,
			HolderName: "Dana Vess",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, result.ID)
		assert.Equal(t, uint(8), result.ScopeID)
		assert.Equal(t, "host", result.RecordType)
		assert.Equal(t, "Dana Vess", result.HolderName)
		assert.True(t, result.ExpiresAt.After(result.AcquiredAt))
	})

	t.Run("maps conflict to 409 with holder name", func(t *testing.T) {
		store := newFakeStore()
		store.acquireErr = &lock.ConflictError{HolderID: 7, HolderName: "Rene Ortiz"}
		uc := NewAcquireLockUseCase(store, 5*time.Minute, newNopLogger())

		result, err := uc.Execute(ctx, AcquireLockCommand{
			ScopeID:    8,
			RecordType: "host",
			RecordID:   42,
			HolderID:   3,
			HolderName: "Dana Vess",
		})
		require.Error(t, err)
		assert.Nil(t, result)

		appErr := errors.GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, errors.ErrorTypeConflict, appErr.Type)
		assert.Equal(t, "Rene Ortiz", appErr.Details)
	})

	t.Run("rejects unknown record type", func(t *testing.T) {
		uc := NewAcquireLockUseCase(newFakeStore(), 5*time.Minute, newNopLogger())

		_, err := uc.Execute(ctx, AcquireLockCommand{
			ScopeID:    8,
			RecordType: "credential",
			RecordID:   42,
			HolderID:   3,
		})
		require.Error(t, err)
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("rejects missing scope", func(t *testing.T) {
		uc := NewAcquireLockUseCase(newFakeStore(), 5*time.Minute, newNopLogger())

		_, err := uc.Execute(ctx, AcquireLockCommand{
			RecordType: "host",
			RecordID:   42,
			HolderID:   3,
		})
		require.Error(t, err)
		assert.True(t, errors.IsValidationError(err))
	})
}

func TestRenewLockUseCase(t *testing.T) {
	ctx := context.Background()

	t.Run("extends a held lease", func(t *testing.T) {
		store := newFakeStore()
		held, err := store.TryAcquire(ctx, 8, lock.RecordTypeHost, 42, 3, "Dana Vess", time.Minute)
		require.NoError(t, err)

		uc := NewRenewLockUseCase(store, 5*time.Minute, newNopLogger())
		result, err := uc.Execute(ctx, RenewLockCommand{LockID: held.ID, HolderID: 3})
		require.NoError(t, err)
		assert.Equal(t, held.ID, result.ID)
		assert.True(t, result.ExpiresAt.After(biztime.NowUTC().Add(4*time.Minute)))
	})

	t.Run("lost lease reported as not found", func(t *testing.T) {
		store := newFakeStore()
		store.renewErr = lock.ErrNotHeld
		uc := NewRenewLockUseCase(store, 5*time.Minute, newNopLogger())

		_, err := uc.Execute(ctx, RenewLockCommand{LockID: "lk_gone", HolderID: 3})
		require.Error(t, err)
		assert.True(t, errors.IsNotFoundError(err))
	})
}

func TestReleaseLockUseCase(t *testing.T) {
	ctx := context.Background()

	t.Run("releases held lock", func(t *testing.T) {
		store := newFakeStore()
		held, err := store.TryAcquire(ctx, 8, lock.RecordTypeHost, 42, 3, "Dana Vess", time.Minute)
		require.NoError(t, err)

		uc := NewReleaseLockUseCase(store, newNopLogger())
		require.NoError(t, uc.Execute(ctx, ReleaseLockCommand{LockID: held.ID, HolderID: 3}))
		assert.Equal(t, []string{held.ID}, store.released)
	})

	t.Run("releasing an absent lock succeeds", func(t *testing.T) {
		uc := NewReleaseLockUseCase(newFakeStore(), newNopLogger())
		require.NoError(t, uc.Execute(ctx, ReleaseLockCommand{LockID: "lk_gone", HolderID: 3}))
	})

	t.Run("other holder's live lock reported as not found", func(t *testing.T) {
		store := newFakeStore()
		store.releaseErr = lock.ErrNotHeld
		uc := NewReleaseLockUseCase(store, newNopLogger())

		err := uc.Execute(ctx, ReleaseLockCommand{LockID: "lk_other", HolderID: 3})
		require.Error(t, err)
		assert.True(t, errors.IsNotFoundError(err))
	})
}

func TestListLocksUseCase(t *testing.T) {
	ctx := context.Background()

	store := newFakeStore()
	_, err := store.TryAcquire(ctx, 8, lock.RecordTypeHost, 1, 3, "Dana Vess", time.Minute)
	require.NoError(t, err)
	_, err = store.TryAcquire(ctx, 8, lock.RecordTypeNote, 2, 4, "Rene Ortiz", time.Minute)
	require.NoError(t, err)
	_, err = store.TryAcquire(ctx, 9, lock.RecordTypeHost, 1, 3, "Dana Vess", time.Minute)
	require.NoError(t, err)

	uc := NewListLocksUseCase(store, newNopLogger())

	locks, err := uc.Execute(ctx, ListLocksQuery{ScopeID: 8})
	require.NoError(t, err)
	assert.Len(t, locks, 2)

	_, err = uc.Execute(ctx, ListLocksQuery{})
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func TestListAllLocksUseCase(t *testing.T) {
	ctx := context.Background()

	store := newFakeStore()
	_, err := store.TryAcquire(ctx, 8, lock.RecordTypeHost, 1, 3, "Dana Vess", time.Minute)
	require.NoError(t, err)
	_, err = store.TryAcquire(ctx, 9, lock.RecordTypePort, 5, 4, "Rene Ortiz", time.Minute)
	require.NoError(t, err)

	uc := NewListAllLocksUseCase(store, newNopLogger())
	groups, err := uc.Execute(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	for _, group := range groups {
		assert.Len(t, group.Locks, 1)
	}
}

func TestForceReleaseLockUseCase(t *testing.T) {
	ctx := context.Background()

	store := newFakeStore()
	held, err := store.TryAcquire(ctx, 8, lock.RecordTypeHost, 42, 3, "Dana Vess", time.Minute)
	require.NoError(t, err)

	uc := NewForceReleaseLockUseCase(store, newNopLogger())

	t.Run("removes any holder's lock", func(t *testing.T) {
		err := uc.Execute(ctx, ForceReleaseLockCommand{
			ScopeID:    8,
			RecordType: "host",
			RecordID:   42,
			AdminID:    1,
		})
		require.NoError(t, err)
		assert.NotContains(t, store.locks, held.ID)
	})

	t.Run("rejects unknown record type", func(t *testing.T) {
		err := uc.Execute(ctx, ForceReleaseLockCommand{
			ScopeID:    8,
			RecordType: "credential",
			RecordID:   42,
		})
		require.Error(t, err)
		assert.True(t, errors.IsValidationError(err))
	})
}

func TestReapExpiredLocksUseCase(t *testing.T) {
	store := newFakeStore()
	store.reaped = 3

	uc := NewReapExpiredLocksUseCase(store, newNopLogger())
	reaped, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, reaped)
}

package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsync/internal/domain/session"
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

// fakeSessionRepo is an in-memory session.Repository for testing.
type fakeSessionRepo struct {
	sessions map[string]*session.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*session.Session)}
}

func (r *fakeSessionRepo) add(t *testing.T, userID uint, username string, expiresAt time.Time) *session.Session {
	t.Helper()
	s, err := session.NewSession(userID, username, username, "10.0.0.1", "test-agent", expiresAt)
	require.NoError(t, err)
	r.sessions[s.ID] = s
	return s
}

func (r *fakeSessionRepo) Create(ctx context.Context, s *session.Session) error {
	r.sessions[s.ID] = s
	return nil
}

func (r *fakeSessionRepo) GetByID(ctx context.Context, sessionID string) (*session.Session, error) {
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, errors.NewNotFoundError("session not found")
	}
	return s, nil
}

func (r *fakeSessionRepo) ListActive(ctx context.Context) ([]*session.Session, error) {
	var out []*session.Session
	for _, s := range r.sessions {
		if !s.IsExpired() {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) UpdateActivity(ctx context.Context, sessionID string, at time.Time) error {
	s, ok := r.sessions[sessionID]
	if !ok {
		return errors.NewNotFoundError("session not found")
	}
	s.LastActivityAt = at
	return nil
}

func (r *fakeSessionRepo) Delete(ctx context.Context, sessionID string) error {
	if _, ok := r.sessions[sessionID]; !ok {
		return errors.NewNotFoundError("session not found")
	}
	delete(r.sessions, sessionID)
	return nil
}

func (r *fakeSessionRepo) DeleteAllExcept(ctx context.Context, sessionID string) (int64, error) {
	var removed int64
	for id := range r.sessions {
		if id != sessionID {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (r *fakeSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	var removed int64
	for id, s := range r.sessions {
		if s.IsExpired() {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func TestListSessionsUseCase(t *testing.T) {
	repo := newFakeSessionRepo()
	repo.add(t, 1, "mara", biztime.NowUTC().Add(time.Hour))
	repo.add(t, 2, "theo", biztime.NowUTC().Add(time.Hour))

	uc := NewListSessionsUseCase(repo, newNopLogger())
	sessions, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestTerminateSessionUseCase(t *testing.T) {
	ctx := context.Background()

	t.Run("terminates another session", func(t *testing.T) {
		repo := newFakeSessionRepo()
		admin := repo.add(t, 1, "mara", biztime.NowUTC().Add(time.Hour))
		target := repo.add(t, 2, "theo", biztime.NowUTC().Add(time.Hour))

		uc := NewTerminateSessionUseCase(repo, newNopLogger())
		err := uc.Execute(ctx, TerminateSessionCommand{
			SessionID:       target.ID,
			CallerSessionID: admin.ID,
		})
		require.NoError(t, err)
		assert.NotContains(t, repo.sessions, target.ID)
		assert.Contains(t, repo.sessions, admin.ID)
	})

	t.Run("refuses own session", func(t *testing.T) {
		repo := newFakeSessionRepo()
		admin := repo.add(t, 1, "mara", biztime.NowUTC().Add(time.Hour))

		uc := NewTerminateSessionUseCase(repo, newNopLogger())
		err := uc.Execute(ctx, TerminateSessionCommand{
			SessionID:       admin.ID,
			CallerSessionID: admin.ID,
		})
		require.Error(t, err)
		appErr := errors.GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, errors.ErrorTypeBadRequest, appErr.Type)
	})

	t.Run("unknown session is not found", func(t *testing.T) {
		uc := NewTerminateSessionUseCase(newFakeSessionRepo(), newNopLogger())
		err := uc.Execute(ctx, TerminateSessionCommand{
			SessionID:       "missing",
			CallerSessionID: "caller",
		})
		require.Error(t, err)
		assert.True(t, errors.IsNotFoundError(err))
	})
}

func TestForceLogoutAllUseCase(t *testing.T) {
	repo := newFakeSessionRepo()
	admin := repo.add(t, 1, "mara", biztime.NowUTC().Add(time.Hour))
	repo.add(t, 2, "theo", biztime.NowUTC().Add(time.Hour))
	repo.add(t, 3, "iris", biztime.NowUTC().Add(time.Hour))

	uc := NewForceLogoutAllUseCase(repo, newNopLogger())
	result, err := uc.Execute(context.Background(), ForceLogoutAllCommand{CallerSessionID: admin.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Terminated)
	assert.Contains(t, repo.sessions, admin.ID)
	assert.Len(t, repo.sessions, 1)
}

func TestTouchSessionUseCase(t *testing.T) {
	ctx := context.Background()

	t.Run("refreshes activity on a live session", func(t *testing.T) {
		repo := newFakeSessionRepo()
		live := repo.add(t, 1, "mara", biztime.NowUTC().Add(time.Hour))
		before := live.LastActivityAt

		time.Sleep(5 * time.Millisecond)

		uc := NewTouchSessionUseCase(repo, newNopLogger())
		require.NoError(t, uc.Execute(ctx, live.ID))
		assert.True(t, repo.sessions[live.ID].LastActivityAt.After(before))
	})

	t.Run("terminated session is unauthorized", func(t *testing.T) {
		uc := NewTouchSessionUseCase(newFakeSessionRepo(), newNopLogger())
		err := uc.Execute(ctx, "gone")
		require.Error(t, err)
		assert.True(t, errors.IsUnauthorizedError(err))
	})

	t.Run("expired session is unauthorized", func(t *testing.T) {
		repo := newFakeSessionRepo()
		expired := repo.add(t, 1, "mara", biztime.NowUTC().Add(10*time.Millisecond))
		time.Sleep(20 * time.Millisecond)

		uc := NewTouchSessionUseCase(repo, newNopLogger())
		err := uc.Execute(ctx, expired.ID)
		require.Error(t, err)
		assert.True(t, errors.IsUnauthorizedError(err))
	})
}

func TestCleanupExpiredSessionsUseCase(t *testing.T) {
	repo := newFakeSessionRepo()
	repo.add(t, 1, "mara", biztime.NowUTC().Add(time.Hour))
	expired := repo.add(t, 2, "theo", biztime.NowUTC().Add(10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	uc := NewCleanupExpiredSessionsUseCase(repo, newNopLogger())
	removed, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NotContains(t, repo.sessions, expired.ID)
}

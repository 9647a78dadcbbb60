package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsync/internal/application/lock/usecases"
	"opsync/internal/domain/lock"
	"opsync/internal/shared/biztime"
	"opsync/internal/shared/constants"
	"opsync/internal/shared/logger"
	"opsync/internal/shared/utils"
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

// memStore is an in-memory lock.Store sufficient for handler tests.
type memStore struct {
	locks map[string]*lock.Lock
}

func newMemStore() *memStore {
	return &memStore{locks: make(map[string]*lock.Lock)}
}

func (s *memStore) findByTuple(scopeID uint, recordType lock.RecordType, recordID uint) *lock.Lock {
	now := biztime.NowUTC()
	for _, l := range s.locks {
		if l.ScopeID == scopeID && l.RecordType == recordType && l.RecordID == recordID && l.IsLive(now) {
			return l
		}
	}
	return nil
}

func (s *memStore) TryAcquire(ctx context.Context, scopeID uint, recordType lock.RecordType, recordID, holderID uint, holderName string, ttl time.Duration) (*lock.Lock, error) {
	if existing := s.findByTuple(scopeID, recordType, recordID); existing != nil {
		if existing.HeldBy(holderID) {
			existing.ExtendLease(ttl)
			return existing, nil
		}
		return nil, &lock.ConflictError{HolderID: existing.HolderID, HolderName: existing.HolderName}
	}
	l, err := lock.NewLock(scopeID, recordType, recordID, holderID, holderName, ttl)
	if err != nil {
		return nil, err
	}
	s.locks[l.ID] = l
	return l, nil
}

func (s *memStore) Renew(ctx context.Context, lockID string, holderID uint, ttl time.Duration) (*lock.Lock, error) {
	l, ok := s.locks[lockID]
	if !ok || !l.HeldBy(holderID) || !l.IsLive(biztime.NowUTC()) {
		return nil, lock.ErrNotHeld
	}
	l.ExtendLease(ttl)
	return l, nil
}

func (s *memStore) Release(ctx context.Context, lockID string, holderID uint) error {
	l, ok := s.locks[lockID]
	if !ok {
		return nil
	}
	if l.IsLive(biztime.NowUTC()) && !l.HeldBy(holderID) {
		return lock.ErrNotHeld
	}
	delete(s.locks, lockID)
	return nil
}

func (s *memStore) ForceRelease(ctx context.Context, scopeID uint, recordType lock.RecordType, recordID uint) error {
	for id, l := range s.locks {
		if l.ScopeID == scopeID && l.RecordType == recordType && l.RecordID == recordID {
			delete(s.locks, id)
		}
	}
	return nil
}

func (s *memStore) ListByScope(ctx context.Context, scopeID uint) ([]*lock.Lock, error) {
	var out []*lock.Lock
	now := biztime.NowUTC()
	for _, l := range s.locks {
		if l.ScopeID == scopeID && l.IsLive(now) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *memStore) ListScopes(ctx context.Context) ([]uint, error) {
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

func (s *memStore) ReapExpired(ctx context.Context) (int, error) { return 0, nil }

// identityAs fakes the auth middleware by injecting context keys directly.
func identityAs(userID uint, displayName, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(constants.ContextKeyUserID, userID)
		c.Set(constants.ContextKeySessionID, "test-session")
		c.Set(constants.ContextKeyDisplayName, displayName)
		c.Set(constants.ContextKeyUserRole, role)
		c.Next()
	}
}

func setupLockRouter(t *testing.T, store lock.Store, userID uint, displayName string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("recordtype", func(fl validator.FieldLevel) bool {
			return lock.RecordType(fl.Field().String()).IsValid()
		})
	}

	log := newNopLogger()
	ttl := 5 * time.Minute
	handler := NewLockHandler(
		usecases.NewListLocksUseCase(store, log),
		usecases.NewListAllLocksUseCase(store, log),
		usecases.NewAcquireLockUseCase(store, ttl, log),
		usecases.NewRenewLockUseCase(store, ttl, log),
		usecases.NewReleaseLockUseCase(store, log),
		usecases.NewForceReleaseLockUseCase(store, log),
		log,
	)

	engine := gin.New()
	group := engine.Group("/api/locks")
	group.Use(identityAs(userID, displayName, "analyst"))
	{
		group.GET("", handler.ListLocks)
		group.POST("", handler.AcquireLock)
		group.POST("/:id/renew", handler.RenewLock)
		group.DELETE("/:id", handler.ReleaseLock)
	}
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) utils.APIResponse {
	t.Helper()
	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestLockHandlerAcquire(t *testing.T) {
	t.Run("acquires a free record", func(t *testing.T) {
		engine := setupLockRouter(t, newMemStore(), 3, "Dana Vess")

		w := doJSON(t, engine, http.MethodPost, "/api/locks", gin.H{
			"scope_id":    8,
			"record_type": "host",
			"record_id":   42,
		})
		require.Equal(t, http.StatusCreated, w.Code)

		resp := decodeResponse(t, w)
		assert.True(t, resp.Success)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "host", data["record_type"])
		assert.Equal(t, "Dana Vess", data["holder_name"])
		assert.NotEmpty(t, data["id"])
	})

	t.Run("conflict names the current holder", func(t *testing.T) {
		store := newMemStore()
		_, err := store.TryAcquire(context.Background(), 8, lock.RecordTypeHost, 42, 7, "Rene Ortiz", time.Minute)
		require.NoError(t, err)

		engine := setupLockRouter(t, store, 3, "Dana Vess")
		w := doJSON(t, engine, http.MethodPost, "/api/locks", gin.H{
			"scope_id":    8,
			"record_type": "host",
			"record_id":   42,
		})
		require.Equal(t, http.StatusConflict, w.Code)

		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "conflict", resp.Error.Type)
		assert.Equal(t, "Rene Ortiz", resp.Error.Details)
	})

	t.Run("rejects unknown record type at binding", func(t *testing.T) {
		engine := setupLockRouter(t, newMemStore(), 3, "Dana Vess")

		w := doJSON(t, engine, http.MethodPost, "/api/locks", gin.H{
			"scope_id":    8,
			"record_type": "credential",
			"record_id":   42,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLockHandlerRenew(t *testing.T) {
	store := newMemStore()
	held, err := store.TryAcquire(context.Background(), 8, lock.RecordTypeNote, 11, 3, "Dana Vess", time.Minute)
	require.NoError(t, err)

	engine := setupLockRouter(t, store, 3, "Dana Vess")

	t.Run("renews a held lock", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPost, "/api/locks/"+held.ID+"/renew", nil)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, held.ID, data["id"])
	})

	t.Run("unknown lock id is not found", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPost, "/api/locks/lk_missing/renew", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestLockHandlerRelease(t *testing.T) {
	store := newMemStore()
	held, err := store.TryAcquire(context.Background(), 8, lock.RecordTypePort, 5, 3, "Dana Vess", time.Minute)
	require.NoError(t, err)

	engine := setupLockRouter(t, store, 3, "Dana Vess")

	w := doJSON(t, engine, http.MethodDelete, "/api/locks/"+held.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// Releasing again is still a 204.
	w = doJSON(t, engine, http.MethodDelete, "/api/locks/"+held.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestLockHandlerList(t *testing.T) {
	store := newMemStore()
	_, err := store.TryAcquire(context.Background(), 8, lock.RecordTypeHost, 1, 3, "Dana Vess", time.Minute)
	require.NoError(t, err)
	_, err = store.TryAcquire(context.Background(), 9, lock.RecordTypeHost, 1, 3, "Dana Vess", time.Minute)
	require.NoError(t, err)

	engine := setupLockRouter(t, store, 3, "Dana Vess")

	t.Run("lists scope locks", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, "/api/locks?scope_id=8", nil)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeResponse(t, w)
		data := resp.Data.([]interface{})
		assert.Len(t, data, 1)
	})

	t.Run("missing scope_id is a bad request", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, "/api/locks", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

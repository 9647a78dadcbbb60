package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"opsync/internal/domain/lock"
	"opsync/internal/shared/biztime"
	"opsync/internal/shared/logger"
)

const (
	lockRecordKeyPrefix = "lock:rec:"
	lockIDKeyPrefix     = "lock:id:"
	lockScopeKeyPrefix  = "lock:scope:"
	lockScopesKey       = "lock:scopes"
)

// lockRecord is the JSON wire form of a lock inside Redis. Expiry is stored
// as unix milliseconds so the Lua scripts can compare it against a timestamp
// supplied by the caller.
type lockRecord struct {
	ID           string `json:"id"`
	ScopeID      uint   `json:"scope_id"`
	RecordType   string `json:"record_type"`
	RecordID     uint   `json:"record_id"`
	HolderID     uint   `json:"holder_id"`
	HolderName   string `json:"holder_name"`
	AcquiredAtMs int64  `json:"acquired_at_ms"`
	ExpiresAtMs  int64  `json:"expires_at_ms"`
}

// acquireScript implements the atomic check-and-set for one tuple key.
// An expired-but-unreaped record is treated as absent and overwritten.
// Returns {1, lock JSON} on success or {0, existing JSON} on conflict.
var acquireScript = redis.NewScript(`
local rec = redis.call('GET', KEYS[1])
local now = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])
if rec then
  local cur = cjson.decode(rec)
  if tonumber(cur.expires_at_ms) > now then
    if tostring(cur.holder_id) == ARGV[1] then
      cur.expires_at_ms = now + ttl
      local updated = cjson.encode(cur)
      redis.call('SET', KEYS[1], updated, 'PX', ttl)
      redis.call('SET', ARGV[5] .. cur.id, KEYS[1], 'PX', ttl)
      return {1, updated}
    end
    return {0, rec}
  end
  redis.call('SREM', KEYS[2], cur.id)
  redis.call('DEL', ARGV[5] .. cur.id)
end
local cand = cjson.decode(ARGV[2])
redis.call('SET', KEYS[1], ARGV[2], 'PX', ttl)
redis.call('SET', ARGV[5] .. cand.id, KEYS[1], 'PX', ttl)
redis.call('SADD', KEYS[2], cand.id)
redis.call('SADD', KEYS[3], ARGV[6])
return {1, ARGV[2]}
`)

// renewScript extends a lease only for its current holder. A lease that
// already expired is never resurrected, so the result is indistinguishable
// from the lock not existing at all.
var renewScript = redis.NewScript(`
local recKey = redis.call('GET', KEYS[1])
if not recKey then return {0, ''} end
local rec = redis.call('GET', recKey)
if not rec then return {0, ''} end
local cur = cjson.decode(rec)
local now = tonumber(ARGV[2])
if tonumber(cur.expires_at_ms) <= now then return {0, ''} end
if tostring(cur.holder_id) ~= ARGV[1] then return {0, ''} end
local ttl = tonumber(ARGV[3])
cur.expires_at_ms = now + ttl
local updated = cjson.encode(cur)
redis.call('SET', recKey, updated, 'PX', ttl)
redis.call('SET', KEYS[1], recKey, 'PX', ttl)
return {1, updated}
`)

// releaseScript removes the holder's lock. Releasing an absent or expired
// lock succeeds; only a live lock owned by someone else is refused.
var releaseScript = redis.NewScript(`
local recKey = redis.call('GET', KEYS[1])
if not recKey then return 1 end
local rec = redis.call('GET', recKey)
if not rec then
  redis.call('DEL', KEYS[1])
  return 1
end
local cur = cjson.decode(rec)
local now = tonumber(ARGV[2])
if tonumber(cur.expires_at_ms) > now and tostring(cur.holder_id) ~= ARGV[1] then
  return 0
end
redis.call('DEL', recKey)
redis.call('DEL', KEYS[1])
redis.call('SREM', ARGV[3] .. cur.scope_id, cur.id)
return 1
`)

// forceReleaseScript removes whatever lock sits on the tuple, ignoring the
// holder. Administrative bypass only.
var forceReleaseScript = redis.NewScript(`
local rec = redis.call('GET', KEYS[1])
if not rec then return 0 end
local cur = cjson.decode(rec)
redis.call('DEL', KEYS[1])
redis.call('DEL', ARGV[1] .. cur.id)
redis.call('SREM', ARGV[2] .. cur.scope_id, cur.id)
return 1
`)

// reapScript drops one expired lock and its index entries. The record key is
// deleted only while it still holds the observed lock id with a lease in the
// past, so a lock acquired on the tuple after the sweep's read survives.
// Returns 0 when the observed lock turned out to be live.
var reapScript = redis.NewScript(`
local rec = redis.call('GET', KEYS[1])
if rec then
  local cur = cjson.decode(rec)
  if cur.id == ARGV[1] then
    if tonumber(cur.expires_at_ms) > tonumber(ARGV[2]) then return 0 end
    redis.call('DEL', KEYS[1])
  end
end
redis.call('DEL', KEYS[2])
redis.call('SREM', KEYS[3], ARGV[1])
return 1
`)

// RedisLockStore implements lock.Store on Redis. Every mutation runs inside
// a Lua script so acquire, renew, and release are single atomic store
// operations; leases use PX expiry as a backstop, and the per-scope index
// sets are pruned on release and by ReapExpired.
type RedisLockStore struct {
	client *redis.Client
	logger logger.Interface
}

// NewRedisLockStore creates a lock store backed by the given Redis client.
func NewRedisLockStore(client *redis.Client, log logger.Interface) *RedisLockStore {
	return &RedisLockStore{
		client: client,
		logger: log.Named("redislockstore"),
	}
}

func (s *RedisLockStore) TryAcquire(ctx context.Context, scopeID uint, recordType lock.RecordType, recordID, holderID uint, holderName string, ttl time.Duration) (*lock.Lock, error) {
	candidate, err := lock.NewLock(scopeID, recordType, recordID, holderID, holderName, ttl)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(toRecord(candidate))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal lock: %w", err)
	}

	now := biztime.NowUTC()
	res, err := acquireScript.Run(ctx, s.client,
		[]string{recordKey(scopeID, recordType, recordID), scopeKey(scopeID), lockScopesKey},
		strconv.FormatUint(uint64(holderID), 10),
		string(data),
		now.UnixMilli(),
		ttl.Milliseconds(),
		lockIDKeyPrefix,
		strconv.FormatUint(uint64(scopeID), 10),
	).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to run acquire script: %w", err)
	}

	status, payload, err := decodeScriptReply(res)
	if err != nil {
		return nil, err
	}

	acquired, err := fromRecordJSON(payload)
	if err != nil {
		return nil, err
	}
	if status == 0 {
		return nil, &lock.ConflictError{
			HolderID:   acquired.HolderID,
			HolderName: acquired.HolderName,
		}
	}
	return acquired, nil
}

func (s *RedisLockStore) Renew(ctx context.Context, lockID string, holderID uint, ttl time.Duration) (*lock.Lock, error) {
	now := biztime.NowUTC()
	res, err := renewScript.Run(ctx, s.client,
		[]string{lockIDKeyPrefix + lockID},
		strconv.FormatUint(uint64(holderID), 10),
		now.UnixMilli(),
		ttl.Milliseconds(),
	).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to run renew script: %w", err)
	}

	status, payload, err := decodeScriptReply(res)
	if err != nil {
		return nil, err
	}
	if status == 0 {
		return nil, lock.ErrNotHeld
	}
	return fromRecordJSON(payload)
}

func (s *RedisLockStore) Release(ctx context.Context, lockID string, holderID uint) error {
	now := biztime.NowUTC()
	res, err := releaseScript.Run(ctx, s.client,
		[]string{lockIDKeyPrefix + lockID},
		strconv.FormatUint(uint64(holderID), 10),
		now.UnixMilli(),
		lockScopeKeyPrefix,
	).Int64()
	if err != nil {
		return fmt.Errorf("failed to run release script: %w", err)
	}
	if res == 0 {
		return lock.ErrNotHeld
	}
	return nil
}

func (s *RedisLockStore) ForceRelease(ctx context.Context, scopeID uint, recordType lock.RecordType, recordID uint) error {
	released, err := forceReleaseScript.Run(ctx, s.client,
		[]string{recordKey(scopeID, recordType, recordID)},
		lockIDKeyPrefix,
		lockScopeKeyPrefix,
	).Int64()
	if err != nil {
		return fmt.Errorf("failed to run force release script: %w", err)
	}
	if released == 1 {
		s.logger.Infow("lock force released",
			"scope_id", scopeID,
			"record_type", recordType,
			"record_id", recordID,
		)
	}
	return nil
}

func (s *RedisLockStore) ListByScope(ctx context.Context, scopeID uint) ([]*lock.Lock, error) {
	ids, err := s.client.SMembers(ctx, scopeKey(scopeID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read scope lock index: %w", err)
	}

	now := biztime.NowUTC()
	locks := make([]*lock.Lock, 0, len(ids))
	for _, lockID := range ids {
		l, err := s.getByID(ctx, lockID)
		if err != nil {
			return nil, err
		}
		if l == nil || !l.IsLive(now) {
			continue
		}
		locks = append(locks, l)
	}
	return locks, nil
}

func (s *RedisLockStore) ListScopes(ctx context.Context) ([]uint, error) {
	members, err := s.client.SMembers(ctx, lockScopesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read scope index: %w", err)
	}

	scopes := make([]uint, 0, len(members))
	for _, m := range members {
		v, err := strconv.ParseUint(m, 10, 64)
		if err != nil {
			continue
		}
		scopes = append(scopes, uint(v))
	}
	return scopes, nil
}

// ReapExpired walks the scope indexes and drops every lock whose lease has
// passed, along with index entries whose data keys were already evicted by
// the PX expiry. This is the correctness backstop for crashed clients.
func (s *RedisLockStore) ReapExpired(ctx context.Context) (int, error) {
	scopes, err := s.client.SMembers(ctx, lockScopesKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read scope index: %w", err)
	}

	now := biztime.NowUTC()
	reaped := 0
	for _, scope := range scopes {
		sKey := lockScopeKeyPrefix + scope
		ids, err := s.client.SMembers(ctx, sKey).Result()
		if err != nil {
			return reaped, fmt.Errorf("failed to read scope lock index: %w", err)
		}

		live := 0
		for _, lockID := range ids {
			l, err := s.getByID(ctx, lockID)
			if err != nil {
				return reaped, err
			}
			if l != nil && l.IsLive(now) {
				live++
				continue
			}
			if l != nil {
				// Value outlived its PX expiry (clock skew). The delete is
				// conditional on the lock id still sitting on the tuple, so
				// a lock acquired since the read above is never touched.
				res, err := reapScript.Run(ctx, s.client,
					[]string{recordKey(l.ScopeID, l.RecordType, l.RecordID), lockIDKeyPrefix + lockID, sKey},
					lockID,
					now.UnixMilli(),
				).Int64()
				if err != nil {
					return reaped, fmt.Errorf("failed to run reap script: %w", err)
				}
				if res == 0 {
					live++
					continue
				}
				reaped++
				continue
			}
			s.client.Del(ctx, lockIDKeyPrefix+lockID)
			s.client.SRem(ctx, sKey, lockID)
			reaped++
		}

		if live == 0 {
			s.client.SRem(ctx, lockScopesKey, scope)
		}
	}

	if reaped > 0 {
		s.logger.Debugw("expired locks reaped", "count", reaped)
	}
	return reaped, nil
}

// getByID resolves a lock by its ID via the indirection key. Returns nil
// without error when either key is gone.
func (s *RedisLockStore) getByID(ctx context.Context, lockID string) (*lock.Lock, error) {
	recKey, err := s.client.Get(ctx, lockIDKeyPrefix+lockID).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve lock ID: %w", err)
	}

	data, err := s.client.Get(ctx, recKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read lock record: %w", err)
	}

	return fromRecordJSON(data)
}

func recordKey(scopeID uint, recordType lock.RecordType, recordID uint) string {
	return fmt.Sprintf("%s%d:%s:%d", lockRecordKeyPrefix, scopeID, recordType, recordID)
}

func scopeKey(scopeID uint) string {
	return fmt.Sprintf("%s%d", lockScopeKeyPrefix, scopeID)
}

func toRecord(l *lock.Lock) *lockRecord {
	return &lockRecord{
		ID:           l.ID,
		ScopeID:      l.ScopeID,
		RecordType:   l.RecordType.String(),
		RecordID:     l.RecordID,
		HolderID:     l.HolderID,
		HolderName:   l.HolderName,
		AcquiredAtMs: l.AcquiredAt.UnixMilli(),
		ExpiresAtMs:  l.ExpiresAt.UnixMilli(),
	}
}

func fromRecordJSON(data string) (*lock.Lock, error) {
	var rec lockRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lock record: %w", err)
	}
	return &lock.Lock{
		ID:         rec.ID,
		ScopeID:    rec.ScopeID,
		RecordType: lock.RecordType(rec.RecordType),
		RecordID:   rec.RecordID,
		HolderID:   rec.HolderID,
		HolderName: rec.HolderName,
		AcquiredAt: time.UnixMilli(rec.AcquiredAtMs).UTC(),
		ExpiresAt:  time.UnixMilli(rec.ExpiresAtMs).UTC(),
	}, nil
}

func decodeScriptReply(res interface{}) (int64, string, error) {
	reply, ok := res.([]interface{})
	if !ok || len(reply) != 2 {
		return 0, "", fmt.Errorf("unexpected script reply: %v", res)
	}
	status, ok := reply[0].(int64)
	if !ok {
		return 0, "", fmt.Errorf("unexpected script status: %v", reply[0])
	}
	payload, ok := reply[1].(string)
	if !ok {
		return 0, "", fmt.Errorf("unexpected script payload: %v", reply[1])
	}
	return status, payload, nil
}

// Package lock contains the record-lock domain: the lease entity, the
// record-type enum, and the store contract that guarantees mutual exclusion
// per (scope, record type, record id) tuple.
package lock

import (
	"fmt"
	"time"

	"opsync/internal/shared/biztime"
	"opsync/internal/shared/id"
)

// RecordType identifies the kind of engagement record a lock protects.
type RecordType string

const (
	RecordTypeHost                    RecordType = "host"
	RecordTypePort                    RecordType = "port"
	RecordTypeSubnet                  RecordType = "subnet"
	RecordTypeVulnerabilityDefinition RecordType = "vulnerability_definition"
	RecordTypeVulnerabilityInstance   RecordType = "vulnerability_instance"
	RecordTypeNote                    RecordType = "note"
)

func (t RecordType) String() string {
	return string(t)
}

func (t RecordType) IsValid() bool {
	switch t {
	case RecordTypeHost, RecordTypePort, RecordTypeSubnet,
		RecordTypeVulnerabilityDefinition, RecordTypeVulnerabilityInstance,
		RecordTypeNote:
		return true
	}
	return false
}

// Lock is a time-bounded exclusive claim on one engagement record. A lock
// whose lease has expired is logically absent even if not yet reaped.
type Lock struct {
	ID         string     `json:"id"`
	ScopeID    uint       `json:"scope_id"`
	RecordType RecordType `json:"record_type"`
	RecordID   uint       `json:"record_id"`
	HolderID   uint       `json:"holder_id"`
	HolderName string     `json:"holder_name"`
	AcquiredAt time.Time  `json:"acquired_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
}

// NewLock creates a lock with a fresh lease starting now.
func NewLock(scopeID uint, recordType RecordType, recordID, holderID uint, holderName string, ttl time.Duration) (*Lock, error) {
	if scopeID == 0 {
		return nil, fmt.Errorf("scope ID is required")
	}
	if !recordType.IsValid() {
		return nil, fmt.Errorf("invalid record type: %s", recordType)
	}
	if recordID == 0 {
		return nil, fmt.Errorf("record ID is required")
	}
	if holderID == 0 {
		return nil, fmt.Errorf("holder ID is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("lease TTL must be positive")
	}

	lockID, err := id.NewLockID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate lock ID: %w", err)
	}

	now := biztime.NowUTC()
	return &Lock{
		ID:         lockID,
		ScopeID:    scopeID,
		RecordType: recordType,
		RecordID:   recordID,
		HolderID:   holderID,
		HolderName: holderName,
		AcquiredAt: now,
		ExpiresAt:  now.Add(ttl),
	}, nil
}

// IsLive reports whether the lease is still valid at the given instant.
func (l *Lock) IsLive(now time.Time) bool {
	return now.Before(l.ExpiresAt)
}

// HeldBy reports whether the lock belongs to the given user.
func (l *Lock) HeldBy(userID uint) bool {
	return l.HolderID == userID
}

// ExtendLease pushes the expiry to now + ttl. The acquisition time is kept.
func (l *Lock) ExtendLease(ttl time.Duration) {
	l.ExpiresAt = biztime.NowUTC().Add(ttl)
}

// Package dto defines the transport representations of record locks.
package dto

import (
	"time"

	"opsync/internal/domain/lock"
)

// LockDTO is the API representation of a live record lock.
type LockDTO struct {
	ID         string    `json:"id"`
	ScopeID    uint      `json:"scope_id"`
	RecordType string    `json:"record_type"`
	RecordID   uint      `json:"record_id"`
	HolderID   uint      `json:"holder_id"`
	HolderName string    `json:"holder_name"`
	AcquiredAt time.Time `json:"acquired_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// NewLockDTO converts a domain lock to its transport form.
func NewLockDTO(l *lock.Lock) *LockDTO {
	if l == nil {
		return nil
	}
	return &LockDTO{
		ID:         l.ID,
		ScopeID:    l.ScopeID,
		RecordType: l.RecordType.String(),
		RecordID:   l.RecordID,
		HolderID:   l.HolderID,
		HolderName: l.HolderName,
		AcquiredAt: l.AcquiredAt,
		ExpiresAt:  l.ExpiresAt,
	}
}

// NewLockDTOs converts a slice of domain locks.
func NewLockDTOs(locks []*lock.Lock) []*LockDTO {
	dtos := make([]*LockDTO, len(locks))
	for i, l := range locks {
		dtos[i] = NewLockDTO(l)
	}
	return dtos
}

// ScopeLocksDTO groups the live locks of one scope for the admin overview.
type ScopeLocksDTO struct {
	ScopeID uint       `json:"scope_id"`
	Locks   []*LockDTO `json:"locks"`
}

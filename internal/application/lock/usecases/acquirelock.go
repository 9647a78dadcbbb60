package usecases

import (
	"context"
	"fmt"
	"time"

	"opsync/internal/application/lock/dto"
	"opsync/internal/domain/lock"
	"opsync/internal/shared/errors"
	"opsync/internal/shared/logger"
)

type AcquireLockCommand struct {
	ScopeID    uint
	RecordType string
	RecordID   uint
	HolderID   uint
	HolderName string
}

type AcquireLockUseCase struct {
	store  lock.Store
	ttl    time.Duration
	logger logger.Interface
}

func NewAcquireLockUseCase(store lock.Store, ttl time.Duration, logger logger.Interface) *AcquireLockUseCase {
	return &AcquireLockUseCase{
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

// Execute claims the record for the caller. Re-acquiring a record the caller
// already holds refreshes the lease and returns the same lock ID.
func (uc *AcquireLockUseCase) Execute(ctx context.Context, cmd AcquireLockCommand) (*dto.LockDTO, error) {
	if cmd.ScopeID == 0 {
		return nil, errors.NewValidationError("scope_id is required")
	}
	if cmd.RecordID == 0 {
		return nil, errors.NewValidationError("record_id is required")
	}
	recordType := lock.RecordType(cmd.RecordType)
	if !recordType.IsValid() {
		return nil, errors.NewValidationError("invalid record type", cmd.RecordType)
	}

	acquired, err := uc.store.TryAcquire(ctx, cmd.ScopeID, recordType, cmd.RecordID, cmd.HolderID, cmd.HolderName, uc.ttl)
	if err != nil {
		if conflict := lock.AsConflict(err); conflict != nil {
			uc.logger.Debugw("lock acquisition conflict",
				"scope_id", cmd.ScopeID,
				"record_type", cmd.RecordType,
				"record_id", cmd.RecordID,
				"holder_id", conflict.HolderID,
			)
			return nil, errors.NewConflictError("record is locked by another user", conflict.HolderName)
		}
		uc.logger.Errorw("failed to acquire lock",
			"error", err,
			"scope_id", cmd.ScopeID,
			"record_type", cmd.RecordType,
			"record_id", cmd.RecordID,
		)
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}

	uc.logger.Infow("lock acquired",
		"lock_id", acquired.ID,
		"scope_id", acquired.ScopeID,
		"record_type", acquired.RecordType,
		"record_id", acquired.RecordID,
		"holder_id", acquired.HolderID,
	)

	return dto.NewLockDTO(acquired), nil
}

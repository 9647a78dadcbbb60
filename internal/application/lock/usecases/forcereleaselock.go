package usecases

import (
	"context"
	"fmt"

	"opsync/internal/domain/lock"
	"opsync/internal/shared/errors"
	"opsync/internal/shared/logger"
)

type ForceReleaseLockCommand struct {
	ScopeID    uint
	RecordType string
	RecordID   uint
	AdminID    uint
}

type ForceReleaseLockUseCase struct {
	store  lock.Store
	logger logger.Interface
}

func NewForceReleaseLockUseCase(store lock.Store, logger logger.Interface) *ForceReleaseLockUseCase {
	return &ForceReleaseLockUseCase{
		store:  store,
		logger: logger,
	}
}

// Execute removes whatever lock covers the record, regardless of holder.
// The evicted holder discovers the loss on its next renew.
func (uc *ForceReleaseLockUseCase) Execute(ctx context.Context, cmd ForceReleaseLockCommand) error {
	if cmd.ScopeID == 0 {
		return errors.NewValidationError("scope_id is required")
	}
	if cmd.RecordID == 0 {
		return errors.NewValidationError("record_id is required")
	}
	recordType := lock.RecordType(cmd.RecordType)
	if !recordType.IsValid() {
		return errors.NewValidationError("invalid record type", cmd.RecordType)
	}

	if err := uc.store.ForceRelease(ctx, cmd.ScopeID, recordType, cmd.RecordID); err != nil {
		uc.logger.Errorw("failed to force release lock",
			"error", err,
			"scope_id", cmd.ScopeID,
			"record_type", cmd.RecordType,
			"record_id", cmd.RecordID,
		)
		return fmt.Errorf("failed to force release lock: %w", err)
	}

	uc.logger.Infow("lock force released",
		"scope_id", cmd.ScopeID,
		"record_type", cmd.RecordType,
		"record_id", cmd.RecordID,
		"admin_id", cmd.AdminID,
	)
	return nil
}

package usecases

import (
	"context"
	"fmt"

	"opsync/internal/domain/lock"
	"opsync/internal/shared/errors"
	"opsync/internal/shared/logger"
)

type ReleaseLockCommand struct {
	LockID   string
	HolderID uint
}

type ReleaseLockUseCase struct {
	store  lock.Store
	logger logger.Interface
}

func NewReleaseLockUseCase(store lock.Store, logger logger.Interface) *ReleaseLockUseCase {
	return &ReleaseLockUseCase{
		store:  store,
		logger: logger,
	}
}

// Execute releases the caller's lock. Releasing an absent or already expired
// lock succeeds, so clients can retry releases without tracking outcome.
func (uc *ReleaseLockUseCase) Execute(ctx context.Context, cmd ReleaseLockCommand) error {
	if cmd.LockID == "" {
		return errors.NewValidationError("lock ID is required")
	}

	if err := uc.store.Release(ctx, cmd.LockID, cmd.HolderID); err != nil {
		if err == lock.ErrNotHeld {
			return errors.NewNotFoundError("lock not found")
		}
		uc.logger.Errorw("failed to release lock", "error", err, "lock_id", cmd.LockID)
		return fmt.Errorf("failed to release lock: %w", err)
	}

	uc.logger.Infow("lock released", "lock_id", cmd.LockID, "holder_id", cmd.HolderID)
	return nil
}

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

type RenewLockCommand struct {
	LockID   string
	HolderID uint
}

type RenewLockUseCase struct {
	store  lock.Store
	ttl    time.Duration
	logger logger.Interface
}

func NewRenewLockUseCase(store lock.Store, ttl time.Duration, logger logger.Interface) *RenewLockUseCase {
	return &RenewLockUseCase{
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

// Execute extends the caller's lease. A lock that expired, was reaped, or is
// held by someone else is reported as not found; the client must re-acquire.
func (uc *RenewLockUseCase) Execute(ctx context.Context, cmd RenewLockCommand) (*dto.LockDTO, error) {
	if cmd.LockID == "" {
		return nil, errors.NewValidationError("lock ID is required")
	}

	renewed, err := uc.store.Renew(ctx, cmd.LockID, cmd.HolderID, uc.ttl)
	if err != nil {
		if err == lock.ErrNotHeld {
			return nil, errors.NewNotFoundError("lock not found")
		}
		uc.logger.Errorw("failed to renew lock", "error", err, "lock_id", cmd.LockID)
		return nil, fmt.Errorf("failed to renew lock: %w", err)
	}

	uc.logger.Debugw("lock renewed", "lock_id", renewed.ID, "expires_at", renewed.ExpiresAt)

	return dto.NewLockDTO(renewed), nil
}

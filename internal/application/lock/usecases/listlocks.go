package usecases

import (
	"context"
	"fmt"

	"opsync/internal/application/lock/dto"
	"opsync/internal/domain/lock"
	"opsync/internal/shared/errors"
	"opsync/internal/shared/logger"
)

type ListLocksQuery struct {
	ScopeID uint
}

type ListLocksUseCase struct {
	store  lock.Store
	logger logger.Interface
}

func NewListLocksUseCase(store lock.Store, logger logger.Interface) *ListLocksUseCase {
	return &ListLocksUseCase{
		store:  store,
		logger: logger,
	}
}

// Execute lists the live locks of one scope so the UI can badge locked rows.
func (uc *ListLocksUseCase) Execute(ctx context.Context, query ListLocksQuery) ([]*dto.LockDTO, error) {
	if query.ScopeID == 0 {
		return nil, errors.NewValidationError("scope_id is required")
	}

	locks, err := uc.store.ListByScope(ctx, query.ScopeID)
	if err != nil {
		uc.logger.Errorw("failed to list locks", "error", err, "scope_id", query.ScopeID)
		return nil, fmt.Errorf("failed to list locks: %w", err)
	}

	return dto.NewLockDTOs(locks), nil
}

package usecases

import (
	"context"
	"fmt"

	"opsync/internal/domain/lock"
	"opsync/internal/shared/logger"
)

// ReapExpiredLocksUseCase sweeps expired leases out of the store. It satisfies
// the scheduler BatchJob contract and is also driven by the standalone worker.
type ReapExpiredLocksUseCase struct {
	store  lock.Store
	logger logger.Interface
}

func NewReapExpiredLocksUseCase(store lock.Store, logger logger.Interface) *ReapExpiredLocksUseCase {
	return &ReapExpiredLocksUseCase{
		store:  store,
		logger: logger,
	}
}

func (uc *ReapExpiredLocksUseCase) Execute(ctx context.Context) (int, error) {
	reaped, err := uc.store.ReapExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to reap expired locks: %w", err)
	}
	return reaped, nil
}

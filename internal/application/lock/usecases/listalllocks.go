package usecases

import (
	"context"
	"fmt"

	"opsync/internal/application/lock/dto"
	"opsync/internal/domain/lock"
	"opsync/internal/shared/logger"
)

type ListAllLocksUseCase struct {
	store  lock.Store
	logger logger.Interface
}

func NewListAllLocksUseCase(store lock.Store, logger logger.Interface) *ListAllLocksUseCase {
	return &ListAllLocksUseCase{
		store:  store,
		logger: logger,
	}
}

// Execute returns every live lock grouped by scope for the admin overview.
// Scopes whose locks all expired between the index read and the scope read
// are omitted rather than returned empty.
func (uc *ListAllLocksUseCase) Execute(ctx context.Context) ([]*dto.ScopeLocksDTO, error) {
	scopeIDs, err := uc.store.ListScopes(ctx)
	if err != nil {
		uc.logger.Errorw("failed to list lock scopes", "error", err)
		return nil, fmt.Errorf("failed to list lock scopes: %w", err)
	}

	groups := make([]*dto.ScopeLocksDTO, 0, len(scopeIDs))
	for _, scopeID := range scopeIDs {
		locks, err := uc.store.ListByScope(ctx, scopeID)
		if err != nil {
			uc.logger.Errorw("failed to list locks for scope", "error", err, "scope_id", scopeID)
			return nil, fmt.Errorf("failed to list locks for scope %d: %w", scopeID, err)
		}
		if len(locks) == 0 {
			continue
		}
		groups = append(groups, &dto.ScopeLocksDTO{
			ScopeID: scopeID,
			Locks:   dto.NewLockDTOs(locks),
		})
	}

	return groups, nil
}

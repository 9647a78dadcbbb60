package usecases

import (
	"context"
	"fmt"

	"opsync/internal/domain/session"
	"opsync/internal/shared/logger"
)

// CleanupExpiredSessionsUseCase removes expired session rows. Expiry itself is
// enforced on read; this job only keeps the table from growing unbounded.
type CleanupExpiredSessionsUseCase struct {
	sessionRepo session.Repository
	logger      logger.Interface
}

func NewCleanupExpiredSessionsUseCase(sessionRepo session.Repository, logger logger.Interface) *CleanupExpiredSessionsUseCase {
	return &CleanupExpiredSessionsUseCase{
		sessionRepo: sessionRepo,
		logger:      logger,
	}
}

func (uc *CleanupExpiredSessionsUseCase) Execute(ctx context.Context) (int, error) {
	removed, err := uc.sessionRepo.DeleteExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return int(removed), nil
}

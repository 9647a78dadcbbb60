package usecases

import (
	"context"
	"fmt"

	"opsync/internal/domain/session"
	"opsync/internal/shared/errors"
	"opsync/internal/shared/logger"
)

type LogoutCommand struct {
	SessionID string
}

type LogoutUseCase struct {
	sessionRepo session.Repository
	logger      logger.Interface
}

func NewLogoutUseCase(sessionRepo session.Repository, logger logger.Interface) *LogoutUseCase {
	return &LogoutUseCase{
		sessionRepo: sessionRepo,
		logger:      logger,
	}
}

// Execute ends the caller's session. Logging out an already-gone session
// succeeds, so a double-clicked logout button is harmless.
func (uc *LogoutUseCase) Execute(ctx context.Context, cmd LogoutCommand) error {
	if err := uc.sessionRepo.Delete(ctx, cmd.SessionID); err != nil {
		if errors.IsNotFoundError(err) {
			return nil
		}
		uc.logger.Errorw("failed to delete session", "error", err, "session_id", cmd.SessionID)
		return fmt.Errorf("failed to logout: %w", err)
	}

	uc.logger.Infow("user logged out", "session_id", cmd.SessionID)
	return nil
}

package usecases

import (
	"context"
	"fmt"

	"opsync/internal/domain/session"
	"opsync/internal/shared/errors"
	"opsync/internal/shared/logger"
)

type TerminateSessionCommand struct {
	SessionID       string
	CallerSessionID string
}

type TerminateSessionUseCase struct {
	sessionRepo session.Repository
	logger      logger.Interface
}

func NewTerminateSessionUseCase(sessionRepo session.Repository, logger logger.Interface) *TerminateSessionUseCase {
	return &TerminateSessionUseCase{
		sessionRepo: sessionRepo,
		logger:      logger,
	}
}

// Execute ends one session. Admins use the logout endpoint for their own
// session, so terminating it here is refused. Any locks held by the evicted
// user are left to lease expiry.
func (uc *TerminateSessionUseCase) Execute(ctx context.Context, cmd TerminateSessionCommand) error {
	if cmd.SessionID == "" {
		return errors.NewValidationError("session ID is required")
	}
	if cmd.SessionID == cmd.CallerSessionID {
		return errors.NewBadRequestError("cannot terminate your own session")
	}

	if err := uc.sessionRepo.Delete(ctx, cmd.SessionID); err != nil {
		if errors.IsNotFoundError(err) {
			return err
		}
		uc.logger.Errorw("failed to terminate session", "error", err, "session_id", cmd.SessionID)
		return fmt.Errorf("failed to terminate session: %w", err)
	}

	uc.logger.Infow("session terminated", "session_id", cmd.SessionID)
	return nil
}

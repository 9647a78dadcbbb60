package usecases

import (
	"context"
	"fmt"

	"opsync/internal/domain/session"
	"opsync/internal/shared/biztime"
	"opsync/internal/shared/errors"
	"opsync/internal/shared/logger"
)

type TouchSessionUseCase struct {
	sessionRepo session.Repository
	logger      logger.Interface
}

func NewTouchSessionUseCase(sessionRepo session.Repository, logger logger.Interface) *TouchSessionUseCase {
	return &TouchSessionUseCase{
		sessionRepo: sessionRepo,
		logger:      logger,
	}
}

// Execute validates the session and refreshes its last-activity timestamp.
// A terminated or expired session fails with unauthorized, which is how a
// force-logged-out client learns it must reauthenticate.
func (uc *TouchSessionUseCase) Execute(ctx context.Context, sessionID string) error {
	current, err := uc.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.IsNotFoundError(err) {
			return errors.NewUnauthorizedError("session expired")
		}
		uc.logger.Errorw("failed to load session", "error", err, "session_id", sessionID)
		return fmt.Errorf("failed to load session: %w", err)
	}

	if current.IsExpired() {
		return errors.NewUnauthorizedError("session expired")
	}

	if err := uc.sessionRepo.UpdateActivity(ctx, sessionID, biztime.NowUTC()); err != nil {
		// The session was deleted between the read and the update.
		if errors.IsNotFoundError(err) {
			return errors.NewUnauthorizedError("session expired")
		}
		uc.logger.Errorw("failed to update session activity", "error", err, "session_id", sessionID)
		return fmt.Errorf("failed to update session activity: %w", err)
	}

	return nil
}

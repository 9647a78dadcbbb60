package usecases

import (
	"context"
	"fmt"

	"opsync/internal/domain/session"
	"opsync/internal/shared/errors"
	"opsync/internal/shared/logger"
)

type ForceLogoutAllCommand struct {
	CallerSessionID string
}

type ForceLogoutAllResult struct {
	Terminated int64 `json:"terminated"`
}

type ForceLogoutAllUseCase struct {
	sessionRepo session.Repository
	logger      logger.Interface
}

func NewForceLogoutAllUseCase(sessionRepo session.Repository, logger logger.Interface) *ForceLogoutAllUseCase {
	return &ForceLogoutAllUseCase{
		sessionRepo: sessionRepo,
		logger:      logger,
	}
}

// Execute terminates every session except the caller's in one statement, so
// sessions created while the sweep runs are untouched.
func (uc *ForceLogoutAllUseCase) Execute(ctx context.Context, cmd ForceLogoutAllCommand) (*ForceLogoutAllResult, error) {
	if cmd.CallerSessionID == "" {
		return nil, errors.NewValidationError("caller session ID is required")
	}

	terminated, err := uc.sessionRepo.DeleteAllExcept(ctx, cmd.CallerSessionID)
	if err != nil {
		uc.logger.Errorw("failed to force logout all sessions", "error", err)
		return nil, fmt.Errorf("failed to force logout all sessions: %w", err)
	}

	uc.logger.Infow("all other sessions terminated",
		"terminated", terminated,
		"caller_session_id", cmd.CallerSessionID,
	)

	return &ForceLogoutAllResult{Terminated: terminated}, nil
}

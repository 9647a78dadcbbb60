package usecases

import (
	"context"
	"fmt"

	"opsync/internal/application/session/dto"
	"opsync/internal/domain/session"
	"opsync/internal/shared/logger"
)

type ListSessionsUseCase struct {
	sessionRepo session.Repository
	logger      logger.Interface
}

func NewListSessionsUseCase(sessionRepo session.Repository, logger logger.Interface) *ListSessionsUseCase {
	return &ListSessionsUseCase{
		sessionRepo: sessionRepo,
		logger:      logger,
	}
}

// Execute returns all non-expired sessions, most recently active first.
func (uc *ListSessionsUseCase) Execute(ctx context.Context) ([]*dto.SessionDTO, error) {
	sessions, err := uc.sessionRepo.ListActive(ctx)
	if err != nil {
		uc.logger.Errorw("failed to list active sessions", "error", err)
		return nil, fmt.Errorf("failed to list active sessions: %w", err)
	}

	return dto.NewSessionDTOs(sessions), nil
}

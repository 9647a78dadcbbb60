package usecases

import (
	"context"
	"fmt"

	"opsync/internal/application/user/dto"
	"opsync/internal/domain/user"
	"opsync/internal/shared/errors"
	"opsync/internal/shared/logger"
)

type GetCurrentUserUseCase struct {
	userRepo user.Repository
	logger   logger.Interface
}

func NewGetCurrentUserUseCase(userRepo user.Repository, logger logger.Interface) *GetCurrentUserUseCase {
	return &GetCurrentUserUseCase{
		userRepo: userRepo,
		logger:   logger,
	}
}

func (uc *GetCurrentUserUseCase) Execute(ctx context.Context, userID uint) (*dto.UserDTO, error) {
	current, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.IsNotFoundError(err) {
			return nil, err
		}
		uc.logger.Errorw("failed to get current user", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	return dto.NewUserDTO(current), nil
}

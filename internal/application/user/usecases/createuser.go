package usecases

import (
	"context"
	"fmt"

	"opsync/internal/application/user/dto"
	"opsync/internal/domain/user"
	"opsync/internal/shared/authorization"
	"opsync/internal/shared/errors"
	"opsync/internal/shared/logger"
)

type CreateUserCommand struct {
	Username    string
	DisplayName string
	Password    string
	Role        string
}

// CreateUserUseCase provisions an analyst account. There is no self-service
// registration; accounts are seeded by operators through the CLI.
type CreateUserUseCase struct {
	userRepo user.Repository
	hasher   PasswordHasher
	logger   logger.Interface
}

func NewCreateUserUseCase(userRepo user.Repository, hasher PasswordHasher, logger logger.Interface) *CreateUserUseCase {
	return &CreateUserUseCase{
		userRepo: userRepo,
		hasher:   hasher,
		logger:   logger,
	}
}

func (uc *CreateUserUseCase) Execute(ctx context.Context, cmd CreateUserCommand) (*dto.UserDTO, error) {
	if cmd.Username == "" {
		return nil, errors.NewValidationError("username is required")
	}
	if len(cmd.Password) < 8 {
		return nil, errors.NewValidationError("password must be at least 8 characters")
	}
	role := authorization.UserRole(cmd.Role)
	if !role.IsValid() {
		return nil, errors.NewValidationError("invalid role", cmd.Role)
	}

	hash, err := uc.hasher.Hash(cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := user.NewUser(cmd.Username, cmd.DisplayName, hash, role)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	if err := uc.userRepo.Create(ctx, newUser); err != nil {
		if errors.IsConflictError(err) {
			return nil, err
		}
		uc.logger.Errorw("failed to create user", "error", err, "username", cmd.Username)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	uc.logger.Infow("user created", "user_id", newUser.ID, "username", newUser.Username, "role", newUser.Role)

	return dto.NewUserDTO(newUser), nil
}

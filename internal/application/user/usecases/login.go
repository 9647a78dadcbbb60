package usecases

import (
	"context"
	"fmt"
	"time"

	"opsync/internal/application/user/dto"
	"opsync/internal/domain/session"
	"opsync/internal/domain/user"
	"opsync/internal/shared/authorization"
	"opsync/internal/shared/biztime"
	"opsync/internal/shared/config"
	"opsync/internal/shared/errors"
	"opsync/internal/shared/logger"
)

// PasswordHasher verifies and derives password hashes.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) error
}

// TokenIssuer signs session-bound access tokens.
type TokenIssuer interface {
	Generate(userID uint, sessionID, displayName string, role authorization.UserRole) (string, error)
	ExpirySeconds() int
}

type LoginCommand struct {
	Username  string
	Password  string
	IPAddress string
	UserAgent string
}

type LoginResult struct {
	User        *dto.UserDTO
	SessionID   string
	AccessToken string
	ExpiresIn   int
}

type LoginUseCase struct {
	userRepo      user.Repository
	sessionRepo   session.Repository
	hasher        PasswordHasher
	tokenIssuer   TokenIssuer
	sessionConfig config.SessionConfig
	logger        logger.Interface
}

func NewLoginUseCase(
	userRepo user.Repository,
	sessionRepo session.Repository,
	hasher PasswordHasher,
	tokenIssuer TokenIssuer,
	sessionConfig config.SessionConfig,
	logger logger.Interface,
) *LoginUseCase {
	return &LoginUseCase{
		userRepo:      userRepo,
		sessionRepo:   sessionRepo,
		hasher:        hasher,
		tokenIssuer:   tokenIssuer,
		sessionConfig: sessionConfig,
		logger:        logger,
	}
}

func (uc *LoginUseCase) Execute(ctx context.Context, cmd LoginCommand) (*LoginResult, error) {
	if cmd.Username == "" || cmd.Password == "" {
		return nil, errors.NewValidationError("username and password are required")
	}

	existing, err := uc.userRepo.GetByUsername(ctx, cmd.Username)
	if err != nil {
		// Generic message so a probe cannot tell unknown users from bad passwords.
		if errors.IsNotFoundError(err) {
			return nil, errors.NewUnauthorizedError("invalid username or password")
		}
		uc.logger.Errorw("failed to get user by username", "error", err)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := uc.hasher.Verify(cmd.Password, existing.PasswordHash); err != nil {
		uc.logger.Infow("login rejected", "username", cmd.Username, "ip", cmd.IPAddress)
		return nil, errors.NewUnauthorizedError("invalid username or password")
	}

	expiresAt := biztime.NowUTC().Add(time.Duration(uc.sessionConfig.ExpHours) * time.Hour)
	newSession, err := session.NewSession(existing.ID, existing.Username, existing.DisplayName, cmd.IPAddress, cmd.UserAgent, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := uc.sessionRepo.Create(ctx, newSession); err != nil {
		uc.logger.Errorw("failed to persist session", "error", err, "user_id", existing.ID)
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	accessToken, err := uc.tokenIssuer.Generate(existing.ID, newSession.ID, existing.DisplayName, existing.Role)
	if err != nil {
		uc.logger.Errorw("failed to issue access token", "error", err, "user_id", existing.ID)
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	uc.logger.Infow("user logged in",
		"user_id", existing.ID,
		"username", existing.Username,
		"session_id", newSession.ID,
		"ip", cmd.IPAddress,
	)

	return &LoginResult{
		User:        dto.NewUserDTO(existing),
		SessionID:   newSession.ID,
		AccessToken: accessToken,
		ExpiresIn:   uc.tokenIssuer.ExpirySeconds(),
	}, nil
}

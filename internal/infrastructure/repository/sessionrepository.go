package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"opsync/internal/domain/session"
	"opsync/internal/infrastructure/persistence/mappers"
	"opsync/internal/infrastructure/persistence/models"
	"opsync/internal/shared/biztime"
	"opsync/internal/shared/errors"
)

type SessionRepository struct {
	db     *gorm.DB
	mapper mappers.SessionMapper
}

func NewSessionRepository(db *gorm.DB) session.Repository {
	return &SessionRepository{
		db:     db,
		mapper: mappers.NewSessionMapper(),
	}
}

func (r *SessionRepository) Create(ctx context.Context, s *session.Session) error {
	model := r.mapper.ToModel(s)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID string) (*session.Session, error) {
	var model models.SessionModel
	err := r.db.WithContext(ctx).Where("id = ?", sessionID).First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("session not found")
		}
		return nil, fmt.Errorf("failed to get session by ID: %w", err)
	}
	return r.mapper.ToDomain(&model), nil
}

func (r *SessionRepository) ListActive(ctx context.Context) ([]*session.Session, error) {
	var sessionModels []models.SessionModel
	err := r.db.WithContext(ctx).
		Where("expires_at > ?", biztime.NowUTC()).
		Order("last_activity_at DESC").
		Find(&sessionModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active sessions: %w", err)
	}

	sessions := make([]*session.Session, len(sessionModels))
	for i := range sessionModels {
		sessions[i] = r.mapper.ToDomain(&sessionModels[i])
	}
	return sessions, nil
}

func (r *SessionRepository) UpdateActivity(ctx context.Context, sessionID string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.SessionModel{}).
		Where("id = ?", sessionID).
		Update("last_activity_at", at)
	if result.Error != nil {
		return fmt.Errorf("failed to update session activity: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("session not found")
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", sessionID).
		Delete(&models.SessionModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("session not found")
	}
	return nil
}

// DeleteAllExcept removes every other session in one statement so that the
// snapshot is atomic: sessions created after this call are not affected.
func (r *SessionRepository) DeleteAllExcept(ctx context.Context, sessionID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id <> ?", sessionID).
		Delete(&models.SessionModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at <= ?", biztime.NowUTC()).
		Delete(&models.SessionModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}

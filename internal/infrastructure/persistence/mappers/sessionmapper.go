package mappers

import (
	"opsync/internal/domain/session"
	"opsync/internal/infrastructure/persistence/models"
)

// SessionMapper handles the conversion between Session domain entities and persistence models.
type SessionMapper interface {
	ToModel(entity *session.Session) *models.SessionModel
	ToDomain(model *models.SessionModel) *session.Session
}

// SessionMapperImpl is the concrete implementation of SessionMapper.
type SessionMapperImpl struct{}

// NewSessionMapper creates a new SessionMapper.
func NewSessionMapper() SessionMapper {
	return &SessionMapperImpl{}
}

// ToModel converts a domain entity to a persistence model.
func (m *SessionMapperImpl) ToModel(entity *session.Session) *models.SessionModel {
	if entity == nil {
		return nil
	}
	return &models.SessionModel{
		ID:             entity.ID,
		UserID:         entity.UserID,
		Username:       entity.Username,
		DisplayName:    entity.DisplayName,
		IPAddress:      entity.IPAddress,
		UserAgent:      entity.UserAgent,
		ExpiresAt:      entity.ExpiresAt,
		LastActivityAt: entity.LastActivityAt,
		CreatedAt:      entity.CreatedAt,
	}
}

// ToDomain converts a persistence model to a domain entity.
func (m *SessionMapperImpl) ToDomain(model *models.SessionModel) *session.Session {
	if model == nil {
		return nil
	}
	return &session.Session{
		ID:             model.ID,
		UserID:         model.UserID,
		Username:       model.Username,
		DisplayName:    model.DisplayName,
		IPAddress:      model.IPAddress,
		UserAgent:      model.UserAgent,
		ExpiresAt:      model.ExpiresAt,
		LastActivityAt: model.LastActivityAt,
		CreatedAt:      model.CreatedAt,
	}
}

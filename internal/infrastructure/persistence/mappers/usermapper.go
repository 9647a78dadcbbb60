package mappers

import (
	"opsync/internal/domain/user"
	"opsync/internal/infrastructure/persistence/models"
	"opsync/internal/shared/authorization"
)

// UserMapper handles the conversion between User domain entities and persistence models.
type UserMapper interface {
	ToModel(entity *user.User) *models.UserModel
	ToDomain(model *models.UserModel) *user.User
}

type UserMapperImpl struct{}

// NewUserMapper creates a new UserMapper.
func NewUserMapper() UserMapper {
	return &UserMapperImpl{}
}

func (m *UserMapperImpl) ToModel(entity *user.User) *models.UserModel {
	if entity == nil {
		return nil
	}
	return &models.UserModel{
		ID:           entity.ID,
		Username:     entity.Username,
		DisplayName:  entity.DisplayName,
		PasswordHash: entity.PasswordHash,
		Role:         entity.Role.String(),
		CreatedAt:    entity.CreatedAt,
		UpdatedAt:    entity.UpdatedAt,
	}
}

func (m *UserMapperImpl) ToDomain(model *models.UserModel) *user.User {
	if model == nil {
		return nil
	}
	return &user.User{
		ID:           model.ID,
		Username:     model.Username,
		DisplayName:  model.DisplayName,
		PasswordHash: model.PasswordHash,
		Role:         authorization.ParseUserRole(model.Role),
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

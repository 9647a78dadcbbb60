package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"opsync/internal/domain/user"
	"opsync/internal/infrastructure/persistence/mappers"
	"opsync/internal/infrastructure/persistence/models"
	"opsync/internal/shared/errors"
)

type UserRepository struct {
	db     *gorm.DB
	mapper mappers.UserMapper
}

func NewUserRepository(db *gorm.DB) user.Repository {
	return &UserRepository{
		db:     db,
		mapper: mappers.NewUserMapper(),
	}
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	model := r.mapper.ToModel(u)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.NewConflictError("username already taken")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	u.ID = model.ID
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*user.User, error) {
	var model models.UserModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("user not found")
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return r.mapper.ToDomain(&model), nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	var model models.UserModel
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("user not found")
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return r.mapper.ToDomain(&model), nil
}

func (r *UserRepository) List(ctx context.Context) ([]*user.User, error) {
	var userModels []models.UserModel
	err := r.db.WithContext(ctx).Order("username ASC").Find(&userModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]*user.User, len(userModels))
	for i := range userModels {
		users[i] = r.mapper.ToDomain(&userModels[i])
	}
	return users, nil
}

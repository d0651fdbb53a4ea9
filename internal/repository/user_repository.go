package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"taskboard/internal/model"
)

// UserRepository handles CRUD for users.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Omit("Tasks").Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpsertByUsername finds or creates a user by username. Nil profile fields keep their stored value.
func (r *UserRepository) UpsertByUsername(ctx context.Context, username string, email, fullName *string) (*model.User, error) {
	var user model.User
	db := r.db.WithContext(ctx)
	err := db.Where("username = ?", username).First(&user).Error
	switch {
	case err == nil:
		updates := map[string]interface{}{}
		if email != nil {
			updates["email"] = email
		}
		if fullName != nil {
			updates["full_name"] = fullName
		}
		if len(updates) == 0 {
			return &user, nil
		}
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
		return &user, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = model.User{
			Username: username,
			Email:    email,
			FullName: fullName,
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		return &user, nil
	default:
		return nil, fmt.Errorf("find user: %w", err)
	}
}

// FindByID loads a user with its tasks. A missing row yields gorm.ErrRecordNotFound.
func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).
		Preload("Tasks", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC, id DESC") }).
		First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check user %d: %w", id, err)
	}
	return count > 0, nil
}

func (r *UserRepository) ListAll(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) Update(ctx context.Context, id uint, changes map[string]any) error {
	if len(changes) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Model(&model.User{ID: id}).Updates(changes).Error; err != nil {
		return fmt.Errorf("update user %d: %w", id, err)
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id uint) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&model.User{}, id)
	if result.Error != nil {
		return 0, fmt.Errorf("delete user %d: %w", id, result.Error)
	}
	return result.RowsAffected, nil
}

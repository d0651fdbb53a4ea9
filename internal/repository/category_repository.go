package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"taskboard/internal/model"
)

// ErrEmptyCategoryName is returned by GetOrCreate for a blank name.
var ErrEmptyCategoryName = errors.New("category name is required")

// CategoryRepository manages task categories.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(ctx context.Context, category *model.Category) error {
	if err := r.db.WithContext(ctx).Omit("Tasks").Create(category).Error; err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// GetOrCreate finds a category by name and creates it from template when missing.
func (r *CategoryRepository) GetOrCreate(ctx context.Context, template model.Category) (*model.Category, error) {
	if strings.TrimSpace(template.Name) == "" {
		return nil, ErrEmptyCategoryName
	}

	var category model.Category
	db := r.db.WithContext(ctx)
	err := db.Where("name = ?", template.Name).First(&category).Error
	switch {
	case err == nil:
		return &category, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		category = template
		if category.Color == "" {
			category.Color = model.DefaultCategoryColor
		}
		if err := db.Omit("Tasks").Create(&category).Error; err != nil {
			return nil, fmt.Errorf("create category: %w", err)
		}
		return &category, nil
	default:
		return nil, fmt.Errorf("find category: %w", err)
	}
}

func (r *CategoryRepository) List(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// GetByID loads a category and its tasks. A missing row yields gorm.ErrRecordNotFound.
func (r *CategoryRepository) GetByID(ctx context.Context, id uint) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).
		Preload("Tasks", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC, id DESC") }).
		First(&category, id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check category %d: %w", id, err)
	}
	return count > 0, nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id uint) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&model.Category{}, id)
	if result.Error != nil {
		return 0, fmt.Errorf("delete category %d: %w", id, result.Error)
	}
	return result.RowsAffected, nil
}

package service

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"taskboard/internal/model"
	"taskboard/internal/repository"
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// CategoryInput carries the fields accepted on creation.
type CategoryInput struct {
	Name  string
	Color string
	Icon  *string
}

// CategoryService provides helpers around categories.
type CategoryService struct {
	repo *repository.CategoryRepository
}

func NewCategoryService(repo *repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) Create(ctx context.Context, input CategoryInput) (*model.Category, error) {
	category, err := s.validate(input)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

// validate trims the input and fills the default color.
func (s *CategoryService) validate(input CategoryInput) (model.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return model.Category{}, invalid("name", "is required")
	}
	if utf8.RuneCountInString(name) > 50 {
		return model.Category{}, invalid("name", "must be at most 50 characters")
	}
	color := strings.TrimSpace(input.Color)
	if color == "" {
		color = model.DefaultCategoryColor
	}
	if !hexColor.MatchString(color) {
		return model.Category{}, invalid("color", "must be a hex color like #3B82F6")
	}
	if input.Icon != nil && utf8.RuneCountInString(*input.Icon) > 50 {
		return model.Category{}, invalid("icon", "must be at most 50 characters")
	}
	return model.Category{Name: name, Color: color, Icon: input.Icon}, nil
}

// FindAll lists categories by name.
func (s *CategoryService) FindAll(ctx context.Context) ([]model.Category, error) {
	return s.repo.List(ctx)
}

func (s *CategoryService) FindOne(ctx context.Context, id uint) (*model.Category, error) {
	category, err := s.repo.GetByID(ctx, id)
	if isRecordNotFound(err) {
		return nil, notFound("Category", id)
	}
	if err != nil {
		return nil, err
	}
	return category, nil
}

// FindOrCreate resolves a category by name, creating it from input when absent.
func (s *CategoryService) FindOrCreate(ctx context.Context, input CategoryInput) (*model.Category, error) {
	category, err := s.validate(input)
	if err != nil {
		return nil, err
	}
	return s.repo.GetOrCreate(ctx, category)
}

// Remove deletes a category; its tasks keep existing without a category.
func (s *CategoryService) Remove(ctx context.Context, id uint) error {
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound("Category", id)
	}
	return nil
}

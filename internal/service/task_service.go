package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"taskboard/internal/model"
	"taskboard/internal/repository"
)

const maxTitleLength = 200

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title       string
	Description *string
	Priority    *string
	DueDate     *model.Date
	UserID      uint
	CategoryID  *uint
}

// TaskPatch holds optional changes; nil fields are left untouched.
// ClearDueDate and ClearCategory null the column explicitly.
type TaskPatch struct {
	Title         *string
	Description   *string
	Completed     *bool
	Priority      *string
	DueDate       *model.Date
	ClearDueDate  bool
	CategoryID    *uint
	ClearCategory bool
}

// TaskService wraps task-related business logic.
type TaskService struct {
	taskRepo     *repository.TaskRepository
	userRepo     *repository.UserRepository
	categoryRepo *repository.CategoryRepository
}

func NewTaskService(taskRepo *repository.TaskRepository, userRepo *repository.UserRepository, categoryRepo *repository.CategoryRepository) *TaskService {
	return &TaskService{taskRepo: taskRepo, userRepo: userRepo, categoryRepo: categoryRepo}
}

// Create stores a new open task. Missing or unknown priorities become medium.
func (s *TaskService) Create(ctx context.Context, input TaskInput) (*model.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, invalid("title", "is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return nil, invalid("title", "must be at most 200 characters")
	}
	if input.UserID == 0 {
		return nil, invalid("userId", "is required")
	}
	if err := s.ensureUser(ctx, input.UserID); err != nil {
		return nil, err
	}
	if input.CategoryID != nil {
		if err := s.ensureCategory(ctx, *input.CategoryID); err != nil {
			return nil, err
		}
	}

	task := model.Task{
		Title:       title,
		Description: input.Description,
		Priority:    model.NormalizePriority(input.Priority),
		DueDate:     input.DueDate,
		UserID:      input.UserID,
		CategoryID:  input.CategoryID,
	}
	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *TaskService) FindAll(ctx context.Context) ([]model.Task, error) {
	return s.taskRepo.List(ctx)
}

func (s *TaskService) FindByUser(ctx context.Context, userID uint) ([]model.Task, error) {
	return s.taskRepo.ListByUser(ctx, userID)
}

func (s *TaskService) FindOne(ctx context.Context, id uint) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, id)
	if isRecordNotFound(err) {
		return nil, notFound("Task", id)
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Update applies the patch and returns the refreshed task with relations.
func (s *TaskService) Update(ctx context.Context, id uint, patch TaskPatch) (*model.Task, error) {
	exists, err := s.taskRepo.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, notFound("Task", id)
	}

	changes := make(map[string]any)
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, invalid("title", "must not be empty")
		}
		if utf8.RuneCountInString(title) > maxTitleLength {
			return nil, invalid("title", "must be at most 200 characters")
		}
		changes["title"] = title
	}
	if patch.Description != nil {
		changes["description"] = *patch.Description
	}
	if patch.Completed != nil {
		changes["completed"] = *patch.Completed
	}
	if patch.Priority != nil {
		changes["priority"] = model.NormalizePriority(patch.Priority)
	}
	switch {
	case patch.ClearDueDate:
		changes["due_date"] = nil
	case patch.DueDate != nil:
		changes["due_date"] = *patch.DueDate
	}
	switch {
	case patch.ClearCategory:
		changes["category_id"] = nil
	case patch.CategoryID != nil:
		if err := s.ensureCategory(ctx, *patch.CategoryID); err != nil {
			return nil, err
		}
		changes["category_id"] = *patch.CategoryID
	}

	if err := s.taskRepo.Update(ctx, id, changes); err != nil {
		return nil, err
	}
	return s.FindOne(ctx, id)
}

func (s *TaskService) Remove(ctx context.Context, id uint) error {
	affected, err := s.taskRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound("Task", id)
	}
	return nil
}

// ToggleComplete flips the completed flag.
func (s *TaskService) ToggleComplete(ctx context.Context, id uint) (*model.Task, error) {
	task, err := s.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.taskRepo.SetCompleted(ctx, id, !task.Completed); err != nil {
		return nil, err
	}
	return s.FindOne(ctx, id)
}

func (s *TaskService) ensureUser(ctx context.Context, id uint) error {
	ok, err := s.userRepo.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return notFound("User", id)
	}
	return nil
}

func (s *TaskService) ensureCategory(ctx context.Context, id uint) error {
	ok, err := s.categoryRepo.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return notFound("Category", id)
	}
	return nil
}

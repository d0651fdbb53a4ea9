package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"taskboard/internal/model"
)

// TaskRepository handles CRUD for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Omit("User", "Category").Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// List returns every task with its owner and category, newest first.
func (r *TaskRepository) List(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Category").
		Order("created_at DESC, id DESC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) ListByUser(ctx context.Context, userID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks of user %d: %w", userID, err)
	}
	return tasks, nil
}

// ListOpenByUser returns incomplete tasks of a user with their category.
func (r *TaskRepository) ListOpenByUser(ctx context.Context, userID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Where("user_id = ? AND completed = ?", userID, false).
		Order("created_at DESC, id DESC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list open tasks of user %d: %w", userID, err)
	}
	return tasks, nil
}

// FindByID loads one task with its owner and category. A missing row yields gorm.ErrRecordNotFound.
func (r *TaskRepository) FindByID(ctx context.Context, id uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Category").
		First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Task{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check task %d: %w", id, err)
	}
	return count > 0, nil
}

// Update applies column changes and refreshes updated_at.
func (r *TaskRepository) Update(ctx context.Context, id uint, changes map[string]any) error {
	if len(changes) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Model(&model.Task{ID: id}).Updates(changes).Error; err != nil {
		return fmt.Errorf("update task %d: %w", id, err)
	}
	return nil
}

func (r *TaskRepository) SetCompleted(ctx context.Context, id uint, completed bool) error {
	if err := r.db.WithContext(ctx).Model(&model.Task{ID: id}).Update("completed", completed).Error; err != nil {
		return fmt.Errorf("set task %d completed: %w", id, err)
	}
	return nil
}

// Delete removes a task and reports how many rows went away.
func (r *TaskRepository) Delete(ctx context.Context, id uint) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&model.Task{}, id)
	if result.Error != nil {
		return 0, fmt.Errorf("delete task %d: %w", id, result.Error)
	}
	return result.RowsAffected, nil
}

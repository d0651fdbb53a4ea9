// Package seed loads fixture data from YAML through the services.
package seed

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"taskboard/internal/model"
	"taskboard/internal/repository"
	"taskboard/internal/service"
)

// YAMLUser represents a single user in the YAML input.
type YAMLUser struct {
	Username string  `yaml:"username"`
	Email    *string `yaml:"email,omitempty"`
	FullName *string `yaml:"full_name,omitempty"`
}

type YAMLCategory struct {
	Name  string  `yaml:"name"`
	Color string  `yaml:"color,omitempty"`
	Icon  *string `yaml:"icon,omitempty"`
}

// YAMLTask references its owner by username and its category by name.
type YAMLTask struct {
	Title       string  `yaml:"title"`
	Description *string `yaml:"description,omitempty"`
	Priority    *string `yaml:"priority,omitempty"`
	DueDate     string  `yaml:"due_date,omitempty"`
	Completed   bool    `yaml:"completed,omitempty"`
	User        string  `yaml:"user"`
	Category    string  `yaml:"category,omitempty"`
}

// YAMLInput represents the root structure of the YAML input.
type YAMLInput struct {
	Users      []YAMLUser     `yaml:"users"`
	Categories []YAMLCategory `yaml:"categories"`
	Tasks      []YAMLTask     `yaml:"tasks"`
}

// Result counts what was written.
type Result struct {
	Users      int
	Categories int
	Tasks      int
}

// Importer writes fixtures through the services so defaults and checks apply.
// One file is imported in one transaction.
type Importer struct {
	db *gorm.DB
}

func NewImporter(db *gorm.DB) *Importer {
	return &Importer{db: db}
}

// ImportFile reads path and imports it.
func (im *Importer) ImportFile(ctx context.Context, path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read seed file: %w", err)
	}
	return im.Import(ctx, data)
}

// Import upserts users by username, reuses categories by name and always creates tasks.
// Nothing is kept when any entry fails.
func (im *Importer) Import(ctx context.Context, data []byte) (Result, error) {
	var input YAMLInput
	if err := yaml.Unmarshal(data, &input); err != nil {
		return Result{}, fmt.Errorf("YAML parse error: %w", err)
	}
	if len(input.Users) == 0 && len(input.Categories) == 0 && len(input.Tasks) == 0 {
		return Result{}, fmt.Errorf("no users, categories or tasks found in YAML")
	}

	var res Result
	err := im.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		res, err = newWriter(tx).write(ctx, input)
		return err
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// writer holds services bound to one transaction.
type writer struct {
	users      *service.UserService
	categories *service.CategoryService
	tasks      *service.TaskService
}

func newWriter(tx *gorm.DB) *writer {
	userRepo := repository.NewUserRepository(tx)
	categoryRepo := repository.NewCategoryRepository(tx)
	taskRepo := repository.NewTaskRepository(tx)
	return &writer{
		users:      service.NewUserService(userRepo),
		categories: service.NewCategoryService(categoryRepo),
		tasks:      service.NewTaskService(taskRepo, userRepo, categoryRepo),
	}
}

func (w *writer) write(ctx context.Context, input YAMLInput) (Result, error) {
	var res Result
	userIDs := make(map[string]uint)
	for _, yu := range input.Users {
		user, err := w.users.Upsert(ctx, service.UserInput{
			Username: yu.Username,
			Email:    yu.Email,
			FullName: yu.FullName,
		})
		if err != nil {
			return res, fmt.Errorf("user %q: %w", yu.Username, err)
		}
		userIDs[user.Username] = user.ID
		res.Users++
	}

	categoryIDs := make(map[string]uint)
	for _, yc := range input.Categories {
		category, err := w.categories.FindOrCreate(ctx, service.CategoryInput{
			Name:  yc.Name,
			Color: yc.Color,
			Icon:  yc.Icon,
		})
		if err != nil {
			return res, fmt.Errorf("category %q: %w", yc.Name, err)
		}
		categoryIDs[category.Name] = category.ID
		res.Categories++
	}

	for i, yt := range input.Tasks {
		n, err := w.importTask(ctx, yt, userIDs, categoryIDs)
		if err != nil {
			return res, fmt.Errorf("task %d %q: %w", i+1, yt.Title, err)
		}
		res.Tasks += n
	}
	return res, nil
}

func (w *writer) importTask(ctx context.Context, yt YAMLTask, userIDs, categoryIDs map[string]uint) (int, error) {
	if yt.Title == "" {
		return 0, fmt.Errorf("task title is required")
	}

	userID, ok := userIDs[yt.User]
	if !ok {
		user, err := w.users.FindByUsername(ctx, yt.User)
		if err != nil {
			return 0, err
		}
		userID = user.ID
	}

	input := service.TaskInput{
		Title:       yt.Title,
		Description: yt.Description,
		Priority:    yt.Priority,
		UserID:      userID,
	}
	if yt.Category != "" {
		categoryID, ok := categoryIDs[yt.Category]
		if !ok {
			category, err := w.categories.FindOrCreate(ctx, service.CategoryInput{Name: yt.Category})
			if err != nil {
				return 0, err
			}
			categoryID = category.ID
			categoryIDs[yt.Category] = categoryID
		}
		input.CategoryID = &categoryID
	}
	if yt.DueDate != "" {
		due, err := model.ParseDate(yt.DueDate)
		if err != nil {
			return 0, err
		}
		input.DueDate = &due
	}

	task, err := w.tasks.Create(ctx, input)
	if err != nil {
		return 0, err
	}
	if yt.Completed {
		if _, err := w.tasks.ToggleComplete(ctx, task.ID); err != nil {
			return 0, err
		}
	}
	return 1, nil
}

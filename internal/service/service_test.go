package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"taskboard/internal/model"
	"taskboard/internal/repository"
)

type testServices struct {
	tasks      *TaskService
	categories *CategoryService
	users      *UserService
	summaries  *SummaryService
}

func newTestServices(t *testing.T) testServices {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repository.NewDB(repository.Options{
		Driver:   repository.DriverSQLite,
		DSN:      fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	taskRepo := repository.NewTaskRepository(db)
	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	statsRepo, err := repository.NewStatsRepository(db)
	require.NoError(t, err)

	return testServices{
		tasks:      NewTaskService(taskRepo, userRepo, categoryRepo),
		categories: NewCategoryService(categoryRepo),
		users:      NewUserService(userRepo),
		summaries:  NewSummaryService(taskRepo, userRepo, statsRepo),
	}
}

func (s testServices) user(t *testing.T, username string) *model.User {
	t.Helper()
	u, err := s.users.Create(context.Background(), UserInput{Username: username})
	require.NoError(t, err)
	return u
}

func strPtr(s string) *string { return &s }

func uintPtr(v uint) *uint { return &v }

package cli

import (
	"database/sql"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"taskboard/internal/config"
	"taskboard/internal/repository"
	"taskboard/internal/service"
)

// app holds the storage handles and services shared by the commands.
type app struct {
	cfg   config.Config
	db    *gorm.DB
	sqlDB *sql.DB

	tasks      *service.TaskService
	categories *service.CategoryService
	users      *service.UserService
	summaries  *service.SummaryService
}

func openApp(cfg config.Config, level logger.LogLevel) (*app, error) {
	db, err := repository.NewDB(dbOptions(cfg, level))
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db handle: %w", err)
	}

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	statsRepo, err := repository.NewStatsRepository(db)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	return &app{
		cfg:        cfg,
		db:         db,
		sqlDB:      sqlDB,
		tasks:      service.NewTaskService(taskRepo, userRepo, categoryRepo),
		categories: service.NewCategoryService(categoryRepo),
		users:      service.NewUserService(userRepo),
		summaries:  service.NewSummaryService(taskRepo, userRepo, statsRepo),
	}, nil
}

func (a *app) Close() error {
	return a.sqlDB.Close()
}

func dbOptions(cfg config.Config, level logger.LogLevel) repository.Options {
	return repository.Options{
		Driver:   cfg.DBDriver,
		DSN:      cfg.DatabaseURL,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
		LogLevel: level,
	}
}

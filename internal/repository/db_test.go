package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"taskboard/internal/model"
)

var sqliteDrivers = []string{DriverSQLite, DriverSQLiteNoCGO}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return newTestDBWithDriver(t, DriverSQLite)
}

func newTestDBWithDriver(t *testing.T, driver string) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "-", "_").Replace(t.Name())
	db, err := NewDB(Options{
		Driver:   driver,
		DSN:      fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()
	user := &model.User{Username: username}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), user))
	return user
}

func TestDeleteUserCascadesToTasks(t *testing.T) {
	for _, driver := range sqliteDrivers {
		t.Run(driver, func(t *testing.T) {
			db := newTestDBWithDriver(t, driver)
			ctx := context.Background()
			tasks := NewTaskRepository(db)

			john := seedUser(t, db, "john")
			jane := seedUser(t, db, "jane")
			require.NoError(t, tasks.Create(ctx, &model.Task{Title: "a", Priority: model.PriorityLow, UserID: john.ID}))
			require.NoError(t, tasks.Create(ctx, &model.Task{Title: "b", Priority: model.PriorityLow, UserID: jane.ID}))

			n, err := NewUserRepository(db).Delete(ctx, john.ID)
			require.NoError(t, err)
			assert.EqualValues(t, 1, n)

			left, err := tasks.List(ctx)
			require.NoError(t, err)
			require.Len(t, left, 1)
			assert.Equal(t, "b", left[0].Title)
			require.NotNil(t, left[0].User)
			assert.Equal(t, "jane", left[0].User.Username)
		})
	}
}

func TestDeleteCategoryDetachesTasks(t *testing.T) {
	for _, driver := range sqliteDrivers {
		t.Run(driver, func(t *testing.T) {
			db := newTestDBWithDriver(t, driver)
			ctx := context.Background()
			tasks := NewTaskRepository(db)
			categories := NewCategoryRepository(db)

			john := seedUser(t, db, "john")
			work := &model.Category{Name: "Work", Color: model.DefaultCategoryColor}
			require.NoError(t, categories.Create(ctx, work))

			task := &model.Task{Title: "report", Priority: model.PriorityHigh, UserID: john.ID, CategoryID: &work.ID}
			require.NoError(t, tasks.Create(ctx, task))

			n, err := categories.Delete(ctx, work.ID)
			require.NoError(t, err)
			assert.EqualValues(t, 1, n)

			got, err := tasks.FindByID(ctx, task.ID)
			require.NoError(t, err)
			assert.Nil(t, got.CategoryID)
			assert.Nil(t, got.Category)
		})
	}
}

func TestTaskWithUnknownUserIsRejected(t *testing.T) {
	for _, driver := range sqliteDrivers {
		t.Run(driver, func(t *testing.T) {
			db := newTestDBWithDriver(t, driver)
			assert.Equal(t, DriverSQLite, DriverName(db))
			err := NewTaskRepository(db).Create(context.Background(), &model.Task{Title: "x", Priority: model.PriorityLow, UserID: 99})
			assert.Error(t, err)
		})
	}
}

func TestTaskListNewestFirst(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tasks := NewTaskRepository(db)
	john := seedUser(t, db, "john")

	for _, title := range []string{"first", "second", "third"} {
		require.NoError(t, tasks.Create(ctx, &model.Task{Title: title, Priority: model.PriorityMedium, UserID: john.ID}))
	}

	list, err := tasks.ListByUser(ctx, john.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].Title)
	assert.Equal(t, "first", list[2].Title)

	ok, err := tasks.Exists(ctx, list[0].ID)
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := tasks.Delete(ctx, 999)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDueDateRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tasks := NewTaskRepository(db)
	john := seedUser(t, db, "john")

	due := model.NewDate(2025, 1, 31)
	task := &model.Task{Title: "pay rent", Priority: model.PriorityHigh, UserID: john.ID, DueDate: &due}
	require.NoError(t, tasks.Create(ctx, task))

	got, err := tasks.FindByID(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DueDate)
	assert.Equal(t, "2025-01-31", got.DueDate.String())

	require.NoError(t, tasks.Update(ctx, task.ID, map[string]any{"due_date": nil}))
	got, err = tasks.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, got.DueDate)
}

func TestCategoryGetOrCreate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	categories := NewCategoryRepository(db)

	first, err := categories.GetOrCreate(ctx, model.Category{Name: "Home"})
	require.NoError(t, err)
	assert.Equal(t, model.DefaultCategoryColor, first.Color)

	again, err := categories.GetOrCreate(ctx, model.Category{Name: "Home", Color: "#000000"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, model.DefaultCategoryColor, again.Color)

	_, err = categories.GetOrCreate(ctx, model.Category{Name: "  "})
	assert.ErrorIs(t, err, ErrEmptyCategoryName)
}

func TestUserUpsertByUsername(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	users := NewUserRepository(db)
	email := "john@example.com"
	name := "John Doe"

	created, err := users.UpsertByUsername(ctx, "john", nil, nil)
	require.NoError(t, err)

	updated, err := users.UpsertByUsername(ctx, "john", &email, &name)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)

	again, err := users.UpsertByUsername(ctx, "john", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	found, err := users.FindByUsername(ctx, "john")
	require.NoError(t, err)
	require.NotNil(t, found.Email)
	assert.Equal(t, email, *found.Email)
	require.NotNil(t, found.FullName)
	assert.Equal(t, name, *found.FullName)
}

func TestDSNBuilders(t *testing.T) {
	dsn, err := sqliteDSN("", "_foreign_keys=on")
	require.NoError(t, err)
	assert.Equal(t, "taskboard.db?_foreign_keys=on", dsn)

	dsn, err = sqliteDSN("file:x?mode=memory", "_pragma=foreign_keys(1)")
	require.NoError(t, err)
	assert.Equal(t, "file:x?mode=memory&_pragma=foreign_keys(1)", dsn)

	nested := filepath.Join(t.TempDir(), "data", "tasks.db")
	_, err = sqliteDSN(nested, "_foreign_keys=on")
	require.NoError(t, err)
	assert.DirExists(t, filepath.Dir(nested))

	assert.Equal(t,
		"host=db port=5432 user=app password=secret dbname=tasks sslmode=disable",
		postgresDSN(Options{Host: "db", User: "app", Password: "secret", Name: "tasks"}))

	my := mysqlDSN(Options{User: "app", Password: "secret", Name: "tasks"})
	assert.True(t, strings.HasPrefix(my, "app:secret@tcp(localhost:3306)/tasks?"), my)
	assert.Contains(t, my, "parseTime=true")
}

func TestDialectorRejectsUnknownDriver(t *testing.T) {
	_, err := dialectorFor(Options{Driver: "oracle"})
	assert.EqualError(t, err, `unsupported db driver "oracle"`)
}

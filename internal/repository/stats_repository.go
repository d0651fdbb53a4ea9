package repository

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"

	"taskboard/internal/model"
)

// UserCounts aggregates the tasks of one user.
type UserCounts struct {
	UserID    uint   `db:"user_id"`
	Username  string `db:"username"`
	Total     int    `db:"total"`
	Completed int    `db:"completed"`
	Overdue   int    `db:"overdue"`
}

// Open is the number of tasks not yet completed.
func (c UserCounts) Open() int {
	return c.Total - c.Completed
}

// StatsRepository runs read-only aggregate queries outside the ORM.
type StatsRepository struct {
	db          *sqlx.DB
	placeholder sq.PlaceholderFormat
}

// NewStatsRepository shares the connection pool of db.
func NewStatsRepository(db *gorm.DB) (*StatsRepository, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("stats repository: %w", err)
	}
	return NewStatsRepositoryFromSQL(sqlDB, DriverName(db)), nil
}

// NewStatsRepositoryFromSQL wraps a plain connection; driver selects the bind style.
func NewStatsRepositoryFromSQL(db *sql.DB, driver string) *StatsRepository {
	placeholder := sq.PlaceholderFormat(sq.Question)
	sqlxDriver := "sqlite3"
	switch driver {
	case DriverPostgres:
		placeholder = sq.Dollar
		sqlxDriver = "postgres"
	case DriverMySQL:
		sqlxDriver = "mysql"
	}
	return &StatsRepository{
		db:          sqlx.NewDb(db, sqlxDriver),
		placeholder: placeholder,
	}
}

// CountsByUser returns one row per user, including users without tasks, ordered by user id.
// A task is overdue when it is open and due strictly before today.
func (r *StatsRepository) CountsByUser(ctx context.Context, today model.Date) ([]UserCounts, error) {
	query, args, err := sq.Select(
		"u.id AS user_id",
		"u.username AS username",
		"COUNT(t.id) AS total",
		"COALESCE(SUM(CASE WHEN t.completed THEN 1 ELSE 0 END), 0) AS completed",
	).
		Column(sq.Expr("COALESCE(SUM(CASE WHEN t.completed = ? AND t.due_date < ? THEN 1 ELSE 0 END), 0) AS overdue", false, today.String())).
		From("users u").
		LeftJoin("tasks t ON t.user_id = u.id").
		GroupBy("u.id", "u.username").
		OrderBy("u.id").
		PlaceholderFormat(r.placeholder).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build counts query: %w", err)
	}

	var rows []UserCounts
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("count tasks by user: %w", err)
	}
	return rows, nil
}

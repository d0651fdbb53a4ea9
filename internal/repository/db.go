package repository

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"taskboard/internal/model"
)

// Supported values of DB_DRIVER.
const (
	DriverSQLite      = "sqlite"
	DriverSQLiteNoCGO = "sqlite-nocgo"
	DriverPostgres    = "postgres"
	DriverMySQL       = "mysql"
)

// Options describes how to reach the database.
type Options struct {
	Driver   string
	DSN      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	LogLevel logger.LogLevel
}

// NewDB opens the configured database and runs migrations.
func NewDB(opts Options) (*gorm.DB, error) {
	db, err := Open(opts)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Open connects without touching the schema.
func Open(opts Options) (*gorm.DB, error) {
	dialector, err := dialectorFor(opts)
	if err != nil {
		return nil, err
	}

	level := opts.LogLevel
	if level == 0 {
		level = logger.Warn
	}
	dbLogger := logger.New(
		log.New(os.Stdout, "", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: dbLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if isSQLite(opts.Driver) {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		// One connection keeps PRAGMAs and in-memory databases consistent.
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// Migrate creates or updates the users, categories and tasks tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.User{}, &model.Category{}, &model.Task{}); err != nil {
		return fmt.Errorf("migrate db: %w", err)
	}
	return nil
}

// DriverName reports the database/sql driver name behind db.
func DriverName(db *gorm.DB) string {
	switch db.Dialector.Name() {
	case "postgres":
		return DriverPostgres
	case "mysql":
		return DriverMySQL
	default:
		return DriverSQLite
	}
}

func dialectorFor(opts Options) (gorm.Dialector, error) {
	switch strings.ToLower(opts.Driver) {
	case "", DriverSQLite:
		dsn, err := sqliteDSN(opts.DSN, "_foreign_keys=on")
		if err != nil {
			return nil, err
		}
		return sqlite.Open(dsn), nil
	case DriverSQLiteNoCGO:
		dsn, err := sqliteDSN(opts.DSN, "_pragma=foreign_keys(1)")
		if err != nil {
			return nil, err
		}
		return &sqlite.Dialector{DriverName: "sqlite", DSN: dsn}, nil
	case DriverPostgres:
		dsn := opts.DSN
		if dsn == "" {
			dsn = postgresDSN(opts)
		}
		return postgres.New(postgres.Config{DriverName: "postgres", DSN: dsn}), nil
	case DriverMySQL:
		dsn := opts.DSN
		if dsn == "" {
			dsn = mysqlDSN(opts)
		}
		return mysql.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported db driver %q", opts.Driver)
	}
}

func isSQLite(driver string) bool {
	switch strings.ToLower(driver) {
	case "", DriverSQLite, DriverSQLiteNoCGO:
		return true
	}
	return false
}

func sqliteDSN(dsn, fkParam string) (string, error) {
	if dsn == "" {
		dsn = "taskboard.db"
	}
	if err := ensureDirForSQLite(dsn); err != nil {
		return "", err
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + fkParam, nil
}

func postgresDSN(opts Options) string {
	host, port := opts.Host, opts.Port
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, opts.User, opts.Password, opts.Name)
}

func mysqlDSN(opts Options) string {
	host, port := opts.Host, opts.Port
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "3306"
	}
	cfg := gomysql.NewConfig()
	cfg.User = opts.User
	cfg.Passwd = opts.Password
	cfg.Net = "tcp"
	cfg.Addr = host + ":" + port
	cfg.DBName = opts.Name
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// ensureDirForSQLite creates parent dir for SQLite file if needed.
func ensureDirForSQLite(dsn string) error {
	// Ignore DSNs with explicit mode=memory or network.
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	// Strip file: prefix if present.
	clean := strings.TrimPrefix(dsn, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}

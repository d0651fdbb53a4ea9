package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the server, the digest job and the board client.
type Config struct {
	Env            string
	Port           int
	APIPrefix      string
	FrontendOrigin string
	APIURL         string

	DBDriver    string
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string

	ReportInterval time.Duration
	ReportAt       string
	TelegramToken  string
	TelegramChatID int64
}

// Load reads .env when present, then environment variables with sane defaults.
func Load() (Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path. Variables already set in the
// environment win over the file.
func LoadFile(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := Config{
		Env:            env("APP_ENV"),
		APIPrefix:      env("API_PREFIX"),
		FrontendOrigin: env("FRONTEND_ORIGIN"),
		APIURL:         env("API_URL"),
		DBDriver:       strings.ToLower(env("DB_DRIVER")),
		DatabaseURL:    env("DATABASE_URL"),
		DBHost:         env("DB_HOST"),
		DBPort:         env("DB_PORT"),
		DBUser:         env("DB_USERNAME"),
		DBPassword:     os.Getenv("DB_PASSWORD"),
		DBName:         env("DB_NAME"),
		ReportAt:       env("REPORT_AT"),
		TelegramToken:  env("TELEGRAM_TOKEN"),
	}

	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "api"
	}
	// "/" mounts the API at the root.
	cfg.APIPrefix = strings.Trim(cfg.APIPrefix, "/")
	if cfg.APIPrefix != "" {
		cfg.APIPrefix = "/" + cfg.APIPrefix
	}
	if cfg.FrontendOrigin == "" {
		cfg.FrontendOrigin = "http://localhost:3002"
	}
	if cfg.APIURL == "" {
		cfg.APIURL = "http://localhost:3000"
	}
	if cfg.DBDriver == "" {
		cfg.DBDriver = "sqlite"
	}

	port, err := parsePort(env("PORT"))
	if err != nil {
		return cfg, err
	}
	cfg.Port = port

	interval, err := parseInterval(env("REPORT_INTERVAL_HOURS"))
	if err != nil {
		return cfg, err
	}
	cfg.ReportInterval = interval

	if raw := env("TELEGRAM_CHAT_ID"); raw != "" {
		chatID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("TELEGRAM_CHAT_ID must be an integer: %w", err)
		}
		cfg.TelegramChatID = chatID
	}

	return cfg, cfg.validate()
}

// Development enables request logging.
func (c Config) Development() bool {
	return c.Env == "development"
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// TelegramEnabled reports whether digests should also go to Telegram.
func (c Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

// BotEnabled reports whether serve should answer Telegram chats.
func (c Config) BotEnabled() bool {
	return c.TelegramToken != ""
}

func (c Config) validate() error {
	switch c.DBDriver {
	case "sqlite", "sqlite-nocgo":
	case "postgres", "mysql":
		if c.DatabaseURL == "" && c.DBName == "" {
			return fmt.Errorf("DB_NAME or DATABASE_URL is required for %s", c.DBDriver)
		}
	default:
		return fmt.Errorf("DB_DRIVER %q is not supported", c.DBDriver)
	}
	if c.TelegramChatID != 0 && c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required when TELEGRAM_CHAT_ID is set")
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func parsePort(raw string) (int, error) {
	if raw == "" {
		return 3000, nil
	}
	port, err := strconv.Atoi(raw)
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("PORT must be between 1 and 65535, got %q", raw)
	}
	return port, nil
}

// parseInterval reads hours; unset means daily and 0 disables the digest.
func parseInterval(raw string) (time.Duration, error) {
	if raw == "" {
		return 24 * time.Hour, nil
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("REPORT_INTERVAL_HOURS must be a non-negative number, got %q", raw)
	}
	return hours, nil
}

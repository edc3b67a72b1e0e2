// Package config loads runtime settings from the environment (optionally seeded
// from a .env file) and holds the chat subsystem's fixed limits.
package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	DB    DBConfig
	Redis RedisConfig
	Auth  AuthConfig
	Chat  ChatConfig

	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"user"`
	Password string `envconfig:"DB_PASSWORD" default:"password"`
	Name     string `envconfig:"DB_NAME" default:"repairdesk"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
}

// DSN renders the libpq keyword/value connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
}

type RedisConfig struct {
	// Addr left empty disables the presence mirror and the rate limiter.
	Addr     string `envconfig:"REDIS_ADDR"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Enabled() bool { return c.Addr != "" }

type AuthConfig struct {
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`
	JWTIssuer string `envconfig:"JWT_ISSUER"`
}

type ChatConfig struct {
	// RateLimit is the number of sends allowed per user per RateWindow. Zero disables limiting.
	RateLimit  int           `envconfig:"CHAT_RATE_LIMIT" default:"20"`
	RateWindow time.Duration `envconfig:"CHAT_RATE_WINDOW" default:"10s"`
}

// Load reads .env (if present) and decodes the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: .env file not loaded, using process environment")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	if cfg.Chat.RateLimit < 0 {
		return nil, fmt.Errorf("CHAT_RATE_LIMIT must not be negative, got %d", cfg.Chat.RateLimit)
	}
	if cfg.Chat.RateLimit > 0 && cfg.Chat.RateWindow < time.Second {
		return nil, fmt.Errorf("CHAT_RATE_WINDOW must be at least 1s, got %s", cfg.Chat.RateWindow)
	}
	return &cfg, nil
}

// LoadStores reads only the database and Redis settings, for tools that do not
// serve HTTP.
func LoadStores() (DBConfig, RedisConfig, error) {
	_ = godotenv.Load()

	var db DBConfig
	if err := envconfig.Process("", &db); err != nil {
		return db, RedisConfig{}, fmt.Errorf("failed to read database configuration: %w", err)
	}
	var rdb RedisConfig
	if err := envconfig.Process("", &rdb); err != nil {
		return db, rdb, fmt.Errorf("failed to read redis configuration: %w", err)
	}
	return db, rdb, nil
}

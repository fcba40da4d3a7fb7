// Package config загружает конфигурацию приложения из переменных окружения.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Драйверы хранилища. Выбирается один раз при старте процесса.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config holds the application configuration.
type Config struct {
	Env        string `envconfig:"ENV" default:"development"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"debug"`
	ServerPort int    `envconfig:"SERVER_PORT" default:"8080"`

	ReadTimeoutSeconds  int `envconfig:"SERVER_READ_TIMEOUT" default:"15"`
	WriteTimeoutSeconds int `envconfig:"SERVER_WRITE_TIMEOUT" default:"15"`
	IdleTimeoutSeconds  int `envconfig:"SERVER_IDLE_TIMEOUT" default:"60"`

	// Storage: memory или postgres
	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"memory"`

	DBHost             string `envconfig:"DB_HOST" default:"localhost"`
	DBPort             int    `envconfig:"DB_PORT" default:"5432"`
	DBUser             string `envconfig:"DB_USER" default:"postgres"`
	DBName             string `envconfig:"DB_NAME" default:"storyforge"`
	DBSSLMode          string `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConnections   int    `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBMaxIdleMinutes   int    `envconfig:"DB_MAX_IDLE_MINUTES" default:"5"`
	// Секретное поле БЕЗ envconfig тега
	DBPassword string

	// AI generation API
	AIModel          string `envconfig:"AI_MODEL" default:"gpt-4o"`
	AIBaseURL        string `envconfig:"AI_BASE_URL" default:""`
	AITimeoutSeconds int    `envconfig:"AI_TIMEOUT" default:"120"`
	// Секретное поле БЕЗ envconfig тега
	AIAPIKey string

	// Telegram bot; пустой токен отключает бота
	BotPollTimeoutSeconds int           `envconfig:"BOT_POLL_TIMEOUT" default:"30"`
	BotSessionTTL         time.Duration `envconfig:"BOT_SESSION_TTL" default:"30m"`
	BotSweepInterval      time.Duration `envconfig:"BOT_SWEEP_INTERVAL" default:"5m"`
	// Секретное поле БЕЗ envconfig тега
	BotToken string

	// JWT - Секретное поле БЕЗ envconfig тега
	JWTSecret      string
	AccessTokenTTL time.Duration `envconfig:"JWT_ACCESS_TOKEN_TTL" default:"15m"`

	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
}

// GetAllowedOrigins splits the CORSAllowedOrigins string into a slice.
func (c *Config) GetAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(c.CORSAllowedOrigins, " ", ""), ",")
}

// Load загружает конфигурацию из .env (если есть) и переменных окружения.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	// Секреты читаются напрямую, минуя envconfig
	cfg.DBPassword = os.Getenv("DB_PASSWORD")
	cfg.AIAPIKey = os.Getenv("AI_API_KEY")
	cfg.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.JWTSecret = os.Getenv("JWT_SECRET")

	if cfg.AIAPIKey == "" {
		return nil, fmt.Errorf("AI_API_KEY not set")
	}

	switch cfg.StorageDriver {
	case StorageMemory, StoragePostgres:
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q (expected %q or %q)",
			cfg.StorageDriver, StorageMemory, StoragePostgres)
	}

	if cfg.StorageDriver == StoragePostgres && cfg.DBPassword == "" {
		return nil, fmt.Errorf("DB_PASSWORD not set for postgres storage")
	}

	if cfg.JWTSecret == "" {
		if cfg.Env == "production" {
			return nil, fmt.Errorf("JWT_SECRET not set")
		}
		cfg.JWTSecret = "development-secret-do-not-use-in-production"
	}

	return &cfg, nil
}

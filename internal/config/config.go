package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Eligibility sources.
const (
	EligibilityFile     = "file"
	EligibilityRedis    = "redis"
	EligibilityPostgres = "postgres"
)

// Protocol strategies.
const (
	ProtocolSequence = "sequence"
	ProtocolRandom   = "random"
)

// Config is the full runtime configuration of the registry binaries.
type Config struct {
	HTTPAddr string

	StoreDriver string
	StorePath   string
	DatabaseURL string

	EligibilitySource   string
	EligibilityFile     string
	EligibilityRedisKey string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	TelegramBotToken    string
	TelegramAdminChatID int64
	NotifyTimeout       time.Duration

	ProtocolStrategy string
	AdminTokenSecret string

	// IntakeRatePerMinute is the per-IP registration budget; 0 disables it.
	IntakeRatePerMinute int
	IntakeBurst         int

	LogLevel  slog.Level
	LogFormat string
}

// Load reads an optional .env file and then builds the Config from the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables, applying defaults.
func FromEnv() (Config, error) {
	cfg := Config{
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		StoreDriver:         getEnv("STORE_DRIVER", StoreFile),
		StorePath:           getEnv("STORE_PATH", "complaints.json"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		EligibilitySource:   getEnv("ELIGIBILITY_SOURCE", EligibilityFile),
		EligibilityFile:     getEnv("ELIGIBILITY_FILE", "matriculas_validas.json"),
		EligibilityRedisKey: getEnv("ELIGIBILITY_REDIS_KEY", DefaultEligibilityRedisKey),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		TelegramBotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		ProtocolStrategy:    getEnv("PROTOCOL_STRATEGY", ProtocolSequence),
		AdminTokenSecret:    os.Getenv("ADMIN_TOKEN_SECRET"),
		LogFormat:           getEnv("LOG_FORMAT", "text"),
		NotifyTimeout:       DefaultNotifyTimeout,
		IntakeRatePerMinute: DefaultIntakeRatePerMinute,
		IntakeBurst:         DefaultIntakeBurst,
	}

	var err error
	if v := os.Getenv("REDIS_DB"); v != "" {
		if cfg.RedisDB, err = strconv.Atoi(v); err != nil {
			return Config{}, fmt.Errorf("REDIS_DB: %w", err)
		}
	}
	if v := os.Getenv("TELEGRAM_ADMIN_CHAT_ID"); v != "" {
		if cfg.TelegramAdminChatID, err = strconv.ParseInt(v, 10, 64); err != nil {
			return Config{}, fmt.Errorf("TELEGRAM_ADMIN_CHAT_ID: %w", err)
		}
	}
	if v := os.Getenv("NOTIFY_TIMEOUT"); v != "" {
		if cfg.NotifyTimeout, err = time.ParseDuration(v); err != nil {
			return Config{}, fmt.Errorf("NOTIFY_TIMEOUT: %w", err)
		}
	}
	if v := os.Getenv("INTAKE_RATE_LIMIT"); v != "" {
		if cfg.IntakeRatePerMinute, err = strconv.Atoi(v); err != nil {
			return Config{}, fmt.Errorf("INTAKE_RATE_LIMIT: %w", err)
		}
	}
	if v := os.Getenv("INTAKE_BURST"); v != "" {
		if cfg.IntakeBurst, err = strconv.Atoi(v); err != nil {
			return Config{}, fmt.Errorf("INTAKE_BURST: %w", err)
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case StoreFile, StoreSQLite:
		if c.StorePath == "" {
			return fmt.Errorf("STORE_PATH is required for store driver %q", c.StoreDriver)
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for store driver %q", c.StoreDriver)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.EligibilitySource {
	case EligibilityFile:
		if c.EligibilityFile == "" {
			return fmt.Errorf("ELIGIBILITY_FILE is required for eligibility source %q", c.EligibilitySource)
		}
	case EligibilityRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for eligibility source %q", c.EligibilitySource)
		}
	case EligibilityPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for eligibility source %q", c.EligibilitySource)
		}
	default:
		return fmt.Errorf("unknown ELIGIBILITY_SOURCE %q", c.EligibilitySource)
	}

	switch c.ProtocolStrategy {
	case ProtocolSequence, ProtocolRandom:
	default:
		return fmt.Errorf("unknown PROTOCOL_STRATEGY %q", c.ProtocolStrategy)
	}

	if c.NotifyTimeout <= 0 {
		return fmt.Errorf("NOTIFY_TIMEOUT must be positive")
	}
	if c.IntakeRatePerMinute < 0 || c.IntakeBurst < 0 {
		return fmt.Errorf("INTAKE_RATE_LIMIT and INTAKE_BURST must not be negative")
	}
	return nil
}

// NewLogger builds the process logger from LogLevel and LogFormat.
func (c Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Paths    PathsConfig
	Server   ServerConfig
	Log      LogConfig
	Training TrainingConfig
}

// PathsConfig - расположение датасета и артефакта модели
type PathsConfig struct {
	Dataset string `default:"dataset/phishing_dataset.csv"`
	Model   string `default:"model/phish_model.json"`
}

type ServerConfig struct {
	Addr            string        `default:":5000"`
	ShutdownTimeout time.Duration `default:"10s"`
	// HistorySize - сколько последних проверок показывать на странице.
	// 0 отключает историю: URL одного посетителя не видны другим.
	HistorySize int `default:"0"`
	// LiveFeed включает /ws ленту вердиктов для оператора
	LiveFeed bool `default:"false"`
}

type LogConfig struct {
	Level  string `default:"info"`
	Format string `default:"text"` // "text" или "json"
}

type TrainingConfig struct {
	Workers int `default:"0"` // 0 = все CPU
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Load читает необязательный .env, применяет значения по умолчанию и
// переопределения из окружения.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	cfg.Paths.Dataset = getEnvOrDefault("PHISHGUARD_DATASET", cfg.Paths.Dataset)
	cfg.Paths.Model = getEnvOrDefault("PHISHGUARD_MODEL", cfg.Paths.Model)

	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Addr = ":" + port
	}
	cfg.Server.Addr = getEnvOrDefault("PHISHGUARD_ADDR", cfg.Server.Addr)

	if v := os.Getenv("PHISHGUARD_SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("PHISHGUARD_SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.Server.ShutdownTimeout = d
	}
	if v := os.Getenv("PHISHGUARD_HISTORY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("PHISHGUARD_HISTORY: %w", err)
		}
		cfg.Server.HistorySize = n
	}

	if v := os.Getenv("PHISHGUARD_LIVE_FEED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("PHISHGUARD_LIVE_FEED: %w", err)
		}
		cfg.Server.LiveFeed = b
	}

	cfg.Log.Level = getEnvOrDefault("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnvOrDefault("LOG_FORMAT", cfg.Log.Format)

	if v := os.Getenv("PHISHGUARD_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("PHISHGUARD_WORKERS: %w", err)
		}
		cfg.Training.Workers = n
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет значения, которые нельзя было проверить при разборе
func (c *Config) Validate() error {
	if c.Paths.Dataset == "" {
		return errors.New("dataset path must not be empty")
	}
	if c.Paths.Model == "" {
		return errors.New("model path must not be empty")
	}
	if c.Server.Addr == "" {
		return errors.New("server address must not be empty")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	if c.Server.HistorySize < 0 {
		return errors.New("history size must not be negative")
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	if c.Training.Workers < 0 {
		return errors.New("training workers must not be negative")
	}
	return nil
}

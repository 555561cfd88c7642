package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	BaseURL        string        `env:"TASKFLOW_BASE_URL" envDefault:"http://localhost:5000"`
	RequestTimeout time.Duration `env:"TASKFLOW_REQUEST_TIMEOUT" envDefault:"10s"`
	SessionPath    string        `env:"TASKFLOW_SESSION_PATH"`
	LogFile        string        `env:"TASKFLOW_LOG_FILE"`
	LogLevel       string        `env:"TASKFLOW_LOG_LEVEL" envDefault:"info"`

	// Consecutive failures before a breaker opens, and how long it stays open.
	BreakerFailures uint32        `env:"TASKFLOW_BREAKER_FAILURES" envDefault:"3"`
	BreakerTimeout  time.Duration `env:"TASKFLOW_BREAKER_TIMEOUT" envDefault:"5s"`

	RetryAttempts int           `env:"TASKFLOW_RETRY_ATTEMPTS" envDefault:"3"`
	RetryBackoff  time.Duration `env:"TASKFLOW_RETRY_BACKOFF" envDefault:"100ms"`

	// RateLimit caps outgoing requests per second; zero disables pacing.
	RateLimit float64 `env:"TASKFLOW_RATE_LIMIT" envDefault:"0"`

	// Workers bounds the concurrent fetches of a project load.
	Workers int `env:"TASKFLOW_WORKERS" envDefault:"4"`
}

// Load reads an optional .env file and then the process environment.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		return fmt.Errorf("TASKFLOW_BASE_URL must not be empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("TASKFLOW_REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.RetryAttempts < 1 {
		c.RetryAttempts = 1
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.SessionPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		c.SessionPath = filepath.Join(home, ".taskflow", "session.db")
	}
	return nil
}

// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/listenupapp/searchbook/internal/logger"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SEARCHBOOK_"

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig  `envPrefix:"LOG_"`
	Store   StoreConfig   `envPrefix:"STORE_"`
	BookAPI BookAPIConfig `envPrefix:"BOOK_API_"`
	Cache   CacheConfig   `envPrefix:"CACHE_"`
	Screens ScreensConfig `envPrefix:"SCREEN_"`
	Server  ServerConfig  `envPrefix:"SERVER_"`
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `env:"ENV" envDefault:"development"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT"` // empty picks by environment
}

// StoreConfig holds the favorites key/value store configuration.
type StoreConfig struct {
	Path     string `env:"PATH"` // default: ~/.searchbook/data
	InMemory bool   `env:"IN_MEMORY"`
}

// BookAPIConfig holds the remote catalog client configuration.
type BookAPIConfig struct {
	BaseURL           string        `env:"BASE_URL" envDefault:"https://www.googleapis.com/books/v1"`
	Timeout           time.Duration `env:"TIMEOUT" envDefault:"15s"`
	RequestsPerSecond float64       `env:"RPS" envDefault:"5"`
	Burst             int           `env:"BURST" envDefault:"5"`
}

// CacheConfig holds the book detail cache configuration.
type CacheConfig struct {
	DetailTTL time.Duration `env:"DETAIL_TTL" envDefault:"5m"`
}

// ScreensConfig holds the timing constants of the screen pipelines.
type ScreensConfig struct {
	SearchDebounce time.Duration `env:"SEARCH_DEBOUNCE" envDefault:"500ms"`
	ToggleThrottle time.Duration `env:"TOGGLE_THROTTLE" envDefault:"500ms"`
	RefreshDelay   time.Duration `env:"REFRESH_DELAY" envDefault:"2s"`
}

// ServerConfig holds the headless HTTP driver configuration.
type ServerConfig struct {
	Port           string        `env:"PORT" envDefault:"8080"`
	ReadTimeout    time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout   time.Duration `env:"WRITE_TIMEOUT" envDefault:"0s"` // 0 keeps SSE streams open
	IdleTimeout    time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load builds the configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fset := flag.NewFlagSet("searchbook", flag.ContinueOnError)
	envFile := fset.String("env-file", ".env", "Path to .env file")

	overrides := map[string]func(c *Config, v string) error{}
	bind := func(name, usage string, apply func(c *Config, v string) error) {
		fset.String(name, "", usage)
		overrides[name] = apply
	}

	bind("env", "Environment (development, staging, production)", func(c *Config, v string) error {
		c.App.Environment = v
		return nil
	})
	bind("log-level", "Log level (debug, info, warn, error)", func(c *Config, v string) error {
		c.Logger.Level = v
		return nil
	})
	bind("store-path", "Directory of the favorites store", func(c *Config, v string) error {
		c.Store.Path = v
		return nil
	})
	bind("book-api-url", "Base URL of the book catalog API", func(c *Config, v string) error {
		c.BookAPI.BaseURL = v
		return nil
	})
	bind("port", "Server port (default: 8080)", func(c *Config, v string) error {
		c.Server.Port = v
		return nil
	})
	bind("detail-ttl", "Book detail cache TTL (default: 5m)", durationFlag(func(c *Config) *time.Duration { return &c.Cache.DetailTTL }))
	bind("search-debounce", "Search debounce (default: 500ms)", durationFlag(func(c *Config) *time.Duration { return &c.Screens.SearchDebounce }))
	bind("refresh-delay", "Artificial detail refresh delay (default: 2s)", durationFlag(func(c *Config) *time.Duration { return &c.Screens.RefreshDelay }))

	if err := fset.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", *envFile, err)
	}

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	var flagErr error
	fset.Visit(func(f *flag.Flag) {
		apply, ok := overrides[f.Name]
		if !ok || flagErr != nil {
			return
		}
		if err := apply(cfg, f.Value.String()); err != nil {
			flagErr = fmt.Errorf("flag -%s: %w", f.Name, err)
		}
	})
	if flagErr != nil {
		return nil, flagErr
	}

	if err := cfg.expandStorePath(); err != nil {
		return nil, fmt.Errorf("invalid store path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	case "":
		return errors.New("ENV is required")
	default:
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	if !logger.ValidLevel(c.Logger.Level) {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	u, err := url.Parse(c.BookAPI.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid book API base URL: %q", c.BookAPI.BaseURL)
	}
	if c.BookAPI.RequestsPerSecond <= 0 || c.BookAPI.Burst <= 0 {
		return errors.New("book API rate limit must be positive")
	}

	if !c.Store.InMemory && c.Store.Path == "" {
		return errors.New("store path cannot be empty unless the store is in memory")
	}

	positive := map[string]time.Duration{
		"book API timeout":    c.BookAPI.Timeout,
		"detail cache TTL":    c.Cache.DetailTTL,
		"search debounce":     c.Screens.SearchDebounce,
		"toggle throttle":     c.Screens.ToggleThrottle,
		"refresh delay":       c.Screens.RefreshDelay,
		"server read timeout": c.Server.ReadTimeout,
		"server idle timeout": c.Server.IdleTimeout,
	}
	for name, d := range positive {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}

	return nil
}

// expandStorePath expands ~ and makes the path absolute.
func (c *Config) expandStorePath() error {
	if c.Store.InMemory {
		return nil
	}

	path := c.Store.Path
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, ".searchbook", "data")
	}

	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, rest)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}
	c.Store.Path = filepath.Clean(abs)
	return nil
}

func durationFlag(field func(c *Config) *time.Duration) func(c *Config, v string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*field(c) = d
		return nil
	}
}

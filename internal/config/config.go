// Package config loads musiclist settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Storage backends.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	Storage  string
	Database DatabaseConfig
	Server   ServerConfig
	Security SecurityConfig
	CORS     CORSConfig
	Logging  LoggingConfig
	PageSize int
	// SeedDemo creates the demo account at startup.
	SeedDemo bool
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver   string // pgx or postgres (lib/pq)
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port int
	Host string
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig holds credential and token settings
type SecurityConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads an optional env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env", "config/local.env")
	return FromEnv(os.Getenv)
}

// LoadAdmin is Load for tools that never issue tokens: JWT_SECRET and
// TOKEN_TTL are not checked.
func LoadAdmin() (*Config, error) {
	_ = godotenv.Load(".env", "config/local.env")
	return AdminFromEnv(os.Getenv)
}

// FromEnv builds a Config using getenv for lookups.
func FromEnv(getenv func(string) string) (*Config, error) {
	return fromEnv(getenv, true)
}

// AdminFromEnv builds a Config without the token settings checks.
func AdminFromEnv(getenv func(string) string) (*Config, error) {
	return fromEnv(getenv, false)
}

func fromEnv(getenv func(string) string, tokens bool) (*Config, error) {
	l := loader{getenv: getenv}
	cfg := &Config{
		Storage: strings.ToLower(l.str("STORAGE_DRIVER", StoragePostgres)),
		Database: DatabaseConfig{
			Driver:   strings.ToLower(l.str("DATABASE_DRIVER", "pgx")),
			URL:      getenv("DATABASE_URL"),
			Host:     l.str("DB_HOST", "localhost"),
			Port:     l.integer("DB_PORT", 5432),
			User:     getenv("DB_USER"),
			Password: getenv("DB_PASSWORD"),
			Name:     getenv("DB_NAME"),
			SSLMode:  l.str("DB_SSLMODE", "disable"),
		},
		Server: ServerConfig{
			Port: l.integer("PORT", 8080),
			Host: l.str("HOST", "0.0.0.0"),
		},
		Security: SecurityConfig{
			JWTSecret:  getenv("JWT_SECRET"),
			TokenTTL:   l.duration("TOKEN_TTL", 24*time.Hour),
			BcryptCost: l.integer("BCRYPT_COST", bcrypt.DefaultCost),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(l.str("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		},
		Logging: LoggingConfig{
			Level:  strings.ToLower(l.str("LOG_LEVEL", "info")),
			Format: strings.ToLower(l.str("LOG_FORMAT", "json")),
		},
		PageSize: l.integer("PAGE_SIZE", 30),
		SeedDemo: l.flag("SEED_DEMO", false),
	}

	if cfg.Database.URL == "" && cfg.Database.User != "" && cfg.Database.Name != "" {
		cfg.Database.URL = fmt.Sprintf(
			"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
			cfg.Database.User,
			cfg.Database.Password,
			cfg.Database.Host,
			cfg.Database.Port,
			cfg.Database.Name,
			cfg.Database.SSLMode,
		)
	}

	if len(l.errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(l.errs, "\n  - "))
	}
	if err := cfg.validate(tokens); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that all required configuration is present and valid
func (c *Config) Validate() error {
	return c.validate(true)
}

func (c *Config) validate(tokens bool) error {
	var problems []string

	switch c.Storage {
	case StoragePostgres:
		if c.Database.URL == "" {
			problems = append(problems, "DATABASE_URL is required (or DB_HOST, DB_USER, DB_NAME)")
		}
		if c.Database.Driver != "pgx" && c.Database.Driver != "postgres" {
			problems = append(problems, "DATABASE_DRIVER must be one of: pgx, postgres")
		}
	case StorageMemory:
	default:
		problems = append(problems, "STORAGE_DRIVER must be one of: postgres, memory")
	}

	if tokens {
		if len(c.Security.JWTSecret) < 16 {
			problems = append(problems, "JWT_SECRET must be at least 16 characters")
		}
		if c.Security.TokenTTL <= 0 {
			problems = append(problems, "TOKEN_TTL must be positive")
		}
	}
	if c.Security.BcryptCost < bcrypt.MinCost || c.Security.BcryptCost > bcrypt.MaxCost {
		problems = append(problems, fmt.Sprintf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, "PORT must be between 1 and 65535")
	}
	if c.PageSize < 1 {
		problems = append(problems, "PAGE_SIZE must be positive")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		problems = append(problems, "LOG_LEVEL must be one of: debug, info, warn, error")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		problems = append(problems, "LOG_FORMAT must be one of: json, text")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

type loader struct {
	getenv func(string) string
	errs   []string
}

func (l *loader) str(key, fallback string) string {
	if value := strings.TrimSpace(l.getenv(key)); value != "" {
		return value
	}
	return fallback
}

func (l *loader) integer(key string, fallback int) int {
	raw := strings.TrimSpace(l.getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		l.errs = append(l.errs, fmt.Sprintf("invalid %s: %q", key, raw))
		return fallback
	}
	return v
}

func (l *loader) duration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(l.getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		l.errs = append(l.errs, fmt.Sprintf("invalid %s: %q", key, raw))
		return fallback
	}
	return v
}

func (l *loader) flag(key string, fallback bool) bool {
	raw := strings.TrimSpace(l.getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		l.errs = append(l.errs, fmt.Sprintf("invalid %s: %q", key, raw))
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

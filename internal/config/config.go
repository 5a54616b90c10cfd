// Package config loads server settings from defaults, an optional YAML file
// and STREAKLY_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "STREAKLY_"

// Push repository backends.
const (
	RepositorySQLite = "sqlite"
	RepositoryRedis  = "redis"
	RepositoryMemory = "memory"
)

var ErrInvalid = errors.New("invalid configuration")

// Config is the full server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" envPrefix:"SERVER_"`
	Storage   StorageConfig   `yaml:"storage" envPrefix:"STORAGE_"`
	Push      PushConfig      `yaml:"push" envPrefix:"PUSH_"`
	Redis     RedisConfig     `yaml:"redis" envPrefix:"REDIS_"`
	Auth      AuthConfig      `yaml:"auth" envPrefix:"AUTH_"`
	Reminders RemindersConfig `yaml:"reminders" envPrefix:"REMINDERS_"`
	Log       LogConfig       `yaml:"log" envPrefix:"LOG_"`
}

type ServerConfig struct {
	Addr       string `yaml:"addr" env:"ADDR"`
	StaticDir  string `yaml:"static_dir" env:"STATIC_DIR"`
	CORSOrigin string `yaml:"cors_origin" env:"CORS_ORIGIN"`
}

type StorageConfig struct {
	DBPath string `yaml:"db_path" env:"DB_PATH"`
}

// PushConfig configures Web Push delivery. Broadcasts are disabled when the
// VAPID key pair is empty.
type PushConfig struct {
	VAPIDPublicKey  string        `yaml:"vapid_public_key" env:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string        `yaml:"vapid_private_key" env:"VAPID_PRIVATE_KEY"`
	Subscriber      string        `yaml:"subscriber" env:"SUBSCRIBER"`
	TTL             time.Duration `yaml:"ttl" env:"TTL"`
	Urgency         string        `yaml:"urgency" env:"URGENCY"`
	Icon            string        `yaml:"icon" env:"ICON"`
	Repository      string        `yaml:"repository" env:"REPOSITORY"`
}

// Enabled reports whether a VAPID key pair is configured.
func (p PushConfig) Enabled() bool {
	return p.VAPIDPublicKey != "" && p.VAPIDPrivateKey != ""
}

type RedisConfig struct {
	Addr     string        `yaml:"addr" env:"ADDR"`
	Password string        `yaml:"password" env:"PASSWORD"`
	DB       int           `yaml:"db" env:"DB"`
	Prefix   string        `yaml:"prefix" env:"PREFIX"`
	DedupTTL time.Duration `yaml:"dedup_ttl" env:"DEDUP_TTL"`
}

type AuthConfig struct {
	JWTSecret    string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	Username     string        `yaml:"username" env:"USERNAME"`
	PasswordHash string        `yaml:"password_hash" env:"PASSWORD_HASH"`
	TokenTTL     time.Duration `yaml:"token_ttl" env:"TOKEN_TTL"`
	ProtectAPI   bool          `yaml:"protect_api" env:"PROTECT_API"`
}

type RemindersConfig struct {
	Enabled  bool          `yaml:"enabled" env:"ENABLED"`
	Interval time.Duration `yaml:"interval" env:"INTERVAL"`
	Timezone string        `yaml:"timezone" env:"TIMEZONE"`
}

// Location resolves the reminder timezone. An empty value means the process
// local zone.
func (r RemindersConfig) Location() (*time.Location, error) {
	if r.Timezone == "" || r.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", r.Timezone, err)
	}
	return loc, nil
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:       ":8080",
			StaticDir:  "../frontend/static",
			CORSOrigin: "*",
		},
		Storage: StorageConfig{
			DBPath: "./data/streakly.db",
		},
		Push: PushConfig{
			Subscriber: "mailto:admin@example.com",
			TTL:        12 * time.Hour,
			Urgency:    "normal",
			Icon:       "/icon.png",
			Repository: RepositorySQLite,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Prefix:   "streakly:",
			DedupTTL: 48 * time.Hour,
		},
		Auth: AuthConfig{
			Username: "admin",
			TokenTTL: 24 * time.Hour,
		},
		Reminders: RemindersConfig{
			Enabled:  true,
			Interval: time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration. path may be empty, in which case only
// defaults and environment variables apply. A missing file is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required values and enumerations.
func (c Config) Validate() error {
	var problems []string

	if c.Server.Addr == "" {
		problems = append(problems, "server.addr is required")
	}
	if c.Storage.DBPath == "" {
		problems = append(problems, "storage.db_path is required")
	}
	if c.Auth.JWTSecret == "" {
		problems = append(problems, "auth.jwt_secret is required")
	}
	if c.Auth.TokenTTL <= 0 {
		problems = append(problems, "auth.token_ttl must be positive")
	}

	switch c.Push.Repository {
	case RepositorySQLite, RepositoryRedis, RepositoryMemory:
	default:
		problems = append(problems, fmt.Sprintf("push.repository %q must be sqlite, redis or memory", c.Push.Repository))
	}
	if (c.Push.VAPIDPublicKey == "") != (c.Push.VAPIDPrivateKey == "") {
		problems = append(problems, "push.vapid_public_key and push.vapid_private_key must be set together")
	}
	switch c.Push.Urgency {
	case "very-low", "low", "normal", "high":
	default:
		problems = append(problems, fmt.Sprintf("push.urgency %q is not a Web Push urgency", c.Push.Urgency))
	}
	if c.Push.TTL < 0 {
		problems = append(problems, "push.ttl must not be negative")
	}

	if c.Reminders.Enabled && c.Reminders.Interval <= 0 {
		problems = append(problems, "reminders.interval must be positive")
	}
	if _, err := c.Reminders.Location(); err != nil {
		problems = append(problems, err.Error())
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("log.format %q must be text or json", c.Log.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

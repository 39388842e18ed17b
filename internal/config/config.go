package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is built once at process start and handed to every component that needs it.
type Config struct {
	AppName  string `mapstructure:"app_name" validate:"required"`
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	GinMode  string `mapstructure:"gin_mode" validate:"oneof=debug release test"`
	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn error"`

	DatabaseURL string `mapstructure:"database_url" validate:"required"`
	BrokerURL   string `mapstructure:"broker_url" validate:"required"`
	BrokerQueue string `mapstructure:"broker_queue" validate:"required"`

	SecretKey                string `mapstructure:"secret_key" validate:"min=32"`
	AccessTokenExpireMinutes int    `mapstructure:"access_token_expire_minutes" validate:"gt=0"`
	SessionSecret            string `mapstructure:"session_secret" validate:"required"`

	CORSOrigins []string `mapstructure:"-"`

	SMTPHost       string `mapstructure:"smtp_host"`
	SMTPPort       int    `mapstructure:"smtp_port" validate:"gte=0,lt=65536"`
	SMTPUser       string `mapstructure:"smtp_user"`
	SMTPPassword   string `mapstructure:"smtp_password"`
	SMTPTLS        bool   `mapstructure:"smtp_tls"`
	EmailsFromAddr string `mapstructure:"emails_from_email" validate:"omitempty,email"`
	EmailsFromName string `mapstructure:"emails_from_name"`

	DigestSchedule string `mapstructure:"digest_schedule" validate:"required"`
	DigestTimezone string `mapstructure:"digest_timezone" validate:"required"`
	RunWorker      bool   `mapstructure:"run_worker"`
	WorkerCount    int    `mapstructure:"worker_count" validate:"gt=0"`
	QueueSize      int    `mapstructure:"queue_size" validate:"gt=0"`

	OpenAIAPIKey string `mapstructure:"openai_api_key"`
}

var defaults = map[string]any{
	"app_name":                    "Task Management System API",
	"port":                        8080,
	"gin_mode":                    "debug",
	"log_level":                   "info",
	"database_url":                "sqlite://taskflow.db",
	"broker_url":                  "memory://",
	"broker_queue":                "taskflow:notifications",
	"secret_key":                  "",
	"access_token_expire_minutes": 60,
	"session_secret":              "default-secret-key-change-me",
	"backend_cors_origins":        "*",
	"smtp_host":                   "",
	"smtp_port":                   587,
	"smtp_user":                   "",
	"smtp_password":               "",
	"smtp_tls":                    true,
	"emails_from_email":           "",
	"emails_from_name":            "",
	"digest_schedule":             "0 8 * * *",
	"digest_timezone":             "UTC",
	"run_worker":                  true,
	"worker_count":                2,
	"queue_size":                  256,
	"openai_api_key":              "",
}

// Load reads configuration from the environment, optionally seeded from a .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.CORSOrigins = splitList(v.GetString("backend_cors_origins"))

	if cfg.SecretKey == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.SecretKey = secret
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := time.LoadLocation(cfg.DigestTimezone); err != nil {
		return nil, fmt.Errorf("invalid configuration: DIGEST_TIMEZONE: %w", err)
	}

	return &cfg, nil
}

// AccessTokenLifetime returns the bearer token lifetime.
func (c *Config) AccessTokenLifetime() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

// DigestLocation returns the zone the digest schedule is evaluated in.
func (c *Config) DigestLocation() *time.Location {
	loc, err := time.LoadLocation(c.DigestTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsProduction reports whether gin runs in release mode.
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

func splitList(raw string) []string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")

	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.Trim(strings.TrimSpace(part), `"'`)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// randomSecret mirrors the behaviour of starting without SECRET_KEY: tokens stay valid
// only for the lifetime of the process.
func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secret key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

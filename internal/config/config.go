package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Project scanning configuration
	Scan ScanConfig

	// Logging configuration
	Log LogConfig

	// Security configuration
	Security SecurityConfig

	// Metrics configuration
	Metrics MetricsConfig

	// Daily digest configuration
	Digest DigestConfig

	// WhatsApp notifier configuration
	WhatsApp WhatsAppConfig

	// Database configuration for the WhatsApp session store
	Database DatabaseConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
}

// ScanConfig controls how projects are found and scanned
type ScanConfig struct {
	ProjectsFile string
	Concurrency  int
	GitBinary    string
	// GitTimeout bounds a single git invocation; zero means no limit
	GitTimeout time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string // "json" or "text"
}

// SecurityConfig holds security-specific configuration
type SecurityConfig struct {
	// API Keys - sent by clients for authentication. Empty disables auth.
	APIKeys []string
	// RateLimitPerMinute is the per-client budget; zero disables limiting
	RateLimitPerMinute int
}

// MetricsConfig holds Prometheus exposition settings
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// DigestConfig holds the daily digest schedule
type DigestConfig struct {
	// Schedule is a standard 5-field cron expression; empty disables the digest
	Schedule string
}

// WhatsAppConfig holds WhatsApp-specific configuration
type WhatsAppConfig struct {
	Enabled    bool
	Recipient  string // JID the digest is sent to
	LogLevel   string
	DeviceName string // Custom device name that appears in WhatsApp linked devices
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Driver string
	DSN    string
}

// Load loads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	// Try to load .env file (ignore errors - it's optional)
	_ = godotenv.Load(".env")

	cfg := FromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// FromEnv reads the configuration from the process environment without validating it
func FromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", ""),
			Port:            getEnvAsInt("SERVER_PORT", 3003),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			MaxBodyBytes:    int64(getEnvAsInt("MAX_BODY_BYTES", 10<<20)),
		},
		Scan: ScanConfig{
			ProjectsFile: getEnv("PROJECTS_FILE", "projects.yaml"),
			Concurrency:  getEnvAsInt("SCAN_CONCURRENCY", 1),
			GitBinary:    getEnv("GIT_BINARY", "git"),
			GitTimeout:   getEnvAsDuration("GIT_COMMAND_TIMEOUT", 0),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Security: SecurityConfig{
			APIKeys:            getEnvAsSlice("API_KEYS", []string{}),
			RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvAsBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
		Digest: DigestConfig{
			Schedule: getEnv("DIGEST_SCHEDULE", ""),
		},
		WhatsApp: WhatsAppConfig{
			Enabled:    getEnvAsBool("WHATSAPP_ENABLED", false),
			Recipient:  getEnv("WHATSAPP_RECIPIENT", ""),
			LogLevel:   getEnv("WHATSAPP_LOG_LEVEL", "INFO"),
			DeviceName: getEnv("WHATSAPP_DEVICE_NAME", "autolog"),
		},
		Database: DatabaseConfig{
			Driver: getEnv("DB_DRIVER", "sqlite3"),
			DSN:    getEnv("DB_DSN", "file:autolog-whatsapp.db?_foreign_keys=on"),
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.MaxBodyBytes < 1 {
		return fmt.Errorf("invalid max body size: %d", c.Server.MaxBodyBytes)
	}

	if c.Scan.ProjectsFile == "" {
		return fmt.Errorf("projects file is required")
	}

	if c.Scan.Concurrency < 1 {
		return fmt.Errorf("scan concurrency must be at least 1, got %d", c.Scan.Concurrency)
	}

	if c.Scan.GitTimeout < 0 {
		return fmt.Errorf("git command timeout cannot be negative")
	}

	if c.Security.RateLimitPerMinute < 0 {
		return fmt.Errorf("rate limit cannot be negative")
	}

	// Check for default/insecure API keys
	for _, key := range c.Security.APIKeys {
		if key == "default-api-key" || key == "api-key-123" || len(key) < 8 {
			return fmt.Errorf("insecure or default API key detected: '%s'. Please set secure API keys in environment variables", key)
		}
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics path must start with '/': %q", c.Metrics.Path)
	}

	if c.Digest.Schedule != "" {
		if _, err := cron.ParseStandard(c.Digest.Schedule); err != nil {
			return fmt.Errorf("invalid digest schedule %q: %w", c.Digest.Schedule, err)
		}
	}

	if c.WhatsApp.Enabled {
		if c.WhatsApp.Recipient == "" {
			return fmt.Errorf("WHATSAPP_RECIPIENT is required when the notifier is enabled")
		}

		if c.Database.Driver == "" {
			return fmt.Errorf("database driver is required")
		}

		if c.Database.DSN == "" {
			return fmt.Errorf("database DSN is required")
		}
	}

	return nil
}

// Address returns the server address in the format host:port
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Helper functions to get environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	values := make([]string, 0)
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}

	return values
}

// Package config provides configuration management for AppGenius.
// It supports loading configuration from environment variables, config files, and defaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration sections for AppGenius.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Cerebras   CerebrasConfig   `mapstructure:"cerebras"`
	Generation GenerationConfig `mapstructure:"generation"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"readTimeout"`  // in seconds
	WriteTimeout int    `mapstructure:"writeTimeout"` // in seconds
}

// DatabaseConfig holds database connection configuration.
// When Host is set the PostgreSQL repository is used; otherwise AppGenius
// falls back to SQLite at SQLitePath.
type DatabaseConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	DBName     string `mapstructure:"dbName"`
	SSLMode    string `mapstructure:"sslMode"`
	MaxConns   int    `mapstructure:"maxConns"`
	SQLitePath string `mapstructure:"sqlitePath"`
}

// NATSConfig holds NATS messaging configuration.
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	ClusterID     string `mapstructure:"clusterId"`
	ClientID      string `mapstructure:"clientId"`
	MaxReconnects int    `mapstructure:"maxReconnects"`
}

// CerebrasConfig holds completion provider configuration.
// The provider speaks the OpenAI-compatible chat completions API.
type CerebrasConfig struct {
	BaseURL     string  `mapstructure:"baseUrl"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"maxTokens"`
	Temperature float64 `mapstructure:"temperature"`

	// AllowEnvFallback permits falling back to the CEREBRAS_API_KEY
	// environment variable when a user has no stored key. Disabled by
	// default so per-user key isolation holds.
	AllowEnvFallback bool `mapstructure:"allowEnvFallback"`
}

// GenerationConfig holds pipeline tuning knobs.
type GenerationConfig struct {
	// LineDelayMs is the pause between streamed progress lines, for pacing
	// in the dashboard. Zero disables the delay.
	LineDelayMs int `mapstructure:"lineDelayMs"`

	// EnforceAgentTimeout applies each agent's max execution time as a hard
	// per-call deadline on the completion request.
	EnforceAgentTimeout bool `mapstructure:"enforceAgentTimeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"outputPath"`
}

// ReadTimeoutDuration returns the read timeout as a time.Duration.
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns the write timeout as a time.Duration.
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// LineDelay returns the progress pacing delay as a time.Duration.
func (g *GenerationConfig) LineDelay() time.Duration {
	return time.Duration(g.LineDelayMs) * time.Millisecond
}

// detectDefaultLogFormat returns the appropriate log format based on environment.
// Returns "json" if running in Kubernetes or other production environments.
// Returns "text" for terminal/development use (human-readable console format).
func detectDefaultLogFormat() string {
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return "json"
	}
	if env := os.Getenv("APPGENIUS_ENV"); env == "production" || env == "prod" {
		return "json"
	}
	return "text"
}

// setDefaults configures default values for all configuration options.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)

	// Database defaults - empty host means SQLite
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "appgenius")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbName", "appgenius")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxConns", 25)
	v.SetDefault("database.sqlitePath", "appgenius.db")

	// NATS defaults - empty URL means use in-memory event bus
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.clusterId", "appgenius-cluster")
	v.SetDefault("nats.clientId", "appgenius-client")
	v.SetDefault("nats.maxReconnects", 10)

	// Completion provider defaults
	v.SetDefault("cerebras.baseUrl", "https://api.cerebras.ai/v1")
	v.SetDefault("cerebras.model", "llama-3.1-8b-instruct")
	v.SetDefault("cerebras.maxTokens", 4000)
	v.SetDefault("cerebras.temperature", 0.7)
	v.SetDefault("cerebras.allowEnvFallback", false)

	// Generation defaults
	v.SetDefault("generation.lineDelayMs", 50)
	v.SetDefault("generation.enforceAgentTimeout", true)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", detectDefaultLogFormat())
	v.SetDefault("logging.outputPath", "stdout")
}

// Load reads configuration from environment variables, config file, and defaults.
// Environment variables use the prefix APPGENIUS_ with snake_case naming.
// Config file should be named config.yaml and placed in the current directory or /etc/appgenius/.
func Load() (*Config, error) {
	return LoadWithPath("")
}

// LoadWithPath reads configuration from the specified path or default locations.
func LoadWithPath(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("APPGENIUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicit bindings for snake_case env vars (camelCase config keys).
	// AutomaticEnv does not handle camelCase to SNAKE_CASE conversion.
	_ = v.BindEnv("cerebras.baseUrl", "APPGENIUS_CEREBRAS_BASE_URL")
	_ = v.BindEnv("cerebras.maxTokens", "APPGENIUS_CEREBRAS_MAX_TOKENS")
	_ = v.BindEnv("cerebras.allowEnvFallback", "APPGENIUS_CEREBRAS_ALLOW_ENV_FALLBACK")
	_ = v.BindEnv("database.sqlitePath", "APPGENIUS_DATABASE_SQLITE_PATH")
	_ = v.BindEnv("generation.lineDelayMs", "APPGENIUS_GENERATION_LINE_DELAY_MS")

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/appgenius/")

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validate checks that all required configuration fields are set.
// In development mode (default), most fields are optional.
func validate(cfg *Config) error {
	var errs []string

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	// Database validation - only if host is set (SQLite otherwise)
	if cfg.Database.Host != "" {
		if cfg.Database.Port <= 0 || cfg.Database.Port > 65535 {
			errs = append(errs, "database.port must be between 1 and 65535")
		}
		if cfg.Database.User == "" {
			errs = append(errs, "database.user is required when database.host is set")
		}
		if cfg.Database.DBName == "" {
			errs = append(errs, "database.dbName is required when database.host is set")
		}
	}

	if cfg.Cerebras.Model == "" {
		errs = append(errs, "cerebras.model is required")
	}
	if cfg.Cerebras.MaxTokens <= 0 {
		errs = append(errs, "cerebras.maxTokens must be positive")
	}
	if cfg.Cerebras.Temperature < 0 || cfg.Cerebras.Temperature > 2 {
		errs = append(errs, "cerebras.temperature must be between 0 and 2")
	}

	if cfg.Generation.LineDelayMs < 0 {
		errs = append(errs, "generation.lineDelayMs must not be negative")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, "logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		errs = append(errs, "logging.format must be one of: json, text")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

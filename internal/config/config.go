// Package config loads and validates the chatbot backend configuration using Viper.
//
// Configuration is layered: built-in defaults < YAML config file < environment
// variables. Environment variables use the CHB_ prefix (e.g., CHB_SERVER_PORT
// overrides server.port in the YAML). This layering allows the same binary to
// run with a config.yaml in local development and with pure environment variables
// in containerized deployments.
//
// Secrets (the JWT signing secret, the admin password hash, and the completion
// provider API key) are only ever carried in this struct and handed to the
// components that need them at construction time. They must never be logged or
// echoed in error payloads.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// CORSAllowedOrigins lists browser origins allowed to call the API.
	// "*" allows any origin.
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

// DatabaseConfig holds SQLite database configuration
type DatabaseConfig struct {
	// Path is the filesystem location of the SQLite database file.
	Path string `mapstructure:"path"`
	// MaxConnections caps the sql.DB pool. SQLite serializes writes anyway,
	// so this mainly bounds concurrent readers.
	MaxConnections int `mapstructure:"max_connections"`
}

// AuthConfig holds session-token and admin-credential configuration
type AuthConfig struct {
	// JWTSecret signs every session token. Its compromise invalidates every
	// outstanding and future token.
	JWTSecret string `mapstructure:"jwt_secret"`
	// TokenTTL is the session token lifetime. Expiry is the only
	// invalidation mechanism; there is no revocation list.
	TokenTTL time.Duration `mapstructure:"token_ttl"`
	// AdminUsername / AdminPasswordHash are the single built-in operator
	// credential. The hash is bcrypt; generate one with cmd/hash. Rotating
	// this credential requires a deployment change.
	AdminUsername     string `mapstructure:"admin_username"`
	AdminPasswordHash string `mapstructure:"admin_password_hash"`
}

// ProviderConfig holds the external completion provider configuration
type ProviderConfig struct {
	// BaseURL is the provider API root, e.g. https://api.openai.com.
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	// SystemPrompt frames every conversation with a fixed system role message.
	SystemPrompt string `mapstructure:"system_prompt"`
	// Timeout bounds a single completion call end to end.
	Timeout time.Duration `mapstructure:"timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds observability configuration
type TelemetryConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// MetricsConfig holds Prometheus exposition configuration. Metrics are served
// on a dedicated side-channel port, not on the main API listener.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// bindEnvVars explicitly binds environment variables to config keys.
// This is necessary because AutomaticEnv() doesn't work well with nested
// structs during Unmarshal. viper.BindEnv only errors when called with zero
// keys; since every key here is a non-empty hardcoded string, any error
// indicates a programming bug and is surfaced to the caller.
func bindEnvVars(v *viper.Viper) error {
	keys := []string{
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.cors_allowed_origins",

		// Database
		"database.path",
		"database.max_connections",

		// Auth
		"auth.jwt_secret",
		"auth.token_ttl",
		"auth.admin_username",
		"auth.admin_password_hash",

		// Provider
		"provider.base_url",
		"provider.api_key",
		"provider.model",
		"provider.system_prompt",
		"provider.timeout",

		// Logging
		"logging.level",
		"logging.format",

		// Telemetry
		"telemetry.metrics.enabled",
		"telemetry.metrics.port",
	}
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind env var %q: %w", key, err)
		}
	}
	return nil
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/chatbot-backend")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; use defaults and environment variables
	}

	v.SetEnvPrefix("CHB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Expand environment variables in sensitive fields so a YAML file can
	// reference ${SOME_SECRET} without inlining the value.
	cfg.Auth.JWTSecret = expandEnv(cfg.Auth.JWTSecret)
	cfg.Auth.AdminPasswordHash = expandEnv(cfg.Auth.AdminPasswordHash)
	cfg.Provider.APIKey = expandEnv(cfg.Provider.APIKey)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.cors_allowed_origins", []string{"*"})

	v.SetDefault("database.path", "./database.sqlite")
	v.SetDefault("database.max_connections", 10)

	v.SetDefault("auth.token_ttl", "1h")
	v.SetDefault("auth.admin_username", "admin")

	v.SetDefault("provider.base_url", "https://api.openai.com")
	v.SetDefault("provider.model", "gpt-3.5-turbo")
	v.SetDefault("provider.system_prompt",
		"You are a helpful assistant for psychology students. Answer questions about psychology clearly and accurately.")
	v.SetDefault("provider.timeout", "30s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("telemetry.metrics.enabled", true)
	v.SetDefault("telemetry.metrics.port", 9090)
}

// expandEnv expands ${VAR} references in configuration values
func expandEnv(value string) string {
	if strings.Contains(value, "${") {
		return os.ExpandEnv(value)
	}
	return value
}

// Validate checks the configuration for missing or inconsistent values.
// It fails fast on anything the server cannot run without, so a bad
// deployment dies at startup instead of at the first authenticated request.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required; generate one with: openssl rand -hex 32")
	}
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters")
	}

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}

	if c.Auth.AdminUsername == "" {
		return fmt.Errorf("auth.admin_username is required")
	}
	if c.Auth.AdminPasswordHash == "" {
		return fmt.Errorf("auth.admin_password_hash is required; generate one with cmd/hash")
	}

	if c.Provider.BaseURL == "" {
		return fmt.Errorf("provider.base_url is required")
	}
	if c.Provider.APIKey == "" {
		return fmt.Errorf("provider.api_key is required")
	}
	if c.Provider.Model == "" {
		return fmt.Errorf("provider.model is required")
	}
	if c.Provider.Timeout <= 0 {
		return fmt.Errorf("provider.timeout must be positive")
	}

	return nil
}

package internal

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Backend       BackendConfig       `mapstructure:"backend"`
	Dashboard     DashboardConfig     `mapstructure:"dashboard"`
	TokenStore    TokenStoreConfig    `mapstructure:"token_store"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type BackendConfig struct {
	BaseURL   string        `mapstructure:"base_url" validate:"required,url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	PageLimit int           `mapstructure:"page_limit"`
}

type DashboardConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type TokenStoreConfig struct {
	Driver  string `mapstructure:"driver" validate:"oneof=file sqlite postgres memory"`
	Path    string `mapstructure:"path"`
	DSN     string `mapstructure:"dsn"`
	KeyName string `mapstructure:"key_name"`
	SealKey string `mapstructure:"seal_key"`
}

type ObservabilityConfig struct {
	Tracing TracingConfig `mapstructure:"tracing"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name" validate:"required_if=Enabled true"`
	// Endpoint is an OTLP/HTTP collector; spans go to Output when empty.
	Endpoint string `mapstructure:"endpoint"`
	Output   string `mapstructure:"output"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

const (
	DefaultBackendTimeout = 15 * time.Second
	DefaultPageLimit      = 100
	DefaultDashboardHost  = "127.0.0.1"
	DefaultDashboardPort  = 3000
	DefaultTokenKeyName   = "token"
	DefaultTokenPath      = ".construction-dashboard/token"
	DefaultServiceName    = "construction-dashboard"
)

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}

// LoadConfigFromEnv builds the configuration from environment variables only.
func LoadConfigFromEnv() *Config {
	cfg := &Config{
		Backend: BackendConfig{
			BaseURL:   getEnv("BACKEND_BASE_URL", "http://localhost:8000"),
			Timeout:   getEnvAsDuration("BACKEND_TIMEOUT", DefaultBackendTimeout),
			PageLimit: getEnvAsInt("BACKEND_PAGE_LIMIT", DefaultPageLimit),
		},
		Dashboard: DashboardConfig{
			Host:              getEnv("DASHBOARD_HOST", DefaultDashboardHost),
			Port:              getEnvAsInt("DASHBOARD_PORT", DefaultDashboardPort),
			ReadHeaderTimeout: getEnvAsDuration("DASHBOARD_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("DASHBOARD_READ_TIMEOUT", 15*time.Second),
			IdleTimeout:       getEnvAsDuration("DASHBOARD_IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      getEnvAsDuration("DASHBOARD_WRITE_TIMEOUT", 30*time.Second),
		},
		TokenStore: TokenStoreConfig{
			Driver:  getEnv("TOKEN_STORE_DRIVER", "file"),
			Path:    getEnv("TOKEN_STORE_PATH", DefaultTokenPath),
			DSN:     getEnv("TOKEN_STORE_DSN", ""),
			KeyName: getEnv("TOKEN_STORE_KEY_NAME", DefaultTokenKeyName),
			SealKey: getEnv("TOKEN_STORE_SEAL_KEY", ""),
		},
		Observability: ObservabilityConfig{
			Tracing: TracingConfig{
				Enabled:     getEnvAsBool("TRACING_ENABLED", false),
				ServiceName: getEnv("TRACING_SERVICE_NAME", DefaultServiceName),
				Endpoint:    getEnv("TRACING_ENDPOINT", ""),
				Output:      getEnv("TRACING_OUTPUT", ""),
			},
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
	}
	return cfg
}

// ApplyDefaults fills zero values left by a partial config file.
func (c *Config) ApplyDefaults() {
	if c.Backend.Timeout <= 0 {
		c.Backend.Timeout = DefaultBackendTimeout
	}
	if c.Backend.PageLimit <= 0 {
		c.Backend.PageLimit = DefaultPageLimit
	}
	if c.Dashboard.Host == "" {
		c.Dashboard.Host = DefaultDashboardHost
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = DefaultDashboardPort
	}
	if c.TokenStore.Driver == "" {
		c.TokenStore.Driver = "file"
	}
	if c.TokenStore.KeyName == "" {
		c.TokenStore.KeyName = DefaultTokenKeyName
	}
	if c.TokenStore.Driver == "file" && c.TokenStore.Path == "" {
		c.TokenStore.Path = DefaultTokenPath
	}
	if c.Observability.Tracing.ServiceName == "" {
		c.Observability.Tracing.ServiceName = DefaultServiceName
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = "text"
	}
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Backend.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("backend config: %v", err))
	}

	if err := c.Dashboard.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("dashboard config: %v", err))
	}

	if err := c.TokenStore.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("token store config: %v", err))
	}

	if err := c.Observability.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("logging config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *BackendConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url %s: %w", c.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url must be http or https, got %q", u.Scheme)
	}
	return nil
}

func (c *DashboardConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *TokenStoreConfig) Validate() error {
	switch c.Driver {
	case "file":
		if c.Path == "" {
			return errors.New("path is required for the file driver")
		}
	case "sqlite":
		if c.Path == "" && c.DSN == "" {
			return errors.New("path or dsn is required for the sqlite driver")
		}
	case "postgres":
		if c.DSN == "" {
			return errors.New("dsn is required for the postgres driver")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown driver %q", c.Driver)
	}
	if c.SealKey != "" {
		if _, err := c.GetSealKey(); err != nil {
			return fmt.Errorf("invalid seal_key: %w", err)
		}
	}
	return nil
}

// GetSealKey decodes the base64 seal key. A nil key with no error means sealing is off.
func (c *TokenStoreConfig) GetSealKey() (*[32]byte, error) {
	if c.SealKey == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(c.SealKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode seal key: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("seal key must be 32 bytes, got %d", len(raw))
	}
	var key [32]byte
	copy(key[:], raw)
	return &key, nil
}

func (c *LoggingConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown level %q", c.Level)
	}
	switch c.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown format %q", c.Format)
	}
	return nil
}

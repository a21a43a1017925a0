// Package config provides configuration loading, validation, and hot
// reload.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rankgate/rankgate/domain/plan"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Quota    QuotaConfig    `yaml:"quota"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig configures the database.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// AuthConfig configures credential extraction.
type AuthConfig struct {
	Header string `yaml:"header"` // header carrying the API key (default: X-API-Key)
}

// QuotaConfig configures daily call ceilings per plan tier.
type QuotaConfig struct {
	Free       int64 `yaml:"free"`
	Starter    int64 `yaml:"starter"`
	Pro        int64 `yaml:"pro"`
	Enterprise int64 `yaml:"enterprise"`
}

// Ceilings converts the configured values to the domain table.
func (q QuotaConfig) Ceilings() plan.Ceilings {
	return plan.Ceilings{
		Free:       q.Free,
		Starter:    q.Starter,
		Pro:        q.Pro,
		Enterprise: q.Enterprise,
	}
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // default: /metrics
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables referenced in the file
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment
// variables. Useful for container deployments without a config file.
//
// Environment variables:
//
//	RANKGATE_DATABASE_DSN      - Database path (default: rankgate.db)
//	RANKGATE_SERVER_HOST       - Server host (default: 0.0.0.0)
//	RANKGATE_SERVER_PORT       - Server port (default: 8772)
//	RANKGATE_AUTH_HEADER       - API key header (default: X-API-Key)
//	RANKGATE_QUOTA_FREE        - Daily ceiling for the free tier
//	RANKGATE_QUOTA_STARTER     - Daily ceiling for the starter tier
//	RANKGATE_QUOTA_PRO         - Daily ceiling for the pro tier
//	RANKGATE_QUOTA_ENTERPRISE  - Daily ceiling for the enterprise tier
//	RANKGATE_LOG_LEVEL         - Log level: debug, info, warn, error
//	RANKGATE_LOG_FORMAT        - Log format: json or console
//	RANKGATE_METRICS_ENABLED   - Enable /metrics endpoint
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback tries to load from file, falls back to environment
// variables when the file is absent.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RANKGATE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("RANKGATE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("RANKGATE_SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("RANKGATE_SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if v := os.Getenv("RANKGATE_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("RANKGATE_AUTH_HEADER"); v != "" {
		cfg.Auth.Header = v
	}
	if v := os.Getenv("RANKGATE_QUOTA_FREE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Quota.Free = n
		}
	}
	if v := os.Getenv("RANKGATE_QUOTA_STARTER"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Quota.Starter = n
		}
	}
	if v := os.Getenv("RANKGATE_QUOTA_PRO"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Quota.Pro = n
		}
	}
	if v := os.Getenv("RANKGATE_QUOTA_ENTERPRISE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Quota.Enterprise = n
		}
	}
	if v := os.Getenv("RANKGATE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RANKGATE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("RANKGATE_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = v == "true" || v == "1"
	}
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8772
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "rankgate.db"
	}
	if cfg.Auth.Header == "" {
		cfg.Auth.Header = "X-API-Key"
	}
	if cfg.Quota.Free == 0 {
		cfg.Quota.Free = plan.DefaultCeilingFree
	}
	if cfg.Quota.Starter == 0 {
		cfg.Quota.Starter = plan.DefaultCeilingStarter
	}
	if cfg.Quota.Pro == 0 {
		cfg.Quota.Pro = plan.DefaultCeilingPro
	}
	if cfg.Quota.Enterprise == 0 {
		cfg.Quota.Enterprise = plan.DefaultCeilingEnterprise
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", cfg.Server.Port)
	}
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug|info|warn|error, got %q", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json|console, got %q", cfg.Logging.Format)
	}
	for name, v := range map[string]int64{
		"quota.free":       cfg.Quota.Free,
		"quota.starter":    cfg.Quota.Starter,
		"quota.pro":        cfg.Quota.Pro,
		"quota.enterprise": cfg.Quota.Enterprise,
	} {
		if v < 0 {
			return fmt.Errorf("%s must be non-negative, got %d", name, v)
		}
	}
	return nil
}

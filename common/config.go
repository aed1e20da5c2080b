package common

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix is the prefix for all environment variable overrides.
	EnvPrefix = "STOREAPI_"

	DefaultHost = "api.pagelines.com"

	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// DefaultSchemes is the order in which URL schemes are attempted.
var DefaultSchemes = []string{"https://", "http://"}

// Config describes the API client, its cache backend and logging.
type Config struct {
	Host            string      `yaml:"host"`
	Username        string      `yaml:"username"`
	Password        string      `yaml:"password"`
	Token           string      `yaml:"token"`
	UserAgent       string      `yaml:"user_agent"`
	Schemes         []string    `yaml:"schemes"`
	SecureTransport *bool       `yaml:"secure_transport"`
	Cache           CacheConfig `yaml:"cache"`
	LogLevel        string      `yaml:"log_level"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend    string        `yaml:"backend"`
	DefaultTTL time.Duration `yaml:"default_ttl"`
	Redis      RedisConfig   `yaml:"redis"`
}

// ConfigError reports a problem with one config field or file.
type ConfigError struct {
	Path  string
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	switch {
	case e.Path != "":
		return fmt.Sprintf("config %s: %v", e.Path, e.Err)
	case e.Field != "":
		return fmt.Sprintf("config field %s: %v", e.Field, e.Err)
	default:
		return fmt.Sprintf("config: %v", e.Err)
	}
}

func (e *ConfigError) Unwrap() error { return e.Err }

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	secure := true
	return &Config{
		Host:            DefaultHost,
		UserAgent:       DefaultUserAgent,
		Schemes:         append([]string(nil), DefaultSchemes...),
		SecureTransport: &secure,
		Cache: CacheConfig{
			Backend:    CacheBackendMemory,
			DefaultTTL: DefaultExpiration,
			Redis:      RedisConfig{Addr: "localhost:6379"},
		},
		LogLevel: "info",
	}
}

// LoadConfig builds a Config from defaults, then the YAML file at path (if
// path is non-empty), then STOREAPI_* environment variables.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &ConfigError{Path: path, Err: err}
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, &ConfigError{Path: path, Err: err}
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv(EnvPrefix + "HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv(EnvPrefix + "USERNAME"); v != "" {
		cfg.Username = v
	}
	if v := os.Getenv(EnvPrefix + "PASSWORD"); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv(EnvPrefix + "TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv(EnvPrefix + "SECURE_TRANSPORT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return &ConfigError{Field: "secure_transport", Err: err}
		}
		cfg.SecureTransport = &b
	}
	if v := os.Getenv(EnvPrefix + "CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = v
	}
	if v := os.Getenv(EnvPrefix + "REDIS_ADDR"); v != "" {
		cfg.Cache.Redis.Addr = v
	}
	if v := os.Getenv(EnvPrefix + "REDIS_PASSWORD"); v != "" {
		cfg.Cache.Redis.Password = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return nil
}

// Validate checks the config for values the client cannot work with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return &ConfigError{Field: "host", Err: fmt.Errorf("must not be empty")}
	}
	if len(c.Schemes) == 0 {
		return &ConfigError{Field: "schemes", Err: fmt.Errorf("at least one scheme is required")}
	}
	for _, s := range c.Schemes {
		if s != "https://" && s != "http://" {
			return &ConfigError{Field: "schemes", Err: fmt.Errorf("unsupported scheme %q", s)}
		}
	}
	switch c.Cache.Backend {
	case CacheBackendMemory, CacheBackendRedis:
	default:
		return &ConfigError{Field: "cache.backend", Err: fmt.Errorf("unsupported backend %q", c.Cache.Backend)}
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return &ConfigError{Field: "log_level", Err: err}
	}
	return nil
}

// SecureTransportAvailable reports whether HTTPS attempts are allowed.
func (c *Config) SecureTransportAvailable() bool {
	return c.SecureTransport == nil || *c.SecureTransport
}

// Credential returns the configured credential for name ("user" or "pass").
func (c *Config) Credential(name string) string {
	switch name {
	case "user":
		return c.Username
	case "pass":
		return c.Password
	}
	return ""
}

// NewCacheStoreFromConfig builds the cache backend selected by cfg.
func NewCacheStoreFromConfig(ctx context.Context, cfg CacheConfig, logger *slog.Logger) (CacheRepository, error) {
	switch cfg.Backend {
	case "", CacheBackendMemory:
		return NewCacheStore(), nil
	case CacheBackendRedis:
		client, err := DialRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(client, logger), nil
	default:
		return nil, &ConfigError{Field: "cache.backend", Err: fmt.Errorf("unsupported backend %q", cfg.Backend)}
	}
}

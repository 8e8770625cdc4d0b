// Package config loads runtime configuration from defaults, an optional YAML
// file and environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr        string `yaml:"addr"`
	Environment string `yaml:"environment"`
	// StartInDemo boots the controller in Demo mode.
	StartInDemo bool `yaml:"start_in_demo"`
	// AllowModeOverride enables PUT /mode, the developer bypass.
	AllowModeOverride bool  `yaml:"allow_mode_override"`
	MaxBodyBytes      int64 `yaml:"max_body_bytes"`
}

// Backend describes one upstream service.
type Backend struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Health configures the ledger health monitor.
type Health struct {
	ProbeTimeout  time.Duration `yaml:"probe_timeout"`
	ProbeInterval time.Duration `yaml:"probe_interval"`
}

// RedisConfig enables the Redis proof cache when URL is set.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Config is the complete runtime configuration.
type Config struct {
	Server     Server      `yaml:"server"`
	Ledger     Backend     `yaml:"ledger"`
	RuleEngine Backend     `yaml:"rule_engine"`
	Health     Health      `yaml:"health"`
	Redis      RedisConfig `yaml:"redis"`
	// ProofCacheTTL bounds how long verified proofs are served from cache.
	// Zero disables the cache.
	ProofCacheTTL time.Duration `yaml:"proof_cache_ttl"`
	LogLevel      string        `yaml:"log_level"`
	// ServiceToken is forwarded when the caller supplied no bearer.
	ServiceToken string `yaml:"-"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Server: Server{
			Addr:         ":8080",
			Environment:  "development",
			MaxBodyBytes: 1 << 20,
		},
		Ledger:     Backend{URL: "http://localhost:8081", Timeout: 10 * time.Second},
		RuleEngine: Backend{URL: "http://localhost:8081", Timeout: 30 * time.Second},
		Health: Health{
			ProbeTimeout:  2 * time.Second,
			ProbeInterval: 30 * time.Second,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
		ProofCacheTTL: 5 * time.Minute,
		LogLevel:      "info",
	}
}

// Load builds the configuration: defaults, then the YAML file at path (when
// non-empty), then environment variables. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv loads from LEXCHAIN_CONFIG (if set) and the environment.
func FromEnv() (Config, error) {
	return Load(os.Getenv("LEXCHAIN_CONFIG"))
}

func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	setString(getenv, "LEXCHAIN_ADDR", &c.Server.Addr)
	setString(getenv, "LEXCHAIN_ENV", &c.Server.Environment)
	setString(getenv, "LEDGER_URL", &c.Ledger.URL)
	setString(getenv, "RULE_ENGINE_URL", &c.RuleEngine.URL)
	setString(getenv, "REDIS_URL", &c.Redis.URL)
	setString(getenv, "LOG_LEVEL", &c.LogLevel)
	setString(getenv, "LEXCHAIN_TOKEN", &c.ServiceToken)

	var errs []error
	if v := getenv("REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT: %w", err))
		} else {
			c.Ledger.Timeout = d
			c.RuleEngine.Timeout = d
		}
	}
	errs = append(errs,
		setDuration(getenv, "HEALTH_PROBE_TIMEOUT", &c.Health.ProbeTimeout),
		setDuration(getenv, "HEALTH_PROBE_INTERVAL", &c.Health.ProbeInterval),
		setDuration(getenv, "PROOF_CACHE_TTL", &c.ProofCacheTTL),
		setBool(getenv, "START_IN_DEMO", &c.Server.StartInDemo),
		setBool(getenv, "ALLOW_MODE_OVERRIDE", &c.Server.AllowModeOverride),
	)
	return errors.Join(errs...)
}

// Validate rejects configurations the pipeline cannot run with.
func (c Config) Validate() error {
	var errs []error
	for name, b := range map[string]Backend{"ledger": c.Ledger, "rule_engine": c.RuleEngine} {
		if b.URL == "" {
			errs = append(errs, fmt.Errorf("%s url is required", name))
		} else if u, err := url.Parse(b.URL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s url %q is not absolute", name, b.URL))
		}
		if b.Timeout <= 0 {
			errs = append(errs, fmt.Errorf("%s timeout must be positive", name))
		}
	}
	if c.Health.ProbeTimeout <= 0 {
		errs = append(errs, errors.New("health probe timeout must be positive"))
	}
	if c.Health.ProbeInterval <= 0 {
		errs = append(errs, errors.New("health probe interval must be positive"))
	}
	if c.ProofCacheTTL < 0 {
		errs = append(errs, errors.New("proof cache ttl must not be negative"))
	}
	return errors.Join(errs...)
}

func setString(getenv func(string) string, key string, dst *string) {
	if v := getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(getenv func(string) string, key string, dst *time.Duration) error {
	v := getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func setBool(getenv func(string) string, key string, dst *bool) error {
	v := getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

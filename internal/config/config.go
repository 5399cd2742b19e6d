package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// API modes. Sandbox routes every call to the paper-trading endpoint.
const (
	ModeSandbox    = "sandbox"
	ModeProduction = "production"
)

// DefaultAppName identifies this adapter to the upstream API.
const DefaultAppName = "investmcp"

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the adapter.
type Config struct {
	Invest  Invest  `yaml:"invest"`
	Logging Logging `yaml:"logging"`
	Limits  Limits  `yaml:"limits"`
}

// Invest holds credentials and mode for the brokerage API.
type Invest struct {
	Token     string `yaml:"token"`
	AccountID string `yaml:"account_id"`
	Mode      string `yaml:"mode"` // "sandbox" or "production"
	AppName   string `yaml:"app_name"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Limits throttles upstream requests.
type Limits struct {
	RequestsPerMinute int `yaml:"requests_per_minute"` // 0 disables throttling
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, applies
// environment variable overrides, fills defaults, and validates the result.
// A missing file is not an error: the environment alone can supply the
// whole configuration, which is how MCP clients usually launch the server.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Environment-only configuration.
	default:
		return nil, err
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("INVEST_TOKEN"); v != "" {
		cfg.Invest.Token = v
	}
	if v := os.Getenv("INVEST_ACCOUNT_ID"); v != "" {
		cfg.Invest.AccountID = v
	}
	if v := os.Getenv("INVEST_MODE"); v != "" {
		cfg.Invest.Mode = v
	}
	if v := os.Getenv("INVEST_APP_NAME"); v != "" {
		cfg.Invest.AppName = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("INVEST_REQUESTS_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Limits.RequestsPerMinute = n
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Invest.Mode == "" {
		cfg.Invest.Mode = ModeSandbox
	}
	if cfg.Invest.AppName == "" {
		cfg.Invest.AppName = DefaultAppName
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func (c *Config) validate() error {
	if c.Invest.Token == "" {
		return errors.New("invest token is required (set invest.token or INVEST_TOKEN)")
	}
	if c.Invest.AccountID == "" {
		return errors.New("invest account id is required (set invest.account_id or INVEST_ACCOUNT_ID)")
	}
	if c.Invest.Mode != ModeSandbox && c.Invest.Mode != ModeProduction {
		return fmt.Errorf("invalid invest mode %q: must be %q or %q", c.Invest.Mode, ModeSandbox, ModeProduction)
	}
	return nil
}

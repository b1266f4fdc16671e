// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"usage-pricing/core/contract"
	"usage-pricing/core/types"
	"usage-pricing/internal/errors"
	"usage-pricing/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Valuation holds the contract valuation policy thresholds
	Valuation contract.Policy `json:"valuation"`

	// Usage contains usage normalization settings
	Usage UsageConfig `json:"usage"`

	// Ledger selects the usage ledger backend
	Ledger LedgerConfig `json:"ledger"`

	// Billing contains billing sweep settings
	Billing BillingConfig `json:"billing"`

	// Output contains output configuration
	Output OutputConfig `json:"output"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// UsageConfig contains usage normalization settings
type UsageConfig struct {
	// DefaultRate is the per-minute rate used when a contract has no
	// matching service tier and no default of its own
	DefaultRate decimal.Decimal `json:"default_rate"`
}

// LedgerConfig selects and configures the usage ledger
type LedgerConfig struct {
	// Backend is one of memory, file, sqlite, postgres
	Backend string `json:"backend"`

	// Path is the directory (file) or database file (sqlite)
	Path string `json:"path,omitempty"`

	// DSN is the postgres connection string
	DSN string `json:"dsn,omitempty"`
}

// BillingConfig contains billing sweep settings
type BillingConfig struct {
	// Workers bounds how many accounts are priced concurrently
	Workers int `json:"workers"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	// DefaultFormat is the default output format (cli, json)
	DefaultFormat string `json:"default_format"`
}

// Default returns a default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Version:   "1.0",
		Valuation: contract.DefaultPolicy(),
		Usage: UsageConfig{
			DefaultRate: types.DefaultUsageRate,
		},
		Ledger: LedgerConfig{
			Backend: "sqlite",
			Path:    filepath.Join(homeDir, ".usage-pricing", "ledger.db"),
		},
		Billing: BillingConfig{
			Workers: 4,
		},
		Output: OutputConfig{
			DefaultFormat: "cli",
		},
		Logging: logging.DefaultConfig(),
	}
}

// DefaultPath is where the CLI looks for a config file when none is given.
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".usage-pricing.json")
}

// Load loads configuration from a file. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, errors.Wrapf(errors.TypeConfig, err, "failed to read config %s", path)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, errors.Wrapf(errors.TypeConfig, err, "invalid config %s", path)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	switch c.Ledger.Backend {
	case "memory", "file", "sqlite", "postgres":
	default:
		return errors.Newf(errors.TypeConfig, "unsupported ledger backend: %q", c.Ledger.Backend)
	}
	if c.Ledger.Backend == "postgres" && c.Ledger.DSN == "" {
		return errors.New(errors.TypeConfig, "ledger backend postgres requires a dsn")
	}
	if c.Usage.DefaultRate.IsNegative() {
		return errors.New(errors.TypeConfig, "usage.default_rate must not be negative")
	}
	if c.Billing.Workers < 0 {
		return errors.New(errors.TypeConfig, "billing.workers must not be negative")
	}
	return nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}

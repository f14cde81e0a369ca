// Package config defines all configuration for the clearinghouse.
// Config is loaded from a YAML file (default: configs/config.yaml) with
// operational fields overridable via CLEAR_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

// Config is the top-level configuration. Maps directly to the YAML file structure.
type Config struct {
	Custodian string          `mapstructure:"custodian"`
	DustSink  string          `mapstructure:"dust_sink"`
	Assets    []AssetConfig   `mapstructure:"assets"`
	Store     StoreConfig     `mapstructure:"store"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Indexer   IndexerConfig   `mapstructure:"indexer"`
}

// AssetConfig registers one collateral asset on startup. Supply is minted to
// the treasury address; writers fund themselves from there out of band.
type AssetConfig struct {
	Address  string `mapstructure:"address"`
	Decimals int32  `mapstructure:"decimals"`
	Supply   string `mapstructure:"supply"` // decimal string, base units
	Treasury string `mapstructure:"treasury"`
}

// StoreConfig sets where ledger snapshots are persisted (JSON files).
type StoreConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DashboardConfig controls the web dashboard server.
type DashboardConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// IndexerConfig controls the external event publisher. When DryRun is set,
// events are logged instead of delivered.
type IndexerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"`
	DryRun  bool   `mapstructure:"dry_run"`
}

// Load reads config from a YAML file with env var overrides.
// Operational fields use env vars: CLEAR_DUST_SINK, CLEAR_DATA_DIR,
// CLEAR_INDEXER_URL.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("CLEAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Override operational fields from env
	if sink := os.Getenv("CLEAR_DUST_SINK"); sink != "" {
		cfg.DustSink = sink
	}
	if dir := os.Getenv("CLEAR_DATA_DIR"); dir != "" {
		cfg.Store.DataDir = dir
	}
	if url := os.Getenv("CLEAR_INDEXER_URL"); url != "" {
		cfg.Indexer.BaseURL = url
	}
	if os.Getenv("CLEAR_INDEXER_DRY_RUN") == "true" || os.Getenv("CLEAR_INDEXER_DRY_RUN") == "1" {
		cfg.Indexer.DryRun = true
	}

	return &cfg, nil
}

// Validate checks all required fields and value ranges.
func (c *Config) Validate() error {
	if !common.IsHexAddress(c.Custodian) {
		return fmt.Errorf("custodian must be a hex address, got %q", c.Custodian)
	}
	if !common.IsHexAddress(c.DustSink) {
		return fmt.Errorf("dust_sink must be a hex address (set CLEAR_DUST_SINK), got %q", c.DustSink)
	}
	if len(c.Assets) < 2 {
		return fmt.Errorf("at least two assets are required (underlying and exercise), got %d", len(c.Assets))
	}
	seen := make(map[string]bool, len(c.Assets))
	for i, a := range c.Assets {
		if !common.IsHexAddress(a.Address) {
			return fmt.Errorf("assets[%d].address must be a hex address, got %q", i, a.Address)
		}
		key := strings.ToLower(a.Address)
		if seen[key] {
			return fmt.Errorf("assets[%d].address %s registered twice", i, a.Address)
		}
		seen[key] = true
		if a.Decimals < 0 || a.Decimals > 36 {
			return fmt.Errorf("assets[%d].decimals must be in [0, 36], got %d", i, a.Decimals)
		}
		if a.Supply == "" {
			return fmt.Errorf("assets[%d].supply is required", i)
		}
		if !common.IsHexAddress(a.Treasury) {
			return fmt.Errorf("assets[%d].treasury must be a hex address, got %q", i, a.Treasury)
		}
	}
	if c.Store.DataDir == "" {
		return fmt.Errorf("store.data_dir is required (set CLEAR_DATA_DIR)")
	}
	if c.Dashboard.Enabled && c.Dashboard.Port <= 0 {
		return fmt.Errorf("dashboard.port must be > 0 when the dashboard is enabled")
	}
	if c.Indexer.Enabled && c.Indexer.BaseURL == "" {
		return fmt.Errorf("indexer.base_url is required when the indexer is enabled (set CLEAR_INDEXER_URL)")
	}
	return nil
}

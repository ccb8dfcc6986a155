// Package config loads the papertrade YAML configuration and applies
// environment variable overrides.
package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the papertrade services.
type Config struct {
	Storage   Storage         `yaml:"storage"`
	Server    Server          `yaml:"server"`
	Brokerage Brokerage       `yaml:"brokerage"`
	Portfolio PortfolioConfig `yaml:"portfolio"`
	Logging   Logging         `yaml:"logging"`
}

// Storage holds paths for local persistence: history parquet files, the
// simulator database, and the watchlist file.
type Storage struct {
	DataDir       string `yaml:"data_dir"`
	SimulatorDB   string `yaml:"simulator_db"`
	WatchlistPath string `yaml:"watchlist_path"`
}

// Server holds network listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Brokerage selects and configures the account service backing the
// mirror: "sim" runs the embedded simulator, "remote" talks to a real
// endpoint.
type Brokerage struct {
	Mode            string  `yaml:"mode"`
	BaseURL         string  `yaml:"base_url"`
	Token           string  `yaml:"token"`
	RateLimitPerMin int     `yaml:"rate_limit_per_min"`
	StartingBalance float64 `yaml:"starting_balance"`
	QuoteSeed       int64   `yaml:"quote_seed"`
}

// PortfolioConfig controls refresh cadence and display preferences.
type PortfolioConfig struct {
	DisplayCurrency string `yaml:"display_currency"`
	DisplayMarket   string `yaml:"display_market"`
	QuoteRefreshSec int    `yaml:"quote_refresh_sec"`
	FullRefreshSec  int    `yaml:"full_refresh_sec"`
	ValueSampleSec  int    `yaml:"value_sample_sec"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it
// into a Config struct, fills unset fields with defaults, and applies
// environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	return cfg, nil
}

// Default returns a Config usable without any file, running the embedded
// simulator with everything under dir.
func Default(dir string) *Config {
	cfg := &Config{}
	cfg.Storage.DataDir = dir
	applyDefaults(cfg)
	return cfg
}

// applyDefaults fills zero-valued fields so a minimal config file still
// produces a runnable service.
func applyDefaults(cfg *Config) {
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data"
	}
	if cfg.Storage.SimulatorDB == "" {
		cfg.Storage.SimulatorDB = cfg.Storage.DataDir + "/simulator.db"
	}
	if cfg.Storage.WatchlistPath == "" {
		cfg.Storage.WatchlistPath = cfg.Storage.DataDir + "/watchlist.json"
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8650
	}
	if cfg.Brokerage.Mode == "" {
		cfg.Brokerage.Mode = "sim"
	}
	if cfg.Brokerage.RateLimitPerMin == 0 {
		cfg.Brokerage.RateLimitPerMin = 120
	}
	if cfg.Brokerage.StartingBalance == 0 {
		cfg.Brokerage.StartingBalance = 100000
	}
	if cfg.Portfolio.DisplayCurrency == "" {
		cfg.Portfolio.DisplayCurrency = "USD"
	}
	if cfg.Portfolio.DisplayMarket == "" {
		cfg.Portfolio.DisplayMarket = "US"
	}
	if cfg.Portfolio.QuoteRefreshSec == 0 {
		cfg.Portfolio.QuoteRefreshSec = 15
	}
	if cfg.Portfolio.FullRefreshSec == 0 {
		cfg.Portfolio.FullRefreshSec = 120
	}
	if cfg.Portfolio.ValueSampleSec == 0 {
		cfg.Portfolio.ValueSampleSec = 300
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// applyEnvOverrides checks well-known environment variables and
// overrides the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PAPERTRADE_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("PAPERTRADE_SIM_DB"); v != "" {
		cfg.Storage.SimulatorDB = v
	}
	if v := os.Getenv("PAPERTRADE_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PAPERTRADE_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("PAPERTRADE_MODE"); v != "" {
		cfg.Brokerage.Mode = v
	}
	if v := os.Getenv("PAPERTRADE_BASE_URL"); v != "" {
		cfg.Brokerage.BaseURL = v
	}
	if v := os.Getenv("PAPERTRADE_TOKEN"); v != "" {
		cfg.Brokerage.Token = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "papertrade.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
storage:
  data_dir: "/tmp/papertrade/data"
  simulator_db: "/tmp/papertrade/sim.db"
  watchlist_path: "/tmp/papertrade/watchlist.json"
server:
  host: "0.0.0.0"
  port: 9000
brokerage:
  mode: "remote"
  base_url: "https://paper.example.com/api"
  token: "test-token"
  rate_limit_per_min: 60
  starting_balance: 50000
portfolio:
  display_currency: "INR"
  display_market: "NSE"
  quote_refresh_sec: 10
  full_refresh_sec: 300
logging:
  level: "debug"
  format: "json"
`)

	// Clear any environment overrides that might interfere.
	os.Unsetenv("PAPERTRADE_DATA_DIR")
	os.Unsetenv("PAPERTRADE_MODE")
	os.Unsetenv("PAPERTRADE_TOKEN")
	os.Unsetenv("LOG_LEVEL")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	// -- Storage --
	if cfg.Storage.DataDir != "/tmp/papertrade/data" {
		t.Errorf("Storage.DataDir = %q, want %q", cfg.Storage.DataDir, "/tmp/papertrade/data")
	}
	if cfg.Storage.SimulatorDB != "/tmp/papertrade/sim.db" {
		t.Errorf("Storage.SimulatorDB = %q, want %q", cfg.Storage.SimulatorDB, "/tmp/papertrade/sim.db")
	}

	// -- Server --
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9000)
	}

	// -- Brokerage --
	if cfg.Brokerage.Mode != "remote" {
		t.Errorf("Brokerage.Mode = %q, want %q", cfg.Brokerage.Mode, "remote")
	}
	if cfg.Brokerage.BaseURL != "https://paper.example.com/api" {
		t.Errorf("Brokerage.BaseURL = %q, want %q", cfg.Brokerage.BaseURL, "https://paper.example.com/api")
	}
	if cfg.Brokerage.Token != "test-token" {
		t.Errorf("Brokerage.Token = %q, want %q", cfg.Brokerage.Token, "test-token")
	}
	if cfg.Brokerage.StartingBalance != 50000 {
		t.Errorf("Brokerage.StartingBalance = %f, want %f", cfg.Brokerage.StartingBalance, 50000.0)
	}

	// -- Portfolio --
	if cfg.Portfolio.DisplayCurrency != "INR" {
		t.Errorf("Portfolio.DisplayCurrency = %q, want %q", cfg.Portfolio.DisplayCurrency, "INR")
	}
	if cfg.Portfolio.DisplayMarket != "NSE" {
		t.Errorf("Portfolio.DisplayMarket = %q, want %q", cfg.Portfolio.DisplayMarket, "NSE")
	}
	if cfg.Portfolio.QuoteRefreshSec != 10 {
		t.Errorf("Portfolio.QuoteRefreshSec = %d, want %d", cfg.Portfolio.QuoteRefreshSec, 10)
	}

	// -- Logging --
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
storage:
  data_dir: "/var/papertrade"
`)

	os.Unsetenv("PAPERTRADE_SIM_DB")
	os.Unsetenv("PAPERTRADE_PORT")
	os.Unsetenv("PAPERTRADE_MODE")
	os.Unsetenv("LOG_LEVEL")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	// Unset fields take defaults derived from data_dir or fixed values.
	if cfg.Storage.SimulatorDB != "/var/papertrade/simulator.db" {
		t.Errorf("Storage.SimulatorDB = %q, want derived default", cfg.Storage.SimulatorDB)
	}
	if cfg.Server.Port != 8650 {
		t.Errorf("Server.Port = %d, want default 8650", cfg.Server.Port)
	}
	if cfg.Brokerage.Mode != "sim" {
		t.Errorf("Brokerage.Mode = %q, want default %q", cfg.Brokerage.Mode, "sim")
	}
	if cfg.Brokerage.StartingBalance != 100000 {
		t.Errorf("Brokerage.StartingBalance = %f, want default 100000", cfg.Brokerage.StartingBalance)
	}
	if cfg.Portfolio.DisplayCurrency != "USD" {
		t.Errorf("Portfolio.DisplayCurrency = %q, want default USD", cfg.Portfolio.DisplayCurrency)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want default info", cfg.Logging.Level)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
storage:
  data_dir: "/original/data"
brokerage:
  mode: "sim"
  token: "yaml-token"
`)

	os.Setenv("PAPERTRADE_DATA_DIR", "/env/data")
	os.Setenv("PAPERTRADE_MODE", "remote")
	os.Setenv("PAPERTRADE_PORT", "7777")
	defer os.Unsetenv("PAPERTRADE_DATA_DIR")
	defer os.Unsetenv("PAPERTRADE_MODE")
	defer os.Unsetenv("PAPERTRADE_PORT")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Storage.DataDir != "/env/data" {
		t.Errorf("Storage.DataDir = %q, want %q (env override)", cfg.Storage.DataDir, "/env/data")
	}
	if cfg.Brokerage.Mode != "remote" {
		t.Errorf("Brokerage.Mode = %q, want %q (env override)", cfg.Brokerage.Mode, "remote")
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("Server.Port = %d, want %d (env override)", cfg.Server.Port, 7777)
	}
	// token should remain from YAML since no env override was set.
	os.Unsetenv("PAPERTRADE_TOKEN")
	if cfg.Brokerage.Token != "yaml-token" {
		t.Errorf("Brokerage.Token = %q, want %q (from YAML)", cfg.Brokerage.Token, "yaml-token")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default("/tmp/pt")
	if cfg.Storage.DataDir != "/tmp/pt" {
		t.Errorf("Default dir = %q, want %q", cfg.Storage.DataDir, "/tmp/pt")
	}
	if cfg.Brokerage.Mode != "sim" {
		t.Errorf("Default mode = %q, want sim", cfg.Brokerage.Mode)
	}
}

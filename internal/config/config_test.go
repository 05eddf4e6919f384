package config

import (
	"os"
	"strings"
	"testing"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "tradesim-config-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	if err := tmpFile.Close(); err != nil {
		t.Fatalf("failed to close temp file: %v", err)
	}
	return tmpFile.Name()
}

func clearEnvOverrides() {
	os.Unsetenv("ALPACA_API_KEY")
	os.Unsetenv("ALPACA_API_SECRET")
	os.Unsetenv("APCA_API_KEY_ID")
	os.Unsetenv("APCA_API_SECRET_KEY")
	os.Unsetenv("DATA_DIR")
	os.Unsetenv("SQLITE_PATH")
	os.Unsetenv("LOG_LEVEL")
}

func TestLoadFull(t *testing.T) {
	clearEnvOverrides()
	path := writeTempConfig(t, `
storage:
  data_dir: "/tmp/tradesim/data"
  sqlite_path: "/tmp/tradesim/runs.db"
alpaca:
  api_key: "test-key"
  api_secret: "test-secret"
  data_url: "https://data.alpaca.markets"
logging:
  level: "debug"
  format: "json"
backtest:
  initial_capital: 250000
  start_date: "2023-01-01"
  end_date: "2023-12-31"
  commission_rate: 0.001
  slippage: 0.0002
risk:
  max_position_size: 0.2
  max_portfolio_risk: 0.05
  stop_loss_pct: 0.03
  take_profit_pct: 0.08
strategies:
  momentum:
    lookback_period: 10
    threshold: 0.03
  combined:
    strategies: ["momentum", "mean_reversion"]
    aggregation_method: "weighted"
    weights: [0.6, 0.4]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Storage.DataDir != "/tmp/tradesim/data" {
		t.Errorf("Storage.DataDir = %q, want %q", cfg.Storage.DataDir, "/tmp/tradesim/data")
	}
	if cfg.Alpaca.APIKey != "test-key" {
		t.Errorf("Alpaca.APIKey = %q, want %q", cfg.Alpaca.APIKey, "test-key")
	}
	if cfg.Backtest.InitialCapital != 250000 {
		t.Errorf("Backtest.InitialCapital = %v, want 250000", cfg.Backtest.InitialCapital)
	}
	if cfg.Backtest.CommissionRate != 0.001 {
		t.Errorf("Backtest.CommissionRate = %v, want 0.001", cfg.Backtest.CommissionRate)
	}
	if cfg.Risk.MaxPositionSize != 0.2 {
		t.Errorf("Risk.MaxPositionSize = %v, want 0.2", cfg.Risk.MaxPositionSize)
	}
	if cfg.Strategies.Momentum.LookbackPeriod != 10 {
		t.Errorf("Strategies.Momentum.LookbackPeriod = %d, want 10", cfg.Strategies.Momentum.LookbackPeriod)
	}
	if cfg.Strategies.Combined.AggregationMethod != "weighted" {
		t.Errorf("Combined.AggregationMethod = %q, want %q", cfg.Strategies.Combined.AggregationMethod, "weighted")
	}
	if len(cfg.Strategies.Combined.Weights) != 2 {
		t.Errorf("Combined.Weights has %d entries, want 2", len(cfg.Strategies.Combined.Weights))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnvOverrides()
	path := writeTempConfig(t, `
storage:
  data_dir: "/tmp/tradesim/data"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Backtest.InitialCapital != 100000 {
		t.Errorf("default InitialCapital = %v, want 100000", cfg.Backtest.InitialCapital)
	}
	if cfg.Backtest.CommissionRate != 0.0005 {
		t.Errorf("default CommissionRate = %v, want 0.0005", cfg.Backtest.CommissionRate)
	}
	if cfg.Backtest.Slippage != 0.0001 {
		t.Errorf("default Slippage = %v, want 0.0001", cfg.Backtest.Slippage)
	}
	if cfg.Risk.MaxPositionSize != 0.1 {
		t.Errorf("default MaxPositionSize = %v, want 0.1", cfg.Risk.MaxPositionSize)
	}
	if cfg.Risk.MaxPortfolioRisk != 0.02 {
		t.Errorf("default MaxPortfolioRisk = %v, want 0.02", cfg.Risk.MaxPortfolioRisk)
	}
	if cfg.Risk.StopLossPct != 0.05 {
		t.Errorf("default StopLossPct = %v, want 0.05", cfg.Risk.StopLossPct)
	}
	if cfg.Risk.TakeProfitPct != 0.1 {
		t.Errorf("default TakeProfitPct = %v, want 0.1", cfg.Risk.TakeProfitPct)
	}
	if cfg.Strategies.MACrossover.SlowPeriod != 50 {
		t.Errorf("default MACrossover.SlowPeriod = %d, want 50", cfg.Strategies.MACrossover.SlowPeriod)
	}
	if cfg.Strategies.Combined.AggregationMethod != "majority" {
		t.Errorf("default AggregationMethod = %q, want %q", cfg.Strategies.Combined.AggregationMethod, "majority")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnvOverrides()
	path := writeTempConfig(t, `
alpaca:
  api_key: "yaml-key"
storage:
  data_dir: "/original/data"
`)

	os.Setenv("ALPACA_API_KEY", "env-key")
	os.Setenv("DATA_DIR", "/env/data")
	defer clearEnvOverrides()

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Alpaca.APIKey != "env-key" {
		t.Errorf("Alpaca.APIKey = %q, want env override %q", cfg.Alpaca.APIKey, "env-key")
	}
	if cfg.Storage.DataDir != "/env/data" {
		t.Errorf("Storage.DataDir = %q, want env override %q", cfg.Storage.DataDir, "/env/data")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"negative capital", func(c *Config) { c.Backtest.InitialCapital = -1 }, "initial_capital"},
		{"negative commission", func(c *Config) { c.Backtest.CommissionRate = -0.1 }, "commission_rate"},
		{"negative slippage", func(c *Config) { c.Backtest.Slippage = -0.1 }, "slippage"},
		{"oversized position", func(c *Config) { c.Risk.MaxPositionSize = 1.5 }, "max_position_size"},
		{"inverted ma periods", func(c *Config) { c.Strategies.MACrossover.FastPeriod = 60 }, "fast_period"},
	}

	for _, tc := range cases {
		cfg := Default()
		tc.mutate(cfg)
		err := cfg.Validate()
		if err == nil {
			t.Errorf("%s: Validate() = nil, want error", tc.name)
			continue
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: error %q does not mention %q", tc.name, err, tc.want)
		}
	}
}

// Package config loads and validates the tradesim configuration from YAML
// with environment variable overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the tradesim engine.
type Config struct {
	Storage    Storage    `yaml:"storage"`
	Alpaca     Alpaca     `yaml:"alpaca"`
	Logging    Logging    `yaml:"logging"`
	Backtest   Backtest   `yaml:"backtest"`
	Risk       Risk       `yaml:"risk"`
	Strategies Strategies `yaml:"strategies"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Alpaca holds credentials and endpoints for the Alpaca market-data API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	DataURL   string `yaml:"data_url"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Backtest defines the simulation horizon and friction parameters.
type Backtest struct {
	InitialCapital float64 `yaml:"initial_capital"`
	StartDate      string  `yaml:"start_date"`
	EndDate        string  `yaml:"end_date"`
	CommissionRate float64 `yaml:"commission_rate"`
	Slippage       float64 `yaml:"slippage"`
}

// Risk defines position sizing and risk-control parameters.
type Risk struct {
	MaxPositionSize  float64 `yaml:"max_position_size"`
	MaxPortfolioRisk float64 `yaml:"max_portfolio_risk"`
	StopLossPct      float64 `yaml:"stop_loss_pct"`
	TakeProfitPct    float64 `yaml:"take_profit_pct"`
}

// Strategies holds per-strategy parameter blocks.
type Strategies struct {
	Momentum      MomentumConfig      `yaml:"momentum"`
	MeanReversion MeanReversionConfig `yaml:"mean_reversion"`
	MACrossover   MACrossoverConfig   `yaml:"ma_crossover"`
	Breakout      BreakoutConfig      `yaml:"breakout"`
	Combined      CombinedConfig      `yaml:"combined"`
}

// MomentumConfig parameterises the momentum strategy.
type MomentumConfig struct {
	LookbackPeriod int     `yaml:"lookback_period"`
	Threshold      float64 `yaml:"threshold"`
}

// MeanReversionConfig parameterises the mean-reversion strategy.
type MeanReversionConfig struct {
	LookbackPeriod  int     `yaml:"lookback_period"`
	ZScoreThreshold float64 `yaml:"z_score_threshold"`
}

// MACrossoverConfig parameterises the moving-average crossover strategy.
type MACrossoverConfig struct {
	FastPeriod   int `yaml:"fast_period"`
	SlowPeriod   int `yaml:"slow_period"`
	SignalPeriod int `yaml:"signal_period"`
}

// BreakoutConfig parameterises the breakout strategy.
type BreakoutConfig struct {
	LookbackPeriod    int     `yaml:"lookback_period"`
	BreakoutThreshold float64 `yaml:"breakout_threshold"`
	ATRPeriods        int     `yaml:"atr_periods"`
}

// CombinedConfig parameterises the combined strategy: which sub-strategies to
// run and how to aggregate their votes.
type CombinedConfig struct {
	Strategies        []string  `yaml:"strategies"`
	AggregationMethod string    `yaml:"aggregation_method"`
	Weights           []float64 `yaml:"weights"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, applies environment variable overrides, and fills defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration with every default applied and no
// credentials set. Useful for tests and ad-hoc runs.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills zero-valued fields with the documented defaults.
func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}

	if c.Backtest.InitialCapital == 0 {
		c.Backtest.InitialCapital = 100000
	}
	if c.Backtest.CommissionRate == 0 {
		c.Backtest.CommissionRate = 0.0005
	}
	if c.Backtest.Slippage == 0 {
		c.Backtest.Slippage = 0.0001
	}

	if c.Risk.MaxPositionSize == 0 {
		c.Risk.MaxPositionSize = 0.1
	}
	if c.Risk.MaxPortfolioRisk == 0 {
		c.Risk.MaxPortfolioRisk = 0.02
	}
	if c.Risk.StopLossPct == 0 {
		c.Risk.StopLossPct = 0.05
	}
	if c.Risk.TakeProfitPct == 0 {
		c.Risk.TakeProfitPct = 0.1
	}

	if c.Strategies.Momentum.LookbackPeriod == 0 {
		c.Strategies.Momentum.LookbackPeriod = 20
	}
	if c.Strategies.Momentum.Threshold == 0 {
		c.Strategies.Momentum.Threshold = 0.05
	}
	if c.Strategies.MeanReversion.LookbackPeriod == 0 {
		c.Strategies.MeanReversion.LookbackPeriod = 30
	}
	if c.Strategies.MeanReversion.ZScoreThreshold == 0 {
		c.Strategies.MeanReversion.ZScoreThreshold = 2.0
	}
	if c.Strategies.MACrossover.FastPeriod == 0 {
		c.Strategies.MACrossover.FastPeriod = 20
	}
	if c.Strategies.MACrossover.SlowPeriod == 0 {
		c.Strategies.MACrossover.SlowPeriod = 50
	}
	if c.Strategies.MACrossover.SignalPeriod == 0 {
		c.Strategies.MACrossover.SignalPeriod = 9
	}
	if c.Strategies.Breakout.LookbackPeriod == 0 {
		c.Strategies.Breakout.LookbackPeriod = 20
	}
	if c.Strategies.Breakout.BreakoutThreshold == 0 {
		c.Strategies.Breakout.BreakoutThreshold = 0.02
	}
	if c.Strategies.Breakout.ATRPeriods == 0 {
		c.Strategies.Breakout.ATRPeriods = 14
	}
	if c.Strategies.Combined.AggregationMethod == "" {
		c.Strategies.Combined.AggregationMethod = "majority"
	}
}

// Validate rejects configurations that would corrupt the simulation. It runs
// before any simulation work starts.
func (c *Config) Validate() error {
	if c.Backtest.InitialCapital <= 0 {
		return fmt.Errorf("initial_capital must be positive, got %v", c.Backtest.InitialCapital)
	}
	if c.Backtest.CommissionRate < 0 {
		return fmt.Errorf("commission_rate must not be negative, got %v", c.Backtest.CommissionRate)
	}
	if c.Backtest.Slippage < 0 {
		return fmt.Errorf("slippage must not be negative, got %v", c.Backtest.Slippage)
	}
	if c.Risk.MaxPositionSize <= 0 || c.Risk.MaxPositionSize > 1 {
		return fmt.Errorf("max_position_size must be in (0, 1], got %v", c.Risk.MaxPositionSize)
	}
	if c.Risk.MaxPortfolioRisk <= 0 {
		return fmt.Errorf("max_portfolio_risk must be positive, got %v", c.Risk.MaxPortfolioRisk)
	}
	if f, s := c.Strategies.MACrossover.FastPeriod, c.Strategies.MACrossover.SlowPeriod; f >= s {
		return fmt.Errorf("ma_crossover fast_period (%d) must be below slow_period (%d)", f, s)
	}
	return nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Canonical Alpaca env vars win over everything else.
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}

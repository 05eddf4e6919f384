package strategy

import (
	"fmt"

	"tradesim/internal/config"
)

// FromConfig builds the named strategy for the given symbols using the
// parameters in cfg. Known names are "momentum", "mean_reversion",
// "ma_crossover", "breakout", and "combined".
func FromConfig(name string, symbols []string, cfg *config.Config) (Strategy, error) {
	switch name {
	case "momentum":
		c := cfg.Strategies.Momentum
		return NewMomentum(symbols, c.LookbackPeriod, c.Threshold), nil
	case "mean_reversion":
		c := cfg.Strategies.MeanReversion
		return NewMeanReversion(symbols, c.LookbackPeriod, c.ZScoreThreshold), nil
	case "ma_crossover":
		c := cfg.Strategies.MACrossover
		return NewMACrossover(symbols, c.FastPeriod, c.SlowPeriod, c.SignalPeriod), nil
	case "breakout":
		c := cfg.Strategies.Breakout
		return NewBreakout(symbols, c.LookbackPeriod, c.BreakoutThreshold, c.ATRPeriods), nil
	case "combined":
		c := cfg.Strategies.Combined
		names := c.Strategies
		if len(names) == 0 {
			names = []string{"momentum", "mean_reversion", "ma_crossover"}
		}
		subs := make([]Strategy, 0, len(names))
		for _, sub := range names {
			if sub == "combined" {
				return nil, fmt.Errorf("combined strategy cannot nest itself")
			}
			s, err := FromConfig(sub, symbols, cfg)
			if err != nil {
				return nil, err
			}
			subs = append(subs, s)
		}
		return NewCombined(symbols, subs, Aggregation(c.AggregationMethod), c.Weights)
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}

// NewRegistryFromConfig builds every built-in strategy for the given symbols
// and registers them, so callers can resolve a name with Get and enumerate
// the available names with List.
func NewRegistryFromConfig(symbols []string, cfg *config.Config) (*Registry, error) {
	r := NewRegistry()
	for _, name := range []string{"momentum", "mean_reversion", "ma_crossover", "breakout", "combined"} {
		s, err := FromConfig(name, symbols, cfg)
		if err != nil {
			return nil, fmt.Errorf("building %s: %w", name, err)
		}
		r.Register(s)
	}
	return r, nil
}

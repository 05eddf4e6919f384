package strategy

import (
	"strings"
	"testing"

	"tradesim/internal/config"
)

func TestFromConfigKnownNames(t *testing.T) {
	cfg := config.Default()
	symbols := []string{"AAPL", "MSFT"}

	for _, name := range []string{"momentum", "mean_reversion", "ma_crossover", "breakout", "combined"} {
		s, err := FromConfig(name, symbols, cfg)
		if err != nil {
			t.Errorf("FromConfig(%q) error: %v", name, err)
			continue
		}
		if s.Name() != name {
			t.Errorf("FromConfig(%q).Name() = %q", name, s.Name())
		}
		if len(s.Symbols()) != 2 {
			t.Errorf("FromConfig(%q) symbols = %v", name, s.Symbols())
		}
	}
}

func TestFromConfigUnknownName(t *testing.T) {
	_, err := FromConfig("hodl", []string{"AAPL"}, config.Default())
	if err == nil || !strings.Contains(err.Error(), "unknown strategy") {
		t.Errorf("FromConfig error = %v, want unknown strategy", err)
	}
}

func TestFromConfigCombinedSubStrategies(t *testing.T) {
	cfg := config.Default()
	cfg.Strategies.Combined.Strategies = []string{"momentum", "breakout"}
	cfg.Strategies.Combined.AggregationMethod = "weighted"
	cfg.Strategies.Combined.Weights = []float64{3, 1}

	s, err := FromConfig("combined", []string{"AAPL"}, cfg)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	c, ok := s.(*Combined)
	if !ok {
		t.Fatalf("FromConfig returned %T, want *Combined", s)
	}
	if len(c.strategies) != 2 {
		t.Errorf("sub-strategies = %d, want 2", len(c.strategies))
	}
	if c.weights[0] != 0.75 || c.weights[1] != 0.25 {
		t.Errorf("weights = %v, want [0.75 0.25]", c.weights)
	}
}

func TestFromConfigCombinedRejectsNesting(t *testing.T) {
	cfg := config.Default()
	cfg.Strategies.Combined.Strategies = []string{"momentum", "combined"}

	_, err := FromConfig("combined", []string{"AAPL"}, cfg)
	if err == nil || !strings.Contains(err.Error(), "nest") {
		t.Errorf("FromConfig error = %v, want nesting error", err)
	}
}

func TestNewRegistryFromConfig(t *testing.T) {
	r, err := NewRegistryFromConfig([]string{"AAPL"}, config.Default())
	if err != nil {
		t.Fatalf("NewRegistryFromConfig: %v", err)
	}

	want := []string{"breakout", "combined", "ma_crossover", "mean_reversion", "momentum"}
	got := r.List()
	if len(got) != len(want) {
		t.Fatalf("List() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	s, ok := r.Get("momentum")
	if !ok {
		t.Fatal("Get(momentum) = not found")
	}
	if s.Name() != "momentum" {
		t.Errorf("Get(momentum).Name() = %q", s.Name())
	}
	if _, ok := r.Get("hodl"); ok {
		t.Error("Get(hodl) found an unregistered strategy")
	}
}

func TestNewRegistryFromConfigPropagatesErrors(t *testing.T) {
	cfg := config.Default()
	cfg.Strategies.Combined.Strategies = []string{"combined"}

	_, err := NewRegistryFromConfig([]string{"AAPL"}, cfg)
	if err == nil || !strings.Contains(err.Error(), "nest") {
		t.Errorf("NewRegistryFromConfig error = %v, want nesting error", err)
	}
}

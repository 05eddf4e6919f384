// Package strategy defines the signal-generation contract consumed by the
// backtest engine and provides the built-in strategy implementations plus a
// Registry for managing them.
package strategy

import (
	"context"
	"sort"
)

// Strategy is the interface that all trading strategies must implement. A
// strategy receives the full bar horizon once and produces one signal table
// covering it: one `{symbol}_signal` column per traded symbol (BUY=1,
// SELL=-1, HOLD=0) plus arbitrary indicator columns.
type Strategy interface {
	// Name returns the unique identifier for this strategy.
	Name() string

	// Symbols returns the symbols this strategy trades.
	Symbols() []string

	// GenerateSignals computes the signal table for the whole horizon.
	GenerateSignals(ctx context.Context, bars *BarTable) (*SignalTable, error)
}

// Registry holds a named collection of strategies for lookup and enumeration.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry creates an empty strategy Registry.
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[string]Strategy),
	}
}

// Register adds a strategy to the registry, keyed by its Name().
func (r *Registry) Register(s Strategy) {
	r.strategies[s.Name()] = s
}

// Get retrieves a strategy by name. The second return value indicates whether
// the strategy was found.
func (r *Registry) Get(name string) (Strategy, bool) {
	s, ok := r.strategies[name]
	return s, ok
}

// List returns a sorted slice of all registered strategy names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

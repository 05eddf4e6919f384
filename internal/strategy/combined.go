package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"tradesim/internal/domain"
)

// Aggregation selects how the combined strategy folds per-strategy votes
// into one signal.
type Aggregation string

const (
	AggregationMajority  Aggregation = "majority"
	AggregationUnanimous Aggregation = "unanimous"
	AggregationWeighted  Aggregation = "weighted"
)

// Compile-time interface check.
var _ Strategy = (*Combined)(nil)

// Combined runs several sub-strategies over the same horizon and aggregates
// their per-symbol signal vectors with the configured policy. Sub-strategy
// indicator columns are re-published under `{symbol}_{subName}_{indicator}`.
type Combined struct {
	symbols     []string
	strategies  []Strategy
	aggregation Aggregation
	weights     []float64 // normalized, only set for weighted aggregation
	log         *slog.Logger
}

// NewCombined creates a Combined strategy. All sub-strategies must trade
// exactly the same symbol set. For weighted aggregation the number of weights
// must match the number of strategies (nil means equal weights); weights are
// normalized to sum to 1.
func NewCombined(symbols []string, strategies []Strategy, aggregation Aggregation, weights []float64) (*Combined, error) {
	if len(strategies) == 0 {
		return nil, fmt.Errorf("combined strategy needs at least one sub-strategy")
	}

	want := symbolSet(symbols)
	for _, sub := range strategies {
		if got := symbolSet(sub.Symbols()); got != want {
			return nil, fmt.Errorf("strategy %s symbols %v don't match %v", sub.Name(), sub.Symbols(), symbols)
		}
	}

	var normalized []float64
	if aggregation == AggregationWeighted {
		if weights == nil {
			normalized = make([]float64, len(strategies))
			for i := range normalized {
				normalized[i] = 1.0 / float64(len(strategies))
			}
		} else {
			if len(weights) != len(strategies) {
				return nil, fmt.Errorf("expected %d weights, got %d", len(strategies), len(weights))
			}
			total := 0.0
			for _, w := range weights {
				total += w
			}
			if total == 0 {
				return nil, fmt.Errorf("weights must not sum to zero")
			}
			normalized = make([]float64, len(weights))
			for i, w := range weights {
				normalized[i] = w / total
			}
		}
	}

	return &Combined{
		symbols:     symbols,
		strategies:  strategies,
		aggregation: aggregation,
		weights:     normalized,
		log:         slog.Default().With("strategy", "combined"),
	}, nil
}

// Name returns "combined".
func (s *Combined) Name() string { return "combined" }

// Symbols returns the traded symbols.
func (s *Combined) Symbols() []string { return s.symbols }

// GenerateSignals runs each sub-strategy and aggregates their signals.
func (s *Combined) GenerateSignals(ctx context.Context, bars *BarTable) (*SignalTable, error) {
	subTables := make([]*SignalTable, 0, len(s.strategies))
	for _, sub := range s.strategies {
		t, err := sub.GenerateSignals(ctx, bars)
		if err != nil {
			return nil, fmt.Errorf("sub-strategy %s: %w", sub.Name(), err)
		}
		subTables = append(subTables, t)
	}

	result := NewSignalTable(bars.Dates)

	for _, sym := range s.symbols {
		votes := make([][]domain.SignalType, len(subTables))
		for k, t := range subTables {
			col := make([]domain.SignalType, len(bars.Dates))
			for i := range col {
				col[i] = t.Signal(sym, i)
			}
			votes[k] = col
		}

		combined := s.aggregate(votes, sym, len(bars.Dates))
		result.SetColumn(SignalColumn(sym), signalSlice(combined))

		// Re-publish sub-strategy indicators, prefixed with the strategy name.
		prefix := sym + "_"
		for k, t := range subTables {
			for _, col := range t.Columns() {
				if !strings.HasPrefix(col, prefix) || strings.HasSuffix(col, "_signal") {
					continue
				}
				vals, _ := t.Column(col)
				indicator := strings.TrimPrefix(col, prefix)
				result.SetColumn(fmt.Sprintf("%s_%s_%s", sym, s.strategies[k].Name(), indicator), vals)
			}
		}
	}

	s.log.Info("generated combined signals",
		"days", bars.Len(),
		"strategies", len(s.strategies),
		"method", string(s.aggregation),
	)
	return result, nil
}

// aggregate folds per-strategy signal vectors into one vector using the
// configured policy. Unknown policies fall back to majority voting with a
// warning.
func (s *Combined) aggregate(votes [][]domain.SignalType, symbol string, days int) []domain.SignalType {
	switch s.aggregation {
	case AggregationMajority:
		return aggregateMajority(votes, days)
	case AggregationUnanimous:
		return aggregateUnanimous(votes, days)
	case AggregationWeighted:
		return aggregateWeighted(votes, s.weights, days)
	default:
		s.log.Warn("unknown aggregation method, using majority",
			"method", string(s.aggregation), "symbol", symbol)
		return aggregateMajority(votes, days)
	}
}

// aggregateMajority picks the most voted signal per day. Ties between an
// action and HOLD resolve toward the action; ties between BUY and SELL
// resolve toward SELL.
func aggregateMajority(votes [][]domain.SignalType, days int) []domain.SignalType {
	out := make([]domain.SignalType, days)
	for i := 0; i < days; i++ {
		var buy, sell, hold int
		for _, col := range votes {
			switch col[i] {
			case domain.SignalBuy:
				buy++
			case domain.SignalSell:
				sell++
			default:
				hold++
			}
		}
		maxVotes := buy
		if sell > maxVotes {
			maxVotes = sell
		}
		if hold > maxVotes {
			maxVotes = hold
		}
		if buy == maxVotes {
			out[i] = domain.SignalBuy
		}
		if sell == maxVotes {
			out[i] = domain.SignalSell
		}
		if buy != maxVotes && sell != maxVotes {
			out[i] = domain.SignalHold
		}
	}
	return out
}

// aggregateUnanimous emits an action only when every strategy agrees on it.
func aggregateUnanimous(votes [][]domain.SignalType, days int) []domain.SignalType {
	out := make([]domain.SignalType, days)
	for i := 0; i < days; i++ {
		allBuy, allSell := true, true
		for _, col := range votes {
			if col[i] != domain.SignalBuy {
				allBuy = false
			}
			if col[i] != domain.SignalSell {
				allSell = false
			}
		}
		switch {
		case allBuy:
			out[i] = domain.SignalBuy
		case allSell:
			out[i] = domain.SignalSell
		}
	}
	return out
}

// aggregateWeighted sums weighted numeric signals; a sum above 0.5 is BUY and
// below -0.5 is SELL.
func aggregateWeighted(votes [][]domain.SignalType, weights []float64, days int) []domain.SignalType {
	out := make([]domain.SignalType, days)
	for i := 0; i < days; i++ {
		sum := 0.0
		for k, col := range votes {
			sum += weights[k] * float64(col[i])
		}
		switch {
		case sum > 0.5:
			out[i] = domain.SignalBuy
		case sum < -0.5:
			out[i] = domain.SignalSell
		}
	}
	return out
}

// symbolSet returns a canonical representation of a symbol list for equality
// comparison.
func symbolSet(symbols []string) string {
	set := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		set[s] = struct{}{}
	}
	uniq := make([]string, 0, len(set))
	for s := range set {
		uniq = append(uniq, s)
	}
	sort.Strings(uniq)
	return strings.Join(uniq, ",")
}

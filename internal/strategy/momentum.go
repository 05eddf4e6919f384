package strategy

import (
	"context"
	"log/slog"

	"tradesim/internal/domain"
)

// Compile-time interface check.
var _ Strategy = (*Momentum)(nil)

// Momentum generates a buy signal when the trailing return over the lookback
// period exceeds the threshold, and a sell signal when it falls below the
// negative threshold.
type Momentum struct {
	symbols        []string
	lookbackPeriod int
	threshold      float64
	log            *slog.Logger
}

// NewMomentum creates a Momentum strategy for the given symbols.
func NewMomentum(symbols []string, lookbackPeriod int, threshold float64) *Momentum {
	return &Momentum{
		symbols:        symbols,
		lookbackPeriod: lookbackPeriod,
		threshold:      threshold,
		log:            slog.Default().With("strategy", "momentum"),
	}
}

// Name returns "momentum".
func (s *Momentum) Name() string { return "momentum" }

// Symbols returns the traded symbols.
func (s *Momentum) Symbols() []string { return s.symbols }

// GenerateSignals computes momentum signals for the whole horizon. Each
// symbol gets a `{symbol}_signal` column and a `{symbol}_momentum` indicator
// column holding the trailing return.
func (s *Momentum) GenerateSignals(_ context.Context, bars *BarTable) (*SignalTable, error) {
	table := NewSignalTable(bars.Dates)

	var buys, sells int
	for _, sym := range s.symbols {
		momentum := pctChange(bars.CloseSeries(sym), s.lookbackPeriod)

		signals := make([]domain.SignalType, len(bars.Dates))
		for i := range signals {
			if i < s.lookbackPeriod {
				continue
			}
			switch {
			case momentum[i] > s.threshold:
				signals[i] = domain.SignalBuy
				buys++
			case momentum[i] < -s.threshold:
				signals[i] = domain.SignalSell
				sells++
			}
		}

		table.SetColumn(SignalColumn(sym), signalSlice(signals))
		table.SetColumn(IndicatorColumn(sym, "momentum"), momentum)
	}

	s.log.Info("generated signals", "days", bars.Len(), "buy", buys, "sell", sells)
	return table, nil
}

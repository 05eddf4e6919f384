package strategy

import (
	"context"
	"log/slog"

	"tradesim/internal/domain"
)

// Compile-time interface check.
var _ Strategy = (*Breakout)(nil)

// Breakout trades closes beyond rolling support/resistance levels: buy when
// the close breaks above the lookback high by the threshold fraction, sell
// when it breaks below the lookback low by the threshold fraction.
type Breakout struct {
	symbols           []string
	lookbackPeriod    int
	breakoutThreshold float64
	atrPeriods        int
	log               *slog.Logger
}

// NewBreakout creates a Breakout strategy for the given symbols.
func NewBreakout(symbols []string, lookbackPeriod int, breakoutThreshold float64, atrPeriods int) *Breakout {
	return &Breakout{
		symbols:           symbols,
		lookbackPeriod:    lookbackPeriod,
		breakoutThreshold: breakoutThreshold,
		atrPeriods:        atrPeriods,
		log:               slog.Default().With("strategy", "breakout"),
	}
}

// Name returns "breakout".
func (s *Breakout) Name() string { return "breakout" }

// Symbols returns the traded symbols.
func (s *Breakout) Symbols() []string { return s.symbols }

// GenerateSignals computes breakout signals. Each symbol gets
// `{symbol}_signal`, `{symbol}_resistance`, `{symbol}_support`, and
// `{symbol}_atr` columns. Resistance and support are the prior day's rolling
// extreme, so a breakout always compares against levels that exclude the
// current bar.
func (s *Breakout) GenerateSignals(_ context.Context, bars *BarTable) (*SignalTable, error) {
	table := NewSignalTable(bars.Dates)

	var buys, sells int
	for _, sym := range s.symbols {
		highs := bars.HighSeries(sym)
		lows := bars.LowSeries(sym)
		closes := bars.CloseSeries(sym)

		resistance := shift1(rollingMax(highs, s.lookbackPeriod))
		support := shift1(rollingMin(lows, s.lookbackPeriod))
		atr := rollingMean(trueRange(highs, lows, closes), s.atrPeriods)

		signals := make([]domain.SignalType, len(bars.Dates))
		for i := range signals {
			if i < s.lookbackPeriod+1 {
				continue
			}
			resBreak := (closes[i] - resistance[i]) / resistance[i]
			supBreak := (support[i] - closes[i]) / support[i]
			switch {
			case resBreak > s.breakoutThreshold:
				signals[i] = domain.SignalBuy
				buys++
			case supBreak > s.breakoutThreshold:
				signals[i] = domain.SignalSell
				sells++
			}
		}

		table.SetColumn(SignalColumn(sym), signalSlice(signals))
		table.SetColumn(IndicatorColumn(sym, "resistance"), resistance)
		table.SetColumn(IndicatorColumn(sym, "support"), support)
		table.SetColumn(IndicatorColumn(sym, "atr"), atr)
	}

	s.log.Info("generated signals", "days", bars.Len(), "buy", buys, "sell", sells)
	return table, nil
}

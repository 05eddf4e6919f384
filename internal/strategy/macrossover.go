package strategy

import (
	"context"
	"log/slog"

	"tradesim/internal/domain"
)

// Compile-time interface check.
var _ Strategy = (*MACrossover)(nil)

// MACrossover trades crossings of a fast moving average over a slow one, and
// also publishes the derived MACD line, signal line, and histogram as
// indicator columns.
type MACrossover struct {
	symbols      []string
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
	log          *slog.Logger
}

// NewMACrossover creates a MACrossover strategy for the given symbols.
func NewMACrossover(symbols []string, fastPeriod, slowPeriod, signalPeriod int) *MACrossover {
	return &MACrossover{
		symbols:      symbols,
		fastPeriod:   fastPeriod,
		slowPeriod:   slowPeriod,
		signalPeriod: signalPeriod,
		log:          slog.Default().With("strategy", "ma_crossover"),
	}
}

// Name returns "ma_crossover".
func (s *MACrossover) Name() string { return "ma_crossover" }

// Symbols returns the traded symbols.
func (s *MACrossover) Symbols() []string { return s.symbols }

// GenerateSignals computes crossover signals. Each symbol gets
// `{symbol}_signal`, `{symbol}_fast_ma`, `{symbol}_slow_ma`, `{symbol}_macd`,
// `{symbol}_signal_line`, and `{symbol}_histogram` columns.
func (s *MACrossover) GenerateSignals(_ context.Context, bars *BarTable) (*SignalTable, error) {
	table := NewSignalTable(bars.Dates)

	var buys, sells int
	for _, sym := range s.symbols {
		closes := bars.CloseSeries(sym)
		fastMA := rollingMean(closes, s.fastPeriod)
		slowMA := rollingMean(closes, s.slowPeriod)

		macd := make([]float64, len(closes))
		for i := range macd {
			macd[i] = fastMA[i] - slowMA[i]
		}
		signalLine := rollingMean(macd, s.signalPeriod)
		histogram := make([]float64, len(closes))
		for i := range histogram {
			histogram[i] = macd[i] - signalLine[i]
		}

		prevFast := shift1(fastMA)
		prevSlow := shift1(slowMA)

		signals := make([]domain.SignalType, len(bars.Dates))
		for i := range signals {
			if i < s.slowPeriod {
				continue
			}
			switch {
			case fastMA[i] > slowMA[i] && prevFast[i] <= prevSlow[i]:
				signals[i] = domain.SignalBuy
				buys++
			case fastMA[i] < slowMA[i] && prevFast[i] >= prevSlow[i]:
				signals[i] = domain.SignalSell
				sells++
			}
		}

		table.SetColumn(SignalColumn(sym), signalSlice(signals))
		table.SetColumn(IndicatorColumn(sym, "fast_ma"), fastMA)
		table.SetColumn(IndicatorColumn(sym, "slow_ma"), slowMA)
		table.SetColumn(IndicatorColumn(sym, "macd"), macd)
		table.SetColumn(IndicatorColumn(sym, "signal_line"), signalLine)
		table.SetColumn(IndicatorColumn(sym, "histogram"), histogram)
	}

	s.log.Info("generated signals", "days", bars.Len(), "buy", buys, "sell", sells)
	return table, nil
}

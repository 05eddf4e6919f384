package strategy

import (
	"context"
	"log/slog"

	"tradesim/internal/domain"
)

// Compile-time interface check.
var _ Strategy = (*MeanReversion)(nil)

// MeanReversion trades z-score deviations from a rolling moving average: buy
// when the price is far below its mean, sell when it is far above.
type MeanReversion struct {
	symbols         []string
	lookbackPeriod  int
	zScoreThreshold float64
	log             *slog.Logger
}

// NewMeanReversion creates a MeanReversion strategy for the given symbols.
func NewMeanReversion(symbols []string, lookbackPeriod int, zScoreThreshold float64) *MeanReversion {
	return &MeanReversion{
		symbols:         symbols,
		lookbackPeriod:  lookbackPeriod,
		zScoreThreshold: zScoreThreshold,
		log:             slog.Default().With("strategy", "mean_reversion"),
	}
}

// Name returns "mean_reversion".
func (s *MeanReversion) Name() string { return "mean_reversion" }

// Symbols returns the traded symbols.
func (s *MeanReversion) Symbols() []string { return s.symbols }

// GenerateSignals computes mean-reversion signals. Each symbol gets
// `{symbol}_signal`, `{symbol}_z_score`, and `{symbol}_mean` columns.
func (s *MeanReversion) GenerateSignals(_ context.Context, bars *BarTable) (*SignalTable, error) {
	table := NewSignalTable(bars.Dates)

	var buys, sells int
	for _, sym := range s.symbols {
		closes := bars.CloseSeries(sym)
		mean := rollingMean(closes, s.lookbackPeriod)
		std := rollingStd(closes, s.lookbackPeriod)

		zScore := make([]float64, len(closes))
		for i := range zScore {
			zScore[i] = (closes[i] - mean[i]) / std[i]
		}

		signals := make([]domain.SignalType, len(bars.Dates))
		for i := range signals {
			if i < s.lookbackPeriod {
				continue
			}
			switch {
			case zScore[i] < -s.zScoreThreshold:
				signals[i] = domain.SignalBuy
				buys++
			case zScore[i] > s.zScoreThreshold:
				signals[i] = domain.SignalSell
				sells++
			}
		}

		table.SetColumn(SignalColumn(sym), signalSlice(signals))
		table.SetColumn(IndicatorColumn(sym, "z_score"), zScore)
		table.SetColumn(IndicatorColumn(sym, "mean"), mean)
	}

	s.log.Info("generated signals", "days", bars.Len(), "buy", buys, "sell", sells)
	return table, nil
}

// Package risk implements position sizing and portfolio risk controls for the
// simulation engine: notional caps, volatility-aware sizing, stop levels,
// historical-simulation VaR, and correlation-based de-risking.
package risk

import (
	"log/slog"
	"math"
	"sort"

	"tradesim/internal/config"
)

// Sizer computes position sizes and risk levels. It holds only configuration;
// all methods are pure with respect to portfolio state.
type Sizer struct {
	maxPositionSize  float64
	maxPortfolioRisk float64
	stopLossPct      float64
	takeProfitPct    float64

	log *slog.Logger
}

// NewSizer creates a Sizer from the risk configuration block.
func NewSizer(cfg config.Risk) *Sizer {
	return &Sizer{
		maxPositionSize:  cfg.MaxPositionSize,
		maxPortfolioRisk: cfg.MaxPortfolioRisk,
		stopLossPct:      cfg.StopLossPct,
		takeProfitPct:    cfg.TakeProfitPct,
		log:              slog.Default().With("component", "risk"),
	}
}

// SizePosition returns the notional amount to allocate to a new position.
//
// The base size is equity scaled by the maximum position fraction. When
// volatility is known and positive the size is further capped at
// (equity * maxPortfolioRisk) / volatility. A known signal strength scales
// the size by |strength| clamped to [0, 1]. When existing positions already
// use more than 70% of equity the size tapers linearly to zero at full
// utilization.
//
// signalStrength and volatility are optional: pass NaN when unknown.
// currentPositions holds the existing per-symbol allocations; their sum over
// equity is the utilization.
func (s *Sizer) SizePosition(symbol string, price, equity, signalStrength, volatility float64, currentPositions map[string]float64) float64 {
	size := equity * s.maxPositionSize

	if !math.IsNaN(volatility) && volatility > 0 {
		riskBased := (equity * s.maxPortfolioRisk) / volatility
		size = math.Min(size, riskBased)
	}

	if !math.IsNaN(signalStrength) {
		factor := math.Min(math.Max(math.Abs(signalStrength), 0), 1)
		size *= factor
	}

	exposure := 0.0
	for _, v := range currentPositions {
		exposure += v
	}
	utilization := 0.0
	if equity > 0 {
		utilization = exposure / equity
	}
	if utilization > 0.7 {
		size *= math.Max(1-(utilization-0.7)/0.3, 0)
	}

	if size < 0 {
		size = 0
	}
	s.log.Debug("sized position", "symbol", symbol, "price", price, "size", size)
	return size
}

// StopLoss returns the stop price for a position entered at entryPrice.
func (s *Sizer) StopLoss(entryPrice float64, short bool) float64 {
	if short {
		return entryPrice * (1 + s.stopLossPct)
	}
	return entryPrice * (1 - s.stopLossPct)
}

// TakeProfit returns the profit target for a position entered at entryPrice.
func (s *Sizer) TakeProfit(entryPrice float64, short bool) float64 {
	if short {
		return entryPrice * (1 - s.takeProfitPct)
	}
	return entryPrice * (1 + s.takeProfitPct)
}

// PortfolioVaR estimates Value-at-Risk with historical simulation: each held
// symbol's daily return series is weighted by its position size, summed into
// a portfolio return series, and the (1-confidence) percentile of that series
// is negated and scaled by sqrt(horizonDays).
//
// returns maps symbols to date-aligned daily return series (NaN for gaps).
// Days where any held symbol has a NaN return are dropped. Returns 0 when no
// overlapping data exists.
func (s *Sizer) PortfolioVaR(positions map[string]float64, returns map[string][]float64, confidence float64, horizonDays int) float64 {
	symbols := sortedKeys(positions)

	n := 0
	for _, sym := range symbols {
		series, ok := returns[sym]
		if !ok {
			s.log.Warn("no returns data for VaR calculation", "symbol", sym)
			return 0
		}
		if n == 0 || len(series) < n {
			n = len(series)
		}
	}

	var portfolio []float64
	for i := 0; i < n; i++ {
		sum := 0.0
		valid := true
		for _, sym := range symbols {
			r := returns[sym][i]
			if math.IsNaN(r) {
				valid = false
				break
			}
			sum += positions[sym] * r
		}
		if valid {
			portfolio = append(portfolio, sum)
		}
	}

	if len(portfolio) == 0 {
		s.log.Warn("no returns data for VaR calculation")
		return 0
	}

	v := -percentile(portfolio, 100*(1-confidence)) * math.Sqrt(float64(horizonDays))
	s.log.Debug("portfolio VaR", "confidence", confidence, "horizon_days", horizonDays, "var", v)
	return v
}

// DeriskCorrelated shrinks proposed position sizes for highly correlated
// pairs. For every pair with return correlation above 0.7 both sizes are
// scaled by a factor that falls linearly from 1.0 at correlation 0.7 to 0.5
// at correlation 1.0. Pairs are visited in sorted symbol order so the result
// is deterministic. With fewer than two symbols the input is returned
// unchanged.
//
// prices maps symbols to date-aligned price series; correlations are computed
// over daily percent changes, skipping days where either series has a gap.
func (s *Sizer) DeriskCorrelated(sizes map[string]float64, prices map[string][]float64) map[string]float64 {
	symbols := sortedKeys(sizes)
	if len(symbols) < 2 {
		return sizes
	}

	adjusted := make(map[string]float64, len(sizes))
	for sym, v := range sizes {
		adjusted[sym] = v
	}

	for i, sym1 := range symbols {
		for _, sym2 := range symbols[i+1:] {
			corr := returnCorrelation(prices[sym1], prices[sym2])
			if math.IsNaN(corr) || corr <= 0.7 {
				continue
			}
			factor := 1 - ((corr-0.7)/0.3)*0.5
			adjusted[sym1] *= factor
			adjusted[sym2] *= factor
			s.log.Debug("reduced correlated pair",
				"symbols", sym1+"/"+sym2, "correlation", corr, "factor", factor)
		}
	}
	return adjusted
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

// percentile computes the p-th percentile (0..100) with linear interpolation
// between closest ranks.
func percentile(vals []float64, p float64) float64 {
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// returnCorrelation is the Pearson correlation of the daily percent changes
// of two price series, over days where both changes are defined.
func returnCorrelation(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var ra, rb []float64
	for i := 1; i < n; i++ {
		ca := a[i]/a[i-1] - 1
		cb := b[i]/b[i-1] - 1
		if math.IsNaN(ca) || math.IsNaN(cb) {
			continue
		}
		ra = append(ra, ca)
		rb = append(rb, cb)
	}
	if len(ra) < 2 {
		return math.NaN()
	}

	ma, mb := mean(ra), mean(rb)
	var cov, va, vb float64
	for i := range ra {
		da, db := ra[i]-ma, rb[i]-mb
		cov += da * db
		va += da * da
		vb += db * db
	}
	if va == 0 || vb == 0 {
		return math.NaN()
	}
	return cov / math.Sqrt(va*vb)
}

func mean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

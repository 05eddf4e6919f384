package backtest

import (
	"math"

	"tradesim/internal/domain"
)

const tradingDaysPerYear = 252

// Metrics summarizes a completed run.
type Metrics struct {
	InitialValue float64 `json:"initial_value"`
	FinalValue   float64 `json:"final_value"`
	TotalReturn  float64 `json:"total_return"`
	AnnualReturn float64 `json:"annual_return"`
	Volatility   float64 `json:"volatility"`
	SharpeRatio  float64 `json:"sharpe_ratio"`
	MaxDrawdown  float64 `json:"max_drawdown"`
	WinRate      float64 `json:"win_rate"`
	NumTrades    int     `json:"num_trades"`
}

// computeMetrics derives performance statistics from the equity curve and the
// trade log.
func computeMetrics(daily []domain.DailyResult, trades []domain.Trade, initialCapital float64) Metrics {
	m := Metrics{
		InitialValue: initialCapital,
		NumTrades:    len(trades),
	}
	if len(daily) == 0 {
		m.FinalValue = initialCapital
		return m
	}

	m.FinalValue = daily[len(daily)-1].PortfolioValue
	m.TotalReturn = m.FinalValue/initialCapital - 1

	days := float64(len(daily))
	m.AnnualReturn = math.Pow(1+m.TotalReturn, tradingDaysPerYear/days) - 1

	returns := dailyReturns(daily)
	m.Volatility = sampleStd(returns) * math.Sqrt(tradingDaysPerYear)
	if m.Volatility > 0 {
		m.SharpeRatio = m.AnnualReturn / m.Volatility
	}

	m.MaxDrawdown = maxDrawdown(returns)
	m.WinRate = winRate(trades)
	return m
}

// dailyReturns is the day-over-day percent change of portfolio value. The
// first day has no prior value and produces no entry.
func dailyReturns(daily []domain.DailyResult) []float64 {
	out := make([]float64, 0, len(daily)-1)
	for i := 1; i < len(daily); i++ {
		out = append(out, daily[i].PortfolioValue/daily[i-1].PortfolioValue-1)
	}
	return out
}

// sampleStd is the sample standard deviation (ddof=1), 0 for fewer than two
// values.
func sampleStd(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	m := 0.0
	for _, v := range vals {
		m += v
	}
	m /= float64(len(vals))

	ss := 0.0
	for _, v := range vals {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vals)-1))
}

// maxDrawdown is the deepest peak-to-trough decline of the cumulative return
// series, as a non-positive fraction.
func maxDrawdown(returns []float64) float64 {
	cum := 1.0
	runningMax := 1.0
	worst := 0.0
	for _, r := range returns {
		cum *= 1 + r
		if cum > runningMax {
			runningMax = cum
		}
		if dd := cum/runningMax - 1; dd < worst {
			worst = dd
		}
	}
	return worst
}

// winRate counts a symbol as a win when its aggregate average sell price
// beats its aggregate average buy price. Only symbols with at least one sell
// participate. This is an approximation over per-symbol averages, not per-lot
// round-trip matching.
func winRate(trades []domain.Trade) float64 {
	type tally struct {
		buyQty, buyValue   float64
		sellQty, sellValue float64
	}
	bySymbol := make(map[string]*tally)
	for _, t := range trades {
		s := bySymbol[t.Symbol]
		if s == nil {
			s = &tally{}
			bySymbol[t.Symbol] = s
		}
		switch t.Action {
		case domain.OrderSideBuy:
			s.buyQty += t.Quantity
			s.buyValue += t.Quantity * t.Price
		case domain.OrderSideSell:
			s.sellQty += t.Quantity
			s.sellValue += t.Quantity * t.Price
		}
	}

	wins, losses := 0, 0
	for _, s := range bySymbol {
		if s.sellQty <= 0 {
			continue
		}
		avgBuy := 0.0
		if s.buyQty > 0 {
			avgBuy = s.buyValue / s.buyQty
		}
		avgSell := s.sellValue / s.sellQty
		if avgSell > avgBuy {
			wins++
		} else {
			losses++
		}
	}

	if wins+losses == 0 {
		return 0
	}
	return float64(wins) / float64(wins+losses)
}

// Package backtest simulates trading strategies over historical daily bars:
// it turns signals into orders, fills them against close prices with slippage
// and commission, tracks the resulting portfolio day by day, and summarizes
// the run with performance metrics.
package backtest

import (
	"log/slog"
	"sort"
	"time"

	"tradesim/internal/domain"
)

// Ledger is the single mutable portfolio state of a run: cash, open long
// positions, marked equity, and the append-only trade log. It is owned by the
// engine loop and mutated only by the executor and MarkToMarket.
type Ledger struct {
	cash      float64
	positions map[string]float64 // symbol -> share quantity, long only
	equity    float64
	trades    []domain.Trade

	log *slog.Logger
}

// NewLedger creates a ledger holding only cash.
func NewLedger(initialCapital float64) *Ledger {
	return &Ledger{
		cash:      initialCapital,
		positions: make(map[string]float64),
		equity:    initialCapital,
		log:       slog.Default().With("component", "ledger"),
	}
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() float64 { return l.cash }

// Equity returns the portfolio value as of the last mark-to-market.
func (l *Ledger) Equity() float64 { return l.equity }

// Position returns the held quantity for a symbol, 0 when flat.
func (l *Ledger) Position(symbol string) float64 { return l.positions[symbol] }

// Positions returns a copy of the position map.
func (l *Ledger) Positions() map[string]float64 {
	out := make(map[string]float64, len(l.positions))
	for sym, qty := range l.positions {
		out[sym] = qty
	}
	return out
}

// Trades returns the trade log in execution order.
func (l *Ledger) Trades() []domain.Trade { return l.trades }

// MarkToMarket revalues every held position at the day's close price and
// returns the daily result row. A held symbol with no price for the day is
// logged and contributes nothing to that day's valuation.
func (l *Ledger) MarkToMarket(date time.Time, closes func(symbol string) (float64, bool)) domain.DailyResult {
	row := domain.DailyResult{
		Date:      date,
		Positions: make(map[string]float64),
		Values:    make(map[string]float64),
	}

	symbols := make([]string, 0, len(l.positions))
	for sym := range l.positions {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	positionsValue := 0.0
	for _, sym := range symbols {
		price, ok := closes(sym)
		if !ok {
			l.log.Warn("no price for held symbol", "symbol", sym, "date", date.Format("2006-01-02"))
			continue
		}
		value := price * l.positions[sym]
		positionsValue += value
		row.Positions[sym] = l.positions[sym]
		row.Values[sym] = value
	}

	l.equity = l.cash + positionsValue

	row.PortfolioValue = l.equity
	row.Cash = l.cash
	row.PositionsValue = positionsValue
	return row
}

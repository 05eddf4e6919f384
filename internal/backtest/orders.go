package backtest

import (
	"math"
	"time"

	"tradesim/internal/domain"
	"tradesim/internal/risk"
	"tradesim/internal/strategy"
)

// generateOrders turns one day's signal row into market orders. For each
// symbol, in the configured symbol order:
//
//   - BUY while flat asks the sizer for a notional amount, using the momentum
//     indicator as signal strength when the strategy publishes one, and emits
//     a buy for amount/price shares when the amount is positive.
//   - SELL while long liquidates the entire position.
//   - Anything else emits nothing.
//
// At most one order per symbol per day.
func generateOrders(symbols []string, signals *strategy.SignalTable, day int, closes func(symbol string) (float64, bool), ledger *Ledger, sizer *risk.Sizer) []*domain.Order {
	var orders []*domain.Order

	for _, sym := range symbols {
		signal := signals.Signal(sym, day)
		held := ledger.Position(sym)

		switch {
		case signal == domain.SignalBuy && held <= 0:
			price, ok := closes(sym)
			if !ok || price <= 0 {
				continue
			}
			strength := signals.Indicator(sym, "momentum", day)
			amount := sizer.SizePosition(sym, price, ledger.Equity(), strength, math.NaN(), ledger.Positions())
			if amount > 0 {
				orders = append(orders, domain.NewMarketOrder(sym, domain.OrderSideBuy, amount/price))
			}

		case signal == domain.SignalSell && held > 0:
			orders = append(orders, domain.NewMarketOrder(sym, domain.OrderSideSell, held))
		}
	}
	return orders
}

// stamp sets submission metadata on freshly generated orders. Timestamps are
// recording only and never feed back into any accounting decision.
func stamp(orders []*domain.Order, date time.Time) {
	for _, o := range orders {
		o.SubmittedAt = date
	}
}

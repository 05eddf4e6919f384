package backtest

import (
	"log/slog"
	"time"

	"tradesim/internal/domain"
)

// Executor fills orders against the day's close price, applying slippage and
// commission and enforcing the cash and share constraints. All mutation goes
// through the ledger it was built with.
type Executor struct {
	ledger         *Ledger
	commissionRate float64
	slippage       float64

	log *slog.Logger
}

// NewExecutor creates an executor writing fills into ledger.
func NewExecutor(ledger *Ledger, commissionRate, slippage float64) *Executor {
	return &Executor{
		ledger:         ledger,
		commissionRate: commissionRate,
		slippage:       slippage,
		log:            slog.Default().With("component", "executor"),
	}
}

// Execute fills a market order at the given close price. Slippage moves the
// price against the order's side. A buy that cannot be fully financed is
// shrunk to what the cash covers; the commission stays as computed from the
// requested quantity. A buy whose shrunk quantity is not positive is rejected
// without a trade. A sell is clipped to the held quantity, and the position
// entry is removed when it reaches zero.
func (e *Executor) Execute(order *domain.Order, price float64, date time.Time) {
	quantity := order.Qty

	executionPrice := price * (1 + e.slippage)
	if order.Side == domain.OrderSideSell {
		executionPrice = price * (1 - e.slippage)
	}

	commission := executionPrice * quantity * e.commissionRate
	tradeValue := executionPrice * quantity

	switch order.Side {
	case domain.OrderSideBuy:
		totalCost := tradeValue + commission
		if totalCost > e.ledger.cash {
			quantity = (e.ledger.cash - commission) / executionPrice
			tradeValue = executionPrice * quantity
			totalCost = tradeValue + commission

			if quantity <= 0 {
				e.log.Warn("not enough cash to execute buy order", "symbol", order.Symbol, "date", date.Format("2006-01-02"))
				order.Status = domain.OrderStatusRejected
				return
			}
		}

		e.ledger.cash -= totalCost
		e.ledger.positions[order.Symbol] += quantity

	case domain.OrderSideSell:
		held := e.ledger.positions[order.Symbol]
		if quantity > held {
			quantity = held
			tradeValue = executionPrice * quantity
		}

		e.ledger.cash += tradeValue - commission
		e.ledger.positions[order.Symbol] = held - quantity
		if e.ledger.positions[order.Symbol] <= 0 {
			delete(e.ledger.positions, order.Symbol)
		}
	}

	order.Status = domain.OrderStatusFilled
	order.FilledQty = quantity
	order.FilledAvgPrice = executionPrice
	order.FilledAt = date
	order.Commission = commission

	e.ledger.trades = append(e.ledger.trades, domain.Trade{
		Date:       date,
		Symbol:     order.Symbol,
		Action:     order.Side,
		Quantity:   quantity,
		Price:      executionPrice,
		Commission: commission,
		Value:      tradeValue,
	})

	e.log.Debug("executed order",
		"symbol", order.Symbol, "side", string(order.Side),
		"quantity", quantity, "price", executionPrice)
}

package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrderSide is the direction of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderType determines how an order is priced.
type OrderType string

const (
	OrderTypeMarket    OrderType = "market"
	OrderTypeLimit     OrderType = "limit"
	OrderTypeStop      OrderType = "stop"
	OrderTypeStopLimit OrderType = "stop_limit"
)

// OrderStatus is the lifecycle state of an order. FILLED, CANCELED, and
// REJECTED are terminal.
type OrderStatus string

const (
	OrderStatusNew             OrderStatus = "new"
	OrderStatusPending         OrderStatus = "pending"
	OrderStatusPartiallyFilled OrderStatus = "partially_filled"
	OrderStatusFilled          OrderStatus = "filled"
	OrderStatusCancelled       OrderStatus = "canceled"
	OrderStatusRejected        OrderStatus = "rejected"
)

// Order is a request to trade a quantity of one symbol. Orders are created by
// the order generator and mutated only by the execution path.
type Order struct {
	ID          string
	Symbol      string
	Side        OrderSide
	Qty         float64
	Type        OrderType
	LimitPrice  float64 // only for limit / stop-limit orders
	StopPrice   float64 // only for stop / stop-limit orders
	TimeInForce string
	Status      OrderStatus

	SubmittedAt    time.Time
	FilledAt       time.Time
	FilledQty      float64
	FilledAvgPrice float64
	Commission     float64
}

// NewMarketOrder creates a day market order with a fresh ID.
func NewMarketOrder(symbol string, side OrderSide, qty float64) *Order {
	return &Order{
		ID:          uuid.NewString(),
		Symbol:      symbol,
		Side:        side,
		Qty:         qty,
		Type:        OrderTypeMarket,
		TimeInForce: "day",
		Status:      OrderStatusNew,
	}
}

// NewLimitOrder creates a day limit order with a fresh ID.
func NewLimitOrder(symbol string, side OrderSide, qty, limitPrice float64) *Order {
	o := NewMarketOrder(symbol, side, qty)
	o.Type = OrderTypeLimit
	o.LimitPrice = limitPrice
	return o
}

// NewStopOrder creates a day stop order with a fresh ID.
func NewStopOrder(symbol string, side OrderSide, qty, stopPrice float64) *Order {
	o := NewMarketOrder(symbol, side, qty)
	o.Type = OrderTypeStop
	o.StopPrice = stopPrice
	return o
}

// NewStopLimitOrder creates a day stop-limit order with a fresh ID.
func NewStopLimitOrder(symbol string, side OrderSide, qty, stopPrice, limitPrice float64) *Order {
	o := NewMarketOrder(symbol, side, qty)
	o.Type = OrderTypeStopLimit
	o.StopPrice = stopPrice
	o.LimitPrice = limitPrice
	return o
}

// Terminal reports whether the order has reached a final state.
func (o *Order) Terminal() bool {
	switch o.Status {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusRejected:
		return true
	}
	return false
}

// String returns a short human-readable description of the order.
func (o *Order) String() string {
	s := fmt.Sprintf("%s %.4f %s @ %s", strings.ToUpper(string(o.Side)), o.Qty, o.Symbol, strings.ToUpper(string(o.Type)))
	if o.LimitPrice > 0 {
		s += fmt.Sprintf(" %.2f", o.LimitPrice)
	}
	if o.StopPrice > 0 {
		s += fmt.Sprintf(" (stop: %.2f)", o.StopPrice)
	}
	return s
}

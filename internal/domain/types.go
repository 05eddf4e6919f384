// Package domain defines the core data types shared across the simulation
// engine: bars, signals, orders, trades, and daily portfolio results.
package domain

import (
	"strings"
	"time"
)

// Bar is a single OHLCV bar for one symbol. Bars are immutable once loaded.
type Bar struct {
	Symbol     string
	Timestamp  time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     int64
	TradeCount int64
	VWAP       float64
}

// SignalType is a per-symbol, per-day directional instruction.
type SignalType int

const (
	SignalSell SignalType = -1
	SignalHold SignalType = 0
	SignalBuy  SignalType = 1
)

// String returns the readable form of the signal.
func (s SignalType) String() string {
	switch s {
	case SignalBuy:
		return "BUY"
	case SignalSell:
		return "SELL"
	default:
		return "HOLD"
	}
}

// SignalFromString parses a signal name. Unrecognised values map to HOLD.
func SignalFromString(s string) SignalType {
	switch strings.ToUpper(s) {
	case "BUY":
		return SignalBuy
	case "SELL":
		return SignalSell
	default:
		return SignalHold
	}
}

// Trade is an immutable record of a completed fill. Trades are appended to
// the ledger's trade log and never mutated or removed.
type Trade struct {
	Date       time.Time
	Symbol     string
	Action     OrderSide
	Quantity   float64
	Price      float64 // execution price after slippage
	Commission float64
	Value      float64 // Price * Quantity actually executed
}

// DailyResult is one row of the equity curve: the portfolio valuation for a
// single simulated day, with per-symbol position quantity and value columns.
type DailyResult struct {
	Date           time.Time
	PortfolioValue float64
	Cash           float64
	PositionsValue float64
	Positions      map[string]float64 // symbol -> quantity held at close
	Values         map[string]float64 // symbol -> marked value at close
}

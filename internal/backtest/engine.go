package backtest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tradesim/internal/config"
	"tradesim/internal/domain"
	"tradesim/internal/risk"
	"tradesim/internal/strategy"
)

// ErrNoData is returned by Run when the bar source yields no bars for the
// requested horizon. The engine does not simulate without data.
var ErrNoData = errors.New("no bar data available")

// BarSource supplies historical bars for a set of symbols over a horizon.
// Zero start/end times mean an open-ended range.
type BarSource interface {
	GetBars(ctx context.Context, symbols []string, timeframe string, start, end time.Time) ([]domain.Bar, error)
}

// Engine owns the day-by-day simulation loop: it fetches bars once, asks the
// strategy for the full signal table, and then replays the horizon in
// chronological order, generating and filling orders before marking the
// ledger to market each day.
//
// Given identical bars, signals, and configuration, a run is deterministic:
// symbols are visited in the configured list order and no accounting decision
// depends on wall-clock time.
type Engine struct {
	source   BarSource
	strategy strategy.Strategy
	sizer    *risk.Sizer

	initialCapital float64
	start, end     time.Time
	commissionRate float64
	slippage       float64

	log *slog.Logger
}

// Result is the outcome of a completed run.
type Result struct {
	Daily         []domain.DailyResult
	Metrics       Metrics
	Trades        []domain.Trade
	FinalValue    float64
	ExecutionTime time.Duration
}

// NewEngine validates the wiring and creates an engine. Construction fails
// fast on missing collaborators or malformed dates; no simulation work starts
// until Run.
func NewEngine(source BarSource, strat strategy.Strategy, sizer *risk.Sizer, cfg config.Backtest) (*Engine, error) {
	if source == nil {
		return nil, fmt.Errorf("backtest: nil bar source")
	}
	if strat == nil {
		return nil, fmt.Errorf("backtest: nil strategy")
	}
	if sizer == nil {
		return nil, fmt.Errorf("backtest: nil sizer")
	}
	if cfg.InitialCapital <= 0 {
		return nil, fmt.Errorf("backtest: initial capital must be positive, got %v", cfg.InitialCapital)
	}

	start, err := parseDate(cfg.StartDate)
	if err != nil {
		return nil, fmt.Errorf("backtest: start date: %w", err)
	}
	end, err := parseDate(cfg.EndDate)
	if err != nil {
		return nil, fmt.Errorf("backtest: end date: %w", err)
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return nil, fmt.Errorf("backtest: end date %s before start date %s", cfg.EndDate, cfg.StartDate)
	}

	return &Engine{
		source:         source,
		strategy:       strat,
		sizer:          sizer,
		initialCapital: cfg.InitialCapital,
		start:          start,
		end:            end,
		commissionRate: cfg.CommissionRate,
		slippage:       cfg.Slippage,
		log:            slog.Default().With("component", "backtest"),
	}, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}

// Run executes the backtest over the configured horizon and returns the full
// result. It returns ErrNoData when the bar fetch comes back empty. Order and
// valuation anomalies inside the loop are absorbed with warnings so that a
// run over a valid horizon always completes.
func (e *Engine) Run(ctx context.Context, timeframe string) (*Result, error) {
	e.log.Info("starting backtest",
		"start", e.start.Format("2006-01-02"), "end", e.end.Format("2006-01-02"),
		"strategy", e.strategy.Name(), "capital", e.initialCapital)
	began := time.Now()

	bars, err := e.source.GetBars(ctx, e.strategy.Symbols(), timeframe, e.start, e.end)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w for %v", ErrNoData, e.strategy.Symbols())
	}

	table := strategy.NewBarTable(bars)
	signals, err := e.strategy.GenerateSignals(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("generate signals: %w", err)
	}

	ledger := NewLedger(e.initialCapital)
	executor := NewExecutor(ledger, e.commissionRate, e.slippage)

	e.log.Info("simulating trading", "days", table.Len())

	daily := make([]domain.DailyResult, 0, table.Len())
	for i, date := range table.Dates {
		closes := func(symbol string) (float64, bool) {
			return table.Close(symbol, i)
		}

		// The first day only establishes the opening valuation: there is
		// no prior bar to act on.
		if i > 0 {
			orders := generateOrders(e.strategy.Symbols(), signals, i, closes, ledger, e.sizer)
			stamp(orders, date)
			for _, order := range orders {
				price, ok := closes(order.Symbol)
				if !ok {
					e.log.Warn("no price to fill order", "symbol", order.Symbol, "date", date.Format("2006-01-02"))
					order.Status = domain.OrderStatusRejected
					continue
				}
				executor.Execute(order, price, date)
			}
		}

		daily = append(daily, ledger.MarkToMarket(date, closes))
	}

	metrics := computeMetrics(daily, ledger.Trades(), e.initialCapital)
	elapsed := time.Since(began)

	e.log.Info("backtest completed",
		"elapsed", elapsed.String(),
		"final_value", metrics.FinalValue,
		"trades", metrics.NumTrades)

	return &Result{
		Daily:         daily,
		Metrics:       metrics,
		Trades:        ledger.Trades(),
		FinalValue:    metrics.FinalValue,
		ExecutionTime: elapsed,
	}, nil
}

package strategy

import (
	"fmt"
	"math"
	"sort"
	"time"

	"tradesim/internal/domain"
)

// BarTable is a (date, symbol)-indexed view over a flat bar slice. Dates are
// unique and chronologically sorted; lookups by (symbol, date index) are O(1).
type BarTable struct {
	Dates   []time.Time
	Symbols []string

	index map[string]map[int]domain.Bar // symbol -> date index -> bar
}

// NewBarTable builds a BarTable from a flat slice of bars. The date axis is
// the sorted union of all bar timestamps.
func NewBarTable(bars []domain.Bar) *BarTable {
	dateSet := make(map[int64]time.Time)
	symbolSet := make(map[string]struct{})
	for _, b := range bars {
		dateSet[b.Timestamp.UnixNano()] = b.Timestamp
		symbolSet[b.Symbol] = struct{}{}
	}

	dates := make([]time.Time, 0, len(dateSet))
	for _, d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	dateIdx := make(map[int64]int, len(dates))
	for i, d := range dates {
		dateIdx[d.UnixNano()] = i
	}

	symbols := make([]string, 0, len(symbolSet))
	for s := range symbolSet {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	index := make(map[string]map[int]domain.Bar, len(symbols))
	for _, b := range bars {
		m := index[b.Symbol]
		if m == nil {
			m = make(map[int]domain.Bar)
			index[b.Symbol] = m
		}
		m[dateIdx[b.Timestamp.UnixNano()]] = b
	}

	return &BarTable{Dates: dates, Symbols: symbols, index: index}
}

// Len returns the number of distinct dates.
func (t *BarTable) Len() int { return len(t.Dates) }

// Empty reports whether the table holds no data.
func (t *BarTable) Empty() bool { return len(t.Dates) == 0 }

// Bar returns the bar for symbol at date index i.
func (t *BarTable) Bar(symbol string, i int) (domain.Bar, bool) {
	m, ok := t.index[symbol]
	if !ok {
		return domain.Bar{}, false
	}
	b, ok := m[i]
	return b, ok
}

// Close returns the close price for symbol at date index i.
func (t *BarTable) Close(symbol string, i int) (float64, bool) {
	b, ok := t.Bar(symbol, i)
	if !ok {
		return 0, false
	}
	return b.Close, true
}

// CloseSeries returns the close series for a symbol aligned to the date axis,
// with NaN at dates where the symbol has no bar.
func (t *BarTable) CloseSeries(symbol string) []float64 {
	return t.series(symbol, func(b domain.Bar) float64 { return b.Close })
}

// HighSeries returns the date-aligned high series for a symbol.
func (t *BarTable) HighSeries(symbol string) []float64 {
	return t.series(symbol, func(b domain.Bar) float64 { return b.High })
}

// LowSeries returns the date-aligned low series for a symbol.
func (t *BarTable) LowSeries(symbol string) []float64 {
	return t.series(symbol, func(b domain.Bar) float64 { return b.Low })
}

func (t *BarTable) series(symbol string, get func(domain.Bar) float64) []float64 {
	out := make([]float64, len(t.Dates))
	m := t.index[symbol]
	for i := range out {
		if b, ok := m[i]; ok {
			out[i] = get(b)
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// SignalTable
// ---------------------------------------------------------------------------

// SignalColumn returns the canonical signal column name for a symbol.
func SignalColumn(symbol string) string { return symbol + "_signal" }

// IndicatorColumn returns the canonical indicator column name for a symbol.
func IndicatorColumn(symbol, indicator string) string {
	return fmt.Sprintf("%s_%s", symbol, indicator)
}

// SignalTable holds one row per date: a `{symbol}_signal` column per traded
// symbol plus arbitrary indicator columns. It is produced once for the whole
// horizon before simulation starts and read-only afterwards.
type SignalTable struct {
	Dates []time.Time
	cols  map[string][]float64
}

// NewSignalTable creates an empty table over the given date axis.
func NewSignalTable(dates []time.Time) *SignalTable {
	return &SignalTable{
		Dates: dates,
		cols:  make(map[string][]float64),
	}
}

// SetColumn stores a full column. The slice length must match the date axis.
func (t *SignalTable) SetColumn(name string, values []float64) {
	if len(values) != len(t.Dates) {
		panic(fmt.Sprintf("column %s has %d values for %d dates", name, len(values), len(t.Dates)))
	}
	t.cols[name] = values
}

// Column returns a stored column by name.
func (t *SignalTable) Column(name string) ([]float64, bool) {
	c, ok := t.cols[name]
	return c, ok
}

// Columns returns all column names, sorted.
func (t *SignalTable) Columns() []string {
	names := make([]string, 0, len(t.cols))
	for n := range t.cols {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Signal returns the signal for symbol at date index i. Missing columns and
// NaN cells read as HOLD.
func (t *SignalTable) Signal(symbol string, i int) domain.SignalType {
	col, ok := t.cols[SignalColumn(symbol)]
	if !ok || i < 0 || i >= len(col) {
		return domain.SignalHold
	}
	v := col[i]
	switch {
	case v > 0:
		return domain.SignalBuy
	case v < 0:
		return domain.SignalSell
	default: // 0 or NaN
		return domain.SignalHold
	}
}

// Indicator returns the indicator value for symbol at date index i, or NaN
// when the column is absent.
func (t *SignalTable) Indicator(symbol, indicator string, i int) float64 {
	col, ok := t.cols[IndicatorColumn(symbol, indicator)]
	if !ok || i < 0 || i >= len(col) {
		return math.NaN()
	}
	return col[i]
}

// signalSlice converts a SignalType slice into a float column.
func signalSlice(signals []domain.SignalType) []float64 {
	out := make([]float64, len(signals))
	for i, s := range signals {
		out[i] = float64(s)
	}
	return out
}

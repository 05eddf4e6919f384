package strategy

import (
	"context"
	"strings"
	"testing"

	"tradesim/internal/domain"
)

// stub is a scripted strategy used to drive the aggregation policies.
type stub struct {
	name    string
	symbols []string
	signals map[string][]domain.SignalType
}

func (s *stub) Name() string      { return s.name }
func (s *stub) Symbols() []string { return s.symbols }

func (s *stub) GenerateSignals(_ context.Context, bars *BarTable) (*SignalTable, error) {
	table := NewSignalTable(bars.Dates)
	for sym, sigs := range s.signals {
		table.SetColumn(SignalColumn(sym), signalSlice(sigs))
		ind := make([]float64, len(bars.Dates))
		for i := range ind {
			ind[i] = float64(i)
		}
		table.SetColumn(IndicatorColumn(sym, "score"), ind)
	}
	return table, nil
}

func scripted(name string, signals ...domain.SignalType) *stub {
	return &stub{
		name:    name,
		symbols: []string{"AAPL"},
		signals: map[string][]domain.SignalType{"AAPL": signals},
	}
}

const (
	b  = domain.SignalBuy
	h  = domain.SignalHold
	sl = domain.SignalSell
)

func combinedSignals(t *testing.T, c *Combined, days int) []domain.SignalType {
	t.Helper()
	closes := make([]float64, days)
	for i := range closes {
		closes[i] = 100
	}
	table, err := c.GenerateSignals(context.Background(), NewBarTable(testBars("AAPL", closes...)))
	if err != nil {
		t.Fatalf("GenerateSignals: %v", err)
	}
	out := make([]domain.SignalType, days)
	for i := range out {
		out[i] = table.Signal("AAPL", i)
	}
	return out
}

func TestCombinedRejectsMismatchedSymbols(t *testing.T) {
	other := &stub{name: "s2", symbols: []string{"MSFT"}, signals: map[string][]domain.SignalType{}}
	_, err := NewCombined([]string{"AAPL"}, []Strategy{scripted("s1"), other}, AggregationMajority, nil)
	if err == nil || !strings.Contains(err.Error(), "symbols") {
		t.Errorf("NewCombined error = %v, want symbol mismatch", err)
	}
}

func TestCombinedRejectsWeightCountMismatch(t *testing.T) {
	subs := []Strategy{scripted("s1"), scripted("s2")}
	_, err := NewCombined([]string{"AAPL"}, subs, AggregationWeighted, []float64{1})
	if err == nil || !strings.Contains(err.Error(), "weights") {
		t.Errorf("NewCombined error = %v, want weight count mismatch", err)
	}
}

func TestCombinedMajority(t *testing.T) {
	subs := []Strategy{
		scripted("s1", b, sl, b, h),
		scripted("s2", b, sl, sl, h),
		scripted("s3", sl, h, h, b),
	}
	c, err := NewCombined([]string{"AAPL"}, subs, AggregationMajority, nil)
	if err != nil {
		t.Fatalf("NewCombined: %v", err)
	}

	got := combinedSignals(t, c, 4)
	// Day 2 is a three-way tie: the sell vote wins over the buy vote.
	want := []domain.SignalType{b, sl, sl, h}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("day %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestCombinedUnanimous(t *testing.T) {
	subs := []Strategy{
		scripted("s1", b, b, sl),
		scripted("s2", b, h, sl),
	}
	c, err := NewCombined([]string{"AAPL"}, subs, AggregationUnanimous, nil)
	if err != nil {
		t.Fatalf("NewCombined: %v", err)
	}

	got := combinedSignals(t, c, 3)
	want := []domain.SignalType{b, h, sl}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("day %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestCombinedWeighted(t *testing.T) {
	subs := []Strategy{
		scripted("s1", b, b, sl),
		scripted("s2", b, b, sl),
		scripted("s3", sl, h, sl),
	}
	// Normalized weights: 0.5, 0.25, 0.25.
	c, err := NewCombined([]string{"AAPL"}, subs, AggregationWeighted, []float64{2, 1, 1})
	if err != nil {
		t.Fatalf("NewCombined: %v", err)
	}

	got := combinedSignals(t, c, 3)
	// Day 0 sums to exactly 0.5, which does not clear the buy threshold.
	want := []domain.SignalType{h, b, sl}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("day %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestCombinedUnknownMethodUsesMajority(t *testing.T) {
	subs := []Strategy{
		scripted("s1", b, sl),
		scripted("s2", b, sl),
		scripted("s3", h, b),
	}
	c, err := NewCombined([]string{"AAPL"}, subs, Aggregation("consensus"), nil)
	if err != nil {
		t.Fatalf("NewCombined: %v", err)
	}

	got := combinedSignals(t, c, 2)
	want := []domain.SignalType{b, sl}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("day %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestCombinedCopiesSubIndicators(t *testing.T) {
	subs := []Strategy{scripted("s1", h, h)}
	c, err := NewCombined([]string{"AAPL"}, subs, AggregationMajority, nil)
	if err != nil {
		t.Fatalf("NewCombined: %v", err)
	}

	closes := []float64{100, 100}
	table, err := c.GenerateSignals(context.Background(), NewBarTable(testBars("AAPL", closes...)))
	if err != nil {
		t.Fatalf("GenerateSignals: %v", err)
	}

	col, ok := table.Column("AAPL_s1_score")
	if !ok {
		t.Fatalf("missing AAPL_s1_score column, have %v", table.Columns())
	}
	if col[1] != 1 {
		t.Errorf("AAPL_s1_score[1] = %v, want 1", col[1])
	}
	if _, ok := table.Column("AAPL_s1_signal"); ok {
		t.Error("sub-strategy signal column should not be copied")
	}
}

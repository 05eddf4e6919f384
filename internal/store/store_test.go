package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"tradesim/internal/domain"
)

func barAt(symbol string, ts time.Time, close float64) domain.Bar {
	return domain.Bar{
		Symbol:    symbol,
		Timestamp: ts,
		Open:      close - 1,
		High:      close + 1,
		Low:       close - 2,
		Close:     close,
		Volume:    1000,
	}
}

func TestParquetStorePath(t *testing.T) {
	ps := NewParquetStore("/data")

	got := ps.barPath("aapl", 2024)
	want := filepath.Join("/data", "daily", "AAPL", "2024.parquet")
	if got != want {
		t.Errorf("barPath mismatch:\n  got  %s\n  want %s", got, want)
	}
}

func TestParquetStoreWriteReadBars(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()

	d1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	if err := ps.WriteBars(ctx, []domain.Bar{barAt("AAPL", d1, 100), barAt("AAPL", d2, 101)}); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}

	bars, err := ps.ReadBars(ctx, "AAPL", d1, d2)
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("ReadBars returned %d bars, want 2", len(bars))
	}
	if bars[0].Close != 100 || bars[1].Close != 101 {
		t.Errorf("closes = %v, %v, want 100, 101", bars[0].Close, bars[1].Close)
	}

	// A narrower range filters.
	bars, err = ps.ReadBars(ctx, "AAPL", d2, d2)
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if len(bars) != 1 || bars[0].Close != 101 {
		t.Errorf("filtered read = %v, want one bar at 101", bars)
	}
}

func TestParquetStoreMergeDedup(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()

	d1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	if err := ps.WriteBars(ctx, []domain.Bar{barAt("AAPL", d1, 100)}); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}
	// Rewriting the same day replaces the record instead of duplicating it.
	if err := ps.WriteBars(ctx, []domain.Bar{barAt("AAPL", d1, 105)}); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}

	bars, err := ps.ReadBars(ctx, "AAPL", d1, d1)
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if len(bars) != 1 {
		t.Fatalf("ReadBars returned %d bars, want 1 after dedup", len(bars))
	}
	if bars[0].Close != 105 {
		t.Errorf("close = %v, want the incoming 105", bars[0].Close)
	}
}

func TestParquetStoreListSymbols(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()

	d1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	err := ps.WriteBars(ctx, []domain.Bar{barAt("MSFT", d1, 50), barAt("AAPL", d1, 100)})
	if err != nil {
		t.Fatalf("WriteBars: %v", err)
	}

	symbols, err := ps.ListSymbols(ctx)
	if err != nil {
		t.Fatalf("ListSymbols: %v", err)
	}
	if len(symbols) != 2 || symbols[0] != "AAPL" || symbols[1] != "MSFT" {
		t.Errorf("ListSymbols = %v, want [AAPL MSFT]", symbols)
	}

	// Empty store lists nothing.
	empty := NewParquetStore(t.TempDir())
	symbols, err = empty.ListSymbols(ctx)
	if err != nil || symbols != nil {
		t.Errorf("ListSymbols on empty store = %v, %v, want nil, nil", symbols, err)
	}
}

func testRun(id string, createdAt time.Time) Run {
	return Run{
		ID:           id,
		Strategy:     "momentum",
		Symbols:      []string{"AAPL", "MSFT"},
		StartDate:    "2024-01-01",
		EndDate:      "2024-06-30",
		CreatedAt:    createdAt,
		InitialValue: 100000,
		FinalValue:   104500,
		TotalReturn:  0.045,
		AnnualReturn: 0.092,
		Volatility:   0.18,
		SharpeRatio:  0.51,
		MaxDrawdown:  -0.07,
		WinRate:      0.6,
		NumTrades:    2,
	}
}

func TestSQLiteStoreSaveAndGetRun(t *testing.T) {
	db, err := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	created := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	trades := []domain.Trade{
		{Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Symbol: "AAPL", Action: domain.OrderSideBuy, Quantity: 10, Price: 100, Commission: 0.5, Value: 1000},
		{Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Symbol: "AAPL", Action: domain.OrderSideSell, Quantity: 10, Price: 110, Commission: 0.55, Value: 1100},
	}
	if err := db.SaveRun(ctx, testRun("run-1", created), trades); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := db.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got == nil {
		t.Fatal("GetRun returned nil for saved run")
	}
	if got.Strategy != "momentum" || got.FinalValue != 104500 || got.NumTrades != 2 {
		t.Errorf("GetRun = %+v", got)
	}
	if len(got.Symbols) != 2 || got.Symbols[1] != "MSFT" {
		t.Errorf("symbols = %v, want [AAPL MSFT]", got.Symbols)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, created)
	}

	missing, err := db.GetRun(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("GetRun for missing id = %v, %v, want nil, nil", missing, err)
	}
}

func TestSQLiteStoreListRunsAndTrades(t *testing.T) {
	db, err := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	base := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	trades := []domain.Trade{
		{Date: base, Symbol: "AAPL", Action: domain.OrderSideBuy, Quantity: 10, Price: 100, Value: 1000},
		{Date: base.AddDate(0, 0, 1), Symbol: "AAPL", Action: domain.OrderSideSell, Quantity: 10, Price: 110, Value: 1100},
	}
	if err := db.SaveRun(ctx, testRun("run-1", base), trades); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if err := db.SaveRun(ctx, testRun("run-2", base.Add(time.Hour)), nil); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	runs, err := db.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("ListRuns returned %d runs, want 2", len(runs))
	}
	if runs[0].ID != "run-2" || runs[1].ID != "run-1" {
		t.Errorf("run order = %s, %s, want newest first", runs[0].ID, runs[1].ID)
	}

	runs, err = db.ListRuns(ctx, 1)
	if err != nil || len(runs) != 1 {
		t.Fatalf("ListRuns with limit = %v, %v", runs, err)
	}

	got, err := db.ListTrades(ctx, "run-1")
	if err != nil {
		t.Fatalf("ListTrades: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListTrades returned %d trades, want 2", len(got))
	}
	if got[0].Action != domain.OrderSideBuy || got[1].Price != 110 {
		t.Errorf("trades = %+v", got)
	}

	none, err := db.ListTrades(ctx, "run-2")
	if err != nil || len(none) != 0 {
		t.Errorf("ListTrades for tradeless run = %v, %v", none, err)
	}
}

func TestSQLiteStoreRejectsDuplicateRunID(t *testing.T) {
	db, err := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	now := time.Now().UTC()
	if err := db.SaveRun(ctx, testRun("run-1", now), nil); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if err := db.SaveRun(ctx, testRun("run-1", now), nil); err == nil {
		t.Error("SaveRun with duplicate id succeeded, want error")
	}
}

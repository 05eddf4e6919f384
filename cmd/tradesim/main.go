package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"tradesim/internal/backtest"
	"tradesim/internal/config"
	"tradesim/internal/data"
	"tradesim/internal/risk"
	"tradesim/internal/store"
	"tradesim/internal/strategy"
	"tradesim/internal/util"
)

func main() {
	strategyName := flag.String("strategy", "momentum", "strategy to run: momentum, mean_reversion, ma_crossover, breakout, combined")
	symbolList := flag.String("symbols", "", "comma-separated symbols to trade (required)")
	startDate := flag.String("start", "", "backtest start date (YYYY-MM-DD, overrides config)")
	endDate := flag.String("end", "", "backtest end date (YYYY-MM-DD, overrides config)")
	listRuns := flag.Bool("list-runs", false, "list recent saved runs and exit")
	flag.Parse()

	// .env is optional; real environment wins either way.
	_ = godotenv.Load()

	cfgPath := "config/tradesim.yaml"
	if p := os.Getenv("TRADESIM_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = config.Default()
	}

	util.SetDefault(util.NewLogger(cfg.Logging.Level, cfg.Logging.Format))

	if *startDate != "" {
		cfg.Backtest.StartDate = *startDate
	}
	if *endDate != "" {
		cfg.Backtest.EndDate = *endDate
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *listRuns {
		if err := printRuns(ctx, cfg); err != nil {
			log.Fatalf("listing runs: %v", err)
		}
		return
	}

	symbols := splitSymbols(*symbolList)
	if len(symbols) == 0 {
		fmt.Fprintln(os.Stderr, "at least one symbol is required (-symbols AAPL,MSFT)")
		flag.Usage()
		os.Exit(1)
	}

	registry, err := strategy.NewRegistryFromConfig(symbols, cfg)
	if err != nil {
		log.Fatalf("building strategies: %v", err)
	}
	strat, ok := registry.Get(*strategyName)
	if !ok {
		log.Fatalf("unknown strategy %q (available: %s)", *strategyName, strings.Join(registry.List(), ", "))
	}

	cache := store.NewParquetStore(cfg.Storage.DataDir)
	connector := data.NewAlpacaConnector(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL, cache)
	sizer := risk.NewSizer(cfg.Risk)

	engine, err := backtest.NewEngine(connector, strat, sizer, cfg.Backtest)
	if err != nil {
		log.Fatalf("building engine: %v", err)
	}

	result, err := engine.Run(ctx, "1D")
	if err != nil {
		if errors.Is(err, backtest.ErrNoData) {
			log.Fatalf("no data for %v in the requested range", symbols)
		}
		log.Fatalf("backtest failed: %v", err)
	}

	printReport(strat.Name(), symbols, cfg, result)

	if cfg.Storage.SQLitePath != "" {
		if err := saveRun(ctx, cfg, strat.Name(), symbols, result); err != nil {
			slog.Error("saving run", "err", err)
			os.Exit(1)
		}
	}
}

func splitSymbols(s string) []string {
	var symbols []string
	for _, part := range strings.Split(s, ",") {
		if sym := strings.ToUpper(strings.TrimSpace(part)); sym != "" {
			symbols = append(symbols, sym)
		}
	}
	return symbols
}

func printReport(strategyName string, symbols []string, cfg *config.Config, result *backtest.Result) {
	m := result.Metrics

	fmt.Printf("\nBacktest: %s on %s\n", strategyName, strings.Join(symbols, ", "))
	if cfg.Backtest.StartDate != "" || cfg.Backtest.EndDate != "" {
		fmt.Printf("Period:   %s to %s\n", orOpen(cfg.Backtest.StartDate), orOpen(cfg.Backtest.EndDate))
	}
	fmt.Printf("Days:     %d, completed in %s\n\n", len(result.Daily), result.ExecutionTime.Round(time.Millisecond))

	fmt.Printf("  Initial value   %14.2f\n", m.InitialValue)
	fmt.Printf("  Final value     %14.2f\n", m.FinalValue)
	fmt.Printf("  Total return    %13.2f%%\n", m.TotalReturn*100)
	fmt.Printf("  Annual return   %13.2f%%\n", m.AnnualReturn*100)
	fmt.Printf("  Volatility      %13.2f%%\n", m.Volatility*100)
	fmt.Printf("  Sharpe ratio    %14.2f\n", m.SharpeRatio)
	fmt.Printf("  Max drawdown    %13.2f%%\n", m.MaxDrawdown*100)
	fmt.Printf("  Win rate        %13.2f%%\n", m.WinRate*100)
	fmt.Printf("  Trades          %14d\n", m.NumTrades)
}

func orOpen(date string) string {
	if date == "" {
		return "(open)"
	}
	return date
}

func saveRun(ctx context.Context, cfg *config.Config, strategyName string, symbols []string, result *backtest.Result) error {
	db, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		return err
	}
	defer db.Close()

	m := result.Metrics
	run := store.Run{
		ID:           uuid.NewString(),
		Strategy:     strategyName,
		Symbols:      symbols,
		StartDate:    cfg.Backtest.StartDate,
		EndDate:      cfg.Backtest.EndDate,
		CreatedAt:    time.Now().UTC(),
		InitialValue: m.InitialValue,
		FinalValue:   m.FinalValue,
		TotalReturn:  m.TotalReturn,
		AnnualReturn: m.AnnualReturn,
		Volatility:   m.Volatility,
		SharpeRatio:  m.SharpeRatio,
		MaxDrawdown:  m.MaxDrawdown,
		WinRate:      m.WinRate,
		NumTrades:    m.NumTrades,
	}

	if err := db.SaveRun(ctx, run, result.Trades); err != nil {
		return err
	}
	slog.Info("run saved", "id", run.ID, "db", cfg.Storage.SQLitePath)
	return nil
}

func printRuns(ctx context.Context, cfg *config.Config) error {
	if cfg.Storage.SQLitePath == "" {
		return fmt.Errorf("no sqlite_path configured")
	}
	db, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.ListRuns(ctx, 20)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no saved runs")
		return nil
	}

	fmt.Printf("%-36s  %-14s  %-19s  %10s  %8s  %6s\n",
		"ID", "STRATEGY", "CREATED", "FINAL", "RETURN", "TRADES")
	for _, r := range runs {
		fmt.Printf("%-36s  %-14s  %-19s  %10.2f  %7.2f%%  %6d\n",
			r.ID, r.Strategy, r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.FinalValue, r.TotalReturn*100, r.NumTrades)
	}
	return nil
}

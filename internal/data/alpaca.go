// Package data fetches historical market data for the simulation engine.
package data

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"tradesim/internal/domain"
	"tradesim/internal/store"
	"tradesim/internal/util"
)

// AlpacaConnector fetches daily bars from the Alpaca market-data API with a
// read-through Parquet cache: a horizon fully covered by the cache never
// touches the network, and fetched bars are written back for the next run.
type AlpacaConnector struct {
	client *marketdata.Client
	cache  store.BarStore

	limiter *util.RateLimiter
	feed    marketdata.Feed

	log *slog.Logger
}

// NewAlpacaConnector creates a connector with the given credentials. cache
// may be nil to disable caching.
func NewAlpacaConnector(apiKey, apiSecret, dataURL string, cache store.BarStore) *AlpacaConnector {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}

	return &AlpacaConnector{
		client:  marketdata.NewClient(opts),
		cache:   cache,
		limiter: util.NewRateLimiter(200),
		feed:    marketdata.IEX,
		log:     slog.Default().With("component", "data"),
	}
}

// GetBars returns daily bars for the given symbols over [start, end]. The
// timeframe argument is accepted for the engine contract; only daily bars are
// supported. Symbols covered by the cache are served from it, the rest are
// fetched in one batched API call and cached.
func (c *AlpacaConnector) GetBars(ctx context.Context, symbols []string, timeframe string, start, end time.Time) ([]domain.Bar, error) {
	if timeframe != "" && timeframe != "1D" {
		return nil, fmt.Errorf("unsupported timeframe %q", timeframe)
	}
	if end.IsZero() {
		end = time.Now().UTC().Truncate(24 * time.Hour)
	}

	var bars []domain.Bar
	var missing []string
	for _, sym := range symbols {
		cached := c.readCache(ctx, sym, start, end)
		if len(cached) == 0 {
			missing = append(missing, sym)
			continue
		}
		bars = append(bars, cached...)
	}

	if len(missing) > 0 {
		fetched, err := c.fetchMultiBars(ctx, missing, start, end)
		if err != nil {
			return nil, err
		}
		c.writeCache(ctx, fetched)
		bars = append(bars, fetched...)
	}

	c.log.Info("loaded bars",
		"symbols", len(symbols), "fetched", len(missing),
		"bars", len(bars))
	return bars, nil
}

// readCache returns cached bars only when they cover the whole [start, end]
// horizon. A partial hit from an earlier, shorter run returns nil so the
// symbol is refetched instead of silently truncating the horizon.
func (c *AlpacaConnector) readCache(ctx context.Context, symbol string, start, end time.Time) []domain.Bar {
	if c.cache == nil || start.IsZero() {
		return nil
	}
	bars, err := c.cache.ReadBars(ctx, symbol, start, end)
	if err != nil {
		c.log.Warn("cache read failed", "symbol", symbol, "err", err)
		return nil
	}
	if !coversHorizon(bars, start, end) {
		c.log.Debug("cache incomplete", "symbol", symbol, "cached", len(bars))
		return nil
	}
	return bars
}

// Markets close over weekends and holidays, so the first and last cached bars
// rarely land exactly on the requested bounds. Up to this many calendar days
// of slack at each edge still counts as full coverage.
const horizonSlack = 5 * 24 * time.Hour

func coversHorizon(bars []domain.Bar, start, end time.Time) bool {
	if len(bars) == 0 {
		return false
	}
	first, last := bars[0].Timestamp, bars[0].Timestamp
	for _, b := range bars[1:] {
		if b.Timestamp.Before(first) {
			first = b.Timestamp
		}
		if b.Timestamp.After(last) {
			last = b.Timestamp
		}
	}
	return !first.After(start.Add(horizonSlack)) && !last.Before(end.Add(-horizonSlack))
}

func (c *AlpacaConnector) writeCache(ctx context.Context, bars []domain.Bar) {
	if c.cache == nil || len(bars) == 0 {
		return
	}
	if err := c.cache.WriteBars(ctx, bars); err != nil {
		c.log.Warn("cache write failed", "err", err)
	}
}

// fetchMultiBars fetches daily bars for multiple symbols in a single API
// call, with rate limiting and retries on transient failures.
func (c *AlpacaConnector) fetchMultiBars(ctx context.Context, symbols []string, start, end time.Time) ([]domain.Bar, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var multiBars map[string][]marketdata.Bar
	err := util.Retry(ctx, 3, time.Second, func() error {
		var err error
		multiBars, err = c.client.GetMultiBars(symbols, marketdata.GetBarsRequest{
			TimeFrame: marketdata.OneDay,
			Start:     start,
			End:       end,
			Feed:      c.feed,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("GetMultiBars: %w", err)
	}

	var bars []domain.Bar
	for symbol, alpacaBars := range multiBars {
		for _, ab := range alpacaBars {
			bars = append(bars, domain.Bar{
				Symbol:     strings.ToUpper(symbol),
				Timestamp:  ab.Timestamp,
				Open:       ab.Open,
				High:       ab.High,
				Low:        ab.Low,
				Close:      ab.Close,
				Volume:     int64(ab.Volume),
				TradeCount: int64(ab.TradeCount),
				VWAP:       ab.VWAP,
			})
		}
	}
	return bars, nil
}

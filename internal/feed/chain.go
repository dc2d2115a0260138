package feed

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ishaygamliely-create/SoloTrading-sub001/config"
	"github.com/ishaygamliely-create/SoloTrading-sub001/internal/events"
	"github.com/ishaygamliely-create/SoloTrading-sub001/internal/market"
)

// yahooTimeout bounds the terminal fallback, which has no provider config of
// its own.
const yahooTimeout = 5 * time.Second

type chainEntry struct {
	source  market.DataSource
	adapter Adapter
	timeout time.Duration
}

// Chain walks candle sources in fixed trust order and returns the first usable
// result. It deliberately does not race sources in parallel: priority order
// matters more than latency, and a faster low-trust source must not win.
type Chain struct {
	entries []chainEntry
	logger  zerolog.Logger
	bus     *events.Bus
}

// NewChain builds the chain from configured providers. The broker source is
// served by the realtime stream when credentials exist, by the REST endpoint
// otherwise; Yahoo is always appended as the guaranteed terminal source.
func NewChain(cfg *config.Config, logger zerolog.Logger, bus *events.Bus) *Chain {
	var entries []chainEntry

	if cfg.Realtime != nil {
		entries = append(entries, chainEntry{
			source:  market.SourceBroker,
			adapter: NewRealtimeAdapter(cfg.Realtime, logger),
			timeout: cfg.Realtime.Timeout,
		})
	}
	if cfg.Broker != nil {
		entries = append(entries, chainEntry{
			source:  market.SourceBroker,
			adapter: NewBrokerAdapter(cfg.Broker),
			timeout: cfg.Broker.Timeout,
		})
	}
	if cfg.TradingView != nil {
		entries = append(entries, chainEntry{
			source:  market.SourceTradingView,
			adapter: NewTradingViewAdapter(cfg.TradingView),
			timeout: cfg.TradingView.Timeout,
		})
	}
	entries = append(entries, chainEntry{
		source:  market.SourceYahoo,
		adapter: NewYahooAdapter(),
		timeout: yahooTimeout,
	})

	return &Chain{entries: entries, logger: logger, bus: bus}
}

// newChainFromEntries exists for tests that inject fake adapters.
func newChainFromEntries(entries []chainEntry, logger zerolog.Logger, bus *events.Bus) *Chain {
	return &Chain{entries: entries, logger: logger, bus: bus}
}

// Fetch acquires candles for the symbol, degrading through the source chain.
// It never returns an error: a total outage yields an empty candle sequence
// attributed to the terminal source, and callers must treat that as a valid
// state. FallbackFrom names the first distinct higher-priority source that was
// attempted and failed on this call.
func (c *Chain) Fetch(ctx context.Context, symbol, interval string, since time.Time) market.FeedResult {
	var failed []market.DataSource

	for _, entry := range c.entries {
		attemptCtx, cancel := context.WithTimeout(ctx, entry.timeout)
		candles, err := entry.adapter.Fetch(attemptCtx, symbol, interval, since)
		cancel()

		if err != nil || len(candles) == 0 {
			c.logger.Warn().
				Str("source", string(entry.source)).
				Str("symbol", symbol).
				Err(err).
				Msg("candle source failed, trying next")
			failed = append(failed, entry.source)
			continue
		}

		result := market.FeedResult{
			Candles:       candles,
			SourceUsed:    entry.source,
			LastBarTimeMs: market.LastBarTimeMs(candles),
			FallbackFrom:  firstDistinct(failed, entry.source),
		}
		if result.FallbackFrom != "" {
			c.bus.Publish(events.EventFeedFallback, map[string]interface{}{
				"symbol":       symbol,
				"sourceUsed":   string(result.SourceUsed),
				"fallbackFrom": string(result.FallbackFrom),
			})
		}
		return result
	}

	c.logger.Error().Str("symbol", symbol).Msg("every candle source failed")
	return market.FeedResult{
		Candles:      []market.Candle{},
		SourceUsed:   market.SourceYahoo,
		FallbackFrom: firstDistinct(failed, market.SourceYahoo),
	}
}

// firstDistinct returns the first failed source different from the one that
// ultimately served the call. Two variants of the same source (the broker's
// stream and REST endpoints) do not count as a fallback between sources.
func firstDistinct(failed []market.DataSource, used market.DataSource) market.DataSource {
	for _, s := range failed {
		if s != used {
			return s
		}
	}
	return ""
}

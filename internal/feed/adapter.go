// Package feed acquires candle data from external providers. Each provider is
// wrapped in an Adapter that normalizes its payload into canonical candles; the
// Chain walks adapters in trust order and degrades across failures.
package feed

import (
	"context"
	"time"

	"github.com/ishaygamliely-create/SoloTrading-sub001/internal/market"
)

// Adapter fetches and normalizes candles from one provider. Implementations
// must return candles sorted ascending by time with incomplete bars dropped,
// and must respect context cancellation.
type Adapter interface {
	Source() market.DataSource
	Fetch(ctx context.Context, symbol, interval string, since time.Time) ([]market.Candle, error)
}

// sanitize drops placeholder bars and enforces the ascending-time invariant.
// Bars with all-zero OHLC come from providers padding sessions with empty rows.
func sanitize(candles []market.Candle) []market.Candle {
	kept := candles[:0]
	for _, c := range candles {
		if c.Empty() {
			continue
		}
		kept = append(kept, c)
	}
	return market.SortCandles(kept)
}

package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"

	"github.com/ishaygamliely-create/SoloTrading-sub001/internal/market"
)

// yahooIntervals maps our interval notation onto the chart API's.
var yahooIntervals = map[string]datetime.Interval{
	"1m":  datetime.OneMin,
	"2m":  datetime.TwoMins,
	"5m":  datetime.FiveMins,
	"15m": datetime.FifteenMins,
	"30m": datetime.ThirtyMins,
	"1h":  datetime.OneHour,
	"1d":  datetime.OneDay,
}

// YahooAdapter is the terminal fallback source. It needs no credentials and is
// therefore always configured.
type YahooAdapter struct{}

// NewYahooAdapter creates the Yahoo chart adapter.
func NewYahooAdapter() *YahooAdapter {
	return &YahooAdapter{}
}

func (a *YahooAdapter) Source() market.DataSource {
	return market.SourceYahoo
}

// Fetch pulls historical bars from the Yahoo chart API. The underlying client
// has no context support, so the call runs in a goroutine and is abandoned when
// the context expires.
func (a *YahooAdapter) Fetch(ctx context.Context, symbol, interval string, since time.Time) ([]market.Candle, error) {
	iv, ok := yahooIntervals[interval]
	if !ok {
		iv = datetime.FifteenMins
	}

	type fetchResult struct {
		candles []market.Candle
		err     error
	}
	resultCh := make(chan fetchResult, 1)

	go func() {
		end := time.Now()
		iter := chart.Get(&chart.Params{
			Symbol:   symbol,
			Start:    datetime.New(&since),
			End:      datetime.New(&end),
			Interval: iv,
		})

		var candles []market.Candle
		for iter.Next() {
			bar := iter.Bar()
			candles = append(candles, market.Candle{
				Time:   int64(bar.Timestamp),
				Open:   bar.Open.InexactFloat64(),
				High:   bar.High.InexactFloat64(),
				Low:    bar.Low.InexactFloat64(),
				Close:  bar.Close.InexactFloat64(),
				Volume: float64(bar.Volume),
			})
		}
		if err := iter.Err(); err != nil {
			resultCh <- fetchResult{err: fmt.Errorf("yahoo chart for %s: %w", symbol, err)}
			return
		}
		resultCh <- fetchResult{candles: sanitize(candles)}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultCh:
		return res.candles, res.err
	}
}

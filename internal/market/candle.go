// Package market defines the canonical market-data types shared by the feed
// pipeline, the reliability scorer and the trade-management layer.
package market

import "sort"

// Candle represents one OHLCV bar. Time is in unix seconds. Candles are never
// mutated after creation.
type Candle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Empty reports whether the bar carries no price information at all. Providers
// occasionally emit placeholder rows with every price field zeroed.
func (c Candle) Empty() bool {
	return c.Open == 0 && c.High == 0 && c.Low == 0 && c.Close == 0
}

// SortCandles orders candles ascending by time and drops duplicate timestamps,
// keeping the later occurrence. The result satisfies the strictly-increasing
// time invariant every producer must uphold.
func SortCandles(candles []Candle) []Candle {
	if len(candles) == 0 {
		return candles
	}

	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Time < candles[j].Time
	})

	out := candles[:0]
	for _, c := range candles {
		if n := len(out); n > 0 && out[n-1].Time == c.Time {
			out[n-1] = c
			continue
		}
		out = append(out, c)
	}
	return out
}

// LastBarTimeMs returns the close time of the last candle in milliseconds, or
// nil for an empty sequence.
func LastBarTimeMs(candles []Candle) *int64 {
	if len(candles) == 0 {
		return nil
	}
	ms := candles[len(candles)-1].Time * 1000
	return &ms
}

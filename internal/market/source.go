package market

import "time"

// DataSource identifies where a candle sequence came from. Sources have a
// fixed trust order: BROKER > TRADINGVIEW > YAHOO.
type DataSource string

const (
	SourceBroker      DataSource = "BROKER"
	SourceTradingView DataSource = "TRADINGVIEW"
	SourceYahoo       DataSource = "YAHOO"
)

// Priority returns the trust rank of the source; lower is more trusted.
func (s DataSource) Priority() int {
	switch s {
	case SourceBroker:
		return 0
	case SourceTradingView:
		return 1
	default:
		return 2
	}
}

// TrustCap is the maximum confidence score a feed from this source may carry,
// regardless of raw signal strength.
func (s DataSource) TrustCap() float64 {
	switch s {
	case SourceBroker:
		return 100
	case SourceTradingView:
		return 85
	default:
		return 74
	}
}

// StalenessThreshold is the maximum data age before a feed from this source is
// flagged as delayed.
func (s DataSource) StalenessThreshold() time.Duration {
	switch s {
	case SourceBroker:
		return time.Minute
	case SourceTradingView:
		return 10 * time.Minute
	default:
		return 15 * time.Minute
	}
}

// Status describes whether the underlying market is currently trading.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// FeedResult is the outcome of one acquisition pass over the source chain.
// LastBarTimeMs is null when the candle sequence is empty. FallbackFrom is set
// only when a higher-priority source was attempted and failed on this call.
type FeedResult struct {
	Candles       []Candle   `json:"candles"`
	SourceUsed    DataSource `json:"sourceUsed"`
	LastBarTimeMs *int64     `json:"lastBarTimeMs"`
	FallbackFrom  DataSource `json:"fallbackFrom,omitempty"`
}

package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ishaygamliely-create/SoloTrading-sub001/config"
	"github.com/ishaygamliely-create/SoloTrading-sub001/internal/market"
)

// restBar mirrors the provider wire format. Open is a pointer so a bar with a
// missing open price can be told apart from one that opened at zero; such bars
// are dropped during normalization.
type restBar struct {
	Time   int64    `json:"time"`
	Open   *float64 `json:"open"`
	High   float64  `json:"high"`
	Low    float64  `json:"low"`
	Close  float64  `json:"close"`
	Volume float64  `json:"volume"`
}

// RESTAdapter serves candle-array providers (broker and TradingView proxies
// share the same wire shape, differing only in endpoint and credentials).
type RESTAdapter struct {
	source market.DataSource
	client *resty.Client
}

// NewBrokerAdapter creates the adapter for the broker's REST candle endpoint.
func NewBrokerAdapter(cfg *config.ProviderConfig) *RESTAdapter {
	return newRESTAdapter(market.SourceBroker, cfg)
}

// NewTradingViewAdapter creates the adapter for the TradingView proxy endpoint.
func NewTradingViewAdapter(cfg *config.ProviderConfig) *RESTAdapter {
	return newRESTAdapter(market.SourceTradingView, cfg)
}

func newRESTAdapter(source market.DataSource, cfg *config.ProviderConfig) *RESTAdapter {
	client := resty.New().
		SetBaseURL(cfg.DataURL).
		SetTimeout(cfg.Timeout).
		SetAuthToken(cfg.APIKey)

	return &RESTAdapter{source: source, client: client}
}

func (a *RESTAdapter) Source() market.DataSource {
	return a.source
}

// Fetch issues GET {url}?symbol=&interval=&from= with bearer auth and
// normalizes the returned candle array.
func (a *RESTAdapter) Fetch(ctx context.Context, symbol, interval string, since time.Time) ([]market.Candle, error) {
	var bars []restBar
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol":   symbol,
			"interval": interval,
			"from":     since.UTC().Format(time.RFC3339),
		}).
		SetResult(&bars).
		Get("")
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", a.source, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%s returned %s", a.source, resp.Status())
	}

	candles := make([]market.Candle, 0, len(bars))
	for _, b := range bars {
		if b.Open == nil {
			continue
		}
		candles = append(candles, market.Candle{
			Time:   b.Time,
			Open:   *b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		})
	}
	return sanitize(candles), nil
}

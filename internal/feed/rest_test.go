package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ishaygamliely-create/SoloTrading-sub001/config"
)

// TestRESTAdapterFetch tests that the adapter sends the expected query, drops
// bars with a missing open and returns sorted candles.
func TestRESTAdapterFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("symbol"); got != "NQ" {
			t.Errorf("Expected symbol NQ, got %q", got)
		}
		if got := r.URL.Query().Get("interval"); got != "15m" {
			t.Errorf("Expected interval 15m, got %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Expected bearer auth, got %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		// Out of order, one bar with no open price.
		w.Write([]byte(`[
			{"time": 200, "open": 1.5, "high": 2.5, "low": 1, "close": 2, "volume": 12},
			{"time": 100, "open": 1, "high": 2, "low": 0.5, "close": 1.5, "volume": 10},
			{"time": 300, "open": null, "high": 3, "low": 2, "close": 2.5, "volume": 8}
		]`))
	}))
	defer server.Close()

	adapter := NewBrokerAdapter(&config.ProviderConfig{
		DataURL: server.URL,
		APIKey:  "test-key",
		Timeout: time.Second,
	})

	candles, err := adapter.Fetch(context.Background(), "NQ", "15m", time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if len(candles) != 2 {
		t.Fatalf("Expected 2 candles after dropping the open-less bar, got %d", len(candles))
	}
	if candles[0].Time != 100 || candles[1].Time != 200 {
		t.Errorf("Expected candles sorted ascending, got times %d, %d", candles[0].Time, candles[1].Time)
	}
}

// TestRESTAdapterErrorStatus tests that a non-2xx response surfaces as an
// error instead of empty candles.
func TestRESTAdapterErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	adapter := NewTradingViewAdapter(&config.ProviderConfig{
		DataURL: server.URL,
		APIKey:  "test-key",
		Timeout: time.Second,
	})

	if _, err := adapter.Fetch(context.Background(), "NQ", "15m", time.Now()); err == nil {
		t.Fatal("Expected an error for a 429 response, got nil")
	}
}

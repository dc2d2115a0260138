package reliability

import (
	"testing"
	"time"

	"github.com/ishaygamliely-create/SoloTrading-sub001/internal/market"
)

// TestScoreCapsBySource tests that each source caps the raw score at its trust
// ceiling and flags the cap.
func TestScoreCapsBySource(t *testing.T) {
	now := time.Now()

	cases := []struct {
		source market.DataSource
		want   float64
	}{
		{market.SourceBroker, 95},      // broker cap is 100, no cut
		{market.SourceTradingView, 85}, // capped from 95
		{market.SourceYahoo, 74},       // capped from 95
	}

	for _, tc := range cases {
		result := ScoreAt(Input{
			RawScore:      95,
			LastBarTimeMs: now.UnixMilli(),
			Source:        tc.source,
			MarketStatus:  market.StatusOpen,
		}, now)

		if result.FinalScore != tc.want {
			t.Errorf("%s: expected final score %f, got %f", tc.source, tc.want, result.FinalScore)
		}
		if wantCap := tc.want != 95; result.CapApplied != wantCap {
			t.Errorf("%s: expected capApplied=%v, got %v", tc.source, wantCap, result.CapApplied)
		}
	}
}

// TestScoreBelowCapUntouched tests that a raw score under the cap passes
// through with capApplied false.
func TestScoreBelowCapUntouched(t *testing.T) {
	now := time.Now()
	result := ScoreAt(Input{
		RawScore:      60,
		LastBarTimeMs: now.UnixMilli(),
		Source:        market.SourceYahoo,
		MarketStatus:  market.StatusOpen,
	}, now)

	if result.FinalScore != 60 {
		t.Errorf("Expected final score 60, got %f", result.FinalScore)
	}
	if result.CapApplied {
		t.Error("Score under the cap must not be flagged as capped")
	}
}

// TestScoreStaleness tests the per-source staleness thresholds and that
// capping stays independent of staleness.
func TestScoreStaleness(t *testing.T) {
	now := time.Now()

	// 2 minutes old: stale for the broker, fresh for TradingView.
	lastBar := now.Add(-2 * time.Minute).UnixMilli()

	broker := ScoreAt(Input{
		RawScore: 50, LastBarTimeMs: lastBar,
		Source: market.SourceBroker, MarketStatus: market.StatusOpen,
	}, now)
	if broker.Status != StatusDelayed {
		t.Errorf("Broker data 2m old should be DELAYED, got %s", broker.Status)
	}
	if broker.CapApplied {
		t.Error("Staleness must not trigger the cap flag")
	}

	tv := ScoreAt(Input{
		RawScore: 50, LastBarTimeMs: lastBar,
		Source: market.SourceTradingView, MarketStatus: market.StatusOpen,
	}, now)
	if tv.Status != StatusOK {
		t.Errorf("TradingView data 2m old should be OK, got %s", tv.Status)
	}
}

// TestScoreClosedMarketPassthrough tests that a closed market never penalizes
// the score, regardless of source or age.
func TestScoreClosedMarketPassthrough(t *testing.T) {
	now := time.Now()
	result := ScoreAt(Input{
		RawScore:      95,
		LastBarTimeMs: now.Add(-48 * time.Hour).UnixMilli(), // a whole weekend old
		Source:        market.SourceYahoo,
		MarketStatus:  market.StatusClosed,
	}, now)

	if result.FinalScore != 95 {
		t.Errorf("Closed market should pass the raw score through, got %f", result.FinalScore)
	}
	if result.Status != StatusClosed {
		t.Errorf("Expected CLOSED status, got %s", result.Status)
	}
	if result.CapApplied {
		t.Error("Closed market must never apply the cap")
	}
}

package guidance

import (
	"strings"
	"testing"

	"github.com/ishaygamliely-create/SoloTrading-sub001/internal/trade"
)

func longTrade() *trade.ActiveTrade {
	return &trade.ActiveTrade{
		SavedTrade: trade.SavedTrade{
			Symbol:     "MNQ",
			Direction:  trade.DirectionLong,
			EntryPrice: 100,
			StopLoss:   90,
			Contract:   trade.ContractMNQ,
		},
		State: trade.StateManaging,
	}
}

func shortTrade() *trade.ActiveTrade {
	t := longTrade()
	t.Direction = trade.DirectionShort
	t.EntryPrice = 100
	t.StopLoss = 110
	return t
}

func price(p float64) *float64 { return &p }

// TestEvaluateMissingPrice tests that no current price always yields HOLD.
func TestEvaluateMissingPrice(t *testing.T) {
	verdict := Evaluate(longTrade(), MarketContext{
		Regime:        RegimeChoppy, // would otherwise be CAUTION
		TrendReversal: trade.DirectionShort,
	})

	if verdict.Status != trade.GuidanceHold {
		t.Errorf("Expected HOLD without a price, got %s", verdict.Status)
	}
	if len(verdict.Evidence) != 1 || verdict.Evidence[0] != "Waiting for market data" {
		t.Errorf("Unexpected evidence: %v", verdict.Evidence)
	}
}

// TestEvaluateStopBreach tests the hard EXIT on a stop-loss breach for both
// directions, including the exact-touch case.
func TestEvaluateStopBreach(t *testing.T) {
	verdict := Evaluate(longTrade(), MarketContext{Price: price(89)})
	if verdict.Status != trade.GuidanceExit {
		t.Fatalf("Long below stop should EXIT, got %s", verdict.Status)
	}

	verdict = Evaluate(longTrade(), MarketContext{Price: price(90)})
	if verdict.Status != trade.GuidanceExit {
		t.Errorf("Exact stop touch should EXIT, got %s", verdict.Status)
	}

	verdict = Evaluate(shortTrade(), MarketContext{Price: price(111)})
	if verdict.Status != trade.GuidanceExit {
		t.Errorf("Short above stop should EXIT, got %s", verdict.Status)
	}

	verdict = Evaluate(shortTrade(), MarketContext{Price: price(105)})
	if verdict.Status == trade.GuidanceExit {
		t.Error("Short below its stop must not EXIT on the stop rule")
	}
}

// TestEvaluateStopBreachShortCircuits tests that an EXIT carries only the
// breach evidence even when CAUTION conditions also hold.
func TestEvaluateStopBreachShortCircuits(t *testing.T) {
	verdict := Evaluate(longTrade(), MarketContext{
		Price:  price(89),
		Regime: RegimeChoppy,
	})

	if verdict.Status != trade.GuidanceExit {
		t.Fatalf("Expected EXIT, got %s", verdict.Status)
	}
	if len(verdict.Evidence) != 1 {
		t.Errorf("EXIT must short-circuit further evidence, got %v", verdict.Evidence)
	}
	if !strings.Contains(verdict.Evidence[0], "stop-loss") {
		t.Errorf("Expected stop-loss evidence, got %q", verdict.Evidence[0])
	}
}

// TestEvaluateTrendReversalExit tests the EXIT on a strong reversal against
// the position, and that a reversal in the trade's favor is ignored.
func TestEvaluateTrendReversalExit(t *testing.T) {
	verdict := Evaluate(longTrade(), MarketContext{
		Price:         price(99),
		TrendReversal: trade.DirectionShort,
	})
	if verdict.Status != trade.GuidanceExit {
		t.Errorf("Reversal against a long should EXIT, got %s", verdict.Status)
	}

	verdict = Evaluate(longTrade(), MarketContext{
		Price:         price(99),
		TrendReversal: trade.DirectionLong,
	})
	if verdict.Status == trade.GuidanceExit {
		t.Error("Reversal in the trade's favor must not EXIT")
	}
}

// TestEvaluateDrawdownCaution tests the 70% drawdown threshold and its
// evidence wording.
func TestEvaluateDrawdownCaution(t *testing.T) {
	// Entry 100, stop 90: price 93 is 70% of the way to the stop.
	verdict := Evaluate(longTrade(), MarketContext{Price: price(93)})
	if verdict.Status != trade.GuidanceCaution {
		t.Fatalf("Expected CAUTION at 70%% drawdown, got %s", verdict.Status)
	}
	if !strings.Contains(verdict.Evidence[0], "70%") {
		t.Errorf("Expected the drawdown percentage in evidence, got %q", verdict.Evidence[0])
	}

	// Price 94 is only 60% of the way.
	verdict = Evaluate(longTrade(), MarketContext{Price: price(94)})
	if verdict.Status != trade.GuidanceHold {
		t.Errorf("Expected HOLD below the drawdown threshold, got %s", verdict.Status)
	}
}

// TestEvaluateCautionAccumulates tests that independent caution signals all
// land in the evidence list.
func TestEvaluateCautionAccumulates(t *testing.T) {
	verdict := Evaluate(longTrade(), MarketContext{
		Price:           price(99),
		Regime:          RegimeChoppy,
		BiasScore:       -20, // flipped bearish past the margin
		MomentumFlip:    trade.DirectionShort,
		RSIOverbought:   true,
		UpperBandBreach: true,
	})

	if verdict.Status != trade.GuidanceCaution {
		t.Fatalf("Expected CAUTION, got %s", verdict.Status)
	}
	if len(verdict.Evidence) != 4 {
		t.Errorf("Expected 4 pieces of evidence, got %d: %v", len(verdict.Evidence), verdict.Evidence)
	}
}

// TestEvaluateBiasFlipMargin tests that the composite bias only counts once
// it crosses the flip margin.
func TestEvaluateBiasFlipMargin(t *testing.T) {
	verdict := Evaluate(longTrade(), MarketContext{Price: price(99), BiasScore: -10})
	if verdict.Status != trade.GuidanceHold {
		t.Errorf("Bias within the margin should HOLD, got %s", verdict.Status)
	}

	verdict = Evaluate(longTrade(), MarketContext{Price: price(99), BiasScore: -15})
	if verdict.Status != trade.GuidanceCaution {
		t.Errorf("Bias at the margin should CAUTION, got %s", verdict.Status)
	}

	// Short trades flip on bullish bias.
	verdict = Evaluate(shortTrade(), MarketContext{Price: price(101), BiasScore: 20})
	if verdict.Status != trade.GuidanceCaution {
		t.Errorf("Bullish bias against a short should CAUTION, got %s", verdict.Status)
	}
}

// TestEvaluateExhaustionIsDirectional tests that the RSI/band exhaustion pair
// only fires on the side matching the trade.
func TestEvaluateExhaustionIsDirectional(t *testing.T) {
	// Oversold lower-band conditions are irrelevant to a long.
	verdict := Evaluate(longTrade(), MarketContext{
		Price:           price(99),
		RSIOversold:     true,
		LowerBandBreach: true,
	})
	if verdict.Status != trade.GuidanceHold {
		t.Errorf("Wrong-side exhaustion must not CAUTION a long, got %s", verdict.Status)
	}

	verdict = Evaluate(shortTrade(), MarketContext{
		Price:           price(101),
		RSIOversold:     true,
		LowerBandBreach: true,
	})
	if verdict.Status != trade.GuidanceCaution {
		t.Errorf("Oversold breach against a short should CAUTION, got %s", verdict.Status)
	}
}

// TestEvaluateQuietMarketHolds tests the HOLD verdict wording when nothing is
// wrong.
func TestEvaluateQuietMarketHolds(t *testing.T) {
	verdict := Evaluate(longTrade(), MarketContext{
		Price:  price(105),
		Regime: RegimeTrending,
	})

	if verdict.Status != trade.GuidanceHold {
		t.Fatalf("Expected HOLD, got %s", verdict.Status)
	}
	if verdict.Evidence[0] != "Structure intact, no adverse signals" {
		t.Errorf("Unexpected HOLD evidence: %v", verdict.Evidence)
	}
}

// Package guidance turns an active trade plus a market-context snapshot into a
// HOLD/CAUTION/EXIT verdict. Evaluation is pure; recording verdicts on the
// trade is the manager's job.
package guidance

import (
	"fmt"

	"github.com/ishaygamliely-create/SoloTrading-sub001/internal/trade"
)

const (
	// drawdownCautionRatio flags adverse movement at this fraction of the
	// entry-to-stop distance.
	drawdownCautionRatio = 0.7
	// biasFlipMargin is how far the composite bias must swing against the
	// trade before it counts as a flip.
	biasFlipMargin = 15.0
)

// Regime labels for MarketContext.Regime as reported by upstream analysis.
const (
	RegimeTrending = "TRENDING"
	RegimeChoppy   = "CHOPPY"
	RegimeNeutral  = "NEUTRAL"
)

// MarketContext is the snapshot of live signals a verdict is computed from.
// Price is nil when no current price is available. TrendReversal and
// MomentumFlip name the direction the respective signal now favors, empty when
// the signal is quiet. BiasScore is signed: positive bullish, negative bearish.
type MarketContext struct {
	Price           *float64        `json:"price"`
	Regime          string          `json:"regime"`
	TrendReversal   trade.Direction `json:"trendReversal,omitempty"`
	BiasScore       float64         `json:"biasScore"`
	MomentumFlip    trade.Direction `json:"momentumFlip,omitempty"`
	RSIOverbought   bool            `json:"rsiOverbought"`
	RSIOversold     bool            `json:"rsiOversold"`
	UpperBandBreach bool            `json:"upperBandBreach"`
	LowerBandBreach bool            `json:"lowerBandBreach"`
}

// Verdict is the outcome of one evaluation.
type Verdict struct {
	Status   trade.GuidanceStatus `json:"status"`
	Evidence []string             `json:"evidence"`
}

// Evaluate computes the verdict for an active trade. Hard EXIT rules are
// checked first and short-circuit everything else; CAUTION evidence only
// accumulates when no EXIT rule fired. A missing price always yields HOLD,
// bypassing every other rule.
func Evaluate(t *trade.ActiveTrade, ctx MarketContext) Verdict {
	if ctx.Price == nil {
		return Verdict{Status: trade.GuidanceHold, Evidence: []string{"Waiting for market data"}}
	}
	price := *ctx.Price

	if stopBreached(t, price) {
		return Verdict{
			Status: trade.GuidanceExit,
			Evidence: []string{
				fmt.Sprintf("Price %.2f breached stop-loss %.2f", price, t.StopLoss),
			},
		}
	}

	if ctx.TrendReversal != "" && ctx.TrendReversal != t.Direction {
		return Verdict{
			Status:   trade.GuidanceExit,
			Evidence: []string{"Strong trend reversal against the position"},
		}
	}

	var evidence []string

	if ratio, ok := drawdownRatio(t, price); ok && ratio >= drawdownCautionRatio {
		evidence = append(evidence,
			fmt.Sprintf("Drawdown at %.0f%% of the entry-to-stop distance", ratio*100))
	}

	if ctx.Regime == RegimeChoppy || ctx.Regime == RegimeNeutral {
		evidence = append(evidence, "Market regime is choppy with no clear direction")
	}

	if biasFlipped(t.Direction, ctx.BiasScore) {
		evidence = append(evidence,
			fmt.Sprintf("Composite bias (%.0f) has flipped against the trade", ctx.BiasScore))
	}

	if ctx.MomentumFlip != "" && ctx.MomentumFlip != t.Direction {
		evidence = append(evidence, "Momentum indicator flipped against the trade")
	}

	switch t.Direction {
	case trade.DirectionLong:
		if ctx.RSIOverbought && ctx.UpperBandBreach {
			evidence = append(evidence, "Overbought with an upper band breach, exhaustion risk")
		}
	case trade.DirectionShort:
		if ctx.RSIOversold && ctx.LowerBandBreach {
			evidence = append(evidence, "Oversold with a lower band breach, exhaustion risk")
		}
	}

	if len(evidence) > 0 {
		return Verdict{Status: trade.GuidanceCaution, Evidence: evidence}
	}
	return Verdict{Status: trade.GuidanceHold, Evidence: []string{"Structure intact, no adverse signals"}}
}

func stopBreached(t *trade.ActiveTrade, price float64) bool {
	if t.Direction == trade.DirectionShort {
		return price >= t.StopLoss
	}
	return price <= t.StopLoss
}

// drawdownRatio is the adverse move as a fraction of the entry-to-stop
// distance. The single formula covers both directions: the ratio is negative
// while the trade is in profit. A degenerate entry==stop has no defined ratio.
func drawdownRatio(t *trade.ActiveTrade, price float64) (float64, bool) {
	dist := t.StopLoss - t.EntryPrice
	if dist == 0 {
		return 0, false
	}
	return (price - t.EntryPrice) / dist, true
}

func biasFlipped(dir trade.Direction, bias float64) bool {
	if dir == trade.DirectionShort {
		return bias >= biasFlipMargin
	}
	return bias <= -biasFlipMargin
}

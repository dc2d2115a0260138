// Package scenario defines the trade-scenario shape produced by upstream
// analysis and the ranking heuristic that orders scenarios for a user.
package scenario

import (
	"sort"
	"strings"

	"github.com/ishaygamliely-create/SoloTrading-sub001/internal/trade"
)

// TradeScenario is a candidate setup generated upstream: an entry zone, a stop,
// targets and classification tags. Score is filled in by ranking.
type TradeScenario struct {
	ID        string             `json:"id"`
	Symbol    string             `json:"symbol"`
	Direction trade.Direction    `json:"direction"`
	Setup     string             `json:"setup"`
	Timeframe string             `json:"timeframe"`
	EntryLow  float64            `json:"entryLow"`
	EntryHigh float64            `json:"entryHigh"`
	Stop      float64            `json:"stop"`
	Targets   []float64          `json:"targets"`
	Contract  trade.ContractType `json:"contractType"`
	Tags      []string           `json:"tags"`
	Score     float64            `json:"score,omitempty"`
}

// BookmarkRequest converts the scenario into the shape the trade manager
// accepts, with the zone midpoint as the working entry price.
func (s TradeScenario) BookmarkRequest() trade.BookmarkRequest {
	return trade.BookmarkRequest{
		ScenarioID: s.ID,
		Symbol:     s.Symbol,
		Direction:  s.Direction,
		Setup:      s.Setup,
		Timeframe:  s.Timeframe,
		EntryPrice: (s.EntryLow + s.EntryHigh) / 2,
		StopLoss:   s.Stop,
		Targets:    s.Targets,
		Contract:   s.Contract,
	}
}

// Ranker orders scenarios by fit for a user. The core only depends on this
// interface; KeywordRanker is the default implementation.
type Ranker interface {
	Rank(scenarios []TradeScenario, weights map[string]float64) []TradeScenario
}

// KeywordRanker scores each scenario by summing the weights of its tags. It is
// pure and stateless: the same input always produces the same order.
type KeywordRanker struct{}

// Rank returns a new slice sorted by score descending. Ties keep their input
// order so upstream ordering acts as the tiebreaker.
func (KeywordRanker) Rank(scenarios []TradeScenario, weights map[string]float64) []TradeScenario {
	out := make([]TradeScenario, len(scenarios))
	copy(out, scenarios)

	for i := range out {
		var score float64
		for _, tag := range out[i].Tags {
			score += weights[strings.ToLower(tag)]
		}
		out[i].Score = score
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

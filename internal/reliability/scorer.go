// Package reliability discounts raw analysis scores by the quality of the data
// that produced them. Scoring is pure: nothing is persisted and nothing is
// fetched.
package reliability

import (
	"time"

	"github.com/ishaygamliely-create/SoloTrading-sub001/internal/market"
)

// DataStatus classifies the freshness of the feed behind a score.
type DataStatus string

const (
	StatusOK      DataStatus = "OK"
	StatusDelayed DataStatus = "DELAYED"
	StatusClosed  DataStatus = "CLOSED"
)

// Input carries everything needed to discount one raw score.
type Input struct {
	RawScore      float64           `json:"rawScore"` // 0-100
	LastBarTimeMs int64             `json:"lastBarTimeMs"`
	Source        market.DataSource `json:"source"`
	MarketStatus  market.Status     `json:"marketStatus"`
}

// Result is the discounted score with its provenance flags.
type Result struct {
	FinalScore float64    `json:"finalScore"`
	Status     DataStatus `json:"status"`
	CapApplied bool       `json:"capApplied"`
	DataAgeMs  int64      `json:"dataAgeMs"`
}

// Score discounts a raw score using the current wall clock.
func Score(in Input) Result {
	return ScoreAt(in, time.Now())
}

// ScoreAt discounts a raw score as of the given instant.
//
// A closed market passes the raw score through untouched: stale data is the
// expected state outside trading hours and must never be penalized. Otherwise
// the score is capped by source trust, and the status reflects staleness only.
// Capping and staleness are deliberately independent signals: a fresh feed from
// a low-trust source still reads OK even when its score was capped.
func ScoreAt(in Input, now time.Time) Result {
	if in.MarketStatus == market.StatusClosed {
		return Result{
			FinalScore: in.RawScore,
			Status:     StatusClosed,
			CapApplied: false,
		}
	}

	ageMs := now.UnixMilli() - in.LastBarTimeMs

	status := StatusOK
	if ageMs > in.Source.StalenessThreshold().Milliseconds() {
		status = StatusDelayed
	}

	final := in.RawScore
	if cap := in.Source.TrustCap(); final > cap {
		final = cap
	}

	return Result{
		FinalScore: final,
		Status:     status,
		CapApplied: final != in.RawScore,
		DataAgeMs:  ageMs,
	}
}

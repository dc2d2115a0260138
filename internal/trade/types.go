// Package trade owns the bookmarked-trade list and the single active trade,
// including its lifecycle state machine and guidance log.
package trade

import (
	"math"
	"time"
)

// Direction is the side of a trade. NEUTRAL exists only on scenarios and can
// never reach a saved or active trade.
type Direction string

const (
	DirectionLong    Direction = "LONG"
	DirectionShort   Direction = "SHORT"
	DirectionNeutral Direction = "NEUTRAL"
)

// ContractType selects the traded futures contract.
type ContractType string

const (
	ContractMNQ ContractType = "MNQ"
	ContractNQ  ContractType = "NQ"
)

// PointValue returns the dollar value of one index point per contract.
func (c ContractType) PointValue() float64 {
	if c == ContractNQ {
		return 20
	}
	return 2
}

// State is the lifecycle state of the active trade.
type State string

const (
	StateSelected   State = "SELECTED"
	StateConfirming State = "CONFIRMING"
	StateManaging   State = "MANAGING"
	StateClosed     State = "CLOSED"
)

// GuidanceStatus is the verdict level of one guidance evaluation.
type GuidanceStatus string

const (
	GuidanceHold    GuidanceStatus = "HOLD"
	GuidanceCaution GuidanceStatus = "CAUTION"
	GuidanceExit    GuidanceStatus = "EXIT"
)

// GuidanceMessage is one logged guidance verdict with its supporting evidence.
type GuidanceMessage struct {
	Timestamp time.Time      `json:"timestamp"`
	Status    GuidanceStatus `json:"status"`
	Action    string         `json:"action"`
	Evidence  []string       `json:"evidence"`
}

// SavedTrade is an immutable bookmark of a candidate trade.
type SavedTrade struct {
	ID         string       `json:"id"`
	ScenarioID string       `json:"scenarioId"`
	Symbol     string       `json:"symbol"`
	Direction  Direction    `json:"direction"`
	Setup      string       `json:"setup"`
	Timeframe  string       `json:"timeframe"`
	EntryPrice float64      `json:"entryPrice"`
	StopLoss   float64      `json:"stopLoss"`
	Targets    []float64    `json:"targets"`
	CreatedAt  time.Time    `json:"createdAt"`
	Contract   ContractType `json:"contractType"`
}

// ActiveTrade is the one trade currently under management. The guidance log is
// ordered newest first.
type ActiveTrade struct {
	SavedTrade
	State        State             `json:"state"`
	EnteredAt    *time.Time        `json:"enteredAt,omitempty"`
	MaxRisk      float64           `json:"maxRisk"`
	PositionSize int               `json:"positionSize"`
	Guidance     []GuidanceMessage `json:"guidance"`
}

// RiskPerContract is the dollar risk of one contract between entry and stop.
// Zero means risk is undefined (entry equals stop) and no risk math may divide
// by it.
func (t *SavedTrade) RiskPerContract() float64 {
	return math.Abs(t.EntryPrice-t.StopLoss) * t.Contract.PointValue()
}

// PositionSizeFor computes floor(maxRisk / riskPerContract), never below one
// contract. The degenerate entry==stop case has no defined risk and defaults to
// a single contract.
func PositionSizeFor(maxRisk float64, t *SavedTrade) int {
	rpc := t.RiskPerContract()
	if rpc == 0 {
		return 1
	}
	size := int(math.Floor(maxRisk / rpc))
	if size < 1 {
		return 1
	}
	return size
}

// ParamsPatch is a merge-patch of the fields editable before MANAGING.
type ParamsPatch struct {
	EntryPrice   *float64      `json:"entryPrice,omitempty"`
	PositionSize *int          `json:"positionSize,omitempty"`
	MaxRisk      *float64      `json:"maxRisk,omitempty"`
	Contract     *ContractType `json:"contractType,omitempty"`
}

// BookmarkRequest carries the scenario fields needed to create a SavedTrade.
// It exists so the scenario package can depend on trade and not the reverse.
type BookmarkRequest struct {
	ScenarioID string
	Symbol     string
	Direction  Direction
	Setup      string
	Timeframe  string
	EntryPrice float64
	StopLoss   float64
	Targets    []float64
	Contract   ContractType
}

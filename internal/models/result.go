package models

import "time"

// PlannedLeg is a concrete, sized leg ready for submission to the portfolio.
type PlannedLeg struct {
	Symbol    string
	Strike    float64
	Side      OptionSide
	Direction LegDirection
	Quantity  int // total units (lots * lot size * leg multiplier)
	Price     float64
}

// ExecutionPlan binds a candidate to concrete strikes, prices and sizing.
// Synthetic is set when the straddle legs sit at different strikes because
// the exact ATM strike had no live prices on both sides.
type ExecutionPlan struct {
	Strategy       string
	Lots           int
	Legs           []PlannedLeg
	Synthetic      bool
	CallStrike     float64
	PutStrike      float64
	PremiumPerLot  float64 // signed, per lot-size units; positive = credit
	MaxProfitLot   float64
	MaxLossLot     float64
	RequiredCash   float64
	RiskAllocation float64
}

// ExecutionResult is the outcome of one execute_optimal_strategy invocation.
// Leg execution is sequential and non-transactional: on partial fills the
// already-filled legs stay open and FailedLegs lists what did not fill.
type ExecutionResult struct {
	Success      bool
	Strategy     string
	Lots         int
	Premium      float64 // signed; positive = credit received
	MaxProfit    float64
	MaxLoss      float64
	Legs         []PlannedLeg
	FilledLegs   []PlannedLeg
	FailedLegs   []string
	ErrorCode    string
	Reason       string
	FallbackFrom string
	Attempted    []string
}

// SelectionResult is the outcome of pure strategy selection. It is created
// once per request and immutable after return.
type SelectionResult struct {
	Strategy     string
	Confidence   float64
	Reason       string
	Candidate    Candidate
	Alternatives []Candidate
	State        MarketState
	Snapshot     RegimeSnapshot
	Timestamp    time.Time
}

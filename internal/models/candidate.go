package models

// Strategy names produced by the analyzers.
const (
	StrategyStraddle      = "straddle"
	StrategyStrangle      = "strangle"
	StrategyIronCondor    = "iron_condor"
	StrategyCallButterfly = "call_butterfly"
	StrategyPutButterfly  = "put_butterfly"
)

// LegDirection represents the direction of a strategy leg.
type LegDirection string

const (
	LegBuy  LegDirection = "BUY"
	LegSell LegDirection = "SELL"
)

// StrategyLeg is one leg of a candidate, referencing a live chain contract.
type StrategyLeg struct {
	Contract  *OptionContract
	Direction LegDirection
	Quantity  int // lot multiplier within the structure
}

// Candidate is the output of a strategy analyzer.
//
// NetPremium is signed: positive is a cash inflow (credit strategies),
// negative is a cash outflow (debit strategies). A candidate with zero
// confidence and no legs is a hold.
type Candidate struct {
	Strategy   string
	Confidence float64 // [0, 1]
	Legs       []StrategyLeg
	NetPremium float64
	MaxProfit  float64
	MaxLoss    float64
	Breakevens []float64
	Reasons    []string
}

// Hold returns a neutral no-trade candidate for the given strategy.
// Analyzers return holds instead of errors when the chain lacks data.
func Hold(strategy string, reasons ...string) Candidate {
	return Candidate{Strategy: strategy, Reasons: reasons}
}

// IsHold reports whether the candidate is a no-trade result.
func (c Candidate) IsHold() bool {
	return c.Confidence <= 0 || len(c.Legs) == 0
}

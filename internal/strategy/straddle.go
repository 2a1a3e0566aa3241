package strategy

import (
	"fmt"
	"math"

	"options-trader/internal/chain"
	"options-trader/internal/config"
	"options-trader/internal/models"
)

// Straddle scores a long ATM straddle: buy the ATM call and put, profiting
// when the expected move exceeds the premium paid.
type Straddle struct {
	params config.StrategyParams
}

// NewStraddle creates a straddle analyzer.
func NewStraddle(params config.StrategyParams) *Straddle {
	return &Straddle{params: params}
}

// Name returns the strategy name.
func (s *Straddle) Name() string { return models.StrategyStraddle }

// Analyze selects the ATM strike and scores the straddle by the ratio of the
// IV-implied expected move to the premium paid.
func (s *Straddle) Analyze(c *chain.Chain) models.Candidate {
	if !validChain(c) {
		return models.Hold(s.Name(), "no chain data")
	}

	strike := c.ATMStrike(c.Spot)
	call, put := c.Call(strike), c.Put(strike)
	if !call.Live() || !put.Live() {
		return models.Hold(s.Name(), fmt.Sprintf("no live call/put pair at ATM strike %.0f", strike))
	}

	premium := call.LastPrice + put.LastPrice
	if premium <= 0 {
		return models.Hold(s.Name(), "zero straddle premium")
	}

	avgIV := (call.IV + put.IV) / 2
	move := expectedMove(c.Spot, avgIV, c.DaysToExpiry())
	confidence := math.Min(move/premium, 1)

	if confidence <= s.params.StraddleMinConfidence {
		return models.Hold(s.Name(),
			fmt.Sprintf("expected move %.1f does not cover premium %.1f (confidence %.2f)", move, premium, confidence))
	}

	return models.Candidate{
		Strategy:   s.Name(),
		Confidence: confidence,
		Legs: []models.StrategyLeg{
			{Contract: call, Direction: models.LegBuy, Quantity: 1},
			{Contract: put, Direction: models.LegBuy, Quantity: 1},
		},
		NetPremium: -premium,
		MaxProfit:  math.Inf(1),
		MaxLoss:    premium,
		Breakevens: []float64{strike + premium, strike - premium},
		Reasons: []string{
			fmt.Sprintf("expected move %.1f vs premium %.1f at strike %.0f", move, premium, strike),
		},
	}
}

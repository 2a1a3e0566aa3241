package strategy

import (
	"fmt"
	"math"

	"options-trader/internal/chain"
	"options-trader/internal/config"
	"options-trader/internal/models"
)

// Strangle scores a long OTM strangle: buy a call above spot and a put below
// spot, a cheaper volatility bet than the straddle.
type Strangle struct {
	params config.StrategyParams
}

// NewStrangle creates a strangle analyzer.
func NewStrangle(params config.StrategyParams) *Strangle {
	return &Strangle{params: params}
}

// Name returns the strategy name.
func (s *Strangle) Name() string { return models.StrategyStrangle }

// Analyze picks the nearest strike at or beyond the OTM distance on each side
// and blends expected-move coverage, premium cheapness and strike width into
// the confidence score.
func (s *Strangle) Analyze(c *chain.Chain) models.Candidate {
	if !validChain(c) {
		return models.Hold(s.Name(), "no chain data")
	}

	pct := s.params.StrangleOTMPercent
	callTarget := c.Spot * (1 + pct)
	putTarget := c.Spot * (1 - pct)

	var call, put *models.OptionContract
	strikes := c.Strikes()
	for _, k := range strikes {
		if k >= callTarget {
			if ct := c.Call(k); ct.Live() {
				call = ct
				break
			}
		}
	}
	for i := len(strikes) - 1; i >= 0; i-- {
		if strikes[i] <= putTarget {
			if ct := c.Put(strikes[i]); ct.Live() {
				put = ct
				break
			}
		}
	}

	if call == nil || put == nil {
		return models.Hold(s.Name(), fmt.Sprintf("no live OTM pair %.1f%% from spot", pct*100))
	}

	premium := call.LastPrice + put.LastPrice
	if premium <= 0 {
		return models.Hold(s.Name(), "zero strangle premium")
	}

	avgIV := (call.IV + put.IV) / 2
	move := expectedMove(c.Spot, avgIV, c.DaysToExpiry())
	widthPct := (call.Strike - put.Strike) / c.Spot

	// Blend: expected-move coverage, premium as a fraction of spot (cheap is
	// better), and width of the captured range.
	p := s.params
	confidence := p.StrangleCoverageWeight*math.Min(move/premium, 1) +
		p.StrangleCheapnessWeight*math.Max(0, p.StranglePremiumNorm-premium/c.Spot) +
		(p.StrangleWidthWeight/p.StrangleWidthCap)*math.Min(widthPct, p.StrangleWidthCap)
	confidence = math.Min(confidence, p.StrangleMaxConfidence)

	if confidence < s.params.StrangleMinConfidence {
		return models.Hold(s.Name(), fmt.Sprintf("confidence %.2f below threshold", confidence))
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
		Breakevens: []float64{call.Strike + premium, put.Strike - premium},
		Reasons: []string{
			fmt.Sprintf("call %.0f / put %.0f, premium %.1f, expected move %.1f", call.Strike, put.Strike, premium, move),
		},
	}
}

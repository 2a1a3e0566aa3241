package strategy

import (
	"fmt"
	"math"
	"sort"

	"options-trader/internal/chain"
	"options-trader/internal/config"
	"options-trader/internal/models"
)

// Butterfly scores a long butterfly in a single option side: buy the wings,
// sell two at the middle strike nearest spot. The call variant expresses a
// mildly bullish pin, the put variant a mildly bearish one.
type Butterfly struct {
	params config.StrategyParams
	side   models.OptionSide
}

// NewButterfly creates a butterfly analyzer for the given side.
func NewButterfly(params config.StrategyParams, side models.OptionSide) *Butterfly {
	return &Butterfly{params: params, side: side}
}

// Name returns the strategy name for the variant.
func (b *Butterfly) Name() string {
	if b.side == models.Call {
		return models.StrategyCallButterfly
	}
	return models.StrategyPutButterfly
}

func (b *Butterfly) contract(c *chain.Chain, strike float64) *models.OptionContract {
	if b.side == models.Call {
		return c.Call(strike)
	}
	return c.Put(strike)
}

// Analyze picks the middle strike nearest spot and the closest wings at
// least the minimum spacing away, so near-duplicate strikes cannot collapse
// the structure. A non-positive net debit is a hold.
func (b *Butterfly) Analyze(c *chain.Chain) models.Candidate {
	if !validChain(c) {
		return models.Hold(b.Name(), "no chain data")
	}

	var strikes []float64
	for _, k := range c.Strikes() {
		if b.contract(c, k).Live() {
			strikes = append(strikes, k)
		}
	}
	if len(strikes) < 3 {
		return models.Hold(b.Name(), "fewer than three live strikes")
	}
	sort.Float64s(strikes)

	middle := strikes[0]
	bestDist := math.Abs(strikes[0] - c.Spot)
	for _, k := range strikes[1:] {
		if d := math.Abs(k - c.Spot); d < bestDist {
			middle = k
			bestDist = d
		}
	}

	minSpacing := c.Spot * b.params.ButterflyMinSpacingPct
	var lower, upper float64
	for i := len(strikes) - 1; i >= 0; i-- {
		if middle-strikes[i] >= minSpacing {
			lower = strikes[i]
			break
		}
	}
	for _, k := range strikes {
		if k-middle >= minSpacing {
			upper = k
			break
		}
	}
	if lower == 0 || upper == 0 {
		return models.Hold(b.Name(), fmt.Sprintf("no wings at least %.0f points from %.0f", minSpacing, middle))
	}

	lo, mid, up := b.contract(c, lower), b.contract(c, middle), b.contract(c, upper)
	debit := lo.LastPrice + up.LastPrice - 2*mid.LastPrice
	if debit <= 0 {
		return models.Hold(b.Name(), fmt.Sprintf("net debit %.2f not positive", debit))
	}

	wing := math.Min(middle-lower, upper-middle)
	if wing <= 0 {
		return models.Hold(b.Name(), "degenerate wing width")
	}
	maxProfit := math.Max(0, wing-debit)

	rr := math.Min(maxProfit/debit, 1)
	avgIV := (lo.IV + mid.IV + up.IV) / 3
	ivFactor := ivFit(avgIV, b.params.ButterflyIVFitLow, b.params.ButterflyIVFitHigh)
	widthFactor := math.Min(wing/c.Spot, b.params.ButterflyWidthCap) * b.params.ButterflyWidthScale

	confidence := b.params.ButterflyRRWeight*rr +
		b.params.ButterflyIVFitWeight*ivFactor +
		b.params.ButterflyWidthWeight*widthFactor
	confidence = math.Min(confidence, b.params.ButterflyMaxConfidence)

	if confidence < b.params.ButterflyMinConfidence {
		return models.Hold(b.Name(), fmt.Sprintf("confidence %.2f below threshold", confidence))
	}

	return models.Candidate{
		Strategy:   b.Name(),
		Confidence: confidence,
		Legs: []models.StrategyLeg{
			{Contract: lo, Direction: models.LegBuy, Quantity: 1},
			{Contract: mid, Direction: models.LegSell, Quantity: 2},
			{Contract: up, Direction: models.LegBuy, Quantity: 1},
		},
		NetPremium: -debit,
		MaxProfit:  maxProfit,
		MaxLoss:    debit,
		Breakevens: []float64{lower + debit, upper - debit},
		Reasons: []string{
			fmt.Sprintf("%.0f/%.0f/%.0f %s fly, debit %.2f", lower, middle, upper, b.side, debit),
		},
	}
}

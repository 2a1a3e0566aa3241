package strategy

import (
	"fmt"
	"math"

	"options-trader/internal/chain"
	"options-trader/internal/config"
	"options-trader/internal/models"
)

// IronCondor scores a short iron condor: sell the first OTM call and put,
// buy protective wings one width further out, collecting a net credit while
// spot stays inside the short strikes.
type IronCondor struct {
	params config.StrategyParams
}

// NewIronCondor creates an iron condor analyzer.
func NewIronCondor(params config.StrategyParams) *IronCondor {
	return &IronCondor{params: params}
}

// Name returns the strategy name.
func (ic *IronCondor) Name() string { return models.StrategyIronCondor }

// Analyze resolves the four legs and blends risk/reward, liquidity, IV fit
// and wing-width efficiency into the confidence score. A non-positive net
// credit is a hold, never a candidate.
func (ic *IronCondor) Analyze(c *chain.Chain) models.Candidate {
	if !validChain(c) {
		return models.Hold(ic.Name(), "no chain data")
	}

	strikes := c.Strikes()
	width := ic.params.CondorWingWidth

	sellCall := firstLive(strikes, func(k float64) *models.OptionContract {
		if k > c.Spot {
			return c.Call(k)
		}
		return nil
	})
	sellPut := lastLive(strikes, func(k float64) *models.OptionContract {
		if k < c.Spot {
			return c.Put(k)
		}
		return nil
	})
	if sellCall == nil || sellPut == nil {
		return models.Hold(ic.Name(), "no live short strikes around spot")
	}

	buyCall := firstLive(strikes, func(k float64) *models.OptionContract {
		if k >= sellCall.Strike+width {
			return c.Call(k)
		}
		return nil
	})
	buyPut := lastLive(strikes, func(k float64) *models.OptionContract {
		if k <= sellPut.Strike-width {
			return c.Put(k)
		}
		return nil
	})
	if buyCall == nil || buyPut == nil {
		return models.Hold(ic.Name(), fmt.Sprintf("no live wings %.0f points out", width))
	}

	credit := (sellCall.LastPrice + sellPut.LastPrice) - (buyCall.LastPrice + buyPut.LastPrice)
	if credit <= 0 {
		return models.Hold(ic.Name(), fmt.Sprintf("net credit %.2f not positive", credit))
	}

	callWing := buyCall.Strike - sellCall.Strike
	putWing := sellPut.Strike - buyPut.Strike
	maxLoss := math.Max(callWing, putWing) - credit
	if maxLoss <= 0 {
		return models.Hold(ic.Name(), "credit exceeds wing width")
	}
	maxProfit := credit

	rrFactor := math.Min(maxProfit/maxLoss, 1) * ic.params.CondorRRScale
	avgOI := float64(sellCall.OpenInterest+sellPut.OpenInterest+buyCall.OpenInterest+buyPut.OpenInterest) / 4
	liqFactor := math.Min(avgOI/ic.params.CondorLiquidityNorm, 1)
	avgIV := (sellCall.IV + sellPut.IV + buyCall.IV + buyPut.IV) / 4
	ivFactor := ivFit(avgIV, ic.params.CondorIVFitLow, ic.params.CondorIVFitHigh)
	widthFactor := math.Min((callWing+putWing)/c.Spot*ic.params.CondorWidthScale, 1)

	confidence := ic.params.CondorRRWeight*rrFactor +
		ic.params.CondorLiquidityWght*liqFactor +
		ic.params.CondorIVFitWeight*ivFactor +
		ic.params.CondorWidthWeight*widthFactor
	confidence = clamp(confidence, 0, 1)

	if confidence <= ic.params.CondorMinConfidence {
		return models.Hold(ic.Name(), fmt.Sprintf("confidence %.2f below threshold", confidence))
	}

	return models.Candidate{
		Strategy:   ic.Name(),
		Confidence: confidence,
		Legs: []models.StrategyLeg{
			{Contract: sellCall, Direction: models.LegSell, Quantity: 1},
			{Contract: buyCall, Direction: models.LegBuy, Quantity: 1},
			{Contract: sellPut, Direction: models.LegSell, Quantity: 1},
			{Contract: buyPut, Direction: models.LegBuy, Quantity: 1},
		},
		NetPremium: credit,
		MaxProfit:  maxProfit,
		MaxLoss:    maxLoss,
		Breakevens: []float64{sellCall.Strike + credit, sellPut.Strike - credit},
		Reasons: []string{
			fmt.Sprintf("short %.0f/%.0f wings %.0f/%.0f, credit %.2f", sellPut.Strike, sellCall.Strike, buyPut.Strike, buyCall.Strike, credit),
		},
	}
}

// firstLive scans strikes ascending and returns the first live contract the
// picker yields.
func firstLive(strikes []float64, pick func(float64) *models.OptionContract) *models.OptionContract {
	for _, k := range strikes {
		if ct := pick(k); ct.Live() {
			return ct
		}
	}
	return nil
}

// lastLive scans strikes descending and returns the first live contract the
// picker yields.
func lastLive(strikes []float64, pick func(float64) *models.OptionContract) *models.OptionContract {
	for i := len(strikes) - 1; i >= 0; i-- {
		if ct := pick(strikes[i]); ct.Live() {
			return ct
		}
	}
	return nil
}

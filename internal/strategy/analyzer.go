// Package strategy implements the per-strategy candidate analyzers. Each
// analyzer scores one multi-leg setup from the option chain and returns a
// hold (zero confidence) instead of erroring when the chain lacks the data
// the strategy needs.
package strategy

import (
	"math"

	"options-trader/internal/chain"
	"options-trader/internal/config"
	"options-trader/internal/models"
)

// Analyzer scores one strategy shape against a chain.
type Analyzer interface {
	Name() string
	Analyze(c *chain.Chain) models.Candidate
}

// All returns every analyzer variant the selector can iterate, keyed by the
// closed set of strategy names.
func All(params config.StrategyParams) []Analyzer {
	return []Analyzer{
		NewStraddle(params),
		NewStrangle(params),
		NewIronCondor(params),
		NewButterfly(params, models.Call),
		NewButterfly(params, models.Put),
	}
}

// ByName returns the analyzer for the given strategy name, or nil.
func ByName(params config.StrategyParams, name string) Analyzer {
	for _, a := range All(params) {
		if a.Name() == name {
			return a
		}
	}
	return nil
}

// expectedMove is the one-sigma move of the underlying to expiry:
// spot * IV * sqrt(days/365).
func expectedMove(spot, ivPercent, days float64) float64 {
	if days <= 0 {
		return 0
	}
	return spot * (ivPercent / 100) * math.Sqrt(days/365)
}

// ivFit scores how well the average IV sits inside [low, high] percent:
// 1.0 inside the band, linearly decaying to zero 20 points outside it.
func ivFit(iv, low, high float64) float64 {
	const decaySpan = 20
	switch {
	case iv >= low && iv <= high:
		return 1
	case iv < low:
		return math.Max(0, 1-(low-iv)/decaySpan)
	default:
		return math.Max(0, 1-(iv-high)/decaySpan)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func validChain(c *chain.Chain) bool {
	return c != nil && c.Spot > 0
}

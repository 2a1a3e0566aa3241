// Package regime classifies the market into a composite state from the
// option chain's volatility surface, the trend snapshot supplied by the
// regime-detection collaborator, and chain liquidity.
package regime

import (
	"math"

	"options-trader/internal/chain"
	"options-trader/internal/config"
	"options-trader/internal/models"
)

// VolRegime buckets average implied volatility.
type VolRegime string

const (
	VolLow    VolRegime = "LOW"
	VolNormal VolRegime = "NORMAL"
	VolHigh   VolRegime = "HIGH"
)

// Assessment is the full regime view feeding strategy gating.
type Assessment struct {
	State           models.MarketState
	VolRegime       VolRegime
	AvgIV           float64
	Composite       float64
	VolFactor       float64
	TrendFactor     float64
	SentimentFactor float64
	LiquidityScore  float64
	Trending        bool
	Snapshot        models.RegimeSnapshot
}

// Classifier combines volatility, trend and liquidity signals.
type Classifier struct {
	params config.StrategyParams
}

// NewClassifier creates a regime classifier.
func NewClassifier(params config.StrategyParams) *Classifier {
	return &Classifier{params: params}
}

// Classify computes the composite market state for one chain and snapshot.
// The composite score is the plain average of the three factors, thresholded
// into volatile_trending / moderately_active / calm_sideways.
func (cl *Classifier) Classify(c *chain.Chain, snap models.RegimeSnapshot) Assessment {
	a := Assessment{Snapshot: snap}

	a.AvgIV = averageIV(c)
	a.VolRegime = cl.classifyVol(a.AvgIV)
	a.VolFactor = volFactor(a.VolRegime)

	a.Trending = snap.Bias != models.BiasNeutral && snap.ADX >= cl.params.ADXTrendThreshold
	a.TrendFactor = cl.trendFactor(snap, a.Trending)

	a.LiquidityScore = cl.liquidityScore(c)
	a.SentimentFactor = a.LiquidityScore

	a.Composite = (a.VolFactor + a.TrendFactor + a.SentimentFactor) / 3

	switch {
	case a.Composite > cl.params.StateVolatileMin:
		a.State = models.StateVolatileTrending
	case a.Composite > cl.params.StateActiveMin:
		a.State = models.StateModeratelyActive
	default:
		a.State = models.StateCalmSideways
	}

	return a
}

func (cl *Classifier) classifyVol(avgIV float64) VolRegime {
	switch {
	case avgIV < cl.params.IVLowMax:
		return VolLow
	case avgIV <= cl.params.IVNormalMax:
		return VolNormal
	default:
		return VolHigh
	}
}

// volFactor maps the volatility bucket onto [0, 1]. The step values are
// inherited heuristics kept alongside the other weight constants.
func volFactor(v VolRegime) float64 {
	switch v {
	case VolHigh:
		return 0.9
	case VolNormal:
		return 0.6
	default:
		return 0.3
	}
}

func (cl *Classifier) trendFactor(snap models.RegimeSnapshot, trending bool) float64 {
	if trending {
		return clamp01(snap.ADX / 50)
	}
	// Non-trending: a weak residual from the short-term slope.
	return clamp01(0.3 + math.Min(math.Abs(snap.Slope), 0.2))
}

// liquidityScore blends total open interest (capped at the configured norm)
// with a volume/OI turnover ratio as the bid/ask-equivalent efficiency proxy.
func (cl *Classifier) liquidityScore(c *chain.Chain) float64 {
	if c == nil {
		return 0
	}
	var totalOI, totalVol int64
	for _, ct := range c.Calls {
		totalOI += ct.OpenInterest
		totalVol += ct.Volume
	}
	for _, ct := range c.Puts {
		totalOI += ct.OpenInterest
		totalVol += ct.Volume
	}

	oiFactor := clamp01(float64(totalOI) / cl.params.TotalOINorm)
	var turnover float64
	if totalOI > 0 {
		turnover = clamp01(float64(totalVol) / float64(totalOI))
	}
	return 0.5*oiFactor + 0.5*turnover
}

func averageIV(c *chain.Chain) float64 {
	if c == nil {
		return 0
	}
	var sum float64
	var n int
	for _, ct := range c.Calls {
		if ct.IV > 0 {
			sum += ct.IV
			n++
		}
	}
	for _, ct := range c.Puts {
		if ct.IV > 0 {
			sum += ct.IV
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

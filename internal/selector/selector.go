// Package selector orchestrates strategy selection and execution planning:
// it ranks analyzer candidates under the market regime, validates signal
// strength, binds the winner to concrete legs, sizes the position and walks
// the fallback ladder when execution fails.
package selector

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"options-trader/internal/chain"
	"options-trader/internal/config"
	"options-trader/internal/models"
	"options-trader/internal/regime"
	"options-trader/internal/strategy"
)

// proposal is a state-driven strategy suggestion with a fixed base
// confidence, used when the analyzer holds but the regime still argues for
// the shape.
type proposal struct {
	strategy   string
	confidence float64
	reason     string
}

// Selector ranks strategy candidates for a chain under a regime snapshot.
// It is pure: no side effects, usable offline.
type Selector struct {
	params     config.StrategyParams
	analyzers  map[string]strategy.Analyzer
	classifier *regime.Classifier
	log        zerolog.Logger
}

// New creates a selector with all analyzer variants registered.
func New(params config.StrategyParams, logger zerolog.Logger) *Selector {
	analyzers := make(map[string]strategy.Analyzer)
	for _, a := range strategy.All(params) {
		analyzers[a.Name()] = a
	}
	return &Selector{
		params:     params,
		analyzers:  analyzers,
		classifier: regime.NewClassifier(params),
		log:        logger,
	}
}

// SelectStrategy classifies the regime, validates signal strength and returns
// the ranked candidates for the chain. A weak composite signal routes to a
// conservative straddle instead of trusting the ranking.
func (s *Selector) SelectStrategy(c *chain.Chain, snap models.RegimeSnapshot) *models.SelectionResult {
	assessment := s.classifier.Classify(c, snap)

	strength := s.signalStrength(assessment, snap)
	if strength < s.params.SignalMinStrength {
		cand := s.conservativeStraddle(c, strength)
		return &models.SelectionResult{
			Strategy:   cand.Strategy,
			Confidence: cand.Confidence,
			Reason:     fmt.Sprintf("signal strength %.2f below %.2f, defaulting to conservative straddle", strength, s.params.SignalMinStrength),
			Candidate:  cand,
			State:      assessment.State,
			Snapshot:   snap,
			Timestamp:  time.Now(),
		}
	}

	candidates := s.generate(c, assessment)
	candidates = s.gateTrending(c, candidates, assessment)
	sortByConfidence(candidates)

	if len(candidates) == 0 {
		cand := s.conservativeStraddle(c, strength)
		return &models.SelectionResult{
			Strategy:   cand.Strategy,
			Confidence: cand.Confidence,
			Reason:     "no candidate survived regime gating",
			Candidate:  cand,
			State:      assessment.State,
			Snapshot:   snap,
			Timestamp:  time.Now(),
		}
	}

	best := candidates[0]
	reason := ""
	if len(best.Reasons) > 0 {
		reason = best.Reasons[0]
	}
	s.log.Debug().
		Str("strategy", best.Strategy).
		Float64("confidence", best.Confidence).
		Str("state", string(assessment.State)).
		Int("alternatives", len(candidates)-1).
		Msg("Strategy ranked")

	return &models.SelectionResult{
		Strategy:     best.Strategy,
		Confidence:   best.Confidence,
		Reason:       reason,
		Candidate:    best,
		Alternatives: candidates[1:],
		State:        assessment.State,
		Snapshot:     snap,
		Timestamp:    time.Now(),
	}
}

// signalStrength blends the regime factors into one gate value. The four
// components contribute up to their fixed weights, which sum to 1.0.
func (s *Selector) signalStrength(a regime.Assessment, snap models.RegimeSnapshot) float64 {
	trend := math.Max(clamp01(snap.TrendStrength), clamp01(snap.ADX/50))
	return s.params.SignalStateWeight*a.Composite +
		s.params.SignalVolWeight*a.VolFactor +
		s.params.SignalTrendWeight*trend +
		s.params.SignalLiquidityWeight*a.LiquidityScore
}

// generate proposes strategies for the composite state and scores each with
// its analyzer. An analyzer hold falls back to the proposal's base
// confidence; the planner binds legs later in either case.
func (s *Selector) generate(c *chain.Chain, a regime.Assessment) []models.Candidate {
	var out []models.Candidate
	for _, p := range s.proposals(a) {
		analyzer, ok := s.analyzers[p.strategy]
		if !ok {
			continue
		}
		cand := analyzer.Analyze(c)
		if cand.IsHold() {
			cand = models.Candidate{
				Strategy:   p.strategy,
				Confidence: p.confidence,
				Reasons:    []string{p.reason},
			}
		} else {
			cand.Reasons = append(cand.Reasons, p.reason)
		}
		out = append(out, cand)
	}
	return out
}

func (s *Selector) proposals(a regime.Assessment) []proposal {
	bias := a.Snapshot.Bias
	switch a.State {
	case models.StateVolatileTrending:
		switch bias {
		case models.BiasBullish:
			return []proposal{
				{models.StrategyCallButterfly, 0.75, "volatile trending market with bullish bias"},
				{models.StrategyStrangle, 0.50, "volatility backup for trending market"},
			}
		case models.BiasBearish:
			return []proposal{
				{models.StrategyPutButterfly, 0.75, "volatile trending market with bearish bias"},
				{models.StrategyStrangle, 0.50, "volatility backup for trending market"},
			}
		default:
			return []proposal{
				{models.StrategyStraddle, 0.65, "volatile market without directional bias"},
				{models.StrategyStrangle, 0.55, "cheaper volatility exposure"},
			}
		}
	case models.StateModeratelyActive:
		return []proposal{
			{models.StrategyStrangle, 0.60, "moderately active market favors wide volatility capture"},
			{models.StrategyIronCondor, 0.55, "collect premium inside the active range"},
		}
	default: // calm_sideways
		return []proposal{
			{models.StrategyIronCondor, 0.60, "calm range-bound market favors premium collection"},
			{models.StrategyStrangle, 0.45, "low-cost tail exposure in quiet market"},
		}
	}
}

// gateTrending applies the hard trending gate: when bias is non-neutral and
// the directional strength clears the threshold, only the butterfly matching
// the bias survives, regardless of score.
func (s *Selector) gateTrending(c *chain.Chain, cands []models.Candidate, a regime.Assessment) []models.Candidate {
	if !a.Trending {
		return cands
	}

	want := models.StrategyCallButterfly
	if a.Snapshot.Bias == models.BiasBearish {
		want = models.StrategyPutButterfly
	}

	var out []models.Candidate
	for _, c := range cands {
		if c.Strategy == want {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		// The matching butterfly was not among the proposals; inject it so a
		// trending regime always has its directional play.
		reason := fmt.Sprintf("trending regime (ADX %.1f, %s) requires directional butterfly", a.Snapshot.ADX, a.Snapshot.Bias)
		cand := models.Candidate{Strategy: want, Confidence: 0.6, Reasons: []string{reason}}
		if analyzer, ok := s.analyzers[want]; ok {
			if scored := analyzer.Analyze(c); !scored.IsHold() {
				scored.Reasons = append(scored.Reasons, reason)
				cand = scored
			}
		}
		out = append(out, cand)
	}
	return out
}

// conservativeStraddle is the weak-signal default: the straddle analyzer's
// view if it emits, otherwise an unscored straddle the planner resolves.
func (s *Selector) conservativeStraddle(c *chain.Chain, strength float64) models.Candidate {
	cand := s.analyzers[models.StrategyStraddle].Analyze(c)
	if cand.IsHold() {
		cand = models.Candidate{
			Strategy:   models.StrategyStraddle,
			Confidence: 0.5,
			Reasons:    []string{fmt.Sprintf("conservative default under weak signal %.2f", strength)},
		}
	}
	return cand
}

func sortByConfidence(cands []models.Candidate) {
	for i := 1; i < len(cands); i++ {
		for j := i; j > 0 && cands[j].Confidence > cands[j-1].Confidence; j-- {
			cands[j], cands[j-1] = cands[j-1], cands[j]
		}
	}
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

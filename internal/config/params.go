package config

// StrategyParams carries every heuristic constant used by the analyzers,
// regime classifier, selector and planner. It is constructed once at process
// start and treated as immutable thereafter; nothing in the pipeline keeps
// package-level state.
//
// The weight splits and IV bands are inherited heuristics, not derived from
// a model. They are kept configurable rather than second-guessed.
type StrategyParams struct {
	// Pricing
	ATMTolerance float64 // |moneyness| at or below this counts as ATM

	// Straddle
	StraddleMinConfidence float64

	// Strangle
	StrangleOTMPercent      float64 // default OTM distance as a fraction of spot
	StrangleMinConfidence   float64
	StrangleMaxConfidence   float64
	StrangleCoverageWeight  float64 // expected move over premium, capped at 1
	StrangleCheapnessWeight float64
	StranglePremiumNorm     float64 // premium/spot fraction above which cheapness scores zero
	StrangleWidthWeight     float64
	StrangleWidthCap        float64 // width fraction earning the full width weight

	// Iron condor
	CondorWingWidth      float64 // wing width in strike points
	CondorMinConfidence  float64
	CondorRRWeight       float64
	CondorRRScale        float64
	CondorLiquidityNorm  float64 // OI that maps to a full liquidity score
	CondorLiquidityWght  float64
	CondorIVFitWeight    float64
	CondorIVFitLow       float64 // percent IV band for a perfect fit
	CondorIVFitHigh      float64
	CondorWidthWeight    float64
	CondorWidthScale     float64

	// Butterfly
	ButterflyMinSpacingPct float64 // min wing spacing as a fraction of spot
	ButterflyMinConfidence float64
	ButterflyMaxConfidence float64
	ButterflyRRWeight      float64
	ButterflyIVFitWeight   float64
	ButterflyIVFitLow      float64
	ButterflyIVFitHigh     float64
	ButterflyWidthWeight   float64
	ButterflyWidthCap      float64
	ButterflyWidthScale    float64

	// Regime classification
	IVLowMax          float64 // percent; below = low-volatility regime
	IVNormalMax       float64 // percent; above = high-volatility regime
	ADXTrendThreshold float64
	TotalOINorm       float64 // total OI mapping to a full liquidity factor
	StateVolatileMin  float64 // composite score above = volatile_trending
	StateActiveMin    float64 // composite score above = moderately_active

	// Signal validation weights (sum to 1.0)
	SignalStateWeight     float64
	SignalVolWeight       float64
	SignalTrendWeight     float64
	SignalLiquidityWeight float64
	SignalMinStrength     float64

	// Position sizing: per-strategy risk fractions of capital
	StraddleRiskFraction  float64
	CondorRiskFraction    float64
	StrangleRiskFraction  float64
	ButterflyRiskFraction float64
	ButterflyCashFraction float64
	ButterflyMaxLots      int
	// Relaxed ceiling (fraction of capital) allowing a single lot when the
	// risk-based count rounds to zero.
	MinLotCeilingDebit  float64
	MinLotCeilingCredit float64

	// Fallback order tried after the primary strategy fails.
	FallbackOrder []string

	// CorrelationGroups maps an index tag to its correlation group; two
	// indices in the same group conflict.
	CorrelationGroups map[string]string
}

// DefaultStrategyParams returns the default strategy parameters.
func DefaultStrategyParams() StrategyParams {
	return StrategyParams{
		ATMTolerance: 0.02,

		StraddleMinConfidence: 0.6,

		StrangleOTMPercent:      0.03,
		StrangleMinConfidence:   0.55,
		StrangleMaxConfidence:   0.95,
		StrangleCoverageWeight:  0.6,
		StrangleCheapnessWeight: 2.0,
		StranglePremiumNorm:     0.2,
		StrangleWidthWeight:     0.2,
		StrangleWidthCap:        0.15,

		CondorWingWidth:     200,
		CondorMinConfidence: 0.4,
		CondorRRWeight:      0.4,
		CondorRRScale:       0.8,
		CondorLiquidityNorm: 50000,
		CondorLiquidityWght: 0.3,
		CondorIVFitWeight:   0.2,
		CondorIVFitLow:      20,
		CondorIVFitHigh:     35,
		CondorWidthWeight:   0.1,
		CondorWidthScale:    10,

		ButterflyMinSpacingPct: 0.01,
		ButterflyMinConfidence: 0.5,
		ButterflyMaxConfidence: 0.9,
		ButterflyRRWeight:      0.5,
		ButterflyIVFitWeight:   0.3,
		ButterflyIVFitLow:      15,
		ButterflyIVFitHigh:     30,
		ButterflyWidthWeight:   0.2,
		ButterflyWidthCap:      0.02,
		ButterflyWidthScale:    25,

		IVLowMax:          18,
		IVNormalMax:       30,
		ADXTrendThreshold: 20,
		TotalOINorm:       1000000,
		StateVolatileMin:  0.7,
		StateActiveMin:    0.5,

		SignalStateWeight:     0.35,
		SignalVolWeight:       0.25,
		SignalTrendWeight:     0.20,
		SignalLiquidityWeight: 0.20,
		SignalMinStrength:     0.3,

		StraddleRiskFraction:  0.15,
		CondorRiskFraction:    0.02,
		StrangleRiskFraction:  0.12,
		ButterflyRiskFraction: 0.05,
		ButterflyCashFraction: 0.30,
		ButterflyMaxLots:      10,
		MinLotCeilingDebit:    0.5,
		MinLotCeilingCredit:   0.4,

		FallbackOrder: []string{"straddle", "strangle"},

		CorrelationGroups: map[string]string{
			"NIFTY":      "NSE_INDEX",
			"BANKNIFTY":  "NSE_INDEX",
			"FINNIFTY":   "NSE_INDEX",
			"MIDCPNIFTY": "NSE_INDEX",
			"SENSEX":     "BSE_INDEX",
			"BANKEX":     "BSE_INDEX",
		},
	}
}

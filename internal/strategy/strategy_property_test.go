package strategy

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"options-trader/internal/chain"
	"options-trader/internal/config"
	"options-trader/internal/models"
)

type quote struct {
	call float64
	put  float64
	iv   float64
}

func buildChain(spot float64, days int, quotes map[float64]quote) *chain.Chain {
	c := chain.New("NIFTY", time.Now().AddDate(0, 0, days), 75)
	c.Spot = spot
	c.Timestamp = time.Now()
	c.Live = true
	for k, q := range quotes {
		c.AddContract(&models.OptionContract{
			Strike: k, Side: models.Call, LastPrice: q.call,
			IV: q.iv, OpenInterest: 80000, Volume: 40000,
		})
		c.AddContract(&models.OptionContract{
			Strike: k, Side: models.Put, LastPrice: q.put,
			IV: q.iv, OpenInterest: 80000, Volume: 40000,
		})
	}
	return c
}

// denseChain lists strikes every 50 points across +-width around spot with a
// convex premium curve, the shape butterflies and condors need to price.
func denseChain(spot float64, days int, iv float64, width float64) *chain.Chain {
	quotes := make(map[float64]quote)
	for k := spot - width; k <= spot+width; k += 50 {
		callPrem := 250 * math.Exp(-(k-spot)/500)
		putPrem := 250 * math.Exp((k-spot)/500)
		quotes[k] = quote{call: callPrem, put: putPrem, iv: iv}
	}
	return buildChain(spot, days, quotes)
}

// Property: no analyzer panics or reports confidence outside [0, 1] for any
// chain shape, including empty and dead-quote chains.
func TestProperty_ConfidenceBounded(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)
	params := config.DefaultStrategyParams()

	properties.Property("confidence stays in [0, 1]", prop.ForAll(
		func(spot float64, days int, iv float64, deadEvery int) bool {
			c := denseChain(spot, days, iv, 600)
			if deadEvery > 0 {
				i := 0
				for _, k := range c.Strikes() {
					if i%deadEvery == 0 {
						c.Call(k).LastPrice = 0
						c.Put(k).LastPrice = 0
					}
					i++
				}
			}
			for _, a := range All(params) {
				cand := a.Analyze(c)
				if cand.Confidence < 0 || cand.Confidence > 1 {
					return false
				}
			}
			return true
		},
		gen.Float64Range(20000, 30000),
		gen.IntRange(0, 45),
		gen.Float64Range(1, 80),
		gen.IntRange(0, 5),
	))

	properties.TestingRun(t)
}

// Property: every hold carries at least one reason string.
func TestProperty_HoldAlwaysHasReason(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)
	params := config.DefaultStrategyParams()

	properties.Property("hold results explain themselves", prop.ForAll(
		func(spot float64, nStrikes int) bool {
			quotes := make(map[float64]quote)
			for i := 0; i < nStrikes; i++ {
				quotes[spot+float64(i)*50] = quote{} // all dead
			}
			c := buildChain(spot, 7, quotes)
			for _, a := range All(params) {
				cand := a.Analyze(c)
				if cand.IsHold() && len(cand.Reasons) == 0 {
					return false
				}
			}
			return true
		},
		gen.Float64Range(20000, 30000),
		gen.IntRange(0, 6),
	))

	properties.TestingRun(t)
}

func TestAnalyzersHoldOnNilChain(t *testing.T) {
	params := config.DefaultStrategyParams()
	for _, a := range All(params) {
		cand := a.Analyze(nil)
		if !cand.IsHold() {
			t.Errorf("%s on nil chain: want hold, got confidence %.2f", a.Name(), cand.Confidence)
		}
	}
}

func TestStraddleHighVolScenario(t *testing.T) {
	// One-sigma move at 20% IV over 7 days on a 25000 spot is ~692 points,
	// comfortably above the 480 premium, so coverage saturates at 1.0.
	c := buildChain(25000, 7, map[float64]quote{
		25000: {call: 250, put: 230, iv: 20},
	})

	cand := NewStraddle(config.DefaultStrategyParams()).Analyze(c)
	if cand.IsHold() {
		t.Fatalf("want straddle candidate, got hold: %v", cand.Reasons)
	}
	if cand.Confidence != 1.0 {
		t.Errorf("confidence = %.2f, want 1.0", cand.Confidence)
	}
	if len(cand.Legs) != 2 {
		t.Fatalf("got %d legs, want 2", len(cand.Legs))
	}
	for _, leg := range cand.Legs {
		if leg.Direction != models.LegBuy || leg.Contract.Strike != 25000 {
			t.Errorf("leg = %+v, want buy at 25000", leg)
		}
	}
	if cand.NetPremium != -480 {
		t.Errorf("net premium = %.0f, want -480 (debit)", cand.NetPremium)
	}
	if cand.MaxLoss != 480 {
		t.Errorf("max loss = %.0f, want 480", cand.MaxLoss)
	}
}

func TestStraddleHoldsWhenPremiumTooRich(t *testing.T) {
	// 2% IV expected move (~69 points) cannot cover a 480 premium.
	c := buildChain(25000, 7, map[float64]quote{
		25000: {call: 250, put: 230, iv: 2},
	})

	cand := NewStraddle(config.DefaultStrategyParams()).Analyze(c)
	if !cand.IsHold() {
		t.Errorf("want hold, got confidence %.2f", cand.Confidence)
	}
}

func TestStraddleSkipsDeadATM(t *testing.T) {
	c := buildChain(25000, 7, map[float64]quote{
		25000: {call: 0, put: 0, iv: 20},
	})

	cand := NewStraddle(config.DefaultStrategyParams()).Analyze(c)
	if !cand.IsHold() {
		t.Errorf("dead ATM pair must hold, got confidence %.2f", cand.Confidence)
	}
}

func TestStrangleStrikeSelection(t *testing.T) {
	// 3% OTM targets: call at/above 25750, put at/below 24250.
	c := denseChain(25000, 7, 25, 1000)

	cand := NewStrangle(config.DefaultStrategyParams()).Analyze(c)
	if cand.IsHold() {
		t.Fatalf("want strangle candidate, got hold: %v", cand.Reasons)
	}

	var call, put *models.OptionContract
	for _, leg := range cand.Legs {
		if leg.Contract.Side == models.Call {
			call = leg.Contract
		} else {
			put = leg.Contract
		}
	}
	if call == nil || put == nil {
		t.Fatal("strangle must carry one call and one put")
	}
	if call.Strike != 25750 {
		t.Errorf("call strike = %.0f, want 25750 (first at 3%% OTM)", call.Strike)
	}
	if put.Strike != 24250 {
		t.Errorf("put strike = %.0f, want 24250 (last at 3%% OTM)", put.Strike)
	}
	if cand.Confidence > config.DefaultStrategyParams().StrangleMaxConfidence {
		t.Errorf("confidence %.2f exceeds cap", cand.Confidence)
	}
}

func TestStrangleBlendWeightsConfigurable(t *testing.T) {
	c := denseChain(25000, 7, 25, 1000)

	params := config.DefaultStrategyParams()
	base := NewStrangle(params).Analyze(c)
	if base.IsHold() {
		t.Fatalf("default weights must produce a candidate, got hold: %v", base.Reasons)
	}

	// Zeroing the dominant term drops the blend below the emit threshold, so
	// the weights are live configuration, not decoration.
	params.StrangleCoverageWeight = 0
	muted := NewStrangle(params).Analyze(c)
	if !muted.IsHold() {
		t.Errorf("coverage weight zeroed: confidence %.2f should fall below %.2f",
			muted.Confidence, params.StrangleMinConfidence)
	}
}

func TestIronCondorStructure(t *testing.T) {
	c := denseChain(25000, 7, 25, 600)

	cand := NewIronCondor(config.DefaultStrategyParams()).Analyze(c)
	if cand.IsHold() {
		t.Fatalf("want condor candidate, got hold: %v", cand.Reasons)
	}
	if len(cand.Legs) != 4 {
		t.Fatalf("got %d legs, want 4", len(cand.Legs))
	}

	var sellCall, buyCall, sellPut, buyPut *models.OptionContract
	for _, leg := range cand.Legs {
		switch {
		case leg.Contract.Side == models.Call && leg.Direction == models.LegSell:
			sellCall = leg.Contract
		case leg.Contract.Side == models.Call && leg.Direction == models.LegBuy:
			buyCall = leg.Contract
		case leg.Contract.Side == models.Put && leg.Direction == models.LegSell:
			sellPut = leg.Contract
		case leg.Contract.Side == models.Put && leg.Direction == models.LegBuy:
			buyPut = leg.Contract
		}
	}
	if sellCall == nil || buyCall == nil || sellPut == nil || buyPut == nil {
		t.Fatal("condor must have four distinct legs")
	}

	// Strike ordering: buyPut < sellPut < spot < sellCall < buyCall.
	if !(buyPut.Strike < sellPut.Strike && sellPut.Strike < 25000 &&
		25000 < sellCall.Strike && sellCall.Strike < buyCall.Strike) {
		t.Errorf("condor strikes out of order: %0.f/%.0f spot/%.0f/%.0f",
			buyPut.Strike, sellPut.Strike, sellCall.Strike, buyCall.Strike)
	}
	if cand.NetPremium <= 0 {
		t.Errorf("condor net premium = %.2f, want positive credit", cand.NetPremium)
	}
	if cand.MaxLoss <= 0 {
		t.Errorf("max loss = %.2f, want positive", cand.MaxLoss)
	}
}

func TestButterflyStructure(t *testing.T) {
	c := denseChain(25000, 7, 20, 600)

	params := config.DefaultStrategyParams()
	for _, side := range []models.OptionSide{models.Call, models.Put} {
		cand := NewButterfly(params, side).Analyze(c)
		if cand.IsHold() {
			t.Fatalf("%s butterfly held: %v", side, cand.Reasons)
		}
		if len(cand.Legs) != 3 {
			t.Fatalf("got %d legs, want 3", len(cand.Legs))
		}

		lo, mid, up := cand.Legs[0], cand.Legs[1], cand.Legs[2]
		if lo.Direction != models.LegBuy || up.Direction != models.LegBuy {
			t.Error("wings must be bought")
		}
		if mid.Direction != models.LegSell || mid.Quantity != 2 {
			t.Errorf("middle leg = %+v, want sell x2", mid)
		}

		minSpacing := 25000 * params.ButterflyMinSpacingPct
		if mid.Contract.Strike-lo.Contract.Strike < minSpacing ||
			up.Contract.Strike-mid.Contract.Strike < minSpacing {
			t.Errorf("wings too close: %.0f/%.0f/%.0f",
				lo.Contract.Strike, mid.Contract.Strike, up.Contract.Strike)
		}
		if cand.Confidence > params.ButterflyMaxConfidence {
			t.Errorf("confidence %.2f exceeds cap", cand.Confidence)
		}
	}
}

func TestButterflyNeedsThreeLiveStrikes(t *testing.T) {
	c := buildChain(25000, 7, map[float64]quote{
		24900: {call: 120, put: 80, iv: 20},
		25000: {call: 90, put: 95, iv: 20},
	})

	cand := NewButterfly(config.DefaultStrategyParams(), models.Call).Analyze(c)
	if !cand.IsHold() {
		t.Errorf("two strikes cannot form a butterfly, got confidence %.2f", cand.Confidence)
	}
}

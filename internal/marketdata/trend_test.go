package marketdata

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"options-trader/internal/models"
)

func trendingCandles(n int, start, step float64) []candle {
	out := make([]candle, n)
	for i := range out {
		close := start + step*float64(i)
		out[i] = candle{High: close + 10, Low: close - 10, Close: close}
	}
	return out
}

func TestSnapshotNeutralOnShortHistory(t *testing.T) {
	snap := snapshotFromCandles(trendingCandles(2*adxPeriod-1, 20000, 20))
	if snap.Bias != models.BiasNeutral {
		t.Errorf("bias = %s, want neutral on short history", snap.Bias)
	}
	if snap.TrendStrength != 0 || snap.ADX != 0 {
		t.Errorf("short history snapshot = %+v, want zero strength", snap)
	}
}

func TestSnapshotBullishUptrend(t *testing.T) {
	// A clean linear rise: every bar is an up-move, so +DI dominates and DX
	// pins at 100.
	snap := snapshotFromCandles(trendingCandles(60, 20000, 20))
	if snap.Bias != models.BiasBullish {
		t.Errorf("bias = %s, want bullish", snap.Bias)
	}
	if snap.ADX < 90 {
		t.Errorf("ADX = %.1f, want near 100 for a monotone trend", snap.ADX)
	}
	if snap.TrendStrength != 1 {
		t.Errorf("trend strength = %.2f, want 1 (capped)", snap.TrendStrength)
	}
	if snap.Slope <= 0 {
		t.Errorf("slope = %.5f, want positive", snap.Slope)
	}
	if snap.Confidence != snap.TrendStrength {
		t.Errorf("directional confidence = %.2f, want full strength %.2f", snap.Confidence, snap.TrendStrength)
	}
}

func TestSnapshotBearishDowntrend(t *testing.T) {
	snap := snapshotFromCandles(trendingCandles(60, 25000, -20))
	if snap.Bias != models.BiasBearish {
		t.Errorf("bias = %s, want bearish", snap.Bias)
	}
	if snap.Slope >= 0 {
		t.Errorf("slope = %.5f, want negative", snap.Slope)
	}
}

func TestSnapshotNeutralOnFlatSeries(t *testing.T) {
	flat := make([]candle, 60)
	for i := range flat {
		flat[i] = candle{High: 20000, Low: 20000, Close: 20000}
	}
	snap := snapshotFromCandles(flat)
	if snap.Bias != models.BiasNeutral {
		t.Errorf("bias = %s, want neutral for a flat series", snap.Bias)
	}
	if snap.ADX != 0 || snap.Slope != 0 {
		t.Errorf("flat series snapshot = %+v, want zero ADX and slope", snap)
	}
}

func TestNormalizedSlopeLinearSeries(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	// Per-day slope 1 over a mean of 109.5.
	want := 1.0 / 109.5
	if got := normalizedSlope(closes, 20); math.Abs(got-want) > 1e-9 {
		t.Errorf("normalizedSlope = %.6f, want %.6f", got, want)
	}
}

func TestWilderSmoothShortSeries(t *testing.T) {
	if got := wilderSmooth([]float64{1, 2}, 14); got != nil {
		t.Errorf("wilderSmooth on short series = %v, want nil", got)
	}
}

// Property: ADX stays in [0, 100] and the EMA stays inside the series range
// for any price path.
func TestProperty_TrendIndicatorBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("indicators stay within bounds", prop.ForAll(
		func(closes []float64) bool {
			if len(closes) < 2*adxPeriod {
				return true
			}
			candles := make([]candle, len(closes))
			lo, hi := math.Inf(1), math.Inf(-1)
			for i, close := range closes {
				candles[i] = candle{High: close + 5, Low: close - 5, Close: close}
				lo = math.Min(lo, close)
				hi = math.Max(hi, close)
			}

			adx := lastADX(candles, adxPeriod)
			if adx < 0 || adx > 100 {
				return false
			}
			ema := lastEMA(closes, 20)
			if ema < lo-1e-9 || ema > hi+1e-9 {
				return false
			}

			snap := snapshotFromCandles(candles)
			return snap.TrendStrength >= 0 && snap.TrendStrength <= 1 &&
				snap.Confidence >= 0 && snap.Confidence <= 1
		},
		gen.SliceOfN(60, gen.Float64Range(15000, 30000)),
	))

	properties.TestingRun(t)
}

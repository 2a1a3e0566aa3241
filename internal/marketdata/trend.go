package marketdata

import (
	"math"

	"options-trader/internal/models"
)

// candle is the minimal OHLC view needed for trend detection.
type candle struct {
	High  float64
	Low   float64
	Close float64
}

// snapshotFromCandles converts a daily candle series into a regime snapshot.
// Bias comes from the fast/slow EMA relationship, directional strength from
// Wilder's ADX, and slope from a normalized linear regression of recent
// closes. Too little history yields a neutral snapshot.
func snapshotFromCandles(candles []candle) models.RegimeSnapshot {
	if len(candles) < 2*adxPeriod {
		return models.RegimeSnapshot{Bias: models.BiasNeutral}
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	fast := lastEMA(closes, 20)
	slow := lastEMA(closes, 50)
	slope := normalizedSlope(closes, slopeWindow)
	adx := lastADX(candles, adxPeriod)

	bias := models.BiasNeutral
	switch {
	case fast > slow && slope > 0:
		bias = models.BiasBullish
	case fast < slow && slope < 0:
		bias = models.BiasBearish
	}

	strength := math.Min(adx/50, 1)
	confidence := strength
	if bias == models.BiasNeutral {
		confidence *= 0.5
	}

	return models.RegimeSnapshot{
		Bias:          bias,
		TrendStrength: strength,
		ADX:           adx,
		Slope:         slope,
		Confidence:    confidence,
	}
}

// lastEMA returns the final EMA value over the series, seeded with the SMA
// of the first period. Short series fall back to the plain mean.
func lastEMA(values []float64, period int) float64 {
	if len(values) == 0 {
		return 0
	}
	if len(values) < period {
		return mean(values)
	}

	ema := mean(values[:period])
	multiplier := 2.0 / (float64(period) + 1)
	for i := period; i < len(values); i++ {
		ema = (values[i]-ema)*multiplier + ema
	}
	return ema
}

// lastADX computes Wilder's ADX and returns the most recent value.
func lastADX(candles []candle, period int) float64 {
	n := len(candles)
	if n < 2*period {
		return 0
	}

	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	tr := make([]float64, n)
	for i := 1; i < n; i++ {
		upMove := candles[i].High - candles[i-1].High
		downMove := candles[i-1].Low - candles[i].Low
		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}
		tr[i] = trueRange(candles[i], candles[i-1])
	}

	smoothPlusDM := wilderSmooth(plusDM, period)
	smoothMinusDM := wilderSmooth(minusDM, period)
	smoothTR := wilderSmooth(tr, period)

	dx := make([]float64, n)
	for i := period; i < n; i++ {
		if smoothTR[i] == 0 {
			continue
		}
		plusDI := 100 * smoothPlusDM[i] / smoothTR[i]
		minusDI := 100 * smoothMinusDM[i] / smoothTR[i]
		if sum := plusDI + minusDI; sum != 0 {
			dx[i] = 100 * math.Abs(plusDI-minusDI) / sum
		}
	}

	adx := wilderSmooth(dx[period:], period)
	if len(adx) == 0 {
		return 0
	}
	return adx[len(adx)-1]
}

// normalizedSlope fits a least-squares line through the last window closes
// and returns the per-day slope as a fraction of the mean price.
func normalizedSlope(closes []float64, window int) float64 {
	if len(closes) < window {
		window = len(closes)
	}
	if window < 2 {
		return 0
	}
	tail := closes[len(closes)-window:]

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range tail {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	n := float64(window)
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	slope := (n*sumXY - sumX*sumY) / denom

	avg := sumY / n
	if avg == 0 {
		return 0
	}
	return slope / avg
}

func wilderSmooth(values []float64, period int) []float64 {
	if len(values) < period {
		return nil
	}
	result := make([]float64, len(values))
	result[period-1] = mean(values[:period])

	multiplier := 1.0 / float64(period)
	for i := period; i < len(values); i++ {
		result[i] = result[i-1] + multiplier*(values[i]-result[i-1])
	}
	return result
}

func trueRange(current, previous candle) float64 {
	highLow := current.High - current.Low
	highClose := math.Abs(current.High - previous.Close)
	lowClose := math.Abs(current.Low - previous.Close)
	return math.Max(highLow, math.Max(highClose, lowClose))
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

package pricing

import (
	"math"

	"options-trader/internal/models"
)

const (
	ivInitialGuess  = 0.30
	ivMaxIterations = 100
	ivTolerance     = 1e-4 // on price error
	ivMinSigma      = 1e-6
	ivVegaFloor     = 1e-12
)

// ImpliedVolatility recovers the volatility that reconciles the Black-Scholes
// price with the observed market price, via Newton-Raphson. The solver starts
// at 30% vol and iterates until the price error drops below tolerance. When
// vega collapses the last sigma is returned rather than dividing into noise;
// sigma is clamped at a small positive floor every step.
//
// The result is a fraction (0.20 for 20%).
func ImpliedVolatility(side models.OptionSide, marketPrice, spot, strike, t, r float64) float64 {
	sigma := ivInitialGuess
	if marketPrice <= 0 || spot <= 0 || strike <= 0 || t <= 0 {
		return sigma
	}

	for i := 0; i < ivMaxIterations; i++ {
		diff := Price(side, spot, strike, t, sigma, r) - marketPrice
		if math.Abs(diff) < ivTolerance {
			return sigma
		}

		v := vega(spot, strike, t, sigma, r)
		if v <= ivVegaFloor {
			return sigma
		}

		sigma -= diff / v
		if sigma < ivMinSigma {
			sigma = ivMinSigma
		}
	}

	return sigma
}

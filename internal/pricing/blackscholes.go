// Package pricing implements closed-form Black-Scholes pricing, Greeks and
// implied-volatility recovery for European index options.
package pricing

import (
	"math"

	"options-trader/internal/models"
)

// DefaultATMTolerance is the |moneyness| at or below which a contract counts
// as at-the-money.
const DefaultATMTolerance = 0.02

// normPDF is the standard normal probability density function.
func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}

// normCDF is the standard normal cumulative distribution function,
// P(X <= x) = 0.5 * (1 + erf(x / sqrt(2))).
func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

func d1d2(spot, strike, t, sigma, r float64) (float64, float64) {
	d1 := (math.Log(spot/strike) + (r+0.5*sigma*sigma)*t) / (sigma * math.Sqrt(t))
	d2 := d1 - sigma*math.Sqrt(t)
	return d1, d2
}

// Price returns the Black-Scholes price of a European option.
// sigma is the annualized volatility as a fraction (0.20 for 20%), t is the
// time to expiry in years. At or past expiry the price collapses to
// intrinsic value.
func Price(side models.OptionSide, spot, strike, t, sigma, r float64) float64 {
	if t <= 0 || sigma <= 0 {
		return Intrinsic(side, spot, strike)
	}
	d1, d2 := d1d2(spot, strike, t, sigma, r)
	if side == models.Call {
		return spot*normCDF(d1) - strike*math.Exp(-r*t)*normCDF(d2)
	}
	return strike*math.Exp(-r*t)*normCDF(-d2) - spot*normCDF(-d1)
}

// Greeks returns the closed-form Black-Scholes Greeks. Theta is per calendar
// day; vega and rho are per unit change in volatility and rate. Degenerate
// inputs (t <= 0 or sigma <= 0) leave all Greeks at zero.
func Greeks(side models.OptionSide, spot, strike, t, sigma, r float64) models.OptionGreeks {
	var g models.OptionGreeks
	if t <= 0 || sigma <= 0 || spot <= 0 || strike <= 0 {
		return g
	}

	d1, d2 := d1d2(spot, strike, t, sigma, r)
	sqrtT := math.Sqrt(t)
	pdf := normPDF(d1)

	g.Gamma = pdf / (spot * sigma * sqrtT)
	g.Vega = spot * pdf * sqrtT

	if side == models.Call {
		g.Delta = normCDF(d1)
		g.Theta = (-(spot*pdf*sigma)/(2*sqrtT) - r*strike*math.Exp(-r*t)*normCDF(d2)) / 365
		g.Rho = strike * t * math.Exp(-r*t) * normCDF(d2)
	} else {
		g.Delta = normCDF(d1) - 1
		g.Theta = (-(spot*pdf*sigma)/(2*sqrtT) + r*strike*math.Exp(-r*t)*normCDF(-d2)) / 365
		g.Rho = -strike * t * math.Exp(-r*t) * normCDF(-d2)
	}

	return g
}

// vega is dPrice/dSigma, unscaled. Used by the Newton-Raphson IV solver.
func vega(spot, strike, t, sigma, r float64) float64 {
	if t <= 0 || sigma <= 0 || spot <= 0 {
		return 0
	}
	d1, _ := d1d2(spot, strike, t, sigma, r)
	return spot * normPDF(d1) * math.Sqrt(t)
}

// Intrinsic returns the intrinsic value of a contract, never negative.
func Intrinsic(side models.OptionSide, spot, strike float64) float64 {
	if side == models.Call {
		return math.Max(0, spot-strike)
	}
	return math.Max(0, strike-spot)
}

// TimeValue returns the extrinsic component of an option price.
func TimeValue(price, intrinsic float64) float64 {
	return math.Max(0, price-intrinsic)
}

// Moneyness returns the signed moneyness of a contract; 0 is exactly ATM,
// positive is in-the-money.
func Moneyness(side models.OptionSide, spot, strike float64) float64 {
	if strike <= 0 {
		return 0
	}
	if side == models.Call {
		return (spot - strike) / strike
	}
	return (strike - spot) / strike
}

// IsATM reports whether the moneyness is within the ATM tolerance.
func IsATM(moneyness, tolerance float64) bool {
	return math.Abs(moneyness) <= tolerance
}

// Populate fills the derived market fields of a contract from its last price:
// moneyness, intrinsic and time value, implied volatility and Greeks.
func Populate(c *models.OptionContract, spot, t, r float64) {
	if c == nil {
		return
	}
	c.Moneyness = Moneyness(c.Side, spot, c.Strike)
	c.Intrinsic = Intrinsic(c.Side, spot, c.Strike)
	c.TimeValue = TimeValue(c.LastPrice, c.Intrinsic)
	if c.LastPrice > 0 {
		c.IV = ImpliedVolatility(c.Side, c.LastPrice, spot, c.Strike, t, r) * 100
	}
	c.Greeks = Greeks(c.Side, spot, c.Strike, t, c.IV/100, r)
}

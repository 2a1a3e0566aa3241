package selector

import (
	"math"

	"options-trader/internal/errors"
	"options-trader/internal/models"
)

// Size computes the lot count for a plan against the available capital:
// lots = floor(risk_capital / max_loss_per_lot), with risk_capital a fixed
// per-strategy fraction of capital. The butterfly is sized by affordable
// cash, capped by its risk-based count and an absolute lot cap. When the
// count rounds to zero a single lot is still allowed if its cost fits under
// the relaxed capital ceiling.
func (p *Planner) Size(plan *models.ExecutionPlan, capital float64) (int, error) {
	if plan == nil || capital <= 0 {
		return 0, errors.NewSizingError("", capital, 0, errors.ErrPositionTooSmall)
	}

	var lots int
	switch plan.Strategy {
	case models.StrategyStraddle:
		lots = riskLots(capital, p.params.StraddleRiskFraction, plan.MaxLossLot)
	case models.StrategyIronCondor:
		lots = riskLots(capital, p.params.CondorRiskFraction, plan.MaxLossLot)
	case models.StrategyStrangle:
		lots = riskLots(capital, p.params.StrangleRiskFraction, plan.MaxLossLot)
	case models.StrategyCallButterfly, models.StrategyPutButterfly:
		affordable := 0
		if plan.RequiredCash > 0 {
			affordable = int(math.Floor(capital * p.params.ButterflyCashFraction / plan.RequiredCash))
		}
		byRisk := riskLots(capital, p.params.ButterflyRiskFraction, plan.MaxLossLot)
		lots = minInt(affordable, byRisk, p.params.ButterflyMaxLots)
	default:
		lots = riskLots(capital, p.params.StraddleRiskFraction, plan.MaxLossLot)
	}

	if lots > 0 {
		return lots, nil
	}

	// Minimum-lot relaxation: one lot passes if its cost stays under the
	// relaxed ceiling for the strategy class.
	ceiling := p.params.MinLotCeilingCredit
	if plan.PremiumPerLot < 0 {
		ceiling = p.params.MinLotCeilingDebit
	}
	if plan.RequiredCash <= capital*ceiling {
		return 1, nil
	}

	return 0, errors.NewSizingError(plan.Strategy, capital, plan.RequiredCash, errors.ErrPositionTooSmall)
}

func riskLots(capital, fraction, maxLossPerLot float64) int {
	if maxLossPerLot <= 0 || math.IsInf(maxLossPerLot, 1) {
		return 0
	}
	return int(math.Floor(capital * fraction / maxLossPerLot))
}

func minInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

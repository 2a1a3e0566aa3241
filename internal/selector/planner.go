package selector

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"options-trader/internal/chain"
	"options-trader/internal/config"
	"options-trader/internal/errors"
	"options-trader/internal/models"
)

// Planner binds a candidate to concrete strikes with live prices and
// computes the per-lot economics needed for sizing. Resolution always
// prefers live (non-zero) prices and searches outward by strike distance
// when the ideal strike is dead.
type Planner struct {
	params config.StrategyParams
	log    zerolog.Logger
}

// NewPlanner creates a planner.
func NewPlanner(params config.StrategyParams, logger zerolog.Logger) *Planner {
	return &Planner{params: params, log: logger}
}

// Plan resolves the candidate's legs against the chain. When the analyzer
// already bound live contracts those are reused; otherwise the planner
// searches the chain itself, falling back to a synthetic straddle (distinct
// call/put strikes, flagged) when no single strike has both sides live.
func (p *Planner) Plan(c *chain.Chain, cand models.Candidate) (*models.ExecutionPlan, error) {
	if c == nil || c.Spot <= 0 {
		return nil, errors.NewPlanError(cand.Strategy, "no chain", errors.ErrDataUnavailable)
	}

	var legs []models.StrategyLeg
	synthetic := false
	var err error

	if !cand.IsHold() {
		legs = cand.Legs
	} else {
		switch cand.Strategy {
		case models.StrategyStraddle:
			legs, synthetic, err = p.resolveStraddle(c)
		case models.StrategyStrangle:
			legs, err = p.resolveStrangle(c)
		case models.StrategyIronCondor:
			legs, err = p.resolveIronCondor(c)
		case models.StrategyCallButterfly:
			legs, err = p.resolveButterfly(c, models.Call)
		case models.StrategyPutButterfly:
			legs, err = p.resolveButterfly(c, models.Put)
		default:
			err = errors.NewPlanError(cand.Strategy, "unknown strategy", nil)
		}
	}
	if err != nil {
		return nil, err
	}

	plan := &models.ExecutionPlan{
		Strategy:  cand.Strategy,
		Synthetic: synthetic,
	}

	lotSize := c.LotSize
	if lotSize <= 0 {
		lotSize = 1
	}

	// Per-lot economics: premium is signed cash flow per lot, max loss is
	// the sizing denominator.
	var premium float64
	for _, leg := range legs {
		flow := leg.Contract.LastPrice * float64(leg.Quantity)
		if leg.Direction == models.LegBuy {
			premium -= flow
		} else {
			premium += flow
		}
		side := leg.Contract.Side
		if side == models.Call {
			plan.CallStrike = leg.Contract.Strike
		} else {
			plan.PutStrike = leg.Contract.Strike
		}
		plan.Legs = append(plan.Legs, models.PlannedLeg{
			Symbol:    legSymbol(c, leg.Contract),
			Strike:    leg.Contract.Strike,
			Side:      side,
			Direction: leg.Direction,
			Quantity:  leg.Quantity * lotSize,
			Price:     leg.Contract.LastPrice,
		})
	}
	plan.PremiumPerLot = premium * float64(lotSize)

	maxLoss, maxProfit := economics(cand, legs, premium)
	plan.MaxLossLot = maxLoss * float64(lotSize)
	plan.MaxProfitLot = maxProfit * float64(lotSize)

	if premium < 0 {
		plan.RequiredCash = -plan.PremiumPerLot
	} else {
		// Credit structures: margin proxied by the per-lot max loss.
		plan.RequiredCash = plan.MaxLossLot
	}

	if plan.MaxLossLot <= 0 {
		return nil, errors.NewPlanError(cand.Strategy, "non-positive max loss", errors.ErrEconomicsInvalid)
	}

	return plan, nil
}

// economics derives per-unit max loss and profit. Candidates carry their
// analyzer economics; planner-resolved legs fall back to the structure's
// generic bounds.
func economics(cand models.Candidate, legs []models.StrategyLeg, premium float64) (maxLoss, maxProfit float64) {
	if !cand.IsHold() && cand.MaxLoss > 0 {
		return cand.MaxLoss, cand.MaxProfit
	}

	switch cand.Strategy {
	case models.StrategyIronCondor:
		var sellCall, buyCall, sellPut, buyPut float64
		for _, leg := range legs {
			switch {
			case leg.Contract.Side == models.Call && leg.Direction == models.LegSell:
				sellCall = leg.Contract.Strike
			case leg.Contract.Side == models.Call:
				buyCall = leg.Contract.Strike
			case leg.Direction == models.LegSell:
				sellPut = leg.Contract.Strike
			default:
				buyPut = leg.Contract.Strike
			}
		}
		wing := math.Max(buyCall-sellCall, sellPut-buyPut)
		return wing - premium, premium
	case models.StrategyCallButterfly, models.StrategyPutButterfly:
		strikes := make([]float64, 0, 3)
		for _, leg := range legs {
			strikes = append(strikes, leg.Contract.Strike)
		}
		sort.Float64s(strikes)
		debit := -premium
		wing := math.Min(strikes[1]-strikes[0], strikes[len(strikes)-1]-strikes[1])
		return debit, math.Max(0, wing-debit)
	default:
		// Long premium structures: loss bounded by the debit paid.
		return -premium, math.Inf(1)
	}
}

// resolveStraddle attempts the exact ATM strike, then searches outward by
// strike distance for any strike live on both sides, then constructs a
// synthetic straddle from the nearest live call and put at distinct strikes.
func (p *Planner) resolveStraddle(c *chain.Chain) ([]models.StrategyLeg, bool, error) {
	atm := c.ATMStrike(c.Spot)

	strikes := c.Strikes()
	ordered := make([]float64, len(strikes))
	copy(ordered, strikes)
	sort.Slice(ordered, func(i, j int) bool {
		return math.Abs(ordered[i]-atm) < math.Abs(ordered[j]-atm)
	})

	for _, k := range ordered {
		call, put := c.Call(k), c.Put(k)
		if call.Live() && put.Live() {
			return []models.StrategyLeg{
				{Contract: call, Direction: models.LegBuy, Quantity: 1},
				{Contract: put, Direction: models.LegBuy, Quantity: 1},
			}, false, nil
		}
	}

	// Synthetic: pair the nearest live call and nearest live put even at
	// different strikes. Flagged so downstream knows the structure is skewed.
	var call, put *models.OptionContract
	for _, k := range ordered {
		if call == nil && c.Call(k).Live() {
			call = c.Call(k)
		}
		if put == nil && c.Put(k).Live() {
			put = c.Put(k)
		}
	}
	if call == nil || put == nil {
		return nil, false, errors.NewPlanError(models.StrategyStraddle, "no live call/put pair anywhere in chain", errors.ErrInsufficientMarketDepth)
	}
	p.log.Warn().
		Float64("call_strike", call.Strike).
		Float64("put_strike", put.Strike).
		Msg("Constructing synthetic straddle")
	return []models.StrategyLeg{
		{Contract: call, Direction: models.LegBuy, Quantity: 1},
		{Contract: put, Direction: models.LegBuy, Quantity: 1},
	}, true, nil
}

func (p *Planner) resolveStrangle(c *chain.Chain) ([]models.StrategyLeg, error) {
	pct := p.params.StrangleOTMPercent
	strikes := c.Strikes()

	var call, put *models.OptionContract
	for _, k := range strikes {
		if k >= c.Spot*(1+pct) && c.Call(k).Live() {
			call = c.Call(k)
			break
		}
	}
	for i := len(strikes) - 1; i >= 0; i-- {
		if strikes[i] <= c.Spot*(1-pct) && c.Put(strikes[i]).Live() {
			put = c.Put(strikes[i])
			break
		}
	}

	// Relax to the nearest live OTM strike when nothing sits beyond the
	// target distance.
	if call == nil {
		for _, k := range strikes {
			if k > c.Spot && c.Call(k).Live() {
				call = c.Call(k)
				break
			}
		}
	}
	if put == nil {
		for i := len(strikes) - 1; i >= 0; i-- {
			if strikes[i] < c.Spot && c.Put(strikes[i]).Live() {
				put = c.Put(strikes[i])
				break
			}
		}
	}
	if call == nil || put == nil {
		return nil, errors.NewPlanError(models.StrategyStrangle, "no live OTM pair", errors.ErrInsufficientMarketDepth)
	}

	return []models.StrategyLeg{
		{Contract: call, Direction: models.LegBuy, Quantity: 1},
		{Contract: put, Direction: models.LegBuy, Quantity: 1},
	}, nil
}

func (p *Planner) resolveIronCondor(c *chain.Chain) ([]models.StrategyLeg, error) {
	strikes := c.Strikes()
	width := p.params.CondorWingWidth

	var sellCall, buyCall, sellPut, buyPut *models.OptionContract
	for _, k := range strikes {
		if sellCall == nil && k > c.Spot && c.Call(k).Live() {
			sellCall = c.Call(k)
		}
		if sellCall != nil && buyCall == nil && k >= sellCall.Strike+width && c.Call(k).Live() {
			buyCall = c.Call(k)
		}
	}
	for i := len(strikes) - 1; i >= 0; i-- {
		k := strikes[i]
		if sellPut == nil && k < c.Spot && c.Put(k).Live() {
			sellPut = c.Put(k)
		}
		if sellPut != nil && buyPut == nil && k <= sellPut.Strike-width && c.Put(k).Live() {
			buyPut = c.Put(k)
		}
	}
	if sellCall == nil || buyCall == nil || sellPut == nil || buyPut == nil {
		return nil, errors.NewPlanError(models.StrategyIronCondor, "cannot resolve four live legs", errors.ErrInsufficientMarketDepth)
	}

	credit := (sellCall.LastPrice + sellPut.LastPrice) - (buyCall.LastPrice + buyPut.LastPrice)
	if credit <= 0 {
		return nil, errors.NewPlanError(models.StrategyIronCondor,
			fmt.Sprintf("net credit %.2f not positive", credit), errors.ErrEconomicsInvalid)
	}

	return []models.StrategyLeg{
		{Contract: sellCall, Direction: models.LegSell, Quantity: 1},
		{Contract: buyCall, Direction: models.LegBuy, Quantity: 1},
		{Contract: sellPut, Direction: models.LegSell, Quantity: 1},
		{Contract: buyPut, Direction: models.LegBuy, Quantity: 1},
	}, nil
}

func (p *Planner) resolveButterfly(c *chain.Chain, side models.OptionSide) ([]models.StrategyLeg, error) {
	name := models.StrategyCallButterfly
	pick := c.Call
	if side == models.Put {
		name = models.StrategyPutButterfly
		pick = c.Put
	}

	var live []float64
	for _, k := range c.Strikes() {
		if pick(k).Live() {
			live = append(live, k)
		}
	}
	if len(live) < 3 {
		return nil, errors.NewPlanError(name, "fewer than three live strikes", errors.ErrInsufficientMarketDepth)
	}

	middle := live[0]
	bestDist := math.Abs(live[0] - c.Spot)
	for _, k := range live[1:] {
		if d := math.Abs(k - c.Spot); d < bestDist {
			middle = k
			bestDist = d
		}
	}

	minSpacing := c.Spot * p.params.ButterflyMinSpacingPct
	var lower, upper float64
	for i := len(live) - 1; i >= 0; i-- {
		if middle-live[i] >= minSpacing {
			lower = live[i]
			break
		}
	}
	for _, k := range live {
		if k-middle >= minSpacing {
			upper = k
			break
		}
	}
	if lower == 0 || upper == 0 {
		return nil, errors.NewPlanError(name, "no wings beyond minimum spacing", errors.ErrInsufficientMarketDepth)
	}

	lo, mid, up := pick(lower), pick(middle), pick(upper)
	debit := lo.LastPrice + up.LastPrice - 2*mid.LastPrice
	if debit <= 0 {
		return nil, errors.NewPlanError(name, fmt.Sprintf("net debit %.2f not positive", debit), errors.ErrEconomicsInvalid)
	}

	return []models.StrategyLeg{
		{Contract: lo, Direction: models.LegBuy, Quantity: 1},
		{Contract: mid, Direction: models.LegSell, Quantity: 2},
		{Contract: up, Direction: models.LegBuy, Quantity: 1},
	}, nil
}

// legSymbol renders the exchange-style tradingsymbol for a contract,
// e.g. NIFTY25SEP25000CE.
func legSymbol(c *chain.Chain, ct *models.OptionContract) string {
	if ct.Symbol != "" {
		return ct.Symbol
	}
	suffix := "CE"
	if ct.Side == models.Put {
		suffix = "PE"
	}
	return fmt.Sprintf("%s%s%.0f%s", c.Underlying, strings.ToUpper(c.Expiry.Format("06Jan")), ct.Strike, suffix)
}

package selector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"options-trader/internal/chain"
	"options-trader/internal/config"
	"options-trader/internal/errors"
	"options-trader/internal/logging"
	"options-trader/internal/marketdata"
	"options-trader/internal/models"
	"options-trader/internal/portfolio"
	"options-trader/internal/store"
	"options-trader/pkg/utils"
)

// Engine drives one full strategy cycle: fetch live data, classify the
// regime, rank candidates, gate on correlated exposure, then walk the
// fallback ladder until a strategy executes or every rung is spent.
type Engine struct {
	params      config.StrategyParams
	provider    marketdata.Provider
	portfolio   portfolio.Portfolio
	journal     store.Store // nil disables journaling
	selector    *Selector
	planner     *Planner
	rule        ConflictRule
	requireOpen bool
	log         zerolog.Logger
}

// NewEngine wires the engine from its collaborators. Live mode refuses to
// trade outside market hours; paper mode runs any time.
func NewEngine(cfg *config.Config, provider marketdata.Provider, pf portfolio.Portfolio, journal store.Store, logger zerolog.Logger) *Engine {
	return &Engine{
		params:      cfg.Strategy,
		provider:    provider,
		portfolio:   pf,
		journal:     journal,
		selector:    New(cfg.Strategy, logger),
		planner:     NewPlanner(cfg.Strategy, logger),
		rule:        NewGroupRule(cfg.Strategy),
		requireOpen: cfg.Trading.Mode == "live",
		log:         logger,
	}
}

// ExecuteOptimalStrategy runs the full cycle for one underlying. Domain
// failures come back encoded on the result, never as a Go error: the caller
// branches on Success and ErrorCode.
func (e *Engine) ExecuteOptimalStrategy(ctx context.Context, underlying string, expiry time.Time) *models.ExecutionResult {
	if e.requireOpen && !utils.IsMarketOpen() {
		return e.journaled(ctx, underlying, &models.ExecutionResult{
			ErrorCode: "market_closed",
			Reason: fmt.Sprintf("%s; next session opens %s", errors.ErrMarketClosed.Error(),
				utils.NextMarketOpen().Format("Mon 02 Jan 15:04")),
		}, nil)
	}

	c, err := e.provider.FetchChain(ctx, underlying, expiry)
	if err != nil || c == nil {
		code := errors.Code(err)
		if code == "" {
			code = errors.CodeDataUnavailable
		}
		reason := "no chain returned"
		if err != nil {
			reason = err.Error()
		}
		e.log.Error().Err(err).Str("underlying", underlying).Msg("Chain fetch failed")
		return e.journaled(ctx, underlying, &models.ExecutionResult{ErrorCode: code, Reason: reason}, nil)
	}

	// Snapshot or mock chains never reach execution. This is a hard
	// rejection, not a fallback rung.
	if !c.Live {
		return e.journaled(ctx, underlying, &models.ExecutionResult{
			ErrorCode: errors.CodeLiveDataRequired,
			Reason:    errors.ErrLiveDataRequired.Error(),
		}, nil)
	}

	snap, err := e.provider.DetectRegime(ctx, underlying)
	if err != nil {
		e.log.Error().Err(err).Str("underlying", underlying).Msg("Regime detection failed")
		return e.journaled(ctx, underlying, &models.ExecutionResult{
			ErrorCode: errors.CodeDataUnavailable,
			Reason:    fmt.Sprintf("regime detection failed: %v", err),
		}, nil)
	}

	sel := e.selector.SelectStrategy(c, snap)
	logging.LogSelection(logging.WithIndex(e.log, underlying),
		underlying, sel.Strategy, string(sel.State), sel.Confidence, sel.Reason)

	// Correlation gate runs before any sizing or submission: a correlated
	// open position blocks the whole cycle.
	if blocked, against := e.correlated(underlying); blocked {
		e.log.Warn().
			Str("underlying", underlying).
			Str("against", against).
			Msg("Correlated position already open")
		return e.journaled(ctx, underlying, &models.ExecutionResult{
			Strategy:  sel.Strategy,
			ErrorCode: errors.CodeCorrelationBlocked,
			Reason:    fmt.Sprintf("open position on %s is correlated with %s", against, underlying),
		}, sel)
	}

	result := e.attemptLadder(ctx, c, sel, underlying)
	logging.LogExecution(logging.WithIndex(e.log, underlying),
		underlying, result.Strategy, result.Lots, result.Premium, result.Success, result.ErrorCode)
	return e.journaled(ctx, underlying, result, sel)
}

// attemptLadder tries the selected strategy, then each configured fallback
// not already attempted. Every failed rung is recorded; exhaustion of the
// ladder is itself a terminal result.
func (e *Engine) attemptLadder(ctx context.Context, c *chain.Chain, sel *models.SelectionResult, underlying string) *models.ExecutionResult {
	ladder := []string{sel.Strategy}
	for _, fb := range e.params.FallbackOrder {
		if !contains(ladder, fb) {
			ladder = append(ladder, fb)
		}
	}

	var attempted []string
	var lastReason string
	var orphanLegs []models.PlannedLeg
	var failedLegs []string
	for _, name := range ladder {
		attempted = append(attempted, name)
		cand := e.candidateFor(name, sel)

		res, err := e.attempt(ctx, c, cand, sel.Confidence, underlying)
		if err == nil {
			res.Attempted = attempted
			if name != sel.Strategy {
				res.FallbackFrom = sel.Strategy
			}
			// Orphans from earlier partially filled rungs ride on the terminal
			// result even when a later rung succeeds: the caller reconciles
			// from one place.
			if len(orphanLegs) > 0 {
				res.FilledLegs = append(orphanLegs, res.FilledLegs...)
				res.FailedLegs = append(failedLegs, res.FailedLegs...)
			}
			return res
		}

		code := attemptCode(name, err)
		lastReason = err.Error()
		e.log.Warn().
			Str("strategy", name).
			Str("code", code).
			Err(err).
			Msg("Strategy attempt failed")

		// Partially filled legs stay open, already journaled per trade; the
		// ladder still advances and the terminal result carries them so the
		// caller can reconcile.
		if res != nil && len(res.FilledLegs) > 0 {
			orphanLegs = append(orphanLegs, res.FilledLegs...)
			failedLegs = append(failedLegs, res.FailedLegs...)
		}
	}

	return &models.ExecutionResult{
		Strategy:   sel.Strategy,
		ErrorCode:  errors.CodeExhausted,
		Reason:     fmt.Sprintf("%s and fallbacks failed: tried %s; last: %s", sel.Strategy, strings.Join(attempted, ", "), lastReason),
		Attempted:  attempted,
		FilledLegs: orphanLegs,
		FailedLegs: failedLegs,
	}
}

// attempt plans, sizes and submits one strategy. On a mid-sequence leg
// failure the returned result lists the filled and failed legs alongside
// the error.
func (e *Engine) attempt(ctx context.Context, c *chain.Chain, cand models.Candidate, confidence float64, underlying string) (*models.ExecutionResult, error) {
	plan, err := e.planner.Plan(c, cand)
	if err != nil {
		return nil, err
	}

	capital := e.portfolio.Cash()
	lots, err := e.planner.Size(plan, capital)
	if err != nil {
		return nil, err
	}
	plan.Lots = lots

	result := &models.ExecutionResult{
		Strategy:  cand.Strategy,
		Lots:      lots,
		Premium:   plan.PremiumPerLot * float64(lots),
		MaxProfit: plan.MaxProfitLot * float64(lots),
		MaxLoss:   plan.MaxLossLot * float64(lots),
		Legs:      plan.Legs,
	}

	legLog := logging.WithStrategy(logging.WithIndex(e.log, underlying), cand.Strategy)

	// Legs submit sequentially and non-transactionally. A failure leaves
	// earlier fills open and aborts the remaining legs.
	for i, leg := range plan.Legs {
		side := models.OrderSideBuy
		if leg.Direction == models.LegSell {
			side = models.OrderSideSell
		}
		req := portfolio.TradeRequest{
			Symbol:     leg.Symbol,
			Quantity:   leg.Quantity * lots,
			Price:      leg.Price,
			Side:       side,
			Strategy:   cand.Strategy,
			Confidence: confidence,
			RiskAmount: plan.MaxLossLot * float64(lots),
			IndexTag:   underlying,
		}
		trade, err := e.portfolio.ExecuteTrade(ctx, req)
		if err != nil {
			logging.LogLeg(legLog, leg.Symbol, string(side), req.Quantity, leg.Price, err)
			for _, rest := range plan.Legs[i:] {
				result.FailedLegs = append(result.FailedLegs, rest.Symbol)
			}
			execErr := errors.NewExecutionError(cand.Strategy, result.FailedLegs,
				errors.Wrap(errors.ErrExecutionPartial, err.Error()))
			return result, execErr
		}
		result.FilledLegs = append(result.FilledLegs, leg)
		e.saveTrade(ctx, trade)
		logging.LogLeg(legLog, leg.Symbol, string(side), req.Quantity, leg.Price, nil)
	}

	result.Success = true
	return result, nil
}

// candidateFor returns the bound candidate for a ladder rung: the selected
// candidate for the primary, a ranked alternative when one matches, or a
// bare hold the planner resolves from scratch.
func (e *Engine) candidateFor(name string, sel *models.SelectionResult) models.Candidate {
	if name == sel.Strategy {
		return sel.Candidate
	}
	for _, alt := range sel.Alternatives {
		if alt.Strategy == name {
			return alt
		}
	}
	return models.Candidate{Strategy: name}
}

func (e *Engine) correlated(underlying string) (bool, string) {
	for _, pos := range e.portfolio.OpenPositions() {
		if pos.Quantity == 0 {
			continue
		}
		if e.rule.Correlated(pos.IndexTag, underlying) {
			return true, pos.IndexTag
		}
	}
	return false, ""
}

// attemptCode maps a rung failure to its reason code. A non-positive net
// credit gets its own code so callers can tell a broken credit structure
// apart from other invalid economics.
func attemptCode(strategy string, err error) string {
	if errors.Is(err, errors.ErrEconomicsInvalid) && strategy == models.StrategyIronCondor {
		return errors.CodeCreditNonPositive
	}
	if code := errors.Code(err); code != "" {
		return code
	}
	return errors.CodeDataUnavailable
}

func (e *Engine) saveTrade(ctx context.Context, trade *models.TradeRecord) {
	if e.journal == nil || trade == nil {
		return
	}
	if err := e.journal.SaveTrade(ctx, trade); err != nil {
		e.log.Error().Err(err).Str("trade", trade.ID).Msg("Failed to journal trade")
	}
}

// journaled records the run outcome and returns the result unchanged.
func (e *Engine) journaled(ctx context.Context, underlying string, result *models.ExecutionResult, sel *models.SelectionResult) *models.ExecutionResult {
	if e.journal == nil {
		return result
	}
	rec := &store.SelectionRecord{
		Timestamp:    time.Now(),
		Underlying:   underlying,
		Strategy:     result.Strategy,
		Success:      result.Success,
		ErrorCode:    result.ErrorCode,
		FallbackFrom: result.FallbackFrom,
		Lots:         result.Lots,
		Premium:      result.Premium,
		FailedLegs:   result.FailedLegs,
		Reason:       result.Reason,
	}
	if sel != nil {
		rec.Confidence = sel.Confidence
		rec.State = string(sel.State)
		if rec.Strategy == "" {
			rec.Strategy = sel.Strategy
		}
		if rec.Reason == "" {
			rec.Reason = sel.Reason
		}
	}
	if err := e.journal.SaveSelection(ctx, rec); err != nil {
		e.log.Error().Err(err).Str("underlying", underlying).Msg("Failed to journal selection")
	}
	return result
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

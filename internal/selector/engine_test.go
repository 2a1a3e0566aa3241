package selector

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"options-trader/internal/config"
	"options-trader/internal/errors"
	"options-trader/internal/marketdata"
	"options-trader/internal/models"
	"options-trader/internal/portfolio"
)

func testEngine(t *testing.T, provider marketdata.Provider, pf portfolio.Portfolio) *Engine {
	t.Helper()
	cfg := config.DefaultConfig() // paper mode: no market-hours gate
	return NewEngine(cfg, provider, pf, nil, zerolog.Nop())
}

// guardPortfolio fails the test on any trade submission.
type guardPortfolio struct {
	t         *testing.T
	positions []models.Position
}

func (g *guardPortfolio) Cash() float64                    { return 1000000 }
func (g *guardPortfolio) OpenPositions() []models.Position { return g.positions }
func (g *guardPortfolio) ExecuteTrade(context.Context, portfolio.TradeRequest) (*models.TradeRecord, error) {
	g.t.Fatal("ExecuteTrade called on a correlation-blocked cycle")
	return nil, nil
}

// flakyPortfolio fills the first maxFills legs, then rejects everything.
type flakyPortfolio struct {
	inner    *portfolio.PaperPortfolio
	fills    int
	maxFills int
}

func (f *flakyPortfolio) Cash() float64                    { return f.inner.Cash() }
func (f *flakyPortfolio) OpenPositions() []models.Position { return f.inner.OpenPositions() }
func (f *flakyPortfolio) ExecuteTrade(ctx context.Context, req portfolio.TradeRequest) (*models.TradeRecord, error) {
	if f.fills >= f.maxFills {
		return nil, errors.Wrap(errors.ErrInsufficientFunds, "broker rejected")
	}
	f.fills++
	return f.inner.ExecuteTrade(ctx, req)
}

// hiccupPortfolio rejects exactly one leg submission, counted by call order.
type hiccupPortfolio struct {
	inner    *portfolio.PaperPortfolio
	calls    int
	failCall int
}

func (h *hiccupPortfolio) Cash() float64                    { return h.inner.Cash() }
func (h *hiccupPortfolio) OpenPositions() []models.Position { return h.inner.OpenPositions() }
func (h *hiccupPortfolio) ExecuteTrade(ctx context.Context, req portfolio.TradeRequest) (*models.TradeRecord, error) {
	h.calls++
	if h.calls == h.failCall {
		return nil, errors.Wrap(errors.ErrInsufficientFunds, "broker rejected")
	}
	return h.inner.ExecuteTrade(ctx, req)
}

func liveProvider(iv float64, oiPer, volPer int64, snap models.RegimeSnapshot) *marketdata.StaticProvider {
	c := convexChain(25000, iv, oiPer, volPer, true)
	c.Live = true
	p := marketdata.NewStaticProvider()
	p.Chains["NIFTY"] = c
	p.Snapshots["NIFTY"] = snap
	return p
}

func TestExecuteSucceedsOnLiveChain(t *testing.T) {
	provider := liveProvider(25, 80000, 40000, models.RegimeSnapshot{Bias: models.BiasNeutral, ADX: 10})
	pf := portfolio.NewPaperPortfolio(1000000)

	res := testEngine(t, provider, pf).ExecuteOptimalStrategy(context.Background(), "NIFTY", time.Time{})
	if !res.Success {
		t.Fatalf("execution failed: code=%s reason=%s", res.ErrorCode, res.Reason)
	}
	if res.Lots < 1 {
		t.Errorf("lots = %d, want >= 1", res.Lots)
	}
	if len(res.FilledLegs) != len(res.Legs) || len(res.FailedLegs) != 0 {
		t.Errorf("filled %d/%d legs, failed %v", len(res.FilledLegs), len(res.Legs), res.FailedLegs)
	}
	if res.FallbackFrom != "" {
		t.Errorf("primary succeeded but FallbackFrom = %s", res.FallbackFrom)
	}
	if len(res.Attempted) != 1 || res.Attempted[0] != res.Strategy {
		t.Errorf("attempted = %v, want just %s", res.Attempted, res.Strategy)
	}
	if len(pf.Trades()) != len(res.Legs) {
		t.Errorf("portfolio recorded %d trades, want %d", len(pf.Trades()), len(res.Legs))
	}
}

func TestExecuteBlocksCorrelatedExposure(t *testing.T) {
	provider := liveProvider(25, 80000, 40000, models.RegimeSnapshot{Bias: models.BiasNeutral, ADX: 10})
	guard := &guardPortfolio{t: t, positions: []models.Position{
		{Symbol: "BANKNIFTY25SEP52000CE", IndexTag: "BANKNIFTY", Quantity: 30},
	}}

	res := testEngine(t, provider, guard).ExecuteOptimalStrategy(context.Background(), "NIFTY", time.Time{})
	if res.Success {
		t.Fatal("correlated exposure must block the cycle")
	}
	if res.ErrorCode != errors.CodeCorrelationBlocked {
		t.Errorf("code = %s, want %s", res.ErrorCode, errors.CodeCorrelationBlocked)
	}
}

// flatPositionPortfolio reports a closed correlated position alongside normal
// paper execution.
type flatPositionPortfolio struct {
	*portfolio.PaperPortfolio
}

func (p *flatPositionPortfolio) OpenPositions() []models.Position {
	return []models.Position{{Symbol: "BANKNIFTY25SEP52000CE", IndexTag: "BANKNIFTY", Quantity: 0}}
}

func TestExecuteIgnoresFlatCorrelatedPosition(t *testing.T) {
	provider := liveProvider(25, 80000, 40000, models.RegimeSnapshot{Bias: models.BiasNeutral, ADX: 10})
	pf := &flatPositionPortfolio{portfolio.NewPaperPortfolio(1000000)}

	res := testEngine(t, provider, pf).ExecuteOptimalStrategy(context.Background(), "NIFTY", time.Time{})
	if res.ErrorCode == errors.CodeCorrelationBlocked {
		t.Fatal("a closed position must not gate the cycle")
	}
	if !res.Success {
		t.Errorf("execution failed: code=%s reason=%s", res.ErrorCode, res.Reason)
	}
}

func TestExecuteRequiresLiveChain(t *testing.T) {
	c := convexChain(25000, 25, 80000, 40000, true)
	c.Live = false // snapshot data
	p := marketdata.NewStaticProvider()
	p.Chains["NIFTY"] = c

	res := testEngine(t, p, portfolio.NewPaperPortfolio(0)).ExecuteOptimalStrategy(context.Background(), "NIFTY", time.Time{})
	if res.Success || res.ErrorCode != errors.CodeLiveDataRequired {
		t.Errorf("code = %s, want %s", res.ErrorCode, errors.CodeLiveDataRequired)
	}
}

func TestExecuteReportsDataUnavailable(t *testing.T) {
	p := marketdata.NewStaticProvider() // no chain loaded

	res := testEngine(t, p, portfolio.NewPaperPortfolio(0)).ExecuteOptimalStrategy(context.Background(), "NIFTY", time.Time{})
	if res.Success || res.ErrorCode != errors.CodeDataUnavailable {
		t.Errorf("code = %s, want %s", res.ErrorCode, errors.CodeDataUnavailable)
	}
}

func TestExecuteExhaustsLadderOnDeadChain(t *testing.T) {
	// Live flag set but every quote is dead: each rung fails to resolve legs
	// and the ladder runs out.
	c := convexChain(25000, 25, 80000, 40000, false)
	c.Live = true
	p := marketdata.NewStaticProvider()
	p.Chains["NIFTY"] = c
	p.Snapshots["NIFTY"] = models.RegimeSnapshot{Bias: models.BiasNeutral, ADX: 10}

	res := testEngine(t, p, portfolio.NewPaperPortfolio(1000000)).ExecuteOptimalStrategy(context.Background(), "NIFTY", time.Time{})
	if res.Success {
		t.Fatal("dead chain must not execute")
	}
	if res.ErrorCode != errors.CodeExhausted {
		t.Errorf("code = %s, want %s", res.ErrorCode, errors.CodeExhausted)
	}
	if len(res.Attempted) < 2 {
		t.Errorf("attempted = %v, want primary plus fallbacks", res.Attempted)
	}
	seen := make(map[string]bool)
	for _, name := range res.Attempted {
		if seen[name] {
			t.Errorf("ladder attempted %s twice", name)
		}
		seen[name] = true
	}
	if !seen[models.StrategyStraddle] || !seen[models.StrategyStrangle] {
		t.Errorf("attempted = %v, want straddle and strangle fallbacks included", res.Attempted)
	}
}

func TestExecuteFallbackSuccessCarriesEarlierOrphans(t *testing.T) {
	// The second submission is rejected: the primary rung fills one leg and
	// aborts, the next rung fills cleanly. The success result must still
	// surface the stranded leg so the caller can reconcile it.
	provider := liveProvider(25, 80000, 40000, models.RegimeSnapshot{Bias: models.BiasNeutral, ADX: 10})
	pf := &hiccupPortfolio{inner: portfolio.NewPaperPortfolio(1000000), failCall: 2}

	res := testEngine(t, provider, pf).ExecuteOptimalStrategy(context.Background(), "NIFTY", time.Time{})
	if !res.Success {
		t.Fatalf("fallback rung should succeed: code=%s reason=%s", res.ErrorCode, res.Reason)
	}
	if res.FallbackFrom == "" || len(res.Attempted) != 2 {
		t.Errorf("FallbackFrom = %q, attempted = %v; want a recorded fallback", res.FallbackFrom, res.Attempted)
	}
	if got, want := len(res.FilledLegs), len(res.Legs)+1; got != want {
		t.Errorf("filled legs = %d, want %d (fallback legs plus the orphan)", got, want)
	}
	if len(res.FailedLegs) == 0 {
		t.Error("success after a partial rung must still list that rung's unfilled legs")
	}
}

func TestExecutePartialFillCarriesOrphanLegs(t *testing.T) {
	provider := liveProvider(25, 80000, 40000, models.RegimeSnapshot{Bias: models.BiasNeutral, ADX: 10})
	flaky := &flakyPortfolio{inner: portfolio.NewPaperPortfolio(1000000), maxFills: 1}

	res := testEngine(t, provider, flaky).ExecuteOptimalStrategy(context.Background(), "NIFTY", time.Time{})
	if res.Success {
		t.Fatal("every attempt has a rejected leg, execution cannot succeed")
	}
	if res.ErrorCode != errors.CodeExhausted {
		t.Errorf("code = %s, want %s", res.ErrorCode, errors.CodeExhausted)
	}
	// The single filled leg stays open and the terminal result reports it for
	// reconciliation, together with the legs that never filled.
	if len(res.FilledLegs) != 1 {
		t.Errorf("orphan legs = %d, want 1", len(res.FilledLegs))
	}
	if len(res.FailedLegs) == 0 {
		t.Error("terminal result must list the unfilled legs")
	}
	if open := flaky.inner.OpenPositions(); len(open) != 1 {
		t.Errorf("open positions = %d, want the orphan leg", len(open))
	}
}

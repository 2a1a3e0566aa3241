package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"options-trader/internal/models"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "trader.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestTradeRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	trade := &models.TradeRecord{
		ID:         "PAPER-000001",
		Timestamp:  time.Now().UTC().Truncate(time.Second),
		Symbol:     "NIFTY25SEP25000CE",
		Side:       models.OrderSideBuy,
		Quantity:   75,
		Price:      250.5,
		Strategy:   models.StrategyStraddle,
		Confidence: 0.82,
		RiskAmount: 36000,
		IsPaper:    true,
	}
	if err := s.SaveTrade(ctx, trade); err != nil {
		t.Fatalf("SaveTrade() error: %v", err)
	}

	got, err := s.GetTrades(ctx, TradeFilter{})
	if err != nil {
		t.Fatalf("GetTrades() error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d trades, want 1", len(got))
	}
	r := got[0]
	if r.ID != trade.ID || r.Symbol != trade.Symbol || r.Side != models.OrderSideBuy {
		t.Errorf("round-trip mismatch: %+v", r)
	}
	if r.Quantity != 75 || r.Price != 250.5 || !r.IsPaper {
		t.Errorf("round-trip mismatch: %+v", r)
	}
}

func TestTradeFilters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	fixtures := []models.TradeRecord{
		{ID: "T1", Timestamp: base.Add(-3 * time.Hour), Symbol: "NIFTY25SEP25000CE", Side: models.OrderSideBuy, Quantity: 75, Price: 250, Strategy: models.StrategyStraddle},
		{ID: "T2", Timestamp: base.Add(-2 * time.Hour), Symbol: "NIFTY25SEP25000PE", Side: models.OrderSideBuy, Quantity: 75, Price: 230, Strategy: models.StrategyStraddle},
		{ID: "T3", Timestamp: base.Add(-1 * time.Hour), Symbol: "BANKNIFTY25SEP52000CE", Side: models.OrderSideSell, Quantity: 30, Price: 400, Strategy: models.StrategyIronCondor},
	}
	for i := range fixtures {
		if err := s.SaveTrade(ctx, &fixtures[i]); err != nil {
			t.Fatalf("SaveTrade(%s) error: %v", fixtures[i].ID, err)
		}
	}

	bySymbol, err := s.GetTrades(ctx, TradeFilter{Symbol: "NIFTY25SEP25000CE"})
	if err != nil {
		t.Fatal(err)
	}
	if len(bySymbol) != 1 || bySymbol[0].ID != "T1" {
		t.Errorf("symbol filter = %+v, want just T1", bySymbol)
	}

	byStrategy, err := s.GetTrades(ctx, TradeFilter{Strategy: models.StrategyStraddle})
	if err != nil {
		t.Fatal(err)
	}
	if len(byStrategy) != 2 {
		t.Errorf("strategy filter returned %d trades, want 2", len(byStrategy))
	}
	// Newest first.
	if len(byStrategy) == 2 && byStrategy[0].ID != "T2" {
		t.Errorf("order = [%s, %s], want T2 first", byStrategy[0].ID, byStrategy[1].ID)
	}

	recent, err := s.GetTrades(ctx, TradeFilter{From: base.Add(-90 * time.Minute)})
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 || recent[0].ID != "T3" {
		t.Errorf("time filter = %+v, want just T3", recent)
	}

	limited, err := s.GetTrades(ctx, TradeFilter{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Errorf("limit filter returned %d trades, want 2", len(limited))
	}
}

func TestSelectionRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := &SelectionRecord{
		Timestamp:    time.Now().UTC().Truncate(time.Second),
		Underlying:   "NIFTY",
		Strategy:     models.StrategyStrangle,
		Confidence:   0.67,
		State:        "MODERATELY_ACTIVE",
		Reason:       "moderately active market favors wide volatility capture",
		Success:      false,
		ErrorCode:    "exhausted",
		FallbackFrom: models.StrategyIronCondor,
		Lots:         3,
		Premium:      -25000,
		FailedLegs:   []string{"NIFTY25SEP25750CE", "NIFTY25SEP24250PE"},
	}
	if err := s.SaveSelection(ctx, rec); err != nil {
		t.Fatalf("SaveSelection() error: %v", err)
	}
	if rec.ID == 0 {
		t.Error("SaveSelection must backfill the row ID")
	}

	got, err := s.GetSelections(ctx, 10)
	if err != nil {
		t.Fatalf("GetSelections() error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d selections, want 1", len(got))
	}
	r := got[0]
	if r.Underlying != "NIFTY" || r.Strategy != models.StrategyStrangle || r.Success {
		t.Errorf("round-trip mismatch: %+v", r)
	}
	if r.ErrorCode != "exhausted" || r.FallbackFrom != models.StrategyIronCondor {
		t.Errorf("round-trip mismatch: %+v", r)
	}
	if len(r.FailedLegs) != 2 || r.FailedLegs[0] != "NIFTY25SEP25750CE" {
		t.Errorf("failed legs = %v, want two symbols back", r.FailedLegs)
	}
}

func TestSelectionEmptyFailedLegs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := &SelectionRecord{
		Timestamp:  time.Now().UTC(),
		Underlying: "NIFTY",
		Strategy:   models.StrategyStraddle,
		Success:    true,
		Lots:       2,
	}
	if err := s.SaveSelection(ctx, rec); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetSelections(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d selections, want 1", len(got))
	}
	if got[0].FailedLegs != nil {
		t.Errorf("failed legs = %v, want nil for a clean run", got[0].FailedLegs)
	}
}

package portfolio

import (
	"context"
	"testing"

	"options-trader/internal/errors"
	"options-trader/internal/models"
)

func TestPaperBuyDebitsCash(t *testing.T) {
	p := NewPaperPortfolio(100000)

	trade, err := p.ExecuteTrade(context.Background(), TradeRequest{
		Symbol: "NIFTY25SEP25000CE", Quantity: 75, Price: 250, Side: models.OrderSideBuy,
	})
	if err != nil {
		t.Fatalf("ExecuteTrade() error: %v", err)
	}
	if p.Cash() != 100000-75*250 {
		t.Errorf("cash = %.2f, want %.2f", p.Cash(), 100000-75.0*250)
	}
	if trade.ID != "PAPER-000001" {
		t.Errorf("trade ID = %s, want PAPER-000001", trade.ID)
	}
	if !trade.IsPaper {
		t.Error("paper fills must be marked as paper")
	}
}

func TestPaperSellCreditsCash(t *testing.T) {
	p := NewPaperPortfolio(100000)

	if _, err := p.ExecuteTrade(context.Background(), TradeRequest{
		Symbol: "NIFTY25SEP25200CE", Quantity: 75, Price: 100, Side: models.OrderSideSell,
	}); err != nil {
		t.Fatalf("ExecuteTrade() error: %v", err)
	}
	if p.Cash() != 100000+75*100 {
		t.Errorf("cash = %.2f, want %.2f", p.Cash(), 100000+75.0*100)
	}

	pos := p.OpenPositions()
	if len(pos) != 1 || pos[0].Quantity != -75 {
		t.Errorf("positions = %+v, want one short of 75", pos)
	}
}

func TestPaperRejectsInsufficientFunds(t *testing.T) {
	p := NewPaperPortfolio(1000)

	_, err := p.ExecuteTrade(context.Background(), TradeRequest{
		Symbol: "NIFTY25SEP25000CE", Quantity: 75, Price: 250, Side: models.OrderSideBuy,
	})
	if !errors.Is(err, errors.ErrInsufficientFunds) {
		t.Errorf("error = %v, want ErrInsufficientFunds", err)
	}
	if p.Cash() != 1000 {
		t.Errorf("rejected fill must not touch cash, got %.2f", p.Cash())
	}
}

func TestPaperPositionNetsToFlat(t *testing.T) {
	p := NewPaperPortfolio(100000)
	ctx := context.Background()

	req := TradeRequest{Symbol: "NIFTY25SEP25000CE", Quantity: 75, Price: 100, Side: models.OrderSideBuy}
	if _, err := p.ExecuteTrade(ctx, req); err != nil {
		t.Fatal(err)
	}
	req.Side = models.OrderSideSell
	if _, err := p.ExecuteTrade(ctx, req); err != nil {
		t.Fatal(err)
	}

	if open := p.OpenPositions(); len(open) != 0 {
		t.Errorf("buy then sell of equal size must net flat, got %+v", open)
	}
	if got := len(p.Trades()); got != 2 {
		t.Errorf("trade log has %d entries, want 2", got)
	}
}

func TestPaperAveragePriceIsVolumeWeighted(t *testing.T) {
	p := NewPaperPortfolio(100000)
	ctx := context.Background()

	buy := func(qty int, price float64) {
		t.Helper()
		if _, err := p.ExecuteTrade(ctx, TradeRequest{
			Symbol: "NIFTY25SEP25000CE", Quantity: qty, Price: price, Side: models.OrderSideBuy,
		}); err != nil {
			t.Fatal(err)
		}
	}

	buy(75, 100)
	buy(150, 130)

	pos := p.OpenPositions()
	if len(pos) != 1 {
		t.Fatalf("positions = %+v, want 1", pos)
	}
	// (75*100 + 150*130) / 225 = 120
	if pos[0].AveragePrice != 120 {
		t.Errorf("average price = %.2f, want 120 (volume-weighted)", pos[0].AveragePrice)
	}

	// Partial exit keeps the entry average.
	if _, err := p.ExecuteTrade(ctx, TradeRequest{
		Symbol: "NIFTY25SEP25000CE", Quantity: 75, Price: 160, Side: models.OrderSideSell,
	}); err != nil {
		t.Fatal(err)
	}
	pos = p.OpenPositions()
	if len(pos) != 1 || pos[0].Quantity != 150 {
		t.Fatalf("positions after partial exit = %+v, want 150 long", pos)
	}
	if pos[0].AveragePrice != 120 {
		t.Errorf("average price after partial exit = %.2f, want 120", pos[0].AveragePrice)
	}
}

func TestPaperFlipThroughZeroResetsAverage(t *testing.T) {
	p := NewPaperPortfolio(100000)
	ctx := context.Background()

	if _, err := p.ExecuteTrade(ctx, TradeRequest{
		Symbol: "NIFTY25SEP25000PE", Quantity: 75, Price: 100, Side: models.OrderSideBuy,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := p.ExecuteTrade(ctx, TradeRequest{
		Symbol: "NIFTY25SEP25000PE", Quantity: 150, Price: 90, Side: models.OrderSideSell,
	}); err != nil {
		t.Fatal(err)
	}

	pos := p.OpenPositions()
	if len(pos) != 1 || pos[0].Quantity != -75 {
		t.Fatalf("positions = %+v, want short 75", pos)
	}
	if pos[0].AveragePrice != 90 {
		t.Errorf("average price after flip = %.2f, want the flipping fill's 90", pos[0].AveragePrice)
	}
}

func TestPaperRejectsInvalidQuantity(t *testing.T) {
	p := NewPaperPortfolio(100000)

	if _, err := p.ExecuteTrade(context.Background(), TradeRequest{
		Symbol: "NIFTY25SEP25000CE", Quantity: 0, Price: 100, Side: models.OrderSideBuy,
	}); err == nil {
		t.Error("zero quantity must be rejected")
	}
}

func TestPaperHonoursContextCancellation(t *testing.T) {
	p := NewPaperPortfolio(100000)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.ExecuteTrade(ctx, TradeRequest{
		Symbol: "NIFTY25SEP25000CE", Quantity: 75, Price: 100, Side: models.OrderSideBuy,
	}); err == nil {
		t.Error("cancelled context must abort the fill")
	}
}

func TestPaperDefaultCapital(t *testing.T) {
	if p := NewPaperPortfolio(0); p.Cash() != 1000000 {
		t.Errorf("default capital = %.0f, want 1000000", p.Cash())
	}
}

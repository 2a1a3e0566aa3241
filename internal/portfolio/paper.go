package portfolio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"options-trader/internal/errors"
	"options-trader/internal/models"
)

// PaperPortfolio simulates a portfolio in memory for offline runs and tests.
type PaperPortfolio struct {
	mu           sync.RWMutex
	cash         float64
	positions    map[string]*models.Position
	trades       []models.TradeRecord
	tradeCounter int
}

// NewPaperPortfolio creates a paper portfolio with the given starting cash.
func NewPaperPortfolio(initialCash float64) *PaperPortfolio {
	if initialCash <= 0 {
		initialCash = 1000000 // 10 lakhs default
	}
	return &PaperPortfolio{
		cash:      initialCash,
		positions: make(map[string]*models.Position),
	}
}

// Cash returns the available cash balance.
func (p *PaperPortfolio) Cash() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cash
}

// OpenPositions returns a copy of the open positions.
func (p *PaperPortfolio) OpenPositions() []models.Position {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]models.Position, 0, len(p.positions))
	for _, pos := range p.positions {
		if pos.Quantity != 0 {
			out = append(out, *pos)
		}
	}
	return out
}

// ExecuteTrade fills one leg against the simulated balance. Buys debit cash
// and fail on insufficient funds; sells credit cash. Filled legs stay on the
// book even when a later leg of the same structure fails.
func (p *PaperPortfolio) ExecuteTrade(ctx context.Context, req TradeRequest) (*models.TradeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, errors.Wrapf(errors.ErrSymbolNotFound, "invalid quantity %d for %s", req.Quantity, req.Symbol)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	cost := req.Price * float64(req.Quantity)
	if req.Side == models.OrderSideBuy {
		if cost > p.cash {
			return nil, errors.Wrapf(errors.ErrInsufficientFunds, "need %.2f, have %.2f", cost, p.cash)
		}
		p.cash -= cost
	} else {
		p.cash += cost
	}

	qty := req.Quantity
	if req.Side == models.OrderSideSell {
		qty = -qty
	}
	pos, ok := p.positions[req.Symbol]
	if !ok {
		pos = &models.Position{Symbol: req.Symbol, IndexTag: req.IndexTag}
		p.positions[req.Symbol] = pos
	}
	prev := pos.Quantity
	pos.Quantity += qty
	switch {
	case pos.Quantity == 0:
		// Flat: no exposure left to price.
		pos.AveragePrice = 0
	case prev == 0 || (prev > 0) != (pos.Quantity > 0):
		// Fresh or flipped-through-zero exposure starts at this fill.
		pos.AveragePrice = req.Price
	case (prev > 0) == (qty > 0):
		// Adding in the same direction: volume-weighted entry price.
		pos.AveragePrice = (pos.AveragePrice*absQty(prev) + req.Price*absQty(qty)) / absQty(pos.Quantity)
	}
	// Reducing without flipping keeps the original entry price.

	p.tradeCounter++
	record := models.TradeRecord{
		ID:         fmt.Sprintf("PAPER-%06d", p.tradeCounter),
		Timestamp:  time.Now(),
		Symbol:     req.Symbol,
		Side:       req.Side,
		Quantity:   req.Quantity,
		Price:      req.Price,
		Strategy:   req.Strategy,
		Sector:     req.Sector,
		Confidence: req.Confidence,
		RiskAmount: req.RiskAmount,
		IsPaper:    true,
	}
	p.trades = append(p.trades, record)

	return &record, nil
}

func absQty(q int) float64 {
	if q < 0 {
		return float64(-q)
	}
	return float64(q)
}

// Trades returns all recorded fills.
func (p *PaperPortfolio) Trades() []models.TradeRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]models.TradeRecord, len(p.trades))
	copy(out, p.trades)
	return out
}

// Package portfolio defines the portfolio collaborator interface and a paper
// implementation. The portfolio owns all shared mutable state; its operations
// are individually atomic and the execution engine relies on that instead of
// implementing its own concurrency control.
package portfolio

import (
	"context"

	"options-trader/internal/models"
)

// TradeRequest is one leg submission.
type TradeRequest struct {
	Symbol     string
	Quantity   int
	Price      float64
	Side       models.OrderSide
	Strategy   string
	Sector     string
	Confidence float64
	RiskAmount float64
	IndexTag   string
}

// Portfolio is the external collaborator that owns cash and positions.
type Portfolio interface {
	// Cash returns the available cash balance.
	Cash() float64
	// OpenPositions returns the currently open positions with index tags.
	OpenPositions() []models.Position
	// ExecuteTrade submits one leg; a nil record with an error means the leg
	// did not fill.
	ExecuteTrade(ctx context.Context, req TradeRequest) (*models.TradeRecord, error)
}

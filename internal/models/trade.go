package models

import "time"

// TradeRecord represents an executed leg as confirmed by the portfolio.
type TradeRecord struct {
	ID         string
	Timestamp  time.Time
	Symbol     string
	Side       OrderSide
	Quantity   int
	Price      float64
	Strategy   string
	Sector     string
	Confidence float64
	RiskAmount float64
	IsPaper    bool
}

// Position is an open position as reported by the portfolio collaborator.
// IndexTag identifies the underlying index for correlation gating.
type Position struct {
	Symbol       string
	IndexTag     string
	Quantity     int
	AveragePrice float64
}

// Package store provides data persistence implementations.
package store

import (
	"context"
	"time"

	"options-trader/internal/models"
)

// Store persists executed trades and strategy selection outcomes. Partial
// fills leave already-filled legs open; the journal is the reconciliation
// record the caller inspects afterward.
type Store interface {
	// SaveTrade records one executed leg.
	SaveTrade(ctx context.Context, trade *models.TradeRecord) error

	// GetTrades returns trades matching the filter, newest first.
	GetTrades(ctx context.Context, filter TradeFilter) ([]models.TradeRecord, error)

	// SaveSelection records the outcome of one strategy run for an underlying.
	SaveSelection(ctx context.Context, rec *SelectionRecord) error

	// GetSelections returns the most recent selection outcomes.
	GetSelections(ctx context.Context, limit int) ([]SelectionRecord, error)

	// Close releases the underlying storage.
	Close() error
}

// TradeFilter narrows trade queries. Zero values match everything.
type TradeFilter struct {
	Symbol   string
	Strategy string
	From     time.Time
	To       time.Time
	Limit    int
}

// SelectionRecord is the journal row for one strategy run: what was picked,
// whether it executed, and which fallback path it took.
type SelectionRecord struct {
	ID           int64
	Timestamp    time.Time
	Underlying   string
	Strategy     string
	Confidence   float64
	State        string
	Reason       string
	Success      bool
	ErrorCode    string
	FallbackFrom string
	Lots         int
	Premium      float64
	FailedLegs   []string
}

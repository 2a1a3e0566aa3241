// Package marketdata defines the market-data collaborator interface and its
// implementations. The core borrows the chain and regime snapshot read-only;
// rate limiting, retries and symbol resolution live behind this boundary.
package marketdata

import (
	"context"
	"time"

	"options-trader/internal/chain"
	"options-trader/internal/errors"
	"options-trader/internal/models"
)

// Provider supplies option chains and regime snapshots.
type Provider interface {
	// FetchChain returns the chain for the underlying index. A zero expiry
	// selects the nearest expiry. A nil chain with an error means the data
	// is unavailable for this invocation; the caller aborts without retry.
	FetchChain(ctx context.Context, underlying string, expiry time.Time) (*chain.Chain, error)

	// DetectRegime returns the trend/momentum snapshot for the underlying.
	DetectRegime(ctx context.Context, underlying string) (models.RegimeSnapshot, error)
}

// StaticProvider serves pre-built chains and snapshots, for offline
// evaluation and tests.
type StaticProvider struct {
	Chains    map[string]*chain.Chain
	Snapshots map[string]models.RegimeSnapshot
}

// NewStaticProvider creates an empty static provider.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{
		Chains:    make(map[string]*chain.Chain),
		Snapshots: make(map[string]models.RegimeSnapshot),
	}
}

// FetchChain returns the stored chain for the underlying.
func (p *StaticProvider) FetchChain(_ context.Context, underlying string, _ time.Time) (*chain.Chain, error) {
	c, ok := p.Chains[underlying]
	if !ok || c == nil {
		return nil, errors.NewDataError("chain", underlying, "no chain loaded", errors.ErrDataUnavailable)
	}
	return c, nil
}

// DetectRegime returns the stored snapshot, neutral if none is loaded.
func (p *StaticProvider) DetectRegime(_ context.Context, underlying string) (models.RegimeSnapshot, error) {
	if snap, ok := p.Snapshots[underlying]; ok {
		return snap, nil
	}
	return models.RegimeSnapshot{Bias: models.BiasNeutral, Timestamp: time.Now()}, nil
}

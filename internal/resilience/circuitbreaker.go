// Package resilience provides the circuit breaker guarding upstream market
// data calls. A flapping quote API trips the breaker open so a full strategy
// cycle fails fast with data_unavailable instead of stalling leg by leg.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is the circuit breaker state.
type State string

const (
	StateClosed   State = "CLOSED"    // normal operation
	StateOpen     State = "OPEN"      // failing, rejecting requests
	StateHalfOpen State = "HALF_OPEN" // probing for recovery
)

// ErrOpen is returned while the circuit rejects requests.
var ErrOpen = errors.New("circuit breaker is open")

// Config holds circuit breaker thresholds.
type Config struct {
	FailureThreshold int           // consecutive failures before opening
	SuccessThreshold int           // half-open successes before closing
	Timeout          time.Duration // open duration before probing
}

// DefaultConfig returns thresholds suited to the quote API.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
	}
}

// Breaker implements the circuit breaker pattern.
type Breaker struct {
	name   string
	config Config

	mu          sync.Mutex
	state       State
	failures    int
	successes   int
	lastFailure time.Time
}

// NewBreaker creates a closed breaker.
func NewBreaker(name string, config Config) *Breaker {
	return &Breaker{name: name, config: config, state: StateClosed}
}

// State returns the current state, accounting for open-timeout expiry.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && time.Since(b.lastFailure) > b.config.Timeout {
		return StateHalfOpen
	}
	return b.state
}

// Do runs fn under the breaker. Context cancellation counts as a failure.
func Do[T any](b *Breaker, ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T
	if err := b.allow(); err != nil {
		return zero, err
	}
	if err := ctx.Err(); err != nil {
		b.record(false)
		return zero, err
	}

	v, err := fn()
	b.record(err == nil)
	if err != nil {
		return zero, err
	}
	return v, nil
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if time.Since(b.lastFailure) > b.config.Timeout {
			b.state = StateHalfOpen
			b.successes = 0
			return nil
		}
		return ErrOpen
	default:
		return nil
	}
}

func (b *Breaker) record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if success {
		b.failures = 0
		if b.state == StateHalfOpen {
			b.successes++
			if b.successes >= b.config.SuccessThreshold {
				b.state = StateClosed
			}
		}
		return
	}

	b.lastFailure = time.Now()
	if b.state == StateHalfOpen {
		b.state = StateOpen
		return
	}
	b.failures++
	if b.failures >= b.config.FailureThreshold {
		b.state = StateOpen
	}
}

// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrDataUnavailable         = errors.New("market data unavailable")
	ErrLiveDataRequired        = errors.New("live market data required")
	ErrInsufficientMarketDepth = errors.New("insufficient market depth")
	ErrEconomicsInvalid        = errors.New("strategy economics invalid")
	ErrSignalTooWeak           = errors.New("composite signal too weak")
	ErrCorrelationBlocked      = errors.New("correlated position already open")
	ErrPositionTooSmall        = errors.New("position too small for capital")
	ErrExecutionPartial        = errors.New("partial execution")
	ErrInsufficientFunds       = errors.New("insufficient funds")
	ErrMarketClosed            = errors.New("market is closed")
	ErrNotAuthenticated        = errors.New("not authenticated")
	ErrSymbolNotFound          = errors.New("symbol not found")
	ErrDatabaseError           = errors.New("database error")
)

// Machine-readable reason codes surfaced on execution results. These are
// result fields, not raised failures: the fallback loop branches on them.
const (
	CodeDataUnavailable    = "data_unavailable"
	CodeLiveDataRequired   = "live_data_required"
	CodeInsufficientDepth  = "insufficient_market_depth"
	CodeEconomicsInvalid   = "economics_invalid"
	CodeCreditNonPositive  = "net_credit_nonpositive"
	CodeSignalTooWeak      = "signal_too_weak"
	CodeCorrelationBlocked = "correlation_blocked"
	CodePositionTooSmall   = "position_too_small"
	CodeExecutionPartial   = "execution_partial"
	CodeExhausted          = "exhausted"
)

// Code maps a domain error to its reason code, or "" if it has none.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrLiveDataRequired):
		return CodeLiveDataRequired
	case errors.Is(err, ErrDataUnavailable):
		return CodeDataUnavailable
	case errors.Is(err, ErrInsufficientMarketDepth):
		return CodeInsufficientDepth
	case errors.Is(err, ErrEconomicsInvalid):
		return CodeEconomicsInvalid
	case errors.Is(err, ErrSignalTooWeak):
		return CodeSignalTooWeak
	case errors.Is(err, ErrCorrelationBlocked):
		return CodeCorrelationBlocked
	case errors.Is(err, ErrPositionTooSmall):
		return CodePositionTooSmall
	case errors.Is(err, ErrExecutionPartial):
		return CodeExecutionPartial
	default:
		return ""
	}
}

// PlanError represents a failure while binding a candidate to concrete legs.
type PlanError struct {
	Strategy string
	Reason   string
	Err      error
}

func (e *PlanError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("plan error [%s]: %s: %v", e.Strategy, e.Reason, e.Err)
	}
	return fmt.Sprintf("plan error [%s]: %s", e.Strategy, e.Reason)
}

func (e *PlanError) Unwrap() error {
	return e.Err
}

// NewPlanError creates a new PlanError.
func NewPlanError(strategy, reason string, err error) *PlanError {
	return &PlanError{Strategy: strategy, Reason: reason, Err: err}
}

// SizingError represents a position-sizing rejection.
type SizingError struct {
	Strategy     string
	Capital      float64
	RequiredCash float64
	Err          error
}

func (e *SizingError) Error() string {
	return fmt.Sprintf("sizing error [%s]: min lot needs %.2f against capital %.2f: %v",
		e.Strategy, e.RequiredCash, e.Capital, e.Err)
}

func (e *SizingError) Unwrap() error {
	return e.Err
}

// NewSizingError creates a new SizingError.
func NewSizingError(strategy string, capital, required float64, err error) *SizingError {
	return &SizingError{Strategy: strategy, Capital: capital, RequiredCash: required, Err: err}
}

// ExecutionError represents a leg-submission failure. FailedLegs lists the
// legs that did not fill; legs filled before the failure stay open.
type ExecutionError struct {
	Strategy   string
	FailedLegs []string
	Err        error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution error [%s]: %d legs failed: %v", e.Strategy, len(e.FailedLegs), e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// NewExecutionError creates a new ExecutionError.
func NewExecutionError(strategy string, failedLegs []string, err error) *ExecutionError {
	return &ExecutionError{Strategy: strategy, FailedLegs: failedLegs, Err: err}
}

// DataError represents a market-data retrieval error.
type DataError struct {
	DataType string
	Symbol   string
	Message  string
	Err      error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s] %s: %s: %v", e.DataType, e.Symbol, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s] %s: %s", e.DataType, e.Symbol, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(dataType, symbol, message string, err error) *DataError {
	return &DataError{DataType: dataType, Symbol: symbol, Message: message, Err: err}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

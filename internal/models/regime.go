package models

import "time"

// RegimeSnapshot is the trend/momentum view supplied by the regime-detection
// collaborator. It is recomputed per selection request and never persisted.
type RegimeSnapshot struct {
	Bias          Bias
	TrendStrength float64 // normalized [0, 1]
	ADX           float64 // directional-strength indicator
	Slope         float64 // short-term slope of the underlying
	Confidence    float64 // [0, 1]
	Timestamp     time.Time
}

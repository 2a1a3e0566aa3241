package models

import "time"

// OptionGreeks represents option Greeks.
type OptionGreeks struct {
	Delta float64
	Gamma float64
	Theta float64
	Vega  float64
	Rho   float64
}

// OptionContract represents a single option contract with its market fields.
// IV is stored in percent (20 means 20% annualized).
type OptionContract struct {
	Symbol       string
	Strike       float64
	Expiry       time.Time
	Side         OptionSide
	LotSize      int
	LastPrice    float64
	OpenInterest int64
	Volume       int64
	IV           float64
	Greeks       OptionGreeks
	Intrinsic    float64
	TimeValue    float64
	Moneyness    float64 // signed; 0 = ATM
}

// Live reports whether the contract has a tradeable last price.
func (c *OptionContract) Live() bool {
	return c != nil && c.LastPrice > 0
}

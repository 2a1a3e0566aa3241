// Package models defines the core data types shared across the application.
package models

// Exchange represents a stock exchange segment.
type Exchange string

const (
	NSE Exchange = "NSE"
	BSE Exchange = "BSE"
	NFO Exchange = "NFO" // F&O
)

// OrderSide represents the side of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// OptionSide represents the side of an option contract.
type OptionSide string

const (
	Call OptionSide = "CALL"
	Put  OptionSide = "PUT"
)

// MarketStatus represents the current market session state.
type MarketStatus string

const (
	MarketPreOpen MarketStatus = "PRE_OPEN"
	MarketOpen    MarketStatus = "OPEN"
	MarketClosed  MarketStatus = "CLOSED"
)

// Bias represents the directional bias of the market.
type Bias string

const (
	BiasBullish Bias = "BULLISH"
	BiasBearish Bias = "BEARISH"
	BiasNeutral Bias = "NEUTRAL"
)

// MarketState is the composite regime classification used for strategy gating.
type MarketState string

const (
	StateVolatileTrending MarketState = "VOLATILE_TRENDING"
	StateModeratelyActive MarketState = "MODERATELY_ACTIVE"
	StateCalmSideways     MarketState = "CALM_SIDEWAYS"
)

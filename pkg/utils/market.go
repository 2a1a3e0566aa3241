package utils

import (
	"time"

	"options-trader/internal/models"
)

// IndiaLocation is the exchange timezone (IST).
var IndiaLocation *time.Location

func init() {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		loc = time.FixedZone("IST", 5*3600+30*60)
	}
	IndiaLocation = loc
}

// NSE session boundaries, minutes from midnight IST.
const (
	preOpenStartMinute = 9 * 60
	sessionStartMinute = 9*60 + 15
	sessionEndMinute   = 15*60 + 30
)

// MarketStatus returns the current NSE session phase.
func MarketStatus() models.MarketStatus {
	return marketStatusAt(time.Now().In(IndiaLocation))
}

func marketStatusAt(t time.Time) models.MarketStatus {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return models.MarketClosed
	}
	minute := t.Hour()*60 + t.Minute()
	switch {
	case minute >= preOpenStartMinute && minute < sessionStartMinute:
		return models.MarketPreOpen
	case minute >= sessionStartMinute && minute < sessionEndMinute:
		return models.MarketOpen
	default:
		return models.MarketClosed
	}
}

// IsMarketOpen reports whether the regular trading session is in progress.
// Pre-open does not count: order entry starts at 9:15.
func IsMarketOpen() bool {
	return MarketStatus() == models.MarketOpen
}

// NextMarketOpen returns the next 9:15 IST session start, skipping weekends.
func NextMarketOpen() time.Time {
	return nextMarketOpenAfter(time.Now().In(IndiaLocation))
}

func nextMarketOpenAfter(t time.Time) time.Time {
	next := time.Date(t.Year(), t.Month(), t.Day(), 9, 15, 0, 0, IndiaLocation)
	if !t.Before(next) {
		next = next.AddDate(0, 0, 1)
	}
	for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Package chain provides the option-chain container and its analytics:
// ATM strike discovery, strike windows, max pain and open-interest ranking.
package chain

import (
	"math"
	"sort"
	"time"

	"options-trader/internal/models"
)

// Chain holds the full option chain for one underlying and expiry. Contracts
// are keyed by strike per side; strikes are unique within a side.
type Chain struct {
	Underlying string
	Expiry     time.Time
	LotSize    int
	Spot       float64
	Timestamp  time.Time
	Live       bool // false means snapshot/mock data; execution rejects it
	Calls      map[float64]*models.OptionContract
	Puts       map[float64]*models.OptionContract
}

// New creates an empty chain.
func New(underlying string, expiry time.Time, lotSize int) *Chain {
	return &Chain{
		Underlying: underlying,
		Expiry:     expiry,
		LotSize:    lotSize,
		Calls:      make(map[float64]*models.OptionContract),
		Puts:       make(map[float64]*models.OptionContract),
	}
}

// AddContract inserts a contract into the calls or puts map keyed by strike.
// An existing entry at the same strike is overwritten (last write wins).
func (c *Chain) AddContract(ct *models.OptionContract) {
	if ct == nil {
		return
	}
	if ct.Side == models.Call {
		c.Calls[ct.Strike] = ct
	} else {
		c.Puts[ct.Strike] = ct
	}
}

// Strikes returns the sorted union of call and put strikes.
func (c *Chain) Strikes() []float64 {
	seen := make(map[float64]struct{}, len(c.Calls)+len(c.Puts))
	for k := range c.Calls {
		seen[k] = struct{}{}
	}
	for k := range c.Puts {
		seen[k] = struct{}{}
	}
	strikes := make([]float64, 0, len(seen))
	for k := range seen {
		strikes = append(strikes, k)
	}
	sort.Float64s(strikes)
	return strikes
}

// ATMStrike returns the strike closest to spot across both sides. An empty
// chain approximates with the nearest 50-point level. Ties resolve to the
// first strike encountered in ascending order.
func (c *Chain) ATMStrike(spot float64) float64 {
	strikes := c.Strikes()
	if len(strikes) == 0 {
		return math.Round(spot/50) * 50
	}

	best := strikes[0]
	bestDist := math.Abs(strikes[0] - spot)
	for _, k := range strikes[1:] {
		if d := math.Abs(k - spot); d < bestDist {
			best = k
			bestDist = d
		}
	}
	return best
}

// StrikesAroundSpot returns a contiguous window of n strikes centered on the
// strike closest to spot, clipped at the bounds of the strike array.
func (c *Chain) StrikesAroundSpot(spot float64, n int) []float64 {
	strikes := c.Strikes()
	if len(strikes) == 0 || n <= 0 {
		return nil
	}

	center := 0
	bestDist := math.Abs(strikes[0] - spot)
	for i, k := range strikes[1:] {
		if d := math.Abs(k - spot); d < bestDist {
			center = i + 1
			bestDist = d
		}
	}

	lo := center - n/2
	hi := lo + n
	if lo < 0 {
		lo = 0
		hi = n
	}
	if hi > len(strikes) {
		hi = len(strikes)
		lo = hi - n
		if lo < 0 {
			lo = 0
		}
	}
	return strikes[lo:hi]
}

// MaxPain returns the strike at which option writers' aggregate payout is
// minimized: for each candidate strike k the call pain is OI*(k - strike)
// for calls struck below k, and symmetrically OI*(strike - k) for puts
// struck above k. O(S^2) over the strike count, which stays small enough
// for live chains. Returns 0 for an empty chain.
func (c *Chain) MaxPain() float64 {
	strikes := c.Strikes()
	if len(strikes) == 0 {
		return 0
	}

	best := strikes[0]
	bestPain := math.Inf(1)
	for _, k := range strikes {
		var pain float64
		for strike, call := range c.Calls {
			if k > strike {
				pain += float64(call.OpenInterest) * (k - strike)
			}
		}
		for strike, put := range c.Puts {
			if strike > k {
				pain += float64(put.OpenInterest) * (strike - k)
			}
		}
		if pain < bestPain {
			best = k
			bestPain = pain
		}
	}
	return best
}

// StrikeMetric pairs a strike with an activity metric for ranking.
type StrikeMetric struct {
	Strike float64
	Side   models.OptionSide
	Value  int64
}

// TopByOpenInterest returns the n most active contracts by open interest
// across both sides.
func (c *Chain) TopByOpenInterest(n int) []StrikeMetric {
	return c.topBy(n, func(ct *models.OptionContract) int64 { return ct.OpenInterest })
}

// TopByVolume returns the n most active contracts by traded volume across
// both sides.
func (c *Chain) TopByVolume(n int) []StrikeMetric {
	return c.topBy(n, func(ct *models.OptionContract) int64 { return ct.Volume })
}

func (c *Chain) topBy(n int, metric func(*models.OptionContract) int64) []StrikeMetric {
	if n <= 0 {
		return nil
	}

	all := make([]StrikeMetric, 0, len(c.Calls)+len(c.Puts))
	for _, k := range c.Strikes() {
		if ct, ok := c.Calls[k]; ok {
			all = append(all, StrikeMetric{Strike: k, Side: models.Call, Value: metric(ct)})
		}
		if ct, ok := c.Puts[k]; ok {
			all = append(all, StrikeMetric{Strike: k, Side: models.Put, Value: metric(ct)})
		}
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].Value > all[j].Value })
	if n > len(all) {
		n = len(all)
	}
	return all[:n]
}

// Call returns the call contract at the given strike, or nil.
func (c *Chain) Call(strike float64) *models.OptionContract {
	return c.Calls[strike]
}

// Put returns the put contract at the given strike, or nil.
func (c *Chain) Put(strike float64) *models.OptionContract {
	return c.Puts[strike]
}

// DaysToExpiry returns the calendar days between the chain timestamp and
// expiry, floored at zero.
func (c *Chain) DaysToExpiry() float64 {
	d := c.Expiry.Sub(c.Timestamp).Hours() / 24
	if d < 0 {
		return 0
	}
	return d
}

package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"options-trader/internal/chain"
	"options-trader/internal/config"
	"options-trader/internal/errors"
	"options-trader/internal/models"
	"options-trader/internal/pricing"
	"options-trader/internal/resilience"
	"options-trader/pkg/utils"
)

const (
	quoteBatchSize  = 200 // Kite quote API ceiling is 500 instruments per call
	regimeLookback  = 90  // calendar days of daily candles for trend detection
	adxPeriod       = 14
	slopeWindow     = 20
	daysPerYear     = 365.0
	sessionFileName = "session.json"
)

type sessionData struct {
	AccessToken string    `json:"access_token"`
	UserID      string    `json:"user_id"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// KiteProvider fetches live option chains and regime snapshots from the Kite
// Connect API. It caches the NFO instrument dump per expiry lookup and
// persists the session token so restarts skip the login flow.
type KiteProvider struct {
	client    *kiteconnect.Client
	apiSecret string
	userID    string
	tokenPath string
	riskFree  float64
	retry     utils.RetryConfig
	breaker   *resilience.Breaker
	log       zerolog.Logger

	mu            sync.Mutex
	authenticated bool
	accessToken   string
	tokens        map[string]uint32 // "EXCHANGE:SYMBOL" -> instrument token
}

// NewKiteProvider creates a provider from credentials. A previously saved
// session is restored if it has not expired.
func NewKiteProvider(creds config.KiteCredentials, riskFree float64, logger zerolog.Logger) *KiteProvider {
	p := &KiteProvider{
		client:    kiteconnect.New(creds.APIKey),
		apiSecret: creds.APISecret,
		userID:    creds.UserID,
		tokenPath: filepath.Join(config.DefaultConfigDir(), sessionFileName),
		riskFree:  riskFree,
		retry:     utils.DefaultRetryConfig(),
		breaker:   resilience.NewBreaker("kite", resilience.DefaultConfig()),
		log:       logger,
		tokens:    make(map[string]uint32),
	}
	_ = p.loadSession()
	return p
}

// IsAuthenticated reports whether a usable session is loaded.
func (p *KiteProvider) IsAuthenticated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.authenticated
}

// LoginURL returns the Kite Connect login URL for the interactive auth flow.
func (p *KiteProvider) LoginURL() string {
	return p.client.GetLoginURL()
}

// CompleteLogin exchanges the request token for an access token and persists
// the session.
func (p *KiteProvider) CompleteLogin(requestToken string) error {
	session, err := p.client.GenerateSession(requestToken, p.apiSecret)
	if err != nil {
		return errors.Wrap(errors.ErrNotAuthenticated, err.Error())
	}

	p.mu.Lock()
	p.accessToken = session.AccessToken
	p.authenticated = true
	p.mu.Unlock()
	p.client.SetAccessToken(session.AccessToken)

	if err := p.saveSession(session.AccessToken); err != nil {
		p.log.Warn().Err(err).Msg("Failed to persist session")
	}
	return nil
}

// Logout invalidates and forgets the stored session.
func (p *KiteProvider) Logout() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.authenticated {
		if _, err := p.client.InvalidateAccessToken(); err != nil {
			p.log.Warn().Err(err).Msg("Failed to invalidate access token")
		}
	}
	p.authenticated = false
	p.accessToken = ""
	return os.Remove(p.tokenPath)
}

func (p *KiteProvider) loadSession() error {
	data, err := os.ReadFile(p.tokenPath)
	if err != nil {
		return err
	}

	var session sessionData
	if err := json.Unmarshal(data, &session); err != nil {
		return err
	}
	// Kite tokens expire at 6 AM IST the next day.
	if time.Now().After(session.ExpiresAt) {
		return fmt.Errorf("session expired")
	}

	p.mu.Lock()
	p.accessToken = session.AccessToken
	p.authenticated = true
	p.mu.Unlock()
	p.client.SetAccessToken(session.AccessToken)
	return nil
}

func (p *KiteProvider) saveSession(accessToken string) error {
	if err := os.MkdirAll(filepath.Dir(p.tokenPath), 0700); err != nil {
		return err
	}

	now := time.Now().In(utils.IndiaLocation)
	expiresAt := time.Date(now.Year(), now.Month(), now.Day()+1, 6, 0, 0, 0, utils.IndiaLocation)

	data, err := json.Marshal(sessionData{
		AccessToken: accessToken,
		UserID:      p.userID,
		ExpiresAt:   expiresAt,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(p.tokenPath, data, 0600)
}

// FetchChain builds a fully populated chain for the underlying index: spot
// quote, per-contract LTP/OI/volume, and model-derived IV and greeks. A zero
// expiry resolves to the nearest listed expiry.
func (p *KiteProvider) FetchChain(ctx context.Context, underlying string, expiry time.Time) (*chain.Chain, error) {
	if !p.IsAuthenticated() {
		return nil, errors.ErrNotAuthenticated
	}

	spotSymbol := fmt.Sprintf("NSE:%s", underlying)
	spotQuotes, err := resilience.Do(p.breaker, ctx, func() (kiteconnect.Quote, error) {
		return utils.RetryWithResult(ctx, p.retry, func() (kiteconnect.Quote, error) {
			return p.client.GetQuote(spotSymbol)
		})
	})
	if err != nil {
		return nil, errors.NewDataError("quote", underlying, "spot quote failed", errors.Wrap(errors.ErrDataUnavailable, err.Error()))
	}
	spotQuote, ok := spotQuotes[spotSymbol]
	if !ok {
		return nil, errors.NewDataError("quote", underlying, "spot quote missing from response", errors.ErrSymbolNotFound)
	}

	options, err := p.optionInstruments(ctx, underlying, expiry)
	if err != nil {
		return nil, err
	}
	if len(options) == 0 {
		return nil, errors.NewDataError("instruments", underlying, "no option contracts listed", errors.ErrDataUnavailable)
	}
	expiry = options[0].Expiry.Time

	c := chain.New(underlying, expiry, int(options[0].LotSize))
	c.Spot = spotQuote.LastPrice
	c.Timestamp = time.Now()
	c.Live = true

	t := c.DaysToExpiry() / daysPerYear
	for batch := range batchInstruments(options, quoteBatchSize) {
		symbols := make([]string, len(batch))
		for i, inst := range batch {
			symbols[i] = fmt.Sprintf("%s:%s", inst.Exchange, inst.Tradingsymbol)
		}
		quotes, err := resilience.Do(p.breaker, ctx, func() (kiteconnect.Quote, error) {
			return utils.RetryWithResult(ctx, p.retry, func() (kiteconnect.Quote, error) {
				return p.client.GetQuote(symbols...)
			})
		})
		if err != nil {
			p.log.Warn().Err(err).Int("batch", len(symbols)).Msg("Option quote batch failed")
			continue
		}
		for i, inst := range batch {
			q, ok := quotes[symbols[i]]
			if !ok {
				continue
			}
			side := models.Call
			if inst.InstrumentType == "PE" {
				side = models.Put
			}
			ct := &models.OptionContract{
				Symbol:       inst.Tradingsymbol,
				Strike:       inst.StrikePrice,
				Expiry:       expiry,
				Side:         side,
				LotSize:      int(inst.LotSize),
				LastPrice:    q.LastPrice,
				OpenInterest: int64(q.OI),
				Volume:       int64(q.Volume),
			}
			pricing.Populate(ct, c.Spot, t, p.riskFree)
			c.AddContract(ct)
		}
	}

	if len(c.Calls) == 0 && len(c.Puts) == 0 {
		return nil, errors.NewDataError("chain", underlying, "no option quotes returned", errors.ErrDataUnavailable)
	}

	p.log.Info().
		Str("underlying", underlying).
		Time("expiry", expiry).
		Float64("spot", c.Spot).
		Int("calls", len(c.Calls)).
		Int("puts", len(c.Puts)).
		Msg("Chain fetched")
	return c, nil
}

// optionInstruments returns the NFO option contracts for the underlying at
// the requested expiry, sorted by strike. A zero expiry selects the nearest
// listed expiry on or after today.
func (p *KiteProvider) optionInstruments(ctx context.Context, underlying string, expiry time.Time) ([]kiteconnect.Instrument, error) {
	all, err := resilience.Do(p.breaker, ctx, func() (kiteconnect.Instruments, error) {
		return utils.RetryWithResult(ctx, p.retry, func() (kiteconnect.Instruments, error) {
			return p.client.GetInstruments()
		})
	})
	if err != nil {
		return nil, errors.NewDataError("instruments", underlying, "instrument dump failed", errors.Wrap(errors.ErrDataUnavailable, err.Error()))
	}

	var options []kiteconnect.Instrument
	for _, inst := range all {
		if inst.Exchange != string(models.NFO) || inst.Name != underlying {
			continue
		}
		if inst.InstrumentType != "CE" && inst.InstrumentType != "PE" {
			continue
		}
		options = append(options, inst)
		key := fmt.Sprintf("%s:%s", inst.Exchange, inst.Tradingsymbol)
		p.mu.Lock()
		p.tokens[key] = uint32(inst.InstrumentToken)
		p.mu.Unlock()
	}

	if expiry.IsZero() {
		var nearest time.Time
		today := time.Now().In(utils.IndiaLocation).Truncate(24 * time.Hour)
		for _, inst := range options {
			e := inst.Expiry.Time
			if e.Before(today) {
				continue
			}
			if nearest.IsZero() || e.Before(nearest) {
				nearest = e
			}
		}
		if nearest.IsZero() {
			return nil, errors.NewDataError("instruments", underlying, "no upcoming expiry", errors.ErrDataUnavailable)
		}
		expiry = nearest
	}

	filtered := options[:0]
	for _, inst := range options {
		if sameDay(inst.Expiry.Time, expiry) {
			filtered = append(filtered, inst)
		}
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].StrikePrice < filtered[j].StrikePrice })
	return filtered, nil
}

// DetectRegime derives the directional snapshot from daily index candles:
// EMA crossover for bias, Wilder ADX for directional strength, and the
// normalized regression slope of recent closes.
func (p *KiteProvider) DetectRegime(ctx context.Context, underlying string) (models.RegimeSnapshot, error) {
	if !p.IsAuthenticated() {
		return models.RegimeSnapshot{}, errors.ErrNotAuthenticated
	}

	token, err := p.instrumentToken(ctx, underlying)
	if err != nil {
		return models.RegimeSnapshot{}, err
	}

	to := time.Now().In(utils.IndiaLocation)
	from := to.AddDate(0, 0, -regimeLookback)
	data, err := resilience.Do(p.breaker, ctx, func() ([]kiteconnect.HistoricalData, error) {
		return utils.RetryWithResult(ctx, p.retry, func() ([]kiteconnect.HistoricalData, error) {
			return p.client.GetHistoricalData(int(token), "day", from, to, false, false)
		})
	})
	if err != nil {
		return models.RegimeSnapshot{}, errors.NewDataError("historical", underlying, "daily candles failed", errors.Wrap(errors.ErrDataUnavailable, err.Error()))
	}

	candles := make([]candle, len(data))
	for i, d := range data {
		candles[i] = candle{High: d.High, Low: d.Low, Close: d.Close}
	}
	snap := snapshotFromCandles(candles)
	snap.Timestamp = time.Now()

	p.log.Debug().
		Str("underlying", underlying).
		Str("bias", string(snap.Bias)).
		Float64("adx", snap.ADX).
		Float64("slope", snap.Slope).
		Msg("Regime detected")
	return snap, nil
}

// instrumentToken resolves the index token for historical data. Index
// instruments live on the NSE segment, not NFO, so this uses a direct
// instrument scan rather than the option cache.
func (p *KiteProvider) instrumentToken(ctx context.Context, underlying string) (uint32, error) {
	key := fmt.Sprintf("NSE:%s", underlying)
	p.mu.Lock()
	token, ok := p.tokens[key]
	p.mu.Unlock()
	if ok {
		return token, nil
	}

	instruments, err := resilience.Do(p.breaker, ctx, func() (kiteconnect.Instruments, error) {
		return utils.RetryWithResult(ctx, p.retry, func() (kiteconnect.Instruments, error) {
			return p.client.GetInstrumentsByExchange("NSE")
		})
	})
	if err != nil {
		return 0, errors.NewDataError("instruments", underlying, "NSE instrument dump failed", errors.Wrap(errors.ErrDataUnavailable, err.Error()))
	}
	for _, inst := range instruments {
		if inst.Tradingsymbol == underlying {
			token = uint32(inst.InstrumentToken)
			p.mu.Lock()
			p.tokens[key] = token
			p.mu.Unlock()
			return token, nil
		}
	}
	return 0, errors.NewDataError("instruments", underlying, "index not found", errors.ErrSymbolNotFound)
}

func batchInstruments(instruments []kiteconnect.Instrument, size int) <-chan []kiteconnect.Instrument {
	ch := make(chan []kiteconnect.Instrument)
	go func() {
		defer close(ch)
		for start := 0; start < len(instruments); start += size {
			end := start + size
			if end > len(instruments) {
				end = len(instruments)
			}
			ch <- instruments[start:end]
		}
	}()
	return ch
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

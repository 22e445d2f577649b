// Package marketdata loads the price, dividend and rate series a run consumes.
package marketdata

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"collar-backtester/internal/engine"
	"collar-backtester/internal/logging"
	"collar-backtester/internal/market"
	"collar-backtester/internal/models"
	"collar-backtester/internal/store"
)

// UnderlyingBenchmark selects the portfolio's own ticker as benchmark.
const UnderlyingBenchmark = "underlying"

// Source fetches one kind of series for a symbol.
type Source interface {
	Name() string
	Fetch(ctx context.Context, kind, symbol string, from, to time.Time) ([]models.Observation, error)
}

// Remote routes prices and dividends to Yahoo and rates to FRED.
type Remote struct {
	Yahoo *YahooClient
	FRED  *FREDClient
}

// NewRemote creates a remote source with default hosts.
func NewRemote(timeout time.Duration) *Remote {
	return &Remote{Yahoo: NewYahooClient("", timeout), FRED: NewFREDClient("", timeout)}
}

// Name returns the source name.
func (r *Remote) Name() string { return "yahoo" }

// Fetch dispatches on kind.
func (r *Remote) Fetch(ctx context.Context, kind, symbol string, from, to time.Time) ([]models.Observation, error) {
	if kind == store.KindRate {
		return r.FRED.Fetch(ctx, kind, symbol, from, to)
	}
	return r.Yahoo.Fetch(ctx, kind, symbol, from, to)
}

// Request describes the series a run needs.
type Request struct {
	Ticker     string
	Benchmark  string // symbol, UnderlyingBenchmark, or empty
	RateSeries string
	Start      time.Time
	End        time.Time
}

// Provider loads run inputs from a source, optionally through a series cache.
type Provider struct {
	source   Source
	cache    store.SeriesStore
	ttl      time.Duration
	lookback int
	logger   zerolog.Logger
	now      func() time.Time
}

// Option configures a Provider.
type Option func(*Provider)

// WithCache stores fetched series and serves fresh ones from s.
func WithCache(s store.SeriesStore, ttl time.Duration) Option {
	return func(p *Provider) {
		p.cache = s
		p.ttl = ttl
	}
}

// WithLookback sets how many calendar days of history precede the start date.
func WithLookback(days int) Option {
	return func(p *Provider) { p.lookback = days }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Provider) { p.logger = logger }
}

// NewProvider creates a provider over source.
func NewProvider(source Source, opts ...Option) *Provider {
	p := &Provider{
		source:   source,
		lookback: 45,
		logger:   zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Load fetches every series of req. Rates start lookback days before
// req.Start so a forward-filled rate exists on day one. Prices and dividends
// start a further year earlier to cover the trailing dividend window.
func (p *Provider) Load(ctx context.Context, req Request) (engine.Inputs, error) {
	start, end := models.NormalizeDate(req.Start), models.NormalizeDate(req.End)
	histStart := start.AddDate(0, 0, -p.lookback)
	divStart := histStart.AddDate(0, 0, -market.DividendLookbackDays)
	ticker := strings.ToUpper(req.Ticker)

	var in engine.Inputs

	// Same range for both, so a chart source answers them with one request.
	prices, err := p.Series(ctx, store.KindPrice, ticker, divStart, end)
	if err != nil {
		return engine.Inputs{}, err
	}
	divs, err := p.Series(ctx, store.KindDividend, ticker, divStart, end)
	if err != nil {
		return engine.Inputs{}, err
	}
	rates, err := p.Series(ctx, store.KindRate, req.RateSeries, histStart, end)
	if err != nil {
		return engine.Inputs{}, err
	}

	in.Prices = market.NewSeries(ticker, prices)
	in.Dividends = market.NewSeries(ticker+" dividends", divs)
	in.Rates = market.NewSeries(req.RateSeries, rates)

	switch bench := strings.ToUpper(req.Benchmark); {
	case bench == "":
	case strings.EqualFold(bench, UnderlyingBenchmark) || bench == ticker:
		in.Benchmark = in.Prices
		in.BenchmarkSymbol = ticker
	default:
		obs, err := p.Series(ctx, store.KindPrice, bench, start, end)
		if err != nil {
			return engine.Inputs{}, err
		}
		in.Benchmark = market.NewSeries(bench, obs)
		in.BenchmarkSymbol = bench
	}

	return in, nil
}

// Series returns one series in [from, to], from the cache when it is fresh
// and covers the range.
func (p *Provider) Series(ctx context.Context, kind, symbol string, from, to time.Time) ([]models.Observation, error) {
	key := store.SeriesKey{Source: p.source.Name(), Symbol: symbol, Kind: kind}

	if obs, ok := p.cached(ctx, key, from, to); ok {
		p.logger.Debug().Str("series", key.String()).Int("points", len(obs)).Msg("Series served from cache")
		return obs, nil
	}

	began := time.Now()
	obs, err := p.source.Fetch(ctx, kind, symbol, from, to)
	logging.LogFetch(p.logger, p.source.Name(), key.String(), len(obs), time.Since(began), err)
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		if err := p.cache.SaveSeries(ctx, key, obs); err != nil {
			p.logger.Warn().Err(err).Str("series", key.String()).Msg("Failed to cache series")
		} else if err := p.cache.SetLastSync(key, p.now()); err != nil {
			p.logger.Warn().Err(err).Str("series", key.String()).Msg("Failed to record sync")
		}
	}
	return obs, nil
}

// cached reports a hit when the series was synced within the TTL. Dense
// series must also span [from, to]; dividends are sparse, so for them the
// matching price series stands in for coverage.
func (p *Provider) cached(ctx context.Context, key store.SeriesKey, from, to time.Time) ([]models.Observation, bool) {
	if p.cache == nil {
		return nil, false
	}
	last := p.cache.GetLastSync(key)
	if last.IsZero() || p.now().Sub(last) > p.ttl {
		return nil, false
	}

	coverage := key
	if key.Kind == store.KindDividend {
		coverage.Kind = store.KindPrice
	}
	r, err := p.cache.GetSeriesRange(ctx, coverage)
	if err != nil || !coversTradingRange(r, from, to) {
		return nil, false
	}

	obs, err := p.cache.GetSeries(ctx, key, from, to)
	if err != nil {
		return nil, false
	}
	return obs, true
}

// coversTradingRange allows the stored range to start or end up to four days
// inside the request, since the requested bounds may fall on non-trading days.
func coversTradingRange(r store.DateRange, from, to time.Time) bool {
	const slack = 4
	if r.Start.IsZero() {
		return false
	}
	return !r.Start.After(from.AddDate(0, 0, slack)) && !r.End.Before(to.AddDate(0, 0, -slack))
}

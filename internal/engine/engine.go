// Package engine combines the stock holding and option legs into a daily equity curve.
package engine

import (
	"context"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"collar-backtester/internal/config"
	"collar-backtester/internal/errors"
	"collar-backtester/internal/logging"
	"collar-backtester/internal/market"
	"collar-backtester/internal/metrics"
	"collar-backtester/internal/models"
	"collar-backtester/internal/portfolio"
	"collar-backtester/internal/valuation"
)

// Inputs are the already-fetched series a run consumes.
type Inputs struct {
	Prices    *market.Series
	Rates     *market.Series
	Dividends *market.Series // optional

	Benchmark       *market.Series // optional
	BenchmarkSymbol string
}

// Result is the outcome of a successful run.
type Result struct {
	Config         models.PortfolioConfig
	Curve          models.EquityCurve
	Metrics        *models.PerformanceMetrics
	Rolling        []models.RollingPoint
	Legs           []*valuation.LegTrack
	State          *market.State
	StartingEquity float64
	Duration       time.Duration
}

// Engine runs portfolio valuations.
type Engine struct {
	settings config.EngineConfig
	logger   zerolog.Logger
}

// New creates an engine.
func New(settings config.EngineConfig, logger zerolog.Logger) *Engine {
	if settings.VolatilityWindow < 2 {
		settings.VolatilityWindow = market.DefaultVolatilityWindow
	}
	if settings.TradingDays <= 0 {
		settings.TradingDays = market.DefaultTradingDays
	}
	if settings.ContractMultiplier <= 0 {
		settings.ContractMultiplier = valuation.DefaultMultiplier
	}
	if settings.Workers <= 0 {
		settings.Workers = runtime.NumCPU()
	}
	return &Engine{settings: settings, logger: logger}
}

// Validate returns every configuration violation; empty when valid.
func (e *Engine) Validate(cfg models.PortfolioConfig) []error {
	err := portfolio.Validate(cfg)
	if err == nil {
		return nil
	}
	var verrs errors.ValidationErrors
	if errors.As(err, &verrs) {
		return verrs.Errors()
	}
	return []error{err}
}

// Run values the portfolio over its date range. A run either returns a
// complete result or an error; partial curves are never returned.
func (e *Engine) Run(ctx context.Context, cfg models.PortfolioConfig, in Inputs) (*Result, error) {
	started := time.Now()
	logger := logging.WithTicker(e.logger, cfg.Ticker)

	if err := portfolio.Validate(cfg); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start, end := cfg.DateRange()
	logging.LogRunStart(logger, cfg.Ticker, start, end, len(cfg.Legs))

	calendar, err := market.Calendar(in.Prices, start, end)
	if err != nil {
		return nil, err
	}

	builder := market.NewBuilder(in.Prices, in.Rates, in.Dividends,
		market.WithVolatilityWindow(e.settings.VolatilityWindow),
		market.WithTradingDays(e.settings.TradingDays),
	)
	state, err := builder.Build(calendar)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build market state")
	}
	state.Cover(end)

	tracks, err := e.valueLegs(logger, cfg.Legs, state)
	if err != nil {
		return nil, err
	}

	basis := startingEquity(cfg, state)
	curve := fold(cfg, state, tracks, basis)

	riskFree := make([]float64, state.Len())
	for i := range riskFree {
		riskFree[i] = state.At(i).Rate
	}

	mIn := metrics.Input{
		Curve:          curve,
		StartingEquity: basis,
		RiskFree:       riskFree,
		TradingDays:    e.settings.TradingDays,
	}
	if in.Benchmark != nil {
		mIn.Benchmark = in.Benchmark.Observations()
		mIn.BenchmarkSymbol = in.BenchmarkSymbol
	}
	perf := metrics.Compute(mIn)

	var rolling []models.RollingPoint
	if e.settings.RollingWindow > 1 {
		rolling = metrics.Rolling(mIn, e.settings.RollingWindow)
	}

	duration := time.Since(started)
	logging.LogRunComplete(logger, len(curve), curve.Last().TotalPL, duration)

	return &Result{
		Config:         cfg,
		Curve:          curve,
		Metrics:        perf,
		Rolling:        rolling,
		Legs:           tracks,
		State:          state,
		StartingEquity: basis,
		Duration:       duration,
	}, nil
}

// valueLegs values legs concurrently. Each leg reads the shared market state
// and writes only its own slot, so results do not depend on scheduling.
func (e *Engine) valueLegs(logger zerolog.Logger, legs []models.OptionLeg, state *market.State) ([]*valuation.LegTrack, error) {
	tracks := make([]*valuation.LegTrack, len(legs))
	errs := make([]error, len(legs))

	p := pool.New().WithMaxGoroutines(e.settings.Workers)
	for i, leg := range legs {
		i, leg := i, leg
		p.Go(func() {
			tracks[i], errs[i] = valuation.ValueLeg(leg, state, e.settings.ContractMultiplier)
		})
	}
	p.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, errors.Wrapf(err, "leg %d (%s)", i, legs[i].String())
		}
	}

	for i, track := range tracks {
		legLogger := logging.WithLeg(logger, i, legs[i].String())
		if track.Resolved() {
			logging.LogLegResolution(legLogger, track.State.String(), track.SpotAtExpiry, legs[i].Strike, track.Payoff, track.SettledShares)
		} else {
			legLogger.Debug().Str("state", track.State.String()).Float64("pnl", track.FinalPL()).Msg("Option leg unresolved at end of range")
		}
	}
	return tracks, nil
}

func startingEquity(cfg models.PortfolioConfig, state *market.State) float64 {
	if cfg.StartingCapital > 0 {
		return cfg.StartingCapital
	}
	return float64(cfg.ShareQty) * state.At(0).Spot
}

// fold combines stock and leg P/L date by date. Shares settled by an exercise
// join the holding at the expiry spot, so they add P/L only after resolution.
func fold(cfg models.PortfolioConfig, state *market.State, tracks []*valuation.LegTrack, basis float64) models.EquityCurve {
	n := state.Len()
	curve := make(models.EquityCurve, n)
	s0 := state.At(0).Spot

	var prevTotal float64
	for i := 0; i < n; i++ {
		in := state.At(i)

		stockPL := float64(cfg.ShareQty) * (in.Spot - s0)
		var optionPL float64
		for _, t := range tracks {
			optionPL += t.PL[i]
			if t.SettledShares != 0 && i >= t.ResolveIndex {
				stockPL += float64(t.SettledShares) * (in.Spot - t.SpotAtExpiry)
			}
		}

		total := stockPL + optionPL
		daily := 0.0
		if i > 0 {
			daily = total - prevTotal
		}
		curve[i] = models.EquityPoint{
			Date:        in.Date,
			StockPL:     stockPL,
			OptionPL:    optionPL,
			TotalPL:     total,
			DailyChange: daily,
			Equity:      basis + total,
		}
		prevTotal = total
	}
	return curve
}

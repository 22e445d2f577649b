package market

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"collar-backtester/internal/errors"
	"collar-backtester/internal/models"
)

const (
	// DefaultVolatilityWindow is the number of price observations in the volatility window.
	DefaultVolatilityWindow = 20
	// DefaultTradingDays annualizes daily statistics.
	DefaultTradingDays = 252
	// DividendLookbackDays is the trailing calendar window for dividend yield.
	DividendLookbackDays = 365
)

// Inputs holds the pricing inputs for one trading date.
type Inputs struct {
	Date          time.Time
	Spot          float64
	Volatility    float64
	Rate          float64
	DividendYield float64
}

// Builder derives volatility, rate and dividend yield from injected series.
// Every derived value depends only on observations dated on or before the
// requested date.
type Builder struct {
	prices      *Series
	rates       *Series
	dividends   *Series
	window      int
	tradingDays int
}

// Option configures a Builder.
type Option func(*Builder)

// WithVolatilityWindow sets the number of price observations per volatility estimate.
func WithVolatilityWindow(n int) Option {
	return func(b *Builder) {
		if n >= 2 {
			b.window = n
		}
	}
}

// WithTradingDays sets the annualization factor.
func WithTradingDays(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.tradingDays = n
		}
	}
}

// NewBuilder creates a builder over price, rate and dividend series.
// dividends may be nil for a non-paying underlying.
func NewBuilder(prices, rates, dividends *Series, opts ...Option) *Builder {
	b := &Builder{
		prices:      prices,
		rates:       rates,
		dividends:   dividends,
		window:      DefaultVolatilityWindow,
		tradingDays: DefaultTradingDays,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Spot returns the price observed on date.
func (b *Builder) Spot(date time.Time) (float64, error) {
	v, ok := b.prices.At(date)
	if !ok {
		return 0, errors.NewDataError(b.prices.Name(), date, "no price on date", nil)
	}
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.NewDataError(b.prices.Name(), date, "invalid price", nil)
	}
	return v, nil
}

// Volatility returns the annualized standard deviation of log returns over
// the trailing window of prices ending on date. A shorter history is used
// when fewer observations exist.
func (b *Builder) Volatility(date time.Time) (float64, error) {
	obs := b.prices.Window(date, b.window)
	if len(obs) < 2 {
		return 0, errors.NewHistoryError(models.NormalizeDate(date), len(obs), 2)
	}

	returns := make([]float64, len(obs)-1)
	for i := 1; i < len(obs); i++ {
		prev, cur := obs[i-1].Value, obs[i].Value
		if prev <= 0 || cur <= 0 {
			return 0, errors.NewDataError(b.prices.Name(), obs[i].Date, "non-positive price in volatility window", nil)
		}
		returns[i-1] = math.Log(cur / prev)
	}
	if len(returns) < 2 {
		return 0, nil
	}

	sd := stat.StdDev(returns, nil)
	if math.IsNaN(sd) {
		return 0, errors.NewNumericalError("volatility", "non-finite standard deviation")
	}
	return sd * math.Sqrt(float64(b.tradingDays)), nil
}

// Rate returns the risk-free rate on date, carrying the last prior observation forward.
func (b *Builder) Rate(date time.Time) (float64, error) {
	o, ok := b.rates.AtOrBefore(date)
	if !ok {
		return 0, errors.NewDataError(b.rates.Name(), date, "no rate observation on or before date", nil)
	}
	return o.Value, nil
}

// DividendYield returns trailing 365-day cash dividends divided by the spot on date.
func (b *Builder) DividendYield(date time.Time) (float64, error) {
	spot, err := b.Spot(date)
	if err != nil {
		return 0, err
	}
	d := models.NormalizeDate(date)
	var total float64
	for _, o := range b.dividends.Between(d.AddDate(0, 0, -DividendLookbackDays), d) {
		total += o.Value
	}
	return total / spot, nil
}

// Inputs returns all pricing inputs for one date.
func (b *Builder) Inputs(date time.Time) (Inputs, error) {
	in := Inputs{Date: models.NormalizeDate(date)}
	var err error
	if in.Spot, err = b.Spot(date); err != nil {
		return Inputs{}, err
	}
	if in.Volatility, err = b.Volatility(date); err != nil {
		return Inputs{}, err
	}
	if in.Rate, err = b.Rate(date); err != nil {
		return Inputs{}, err
	}
	if in.DividendYield, err = b.DividendYield(date); err != nil {
		return Inputs{}, err
	}
	return in, nil
}

// Build computes inputs for every calendar date in a single forward pass.
func (b *Builder) Build(calendar []time.Time) (*State, error) {
	inputs := make([]Inputs, len(calendar))
	for i, d := range calendar {
		if i > 0 && !calendar[i-1].Before(d) {
			return nil, errors.NewDataError(b.prices.Name(), d, "calendar dates not strictly increasing", nil)
		}
		in, err := b.Inputs(d)
		if err != nil {
			return nil, err
		}
		inputs[i] = in
	}
	return &State{inputs: inputs}, nil
}

// State is the read-only market state over a trading calendar.
type State struct {
	inputs  []Inputs
	through time.Time
}

// NewState wraps precomputed inputs, which must be in strictly increasing date order.
func NewState(inputs []Inputs) *State {
	return &State{inputs: inputs}
}

// Len returns the number of trading dates.
func (s *State) Len() int {
	return len(s.inputs)
}

// Dates returns the trading calendar.
func (s *State) Dates() []time.Time {
	out := make([]time.Time, len(s.inputs))
	for i, in := range s.inputs {
		out[i] = in.Date
	}
	return out
}

// Cover records that the calendar is complete through end, which may fall on
// an exchange holiday after the last trading date.
func (s *State) Cover(end time.Time) {
	s.through = models.NormalizeDate(end)
}

// Through returns the last date the calendar covers: the date given to Cover
// when it is not before the last trading date, else the last trading date.
func (s *State) Through() time.Time {
	if len(s.inputs) == 0 {
		return s.through
	}
	last := s.inputs[len(s.inputs)-1].Date
	if s.through.Before(last) {
		return last
	}
	return s.through
}

// Index returns the position of date in the calendar.
func (s *State) Index(date time.Time) (int, bool) {
	d := models.NormalizeDate(date)
	i := sort.Search(len(s.inputs), func(i int) bool { return !s.inputs[i].Date.Before(d) })
	if i < len(s.inputs) && s.inputs[i].Date.Equal(d) {
		return i, true
	}
	return i, false
}

// At returns the inputs at calendar position i.
func (s *State) At(i int) Inputs {
	return s.inputs[i]
}

// On returns the inputs for date.
func (s *State) On(date time.Time) (Inputs, bool) {
	i, ok := s.Index(date)
	if !ok {
		return Inputs{}, false
	}
	return s.inputs[i], true
}

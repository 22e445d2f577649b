package valuation

import (
	"sort"

	"collar-backtester/internal/errors"
	"collar-backtester/internal/market"
	"collar-backtester/internal/models"
	"collar-backtester/internal/pricing"
)

// DefaultMultiplier is the number of shares per contract.
const DefaultMultiplier = 100

// LegTrack is the day-by-day valuation of one leg over the trading calendar.
type LegTrack struct {
	Leg models.OptionLeg

	// Per calendar date.
	Values []float64 // theoretical value per share
	PL     []float64 // cumulative leg P/L
	States []models.LegState

	OpenIndex    int // -1 when the leg never opens in the calendar
	ResolveIndex int // -1 when the leg is still open at the last date

	State         models.LegState // state at the last calendar date
	SpotAtExpiry  float64
	SettledShares int // signed shares entering the stock holding at resolution
	Payoff        float64
	EntryDelta    float64
}

// Resolved reports whether the leg reached a terminal state.
func (t *LegTrack) Resolved() bool {
	return t.ResolveIndex >= 0
}

// FinalPL returns the cumulative leg P/L at the last calendar date.
func (t *LegTrack) FinalPL() float64 {
	if len(t.PL) == 0 {
		return 0
	}
	return t.PL[len(t.PL)-1]
}

// TerminalPL returns the P/L a leg resolves to at spot S_T:
// quantity * multiplier * sign * (intrinsic(S_T) - premium).
func TerminalPL(leg models.OptionLeg, spot float64, multiplier int) float64 {
	rule, _ := RuleFor(leg.Side, leg.Type)
	intrinsic := pricing.Intrinsic(spot, leg.Strike, leg.Type)
	return float64(leg.Quantity*multiplier) * rule.Sign * (intrinsic - leg.EntryPrice())
}

// ValueLeg marks a leg on every date of the market state.
//
// The leg opens on the first trading date on or after its trade date and
// resolves on the last trading date on or before its expiry. Cumulative P/L
// is measured against the entry premium, so the first open day reflects the
// traded price rather than a jump from zero.
func ValueLeg(leg models.OptionLeg, state *market.State, multiplier int) (*LegTrack, error) {
	rule, err := checkLeg(leg)
	if err != nil {
		return nil, err
	}
	if multiplier <= 0 {
		multiplier = DefaultMultiplier
	}

	n := state.Len()
	track := &LegTrack{
		Leg:          leg,
		Values:       make([]float64, n),
		PL:           make([]float64, n),
		States:       make([]models.LegState, n),
		OpenIndex:    -1,
		ResolveIndex: -1,
		State:        models.LegPending,
	}
	if n == 0 {
		return track, nil
	}

	openIdx, resolveIdx, err := window(leg, state)
	if err != nil {
		return nil, err
	}
	if openIdx < 0 {
		return track, nil
	}
	track.OpenIndex, track.ResolveIndex = openIdx, resolveIdx

	scale := float64(leg.Quantity*multiplier) * rule.Sign
	premium := leg.EntryPrice()
	expiry := models.NormalizeDate(leg.ExpiryDate)

	for i := openIdx; i < n; i++ {
		in := state.At(i)

		switch {
		case resolveIdx >= 0 && i > resolveIdx:
			track.Values[i] = track.Values[resolveIdx]
			track.PL[i] = track.PL[resolveIdx]
			track.States[i] = track.States[resolveIdx]

		case i == resolveIdx:
			intrinsic := pricing.Intrinsic(in.Spot, leg.Strike, leg.Type)
			track.Values[i] = intrinsic
			track.PL[i] = scale * (intrinsic - premium)
			track.SpotAtExpiry = in.Spot
			track.Payoff = track.PL[i]
			if rule.InTheMoney(in.Spot, leg.Strike) {
				track.States[i] = models.LegExercised
				track.SettledShares = rule.ShareDirection * leg.Quantity * multiplier
			} else {
				track.States[i] = models.LegExpired
			}

		default:
			if in.Date.After(expiry) {
				return nil, errors.NewNumericalError("value_leg", "open leg "+leg.Label()+" marked after expiry")
			}
			t := pricing.YearFraction(models.DaysBetween(in.Date, expiry))
			v, err := pricing.Price(in.Spot, leg.Strike, t, in.Rate, in.DividendYield, in.Volatility, leg.Type)
			if err != nil {
				return nil, errors.Wrapf(err, "leg %s on %s", leg.Label(), in.Date.Format(models.DateLayout))
			}
			if i == openIdx {
				if d, err := pricing.Delta(in.Spot, leg.Strike, t, in.Rate, in.DividendYield, in.Volatility, leg.Type); err == nil {
					track.EntryDelta = d
				}
			}
			track.Values[i] = v
			track.PL[i] = scale * (v - premium)
			track.States[i] = models.LegOpen
		}
	}

	track.State = track.States[n-1]
	return track, nil
}

// window locates the open and resolution positions of a leg in the calendar.
// A leg opens on the first trading date on or after its trade date and
// resolves on the last trading date on or before its expiry. A leg expiring
// after the covered calendar stays open; one traded after it stays pending.
func window(leg models.OptionLeg, state *market.State) (int, int, error) {
	dates := state.Dates()
	n := len(dates)
	trade := models.NormalizeDate(leg.TradeDate)
	expiry := models.NormalizeDate(leg.ExpiryDate)

	openIdx := sort.Search(n, func(i int) bool { return !dates[i].Before(trade) })
	if openIdx == n {
		return -1, -1, nil
	}
	if dates[openIdx].After(expiry) {
		return 0, 0, errors.NewDataError("calendar", trade, "no trading date between trade and expiry of "+leg.Label(), nil)
	}
	if first := market.FirstWeekday(trade); market.IsDataGap(first, dates[openIdx]) {
		msg := "no market data near trade date of " + leg.Label()
		if openIdx == 0 {
			msg = "trade date of " + leg.Label() + " precedes the trading calendar"
		}
		return 0, 0, errors.NewDataError("calendar", first, msg, nil)
	}

	resolveDay := market.LastWeekday(expiry)
	if resolveDay.After(state.Through()) {
		return openIdx, -1, nil
	}
	resolveIdx := sort.Search(n, func(i int) bool { return dates[i].After(expiry) }) - 1
	if market.IsDataGap(dates[resolveIdx], resolveDay) {
		return 0, 0, errors.NewDataError("calendar", resolveDay, "no market data near expiry of "+leg.Label(), nil)
	}
	return openIdx, resolveIdx, nil
}

func checkLeg(leg models.OptionLeg) (Rule, error) {
	rule, ok := RuleFor(leg.Side, leg.Type)
	if !ok {
		return Rule{}, errors.NewValidationError("leg", leg.Label(), "unknown side/type combination")
	}
	if leg.Strike <= 0 {
		return Rule{}, errors.NewValidationError("strike", leg.Strike, "strike must be positive")
	}
	if leg.Quantity <= 0 {
		return Rule{}, errors.NewValidationError("qty", leg.Quantity, "quantity must be positive")
	}
	if leg.ExpiryDate.Before(leg.TradeDate) {
		return Rule{}, errors.NewValidationError("expiry", leg.ExpiryDate.Format(models.DateLayout), "expiry is before trade date")
	}
	return rule, nil
}

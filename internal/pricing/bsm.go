// Package pricing provides Black-Scholes-Merton valuation of European options
// with a continuous dividend yield.
package pricing

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"collar-backtester/internal/errors"
	"collar-backtester/internal/models"
)

// DaysPerYear annualizes calendar-day time to expiry.
const DaysPerYear = 365.0

var normal = distuv.UnitNormal

// YearFraction converts calendar days to expiry into years.
func YearFraction(days int) float64 {
	return float64(days) / DaysPerYear
}

// Price returns the theoretical value of one option (per share).
//
// T <= 0 returns intrinsic value. vol <= 0 returns the zero-volatility limit,
// the discounted forward intrinsic value, which equals intrinsic value at T = 0.
func Price(spot, strike, t, rate, div, vol float64, typ models.OptionType) (float64, error) {
	if err := checkInputs(spot, strike, t, rate, div, vol, typ); err != nil {
		return 0, err
	}

	if t <= 0 {
		return Intrinsic(spot, strike, typ), nil
	}

	fwdSpot := spot * math.Exp(-div*t)
	pvStrike := strike * math.Exp(-rate*t)

	if vol <= 0 {
		if typ == models.OptionCall {
			return math.Max(fwdSpot-pvStrike, 0), nil
		}
		return math.Max(pvStrike-fwdSpot, 0), nil
	}

	d1, d2 := dTerms(spot, strike, t, rate, div, vol)

	var price float64
	if typ == models.OptionCall {
		price = fwdSpot*normal.CDF(d1) - pvStrike*normal.CDF(d2)
	} else {
		price = pvStrike*normal.CDF(-d2) - fwdSpot*normal.CDF(-d1)
	}

	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, errors.NewNumericalError("price", "non-finite option value")
	}
	// Deep OTM values can round a hair below zero.
	return math.Max(price, 0), nil
}

// Intrinsic returns the exercise value of an option at spot.
func Intrinsic(spot, strike float64, typ models.OptionType) float64 {
	if typ == models.OptionCall {
		return math.Max(spot-strike, 0)
	}
	return math.Max(strike-spot, 0)
}

// Delta returns the spot sensitivity of one option.
func Delta(spot, strike, t, rate, div, vol float64, typ models.OptionType) (float64, error) {
	if err := checkInputs(spot, strike, t, rate, div, vol, typ); err != nil {
		return 0, err
	}

	if t <= 0 || vol <= 0 {
		fwd := spot
		if t > 0 {
			fwd = spot * math.Exp((rate-div)*t)
		}
		itm := (typ == models.OptionCall && fwd > strike) || (typ == models.OptionPut && fwd < strike)
		if !itm {
			return 0, nil
		}
		dq := math.Exp(-div * math.Max(t, 0))
		if typ == models.OptionCall {
			return dq, nil
		}
		return -dq, nil
	}

	d1, _ := dTerms(spot, strike, t, rate, div, vol)
	dq := math.Exp(-div * t)
	if typ == models.OptionCall {
		return dq * normal.CDF(d1), nil
	}
	return dq * (normal.CDF(d1) - 1), nil
}

func dTerms(spot, strike, t, rate, div, vol float64) (float64, float64) {
	volSqrtT := vol * math.Sqrt(t)
	d1 := (math.Log(spot/strike) + (rate-div+0.5*vol*vol)*t) / volSqrtT
	return d1, d1 - volSqrtT
}

func checkInputs(spot, strike, t, rate, div, vol float64, typ models.OptionType) error {
	for _, v := range []float64{spot, strike, t, rate, div, vol} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.NewNumericalError("price", "non-finite pricing input")
		}
	}
	if spot <= 0 {
		return errors.NewNumericalError("price", "spot must be positive")
	}
	if strike <= 0 {
		return errors.NewNumericalError("price", "strike must be positive")
	}
	if !typ.Valid() {
		return errors.NewNumericalError("price", "unknown option type "+string(typ))
	}
	return nil
}

// Package models provides domain models for the option overlay backtester.
package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical date format used in configs and artifacts.
const DateLayout = "2006-01-02"

// Date returns the UTC midnight for the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// NormalizeDate truncates t to its calendar day in UTC.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// DaysBetween returns the number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(NormalizeDate(b).Sub(NormalizeDate(a)).Hours() / 24)
}

// Observation is a single dated value of an input series.
type Observation struct {
	Date  time.Time
	Value float64
}

// PortfolioConfig is a validated stock holding plus its option overlay.
type PortfolioConfig struct {
	Ticker          string
	ShareQty        int
	StartingCapital float64 // optional equity basis; 0 = share_qty * S(start)
	StartDate       time.Time
	EndDate         time.Time
	Legs            []OptionLeg
}

// DateRange returns the configured range, deriving missing bounds from the legs.
func (c PortfolioConfig) DateRange() (time.Time, time.Time) {
	start, end := c.StartDate, c.EndDate
	for _, leg := range c.Legs {
		if c.StartDate.IsZero() && (start.IsZero() || leg.TradeDate.Before(start)) {
			start = leg.TradeDate
		}
		if c.EndDate.IsZero() && (end.IsZero() || leg.ExpiryDate.After(end)) {
			end = leg.ExpiryDate
		}
	}
	return NormalizeDate(start), NormalizeDate(end)
}

// EquityPoint is one row of the equity curve.
type EquityPoint struct {
	Date        time.Time
	StockPL     float64
	OptionPL    float64
	TotalPL     float64
	DailyChange float64
	Equity      float64
}

// EquityCurve is an ordered sequence of equity points.
type EquityCurve []EquityPoint

// Dates returns the curve's dates.
func (c EquityCurve) Dates() []time.Time {
	out := make([]time.Time, len(c))
	for i, p := range c {
		out[i] = p.Date
	}
	return out
}

// TotalPL returns the cumulative total P/L column.
func (c EquityCurve) TotalPL() []float64 {
	out := make([]float64, len(c))
	for i, p := range c {
		out[i] = p.TotalPL
	}
	return out
}

// Last returns the final point of the curve.
func (c EquityCurve) Last() EquityPoint {
	if len(c) == 0 {
		return EquityPoint{}
	}
	return c[len(c)-1]
}

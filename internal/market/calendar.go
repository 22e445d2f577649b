package market

import (
	"time"

	"collar-backtester/internal/errors"
	"collar-backtester/internal/models"
)

// MaxClosureDays is the longest run of calendar days, counted from a weekday,
// that an exchange closure may leave without a price before the gap is treated
// as missing data.
const MaxClosureDays = 7

// Calendar returns the trading dates in [start, end]: the dates of the price
// series inside the range. When the first or last weekday of the range has no
// price, the range is still covered if the series continues past that end and
// the gap is no longer than an exchange closure.
func Calendar(prices *Series, start, end time.Time) ([]time.Time, error) {
	start, end = models.NormalizeDate(start), models.NormalizeDate(end)
	if end.Before(start) {
		return nil, errors.NewDataError(prices.Name(), start, "end date before start date", nil)
	}

	obs := prices.Range(start, end)
	if len(obs) == 0 {
		return nil, errors.NewDataError(prices.Name(), start, "no trading dates in range", nil)
	}

	dates := make([]time.Time, len(obs))
	for i, o := range obs {
		dates[i] = o.Date
	}

	if first := FirstWeekday(start); first.Before(dates[0]) && !first.After(end) {
		earliest, _ := prices.First()
		if !earliest.Date.Before(start) || IsDataGap(first, dates[0]) {
			return nil, errors.NewDataError(prices.Name(), first, "series starts after range start", nil)
		}
	}
	if last := LastWeekday(end); last.After(dates[len(dates)-1]) && !last.Before(start) {
		latest, _ := prices.Last()
		if !latest.Date.After(end) || IsDataGap(dates[len(dates)-1], last) {
			return nil, errors.NewDataError(prices.Name(), last, "series ends before range end", nil)
		}
	}
	return dates, nil
}

// IsDataGap reports whether the distance between two dates is too long to be
// an exchange closure.
func IsDataGap(from, to time.Time) bool {
	return models.DaysBetween(from, to) > MaxClosureDays
}

// FirstWeekday returns the first Monday-to-Friday date on or after d.
func FirstWeekday(d time.Time) time.Time {
	d = models.NormalizeDate(d)
	for isWeekend(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// LastWeekday returns the last Monday-to-Friday date on or before d.
func LastWeekday(d time.Time) time.Time {
	d = models.NormalizeDate(d)
	for isWeekend(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

func isWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

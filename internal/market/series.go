// Package market derives per-date pricing inputs from historical series.
package market

import (
	"sort"
	"time"

	"collar-backtester/internal/models"
)

// Series is an immutable, date-ascending sequence of observations.
// Dates are normalized to UTC calendar days; a later duplicate replaces an earlier one.
type Series struct {
	name string
	obs  []models.Observation
}

// NewSeries builds a series from unordered observations.
func NewSeries(name string, obs []models.Observation) *Series {
	sorted := make([]models.Observation, len(obs))
	for i, o := range obs {
		sorted[i] = models.Observation{Date: models.NormalizeDate(o.Date), Value: o.Value}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	deduped := sorted[:0]
	for _, o := range sorted {
		if n := len(deduped); n > 0 && deduped[n-1].Date.Equal(o.Date) {
			deduped[n-1] = o
			continue
		}
		deduped = append(deduped, o)
	}
	return &Series{name: name, obs: deduped}
}

// Name returns the series name used in error reports.
func (s *Series) Name() string {
	if s == nil {
		return ""
	}
	return s.name
}

// Len returns the number of observations.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.obs)
}

// Observations returns the observations in date order.
func (s *Series) Observations() []models.Observation {
	if s == nil {
		return nil
	}
	return s.obs
}

// First returns the earliest observation.
func (s *Series) First() (models.Observation, bool) {
	if s.Len() == 0 {
		return models.Observation{}, false
	}
	return s.obs[0], true
}

// Last returns the latest observation.
func (s *Series) Last() (models.Observation, bool) {
	if s.Len() == 0 {
		return models.Observation{}, false
	}
	return s.obs[len(s.obs)-1], true
}

// At returns the value observed exactly on date.
func (s *Series) At(date time.Time) (float64, bool) {
	i := s.upTo(date)
	if i == 0 || !s.obs[i-1].Date.Equal(models.NormalizeDate(date)) {
		return 0, false
	}
	return s.obs[i-1].Value, true
}

// AtOrBefore returns the latest observation dated on or before date.
func (s *Series) AtOrBefore(date time.Time) (models.Observation, bool) {
	i := s.upTo(date)
	if i == 0 {
		return models.Observation{}, false
	}
	return s.obs[i-1], true
}

// Window returns up to n observations ending on or before date.
func (s *Series) Window(date time.Time, n int) []models.Observation {
	if s == nil {
		return nil
	}
	end := s.upTo(date)
	start := end - n
	if start < 0 {
		start = 0
	}
	return s.obs[start:end]
}

// Between returns the observations dated in (from, to].
func (s *Series) Between(from, to time.Time) []models.Observation {
	if s == nil {
		return nil
	}
	lo, hi := s.upTo(from), s.upTo(to)
	if hi < lo {
		return nil
	}
	return s.obs[lo:hi]
}

// Range returns the observations dated in [start, end].
func (s *Series) Range(start, end time.Time) []models.Observation {
	return s.Between(models.NormalizeDate(start).AddDate(0, 0, -1), end)
}

// upTo returns the number of observations dated on or before date.
func (s *Series) upTo(date time.Time) int {
	if s == nil {
		return 0
	}
	d := models.NormalizeDate(date)
	return sort.Search(len(s.obs), func(i int) bool { return s.obs[i].Date.After(d) })
}

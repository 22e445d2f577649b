// Package store provides persistence for fetched market data series.
package store

import (
	"context"
	"fmt"
	"time"

	"collar-backtester/internal/models"
)

// Series kinds.
const (
	KindPrice    = "price"
	KindDividend = "dividend"
	KindRate     = "rate"
)

// SeriesKey identifies one cached series.
type SeriesKey struct {
	Source string // yahoo, fred, csv
	Symbol string
	Kind   string
}

func (k SeriesKey) String() string {
	return fmt.Sprintf("%s:%s:%s", k.Source, k.Symbol, k.Kind)
}

// SeriesStore defines the interface for series persistence.
type SeriesStore interface {
	SaveSeries(ctx context.Context, key SeriesKey, obs []models.Observation) error
	GetSeries(ctx context.Context, key SeriesKey, from, to time.Time) ([]models.Observation, error)
	GetSeriesRange(ctx context.Context, key SeriesKey) (DateRange, error)

	// Sync
	GetLastSync(key SeriesKey) time.Time
	SetLastSync(key SeriesKey, t time.Time) error

	// Lifecycle
	Close() error
}

// DateRange represents a date range.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Covers reports whether r spans [start, end].
func (r DateRange) Covers(start, end time.Time) bool {
	if r.Start.IsZero() || r.End.IsZero() {
		return false
	}
	return !r.Start.After(start) && !r.End.Before(end)
}

package store

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"collar-backtester/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "series.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// Property: saving a series and reading it back yields the same observations.
func TestProperty_SeriesRoundTripConsistency(t *testing.T) {
	store := newTestStore(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	symbols := []string{"AAPL", "MSFT", "SPY", "NVDA", "DGS3MO"}
	kindGen := gen.OneConstOf(KindPrice, KindDividend, KindRate)
	runs := 0

	properties.Property("save then retrieve produces equivalent data", prop.ForAll(
		func(symbolIdx int, kind string, count int, base float64) bool {
			ctx := context.Background()
			runs++
			key := SeriesKey{
				Source: "test",
				Symbol: fmt.Sprintf("%s_%d", symbols[symbolIdx%len(symbols)], runs),
				Kind:   kind,
			}

			obs := generateObservations(count, base)
			if err := store.SaveSeries(ctx, key, obs); err != nil {
				t.Logf("Failed to save series: %v", err)
				return false
			}

			got, err := store.GetSeries(ctx, key, obs[0].Date, obs[len(obs)-1].Date)
			if err != nil {
				t.Logf("Failed to get series: %v", err)
				return false
			}
			if len(got) != len(obs) {
				t.Logf("Count mismatch: expected %d, got %d", len(obs), len(got))
				return false
			}
			for i := range obs {
				if !got[i].Date.Equal(obs[i].Date) || math.Abs(got[i].Value-obs[i].Value) > 1e-12 {
					t.Logf("Mismatch at %d: %+v vs %+v", i, obs[i], got[i])
					return false
				}
			}
			return true
		},
		gen.IntRange(0, len(symbols)-1),
		kindGen,
		gen.IntRange(1, 30),
		gen.Float64Range(1, 1000),
	))

	properties.Property("empty series: saving empty slice succeeds", prop.ForAll(
		func(kind string) bool {
			return store.SaveSeries(context.Background(), SeriesKey{Source: "test", Symbol: "EMPTY", Kind: kind}, nil) == nil
		},
		kindGen,
	))

	properties.TestingRun(t)
}

func TestSeriesRangeAndReplace(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	key := SeriesKey{Source: "yahoo", Symbol: "AAPL", Kind: KindPrice}

	r, err := store.GetSeriesRange(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if !r.Start.IsZero() || r.Covers(models.Date(2024, 1, 1), models.Date(2024, 1, 2)) {
		t.Errorf("empty range = %+v", r)
	}

	obs := generateObservations(10, 100)
	if err := store.SaveSeries(ctx, key, obs); err != nil {
		t.Fatal(err)
	}
	// Overwrite one date.
	if err := store.SaveSeries(ctx, key, []models.Observation{{Date: obs[3].Date, Value: 1}}); err != nil {
		t.Fatal(err)
	}

	r, err = store.GetSeriesRange(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if !r.Start.Equal(obs[0].Date) || !r.End.Equal(obs[9].Date) {
		t.Errorf("range = %+v", r)
	}
	if !r.Covers(obs[2].Date, obs[8].Date) || r.Covers(obs[0].Date.AddDate(0, 0, -1), obs[8].Date) {
		t.Error("Covers mismatch")
	}

	got, err := store.GetSeries(ctx, key, obs[3].Date, obs[3].Date)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Value != 1 {
		t.Errorf("replaced observation = %+v", got)
	}

	other := SeriesKey{Source: "yahoo", Symbol: "AAPL", Kind: KindDividend}
	if got, _ := store.GetSeries(ctx, other, obs[0].Date, obs[9].Date); len(got) != 0 {
		t.Errorf("kinds should not mix: %+v", got)
	}
}

func TestLastSync(t *testing.T) {
	store := newTestStore(t)
	key := SeriesKey{Source: "fred", Symbol: "DGS3MO", Kind: KindRate}

	if !store.GetLastSync(key).IsZero() {
		t.Error("expected zero last sync")
	}
	now := time.Now().UTC().Truncate(time.Second)
	if err := store.SetLastSync(key, now); err != nil {
		t.Fatal(err)
	}
	if got := store.GetLastSync(key); !got.Equal(now) {
		t.Errorf("GetLastSync = %v, want %v", got, now)
	}
}

// generateObservations creates daily observations starting 2024-01-01.
func generateObservations(count int, base float64) []models.Observation {
	obs := make([]models.Observation, count)
	start := models.Date(2024, 1, 1)
	for i := 0; i < count; i++ {
		obs[i] = models.Observation{
			Date:  start.AddDate(0, 0, i),
			Value: roundToDecimal(base+float64(i%10)*0.37, 4),
		}
	}
	return obs
}

// roundToDecimal rounds a float to specified decimal places
func roundToDecimal(val float64, places int) float64 {
	multiplier := math.Pow(10, float64(places))
	return math.Round(val*multiplier) / multiplier
}

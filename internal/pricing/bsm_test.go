package pricing

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"collar-backtester/internal/errors"
	"collar-backtester/internal/models"
)

func TestPriceReferenceValues(t *testing.T) {
	tests := []struct {
		name string
		typ  models.OptionType
		want float64
	}{
		{"call", models.OptionCall, 10.450584},
		{"put", models.OptionPut, 5.573526},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Price(100, 100, 1, 0.05, 0, 0.2, tt.typ)
			if err != nil {
				t.Fatalf("Price failed: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-5 {
				t.Errorf("Price = %.6f, want %.6f", got, tt.want)
			}
		})
	}
}

func TestPriceWithDividendYield(t *testing.T) {
	withDiv, err := Price(105, 100, 0.25, 0.05, 0.02, 0.3, models.OptionCall)
	if err != nil {
		t.Fatal(err)
	}
	noDiv, err := Price(105, 100, 0.25, 0.05, 0, 0.3, models.OptionCall)
	if err != nil {
		t.Fatal(err)
	}
	if withDiv <= 0 {
		t.Errorf("expected positive call value, got %v", withDiv)
	}
	if withDiv >= noDiv {
		t.Errorf("dividend yield should lower call value: %v >= %v", withDiv, noDiv)
	}
}

func TestPriceAtExpiryIsIntrinsic(t *testing.T) {
	tests := []struct {
		spot, strike float64
		typ          models.OptionType
		want         float64
	}{
		{110, 100, models.OptionCall, 10},
		{90, 100, models.OptionCall, 0},
		{90, 100, models.OptionPut, 10},
		{110, 100, models.OptionPut, 0},
	}
	for _, tt := range tests {
		for _, T := range []float64{0, -0.01} {
			got, err := Price(tt.spot, tt.strike, T, 0.05, 0.01, 0.25, tt.typ)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Price(%v, %v, T=%v, %s) = %v, want %v", tt.spot, tt.strike, T, tt.typ, got, tt.want)
			}
		}
	}
}

func TestZeroVolatilityLimit(t *testing.T) {
	T, r, q := 0.5, 0.05, 0.01
	got, err := Price(100, 95, T, r, q, 0, models.OptionCall)
	if err != nil {
		t.Fatal(err)
	}
	want := 100*math.Exp(-q*T) - 95*math.Exp(-r*T)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("zero-vol call = %v, want %v", got, want)
	}

	// Converges from above as vol shrinks.
	near, err := Price(100, 95, T, r, q, 1e-6, models.OptionCall)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(near-want) > 1e-6 {
		t.Errorf("small-vol call %v does not approach limit %v", near, want)
	}

	put, err := Price(100, 95, T, r, q, -0.1, models.OptionPut)
	if err != nil {
		t.Fatal(err)
	}
	if put != 0 {
		t.Errorf("OTM zero-vol put = %v, want 0", put)
	}
}

func TestPriceRejectsOutOfDomainInputs(t *testing.T) {
	tests := []struct {
		name               string
		spot, strike, t, v float64
		typ                models.OptionType
	}{
		{"zero spot", 0, 100, 0.5, 0.2, models.OptionCall},
		{"negative strike", 100, -1, 0.5, 0.2, models.OptionPut},
		{"nan vol", 100, 100, 0.5, math.NaN(), models.OptionCall},
		{"inf time", 100, 100, math.Inf(1), 0.2, models.OptionCall},
		{"bad type", 100, 100, 0.5, 0.2, models.OptionType("binary")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Price(tt.spot, tt.strike, tt.t, 0.05, 0, tt.v, tt.typ)
			if !errors.Is(err, errors.ErrNumerical) {
				t.Errorf("expected numerical error, got %v", err)
			}
		})
	}
}

func TestDelta(t *testing.T) {
	call, err := Delta(100, 100, 1, 0.05, 0, 0.2, models.OptionCall)
	if err != nil {
		t.Fatal(err)
	}
	put, err := Delta(100, 100, 1, 0.05, 0, 0.2, models.OptionPut)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(call-0.636831) > 1e-5 {
		t.Errorf("call delta = %v", call)
	}
	if math.Abs((call-put)-1) > 1e-12 {
		t.Errorf("call delta - put delta = %v, want 1", call-put)
	}

	expired, err := Delta(120, 100, 0, 0.05, 0, 0.2, models.OptionCall)
	if err != nil {
		t.Fatal(err)
	}
	if expired != 1 {
		t.Errorf("ITM expired call delta = %v, want 1", expired)
	}
}

func TestYearFraction(t *testing.T) {
	if got := YearFraction(365); got != 1 {
		t.Errorf("YearFraction(365) = %v", got)
	}
	if got := YearFraction(0); got != 0 {
		t.Errorf("YearFraction(0) = %v", got)
	}
}

// Property: at T = 0 the price equals intrinsic value for any valid inputs.
func TestProperty_PriceAtExpiryEqualsIntrinsic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("price(T=0) == intrinsic", prop.ForAll(
		func(spot, strike, rate, div, vol float64, isCall bool) bool {
			typ := models.OptionPut
			if isCall {
				typ = models.OptionCall
			}
			got, err := Price(spot, strike, 0, rate, div, vol, typ)
			if err != nil {
				return false
			}
			return math.Abs(got-Intrinsic(spot, strike, typ)) <= 1e-9
		},
		gen.Float64Range(1, 500),
		gen.Float64Range(1, 500),
		gen.Float64Range(-0.01, 0.10),
		gen.Float64Range(0, 0.08),
		gen.Float64Range(0.01, 1.5),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// Property: call - put == S*e^(-qT) - K*e^(-rT) for T > 0.
func TestProperty_PutCallParity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("put-call parity holds", prop.ForAll(
		func(spot, strike, T, rate, div, vol float64) bool {
			call, err := Price(spot, strike, T, rate, div, vol, models.OptionCall)
			if err != nil {
				return false
			}
			put, err := Price(spot, strike, T, rate, div, vol, models.OptionPut)
			if err != nil {
				return false
			}
			parity := spot*math.Exp(-div*T) - strike*math.Exp(-rate*T)
			if math.Abs((call-put)-parity) > 1e-6 {
				t.Logf("parity violated: S=%v K=%v T=%v r=%v q=%v vol=%v diff=%v",
					spot, strike, T, rate, div, vol, (call-put)-parity)
				return false
			}
			return true
		},
		gen.Float64Range(1, 500),
		gen.Float64Range(1, 500),
		gen.Float64Range(0.001, 3),
		gen.Float64Range(-0.01, 0.10),
		gen.Float64Range(0, 0.08),
		gen.Float64Range(0.01, 1.5),
	))

	properties.Property("values are non-negative and bounded", prop.ForAll(
		func(spot, strike, T, vol float64) bool {
			call, err := Price(spot, strike, T, 0.03, 0.01, vol, models.OptionCall)
			if err != nil {
				return false
			}
			put, err := Price(spot, strike, T, 0.03, 0.01, vol, models.OptionPut)
			if err != nil {
				return false
			}
			return call >= 0 && put >= 0 && call <= spot && put <= strike
		},
		gen.Float64Range(1, 500),
		gen.Float64Range(1, 500),
		gen.Float64Range(0.001, 3),
		gen.Float64Range(0, 1.5),
	))

	properties.TestingRun(t)
}

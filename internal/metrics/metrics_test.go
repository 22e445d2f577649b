package metrics

import (
	"math"
	"testing"
	"time"

	"collar-backtester/internal/models"
)

// curveFromTotals builds a curve with the given cumulative P/L over weekdays.
func curveFromTotals(basis float64, totals ...float64) models.EquityCurve {
	curve := make(models.EquityCurve, len(totals))
	d := models.Date(2024, 1, 1)
	for i, total := range totals {
		for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			d = d.AddDate(0, 0, 1)
		}
		daily := 0.0
		if i > 0 {
			daily = total - totals[i-1]
		}
		curve[i] = models.EquityPoint{
			Date:        d,
			StockPL:     total,
			TotalPL:     total,
			DailyChange: daily,
			Equity:      basis + total,
		}
		d = d.AddDate(0, 0, 1)
	}
	return curve
}

func TestMaxDrawdown(t *testing.T) {
	curve := curveFromTotals(1000, 0, 10, 5, 15, 2, 20)
	dd := Drawdowns(curve, 1000)

	if dd.Max != -13 {
		t.Errorf("Max drawdown = %v, want -13", dd.Max)
	}
	if dd.TroughIndex != 4 {
		t.Errorf("TroughIndex = %d, want 4", dd.TroughIndex)
	}
	if !dd.Recovered || dd.RecoveryDays != 1 {
		t.Errorf("recovery = %v after %d days", dd.Recovered, dd.RecoveryDays)
	}
	if dd.Average != -9 {
		t.Errorf("Average = %v, want -9", dd.Average)
	}
	if math.Abs(dd.MaxPct-(-13.0/1015)) > 1e-12 {
		t.Errorf("MaxPct = %v", dd.MaxPct)
	}
	for i, v := range dd.Series {
		if v > 0 {
			t.Errorf("drawdown[%d] = %v is positive", i, v)
		}
	}

	if len(dd.Periods) != 2 {
		t.Fatalf("Periods = %+v", dd.Periods)
	}
	if dd.Periods[1].Depth != -13 || !dd.Periods[1].Recovered || dd.Periods[1].Days != 1 {
		t.Errorf("second period = %+v", dd.Periods[1])
	}
}

func TestDrawdownNeverRecovered(t *testing.T) {
	curve := curveFromTotals(0, 0, 50, 20, 10, 30)
	dd := Drawdowns(curve, 0)

	if dd.Max != -40 || dd.Recovered {
		t.Errorf("Max = %v recovered = %v", dd.Max, dd.Recovered)
	}
	if dd.RecoveryDays != 1 {
		t.Errorf("RecoveryDays = %d, want 1 (trough to last date)", dd.RecoveryDays)
	}
	if dd.MaxPct != -40.0/50 {
		t.Errorf("MaxPct = %v", dd.MaxPct)
	}
	if p := dd.Periods[len(dd.Periods)-1]; p.Recovered || p.Days != 3 {
		t.Errorf("open period = %+v", p)
	}
}

func TestComputeReturns(t *testing.T) {
	curve := curveFromTotals(10000, 0, 100, -50, 200, 300)
	m := Compute(Input{Curve: curve, StartingEquity: 10000})

	if m.TotalPL != 300 || m.TotalReturn != 0.03 {
		t.Errorf("TotalPL = %v TotalReturn = %v", m.TotalPL, m.TotalReturn)
	}
	if m.EndingEquity != 10300 || m.TradingDays != 5 {
		t.Errorf("EndingEquity = %v TradingDays = %d", m.EndingEquity, m.TradingDays)
	}
	if m.MaxDailyLoss != -150 {
		t.Errorf("MaxDailyLoss = %v, want -150", m.MaxDailyLoss)
	}
	if math.Abs(m.MaxDailyLossPct-(-150.0/10100)) > 1e-12 {
		t.Errorf("MaxDailyLossPct = %v", m.MaxDailyLossPct)
	}
	if m.AvgDailyPL != 75 {
		t.Errorf("AvgDailyPL = %v, want 75", m.AvgDailyPL)
	}
	if m.Volatility <= 0 || m.SharpeRatio <= 0 || m.SortinoRatio <= 0 {
		t.Errorf("risk metrics: vol=%v sharpe=%v sortino=%v", m.Volatility, m.SharpeRatio, m.SortinoRatio)
	}
	if m.CAGR <= m.TotalReturn {
		t.Errorf("CAGR %v should annualize a short-period return above %v", m.CAGR, m.TotalReturn)
	}
	if m.Benchmark != nil {
		t.Error("benchmark metrics without a benchmark")
	}
}

func TestComputeZeroBasis(t *testing.T) {
	curve := curveFromTotals(0, 0, 100, 50)
	m := Compute(Input{Curve: curve})
	if m.TotalReturn != 0 || m.CAGR != 0 || m.Volatility != 0 || m.SharpeRatio != 0 {
		t.Errorf("return metrics should be zero without a basis: %+v", m)
	}
	if m.TotalPL != 50 || m.MaxDrawdown != -50 {
		t.Errorf("P/L metrics still apply: %+v", m)
	}
}

func TestSharpeUsesRiskFree(t *testing.T) {
	curve := curveFromTotals(10000, 0, 10, 25, 30, 50, 55)
	rf := []float64{0.05, 0.05, 0.05, 0.05, 0.05, 0.05}

	without := Compute(Input{Curve: curve, StartingEquity: 10000})
	with := Compute(Input{Curve: curve, StartingEquity: 10000, RiskFree: rf})
	if with.SharpeRatio >= without.SharpeRatio {
		t.Errorf("risk-free should reduce Sharpe: %v >= %v", with.SharpeRatio, without.SharpeRatio)
	}
}

func TestBenchmarkRegression(t *testing.T) {
	totals := []float64{0, 100, 50, 250, 200, 400}
	curve := curveFromTotals(10000, totals...)
	returns := DailyReturns(curve, 10000)

	// Benchmark returns are exactly half the strategy returns.
	bench := make([]models.Observation, len(curve))
	price := 100.0
	for i, p := range curve {
		if i > 0 {
			price *= 1 + returns[i-1]/2
		}
		bench[i] = models.Observation{Date: p.Date, Value: price}
	}

	m := Compute(Input{Curve: curve, StartingEquity: 10000, Benchmark: bench, BenchmarkSymbol: "SPY"})
	b := m.Benchmark
	if b == nil {
		t.Fatal("expected benchmark metrics")
	}
	if b.Symbol != "SPY" || b.Observations != 5 {
		t.Errorf("benchmark = %+v", b)
	}
	if math.Abs(b.Beta-2) > 1e-9 || math.Abs(b.Alpha) > 1e-12 {
		t.Errorf("alpha = %v beta = %v, want 0 and 2", b.Alpha, b.Beta)
	}
	if math.Abs(b.Correlation-1) > 1e-9 {
		t.Errorf("Correlation = %v", b.Correlation)
	}
	if b.TrackingError <= 0 {
		t.Errorf("TrackingError = %v", b.TrackingError)
	}
}

func TestRolling(t *testing.T) {
	curve := curveFromTotals(1000, 0, 10, 5, 15, 2, 20)
	points := Rolling(Input{Curve: curve, StartingEquity: 1000}, 3)
	if len(points) != 4 {
		t.Fatalf("len = %d, want 4", len(points))
	}
	// Window ending at index 4 covers totals [5, 15, 2].
	if points[2].Drawdown != -13 {
		t.Errorf("rolling drawdown = %v, want -13", points[2].Drawdown)
	}
	if !points[0].Date.Equal(curve[2].Date) {
		t.Errorf("first rolling date = %v", points[0].Date)
	}
	if Rolling(Input{Curve: curve}, 10) != nil {
		t.Error("window longer than curve should yield nil")
	}
}

func TestComputeEmpty(t *testing.T) {
	m := Compute(Input{})
	if m.TradingDays != 0 || m.TotalPL != 0 {
		t.Errorf("empty metrics = %+v", m)
	}
}

// Package metrics derives return, risk, drawdown and benchmark statistics
// from a completed equity curve.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"collar-backtester/internal/models"
)

const defaultTradingDays = 252

// Input is everything the metrics read. RiskFree, when set, holds the
// annualized risk-free rate for each curve date.
type Input struct {
	Curve          models.EquityCurve
	StartingEquity float64
	RiskFree       []float64
	TradingDays    int

	Benchmark       []models.Observation
	BenchmarkSymbol string
}

func (in Input) tradingDays() float64 {
	if in.TradingDays <= 0 {
		return defaultTradingDays
	}
	return float64(in.TradingDays)
}

// Compute calculates the performance metrics of a curve.
func Compute(in Input) *models.PerformanceMetrics {
	curve := in.Curve
	m := &models.PerformanceMetrics{}
	if len(curve) == 0 {
		return m
	}

	first, last := curve[0], curve.Last()
	m.StartDate = first.Date
	m.EndDate = last.Date
	m.TradingDays = len(curve)
	m.PeriodYears = float64(models.DaysBetween(first.Date, last.Date)) / 365.25
	m.StartingEquity = in.StartingEquity
	m.EndingEquity = in.StartingEquity + last.TotalPL
	m.TotalPL = last.TotalPL

	if in.StartingEquity > 0 {
		m.TotalReturn = last.TotalPL / in.StartingEquity
		if m.PeriodYears > 0 && m.EndingEquity > 0 {
			m.CAGR = math.Pow(m.EndingEquity/in.StartingEquity, 1/m.PeriodYears) - 1
		}
	}

	changes := dailyChanges(curve)
	if len(changes) > 0 {
		m.AvgDailyPL = stat.Mean(changes, nil)
		m.MaxDailyLoss = math.Min(minOf(changes), 0)
	}

	returns := DailyReturns(curve, in.StartingEquity)
	td := in.tradingDays()
	if len(returns) > 0 {
		m.AvgDailyReturn = stat.Mean(returns, nil)
		m.MaxDailyLossPct = math.Min(minOf(returns), 0)
	}
	if len(returns) >= 2 {
		m.Volatility = finite(stat.StdDev(returns, nil) * math.Sqrt(td))
		excess := excessReturns(returns, in.RiskFree, td)
		m.SharpeRatio = sharpe(excess, td)
		m.SortinoRatio = sortino(excess, td)
	}

	dd := Drawdowns(curve, in.StartingEquity)
	m.MaxDrawdown = dd.Max
	m.MaxDrawdownPct = dd.MaxPct
	m.AvgDrawdown = dd.Average
	m.RecoveryDays = dd.RecoveryDays
	m.Recovered = dd.Recovered
	m.DrawdownPeriods = dd.Periods

	if len(in.Benchmark) > 0 {
		m.Benchmark = compareBenchmark(in, returns, td)
	}
	return m
}

// DailyReturns returns Daily_Change / prior Equity for each date after the
// first. Returns are zero when the starting basis or prior equity is not positive.
func DailyReturns(curve models.EquityCurve, startingEquity float64) []float64 {
	if len(curve) < 2 {
		return nil
	}
	out := make([]float64, len(curve)-1)
	if startingEquity <= 0 {
		return out
	}
	for i := 1; i < len(curve); i++ {
		if prev := curve[i-1].Equity; prev > 0 {
			out[i-1] = curve[i].DailyChange / prev
		}
	}
	return out
}

func dailyChanges(curve models.EquityCurve) []float64 {
	if len(curve) < 2 {
		return nil
	}
	out := make([]float64, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		out[i-1] = curve[i].DailyChange
	}
	return out
}

// excessReturns subtracts the daily risk-free return of the same date.
// returns[i] belongs to curve date i+1.
func excessReturns(returns, riskFree []float64, td float64) []float64 {
	out := make([]float64, len(returns))
	for i, r := range returns {
		rf := 0.0
		if i+1 < len(riskFree) {
			rf = riskFree[i+1] / td
		}
		out[i] = r - rf
	}
	return out
}

func sharpe(excess []float64, td float64) float64 {
	if len(excess) < 2 {
		return 0
	}
	mean, sd := stat.MeanStdDev(excess, nil)
	if sd <= 0 || math.IsNaN(sd) {
		return 0
	}
	return finite(mean / sd * math.Sqrt(td))
}

// sortino uses the downside deviation sqrt(mean(min(x, 0)^2)).
func sortino(excess []float64, td float64) float64 {
	if len(excess) < 2 {
		return 0
	}
	var sum float64
	for _, x := range excess {
		if x < 0 {
			sum += x * x
		}
	}
	downside := math.Sqrt(sum / float64(len(excess)))
	if downside <= 0 {
		return 0
	}
	return finite(stat.Mean(excess, nil) / downside * math.Sqrt(td))
}

func minOf(xs []float64) float64 {
	m := math.Inf(1)
	for _, x := range xs {
		if x < m {
			m = x
		}
	}
	return m
}

func finite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}

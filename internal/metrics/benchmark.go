package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"collar-backtester/internal/models"
)

// compareBenchmark regresses strategy daily returns on benchmark daily returns
// over dates where both the curve and the benchmark have consecutive prices.
func compareBenchmark(in Input, returns []float64, td float64) *models.BenchmarkMetrics {
	prices := make(map[string]float64, len(in.Benchmark))
	for _, o := range in.Benchmark {
		prices[o.Date.Format(models.DateLayout)] = o.Value
	}

	var strat, bench []float64
	for i := 1; i < len(in.Curve); i++ {
		prev, okPrev := prices[in.Curve[i-1].Date.Format(models.DateLayout)]
		cur, okCur := prices[in.Curve[i].Date.Format(models.DateLayout)]
		if !okPrev || !okCur || prev <= 0 {
			continue
		}
		strat = append(strat, returns[i-1])
		bench = append(bench, cur/prev-1)
	}

	out := &models.BenchmarkMetrics{Symbol: in.BenchmarkSymbol, Observations: len(strat)}
	if len(strat) < 2 {
		return out
	}

	alpha, beta := stat.LinearRegression(bench, strat, nil, false)
	out.Alpha = finite(alpha)
	out.Beta = finite(beta)
	out.AlphaAnnualized = out.Alpha * td
	out.Correlation = finite(stat.Correlation(strat, bench, nil))

	active := make([]float64, len(strat))
	for i := range strat {
		active[i] = strat[i] - bench[i]
	}
	mean, sd := stat.MeanStdDev(active, nil)
	if sd > 0 && !math.IsNaN(sd) {
		out.TrackingError = sd * math.Sqrt(td)
		out.InformationRatio = finite(mean / sd * math.Sqrt(td))
	}
	return out
}

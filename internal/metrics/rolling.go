package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"collar-backtester/internal/models"
)

// Rolling computes trailing-window volatility, Sharpe ratio and drawdown for
// every curve date once window points are available.
func Rolling(in Input, window int) []models.RollingPoint {
	curve := in.Curve
	if window < 2 || len(curve) < window {
		return nil
	}

	td := in.tradingDays()
	returns := DailyReturns(curve, in.StartingEquity)
	excess := excessReturns(returns, in.RiskFree, td)

	out := make([]models.RollingPoint, 0, len(curve)-window+1)
	for i := window - 1; i < len(curve); i++ {
		// Returns for dates (i-window+1, i].
		lo, hi := i-window+1, i
		r := returns[lo:hi]

		pt := models.RollingPoint{Date: curve[i].Date}
		if len(r) >= 2 {
			pt.Volatility = finite(stat.StdDev(r, nil) * math.Sqrt(td))
			pt.Sharpe = sharpe(excess[lo:hi], td)
		}

		peak := curve[lo].TotalPL
		for j := lo; j <= i; j++ {
			peak = math.Max(peak, curve[j].TotalPL)
		}
		pt.Drawdown = curve[i].TotalPL - peak
		out = append(out, pt)
	}
	return out
}

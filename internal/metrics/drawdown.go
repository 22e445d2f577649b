package metrics

import (
	"collar-backtester/internal/models"
)

// DrawdownStats summarizes the drawdown series of a curve.
type DrawdownStats struct {
	Series       []float64 // Total_PL minus its running maximum; always <= 0
	Max          float64
	MaxPct       float64
	Average      float64 // over in-drawdown dates only
	TroughIndex  int
	RecoveryDays int
	Recovered    bool
	Periods      []models.DrawdownPeriod
}

// Drawdowns computes the drawdown series, the deepest drawdown and its recovery.
// RecoveryDays counts trading days from the deepest trough to the first date
// Total_PL regains the prior peak; when it never does, Recovered is false and
// RecoveryDays runs to the last date.
func Drawdowns(curve models.EquityCurve, startingEquity float64) DrawdownStats {
	st := DrawdownStats{Recovered: true}
	n := len(curve)
	if n == 0 {
		return st
	}

	st.Series = make([]float64, n)
	peaks := make([]float64, n)
	peak := curve[0].TotalPL
	var sum float64
	var count int
	for i, p := range curve {
		if p.TotalPL > peak {
			peak = p.TotalPL
		}
		peaks[i] = peak
		st.Series[i] = p.TotalPL - peak
		if st.Series[i] < st.Max {
			st.Max = st.Series[i]
			st.TroughIndex = i
		}
		if st.Series[i] < 0 {
			sum += st.Series[i]
			count++
		}
	}
	if count > 0 {
		st.Average = sum / float64(count)
	}
	if st.Max == 0 {
		return st
	}

	if base := startingEquity + peaks[st.TroughIndex]; base > 0 {
		st.MaxPct = st.Max / base
	}

	st.Recovered = false
	st.RecoveryDays = n - 1 - st.TroughIndex
	for j := st.TroughIndex + 1; j < n; j++ {
		if curve[j].TotalPL >= peaks[st.TroughIndex] {
			st.Recovered = true
			st.RecoveryDays = j - st.TroughIndex
			break
		}
	}

	st.Periods = periods(curve, st.Series)
	return st
}

// periods splits the drawdown series into contiguous below-peak stretches.
func periods(curve models.EquityCurve, series []float64) []models.DrawdownPeriod {
	var out []models.DrawdownPeriod
	start := -1
	trough := 0
	for i, d := range series {
		switch {
		case d < 0 && start < 0:
			start, trough = i, i
		case d < 0 && d < series[trough]:
			trough = i
		case d == 0 && start >= 0:
			out = append(out, models.DrawdownPeriod{
				Start:     curve[start].Date,
				Trough:    curve[trough].Date,
				End:       curve[i].Date,
				Depth:     series[trough],
				Days:      i - start,
				Recovered: true,
			})
			start = -1
		}
	}
	if start >= 0 {
		last := len(series) - 1
		out = append(out, models.DrawdownPeriod{
			Start:  curve[start].Date,
			Trough: curve[trough].Date,
			End:    curve[last].Date,
			Depth:  series[trough],
			Days:   last - start + 1,
		})
	}
	return out
}

package models

import "time"

// PerformanceMetrics holds the summary statistics of a completed equity curve.
// Ratios and returns are fractions (0.05 = 5%); P/L figures are in currency.
type PerformanceMetrics struct {
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	TradingDays    int       `json:"trading_days"`
	PeriodYears    float64   `json:"period_years"`
	StartingEquity float64   `json:"starting_equity"`
	EndingEquity   float64   `json:"ending_equity"`

	TotalPL        float64 `json:"total_pl"`
	TotalReturn    float64 `json:"total_return"`
	CAGR           float64 `json:"cagr"`
	AvgDailyPL     float64 `json:"avg_daily_pl"`
	AvgDailyReturn float64 `json:"avg_daily_return"`

	Volatility      float64 `json:"volatility"`
	SharpeRatio     float64 `json:"sharpe_ratio"`
	SortinoRatio    float64 `json:"sortino_ratio"`
	MaxDailyLoss    float64 `json:"max_daily_loss"`
	MaxDailyLossPct float64 `json:"max_daily_loss_pct"`

	MaxDrawdown     float64          `json:"max_drawdown"`
	MaxDrawdownPct  float64          `json:"max_drawdown_pct"`
	AvgDrawdown     float64          `json:"avg_drawdown"`
	RecoveryDays    int              `json:"recovery_days"`
	Recovered       bool             `json:"recovered"`
	DrawdownPeriods []DrawdownPeriod `json:"drawdown_periods"`

	Benchmark *BenchmarkMetrics `json:"benchmark,omitempty"`
}

// DrawdownPeriod is a contiguous stretch below the running P/L peak.
type DrawdownPeriod struct {
	Start     time.Time `json:"start"`
	Trough    time.Time `json:"trough"`
	End       time.Time `json:"end"`
	Depth     float64   `json:"depth"`
	Days      int       `json:"days"`
	Recovered bool      `json:"recovered"`
}

// BenchmarkMetrics compares strategy daily returns with a benchmark.
type BenchmarkMetrics struct {
	Symbol           string  `json:"symbol"`
	Observations     int     `json:"observations"`
	Alpha            float64 `json:"alpha"` // daily intercept
	AlphaAnnualized  float64 `json:"alpha_annualized"`
	Beta             float64 `json:"beta"`
	InformationRatio float64 `json:"information_ratio"`
	Correlation      float64 `json:"correlation"`
	TrackingError    float64 `json:"tracking_error"`
}

// RollingPoint holds trailing-window statistics ending at Date.
type RollingPoint struct {
	Date       time.Time
	Volatility float64
	Sharpe     float64
	Drawdown   float64
}

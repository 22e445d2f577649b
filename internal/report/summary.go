package report

import (
	"fmt"
	"io"
	"strings"

	"collar-backtester/internal/models"
	"collar-backtester/pkg/utils"
)

// PositionLines describes the stock holding and each leg.
func PositionLines(doc *Document) []string {
	lines := []string{
		fmt.Sprintf("Stock Position: %s shares of %s @ %.2f", utils.FormatShares(doc.ShareQty), doc.Ticker, doc.StartPrice),
		"",
		"Option Positions:",
	}
	for i, leg := range doc.Legs {
		line := fmt.Sprintf("  %d. %s", i+1, leg.Description)
		if leg.EntryDelta != 0 {
			line += fmt.Sprintf(" delta %.3f", leg.EntryDelta)
		}
		line += fmt.Sprintf(" -> %s, P/L %s", leg.State, utils.FormatPnL(leg.FinalPL))
		lines = append(lines, line)
	}
	return lines
}

// WritePositionSummary prints the position block.
func WritePositionSummary(w io.Writer, doc *Document) {
	rule := strings.Repeat("=", 50)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "POSITION SUMMARY")
	fmt.Fprintln(w, rule)
	for _, line := range PositionLines(doc) {
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w, rule)
}

// WriteMetricsSummary prints the metrics block.
func WriteMetricsSummary(w io.Writer, m *models.PerformanceMetrics) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "PERFORMANCE METRICS SUMMARY")
	fmt.Fprintln(w, rule)

	fmt.Fprintf(w, "Period: %s to %s (%d trading days, %.2f years)\n",
		m.StartDate.Format(models.DateLayout), m.EndDate.Format(models.DateLayout), m.TradingDays, m.PeriodYears)
	fmt.Fprintf(w, "Equity: %s -> %s\n", utils.FormatUSD(m.StartingEquity), utils.FormatUSD(m.EndingEquity))

	fmt.Fprintln(w, "\nRETURN METRICS:")
	fmt.Fprintf(w, "  Total Return: %s (%s)\n", utils.FormatPnL(m.TotalPL), utils.FormatPercent(m.TotalReturn))
	fmt.Fprintf(w, "  CAGR: %s\n", utils.FormatPercent(m.CAGR))
	fmt.Fprintf(w, "  Average Daily Return: %s (%s)\n", utils.FormatPnL(m.AvgDailyPL), utils.FormatPercent(m.AvgDailyReturn))

	fmt.Fprintln(w, "\nRISK METRICS:")
	fmt.Fprintf(w, "  Volatility: %s\n", utils.FormatPercent(m.Volatility))
	fmt.Fprintf(w, "  Sharpe Ratio: %s\n", utils.FormatRatio(m.SharpeRatio))
	fmt.Fprintf(w, "  Sortino Ratio: %s\n", utils.FormatRatio(m.SortinoRatio))
	fmt.Fprintf(w, "  Maximum Daily Loss: %s (%s)\n", utils.FormatPnL(m.MaxDailyLoss), utils.FormatPercent(m.MaxDailyLossPct))

	fmt.Fprintln(w, "\nDRAWDOWN METRICS:")
	fmt.Fprintf(w, "  Maximum Drawdown: %s (%s)\n", utils.FormatPnL(m.MaxDrawdown), utils.FormatPercent(m.MaxDrawdownPct))
	fmt.Fprintf(w, "  Average Drawdown: %s\n", utils.FormatPnL(m.AvgDrawdown))
	switch {
	case m.MaxDrawdown == 0:
		fmt.Fprintln(w, "  Recovery Time: no drawdown")
	case m.Recovered:
		fmt.Fprintf(w, "  Recovery Time: %d days\n", m.RecoveryDays)
	default:
		fmt.Fprintln(w, "  Recovery Time: No recovery yet")
	}

	if b := m.Benchmark; b != nil {
		fmt.Fprintf(w, "\nBENCHMARK COMPARISON (%s, %d days):\n", b.Symbol, b.Observations)
		fmt.Fprintf(w, "  Information Ratio: %s\n", utils.FormatRatio(b.InformationRatio))
		fmt.Fprintf(w, "  Beta: %s\n", utils.FormatRatio(b.Beta))
		fmt.Fprintf(w, "  Alpha: %s\n", utils.FormatPercent(b.AlphaAnnualized))
		fmt.Fprintf(w, "  Correlation: %s\n", utils.FormatRatio(b.Correlation))
		fmt.Fprintf(w, "  Tracking Error: %s\n", utils.FormatPercent(b.TrackingError))
	}
	fmt.Fprintln(w, rule)
}

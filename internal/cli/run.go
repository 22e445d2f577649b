package cli

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"collar-backtester/internal/engine"
	"collar-backtester/internal/errors"
	"collar-backtester/internal/logging"
	"collar-backtester/internal/marketdata"
	"collar-backtester/internal/models"
	"collar-backtester/internal/portfolio"
	"collar-backtester/internal/report"
	"collar-backtester/pkg/utils"
)

func newRunCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <config.json>",
		Short: "Run a backtest",
		Long: `Value a portfolio day by day and write the results.

Writes equity_curve.csv (Date,Stock_PL,Option_PL,Total_PL,Daily_Change,Equity)
and metrics.json to the output directory, plus equity_curve.png with --chart.`,
		Example: `  collar run collar.json
  collar run collar.json --output results/aapl --benchmark SPY --chart
  collar run collar.json --source yahoo --benchmark underlying`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			outDir, _ := cmd.Flags().GetString("output")
			benchmark, _ := cmd.Flags().GetString("benchmark")
			chart, _ := cmd.Flags().GetBool("chart")
			source, _ := cmd.Flags().GetString("source")
			dataDir, _ := cmd.Flags().GetString("data-dir")
			noCache, _ := cmd.Flags().GetBool("no-cache")
			if outDir == "" {
				outDir = app.Config.Output.Dir
			}
			if source == "" {
				source = app.Config.Data.Source
			}
			if dataDir == "" {
				dataDir = app.Config.Data.Dir
			}
			chart = chart || app.Config.Output.Chart

			cfg, err := portfolio.Load(args[0])
			if err != nil {
				printConfigErrors(output, err)
				return err
			}
			if !output.IsJSON() {
				for _, w := range portfolio.Warnings(cfg) {
					output.Warning("Warning: %s", w)
				}
			}

			runID := uuid.NewString()
			logger := logging.WithOperation(logging.WithTicker(app.Logger, cfg.Ticker), "run").
				With().Str("run_id", runID).Logger()
			ctx := logging.WithLogger(cmd.Context(), logger)

			provider, err := app.newProvider(source, dataDir, !noCache)
			if err != nil {
				return err
			}
			start, end := cfg.DateRange()
			in, err := provider.Load(ctx, marketdata.Request{
				Ticker:     cfg.Ticker,
				Benchmark:  benchmark,
				RateSeries: app.Config.Data.RateSeries,
				Start:      start,
				End:        end,
			})
			if err != nil {
				output.Error("Failed to load market data: %v", err)
				return err
			}

			if !output.IsJSON() {
				tag := SourceYahoo
				if source == "csv" {
					tag = SourceCSV
				}
				output.SourceLine(tag, "%s: %d prices, %d dividends, %d %s rates",
					cfg.Ticker, in.Prices.Len(), in.Dividends.Len(), in.Rates.Len(), app.Config.Data.RateSeries)
			}

			res, err := engine.New(app.Config.Engine, logger).Run(ctx, cfg, in)
			if err != nil {
				output.Error("Backtest failed: %v", err)
				return err
			}

			doc := report.NewDocument(res)
			doc.RunID = runID
			saved, err := report.WriteArtifacts(outDir, res.Curve, doc)
			if err != nil {
				output.Error("Failed to write results: %v", err)
				return err
			}
			var chartPath string
			if chart {
				title := fmt.Sprintf("%s overlay P/L %s to %s", cfg.Ticker,
					start.Format(models.DateLayout), end.Format(models.DateLayout))
				if chartPath, err = report.WriteChartFile(outDir, title, res.Curve); err != nil {
					output.Warning("Chart not written: %v", err)
				}
			}

			if output.IsJSON() {
				return output.JSON(doc)
			}

			report.WriteMetricsSummary(output.writer, res.Metrics)
			output.Println()
			report.WritePositionSummary(output.writer, doc)
			output.Println()

			output.Bold("Total P/L")
			drawEquityCurve(output, res.Curve)
			output.Println()

			output.Box(cfg.Ticker+" run "+runID[:8], runSummaryLines(output, doc, res.Curve))
			output.Println()

			output.Success("Backtest completed successfully!")
			output.Printf("Results saved to: %s\n", saved.Curve)
			output.Dim("Metrics: %s", saved.Metrics)
			if chartPath != "" {
				output.Dim("Chart:   %s", chartPath)
			}
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "", "output directory (default from settings)")
	cmd.Flags().StringP("benchmark", "b", "", "benchmark symbol, or 'underlying' for the portfolio ticker")
	cmd.Flags().Bool("chart", false, "also write equity_curve.png")
	cmd.Flags().String("source", "", "market data source: csv or yahoo (default from settings)")
	cmd.Flags().String("data-dir", "", "directory of CSV series for the csv source")
	cmd.Flags().Bool("no-cache", false, "bypass the series cache for remote sources")

	return cmd
}

// printConfigErrors lists every portfolio violation.
func printConfigErrors(output *Output, err error) {
	var verrs errors.ValidationErrors
	if !errors.As(err, &verrs) {
		output.Error("Error: %v", err)
		return
	}
	output.Error("Configuration is invalid (%d problems):", len(verrs))
	for _, v := range verrs {
		output.Printf("  - %s\n", v.Error())
	}
}

// runSummaryLines lists the final P/L and each leg's resolution for the run box.
func runSummaryLines(output *Output, doc *report.Document, curve models.EquityCurve) []string {
	last := curve.Last()
	lines := []string{
		"Run ID:       " + output.Cyan(doc.RunID),
		"Final P/L:    " + output.FormatPnL(last.TotalPL),
		"Final Equity: " + utils.FormatUSD(last.Equity),
	}
	if doc.Metrics != nil {
		lines = append(lines,
			"Total Return: "+output.FormatPercent(doc.Metrics.TotalReturn),
			"Max Drawdown: "+output.Red(utils.FormatPnL(doc.Metrics.MaxDrawdown)))
	}
	for i, leg := range doc.Legs {
		lines = append(lines, fmt.Sprintf("Leg %d: %-10s %s", i+1, legStateText(output, leg.State), utils.FormatPnL(leg.FinalPL)))
	}
	return lines
}

func legStateText(output *Output, state string) string {
	switch state {
	case models.LegExercised.String():
		return output.Yellow(state)
	case models.LegExpired.String():
		return output.Green(state)
	case models.LegOpen.String():
		return output.Cyan(state)
	default:
		return output.DimText(state)
	}
}

// drawEquityCurve prints an ASCII plot of cumulative P/L.
func drawEquityCurve(output *Output, curve models.EquityCurve) {
	if len(curve) < 2 {
		output.Println("  Insufficient data for equity curve")
		return
	}

	values := make([]float64, len(curve))
	minPL, maxPL := curve[0].TotalPL, curve[0].TotalPL
	for i, p := range curve {
		values[i] = p.TotalPL
		if p.TotalPL < minPL {
			minPL = p.TotalPL
		}
		if p.TotalPL > maxPL {
			maxPL = p.TotalPL
		}
	}

	padding := (maxPL - minPL) * 0.1
	if padding == 0 {
		padding = 1
	}
	minPL -= padding
	maxPL += padding

	width := 60
	if len(values) < width {
		width = len(values)
	}
	height := 8

	chart := make([][]rune, height)
	for i := range chart {
		chart[i] = []rune(strings.Repeat(" ", width))
	}

	for i, v := range values {
		x := i * width / len(values)
		y := int((v - minPL) / (maxPL - minPL) * float64(height-1))
		if y >= 0 && y < height && x >= 0 && x < width {
			chart[height-1-y][x] = '*'
		}
	}

	for i := 0; i < height; i++ {
		label := strings.Repeat(" ", 12)
		if i == 0 {
			label = fmt.Sprintf("%12.0f", maxPL)
		} else if i == height-1 {
			label = fmt.Sprintf("%12.0f", minPL)
		}
		output.Printf("  %s |%s\n", label, string(chart[i]))
	}
	output.Printf("  %s +%s\n", strings.Repeat(" ", 12), strings.Repeat("-", width))
	output.Printf("  %s  %s .. %s\n", strings.Repeat(" ", 12),
		curve[0].Date.Format(models.DateLayout), curve[len(curve)-1].Date.Format(models.DateLayout))
}

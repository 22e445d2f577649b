package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"collar-backtester/internal/logging"
	"collar-backtester/internal/marketdata"
	"collar-backtester/internal/models"
	"collar-backtester/internal/store"
)

func newFetchCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <ticker>",
		Short: "Download series into the CSV data directory",
		Long: `Fetch adjusted closes and dividends from Yahoo and the risk-free rate
from FRED, and save them as CSV files so later runs can use --source csv.`,
		Example: `  collar fetch AAPL --from 2023-01-01 --to 2024-06-30
  collar fetch SPY --from 2024-01-01 --no-rates`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			fromStr, _ := cmd.Flags().GetString("from")
			toStr, _ := cmd.Flags().GetString("to")
			dataDir, _ := cmd.Flags().GetString("data-dir")
			rateSeries, _ := cmd.Flags().GetString("rate-series")
			noRates, _ := cmd.Flags().GetBool("no-rates")
			noCache, _ := cmd.Flags().GetBool("no-cache")
			if dataDir == "" {
				dataDir = app.Config.Data.Dir
			}
			if rateSeries == "" {
				rateSeries = app.Config.Data.RateSeries
			}

			to := models.NormalizeDate(time.Now())
			if toStr != "" {
				t, err := models.ParseDate(toStr)
				if err != nil {
					return err
				}
				to = t
			}
			from := to.AddDate(-1, 0, 0)
			if fromStr != "" {
				f, err := models.ParseDate(fromStr)
				if err != nil {
					return err
				}
				from = f
			}
			if from.After(to) {
				return fmt.Errorf("--from %s is after --to %s", from.Format(models.DateLayout), to.Format(models.DateLayout))
			}

			provider, err := app.newProvider("yahoo", "", !noCache)
			if err != nil {
				return err
			}
			ctx := logging.WithLogger(cmd.Context(), logging.WithOperation(app.Logger, "fetch"))
			csv := marketdata.NewCSVSource(dataDir)
			ticker := strings.ToUpper(args[0])

			jobs := []struct {
				kind, symbol, tag string
			}{
				{store.KindPrice, ticker, SourceYahoo},
				{store.KindDividend, ticker, SourceYahoo},
			}
			if !noRates {
				jobs = append(jobs, struct{ kind, symbol, tag string }{store.KindRate, rateSeries, SourceFRED})
			}

			saved := map[string]string{}
			for _, job := range jobs {
				obs, err := provider.Series(ctx, job.kind, job.symbol, from, to)
				if err != nil {
					output.Error("Failed to fetch %s %s: %v", job.symbol, job.kind, err)
					return err
				}
				path, err := csv.Save(job.kind, job.symbol, obs)
				if err != nil {
					return err
				}
				saved[job.kind] = path
				if !output.IsJSON() {
					output.SourceLine(job.tag, "%s %s: %d observations -> %s", job.symbol, job.kind, len(obs), path)
				}
			}

			if output.IsJSON() {
				return output.JSON(saved)
			}
			output.Success("Saved %s series to %s", ticker, dataDir)
			return nil
		},
	}

	cmd.Flags().String("from", "", "first date (default: one year before --to)")
	cmd.Flags().String("to", "", "last date (default: today)")
	cmd.Flags().String("data-dir", "", "directory to write CSV files (default from settings)")
	cmd.Flags().String("rate-series", "", "FRED series for the risk-free rate (default from settings)")
	cmd.Flags().Bool("no-rates", false, "skip the rate series")
	cmd.Flags().Bool("no-cache", false, "bypass the series cache")
	return cmd
}

package cli

import (
	"github.com/spf13/cobra"

	"collar-backtester/internal/errors"
	"collar-backtester/internal/models"
	"collar-backtester/internal/portfolio"
)

// validationReport is the JSON form of the validate command.
type validationReport struct {
	Valid     bool     `json:"valid"`
	Ticker    string   `json:"ticker,omitempty"`
	ShareQty  int      `json:"share_qty,omitempty"`
	Legs      int      `json:"legs,omitempty"`
	StartDate string   `json:"start_date,omitempty"`
	EndDate   string   `json:"end_date,omitempty"`
	Errors    []string `json:"errors,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

func newValidateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "validate <config.json>",
		Short:   "Validate a portfolio configuration",
		Long:    "Check a portfolio file and report every problem found, without fetching data.",
		Example: "  collar validate collar.json",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			cfg, err := portfolio.Load(args[0])
			if err != nil {
				app.Logger.Debug().Err(err).Str("path", args[0]).Msg("Portfolio rejected")
				if output.IsJSON() {
					rep := validationReport{}
					var verrs errors.ValidationErrors
					if errors.As(err, &verrs) {
						for _, v := range verrs {
							rep.Errors = append(rep.Errors, v.Error())
						}
					} else {
						rep.Errors = []string{err.Error()}
					}
					if jerr := output.JSON(rep); jerr != nil {
						return jerr
					}
					return err
				}
				printConfigErrors(output, err)
				return err
			}

			start, end := cfg.DateRange()
			rep := validationReport{
				Valid:     true,
				Ticker:    cfg.Ticker,
				ShareQty:  cfg.ShareQty,
				Legs:      len(cfg.Legs),
				StartDate: start.Format(models.DateLayout),
				EndDate:   end.Format(models.DateLayout),
				Warnings:  portfolio.Warnings(cfg),
			}
			if output.IsJSON() {
				return output.JSON(rep)
			}

			output.Success("Configuration is valid")
			output.Printf("  Ticker:     %s\n", rep.Ticker)
			output.Printf("  Shares:     %d\n", rep.ShareQty)
			output.Printf("  Legs:       %d\n", rep.Legs)
			output.Printf("  Date Range: %s to %s\n", rep.StartDate, rep.EndDate)
			for i, leg := range cfg.Legs {
				output.Dim("    %d. %s", i+1, leg.String())
			}
			for _, w := range rep.Warnings {
				output.Warning("Warning: %s", w)
			}
			return nil
		},
	}
}

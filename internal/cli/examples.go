package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"collar-backtester/internal/portfolio"
)

func newExamplesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "examples [name]",
		Short: "List or print bundled example portfolios",
		Example: `  collar examples
  collar examples collar > collar.json
  collar examples --write configs/`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			dir, _ := cmd.Flags().GetString("write")

			if len(args) == 1 {
				ex, ok := portfolio.LookupExample(args[0])
				if !ok {
					return fmt.Errorf("unknown example %q (see 'collar examples')", args[0])
				}
				return portfolio.FromConfig(ex.Config).Write(output.writer)
			}

			if dir != "" {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("creating %s: %w", dir, err)
				}
				for _, ex := range portfolio.Examples() {
					path := filepath.Join(dir, ex.Name+".json")
					if err := writeExample(path, ex); err != nil {
						return err
					}
					app.Logger.Debug().Str("path", path).Msg("Example written")
					if !output.IsJSON() {
						output.Success("Wrote %s", path)
					}
				}
				return nil
			}

			if output.IsJSON() {
				type entry struct {
					Name        string `json:"name"`
					Description string `json:"description"`
					Ticker      string `json:"ticker"`
					Legs        int    `json:"legs"`
				}
				var list []entry
				for _, ex := range portfolio.Examples() {
					list = append(list, entry{ex.Name, ex.Description, ex.Config.Ticker, len(ex.Config.Legs)})
				}
				return output.JSON(list)
			}

			output.Bold("Example Portfolios")
			table := NewTable(output, "NAME", "TICKER", "LEGS", "DESCRIPTION")
			for _, ex := range portfolio.Examples() {
				table.AddRow(ex.Name, ex.Config.Ticker, fmt.Sprintf("%d", len(ex.Config.Legs)), ex.Description)
			}
			table.Render()
			output.Println()
			output.Dim("Print one with 'collar examples <name>', or save all with --write <dir>.")
			return nil
		},
	}

	cmd.Flags().String("write", "", "write every example as <dir>/<name>.json")
	return cmd
}

func writeExample(path string, ex portfolio.Example) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := portfolio.FromConfig(ex.Config).Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

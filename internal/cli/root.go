package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"collar-backtester/internal/config"
	"collar-backtester/internal/marketdata"
	"collar-backtester/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-06-01"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Store  store.SeriesStore
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	rootCmd := &cobra.Command{
		Use:   "collar",
		Short: "Collar backtester - daily P/L of a stock holding with an option overlay",
		Long: `Collar backtester values a stock position together with option legs
(collars, covered calls, protective puts and similar overlays) day by day.

Options are marked with Black-Scholes-Merton using trailing historical
volatility, a forward-filled risk-free rate and the trailing dividend yield.
The run writes an equity curve CSV and a metrics document.

Use 'collar examples' to see bundled portfolios.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.Close()
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/collar-backtester)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newRunCmd(app))
	rootCmd.AddCommand(newValidateCmd(app))
	rootCmd.AddCommand(newExamplesCmd(app))
	rootCmd.AddCommand(newFetchCmd(app))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))

	return rootCmd
}

// Close releases the series cache if one was opened.
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	err := a.Store.Close()
	a.Store = nil
	return err
}

// openStore opens the SQLite series cache on first use.
func (a *App) openStore() (store.SeriesStore, error) {
	if a.Store != nil {
		return a.Store, nil
	}
	path := a.Config.Data.CachePath
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	s, err := store.NewSQLiteStore(path)
	if err != nil {
		return nil, err
	}
	a.Logger.Debug().Str("path", path).Msg("SQLite series cache initialized")
	a.Store = s
	return s, nil
}

// newProvider builds a market data provider for source. Remote sources go
// through the series cache unless useCache is false; a cache that cannot be
// opened only costs a warning.
func (a *App) newProvider(source, dataDir string, useCache bool) (*marketdata.Provider, error) {
	opts := []marketdata.Option{
		marketdata.WithLookback(a.Config.Data.Lookback),
		marketdata.WithLogger(a.Logger),
	}

	switch source {
	case "csv":
		return marketdata.NewProvider(marketdata.NewCSVSource(dataDir), opts...), nil
	case "yahoo":
		if useCache {
			s, err := a.openStore()
			if err != nil {
				a.Logger.Warn().Err(err).Msg("Series cache unavailable, fetching without it")
			} else {
				opts = append(opts, marketdata.WithCache(s, a.Config.Data.CacheTTL))
			}
		}
		return marketdata.NewProvider(marketdata.NewRemote(a.Config.Data.Timeout), opts...), nil
	}
	return nil, fmt.Errorf("invalid data source: %s (must be 'csv' or 'yahoo')", source)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("Collar backtester v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View application settings (settings.toml).",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			dir, _ := cmd.Flags().GetString("config")
			if dir == "" {
				dir = config.DefaultConfigDir()
			}
			if output.IsJSON() {
				output.JSON(map[string]string{"path": dir})
			} else {
				output.Println(dir)
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate application settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Engine")
	output.Printf("  Volatility Window:   %d prices\n", cfg.Engine.VolatilityWindow)
	output.Printf("  Trading Days:        %d\n", cfg.Engine.TradingDays)
	output.Printf("  Contract Multiplier: %d\n", cfg.Engine.ContractMultiplier)
	output.Printf("  Workers:             %d\n", cfg.Engine.Workers)
	output.Printf("  Rolling Window:      %d\n", cfg.Engine.RollingWindow)
	output.Println()

	output.Bold("Data")
	output.Printf("  Source:      %s\n", cfg.Data.Source)
	output.Printf("  Directory:   %s\n", cfg.Data.Dir)
	output.Printf("  Rate Series: %s\n", cfg.Data.RateSeries)
	output.Printf("  Lookback:    %d days\n", cfg.Data.Lookback)
	output.Printf("  Cache:       %s (ttl %s)\n", cfg.Data.CachePath, cfg.Data.CacheTTL)
	output.Printf("  Timeout:     %s\n", cfg.Data.Timeout)
	output.Println()

	output.Bold("Output")
	output.Printf("  Directory: %s\n", cfg.Output.Dir)
	output.Printf("  Chart:     %v\n", cfg.Output.Chart)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level: %s\n", cfg.Logging.Level)
	output.Printf("  File:  %v\n", cfg.Logging.File)
}

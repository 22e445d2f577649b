package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const settingsTemplate = `# Collar Backtester Settings

[engine]
# Trailing price observations used for historical volatility
volatility_window = 20
# Trading days per year used to annualize volatility and ratios
trading_days = 252
# Shares per option contract
contract_multiplier = 100
# Parallel leg valuation workers (0 = number of CPUs)
workers = 0
# Window for rolling metrics
rolling_window = 63

[data]
# Series source: "csv" (files in dir) or "yahoo" (network, cached in SQLite)
source = "csv"
# Directory holding <TICKER>_prices.csv, rates.csv, <TICKER>_dividends.csv
dir = "data"
# SQLite cache of fetched series
# cache_path = "~/.config/collar-backtester/series.db"
# Age after which cached series are refetched
cache_ttl = "24h"
# FRED series id for the risk-free rate
rate_series = "DGS3MO"
# Calendar days fetched before start_date for the volatility window
lookback_days = 45
# HTTP timeout for fetches
timeout = "30s"

[output]
# Directory for equity_curve.csv and metrics.json
dir = "results"
# Render equity_curve.png
chart = false

[logging]
# debug, info, warn, error
level = "info"
# Write rotated log files under the config directory
file = true
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "settings.toml")
	if err := os.WriteFile(path, []byte(settingsTemplate), 0600); err != nil {
		return fmt.Errorf("writing settings template: %w", err)
	}

	return nil
}

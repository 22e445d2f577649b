// Package config provides application settings management for the backtester.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application settings.
type Config struct {
	Engine  EngineConfig  `mapstructure:"engine"`
	Data    DataConfig    `mapstructure:"data"`
	Output  OutputConfig  `mapstructure:"output"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// EngineConfig holds valuation engine parameters.
type EngineConfig struct {
	VolatilityWindow   int `mapstructure:"volatility_window"`
	TradingDays        int `mapstructure:"trading_days"`
	ContractMultiplier int `mapstructure:"contract_multiplier"`
	Workers            int `mapstructure:"workers"` // 0 = NumCPU
	RollingWindow      int `mapstructure:"rolling_window"`
}

// DataConfig holds market data acquisition settings.
type DataConfig struct {
	Source     string        `mapstructure:"source"` // csv, yahoo
	Dir        string        `mapstructure:"dir"`
	CachePath  string        `mapstructure:"cache_path"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
	RateSeries string        `mapstructure:"rate_series"`
	Lookback   int           `mapstructure:"lookback_days"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// OutputConfig holds result artifact settings.
type OutputConfig struct {
	Dir   string `mapstructure:"dir"`
	Chart bool   `mapstructure:"chart"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  bool   `mapstructure:"file"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/collar-backtester"
	}
	return filepath.Join(home, ".config", "collar-backtester")
}

// Load loads settings from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("settings")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading settings.toml: %w", err)
		}
		// Defaults still apply when the template cannot be written.
		_ = createTemplateConfig(configDir)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding settings.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the settings used when no file is present.
func Default() *Config {
	v := viper.New()
	setDefaults(v, DefaultConfigDir())
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	return cfg
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("engine.volatility_window", 20)
	v.SetDefault("engine.trading_days", 252)
	v.SetDefault("engine.contract_multiplier", 100)
	v.SetDefault("engine.workers", 0)
	v.SetDefault("engine.rolling_window", 63)

	v.SetDefault("data.source", "csv")
	v.SetDefault("data.dir", "data")
	v.SetDefault("data.cache_path", filepath.Join(configDir, "series.db"))
	v.SetDefault("data.cache_ttl", "24h")
	v.SetDefault("data.rate_series", "DGS3MO")
	v.SetDefault("data.lookback_days", 45)
	v.SetDefault("data.timeout", "30s")

	v.SetDefault("output.dir", "results")
	v.SetDefault("output.chart", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", true)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("COLLAR_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("COLLAR_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("COLLAR_DATA_SOURCE"); v != "" {
		cfg.Data.Source = v
	}
	if v := os.Getenv("COLLAR_DATA_DIR"); v != "" {
		cfg.Data.Dir = v
	}
}

// Validate validates the settings.
func (c *Config) Validate() error {
	if c.Engine.VolatilityWindow < 2 {
		return fmt.Errorf("volatility_window must be at least 2")
	}
	if c.Engine.TradingDays <= 0 {
		return fmt.Errorf("trading_days must be positive")
	}
	if c.Engine.ContractMultiplier <= 0 {
		return fmt.Errorf("contract_multiplier must be positive")
	}
	if c.Engine.Workers < 0 {
		return fmt.Errorf("workers must be non-negative")
	}
	if c.Engine.RollingWindow < 2 {
		return fmt.Errorf("rolling_window must be at least 2")
	}

	switch c.Data.Source {
	case "csv", "yahoo":
	default:
		return fmt.Errorf("invalid data source: %s (must be 'csv' or 'yahoo')", c.Data.Source)
	}
	if c.Data.Lookback < 0 {
		return fmt.Errorf("lookback_days must be non-negative")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	return nil
}

// Package config loads the timing driver configuration from TOML.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config carries the driver-level settings for budgeting and analysis runs.
type Config struct {
	// TargetMHz is the requested clock frequency. Ignored as a constraint
	// when AutoFreq is set; it then only seeds the search.
	TargetMHz float64 `toml:"target_mhz"`

	// AutoFreq searches for the achievable frequency instead of holding
	// TargetMHz fixed: each budgeting iteration folds the achieved minimum
	// slack into the next target period.
	AutoFreq bool `toml:"auto_freq"`

	// BudgetIterations is how many budgeting passes the driver runs.
	BudgetIterations int `toml:"budget_iterations"`

	// RoutingIter counts completed routing iterations. Zero means routing
	// has not run yet, so route delays are treated as zero during
	// budgeting.
	RoutingIter int `toml:"routing_iter"`

	Histogram HistogramConfig `toml:"histogram"`
	Log       LogConfig       `toml:"log"`
}

// HistogramConfig shapes the slack histogram report.
type HistogramConfig struct {
	Bins     int `toml:"bins"`
	BarWidth int `toml:"bar_width"`
}

// LogConfig mirrors the logging package's knobs.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		TargetMHz:        50.0,
		BudgetIterations: 1,
		Histogram: HistogramConfig{
			Bins:     20,
			BarWidth: 60,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// LoadFile reads and validates a TOML config file. Values not present keep
// their defaults.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse parses TOML config content from bytes.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing TOML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	if c.TargetMHz <= 0 {
		return fmt.Errorf("target_mhz must be positive, got %v", c.TargetMHz)
	}
	if c.BudgetIterations < 1 {
		return fmt.Errorf("budget_iterations must be at least 1, got %d", c.BudgetIterations)
	}
	if c.RoutingIter < 0 {
		return fmt.Errorf("routing_iter must not be negative, got %d", c.RoutingIter)
	}
	if c.Histogram.Bins < 1 {
		return fmt.Errorf("histogram.bins must be at least 1, got %d", c.Histogram.Bins)
	}
	if c.Histogram.BarWidth < 1 {
		return fmt.Errorf("histogram.bar_width must be at least 1, got %d", c.Histogram.BarWidth)
	}
	return nil
}

package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for txreplay
type Config struct {
	// Log processing run
	Run RunConfig `mapstructure:"run"`

	// Simulated activity layered onto the run
	Simulate SimulateConfig `mapstructure:"simulate"`

	// Sample input generation
	Generate GenerateConfig `mapstructure:"generate"`

	// Diagnostics logging
	Log LogConfig `mapstructure:"log"`

	Verbose bool `mapstructure:"verbose"`
}

// RunConfig holds settings for the log processing pipeline
type RunConfig struct {
	// Directory holding the *.log input files
	InputDir string `mapstructure:"input_dir"`

	// Root for the per-run output directory (empty = InputDir)
	OutputDir string `mapstructure:"output_dir"`

	// Whether to layer simulated activity onto the ingested ledgers
	Simulate bool `mapstructure:"simulate"`
}

// SimulateConfig holds simulation settings
type SimulateConfig struct {
	// Random seed for reproducibility (0 = random)
	Seed int64 `mapstructure:"seed"`

	// Worker pool size range (inclusive)
	MinWorkers int `mapstructure:"min_workers"`
	MaxWorkers int `mapstructure:"max_workers"`

	// Action count range (inclusive)
	MinActions int `mapstructure:"min_actions"`
	MaxActions int `mapstructure:"max_actions"`

	// Placeholder account count range (inclusive)
	MinPlaceholders int `mapstructure:"min_placeholders"`
	MaxPlaceholders int `mapstructure:"max_placeholders"`

	// Upper bound (exclusive) for withdrawal and transfer amounts, in cents
	MaxAmountCents int64 `mapstructure:"max_amount_cents"`

	// Timing
	MaxThinkTime time.Duration `mapstructure:"max_think_time"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout"`
}

// GenerateConfig holds sample log generation settings
type GenerateConfig struct {
	// Random seed for reproducibility (0 = random)
	Seed int64 `mapstructure:"seed"`

	// Directory the sample files are written to
	OutputDir string `mapstructure:"output_dir"`

	// Volume settings
	Files        int `mapstructure:"files"`
	LinesPerFile int `mapstructure:"lines_per_file"`
	Accounts     int `mapstructure:"accounts"`

	// Fraction of lines deliberately written malformed (0.0-1.0)
	MalformedRate float64 `mapstructure:"malformed_rate"`

	// Timestamps are spread over this many days before now
	SpanDays int `mapstructure:"span_days"`
}

// LogConfig holds diagnostics logger settings
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // console, json
}

// DefaultSimulateConfig returns simulation settings built from compile-time defaults
func DefaultSimulateConfig() SimulateConfig {
	return SimulateConfig{
		Seed:            0,
		MinWorkers:      MinWorkers,
		MaxWorkers:      MaxWorkers,
		MinActions:      MinActions,
		MaxActions:      MaxActions,
		MinPlaceholders: MinPlaceholderAccounts,
		MaxPlaceholders: MaxPlaceholderAccounts,
		MaxAmountCents:  MaxAmountCents,
		MaxThinkTime:    MaxThinkTime,
		PoolTimeout:     PoolTimeout,
	}
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Run: RunConfig{
			InputDir: DefaultInputDir,
			Simulate: true,
		},
		Simulate: DefaultSimulateConfig(),
		Generate: GenerateConfig{
			Seed:          0,
			OutputDir:     DefaultInputDir,
			Files:         SampleFiles,
			LinesPerFile:  SampleLinesPerFile,
			Accounts:      SampleAccounts,
			MalformedRate: SampleMalformedRate,
			SpanDays:      SampleSpanDays,
		},
		Log: LogConfig{
			Level:  LogLevel,
			Format: LogFormat,
		},
	}
}

// Load reads configuration from viper into a Config struct
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads configuration from the given viper instance
func LoadFrom(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// OutputRoot returns the directory that receives the per-run output directory
func (r RunConfig) OutputRoot() string {
	if r.OutputDir != "" {
		return r.OutputDir
	}
	return r.InputDir
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []string

	if c.Run.InputDir == "" {
		errs = append(errs, "run.input_dir must not be empty")
	}

	errs = append(errs, c.Simulate.validate()...)

	// Validate generation config
	if c.Generate.Files <= 0 {
		errs = append(errs, "generate.files must be positive")
	}
	if c.Generate.LinesPerFile <= 0 {
		errs = append(errs, "generate.lines_per_file must be positive")
	}
	if c.Generate.Accounts < 2 {
		errs = append(errs, "generate.accounts must be at least 2")
	}
	if c.Generate.MalformedRate < 0 || c.Generate.MalformedRate > 1 {
		errs = append(errs, "generate.malformed_rate must be between 0.0 and 1.0")
	}
	if c.Generate.SpanDays <= 0 {
		errs = append(errs, "generate.span_days must be positive")
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be console or json (got %q)", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", joinErrors(errs))
	}

	return nil
}

// Validate checks the simulation settings on their own
func (s SimulateConfig) Validate() error {
	if errs := s.validate(); len(errs) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", joinErrors(errs))
	}
	return nil
}

func (s SimulateConfig) validate() []string {
	var errs []string

	if s.MinWorkers < 1 {
		errs = append(errs, "simulate.min_workers must be >= 1")
	}
	if s.MaxWorkers < s.MinWorkers {
		errs = append(errs, "simulate.max_workers must be >= min_workers")
	}
	if s.MinActions < 0 {
		errs = append(errs, "simulate.min_actions must be non-negative")
	}
	if s.MaxActions < s.MinActions {
		errs = append(errs, "simulate.max_actions must be >= min_actions")
	}
	if s.MinPlaceholders < 1 {
		errs = append(errs, "simulate.min_placeholders must be >= 1")
	}
	if s.MaxPlaceholders < s.MinPlaceholders {
		errs = append(errs, "simulate.max_placeholders must be >= min_placeholders")
	}
	if s.MaxAmountCents < 1 {
		errs = append(errs, "simulate.max_amount_cents must be >= 1")
	}
	if s.MaxThinkTime < 0 {
		errs = append(errs, "simulate.max_think_time must be non-negative")
	}
	if s.PoolTimeout <= 0 {
		errs = append(errs, "simulate.pool_timeout must be positive")
	}

	return errs
}

// joinErrors joins error messages with newline and bullet points
func joinErrors(errs []string) string {
	result := errs[0]
	for i := 1; i < len(errs); i++ {
		result += "\n  - " + errs[i]
	}
	return result
}

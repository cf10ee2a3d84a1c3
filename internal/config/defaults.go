// Package config contains configuration and compile-time defaults for txreplay.
package config

import "time"

// =============================================================================
// LOG FORMAT
// =============================================================================

const (
	// TimestampLayout is the bracketed timestamp format of every log line
	TimestampLayout = "2006-01-02 15:04:05"

	// RunIDLayout formats the run start time into the token used in output names
	RunIDLayout = "20060102_150405"

	// LogExtension selects input files and names output files
	LogExtension = ".log"
)

// =============================================================================
// RUN DEFAULTS
// =============================================================================

const (
	// DefaultInputDir is read when no input directory is given
	DefaultInputDir = "resources"

	// RunDirPrefix prefixes the per-run output directory
	RunDirPrefix = "transactions_by_users_"

	// SimulationLogPrefix prefixes the simulation log file name
	SimulationLogPrefix = "simulation_log_"
)

// =============================================================================
// SIMULATION DEFAULTS
// =============================================================================

// Worker pool and batch size, both drawn uniformly from the inclusive range
const (
	MinWorkers = 3
	MaxWorkers = 8

	MinActions = 10
	MaxActions = 30
)

// Placeholder accounts created when no account exists yet
const (
	MinPlaceholderAccounts = 5
	MaxPlaceholderAccounts = 15

	// PlaceholderPrefix names placeholder accounts testUser1, testUser2, ...
	PlaceholderPrefix = "testUser"
)

const (
	// MaxAmountCents bounds simulated withdrawal and transfer amounts (exclusive)
	MaxAmountCents = 10000

	// MaxThinkTime bounds the pause each worker takes after an action (exclusive)
	MaxThinkTime = 500 * time.Millisecond

	// PoolTimeout is how long the simulation waits for its workers
	PoolTimeout = 10 * time.Second
)

// =============================================================================
// SAMPLE GENERATION DEFAULTS
// =============================================================================

const (
	SampleFiles         = 3
	SampleLinesPerFile  = 50
	SampleAccounts      = 8
	SampleMalformedRate = 0.0
	SampleSpanDays      = 30

	// SampleMaxAmountCents bounds generated amounts (exclusive)
	SampleMaxAmountCents = 100000

	// SampleFilePrefix names generated files transactions_1.log, ...
	SampleFilePrefix = "transactions_"
)

// =============================================================================
// LOGGING DEFAULTS
// =============================================================================

const (
	LogLevel  = "info"
	LogFormat = "console"
)

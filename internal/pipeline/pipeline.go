// Package pipeline runs one batch over a log directory:
// ingest, sort, simulate, sort, balance, export, write.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/willfong/txreplay/internal/config"
	"github.com/willfong/txreplay/internal/ledger"
	"github.com/willfong/txreplay/internal/logdir"
	"github.com/willfong/txreplay/internal/models"
	"github.com/willfong/txreplay/internal/output"
	"github.com/willfong/txreplay/internal/simulator"
)

// Config holds settings for one run
type Config struct {
	InputDir   string
	OutputRoot string
	Simulate   bool
	Simulation config.SimulateConfig
}

// Options holds presentation hooks that do not change the run's output
type Options struct {
	// Progress is called after each committed simulated action
	Progress func(done, total int)
}

// Pipeline sequences the stages of a run. Stages never overlap: the
// simulator is the only concurrent writer and it finishes before balances
// are computed.
type Pipeline struct {
	fs      afero.Fs
	config  Config
	options Options
	log     zerolog.Logger
	clock   func() time.Time
}

// Result holds statistics from a run
type Result struct {
	RunID     string
	OutputDir string

	Ingest   *ledger.IngestReport
	Accounts int
	Entries  int

	// Simulation is nil when the simulation stage was skipped
	Simulation    *simulator.Result
	SimulationErr error

	FilesWritten int
	WriteErrors  []error

	Duration time.Duration
}

// New creates a pipeline over fs
func New(fs afero.Fs, cfg Config, opts Options, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		fs:      fs,
		config:  cfg,
		options: opts,
		log:     log,
		clock:   time.Now,
	}
}

// SetClock overrides the time source for the run id, simulated entries and
// final balances
func (p *Pipeline) SetClock(clock func() time.Time) {
	p.clock = clock
}

// Run executes the whole batch. Per-line, per-file and per-account failures
// are logged and collected in the Result. An error is returned only when the
// input directory cannot be read, the output directory cannot be created, or
// the simulation failed without committing anything; in the last case all
// output is still written.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	started := p.clock()
	outputRoot := p.config.OutputRoot
	if outputRoot == "" {
		outputRoot = p.config.InputDir
	}
	layout := output.NewLayout(outputRoot, started)

	result := &Result{
		RunID:     layout.RunID,
		OutputDir: layout.RunDir(),
	}

	provider := logdir.NewProvider(p.fs, p.config.InputDir)
	if err := provider.EnsureDir(); err != nil {
		return result, err
	}
	if err := p.fs.MkdirAll(layout.RunDir(), 0755); err != nil {
		return result, fmt.Errorf("failed to create output directory: %w", err)
	}

	// Ingest
	files, err := provider.Files()
	if err != nil {
		return result, err
	}

	agg := ledger.NewAggregator()
	report, err := agg.Ingest(files)
	result.Ingest = report
	if err != nil {
		return result, err
	}
	for _, d := range report.Diagnostics {
		p.log.Warn().Str("source", d.Source).Int("line", d.Line).Err(d.Err).Msg("skipped input")
	}
	p.log.Info().
		Int("files", report.FilesRead).
		Int("entries", report.Ingested).
		Int("skipped", report.Skipped).
		Msg("ingested logs")

	agg.SortAll()

	// Simulate
	var escalated error
	if p.config.Simulate {
		escalated = p.simulate(ctx, agg, layout, result)
		agg.SortAll()
	}

	// Balance
	if err := agg.ComputeFinalBalances(models.WallClock(p.clock())); err != nil {
		return result, err
	}

	// Export
	exported := agg.Export()
	sink := output.NewFileSink(p.fs)
	for _, account := range agg.Accounts() {
		path := layout.AccountFile(account)
		if err := sink.WriteLines(path, exported[account]); err != nil {
			p.log.Error().Str("account", account).Err(err).Msg("failed to write account ledger")
			result.WriteErrors = append(result.WriteErrors, fmt.Errorf("account %s: %w", account, err))
			continue
		}
		result.FilesWritten++
	}

	result.Accounts = len(exported)
	result.Entries = agg.EntryCount()
	result.Duration = p.clock().Sub(started)

	return result, escalated
}

// simulate layers random activity onto agg and writes the simulation log.
// It returns an error only when the simulation committed nothing.
func (p *Pipeline) simulate(ctx context.Context, agg *ledger.Aggregator, layout output.Layout, result *Result) error {
	sim := simulator.New(agg, p.config.Simulation, p.log)
	sim.SetClock(p.clock)
	if p.options.Progress != nil {
		sim.SetProgress(p.options.Progress)
	}

	simResult, err := sim.Generate(ctx, agg.Accounts())
	result.Simulation = simResult
	result.SimulationErr = err

	if err != nil {
		if errors.Is(err, simulator.ErrConcurrencyTimeout) {
			p.log.Warn().Err(err).Msg("simulation incomplete")
		} else {
			p.log.Error().Err(err).Msg("simulation failed")
		}
	}

	if err := output.NewFileSink(p.fs).WriteLines(layout.SimulationLog(), simResult.Lines); err != nil {
		p.log.Error().Err(err).Msg("failed to write simulation log")
		result.WriteErrors = append(result.WriteErrors, fmt.Errorf("simulation log: %w", err))
	} else {
		result.FilesWritten++
		p.log.Info().Str("path", layout.SimulationLog()).Msg("simulation log saved")
	}

	if err != nil && simResult.Committed == 0 {
		return fmt.Errorf("simulation failed: %w", err)
	}
	return nil
}

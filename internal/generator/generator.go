// Package generator writes sample transaction logs in the input format, for
// trying the pipeline out on something other than an empty directory.
package generator

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/willfong/txreplay/internal/config"
	"github.com/willfong/txreplay/internal/generator/patterns"
	"github.com/willfong/txreplay/internal/models"
	"github.com/willfong/txreplay/internal/output"
	"github.com/willfong/txreplay/internal/parser"
	"github.com/willfong/txreplay/internal/utils"
)

// accountNames are used before falling back to numbered names
var accountNames = []string{
	"alice", "bob", "carol", "dave", "erin", "frank", "grace", "heidi",
	"ivan", "judy", "mallory", "niaj", "olivia", "peggy", "rupert", "sybil",
	"trent", "victor", "walter",
}

// malformedLines are written in place of real entries at MalformedRate
var malformedLines = []string{
	"corrupted entry",
	"[2024-13-45 99:99:99] nobody withdrew 1.00",
	"[2024-01-01 10:00:00] alice deposited 10.00",
	"[2024-01-01 10:00:00] alice withdrew ten",
	"[2024-01-01 10:00:00] alice transferred 5.00",
	"",
}

// operation mix of generated entries
var (
	operations = []models.Operation{models.OpInquiry, models.OpWithdrew, models.OpTransferred}
	opWeights  = []float64{0.25, 0.35, 0.40}
)

// Config holds sample generation settings
type Config struct {
	OutputDir      string
	Files          int
	LinesPerFile   int
	Accounts       int
	MalformedRate  float64
	MaxAmountCents int64

	// Timestamps fall on the days of [Start, Start+Span)
	Start time.Time
	Span  time.Duration

	Seed int64
}

// ConfigFrom builds a generator config from the application config.
// Timestamps cover the SpanDays days before now.
func ConfigFrom(cfg config.GenerateConfig, now time.Time) Config {
	span := time.Duration(cfg.SpanDays) * 24 * time.Hour
	start := models.WallClock(now).Add(-span).Truncate(24 * time.Hour)
	return Config{
		OutputDir:      cfg.OutputDir,
		Files:          cfg.Files,
		LinesPerFile:   cfg.LinesPerFile,
		Accounts:       cfg.Accounts,
		MalformedRate:  cfg.MalformedRate,
		MaxAmountCents: config.SampleMaxAmountCents,
		Start:          start,
		Span:           span,
		Seed:           cfg.Seed,
	}
}

// Result holds statistics from a generation run
type Result struct {
	Files     []string
	Accounts  []string
	Lines     int
	Malformed int
	Duration  time.Duration
}

// Generator writes sample log files
type Generator struct {
	fs       afero.Fs
	config   Config
	rng      *utils.Random
	log      zerolog.Logger
	activity *patterns.ActivityDistribution
	hours    *patterns.DailyPattern
}

// New creates a generator writing to fs
func New(fs afero.Fs, cfg Config, log zerolog.Logger) (*Generator, error) {
	switch {
	case cfg.Files <= 0:
		return nil, fmt.Errorf("files must be positive, got %d", cfg.Files)
	case cfg.LinesPerFile <= 0:
		return nil, fmt.Errorf("lines per file must be positive, got %d", cfg.LinesPerFile)
	case cfg.Accounts < 2:
		return nil, fmt.Errorf("at least 2 accounts are needed for transfers, got %d", cfg.Accounts)
	case cfg.MalformedRate < 0 || cfg.MalformedRate > 1:
		return nil, fmt.Errorf("malformed rate must be between 0 and 1, got %v", cfg.MalformedRate)
	case cfg.Span <= 0:
		return nil, fmt.Errorf("span must be positive, got %s", cfg.Span)
	case cfg.MaxAmountCents <= 0:
		return nil, fmt.Errorf("max amount must be positive, got %d", cfg.MaxAmountCents)
	}

	return &Generator{
		fs:       fs,
		config:   cfg,
		rng:      utils.NewRandom(cfg.Seed),
		log:      log,
		activity: patterns.NewParetoDistribution(0.2),
		hours:    patterns.NewDailyPattern(),
	}, nil
}

// Seed returns the seed in use, so a run can be repeated
func (g *Generator) Seed() uint64 {
	return g.rng.Seed()
}

// Generate writes Files files of LinesPerFile lines each. Files are written
// in parallel, each from its own forked random source, so the output only
// depends on the seed. Existing files are never overwritten.
//
// The Result is never nil. When a write fails the remaining files are
// abandoned and the Result lists only the files that were written.
func (g *Generator) Generate(ctx context.Context) (*Result, error) {
	startTime := time.Now()

	accounts := AccountNames(g.config.Accounts)
	weights := g.activity.Weights(len(accounts))
	rngs := g.rng.ForkN(g.config.Files)

	type fileResult struct {
		path      string
		malformed int
	}
	results := make([]fileResult, g.config.Files)

	sink := output.NewFileSink(g.fs)
	eg, ctx := errgroup.WithContext(ctx)
	for i := range rngs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			lines, malformed := g.fileLines(rngs[i], accounts, weights)
			path := filepath.Join(g.config.OutputDir,
				fmt.Sprintf("%s%d%s", config.SampleFilePrefix, i+1, config.LogExtension))
			if err := sink.WriteLines(path, lines); err != nil {
				return err
			}

			g.log.Debug().Str("path", path).Int("lines", len(lines)).Msg("sample file written")
			results[i] = fileResult{path: path, malformed: malformed}
			return nil
		})
	}
	err := eg.Wait()

	res := &Result{Accounts: accounts}
	for _, r := range results {
		if r.path == "" {
			continue
		}
		res.Files = append(res.Files, r.path)
		res.Lines += g.config.LinesPerFile
		res.Malformed += r.malformed
	}
	res.Duration = time.Since(startTime)

	return res, err
}

// fileLines builds one file's worth of lines in timestamp order
func (g *Generator) fileLines(rng *utils.Random, accounts []string, weights []float64) ([]string, int) {
	entries := make([]models.Entry, g.config.LinesPerFile)
	for i := range entries {
		entries[i] = g.entry(rng, accounts, weights)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})

	lines := make([]string, len(entries))
	malformed := 0
	for i, e := range entries {
		if rng.Probability(g.config.MalformedRate) {
			lines[i] = rng.PickString(malformedLines)
			malformed++
			continue
		}
		lines[i] = parser.Format(e)
	}
	return lines, malformed
}

// entry draws one valid entry
func (g *Generator) entry(rng *utils.Random, accounts []string, weights []float64) models.Entry {
	idx := patterns.Pick(weights, rng.Float64())
	e := models.Entry{
		Timestamp: g.timestamp(rng),
		Account:   accounts[idx],
		Operation: operations[patterns.Pick(opWeights, rng.Float64())],
		Amount:    decimal.Zero,
	}

	switch e.Operation {
	case models.OpWithdrew:
		e.Amount = decimal.New(patterns.ExponentialAmount(rng.Float64(), g.config.MaxAmountCents), -2)
	case models.OpTransferred:
		e.Amount = decimal.New(patterns.ExponentialAmount(rng.Float64(), g.config.MaxAmountCents), -2)
		e.Counterparty = accounts[rng.PickOther(len(accounts), idx)]
	}
	return e
}

// timestamp picks a day in the span, then an hour following the daily curve
func (g *Generator) timestamp(rng *utils.Random) time.Time {
	days := int64(g.config.Span / (24 * time.Hour))
	day := g.config.Start
	if days > 0 {
		day = day.Add(time.Duration(rng.Int64N(days)) * 24 * time.Hour)
	}

	hour := g.hours.Hour(rng.Float64())
	ts := day.Add(time.Duration(hour)*time.Hour + rng.DurationN(time.Hour))
	return ts.Truncate(time.Second)
}

// AccountNames returns n distinct account names
func AccountNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		if i < len(accountNames) {
			names[i] = accountNames[i]
		} else {
			names[i] = fmt.Sprintf("user%d", i+1)
		}
	}
	return names
}

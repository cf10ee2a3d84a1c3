// Package simulator layers randomized concurrent activity onto the ledgers
// held by a ledger.Aggregator.
//
// A batch of actions is split across a small worker pool. Workers build
// entries with their own forked RNG and hand them to a single committer
// goroutine, which is the only writer: it records each entry (and the mirror
// of a transfer) and appends the action's log line as one step.
package simulator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/willfong/txreplay/internal/config"
	"github.com/willfong/txreplay/internal/ledger"
	"github.com/willfong/txreplay/internal/models"
	"github.com/willfong/txreplay/internal/parser"
	"github.com/willfong/txreplay/internal/utils"
)

// actionOps are the operations a simulated account may perform
var actionOps = []models.Operation{models.OpInquiry, models.OpWithdrew, models.OpTransferred}

// Simulator generates random activity against an aggregator
type Simulator struct {
	agg    *ledger.Aggregator
	config config.SimulateConfig
	rng    *utils.Random
	log    zerolog.Logger

	clock    func() time.Time
	progress func(done, total int)
}

// Result describes one simulation batch
type Result struct {
	// Lines holds "Action <index>: <entry>" in commit order
	Lines []string

	Actions      int      // actions planned
	Workers      int      // worker pool size
	Committed    int      // actions committed
	Transfers    int      // committed actions that were transfers
	Placeholders []string // accounts created because none existed

	Metrics MetricsSnapshot
}

// Entries returns the number of ledger entries the committed actions produced
func (r *Result) Entries() int {
	return r.Committed + r.Transfers
}

// action is one built entry on its way to the committer
type action struct {
	index int
	entry models.Entry
	built time.Time
}

// New creates a simulator that writes into agg
func New(agg *ledger.Aggregator, cfg config.SimulateConfig, log zerolog.Logger) *Simulator {
	return &Simulator{
		agg:    agg,
		config: cfg,
		rng:    utils.NewRandom(cfg.Seed),
		log:    log,
		clock:  time.Now,
	}
}

// SetClock overrides the time source used to stamp simulated entries
func (s *Simulator) SetClock(clock func() time.Time) {
	s.clock = clock
}

// SetProgress registers a callback invoked by the committer after each action
func (s *Simulator) SetProgress(fn func(done, total int)) {
	s.progress = fn
}

// Generate runs one batch of random actions over accounts. When accounts is
// empty, placeholder accounts are created first.
//
// The returned Result is never nil. On timeout or cancellation the error wraps
// ErrConcurrencyTimeout and the Result covers what was committed.
func (s *Simulator) Generate(ctx context.Context, accounts []string) (*Result, error) {
	res := &Result{}

	if err := s.config.Validate(); err != nil {
		return res, err
	}

	accounts = uniqueAccounts(accounts)
	if len(accounts) == 0 {
		placeholders, err := s.createPlaceholders()
		if err != nil {
			return res, err
		}
		res.Placeholders = placeholders
		accounts = placeholders
	}

	res.Workers = s.rng.IntRange(s.config.MinWorkers, s.config.MaxWorkers)
	res.Actions = s.rng.IntRange(s.config.MinActions, s.config.MaxActions)
	rngs := s.rng.ForkN(res.Workers)

	s.log.Info().
		Int("actions", res.Actions).
		Int("workers", res.Workers).
		Int("accounts", len(accounts)).
		Msg("simulating actions")

	ctx, cancel := context.WithTimeout(ctx, s.config.PoolTimeout)
	defer cancel()

	commits := make(chan action)
	committed := make(chan error, 1)
	go func() {
		committed <- s.commitLoop(commits, res)
	}()

	tasks := make(chan int)
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < res.Workers; w++ {
		rng := rngs[w]
		g.Go(func() error {
			return s.work(gctx, rng, accounts, tasks, commits)
		})
	}

	// Indices are fixed before dispatch; completion order is not.
dispatch:
	for i := 0; i < res.Actions; i++ {
		select {
		case tasks <- i:
		case <-gctx.Done():
			break dispatch
		}
	}
	close(tasks)

	poolErr := g.Wait()
	close(commits)
	commitErr := <-committed

	if commitErr != nil {
		return res, commitErr
	}
	if ctx.Err() != nil {
		s.log.Warn().
			Int("committed", res.Committed).
			Int("actions", res.Actions).
			Msg("simulation stopped before all actions completed")
		return res, fmt.Errorf("%w: %d of %d actions committed: %w",
			ErrConcurrencyTimeout, res.Committed, res.Actions, ctx.Err())
	}
	if poolErr != nil {
		return res, poolErr
	}

	return res, nil
}

// createPlaceholders seeds between MinPlaceholders and MaxPlaceholders
// accounts, each with a zero balance inquiry.
func (s *Simulator) createPlaceholders() ([]string, error) {
	n := s.rng.IntRange(s.config.MinPlaceholders, s.config.MaxPlaceholders)
	now := s.now()

	accounts := make([]string, n)
	for i := range accounts {
		accounts[i] = fmt.Sprintf("%s%d", config.PlaceholderPrefix, i+1)
		err := s.agg.Record(models.Entry{
			Timestamp: now,
			Account:   accounts[i],
			Operation: models.OpInquiry,
			Amount:    decimal.Zero,
		})
		if err != nil {
			return nil, fmt.Errorf("seed placeholder %s: %w", accounts[i], err)
		}
	}

	s.log.Info().Int("count", n).Msg("created placeholder accounts as no accounts were found")
	return accounts, nil
}

// work takes action indices until the task channel closes or ctx ends
func (s *Simulator) work(ctx context.Context, rng *utils.Random, accounts []string, tasks <-chan int, commits chan<- action) error {
	for index := range tasks {
		a := action{index: index, entry: s.buildEntry(rng, accounts), built: time.Now()}

		select {
		case commits <- a:
		case <-ctx.Done():
			return ctx.Err()
		}

		// think time stays outside the commit path
		if err := s.think(ctx, rng); err != nil {
			return err
		}
	}
	return nil
}

// buildEntry picks an actor, an operation and an amount. A transfer whose
// counterparty draw hits the actor is resampled once from the other accounts;
// with a single account a transfer becomes an inquiry.
func (s *Simulator) buildEntry(rng *utils.Random, accounts []string) models.Entry {
	actor := rng.IntN(len(accounts))
	op := actionOps[rng.IntN(len(actionOps))]

	e := models.Entry{
		Timestamp: s.now(),
		Account:   accounts[actor],
		Operation: op,
		Amount:    decimal.Zero,
	}

	if op == models.OpTransferred {
		target := rng.IntN(len(accounts))
		if target == actor {
			target = rng.PickOther(len(accounts), actor)
		}
		if target < 0 {
			e.Operation = models.OpInquiry
			return e
		}
		e.Counterparty = accounts[target]
	}

	if e.Operation != models.OpInquiry {
		e.Amount = rng.Amount(s.config.MaxAmountCents)
	}

	return e
}

func (s *Simulator) think(ctx context.Context, rng *utils.Random) error {
	if s.config.MaxThinkTime <= 0 {
		return nil
	}

	timer := time.NewTimer(rng.DurationN(s.config.MaxThinkTime))
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// commitLoop is the single writer for the ledgers and the action log. It
// drains commits until the channel closes and returns the first record error.
func (s *Simulator) commitLoop(commits <-chan action, res *Result) error {
	var firstErr error
	metrics := NewMetrics()
	defer func() { res.Metrics = metrics.Snapshot() }()

	for a := range commits {
		if firstErr != nil {
			continue
		}
		if err := s.agg.Record(a.entry); err != nil {
			firstErr = fmt.Errorf("commit action %d: %w", a.index, err)
			continue
		}

		line := fmt.Sprintf("Action %d: %s", a.index, parser.Format(a.entry))
		res.Lines = append(res.Lines, line)
		res.Committed++
		metrics.RecordCommit(a.entry.Operation, time.Since(a.built))
		if a.entry.Operation == models.OpTransferred {
			res.Transfers++
		}

		s.log.Debug().Int("action", a.index).Msg(line)
		if s.progress != nil {
			s.progress(res.Committed, res.Actions)
		}
	}

	return firstErr
}

// uniqueAccounts drops empty and repeated names, keeping first-seen order
func uniqueAccounts(accounts []string) []string {
	seen := make(map[string]bool, len(accounts))
	out := make([]string, 0, len(accounts))
	for _, a := range accounts {
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}

func (s *Simulator) now() time.Time {
	return models.WallClock(s.clock())
}

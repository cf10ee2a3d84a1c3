// Package ledger groups parsed entries into per-account ledgers and derives
// their final balances.
package ledger

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/willfong/txreplay/internal/models"
	"github.com/willfong/txreplay/internal/parser"
)

// ErrAlreadyFinalized is returned when a finalized aggregator is asked to change
var ErrAlreadyFinalized = errors.New("ledgers already finalized")

// Aggregator owns the account -> ledger mapping.
//
// Record is the only mutation path for entries and is safe for concurrent use;
// a transfer and its mirror received entry are appended under one lock, so
// readers never observe one without the other.
type Aggregator struct {
	mu        sync.RWMutex
	ledgers   map[string][]models.Entry
	finalized bool
}

// NewAggregator creates an empty aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{
		ledgers: make(map[string][]models.Entry),
	}
}

// Record appends an entry to its account's ledger. For a transfer the mirror
// received entry is appended to the counterparty's ledger in the same step.
// Received and final balance entries are derived here and cannot be recorded
// directly.
func (a *Aggregator) Record(e models.Entry) error {
	if e.Account == "" {
		return fmt.Errorf("%w: entry without account", parser.ErrInvalidOperation)
	}
	if e.Operation == models.OpTransferred && e.Counterparty == "" {
		return fmt.Errorf("%w: transfer from %s without counterparty", parser.ErrInvalidOperation, e.Account)
	}

	var mirror *models.Entry

	switch e.Operation {
	case models.OpInquiry, models.OpWithdrew:
	case models.OpTransferred:
		received, err := parser.DeriveReceived(e)
		if err != nil {
			return err
		}
		mirror = &received
	default:
		return fmt.Errorf("%w: cannot record %q entry", parser.ErrInvalidOperation, e.Operation)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.finalized {
		return ErrAlreadyFinalized
	}

	a.ledgers[e.Account] = append(a.ledgers[e.Account], e)
	if mirror != nil {
		a.ledgers[mirror.Account] = append(a.ledgers[mirror.Account], *mirror)
	}

	return nil
}

// SortAll stable-sorts every ledger by timestamp. Entries with equal
// timestamps keep their insertion order, and a final balance entry stays last.
func (a *Aggregator) SortAll() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, entries := range a.ledgers {
		if a.finalized && len(entries) > 0 {
			entries = entries[:len(entries)-1]
		}
		sortByTimestamp(entries)
	}
}

func sortByTimestamp(entries []models.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
}

// ComputeFinalBalances appends one final balance entry, stamped now, to every
// ledger. It must run after all ingestion and simulation; afterwards the
// aggregator accepts no more entries.
func (a *Aggregator) ComputeFinalBalances(now time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.finalized {
		return ErrAlreadyFinalized
	}

	for account, entries := range a.ledgers {
		a.ledgers[account] = append(entries, models.Entry{
			Timestamp: now,
			Account:   account,
			Operation: models.OpFinalBalance,
			Amount:    Balance(entries),
		})
	}
	a.finalized = true

	return nil
}

// Balance folds a ledger into its signed net total: received entries add,
// withdrawals and transfers subtract, everything else is ignored.
func Balance(entries []models.Entry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		switch {
		case e.IsCredit():
			total = total.Add(e.Amount)
		case e.IsDebit():
			total = total.Sub(e.Amount)
		}
	}
	return total
}

// Export renders every ledger as formatted log lines, in ledger order
func (a *Aggregator) Export() map[string][]string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make(map[string][]string, len(a.ledgers))
	for account, entries := range a.ledgers {
		lines := make([]string, len(entries))
		for i, e := range entries {
			lines[i] = parser.Format(e)
		}
		out[account] = lines
	}
	return out
}

// Accounts returns the known account names in lexical order
func (a *Aggregator) Accounts() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	accounts := make([]string, 0, len(a.ledgers))
	for account := range a.ledgers {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)
	return accounts
}

// Entries returns a copy of one account's ledger
func (a *Aggregator) Entries(account string) []models.Entry {
	a.mu.RLock()
	defer a.mu.RUnlock()

	entries := a.ledgers[account]
	out := make([]models.Entry, len(entries))
	copy(out, entries)
	return out
}

// EntryCount returns the number of entries across all ledgers
func (a *Aggregator) EntryCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	n := 0
	for _, entries := range a.ledgers {
		n += len(entries)
	}
	return n
}

// Balance returns the current net total of one account's ledger
func (a *Aggregator) Balance(account string) decimal.Decimal {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Balance(a.ledgers[account])
}

// Finalized reports whether final balances have been appended
func (a *Aggregator) Finalized() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.finalized
}

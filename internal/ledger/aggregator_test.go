package ledger

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willfong/txreplay/internal/models"
	"github.com/willfong/txreplay/internal/parser"
)

var finalTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func ingestLines(t *testing.T, agg *Aggregator, lines ...string) *IngestReport {
	t.Helper()
	report, err := agg.Ingest([]SourceFile{{Name: "test.log", Lines: lines}})
	require.NoError(t, err)
	return report
}

func mustParse(t *testing.T, line string) models.Entry {
	t.Helper()
	e, err := parser.Parse(line)
	require.NoError(t, err)
	return e
}

func TestSingleTransferExample(t *testing.T) {
	agg := NewAggregator()
	ingestLines(t, agg, "[2024-01-01 10:00:00] alice transferred 50.00 to bob")

	agg.SortAll()
	require.NoError(t, agg.ComputeFinalBalances(finalTime))

	out := agg.Export()
	assert.Equal(t, []string{
		"[2024-01-01 10:00:00] alice transferred 50.00 to bob",
		"[2024-06-01 12:00:00] alice final balance -50.00",
	}, out["alice"])
	assert.Equal(t, []string{
		"[2024-01-01 10:00:00] bob received 50.00 from alice",
		"[2024-06-01 12:00:00] bob final balance 50.00",
	}, out["bob"])
}

func TestIngest_MalformedLineIsSkipped(t *testing.T) {
	agg := NewAggregator()
	report := ingestLines(t, agg,
		"not a log line",
		"[2024-01-01 10:00:00] alice withdrew 5.00",
	)

	assert.Equal(t, 1, report.FilesRead)
	assert.Equal(t, 2, report.LinesRead)
	assert.Equal(t, 1, report.Ingested)
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, 1, report.Diagnostics[0].Line)
	assert.ErrorIs(t, report.Diagnostics[0].Err, parser.ErrFormat)
	assert.Contains(t, report.Diagnostics[0].String(), "test.log:1:")

	assert.Equal(t, 1, agg.EntryCount())
}

func TestIngest_UnreadableFileIsSkipped(t *testing.T) {
	agg := NewAggregator()
	readErr := fmt.Errorf("permission denied")

	report, err := agg.Ingest([]SourceFile{
		{Name: "a.log", Err: readErr},
		{Name: "b.log", Lines: []string{"[2024-01-01 10:00:00] carol withdrew 1.00"}},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.FilesSkipped)
	assert.Equal(t, 1, report.FilesRead)
	assert.Equal(t, 1, report.Ingested)
	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, 0, report.Diagnostics[0].Line)
	assert.ErrorIs(t, report.Diagnostics[0].Err, readErr)
	assert.Equal(t, []string{"carol"}, agg.Accounts())
}

func TestPairing_NoOrphans(t *testing.T) {
	agg := NewAggregator()
	ingestLines(t, agg,
		"[2024-01-01 10:00:00] alice transferred 50.00 to bob",
		"[2024-01-01 10:00:00] bob transferred 20.00 to carol",
		"[2024-01-02 09:00:00] carol transferred 5.25 to alice",
		"[2024-01-02 09:30:00] alice transferred 50.00 to carol",
		"[2024-01-03 11:00:00] bob withdrew 3.00",
	)

	assertPaired(t, agg)
}

// assertPaired checks that transfers and received entries match one to one
func assertPaired(t *testing.T, agg *Aggregator) {
	t.Helper()

	type key struct {
		from, to string
		ts       int64
		amount   string
	}
	transfers := map[key]int{}
	received := map[key]int{}

	for _, account := range agg.Accounts() {
		for _, e := range agg.Entries(account) {
			switch e.Operation {
			case models.OpTransferred:
				transfers[key{e.Account, e.Counterparty, e.Timestamp.UnixNano(), e.Amount.StringFixed(2)}]++
			case models.OpReceived:
				received[key{e.Counterparty, e.Account, e.Timestamp.UnixNano(), e.Amount.StringFixed(2)}]++
			}
		}
	}

	assert.Equal(t, transfers, received)
}

func TestBalanceLaw(t *testing.T) {
	agg := NewAggregator()
	ingestLines(t, agg,
		"[2024-01-01 10:00:00] alice transferred 50.00 to bob",
		"[2024-01-01 11:00:00] bob transferred 20.10 to alice",
		"[2024-01-01 12:00:00] alice withdrew 7.45",
		"[2024-01-01 13:00:00] alice balance inquiry 999.99",
		"[2024-01-01 14:00:00] bob withdrew 100.00",
	)
	agg.SortAll()
	require.NoError(t, agg.ComputeFinalBalances(finalTime))

	for _, account := range agg.Accounts() {
		entries := agg.Entries(account)
		require.NotEmpty(t, entries)

		final := entries[len(entries)-1]
		require.Equal(t, models.OpFinalBalance, final.Operation)

		want := decimal.Zero
		for _, e := range entries[:len(entries)-1] {
			switch e.Operation {
			case models.OpReceived:
				want = want.Add(e.Amount)
			case models.OpWithdrew, models.OpTransferred:
				want = want.Sub(e.Amount)
			}
		}
		assert.True(t, want.Equal(final.Amount), "%s: want %s got %s", account, want, final.Amount)
	}

	assert.Equal(t, "-37.35", agg.Entries("alice")[4].Amount.StringFixed(2))
	assert.Equal(t, "-70.10", agg.Entries("bob")[3].Amount.StringFixed(2))
}

func TestSortAll_StableAndIdempotent(t *testing.T) {
	agg := NewAggregator()
	ingestLines(t, agg,
		"[2024-01-02 10:00:00] alice withdrew 1.00",
		"[2024-01-01 10:00:00] alice withdrew 2.00",
		"[2024-01-01 10:00:00] alice withdrew 3.00",
		"[2024-01-01 09:00:00] alice balance inquiry 0.00",
		"[2024-01-01 10:00:00] alice withdrew 4.00",
	)

	agg.SortAll()
	first := agg.Export()["alice"]
	assert.Equal(t, []string{
		"[2024-01-01 09:00:00] alice balance inquiry 0.00",
		"[2024-01-01 10:00:00] alice withdrew 2.00",
		"[2024-01-01 10:00:00] alice withdrew 3.00",
		"[2024-01-01 10:00:00] alice withdrew 4.00",
		"[2024-01-02 10:00:00] alice withdrew 1.00",
	}, first)

	agg.SortAll()
	assert.Equal(t, first, agg.Export()["alice"])
}

func TestSortAll_KeepsFinalBalanceLast(t *testing.T) {
	agg := NewAggregator()
	ingestLines(t, agg, "[2030-01-01 10:00:00] alice withdrew 1.00")

	// final balance stamped before the ledger's only entry
	require.NoError(t, agg.ComputeFinalBalances(finalTime))
	agg.SortAll()

	entries := agg.Entries("alice")
	require.Len(t, entries, 2)
	assert.Equal(t, models.OpFinalBalance, entries[1].Operation)
}

func TestComputeFinalBalances_OnlyOnce(t *testing.T) {
	agg := NewAggregator()
	ingestLines(t, agg, "[2024-01-01 10:00:00] alice withdrew 1.00")

	require.NoError(t, agg.ComputeFinalBalances(finalTime))
	assert.ErrorIs(t, agg.ComputeFinalBalances(finalTime), ErrAlreadyFinalized)
	assert.Len(t, agg.Entries("alice"), 2)
	assert.True(t, agg.Finalized())

	err := agg.Record(mustParse(t, "[2024-01-01 11:00:00] alice withdrew 1.00"))
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
}

func TestRecord_RejectsDerivedOperations(t *testing.T) {
	agg := NewAggregator()

	for _, op := range []models.Operation{models.OpReceived, models.OpFinalBalance} {
		err := agg.Record(models.Entry{Account: "alice", Operation: op, Counterparty: "bob"})
		assert.ErrorIs(t, err, parser.ErrInvalidOperation)
	}
	assert.Equal(t, 0, agg.EntryCount())
}

func TestRecord_RejectsMissingAccounts(t *testing.T) {
	agg := NewAggregator()
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	err := agg.Record(models.Entry{Timestamp: ts, Operation: models.OpWithdrew, Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, parser.ErrInvalidOperation)

	err = agg.Record(models.Entry{Timestamp: ts, Account: "alice", Operation: models.OpTransferred, Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, parser.ErrInvalidOperation)

	assert.Empty(t, agg.Accounts())
	assert.Equal(t, 0, agg.EntryCount())
}

func TestSortAll_DSTGapKeepsWallClockOrder(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("time zone not available: %v", err)
	}
	old := time.Local
	time.Local = loc
	t.Cleanup(func() { time.Local = old })

	agg := NewAggregator()
	ingestLines(t, agg,
		"[2024-03-10 02:30:00] alice withdrew 1.00",
		"[2024-03-10 01:45:00] alice withdrew 2.00",
	)
	agg.SortAll()

	assert.Equal(t, []string{
		"[2024-03-10 01:45:00] alice withdrew 2.00",
		"[2024-03-10 02:30:00] alice withdrew 1.00",
	}, agg.Export()["alice"])
}

func TestRecord_ConcurrentTransfersStayPaired(t *testing.T) {
	agg := NewAggregator()
	accounts := []string{"a", "b", "c", "d"}
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				from := accounts[(w+i)%len(accounts)]
				to := accounts[(w+i+1)%len(accounts)]
				err := agg.Record(models.Entry{
					Timestamp:    ts.Add(time.Duration(i) * time.Second),
					Account:      from,
					Operation:    models.OpTransferred,
					Amount:       decimal.NewFromInt(int64(i + 1)),
					Counterparty: to,
				})
				assert.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 8*50*2, agg.EntryCount())
	assertPaired(t, agg)

	total := decimal.Zero
	for _, account := range agg.Accounts() {
		total = total.Add(agg.Balance(account))
	}
	assert.True(t, total.IsZero(), "transfers must net to zero, got %s", total)
}

package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willfong/txreplay/internal/config"
	"github.com/willfong/txreplay/internal/output"
)

var runStart = time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local)

func newPipeline(fs afero.Fs, simulate bool) *Pipeline {
	sim := config.DefaultSimulateConfig()
	sim.Seed = 17
	sim.MaxThinkTime = 0

	p := New(fs, Config{
		InputDir:   "resources",
		Simulate:   simulate,
		Simulation: sim,
	}, Options{}, zerolog.Nop())
	p.SetClock(func() time.Time { return runStart })
	return p
}

func readLines(t *testing.T, fs afero.Fs, path string) []string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestRun_TransferWithMalformedLine(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "resources/day1.log", []byte(
		"not a log line\n[2024-01-01 10:00:00] alice transferred 50.00 to bob\n"), 0644))

	res, err := newPipeline(fs, false).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "20240601_120000", res.RunID)
	assert.Equal(t, 1, res.Ingest.Ingested)
	assert.Equal(t, 1, res.Ingest.Skipped)
	assert.Len(t, res.Ingest.Diagnostics, 1)
	assert.Nil(t, res.Simulation)
	assert.Equal(t, 2, res.Accounts)
	assert.Equal(t, 4, res.Entries)
	assert.Equal(t, 2, res.FilesWritten)
	assert.Empty(t, res.WriteErrors)

	layout := output.NewLayout("resources", runStart)
	assert.Equal(t, []string{
		"[2024-01-01 10:00:00] alice transferred 50.00 to bob",
		"[2024-06-01 12:00:00] alice final balance -50.00",
	}, readLines(t, fs, layout.AccountFile("alice")))
	assert.Equal(t, []string{
		"[2024-01-01 10:00:00] bob received 50.00 from alice",
		"[2024-06-01 12:00:00] bob final balance 50.00",
	}, readLines(t, fs, layout.AccountFile("bob")))

	exists, err := afero.Exists(fs, layout.SimulationLog())
	require.NoError(t, err)
	assert.False(t, exists, "no simulation log when simulation is off")
}

func TestRun_SortsAcrossFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "resources/a.log", []byte(
		"[2024-01-03 10:00:00] alice withdrew 1.00\n"), 0644))
	require.NoError(t, afero.WriteFile(fs, "resources/b.log", []byte(
		"[2024-01-01 10:00:00] bob transferred 10.00 to alice\n"), 0644))

	_, err := newPipeline(fs, false).Run(context.Background())
	require.NoError(t, err)

	layout := output.NewLayout("resources", runStart)
	assert.Equal(t, []string{
		"[2024-01-01 10:00:00] alice received 10.00 from bob",
		"[2024-01-03 10:00:00] alice withdrew 1.00",
		"[2024-06-01 12:00:00] alice final balance 9.00",
	}, readLines(t, fs, layout.AccountFile("alice")))
}

func TestRun_SimulatesPlaceholdersWhenInputIsEmpty(t *testing.T) {
	fs := afero.NewMemMapFs()

	var progressCalls int
	p := newPipeline(fs, true)
	p.options.Progress = func(done, total int) { progressCalls++ }

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res.Simulation)
	require.NoError(t, res.SimulationErr)

	sim := res.Simulation
	assert.NotEmpty(t, sim.Placeholders)
	assert.Equal(t, sim.Committed, progressCalls)
	assert.Equal(t, len(sim.Placeholders), res.Accounts)
	assert.Equal(t, len(sim.Placeholders)+1, res.FilesWritten)

	layout := output.NewLayout("resources", runStart)
	logLines := readLines(t, fs, layout.SimulationLog())
	assert.Len(t, logLines, sim.Committed)
	for _, line := range logLines {
		assert.True(t, strings.HasPrefix(line, "Action "), line)
	}

	// every ledger entry plus one final balance per account lands in a file
	total := 0
	for _, account := range sim.Placeholders {
		lines := readLines(t, fs, layout.AccountFile(account))
		assert.Contains(t, lines[len(lines)-1], account+" final balance ")
		total += len(lines)
	}
	assert.Equal(t, len(sim.Placeholders)+sim.Entries()+res.Accounts, total)
	assert.Equal(t, total, res.Entries)
}

func TestRun_ExistingAccountFileFailsOnlyThatAccount(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "resources/day1.log", []byte(
		"[2024-01-01 10:00:00] alice transferred 50.00 to bob\n"), 0644))

	layout := output.NewLayout("resources", runStart)
	require.NoError(t, fs.MkdirAll(filepath.Dir(layout.AccountFile("alice")), 0755))
	require.NoError(t, afero.WriteFile(fs, layout.AccountFile("alice"), []byte("keep\n"), 0644))

	res, err := newPipeline(fs, false).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, res.WriteErrors, 1)
	assert.ErrorIs(t, res.WriteErrors[0], output.ErrExists)
	assert.Contains(t, res.WriteErrors[0].Error(), "alice")
	assert.Equal(t, 1, res.FilesWritten)

	assert.Equal(t, []string{"keep"}, readLines(t, fs, layout.AccountFile("alice")))
	assert.Len(t, readLines(t, fs, layout.AccountFile("bob")), 2)
}

func TestRun_CreatesMissingInputDirectory(t *testing.T) {
	fs := afero.NewMemMapFs()

	res, err := newPipeline(fs, false).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Accounts)
	assert.Zero(t, res.FilesWritten)

	exists, err := afero.DirExists(fs, "resources")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRun_ReadOnlyFilesystem(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())

	_, err := newPipeline(fs, false).Run(context.Background())
	assert.Error(t, err)
}

func TestRun_SeparateOutputRoot(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "resources/day1.log", []byte(
		"[2024-01-01 10:00:00] carol withdrew 2.50\n"), 0644))

	p := newPipeline(fs, false)
	p.config.OutputRoot = "out"

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("out", "transactions_by_users_20240601_120000"), res.OutputDir)

	layout := output.NewLayout("out", runStart)
	assert.Equal(t, []string{
		"[2024-01-01 10:00:00] carol withdrew 2.50",
		"[2024-06-01 12:00:00] carol final balance -2.50",
	}, readLines(t, fs, layout.AccountFile("carol")))
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/willfong/txreplay/internal/config"
	"github.com/willfong/txreplay/internal/pipeline"
	"github.com/willfong/txreplay/internal/simulator"
	"github.com/willfong/txreplay/internal/ui"
)

// maxListedDiagnostics caps the skipped inputs printed after a run
const maxListedDiagnostics = 10

var noSimulate bool

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Rebuild per-account ledgers from a log directory",
	Long: `Process every *.log file of the input directory.

Each valid line becomes a ledger entry for its account; a transfer also
adds the matching "received" entry to the counterparty. Malformed lines
and unreadable files are reported and skipped.

Unless --no-simulate is given, a random batch of balance inquiries,
withdrawals and transfers is then run concurrently against the same
ledgers (or against placeholder accounts when the input is empty).

Finally every ledger gets a "final balance" entry and is written to
  <output>/transactions_by_users_<run>/<account>/<account>_run_<run>.log
next to simulation_log_<run>.log. Existing files are never overwritten.

Example:
  txreplay run
  txreplay run --input ./logs --output ./out
  txreplay run --seed 42 --timeout 5s
  txreplay run --no-simulate`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.String("input", config.DefaultInputDir, "directory holding the *.log input files")
	flags.String("output", "", "root for the run's output directory (default: the input directory)")
	flags.BoolVar(&noSimulate, "no-simulate", false, "skip the simulated activity")
	flags.Int64("seed", 0, "random seed for the simulation (0 = random)")
	flags.Duration("timeout", config.PoolTimeout, "maximum time to wait for the simulation workers")

	viper.BindPFlag("run.input_dir", flags.Lookup("input"))
	viper.BindPFlag("run.output_dir", flags.Lookup("output"))
	viper.BindPFlag("simulate.seed", flags.Lookup("seed"))
	viper.BindPFlag("simulate.pool_timeout", flags.Lookup("timeout"))
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, u, log, err := setup()
	if err != nil {
		fmt.Fprintln(os.Stderr, u.Error(err.Error()))
		return err
	}
	if noSimulate {
		cfg.Run.Simulate = false
	}

	u.Println(u.Header("txreplay"))
	u.Println()
	u.Println(u.KeyValue("Input", cfg.Run.InputDir))
	u.Println(u.KeyValue("Output", cfg.Run.OutputRoot()))
	if cfg.Run.Simulate {
		u.Println(u.KeyValue("Workers", fmt.Sprintf("%d-%d", cfg.Simulate.MinWorkers, cfg.Simulate.MaxWorkers)))
		u.Println(u.KeyValue("Actions", fmt.Sprintf("%d-%d", cfg.Simulate.MinActions, cfg.Simulate.MaxActions)))
		u.Println(u.KeyValue("Timeout", cfg.Simulate.PoolTimeout.String()))
		if cfg.Simulate.Seed != 0 {
			u.Println(u.KeyValue("Seed", fmt.Sprintf("%d", cfg.Simulate.Seed)))
		}
	} else {
		u.Println(u.KeyValue("Simulation", "off"))
	}
	u.Println()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var bar *ui.ProgressBar
	opts := pipeline.Options{}
	if cfg.Run.Simulate {
		bar = u.NewProgressBar("Simulating")
		opts.Progress = bar.Update
	}

	p := pipeline.New(afero.NewOsFs(), pipeline.Config{
		InputDir:   cfg.Run.InputDir,
		OutputRoot: cfg.Run.OutputRoot(),
		Simulate:   cfg.Run.Simulate,
		Simulation: cfg.Simulate,
	}, opts, log)

	result, err := p.Run(ctx)
	if bar != nil && result != nil && result.Simulation != nil {
		if result.Simulation.Committed == 0 && result.SimulationErr != nil {
			bar.Fail(result.SimulationErr)
		} else {
			bar.Complete()
		}
	}

	if result != nil && result.Ingest != nil {
		printDiagnostics(u, result)
		printRunSummary(u, result, err)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, u.Error(err.Error()))
		return err
	}

	u.Println()
	u.Println(u.Success("Ledgers written to: " + result.OutputDir))
	return nil
}

// printDiagnostics lists skipped input lines and files
func printDiagnostics(u *ui.UI, result *pipeline.Result) {
	diags := result.Ingest.Diagnostics
	if len(diags) == 0 {
		return
	}

	items := make([]string, len(diags))
	for i, d := range diags {
		items[i] = d.String()
	}
	u.Println()
	u.Println(u.List(fmt.Sprintf("Skipped %d input(s)", len(diags)), items, maxListedDiagnostics))
}

// printRunSummary prints a styled run summary
func printRunSummary(u *ui.UI, result *pipeline.Result, runErr error) {
	items := []ui.KV{
		{Key: "Run", Value: result.RunID},
		{Key: "Files Read", Value: fmt.Sprintf("%d", result.Ingest.FilesRead)},
		{Key: "Lines Ingested", Value: fmt.Sprintf("%d", result.Ingest.Ingested)},
		{Key: "Lines Skipped", Value: fmt.Sprintf("%d", result.Ingest.Skipped)},
	}
	if sim := result.Simulation; sim != nil {
		items = append(items,
			ui.KV{Key: "Workers", Value: fmt.Sprintf("%d", sim.Workers)},
			ui.KV{Key: "Actions", Value: fmt.Sprintf("%d/%d committed", sim.Committed, sim.Actions)},
			ui.KV{Key: "Action Mix", Value: sim.Metrics.String()},
			ui.KV{Key: "Commit Wait", Value: fmt.Sprintf("p50 %s / p99 %s",
				sim.Metrics.WaitP50.Round(time.Microsecond), sim.Metrics.WaitP99.Round(time.Microsecond))},
		)
		if len(sim.Placeholders) > 0 {
			items = append(items, ui.KV{Key: "Placeholders", Value: fmt.Sprintf("%d", len(sim.Placeholders))})
		}
	}
	items = append(items,
		ui.KV{Key: "Accounts", Value: fmt.Sprintf("%d", result.Accounts)},
		ui.KV{Key: "Entries", Value: fmt.Sprintf("%d", result.Entries)},
		ui.KV{Key: "Files Written", Value: fmt.Sprintf("%d", result.FilesWritten)},
		ui.KV{Key: "Duration", Value: result.Duration.Round(time.Millisecond).String()},
		ui.KV{Key: "Status", Value: runStatus(result, runErr)},
	)

	u.Println(u.SummaryBox("Run Complete", items))
}

func runStatus(result *pipeline.Result, runErr error) string {
	switch {
	case runErr != nil:
		return "Failed"
	case len(result.WriteErrors) > 0:
		return fmt.Sprintf("Partial (%d write errors)", len(result.WriteErrors))
	case errors.Is(result.SimulationErr, simulator.ErrConcurrencyTimeout):
		return "Partial (simulation timed out)"
	case result.SimulationErr != nil:
		return "Partial (simulation incomplete)"
	default:
		return "Success"
	}
}

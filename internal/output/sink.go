package output

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/willfong/txreplay/internal/config"
)

// Sink persists a set of lines to one destination, once
type Sink interface {
	WriteLines(path string, lines []string) error
}

// FileSink writes each destination as a new file on an afero filesystem
type FileSink struct {
	fs afero.Fs
}

// NewFileSink creates a sink backed by fs
func NewFileSink(fs afero.Fs) *FileSink {
	return &FileSink{fs: fs}
}

// WriteLines creates path and writes lines to it. It fails with ErrExists if
// the file is already present.
func (s *FileSink) WriteLines(path string, lines []string) error {
	w, err := NewLineWriter(LineWriterConfig{Fs: s.fs, Path: path})
	if err != nil {
		return err
	}

	if err := w.WriteLines(lines); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// Layout names the files of one run:
//
//	<root>/transactions_by_users_<run>/<account>/<account>_run_<run>.log
//	<root>/transactions_by_users_<run>/simulation_log_<run>.log
type Layout struct {
	Root  string
	RunID string
}

// NewLayout derives the run id from the run start time
func NewLayout(root string, started time.Time) Layout {
	return Layout{Root: root, RunID: started.Format(config.RunIDLayout)}
}

// RunDir returns the directory holding all output of the run
func (l Layout) RunDir() string {
	return filepath.Join(l.Root, config.RunDirPrefix+l.RunID)
}

// AccountFile returns the ledger file of one account
func (l Layout) AccountFile(account string) string {
	return filepath.Join(l.RunDir(), account, fmt.Sprintf("%s_run_%s%s", account, l.RunID, config.LogExtension))
}

// SimulationLog returns the file that receives the simulated action lines
func (l Layout) SimulationLog() string {
	return filepath.Join(l.RunDir(), config.SimulationLogPrefix+l.RunID+config.LogExtension)
}

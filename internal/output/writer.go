// Package output persists formatted ledger lines. Every destination is
// written once: creating a file that already exists fails with ErrExists.
package output

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

// ErrExists is returned when a destination file is already present
var ErrExists = errors.New("destination already exists")

// LineWriter is a buffered, write-once text file writer.
// It is safe for concurrent use.
type LineWriter struct {
	file      afero.File
	buffer    *bufio.Writer
	mu        sync.Mutex
	lineCount int64
	closed    bool
}

// LineWriterConfig holds configuration for creating a line writer
type LineWriterConfig struct {
	// Filesystem to write to
	Fs afero.Fs
	// Full path of the file to create
	Path string
	// Buffer size in bytes (default: 64KB)
	BufferSize int
}

// NewLineWriter creates the destination file, along with any missing parent
// directories. The file must not exist yet.
func NewLineWriter(cfg LineWriterConfig) (*LineWriter, error) {
	if err := cfg.Fs.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	bufSize := cfg.BufferSize
	if bufSize <= 0 {
		bufSize = 64 * 1024 // 64KB default
	}

	file, err := cfg.Fs.OpenFile(cfg.Path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrExists, cfg.Path)
		}
		return nil, fmt.Errorf("failed to create file %s: %w", cfg.Path, err)
	}

	return &LineWriter{
		file:   file,
		buffer: bufio.NewWriterSize(file, bufSize),
	}, nil
}

// WriteLine writes a single line followed by a newline
func (w *LineWriter) WriteLine(line string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("writer is closed")
	}

	if _, err := w.buffer.WriteString(line); err != nil {
		return fmt.Errorf("failed to write line: %w", err)
	}
	if err := w.buffer.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write line: %w", err)
	}
	w.lineCount++

	return nil
}

// WriteLines writes each line followed by a newline
func (w *LineWriter) WriteLines(lines []string) error {
	for _, line := range lines {
		if err := w.WriteLine(line); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes remaining data and closes the file.
// Always call Close when done writing.
func (w *LineWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.buffer.Flush(); err != nil {
		w.file.Close()
		return fmt.Errorf("buffer flush error: %w", err)
	}

	return w.file.Close()
}

// LineCount returns the number of lines written
func (w *LineWriter) LineCount() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lineCount
}

// Path returns the full path to the output file
func (w *LineWriter) Path() string {
	return w.file.Name()
}

// Package logdir reads transaction log files from a directory.
package logdir

import (
	"bufio"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/willfong/txreplay/internal/config"
	"github.com/willfong/txreplay/internal/ledger"
)

var (
	// ErrInputUnreadable means the input directory itself could not be listed
	ErrInputUnreadable = errors.New("input directory unreadable")

	// ErrFileUnreadable marks a single input file that could not be read
	ErrFileUnreadable = errors.New("log file unreadable")
)

// maxLineSize bounds a single log line
const maxLineSize = 1024 * 1024

// Provider lists and reads the *.log files of one directory
type Provider struct {
	fs  afero.Fs
	dir string
}

// NewProvider creates a provider for dir on fs
func NewProvider(fs afero.Fs, dir string) *Provider {
	return &Provider{fs: fs, dir: dir}
}

// Dir returns the directory being read
func (p *Provider) Dir() string {
	return p.dir
}

// EnsureDir creates the input directory if it does not exist yet
func (p *Provider) EnsureDir() error {
	if err := p.fs.MkdirAll(p.dir, 0755); err != nil {
		return fmt.Errorf("failed to create input directory: %w", err)
	}
	return nil
}

// Files returns every *.log file of the directory in lexical order.
// A file that cannot be read is returned with Err set so the caller can skip
// it; only a directory that cannot be listed fails the whole call.
func (p *Provider) Files() ([]ledger.SourceFile, error) {
	infos, err := afero.ReadDir(p.fs, p.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInputUnreadable, p.dir, err)
	}

	var files []ledger.SourceFile
	for _, info := range infos {
		if info.IsDir() || !strings.HasSuffix(info.Name(), config.LogExtension) {
			continue
		}

		path := filepath.Join(p.dir, info.Name())
		lines, err := p.readLines(path)
		if err != nil {
			files = append(files, ledger.SourceFile{
				Name: path,
				Err:  fmt.Errorf("%w: %w", ErrFileUnreadable, err),
			})
			continue
		}
		files = append(files, ledger.SourceFile{Name: path, Lines: lines})
	}

	return files, nil
}

func (p *Provider) readLines(path string) ([]string, error) {
	f, err := p.fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

package ledger

import (
	"errors"
	"fmt"

	"github.com/willfong/txreplay/internal/parser"
)

// SourceFile is one input file as delivered by an input provider. Err is set
// when the file could not be read; Lines is then ignored.
type SourceFile struct {
	Name  string
	Lines []string
	Err   error
}

// Diagnostic describes one skipped input item. Line is 0 for file-level problems.
type Diagnostic struct {
	Source string
	Line   int
	Err    error
}

func (d Diagnostic) String() string {
	if d.Line == 0 {
		return fmt.Sprintf("%s: %v", d.Source, d.Err)
	}
	return fmt.Sprintf("%s:%d: %v", d.Source, d.Line, d.Err)
}

// IngestReport summarizes an ingestion pass
type IngestReport struct {
	FilesRead    int
	FilesSkipped int
	LinesRead    int
	Ingested     int
	Skipped      int
	Diagnostics  []Diagnostic
}

// Ingest parses every line of every readable file and records the resulting
// entries. Unreadable files and malformed lines are skipped and reported; they
// never stop the pass. The error return is reserved for contract violations
// such as ingesting into a finalized aggregator.
func (a *Aggregator) Ingest(files []SourceFile) (*IngestReport, error) {
	report := &IngestReport{}

	for _, f := range files {
		if f.Err != nil {
			report.FilesSkipped++
			report.Diagnostics = append(report.Diagnostics, Diagnostic{Source: f.Name, Err: f.Err})
			continue
		}
		report.FilesRead++

		for i, line := range f.Lines {
			report.LinesRead++

			entry, err := parser.Parse(line)
			if err != nil {
				if !errors.Is(err, parser.ErrFormat) {
					return report, err
				}
				report.Skipped++
				report.Diagnostics = append(report.Diagnostics, Diagnostic{Source: f.Name, Line: i + 1, Err: err})
				continue
			}

			if err := a.Record(entry); err != nil {
				return report, fmt.Errorf("%s:%d: %w", f.Name, i+1, err)
			}
			report.Ingested++
		}
	}

	return report, nil
}

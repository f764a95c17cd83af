// Package csvout writes extracted records to CSV incrementally.
//
// Rows are appended and flushed after every batch so a crash loses at most
// the page being processed. A partially written file is always a valid CSV
// prefix: header first, then whole rows.
package csvout

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/udisescan/udisescan/internal/logger"
)

// Writer appends record batches to a single CSV file. The header is written
// with the first non-empty batch and never rewritten.
type Writer struct {
	path          string
	header        []string
	file          *os.File
	csv           *csv.Writer
	headerWritten bool
	rowsWritten   int
}

// CleanRegionName normalizes a region name for use in a filename.
func CleanRegionName(name string) string {
	s := strings.ReplaceAll(name, " ", "_")
	s = strings.ReplaceAll(s, "&", "and")
	s = strings.ReplaceAll(s, "/", "_")
	return strings.ToUpper(s)
}

// Filename derives the output file name for a region and phase tag. The
// timestamp makes each run write a fresh file; re-runs append to a new file
// rather than deduplicating against an old one.
func Filename(dir, regionName, tag string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s_%s.csv",
		CleanRegionName(regionName), tag, now.Format("20060102_150405")))
}

// New creates a writer for the given path and fixed column header. The file
// is not created until the first non-empty batch arrives.
func New(path string, header []string) *Writer {
	return &Writer{path: path, header: header}
}

// Path returns the output file path.
func (w *Writer) Path() string { return w.path }

// Rows returns the number of data rows written so far.
func (w *Writer) Rows() int { return w.rowsWritten }

// Append writes a batch of rows, creating the file and header on first use.
// Every call flushes to storage before returning.
func (w *Writer) Append(rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	if !w.headerWritten {
		if err := w.open(); err != nil {
			return err
		}
	}

	for _, row := range rows {
		if len(row) != len(w.header) {
			return fmt.Errorf("row has %d fields, header has %d", len(row), len(w.header))
		}
		if err := w.csv.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("failed to flush rows: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync output file: %w", err)
	}

	w.rowsWritten += len(rows)
	logger.Debug("batch written", "file", w.path, "rows", len(rows), "total_rows", w.rowsWritten)
	return nil
}

func (w *Writer) open() error {
	f, err := os.Create(w.path) //#nosec G304 -- output path is derived from config
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	w.file = f
	w.csv = csv.NewWriter(f)

	if err := w.csv.Write(w.header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("failed to flush header: %w", err)
	}
	w.headerWritten = true
	logger.Info("created output file", "file", w.path, "columns", len(w.header))
	return nil
}

// Close flushes and closes the underlying file, if it was ever created.
func (w *Writer) Close() error {
	if w.file == nil {
		return nil
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		_ = w.file.Close()
		return err
	}
	return w.file.Close()
}

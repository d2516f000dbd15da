/*
PURPOSE:
  Writes per-image outcomes to a CSV file for spreadsheet review.
  Ensures data integrity by flushing writes immediately.

REQUIREMENTS:
  User-specified:
  - Optional CSV export (csv_file / --csv).

  Implementation-discovered:
  - Runs append like the results file, so the header is only written
    when the file is new or empty.
  - Failed images are included with their error so they can be retried by hand.

ARCHITECTURE INTEGRATION:
  - Called by: internal/output.Sink (writer goroutine)
  - Consumes: internal/model.RecognitionResult

ERROR HANDLING:
  - Returns *model.SinkWriteError on file creation or write failure.

IMPLEMENTATION RULES:
  - Use encoding/csv.
  - Flush() after every write (critical for crash resilience).
  - Mutex kept so the writer is safe outside the Sink too.

USAGE:
  w, err := output.NewCSVWriter("results.csv")
  w.Write(result)
  w.Close()

SELF-HEALING INSTRUCTIONS:
  - If CSV format changes, update header and record conversion.

RELATED FILES:
  - internal/model/types.go

MAINTENANCE:
  - Update Write() mapping when RecognitionResult changes.
*/

package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"

	"github.com/daryltucker/ocr-runner/internal/model"
)

var csvHeader = []string{"filename", "status", "completed_at", "duration_s", "text", "error"}

// CSVWriter handles writing results to a CSV file.
type CSVWriter struct {
	path   string
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
}

// NewCSVWriter opens path for appending, writing the header if it is empty.
func NewCSVWriter(path string) (*CSVWriter, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, &model.SinkWriteError{Path: path, Err: err}
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &model.SinkWriteError{Path: path, Err: err}
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			f.Close()
			return nil, &model.SinkWriteError{Path: path, Err: err}
		}
		w.Flush()
	}

	return &CSVWriter{
		path:   path,
		file:   f,
		writer: w,
	}, nil
}

// Write writes a single result to the CSV file.
// It is thread-safe.
func (cw *CSVWriter) Write(r model.RecognitionResult) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	status := "ok"
	if !r.OK() {
		status = "failed"
	}

	record := []string{
		r.Filename,
		status,
		r.CompletedAt.Local().Format(timeLayout),
		fmt.Sprintf("%.4f", r.Duration.Seconds()),
		r.Text,
		r.ErrorString(),
	}

	if err := cw.writer.Write(record); err != nil {
		return &model.SinkWriteError{Path: cw.path, Err: err}
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return &model.SinkWriteError{Path: cw.path, Err: err}
	}
	return nil
}

// Close closes the underlying file.
func (cw *CSVWriter) Close() error {
	cw.writer.Flush()
	return cw.file.Close()
}

/*
PURPOSE:
  Writes per-image outcomes to a JSON Lines file (NDJSON).
  Optimized for machine parsing (jq, scripts that re-run failures).

REQUIREMENTS:
  User-specified:
  - Optional JSON output (jsonl_file / --jsonl).

  Implementation-discovered:
  - JSON Lines is append-friendly, matching the results file semantics.
  - error is a string field; Go errors do not marshal.

ARCHITECTURE INTEGRATION:
  - Called by: internal/output.Sink (writer goroutine)
  - Consumes: internal/model.RecognitionResult

ERROR HANDLING:
  - Returns *model.SinkWriteError on file creation or write failure.

IMPLEMENTATION RULES:
  - Use encoding/json.NewEncoder.
  - Thread-safe.

USAGE:
  w, err := output.NewJSONWriter("results.jsonl")
  w.Write(result)
  w.Close()

SELF-HEALING INSTRUCTIONS:
  - None specific.

RELATED FILES:
  - internal/model/types.go

MAINTENANCE:
  - Keep field names stable; scripts depend on them.
*/

package output

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/daryltucker/ocr-runner/internal/model"
)

type jsonRecord struct {
	Filename    string    `json:"filename"`
	OK          bool      `json:"ok"`
	Text        string    `json:"text,omitempty"`
	Error       string    `json:"error,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
	DurationS   float64   `json:"duration_s"`
}

// JSONWriter handles writing results to a JSON Lines file.
type JSONWriter struct {
	path    string
	file    *os.File
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewJSONWriter opens path for appending.
func NewJSONWriter(path string) (*JSONWriter, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, &model.SinkWriteError{Path: path, Err: err}
	}

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	return &JSONWriter{
		path:    path,
		file:    f,
		encoder: enc,
	}, nil
}

// Write writes a single result as a JSON line.
func (jw *JSONWriter) Write(r model.RecognitionResult) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	rec := jsonRecord{
		Filename:    r.Filename,
		OK:          r.OK(),
		Text:        r.Text,
		Error:       r.ErrorString(),
		CompletedAt: r.CompletedAt,
		DurationS:   r.Duration.Seconds(),
	}
	if err := jw.encoder.Encode(rec); err != nil {
		return &model.SinkWriteError{Path: jw.path, Err: err}
	}
	return nil
}

// Close closes the underlying file.
func (jw *JSONWriter) Close() error {
	return jw.file.Close()
}

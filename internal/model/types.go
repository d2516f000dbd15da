/*
PURPOSE:
  Defines the core data structures used throughout OCR Runner.
  These models represent discovered images, transfer payloads,
  per-image recognition outcomes and the run summary.

REQUIREMENTS:
  User-specified:
  - Record filename, extracted text and completion time per image.
  - Summary holds elapsed time, image count and average per image.

  Implementation-discovered:
  - A failed image is a result with Err set, not a missing value.
  - JSON tags for the JSON Lines export.

ARCHITECTURE INTEGRATION:
  - Used by: internal/discovery, internal/imageprep, internal/recognition,
    internal/engine, internal/output
  - Shared across boundaries, handed off by value.

ERROR HANDLING:
  - None (pure data structs). Error kinds live in errors.go.

IMPLEMENTATION RULES:
  - Keep structs simple and public.
  - Use time.Time and time.Duration for high precision.

USAGE:
  res := model.RecognitionResult{Filename: "a.png", Text: "..."}

SELF-HEALING INSTRUCTIONS:
  - If new fields are needed, update the sink formats and CSV/JSON writers.

RELATED FILES:
  - internal/model/errors.go
  - internal/output/sink.go

MAINTENANCE:
  - Update when adding new per-image metadata.
*/

package model

import (
	"time"
)

// ImageTask is one discovered image. Filename is unique within a run.
type ImageTask struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

// Payload is an encoded image ready for transfer.
type Payload struct {
	Data      string // base64, standard encoding
	MediaType string // e.g. image/jpeg
}

// DataURI renders the payload as an inline data URI.
func (p Payload) DataURI() string {
	return "data:" + p.MediaType + ";base64," + p.Data
}

// RecognitionResult represents the outcome of a single image.
// A non-nil Err means the image produced no text.
type RecognitionResult struct {
	Filename    string        `json:"filename"`
	Text        string        `json:"text,omitempty"`
	Err         error         `json:"-"`
	CompletedAt time.Time     `json:"completed_at"`
	Duration    time.Duration `json:"duration"`
}

// OK reports whether the image yielded text.
func (r RecognitionResult) OK() bool {
	return r.Err == nil
}

// ErrorString returns the error text or "".
func (r RecognitionResult) ErrorString() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// RunSummary is computed once, after every image has been attempted.
type RunSummary struct {
	Started   time.Time     `json:"started"`
	Elapsed   time.Duration `json:"elapsed"`
	Images    int           `json:"images"` // discovered, not successes
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
}

// Average is the elapsed time divided by the discovered image count.
func (s RunSummary) Average() time.Duration {
	if s.Images == 0 {
		return 0
	}
	return s.Elapsed / time.Duration(s.Images)
}

/*
PURPOSE:
  Appends formatted records to the shared results file.
  One dedicated writer goroutine owns every file write.

REQUIREMENTS:
  User-specified:
  - Header with start time, one block per successful image, run summary.
  - Failed images are omitted from the results file.
  - Each append is open-append-close; records never interleave.
  - Existing content is kept; runs append.

  Implementation-discovered:
  - Callers need the write error back, so each request carries a reply channel.
  - Optional JSONL/CSV exports are written by the same goroutine so they
    share the ordering of the results file.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine
  - Consumes: internal/model.RecognitionResult, internal/model.RunSummary

ERROR HANDLING:
  - Write failures are returned as *model.SinkWriteError.

IMPLEMENTATION RULES:
  - One os.File.Write per record.
  - Do not call Append* after Close.

USAGE:
  s := output.NewSink("results.txt")
  defer s.Close()
  s.AppendHeader(time.Now())

SELF-HEALING INSTRUCTIONS:
  - If the block format changes, update sink_test.go expectations.

RELATED FILES:
  - internal/output/csv.go
  - internal/output/json.go

MAINTENANCE:
  - Keep the Chinese field labels; downstream tooling greps for them.
*/

package output

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/daryltucker/ocr-runner/internal/model"
)

const timeLayout = "2006-01-02 15:04:05"

var separator = strings.Repeat("=", 80)

// Exporter receives every attempted image, failures included.
type Exporter interface {
	Write(r model.RecognitionResult) error
	Close() error
}

// FormatHeader renders the start-of-run record.
func FormatHeader(start time.Time) string {
	return fmt.Sprintf("处理开始时间: %s\n%s\n", start.Local().Format(timeLayout), separator)
}

// FormatResult renders one successful image.
func FormatResult(r model.RecognitionResult) string {
	return fmt.Sprintf("文件名: %s\n处理结果: %s\n时间: %s\n%s\n",
		r.Filename, r.Text, r.CompletedAt.Local().Format(timeLayout), separator)
}

// FormatSummary renders the end-of-run record.
func FormatSummary(s model.RunSummary) string {
	return fmt.Sprintf("\n总处理时间: %.2f秒\n处理的图片数量: %d\n平均每张图片处理时间: %.2f秒\n",
		s.Elapsed.Seconds(), s.Images, s.Average().Seconds())
}

type request struct {
	write func() error
	reply chan error
}

// Sink serializes all output writes through one goroutine.
type Sink struct {
	path      string
	exporters []Exporter

	reqs      chan request
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// NewSink starts the writer goroutine for path.
func NewSink(path string, exporters ...Exporter) *Sink {
	s := &Sink{
		path:      path,
		exporters: exporters,
		reqs:      make(chan request),
		done:      make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Sink) run() {
	defer close(s.done)
	for req := range s.reqs {
		req.reply <- req.write()
	}
}

func (s *Sink) do(write func() error) error {
	reply := make(chan error, 1)
	s.reqs <- request{write: write, reply: reply}
	return <-reply
}

// Path is the results file.
func (s *Sink) Path() string { return s.path }

// Append writes one raw record.
func (s *Sink) Append(record string) error {
	return s.do(func() error { return s.appendFile(record) })
}

// AppendHeader writes the start-of-run record.
func (s *Sink) AppendHeader(start time.Time) error {
	return s.Append(FormatHeader(start))
}

// AppendResult writes r when it succeeded and forwards every result to the
// exporters.
func (s *Sink) AppendResult(r model.RecognitionResult) error {
	return s.do(func() error {
		if r.OK() {
			if err := s.appendFile(FormatResult(r)); err != nil {
				return err
			}
		}
		for _, e := range s.exporters {
			if err := e.Write(r); err != nil {
				return err
			}
		}
		return nil
	})
}

// AppendSummary writes the end-of-run record.
func (s *Sink) AppendSummary(sum model.RunSummary) error {
	return s.Append(FormatSummary(sum))
}

func (s *Sink) appendFile(record string) error {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &model.SinkWriteError{Path: s.path, Err: err}
	}
	if _, err := f.WriteString(record); err != nil {
		f.Close()
		return &model.SinkWriteError{Path: s.path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &model.SinkWriteError{Path: s.path, Err: err}
	}
	return nil
}

// Close stops the writer goroutine and closes the exporters.
func (s *Sink) Close() error {
	s.closeOnce.Do(func() {
		close(s.reqs)
		<-s.done
		var errs []error
		for _, e := range s.exporters {
			if err := e.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

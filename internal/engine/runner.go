/*
PURPOSE:
  High-level runner that orchestrates one OCR batch.
  Discover -> header -> bounded fan-out (prepare -> recognize) -> append
  results as they complete -> summary.

REQUIREMENTS:
  User-specified:
  - Every discovered image is attempted exactly once.
  - At most Concurrency images in flight at any instant.
  - One image's failure never stops the others.
  - Summary counts discovered images, not successes.

  Implementation-discovered:
  - Needs to report progress to CLI.
  - A results-file write failure must stop the run visibly.
  - Per-image panics are turned into failures so siblings keep going.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli
  - Uses: internal/discovery, internal/imageprep, internal/recognition,
    internal/output, internal/metrics

ERROR HANDLING:
  - Discovery errors abort before any output write.
  - Per-image errors are logged and carried in RecognitionResult.Err.
  - Sink errors cancel dispatch and are returned.

IMPLEMENTATION RULES:
  - Only the collecting goroutine talks to the Sink and Progress.
  - Workers own their buffers; nothing else is shared.

USAGE:
  summary, err := engine.Run(ctx, cfg)

SELF-HEALING INSTRUCTIONS:
  - If images appear twice in the output, check dispatch.go queueing.

RELATED FILES:
  - internal/engine/dispatch.go
  - internal/output/sink.go

MAINTENANCE:
  - Update when adding new dispatch strategies.
*/

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/daryltucker/ocr-runner/internal/config"
	"github.com/daryltucker/ocr-runner/internal/discovery"
	"github.com/daryltucker/ocr-runner/internal/imageprep"
	"github.com/daryltucker/ocr-runner/internal/metrics"
	"github.com/daryltucker/ocr-runner/internal/model"
	"github.com/daryltucker/ocr-runner/internal/output"
	"github.com/daryltucker/ocr-runner/internal/recognition"
)

// Runner processes one batch.
type Runner struct {
	Config     *config.Config
	Preparer   imageprep.Preparer
	Recognizer recognition.Recognizer
	Metrics    *metrics.Metrics
	// Progress is created per run when nil.
	Progress *output.Progress
}

// New creates a Runner with the preparer selected by cfg.
func New(cfg *config.Config, rec recognition.Recognizer) *Runner {
	return &Runner{
		Config:     cfg,
		Preparer:   imageprep.New(cfg.Optimize, cfg.MaxDimension, cfg.JPEGQuality),
		Recognizer: rec,
		Metrics:    metrics.New(),
	}
}

// Run executes a full batch with the engine named in cfg and writes the
// metrics textfile when configured.
func Run(ctx context.Context, cfg *config.Config) (model.RunSummary, error) {
	rec, err := recognition.New(cfg)
	if err != nil {
		return model.RunSummary{}, err
	}

	r := New(cfg, rec)
	summary, err := r.Run(ctx)

	if cfg.MetricsFile != "" {
		if werr := r.Metrics.WriteTextfile(cfg.MetricsFile); werr != nil {
			output.Logger.Warn("Failed to write metrics file", "path", cfg.MetricsFile, "error", werr)
		}
	}
	return summary, err
}

// Run discovers images and processes all of them.
func (r *Runner) Run(ctx context.Context) (model.RunSummary, error) {
	cfg := r.Config
	log := output.Logger.With("run", uuid.NewString()[:8])
	start := time.Now()

	// 1. Discovery Phase
	tasks, err := discovery.Discover(cfg.ImageDir)
	if err != nil {
		log.Error("Image discovery failed", "dir", cfg.ImageDir, "error", err)
		return model.RunSummary{}, err
	}
	r.Metrics.ImagesDiscovered.Set(float64(len(tasks)))

	if len(tasks) == 0 {
		log.Warn("No images found", "dir", cfg.ImageDir)
		return model.RunSummary{Started: start}, nil
	}
	log.Info("Found images to process",
		"count", len(tasks),
		"dir", cfg.ImageDir,
		"engine", r.Recognizer.Name(),
		"strategy", cfg.Strategy,
		"concurrency", cfg.Concurrency,
		"optimize", cfg.Optimize,
	)

	// 2. Output Setup
	sink, err := r.openSink()
	if err != nil {
		log.Error("Failed to open output", "error", err)
		return model.RunSummary{}, err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			log.Warn("Failed to close exports", "error", err)
		}
	}()

	if err := sink.AppendHeader(start); err != nil {
		log.Error("Failed to write header", "output", cfg.OutputFile, "error", err)
		return model.RunSummary{}, err
	}

	// 3. Execution Phase
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan model.RecognitionResult)
	go func() {
		r.dispatch(runCtx, tasks, results, log)
		close(results)
	}()

	progress := r.Progress
	if progress == nil {
		progress = output.NewProgress(len(tasks))
	}

	summary := model.RunSummary{Started: start, Images: len(tasks)}
	var sinkErr error
	for res := range results {
		progress.Step(res.Filename, res.OK())
		if res.OK() {
			summary.Succeeded++
		} else {
			summary.Failed++
		}

		if sinkErr != nil {
			continue // draining after a fatal write error
		}
		if err := sink.AppendResult(res); err != nil {
			sinkErr = err
			log.Error("Failed to write result, stopping run", "file", res.Filename, "error", err)
			cancel()
		}
	}
	progress.Finish()

	summary.Elapsed = time.Since(start)
	r.Metrics.RunDuration.Set(summary.Elapsed.Seconds())
	r.Metrics.LastRunTimestamp.SetToCurrentTime()

	if sinkErr != nil {
		return summary, sinkErr
	}
	if ctx.Err() != nil {
		log.Warn("Interrupted", "succeeded", summary.Succeeded, "failed", summary.Failed)
	}

	// 4. Summary
	if err := sink.AppendSummary(summary); err != nil {
		log.Error("Failed to write summary", "output", cfg.OutputFile, "error", err)
		return summary, err
	}

	log.Info("Processing completed",
		"output", cfg.OutputFile,
		"images", summary.Images,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"elapsed", summary.Elapsed.Round(time.Millisecond),
		"avg", summary.Average().Round(time.Millisecond),
	)
	return summary, nil
}

func (r *Runner) openSink() (*output.Sink, error) {
	cfg := r.Config

	if dir := filepath.Dir(cfg.OutputFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &model.SinkWriteError{Path: cfg.OutputFile, Err: err}
		}
	}

	var exporters []output.Exporter
	closeAll := func() {
		for _, e := range exporters {
			e.Close()
		}
	}

	if cfg.JSONLFile != "" {
		jw, err := output.NewJSONWriter(cfg.JSONLFile)
		if err != nil {
			return nil, err
		}
		exporters = append(exporters, jw)
	}
	if cfg.CSVFile != "" {
		cw, err := output.NewCSVWriter(cfg.CSVFile)
		if err != nil {
			closeAll()
			return nil, err
		}
		exporters = append(exporters, cw)
	}

	return output.NewSink(cfg.OutputFile, exporters...), nil
}

// process runs one image's pipeline. It always returns a result.
func (r *Runner) process(ctx context.Context, task model.ImageTask, log *slog.Logger) (res model.RecognitionResult) {
	start := time.Now()
	r.Metrics.InFlight.Inc()

	label := metrics.ResultSuccess
	defer func() {
		if p := recover(); p != nil {
			label = metrics.ResultRecognitionFailed
			res.Text = ""
			res.Err = fmt.Errorf("panic while processing %s: %v", task.Filename, p)
		}
		res.Filename = task.Filename
		res.CompletedAt = time.Now()
		res.Duration = res.CompletedAt.Sub(start)

		r.Metrics.InFlight.Dec()
		r.Metrics.ImagesTotal.WithLabelValues(label).Inc()
		r.Metrics.ImageDuration.WithLabelValues(label).Observe(res.Duration.Seconds())
		if res.Err != nil {
			log.Error("Image failed", "file", task.Filename, "stage", label, "error", res.Err)
		} else {
			log.Debug("Image recognized", "file", task.Filename, "duration", res.Duration, "chars", len([]rune(res.Text)))
		}
	}()

	if err := ctx.Err(); err != nil {
		label = metrics.ResultCanceled
		res.Err = err
		return res
	}

	payload, err := r.Preparer.Prepare(task)
	if err != nil {
		label = metrics.ResultPreparationFailed
		res.Err = err
		return res
	}
	r.Metrics.PayloadBytes.Observe(float64(len(payload.Data)))

	text, err := r.Recognizer.Recognize(ctx, task.Filename, payload)
	if err != nil {
		label = metrics.ResultRecognitionFailed
		res.Err = err
		return res
	}

	res.Text = text
	return res
}

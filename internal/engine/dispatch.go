package engine

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/daryltucker/ocr-runner/internal/config"
	"github.com/daryltucker/ocr-runner/internal/model"
)

// dispatch sends exactly one result per task on results, never running more
// than Config.Concurrency pipelines at once.
func (r *Runner) dispatch(ctx context.Context, tasks []model.ImageTask, results chan<- model.RecognitionResult, log *slog.Logger) {
	n := r.Config.Concurrency
	if n < 1 {
		n = 1
	}
	if n > len(tasks) {
		n = len(tasks)
	}

	switch r.Config.Strategy {
	case config.StrategyChunked:
		r.dispatchChunked(ctx, tasks, n, results, log)
	default:
		r.dispatchPool(ctx, tasks, n, results, log)
	}
}

// dispatchPool runs n workers draining a shared queue.
func (r *Runner) dispatchPool(ctx context.Context, tasks []model.ImageTask, n int, results chan<- model.RecognitionResult, log *slog.Logger) {
	queue := make(chan model.ImageTask, len(tasks))
	for _, t := range tasks {
		queue <- t
	}
	close(queue)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range queue {
				results <- r.process(ctx, task, log)
			}
		}()
	}
	wg.Wait()
}

// dispatchChunked processes consecutive chunks of n tasks; a chunk runs fully
// in parallel and the next one starts only after every member finished.
func (r *Runner) dispatchChunked(ctx context.Context, tasks []model.ImageTask, n int, results chan<- model.RecognitionResult, log *slog.Logger) {
	for start := 0; start < len(tasks); start += n {
		end := start + n
		if end > len(tasks) {
			end = len(tasks)
		}

		var g errgroup.Group
		for _, task := range tasks[start:end] {
			g.Go(func() error {
				results <- r.process(ctx, task, log)
				return nil
			})
		}
		_ = g.Wait() // per-image errors travel in the result
		log.Debug("Chunk finished", "from", start+1, "to", end, "total", len(tasks))
	}
}

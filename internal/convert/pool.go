package convert

import (
	"context"
	"fmt"
	"sync"
	"time"

	"webpify/internal/codec"
	"webpify/internal/config"
)

// Run feeds every source file through the conversion pipeline with at
// most cfg.MaxWorkers tasks in flight, folds outcomes into the aggregate
// report as they complete, and mirrors each outcome onto updates for the
// renderer. The pool always drains: every submitted file yields exactly
// one outcome, even when a task panics.
func Run(ctx context.Context, cfg config.Config, cd codec.Codec, files []SourceFile, updates chan<- ProgressUpdate) (Report, error) {
	agg := newAggregator(time.Now())

	jobs := make(chan SourceFile)
	results := make(chan Outcome)

	var wg sync.WaitGroup
	wg.Add(cfg.MaxWorkers)
	for i := 0; i < cfg.MaxWorkers; i++ {
		go func() {
			defer wg.Done()
			for src := range jobs {
				results <- runGuarded(cfg, cd, src)
			}
		}()
	}

	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for out := range results {
			agg.Add(out)
			if updates != nil {
				update := ProgressUpdate{
					ProcessedDelta: 1,
					OriginalDelta:  out.Sizes.Original,
					OutputDelta:    out.Sizes.Output(),
					Line:           out.Message,
				}
				if !out.Succeeded() {
					update.FailedDelta = 1
				}
				updates <- update
			}
		}
	}()

	producerErr := make(chan error, 1)
	go func() {
		defer close(jobs)
		for _, src := range files {
			select {
			case jobs <- src:
			case <-ctx.Done():
				producerErr <- ctx.Err()
				return
			}
		}
		producerErr <- nil
	}()

	wg.Wait()
	close(results)
	<-collectorDone

	if err := <-producerErr; err != nil {
		return agg.Report(), err
	}
	return agg.Report(), nil
}

// runGuarded isolates one task: a panic inside the pipeline becomes a
// failure outcome for that file instead of taking down the run.
func runGuarded(cfg config.Config, cd codec.Codec, src SourceFile) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{
				FileName: src.Name,
				Status:   StatusFailure,
				Message:  fmt.Sprintf("worker crashed: %v", r),
				Sizes:    Sizes{Original: src.Size},
			}
		}
	}()
	return newTask(cfg, cd, src).run()
}

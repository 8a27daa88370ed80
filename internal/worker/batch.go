package worker

import (
	"context"

	"github.com/settlewatch/settlewatch/internal/model"
)

// PageProcessor fetches and fully processes one listings page, including its
// incremental upsert. Implemented by the pipeline.
type PageProcessor interface {
	ProcessPage(ctx context.Context, pageURL string) (model.PageStats, error)
}

// PageJob runs one page through the processor.
type PageJob struct {
	URL       string
	Processor PageProcessor
}

// Execute implements Job.
func (j *PageJob) Execute(ctx context.Context) Result {
	stats, err := j.Processor.ProcessPage(ctx, j.URL)
	return &PageResult{URL: j.URL, Stats: stats, Err: err}
}

// PageResult is the outcome of one page job.
type PageResult struct {
	URL   string
	Stats model.PageStats
	Err   error
}

// GetError implements Result.
func (r *PageResult) GetError() error { return r.Err }

// ProcessPages runs every page URL through the processor with bounded
// concurrency and returns all results.
func ProcessPages(ctx context.Context, processor PageProcessor, urls []string, concurrency int) []*PageResult {
	if len(urls) == 0 {
		return nil
	}
	if concurrency > len(urls) {
		concurrency = len(urls)
	}

	pool := NewPool(concurrency)
	pool.Start()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, u := range urls {
			pool.Submit(&PageJob{URL: u, Processor: processor})
		}
	}()

	// Cancel the pool if the run context ends first.
	go func() {
		select {
		case <-ctx.Done():
			pool.Shutdown()
		case <-done:
		}
	}()

	<-done
	raw := pool.Wait()

	results := make([]*PageResult, 0, len(raw))
	for _, r := range raw {
		if pr, ok := r.(*PageResult); ok {
			results = append(results, pr)
		}
	}
	return results
}

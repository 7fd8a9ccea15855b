package sim

import (
	"context"
	"runtime"
	"sync"
)

// Batch runs configurations on a bounded number of workers.
type Batch struct {
	Workers int
}

// NewBatch returns a batch using one worker per CPU when workers < 1.
func NewBatch(workers int) *Batch {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &Batch{Workers: workers}
}

// Run returns results and errors indexed like cfgs.
func (b *Batch) Run(ctx context.Context, cfgs []Config) ([]*Result, []error) {
	results := make([]*Result, len(cfgs))
	errs := make([]error, len(cfgs))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(b.Workers, len(cfgs)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx], errs[idx] = Run(ctx, cfgs[idx])
			}
		}()
	}
	for i := range cfgs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results, errs
}

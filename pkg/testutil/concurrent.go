package testutil

import (
	"errors"
	"sync"
	"sync/atomic"

	dErrors "mcpgate/pkg/domain-errors"
	"mcpgate/pkg/platform/sentinel"
)

// ConcurrentResult tallies outcomes of operations fired in parallel.
type ConcurrentResult struct {
	Successes int32
	Errors    int32
	Conflicts int32
	NotFounds int32
	Rejected  int32
}

// Total returns the total number of operations executed.
func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.Errors + r.Conflicts + r.NotFounds + r.Rejected
}

// RunConcurrent runs fn in n goroutines and sorts the outcomes. Store
// sentinels and domain not-found codes count as NotFounds; admission limit
// codes count as Rejected.
func RunConcurrent(n int, fn func(idx int) error) *ConcurrentResult {
	var wg sync.WaitGroup
	var successes, errs, conflicts, notFounds, rejected atomic.Int32

	for i := range n {
		wg.Go(func() {
			err := fn(i)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicts.Add(1)
			case errors.Is(err, sentinel.ErrNotFound), dErrors.HasCode(err, dErrors.CodeNotFound):
				notFounds.Add(1)
			case dErrors.KindOf(dErrors.CodeOf(err)) == dErrors.KindLimitExceeded:
				rejected.Add(1)
			default:
				errs.Add(1)
			}
		})
	}
	wg.Wait()

	return &ConcurrentResult{
		Successes: successes.Load(),
		Errors:    errs.Load(),
		Conflicts: conflicts.Load(),
		NotFounds: notFounds.Load(),
		Rejected:  rejected.Load(),
	}
}

// RunConcurrentCollect runs fn in n goroutines and returns every error.
func RunConcurrentCollect(n int, fn func(idx int) error) (successes int32, errs []error) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var successCount atomic.Int32
	collected := make([]error, 0)

	for i := range n {
		wg.Go(func() {
			if err := fn(i); err != nil {
				mu.Lock()
				collected = append(collected, err)
				mu.Unlock()
				return
			}
			successCount.Add(1)
		})
	}
	wg.Wait()
	return successCount.Load(), collected
}

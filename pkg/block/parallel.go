package block

import (
	"runtime"
	"sync"
)

// parallelEach runs fn(i) for i in [0, n) across a bounded worker pool,
// the same strided-partition pattern the miner uses to split nonce
// search across cores. Returns the first error observed, if any, after
// every worker has finished.
func parallelEach(n int, fn func(i int) error) error {
	if n == 0 {
		return nil
	}
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}

	errs := make([]error, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(start int) {
			defer wg.Done()
			for i := start; i < n; i += workers {
				if err := fn(i); err != nil {
					errs[start] = err
					return
				}
			}
		}(w)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

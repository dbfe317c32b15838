package sweep

import "sync"

// sequentialCutoff is the pass size below which goroutine fan-out costs
// more than it saves.
const sequentialCutoff = 1000

// parallelFor splits [0, n) into one contiguous chunk per worker and runs
// fn over the chunks concurrently, returning when all complete. fn must
// confine its writes to state addressed by its own indices; the sweep
// passes satisfy this by construction (each pixel owns disjoint output
// slots), which keeps the fan-out lock-free.
func parallelFor(n, workers int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if n < sequentialCutoff || workers <= 1 {
		fn(0, n)
		return
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for workerID := 0; workerID < workers; workerID++ {
		start := workerID * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= n {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(start, end)
	}
	wg.Wait()
}

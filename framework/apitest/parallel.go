package apitest

import "sync"

// TestGroup is a named top-level test that RunParallel may hand to any of its workers.
type TestGroup struct {
	Name   string
	Action func(*T)
}

// RunParallel runs each group as a top-level test, distributing the groups across the given number
// of workers. Every worker has its own root scope, so cleanups scheduled with Defer on that root run
// once when the worker has no more groups to run. Tests within a group run sequentially in one
// worker.
//
// Results from all workers are merged. Their order reflects completion order, which is not
// deterministic when there is more than one worker.
func RunParallel(config TestConfiguration, workers int, groups []TestGroup) Results {
	if workers < 1 {
		workers = 1
	}
	if len(groups) > 0 && workers > len(groups) {
		workers = len(groups)
	}
	env := newEnvironment(config)

	queue := make(chan TestGroup, len(groups))
	for _, g := range groups {
		queue <- g
	}
	close(queue)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		root := env.newRoot(i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			root.run(func(t *T) {
				for g := range queue {
					t.Run(g.Name, g.Action)
				}
			})
		}()
	}
	wg.Wait()

	return env.snapshot()
}

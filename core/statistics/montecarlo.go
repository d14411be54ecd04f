package statistics

import (
	"context"
	"runtime"
	"sync"
)

// SimulationFunc represents a function that generates a single simulation result
type SimulationFunc func() int

// MonteCarloSimulation runs simFunc up to iterations times across worker
// goroutines and summarizes the results. If ctx ends first, the results
// gathered so far are summarized; nil means none were.
func MonteCarloSimulation(ctx context.Context, simFunc SimulationFunc, iterations int) *Result {
	if iterations <= 0 {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	numWorkers := runtime.NumCPU() - 1
	if numWorkers < 1 {
		numWorkers = 1
	}
	if numWorkers > iterations {
		numWorkers = iterations
	}

	var wg sync.WaitGroup
	resultChan := make(chan int, numWorkers)

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case resultChan <- simFunc():
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]int, 0, iterations)
	for len(results) < iterations {
		select {
		case result, ok := <-resultChan:
			if !ok {
				return Calculate(results)
			}
			results = append(results, result)
		case <-ctx.Done():
			return Calculate(results)
		}
	}

	return Calculate(results)
}

package dsl

import (
	"context"

	"github.com/dryack/dndice/core/statistics"
)

// Simulation adapts expr to the statistics package. src is shared by every
// simulation worker and must be safe for concurrent use.
func Simulation(expr Expr, src Source) statistics.SimulationFunc {
	return func() int {
		return Roll(expr, src).Value
	}
}

// Simulate rolls expr up to iterations times and summarizes the distribution.
// It stops early when ctx is done and returns nil if nothing was rolled.
func Simulate(ctx context.Context, expr Expr, src Source, iterations int) *statistics.Result {
	return statistics.MonteCarloSimulation(ctx, Simulation(expr, src), iterations)
}

/*
Package batchflow runs a chain of per-element transformations over a fixed
set of inputs, either sequentially on the caller or concurrently on a bounded
worker pool with an aggregate timeout.

Execution (pkg/scheduling):
  - pipeline: lazy, immutable stage chains and the execution engine
  - workerpool: fixed-size worker pool with graceful and immediate shutdown

Support:
  - config: YAML, .env, environment and flag configuration
  - logger: zerolog construction and field names
  - metrics: Prometheus instrumentation for pipelines and pools
  - common/errors, common/validation, common/context: shared error types,
    argument checks and context helpers

Example usage:

	import (
		"github.com/vnykmshr/batchflow/pkg/scheduling/pipeline"
		"github.com/vnykmshr/batchflow/pkg/scheduling/workerpool"
	)

	pool := workerpool.NewExecutor(8)
	defer func() { <-pool.Shutdown() }()

	p, err := pipeline.Map(pipeline.From(urls), fetch).
		WithPool(pool).
		WithTimeout(time.Minute)
	if err != nil {
		return err
	}
	pages, err := p.Execute(ctx)

The batchflow command (cmd/batchflow) runs the engine over the lines of a
file or stdin.
*/
package batchflow

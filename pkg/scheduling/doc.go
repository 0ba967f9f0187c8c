/*
Package scheduling groups the execution primitives of batchflow:

  - pipeline: lazy, immutable per-element stage chains over a fixed input set
  - workerpool: fixed worker pool the pipeline dispatches element tasks to

Worker Pool:

	pool := workerpool.NewExecutor(4)
	defer func() { <-pool.Shutdown() }()

	pool.Submit(workerpool.TaskFunc(func(ctx context.Context) error {
		// Do work
		return nil
	}))

Pipeline:

	p := pipeline.Map(pipeline.From(ids), fetch)
	p = pipeline.Map(p, enrich)

	p, err := p.WithPool(pool).WithTimeout(30 * time.Second)
	if err != nil {
		return err
	}
	records, err := p.Execute(ctx)

Without a pool Execute runs every element in input order on the calling
goroutine. With one, results arrive in completion order and the execution
is bounded by the pipeline timeout.

Both packages are safe for concurrent use and honor context cancellation.
*/
package scheduling

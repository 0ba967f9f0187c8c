/*
Package pipeline implements lazily evaluated batch pipelines over a fixed
set of inputs.

A Pipeline holds the inputs and a list of stages. Building one does no
work: each stage appended with Map, Transform, Inspect or Consume returns
a new Pipeline and leaves the receiver untouched, so several pipelines can
be derived from the same parent. Every input becomes one element task that
replays all stages in order when Execute is called.

	words := pipeline.From([]string{"a", "b", "c"})
	upper := pipeline.Transform(words, strings.ToUpper)
	out, err := upper.Execute(ctx) // ["A", "B", "C"]

Sequential execution:

Without a pool, element tasks run on the calling goroutine in input order.
The first failing element aborts the call with a *TaskError and nothing else
runs. There is no timeout; canceling ctx aborts between elements with an
*InterruptedError.

Pooled execution:

WithPool attaches any Executor, usually a workerpool.Pool created with
workerpool.NewExecutor. Element tasks are dispatched concurrently and
results are returned in completion order, not input order.

	pool := workerpool.NewExecutor(8)
	defer func() { <-pool.Shutdown() }()

	p, err := pipeline.Map(pipeline.From(urls), fetch).
		WithPool(pool).
		WithTimeout(30 * time.Second)
	if err != nil {
		return err // WithTimeout needs a pool and a positive duration
	}
	pages, err := p.Execute(ctx)

The whole call is bounded by the timeout (DefaultTimeout unless set). Execute
returns:

  - *TimeoutError when tasks are still outstanding at the deadline
  - *InterruptedError when ctx ends first
  - *TaskError for the first element whose stage failed or panicked

On timeout and interruption the engine calls ShutdownNow on the pool: queued
tasks are dropped and running tasks see their context canceled. Stages that
ignore their context may keep running after Execute returned. Callers that
want to reuse a pool after such an error must create a new one. A
*TaskError only cancels the remaining tasks of that call; the pool stays
usable.

Observability:

WithName, WithLogger, WithMetrics and WithTracer configure the zerolog
logger, the Prometheus registry from package metrics and the OpenTelemetry
tracer used for each Execute. Every execution gets an ID that appears in
its log lines and span.
*/
package pipeline

/*
Package workerpool provides the fixed-size worker pool that batchflow pipelines
execute their element tasks on.

A pool manages a fixed number of worker goroutines fed from a bounded queue.
It can be used on its own or attached to a pipeline, which only needs the
Executor subset of the Pool interface (SubmitWithContext and ShutdownNow).

Basic usage:

	pool := workerpool.New(4, 100) // 4 workers, queue size 100
	defer func() { <-pool.Shutdown() }()

	task := workerpool.TaskFunc(func(ctx context.Context) error {
		// Do work
		return nil
	})

	if err := pool.Submit(task); err != nil {
		log.Printf("Failed to submit: %v", err)
	}

	result := <-pool.Results()
	if result.Error != nil {
		log.Printf("Task failed: %v", result.Error)
	}

Executors:

Pools that only run work and never have their Results() read should be
created with NewExecutor, or with Config.DiscardResults set:

	pool := workerpool.NewExecutor(runtime.NumCPU())

Configuration:

	config := workerpool.Config{
		WorkerCount:     8,
		QueueSize:       1000,
		TaskTimeout:     30 * time.Second,
		BufferedResults: true,
		PanicHandler: func(task workerpool.Task, recovered interface{}) {
			log.Printf("Task panicked: %v", recovered)
		},
		OnTaskComplete: func(workerID int, result workerpool.Result) {
			log.Printf("Worker %d completed task in %v", workerID, result.Duration)
		},
	}
	pool := workerpool.NewWithConfig(config)

NewWithConfig and New panic on invalid configuration; NewSafe and
Config.Validate report a *errors.ValidationError instead.

Queue sizes:

	pool := workerpool.New(4, 100) // bounded queue
	pool := workerpool.New(4, 0)   // hand-off: Submit waits for a free worker

Shutdown:

The pool has three ways to stop:

	<-pool.Shutdown()                      // run everything already queued
	<-pool.ShutdownNow()                   // drop the queue, cancel running tasks
	<-pool.ShutdownWithTimeout(5 * time.Second)

ShutdownNow does not preempt a running task: it cancels the task's context and
the task is expected to return. Queued tasks that are dropped are counted in
TotalDiscarded, and tasks implementing Discarder are told about it.

Metrics:

MetricsPool wraps any pool with Prometheus instrumentation from the metrics
package:

	pool := workerpool.NewWithMetrics(4, "ingest")

All pool operations are safe for concurrent use from multiple goroutines.
*/
package workerpool

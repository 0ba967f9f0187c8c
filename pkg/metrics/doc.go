// Package metrics provides Prometheus instrumentation for batchflow components.
//
// # Overview
//
// The metrics package instruments:
//   - Pipeline executions (outcome, element results, duration, outstanding tasks)
//   - Worker pools (pool size, active workers, queued tasks, task durations)
//
// # Quick Start
//
//	registry := metrics.NewRegistry(prometheus.NewRegistry())
//
//	out, err := pipeline.From(items).
//		WithMetrics(registry).
//		WithName("import").
//		Execute(ctx)
//
//	pool := workerpool.NewWithMetrics(5, "import_pool")
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":8080", nil))
//
// # Available Metrics
//
// ## Pipeline Metrics
//
//   - batchflow_pipeline_executions_total{pipeline,outcome}: executions by terminal state
//     (completed, failed, timed_out, interrupted)
//   - batchflow_pipeline_elements_total{pipeline,result}: element tasks by result
//     (completed, failed)
//   - batchflow_pipeline_execution_duration_seconds{pipeline,mode}: mode is sequential or pooled
//   - batchflow_pipeline_outstanding_tasks{pipeline}: unfinished tasks of the last aborted run
//
// ## Worker Pool Metrics
//
//   - batchflow_workerpool_tasks_executed_total
//   - batchflow_workerpool_tasks_completed_total
//   - batchflow_workerpool_tasks_failed_total
//   - batchflow_workerpool_task_duration_seconds
//   - batchflow_workerpool_task_queue_seconds
//   - batchflow_workerpool_size
//   - batchflow_workerpool_active_workers
//   - batchflow_workerpool_queued_tasks
//
// # Custom Registry
//
// Use NewRegistryFromConfig to change the namespace or add constant labels:
//
//	registry := metrics.NewRegistryFromConfig(metrics.Config{
//		Enabled:   true,
//		Registry:  prometheus.NewRegistry(),
//		Namespace: "myapp",
//		Labels:    prometheus.Labels{"version": "1.0"},
//	})
//
// WriteText renders any Gatherer in the text exposition format, for
// processes that print metrics instead of serving them.
//
// # Runtime Control
//
// Components implementing Instrumentable support runtime control:
//
//	pool.DisableMetrics()
//	pool.EnableMetrics(config)
//	enabled := pool.MetricsEnabled()
package metrics

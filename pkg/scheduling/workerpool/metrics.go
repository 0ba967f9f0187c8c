package workerpool

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vnykmshr/batchflow/pkg/metrics"
)

// MetricsPool wraps a worker Pool with Prometheus metrics collection.
type MetricsPool struct {
	pool     Pool
	name     string
	registry atomic.Pointer[metrics.Registry]
	enabled  atomic.Bool
}

var _ metrics.Instrumentable = (*MetricsPool)(nil)

// NewWithMetrics creates a new worker pool with metrics enabled.
// Each call registers into its own Prometheus registry to avoid collisions.
func NewWithMetrics(workerCount int, name string) *MetricsPool {
	metricsConfig := metrics.DefaultConfig()
	metricsConfig.Registry = prometheus.NewRegistry()

	return NewWithConfigAndMetrics(Config{
		WorkerCount: workerCount,
		QueueSize:   0, // Hand-off by default
	}, name, metricsConfig)
}

// NewWithConfigAndMetrics creates a new worker pool with custom config and metrics.
// The returned pool records nothing until enabled when metricsConfig.Enabled is false.
func NewWithConfigAndMetrics(config Config, name string, metricsConfig metrics.Config) *MetricsPool {
	mp := Instrument(NewWithConfig(config), name, nil)
	_ = mp.EnableMetrics(metricsConfig)
	return mp
}

// Instrument wraps an existing pool, recording into registry, or into
// metrics.DefaultRegistry when registry is nil. Tasks submitted through the
// wrapper are measured; tasks submitted to pool directly are not.
func Instrument(pool Pool, name string, registry *metrics.Registry) *MetricsPool {
	if registry == nil {
		registry = metrics.DefaultRegistry
	}

	mp := &MetricsPool{
		pool: pool,
		name: name,
	}
	mp.registry.Store(registry)
	mp.enabled.Store(true)
	mp.updateMetrics()
	return mp
}

// Name returns the pool_name label value.
func (mp *MetricsPool) Name() string {
	return mp.name
}

// updateMetrics updates the current state metrics.
func (mp *MetricsPool) updateMetrics() {
	if !mp.enabled.Load() {
		return
	}

	reg := mp.registry.Load()
	reg.WorkerPoolSize.WithLabelValues(mp.name).Set(float64(mp.pool.Size()))
	reg.WorkerPoolActive.WithLabelValues(mp.name).Set(float64(mp.pool.ActiveWorkers()))
	reg.WorkerPoolQueued.WithLabelValues(mp.name).Set(float64(mp.pool.QueueSize()))
}

// Submit adds a task to the pool for execution.
func (mp *MetricsPool) Submit(task Task) error {
	return mp.SubmitWithContext(context.Background(), task)
}

// SubmitWithTimeout submits a task with a timeout for queuing.
func (mp *MetricsPool) SubmitWithTimeout(task Task, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return mp.SubmitWithContext(ctx, task)
}

// SubmitWithContext submits a task with a context for cancellation.
func (mp *MetricsPool) SubmitWithContext(ctx context.Context, task Task) error {
	if task == nil {
		return mp.pool.SubmitWithContext(ctx, nil)
	}

	wrapped := &metricsTask{
		original:   task,
		pool:       mp,
		submitTime: time.Now(),
	}

	err := mp.pool.SubmitWithContext(ctx, wrapped)
	mp.updateMetrics()

	return err
}

// metricsTask wraps a Task to collect execution metrics.
type metricsTask struct {
	original   Task
	pool       *MetricsPool
	submitTime time.Time
}

// Execute runs the original task and records metrics.
func (mt *metricsTask) Execute(ctx context.Context) error {
	start := time.Now()
	enabled := mt.pool.enabled.Load()
	reg := mt.pool.registry.Load()

	if enabled {
		reg.TaskQueueDuration.WithLabelValues(mt.pool.name).Observe(start.Sub(mt.submitTime).Seconds())
	}

	err := mt.original.Execute(ctx)

	if enabled {
		reg.TaskExecutionDuration.WithLabelValues(mt.pool.name).Observe(time.Since(start).Seconds())
		reg.TasksExecuted.WithLabelValues(mt.pool.name).Inc()

		if err != nil {
			reg.TasksFailed.WithLabelValues(mt.pool.name).Inc()
		} else {
			reg.TasksCompleted.WithLabelValues(mt.pool.name).Inc()
		}

		mt.pool.updateMetrics()
	}

	return err
}

// Discard forwards the drop notification to the wrapped task.
func (mt *metricsTask) Discard(err error) {
	if d, ok := mt.original.(Discarder); ok {
		d.Discard(err)
	}
}

// Results returns a channel of task results. Result.Task holds the
// instrumented wrapper; use Unwrap to get the submitted task back.
func (mp *MetricsPool) Results() <-chan Result {
	return mp.pool.Results()
}

// Unwrap returns the task originally submitted through a MetricsPool, or
// task itself when it was not wrapped.
func Unwrap(task Task) Task {
	if mt, ok := task.(*metricsTask); ok {
		return mt.original
	}
	return task
}

// Shutdown initiates graceful shutdown of the pool.
func (mp *MetricsPool) Shutdown() <-chan struct{} {
	return mp.pool.Shutdown()
}

// ShutdownNow stops the pool without waiting for queued work.
func (mp *MetricsPool) ShutdownNow() <-chan struct{} {
	return mp.pool.ShutdownNow()
}

// ShutdownWithTimeout shuts down the pool with a timeout.
func (mp *MetricsPool) ShutdownWithTimeout(timeout time.Duration) <-chan struct{} {
	return mp.pool.ShutdownWithTimeout(timeout)
}

// IsShutdown reports whether the pool stopped accepting tasks.
func (mp *MetricsPool) IsShutdown() bool {
	return mp.pool.IsShutdown()
}

// Size returns the current number of workers.
func (mp *MetricsPool) Size() int {
	return mp.pool.Size()
}

// QueueSize returns the current number of queued tasks.
func (mp *MetricsPool) QueueSize() int {
	queueSize := mp.pool.QueueSize()

	if mp.enabled.Load() {
		mp.registry.Load().WorkerPoolQueued.WithLabelValues(mp.name).Set(float64(queueSize))
	}

	return queueSize
}

// ActiveWorkers returns the number of workers currently executing tasks.
func (mp *MetricsPool) ActiveWorkers() int {
	activeWorkers := mp.pool.ActiveWorkers()

	if mp.enabled.Load() {
		mp.registry.Load().WorkerPoolActive.WithLabelValues(mp.name).Set(float64(activeWorkers))
	}

	return activeWorkers
}

// TotalSubmitted returns the total number of tasks submitted.
func (mp *MetricsPool) TotalSubmitted() int64 {
	return mp.pool.TotalSubmitted()
}

// TotalCompleted returns the total number of tasks completed.
func (mp *MetricsPool) TotalCompleted() int64 {
	return mp.pool.TotalCompleted()
}

// TotalDiscarded returns the number of accepted tasks dropped without running.
func (mp *MetricsPool) TotalDiscarded() int64 {
	return mp.pool.TotalDiscarded()
}

// EnableMetrics enables metrics collection.
func (mp *MetricsPool) EnableMetrics(config metrics.Config) error {
	if config.Custom() {
		mp.registry.Store(metrics.NewRegistryFromConfig(config))
	}
	mp.enabled.Store(config.Enabled)
	mp.updateMetrics()

	return nil
}

// DisableMetrics disables metrics collection.
func (mp *MetricsPool) DisableMetrics() {
	mp.enabled.Store(false)
}

// MetricsEnabled returns true if metrics are currently enabled.
func (mp *MetricsPool) MetricsEnabled() bool {
	return mp.enabled.Load()
}

package workerpool

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	bfcontext "github.com/vnykmshr/batchflow/pkg/common/context"
	bferrors "github.com/vnykmshr/batchflow/pkg/common/errors"
	"github.com/vnykmshr/batchflow/pkg/common/validation"
)

// Submit adds a task to the pool for execution.
// The task will be executed with context.Background().
// Use SubmitWithContext to provide a custom context.
func (p *workerPool) Submit(task Task) error {
	return p.SubmitWithContext(context.Background(), task)
}

// SubmitWithTimeout submits a task, giving up if it cannot be queued in time.
func (p *workerPool) SubmitWithTimeout(task Task, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return p.SubmitWithContext(ctx, task)
}

// SubmitWithContext adds a task to the pool for execution with the given context.
// The context is passed to the task's Execute method, enabling timeout and
// cancellation propagation. If the pool has a TaskTimeout configured, the
// effective timeout will be the minimum of the context deadline and TaskTimeout.
func (p *workerPool) SubmitWithContext(ctx context.Context, task Task) error {
	if task == nil {
		return validation.ValidateNotNil("workerpool", "task", nil)
	}

	if ctx == nil {
		ctx = context.Background()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.isShutdown {
		return fmt.Errorf("cannot submit task: worker pool has been shut down: %w", bferrors.ErrClosed)
	}

	// Check if context is already canceled before attempting to queue
	// This ensures deterministic behavior for pre-canceled contexts
	select {
	case <-ctx.Done():
		return fmt.Errorf("cannot submit task: context canceled: %w", ctx.Err())
	default:
	}

	twc := taskWithContext{
		task:       task,
		ctx:        ctx,
		submitTime: time.Now(),
	}

	select {
	case p.taskQueue <- twc:
		p.totalSubmitted.Add(1)
		return nil
	case <-p.stopCh:
		return fmt.Errorf("cannot submit task: worker pool has been shut down: %w", bferrors.ErrClosed)
	case <-ctx.Done():
		if bfcontext.IsTimedOut(ctx) {
			return fmt.Errorf("cannot submit task: queue full until deadline: %w: %w", bferrors.ErrCapacityExceeded, ctx.Err())
		}
		return fmt.Errorf("cannot submit task: context canceled: %w", ctx.Err())
	}
}

// Results returns a channel of task results.
func (p *workerPool) Results() <-chan Result {
	return p.resultQueue
}

// Shutdown initiates a graceful shutdown of the pool.
func (p *workerPool) Shutdown() <-chan struct{} {
	p.shutdownOnce.Do(func() {
		// Pending submits hold RLock; once Lock is acquired none can enqueue.
		p.mu.Lock()
		p.isShutdown = true
		p.mu.Unlock()

		close(p.shutdownCh)
	})

	return p.done
}

// ShutdownNow stops the pool without waiting for queued work.
func (p *workerPool) ShutdownNow() <-chan struct{} {
	p.stopOnce.Do(func() {
		// stopCh first so a Submit blocked on a full queue releases RLock.
		close(p.stopCh)
		p.cancelBase()
	})
	return p.Shutdown()
}

// ShutdownWithTimeout shuts down gracefully, escalating to ShutdownNow.
func (p *workerPool) ShutdownWithTimeout(timeout time.Duration) <-chan struct{} {
	done := p.Shutdown()

	go func() {
		timer := time.NewTimer(timeout)
		defer timer.Stop()

		select {
		case <-done:
		case <-timer.C:
			p.ShutdownNow()
		}
	}()

	return done
}

// IsShutdown reports whether the pool stopped accepting tasks.
func (p *workerPool) IsShutdown() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.isShutdown
}

// Size returns the number of workers in the pool.
func (p *workerPool) Size() int {
	return p.config.WorkerCount
}

// QueueSize returns the current number of queued tasks waiting for execution.
func (p *workerPool) QueueSize() int {
	return len(p.taskQueue)
}

// ActiveWorkers returns the number of workers currently executing tasks.
func (p *workerPool) ActiveWorkers() int {
	return int(p.activeWorkers.Load())
}

// TotalSubmitted returns the total number of tasks submitted to the pool.
func (p *workerPool) TotalSubmitted() int64 {
	return p.totalSubmitted.Load()
}

// TotalCompleted returns the total number of tasks completed by the pool.
func (p *workerPool) TotalCompleted() int64 {
	return p.totalCompleted.Load()
}

// TotalDiscarded returns the number of accepted tasks dropped without running.
func (p *workerPool) TotalDiscarded() int64 {
	return p.totalDiscarded.Load()
}

// finalize waits for all workers, drops whatever is still queued and
// releases the pool's channels.
func (p *workerPool) finalize() {
	// shutdownCh closes only after isShutdown is set under Lock, so no
	// Submit can enqueue past this point.
	<-p.shutdownCh
	p.workerWg.Wait()

drain:
	for {
		select {
		case twc := <-p.taskQueue:
			p.discard(twc)
		default:
			break drain
		}
	}

	p.cancelBase()
	close(p.resultQueue)
	close(p.done)
}

// discard drops a queued task and notifies it when it cares.
func (p *workerPool) discard(twc taskWithContext) {
	p.totalDiscarded.Add(1)
	if d, ok := twc.task.(Discarder); ok {
		d.Discard(fmt.Errorf("task discarded: worker pool has been shut down: %w", bferrors.ErrClosed))
	}
}

// stopped reports whether ShutdownNow was called.
func (p *workerPool) stopped() bool {
	select {
	case <-p.stopCh:
		return true
	default:
		return false
	}
}

// run is the main loop for a worker.
func (w *worker) run() {
	defer w.pool.workerWg.Done()

	if w.pool.config.OnWorkerStart != nil {
		w.pool.config.OnWorkerStart(w.id)
	}
	if w.pool.config.OnWorkerStop != nil {
		defer w.pool.config.OnWorkerStop(w.id)
	}

	for {
		if w.pool.stopped() {
			return
		}

		select {
		case <-w.pool.stopCh:
			return
		case <-w.pool.shutdownCh:
			w.drain()
			return
		case twc := <-w.pool.taskQueue:
			w.executeTask(twc)
		}
	}
}

// drain runs the tasks still queued at graceful shutdown.
func (w *worker) drain() {
	for {
		if w.pool.stopped() {
			return
		}
		select {
		case twc := <-w.pool.taskQueue:
			w.executeTask(twc)
		default:
			return
		}
	}
}

// sendResult sends a task result to the result queue with appropriate handling.
func (w *worker) sendResult(result Result) {
	if w.pool.config.DiscardResults {
		return
	}

	select {
	case w.pool.resultQueue <- result:
	case <-w.pool.stopCh:
		// Worker is shutting down, don't block on result delivery
	case <-time.After(100 * time.Millisecond):
		// Nobody is reading results; drop it rather than stall the worker
	}
}

// executeTask executes a single task with the provided context.
func (w *worker) executeTask(twc taskWithContext) {
	// Tasks picked up after ShutdownNow are dropped, not run.
	if w.pool.stopped() {
		w.pool.discard(twc)
		return
	}

	start := time.Now()
	var err error

	w.pool.activeWorkers.Add(1)
	if w.pool.config.OnTaskStart != nil {
		w.pool.config.OnTaskStart(w.id, twc.task)
	}

	// Handle panics during task execution
	defer func() {
		if r := recover(); r != nil {
			if w.pool.config.PanicHandler != nil {
				w.pool.config.PanicHandler(twc.task, r)
			} else {
				err = fmt.Errorf("task panicked: %v\nStack trace:\n%s", r, debug.Stack())
			}
		}

		w.pool.activeWorkers.Add(-1)
		w.pool.totalCompleted.Add(1)

		result := Result{
			Task:      twc.task,
			Error:     err,
			Duration:  time.Since(start),
			QueueWait: start.Sub(twc.submitTime),
			WorkerID:  w.id,
		}

		if w.pool.config.OnTaskComplete != nil {
			w.pool.config.OnTaskComplete(w.id, result)
		}

		w.sendResult(result)
	}()

	// Start with the caller-provided context, canceled as well by ShutdownNow
	ctx, cancel := context.WithCancel(twc.ctx)
	defer cancel()
	stop := context.AfterFunc(w.pool.baseCtx, cancel)
	defer stop()

	// Apply TaskTimeout if configured
	// The effective timeout is the minimum of the context deadline and TaskTimeout
	if w.pool.config.TaskTimeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, w.pool.config.TaskTimeout)
		defer cancelTimeout()
	}

	// Execute the task with the propagated context
	err = twc.task.Execute(ctx)
}

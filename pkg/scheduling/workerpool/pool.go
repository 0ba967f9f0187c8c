package workerpool

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vnykmshr/batchflow/pkg/common/validation"
)

// Task represents a unit of work that can be executed by a worker.
type Task interface {
	// Execute runs the task with the given context.
	// It should respect context cancellation and return any error encountered.
	Execute(ctx context.Context) error
}

// Discarder is implemented by tasks that need to know when they were
// accepted by Submit but dropped before running, e.g. by ShutdownNow.
type Discarder interface {
	Discard(err error)
}

// TaskFunc is a function type that implements the Task interface.
type TaskFunc func(ctx context.Context) error

// Execute implements the Task interface for TaskFunc.
func (f TaskFunc) Execute(ctx context.Context) error {
	return f(ctx)
}

// Result represents the result of a task execution.
type Result struct {
	// Task is the original task that was executed
	Task Task

	// Error is any error that occurred during task execution
	Error error

	// Duration is how long the task took to execute
	Duration time.Duration

	// QueueWait is how long the task waited between Submit and execution
	QueueWait time.Duration

	// WorkerID identifies which worker executed the task
	WorkerID int
}

// Pool represents a worker pool that can execute tasks concurrently.
type Pool interface {
	// Submit adds a task to the pool for execution.
	// Returns an error if the pool is shut down or if the task cannot be queued.
	Submit(task Task) error

	// SubmitWithTimeout submits a task with a timeout for queuing.
	// If the task cannot be queued within the timeout, it returns an error.
	SubmitWithTimeout(task Task, timeout time.Duration) error

	// SubmitWithContext submits a task with a context for cancellation.
	// The context bounds queuing and is passed to the task when it runs.
	SubmitWithContext(ctx context.Context, task Task) error

	// Results returns a channel of task results.
	// The channel is closed when the pool is shut down and all workers have exited.
	// Nothing is delivered when Config.DiscardResults is set.
	Results() <-chan Result

	// Shutdown initiates a graceful shutdown of the pool.
	// No new tasks will be accepted, but queued tasks will be completed.
	// Returns a channel that closes when shutdown is complete.
	Shutdown() <-chan struct{}

	// ShutdownNow stops accepting tasks, discards queued tasks and cancels
	// the contexts of running tasks. It does not wait: tasks that ignore
	// their context keep running until they return. The returned channel
	// closes once every worker has exited.
	ShutdownNow() <-chan struct{}

	// ShutdownWithTimeout shuts down the pool gracefully, escalating to
	// ShutdownNow if that does not finish within the timeout.
	ShutdownWithTimeout(timeout time.Duration) <-chan struct{}

	// IsShutdown reports whether the pool stopped accepting tasks.
	IsShutdown() bool

	// Size returns the number of workers in the pool.
	Size() int

	// QueueSize returns the current number of queued tasks waiting for execution.
	QueueSize() int

	// ActiveWorkers returns the number of workers currently executing tasks.
	ActiveWorkers() int

	// TotalSubmitted returns the total number of tasks submitted to the pool.
	TotalSubmitted() int64

	// TotalCompleted returns the total number of tasks completed by the pool.
	TotalCompleted() int64

	// TotalDiscarded returns the number of accepted tasks dropped without running.
	TotalDiscarded() int64
}

// Config holds configuration options for creating a worker pool.
type Config struct {
	// WorkerCount is the number of workers in the pool.
	// Must be greater than 0.
	WorkerCount int

	// QueueSize is the maximum number of tasks that can be queued.
	// 0 and -1 both mean a hand-off queue: Submit blocks until a worker
	// takes the task.
	QueueSize int

	// TaskTimeout is the default timeout for individual task execution.
	// Zero means no timeout.
	TaskTimeout time.Duration

	// BufferedResults determines if results should be buffered.
	// If true, results are sent to a buffered channel to prevent blocking.
	// Buffer size equals worker count.
	BufferedResults bool

	// DiscardResults disables delivery on Results(). Use it for pools that
	// only execute work, such as pipeline executors; OnTaskComplete still fires.
	DiscardResults bool

	// PanicHandler is called when a worker panics during task execution.
	// If nil, panics are recovered and reported as the task error.
	PanicHandler func(task Task, recovered interface{})

	// OnWorkerStart is called when a worker starts.
	OnWorkerStart func(workerID int)

	// OnWorkerStop is called when a worker stops.
	OnWorkerStop func(workerID int)

	// OnTaskStart is called before a task begins execution.
	OnTaskStart func(workerID int, task Task)

	// OnTaskComplete is called after a task completes (success or failure).
	OnTaskComplete func(workerID int, result Result)
}

// Validate checks the configuration without creating a pool.
func (c Config) Validate() error {
	if err := validation.ValidatePositive("workerpool", "worker_count", c.WorkerCount); err != nil {
		return err
	}
	return validation.ValidateAtLeast("workerpool", "queue_size", c.QueueSize, -1)
}

// taskWithContext pairs a queued task with its submission context.
type taskWithContext struct {
	task       Task
	ctx        context.Context
	submitTime time.Time
}

// workerPool implements the Pool interface.
type workerPool struct {
	config Config

	// Core pool state
	taskQueue   chan taskWithContext
	resultQueue chan Result
	shutdownCh  chan struct{} // closed on any shutdown: stop accepting
	stopCh      chan struct{} // closed by ShutdownNow: stop draining
	done        chan struct{} // closed once workers exited and leftovers are discarded

	shutdownOnce sync.Once
	stopOnce     sync.Once

	// baseCtx is canceled by ShutdownNow to reach running tasks.
	baseCtx    context.Context
	cancelBase context.CancelFunc

	// mu orders Submit against shutdown: enqueues happen under RLock,
	// isShutdown flips under Lock.
	mu         sync.RWMutex
	isShutdown bool

	// State tracking
	activeWorkers  atomic.Int32
	totalSubmitted atomic.Int64
	totalCompleted atomic.Int64
	totalDiscarded atomic.Int64

	// Worker management
	workerWg sync.WaitGroup
}

// worker represents a single worker in the pool.
type worker struct {
	id   int
	pool *workerPool
}

// New creates a new worker pool with the specified number of workers and queue size.
// It panics on invalid arguments; use NewSafe to get an error instead.
func New(workerCount, queueSize int) Pool {
	return NewWithConfig(Config{
		WorkerCount: workerCount,
		QueueSize:   queueSize,
	})
}

// NewSafe is New returning a validation error instead of panicking.
func NewSafe(workerCount, queueSize int) (Pool, error) {
	config := Config{
		WorkerCount: workerCount,
		QueueSize:   queueSize,
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return NewWithConfig(config), nil
}

// NewExecutor creates a pool meant purely for executing work, such as the
// element tasks of a pipeline: results are not delivered on Results() and
// the queue holds one task per worker.
func NewExecutor(workerCount int) Pool {
	return NewWithConfig(Config{
		WorkerCount:    workerCount,
		QueueSize:      workerCount,
		DiscardResults: true,
	})
}

// NewWithConfig creates a new worker pool with the specified configuration.
func NewWithConfig(config Config) Pool {
	if err := config.Validate(); err != nil {
		panic(err.Error())
	}

	var taskQueue chan taskWithContext
	if config.QueueSize <= 0 {
		taskQueue = make(chan taskWithContext)
	} else {
		taskQueue = make(chan taskWithContext, config.QueueSize)
	}

	var resultQueue chan Result
	if config.BufferedResults {
		resultQueue = make(chan Result, config.WorkerCount)
	} else {
		resultQueue = make(chan Result)
	}

	baseCtx, cancelBase := context.WithCancel(context.Background())

	pool := &workerPool{
		config:      config,
		taskQueue:   taskQueue,
		resultQueue: resultQueue,
		shutdownCh:  make(chan struct{}),
		stopCh:      make(chan struct{}),
		done:        make(chan struct{}),
		baseCtx:     baseCtx,
		cancelBase:  cancelBase,
	}

	// Create and start workers
	for i := 0; i < config.WorkerCount; i++ {
		w := &worker{id: i, pool: pool}
		pool.workerWg.Add(1)
		go w.run()
	}

	go pool.finalize()

	return pool
}

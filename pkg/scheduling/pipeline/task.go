package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	bferrors "github.com/vnykmshr/batchflow/pkg/common/errors"
)

// elementTask replays the stage list over one input element.
type elementTask struct {
	index  int
	input  any
	stages []stage
}

func (p *Pipeline[T]) task(index int, input any) elementTask {
	return elementTask{index: index, input: input, stages: p.stages}
}

// run applies every stage in order. Stage errors and panics come back as
// a *TaskError.
func (t elementTask) run(ctx context.Context) (value any, err error) {
	current := 0

	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = t.fail(current, fmt.Errorf("%w: %v", ErrStagePanic, r))
		}
	}()

	value = t.input
	for i, s := range t.stages {
		current = i
		if value, err = s.fn(ctx, value); err != nil {
			return nil, t.fail(i, err)
		}
	}
	return value, nil
}

func (t elementTask) fail(stageIndex int, err error) *TaskError {
	return &TaskError{
		Index: t.index,
		Stage: stageIndex,
		Kind:  t.stages[stageIndex].kind.String(),
		Err:   err,
	}
}

// pooledTask adapts an element task to workerpool.Task. Its count in the
// collector's latch is released exactly once whether the task runs, is
// skipped or is discarded by the pool.
type pooledTask struct {
	elementTask
	call    context.Context // canceled once the execution is abandoned
	results *collector
}

// Execute runs the element unless the execution was already abandoned.
func (t *pooledTask) Execute(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		// Canceled by the pool rather than by the execution.
		t.report(bferrors.NewOperationError("pipeline", "execute", err).
			WithContext(fmt.Sprintf("element %d", t.index)))
		return err
	}

	value, err := t.run(ctx)
	if err != nil {
		t.report(err)
		return err
	}

	t.results.Add(value)
	return nil
}

// Discard is called by the pool when it drops the task unrun.
func (t *pooledTask) Discard(err error) {
	t.report(bferrors.NewOperationError("pipeline", "dispatch", err).
		WithContext(fmt.Sprintf("element %d", t.index)))
}

// report records err as a failure of the execution, unless the execution
// was already abandoned, in which case the task is only counted down.
func (t *pooledTask) report(err error) {
	if t.call.Err() != nil {
		t.results.Skip(1)
		return
	}
	t.results.Fail(err)
}

// latch is a countdown whose Done channel closes when it reaches zero.
type latch struct {
	remaining atomic.Int64
	done      chan struct{}
}

func newLatch(n int) *latch {
	l := &latch{done: make(chan struct{})}
	l.remaining.Store(int64(n))
	return l
}

// Release counts down by n.
func (l *latch) Release(n int) {
	if n <= 0 {
		return
	}
	if l.remaining.Add(-int64(n)) == 0 {
		close(l.done)
	}
}

// Outstanding returns how many counts are left.
func (l *latch) Outstanding() int {
	return int(l.remaining.Load())
}

// Done closes once every count was released.
func (l *latch) Done() <-chan struct{} {
	return l.done
}

// collector accumulates results in completion order and keeps the first
// failure. It releases the latch under its own lock, so a snapshot never
// counts an element both as finished and as outstanding.
type collector struct {
	mu     sync.Mutex
	latch  *latch
	items  []any
	err    error
	failed chan struct{}
}

func newCollector(l *latch, capacity int) *collector {
	return &collector{
		latch:  l,
		items:  make([]any, 0, capacity),
		failed: make(chan struct{}),
	}
}

// Add appends a successful result and counts its element down.
func (c *collector) Add(value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = append(c.items, value)
	c.latch.Release(1)
}

// Fail records err if it is the first failure and counts its element down.
// The failure is stored before the release so a latch reaching zero never
// hides it.
func (c *collector) Fail(err error) {
	c.FailRest(err, 1)
}

// FailRest is Fail for a failed element that also ends the n-1 elements
// after it, counting them all down in one step.
func (c *collector) FailRest(err error, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err == nil {
		c.err = err
		close(c.failed)
	}
	c.latch.Release(n)
}

// Skip counts n elements down without a result.
func (c *collector) Skip(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latch.Release(n)
}

// snapshot returns the successful and the unfinished element counts at
// one instant.
func (c *collector) snapshot() (completed, outstanding int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items), c.latch.Outstanding()
}

// Failed closes on the first failure.
func (c *collector) Failed() <-chan struct{} {
	return c.failed
}

func (c *collector) failure() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Len returns the number of successful results so far.
func (c *collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// values returns a copy of the results collected so far.
func (c *collector) values() []any {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]any, len(c.items))
	copy(out, c.items)
	return out
}

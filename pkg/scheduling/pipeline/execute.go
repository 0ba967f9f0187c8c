package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	bfcontext "github.com/vnykmshr/batchflow/pkg/common/context"
	bferrors "github.com/vnykmshr/batchflow/pkg/common/errors"
	"github.com/vnykmshr/batchflow/pkg/logger"
)

const instrumentationName = "github.com/vnykmshr/batchflow/pkg/scheduling/pipeline"

// Outcomes of one Execute call, used as the outcome label.
const (
	OutcomeCompleted   = "completed"
	OutcomeFailed      = "failed"
	OutcomeTimedOut    = "timed_out"
	OutcomeInterrupted = "interrupted"
)

const (
	modeSequential = "sequential"
	modePooled     = "pooled"
)

// Execute runs every element task and returns the results.
//
// Without a pool the tasks run on the calling goroutine in input order and
// the first failure is returned. With a pool they are dispatched
// concurrently and the results are in completion order. A pooled
// execution returns *TimeoutError when the timeout elapses and
// *InterruptedError when ctx ends first; in both cases the pool is shut
// down with ShutdownNow before returning. The first failing element aborts
// a pooled execution with a *TaskError and leaves the pool running.
//
// Each call re-runs all stages from scratch.
func (p *Pipeline[T]) Execute(ctx context.Context) ([]T, error) {
	values, err := p.run(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]T, len(values))
	for i, v := range values {
		out[i] = as[T](v)
	}
	return out, nil
}

// Collect executes p. It reads better at the end of a Map chain.
func Collect[T any](ctx context.Context, p *Pipeline[T]) ([]T, error) {
	return p.Execute(ctx)
}

// execution carries per-call state shared by both paths.
type execution struct {
	id     string
	total  int
	mode   string
	start  time.Time
	log    zerolog.Logger
	span   trace.Span
	counts report
}

// report is what an execution ended with.
type report struct {
	completed   int
	failed      int
	outstanding int
}

func (p *Pipeline[T]) run(ctx context.Context) ([]any, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	n := len(p.inputs)
	if n == 0 {
		return []any{}, nil
	}

	exec := &execution{
		id:    uuid.NewString(),
		total: n,
		mode:  modeSequential,
		start: time.Now(),
	}
	if p.settings.pool != nil {
		exec.mode = modePooled
	}

	exec.log = p.settings.logger.With().
		Str(logger.FieldPipeline, p.settings.name).
		Str(logger.FieldExecutionID, exec.id).
		Int(logger.FieldElements, n).
		Str(logger.FieldMode, exec.mode).
		Logger()

	tracer := p.settings.tracer
	if tracer == nil {
		tracer = otel.Tracer(instrumentationName)
	}
	ctx, exec.span = tracer.Start(ctx, "pipeline.Execute", trace.WithAttributes(
		attribute.String("pipeline.name", p.settings.name),
		attribute.String("pipeline.execution_id", exec.id),
		attribute.String("pipeline.mode", exec.mode),
		attribute.Int("pipeline.elements", n),
	))

	var (
		values []any
		err    error
	)
	if p.settings.pool == nil {
		values, err = p.runSequential(ctx, exec)
	} else {
		values, err = p.runPooled(ctx, exec)
	}

	p.finish(exec, err)
	return values, err
}

// runSequential runs every element task on the calling goroutine.
func (p *Pipeline[T]) runSequential(ctx context.Context, exec *execution) ([]any, error) {
	n := exec.total
	out := make([]any, 0, n)

	for i, input := range p.inputs {
		if bfcontext.IsCanceled(ctx) {
			exec.counts = report{completed: i, outstanding: n - i}
			return nil, &InterruptedError{Outstanding: n - i, Total: n, Cause: bfcontext.Cause(ctx)}
		}

		value, err := p.task(i, input).run(ctx)
		if err != nil {
			// A stage giving up because ctx ended is an interruption, not a failure.
			if cause := bfcontext.Cause(ctx); cause != nil && errors.Is(err, ctx.Err()) {
				exec.counts = report{completed: i, outstanding: n - i}
				return nil, &InterruptedError{Outstanding: n - i, Total: n, Cause: cause}
			}

			exec.counts = report{completed: i, failed: 1, outstanding: n - i - 1}

			var taskErr *TaskError
			if errors.As(err, &taskErr) {
				taskErr.Completed = i
				taskErr.Outstanding = n - i - 1
			}
			return nil, err
		}
		out = append(out, value)
	}

	exec.counts = report{completed: n}
	return out, nil
}

// runPooled fans the element tasks out to the pool and waits for all of
// them, the first failure, the timeout or ctx, whichever comes first.
func (p *Pipeline[T]) runPooled(ctx context.Context, exec *execution) ([]any, error) {
	n := exec.total
	pool := p.settings.pool
	timeout := p.settings.timeout

	// The timer covers dispatch as well: a full queue must not stretch the deadline.
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	execCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	latch := newLatch(n)
	results := newCollector(latch, n)

	exec.log.Debug().Dur(logger.FieldTimeout, timeout).Msg("dispatching element tasks")
	go p.dispatch(execCtx, pool, results)

	interrupt := func() ([]any, error) {
		completed, outstanding := results.snapshot()
		cancel()
		pool.ShutdownNow()

		exec.counts = report{completed: completed, outstanding: outstanding}
		return nil, &InterruptedError{Outstanding: outstanding, Total: n, Cause: bfcontext.Cause(ctx)}
	}

	settle := func() ([]any, error) {
		if err := results.failure(); err != nil {
			return nil, p.annotate(exec, err, results)
		}
		// Tasks skip themselves once ctx ends, so the latch can reach
		// zero without every result.
		if results.Len() < n {
			return interrupt()
		}
		exec.counts = report{completed: n}
		return results.values(), nil
	}

	select {
	case <-latch.Done():
		return settle()

	case <-results.Failed():
		cancel()
		return nil, p.annotate(exec, results.failure(), results)

	case <-timer.C:
		completed, outstanding := results.snapshot()
		if outstanding == 0 {
			return settle()
		}
		cancel()
		pool.ShutdownNow()

		exec.counts = report{completed: completed, outstanding: outstanding}
		return nil, &TimeoutError{Outstanding: outstanding, Total: n, Timeout: timeout}

	case <-ctx.Done():
		return interrupt()
	}
}

// dispatch submits one task per element. When the pool refuses a task,
// that element and every later one are counted down without running.
func (p *Pipeline[T]) dispatch(ctx context.Context, pool Executor, results *collector) {
	n := len(p.inputs)

	for i, input := range p.inputs {
		task := &pooledTask{
			elementTask: p.task(i, input),
			call:        ctx,
			results:     results,
		}

		if err := pool.SubmitWithContext(ctx, task); err != nil {
			// After cancel the call has already returned; nothing to report.
			if ctx.Err() != nil {
				results.Skip(n - i)
				return
			}
			results.FailRest(bferrors.NewOperationError("pipeline", "dispatch", err).
				WithContext(fmt.Sprintf("element %d", i)), n-i)
			return
		}
	}
}

// annotate fills in the counts of a failure and records them.
func (p *Pipeline[T]) annotate(exec *execution, err error, results *collector) error {
	completed, outstanding := results.snapshot()

	var taskErr *TaskError
	if errors.As(err, &taskErr) {
		taskErr.Completed = completed
		taskErr.Outstanding = outstanding
	}

	exec.counts = report{completed: completed, failed: 1, outstanding: outstanding}
	return err
}

// finish logs, measures and ends the span of an execution.
func (p *Pipeline[T]) finish(exec *execution, err error) {
	elapsed := time.Since(exec.start)
	outcome := outcomeOf(err)

	exec.span.SetAttributes(
		attribute.String("pipeline.outcome", outcome),
		attribute.Int("pipeline.completed", exec.counts.completed),
		attribute.Int("pipeline.outstanding", exec.counts.outstanding),
	)
	if err != nil {
		exec.span.RecordError(err)
		exec.span.SetStatus(codes.Error, err.Error())
	} else {
		exec.span.SetStatus(codes.Ok, "")
	}
	exec.span.End()

	if reg := p.settings.metrics; reg != nil {
		name := p.settings.name
		reg.PipelineExecutions.WithLabelValues(name, outcome).Inc()
		reg.PipelineDuration.WithLabelValues(name, exec.mode).Observe(elapsed.Seconds())
		reg.PipelineElements.WithLabelValues(name, "completed").Add(float64(exec.counts.completed))
		reg.PipelineElements.WithLabelValues(name, "failed").Add(float64(exec.counts.failed))
		reg.PipelineOutstanding.WithLabelValues(name).Set(float64(exec.counts.outstanding))
	}

	var event *zerolog.Event
	switch outcome {
	case OutcomeCompleted:
		event = exec.log.Debug()
	case OutcomeFailed:
		event = exec.log.Error().Err(err)
		var taskErr *TaskError
		if errors.As(err, &taskErr) {
			event = event.Int(logger.FieldIndex, taskErr.Index).Int(logger.FieldStage, taskErr.Stage)
		}
	default:
		event = exec.log.Warn().Err(err)
	}
	event.
		Str(logger.FieldOutcome, outcome).
		Int(logger.FieldCompleted, exec.counts.completed).
		Int(logger.FieldOutstanding, exec.counts.outstanding).
		Dur(logger.FieldDuration, elapsed).
		Msg("pipeline execution finished")
}

func outcomeOf(err error) string {
	var (
		timeoutErr     *TimeoutError
		interruptedErr *InterruptedError
	)
	switch {
	case err == nil:
		return OutcomeCompleted
	case errors.As(err, &timeoutErr):
		return OutcomeTimedOut
	case errors.As(err, &interruptedErr):
		return OutcomeInterrupted
	default:
		return OutcomeFailed
	}
}

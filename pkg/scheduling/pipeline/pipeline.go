package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	bferrors "github.com/vnykmshr/batchflow/pkg/common/errors"
	"github.com/vnykmshr/batchflow/pkg/common/validation"
	"github.com/vnykmshr/batchflow/pkg/logger"
	"github.com/vnykmshr/batchflow/pkg/metrics"
	"github.com/vnykmshr/batchflow/pkg/scheduling/workerpool"
)

const (
	// DefaultTimeout bounds pooled executions when WithTimeout was never called.
	DefaultTimeout = 60 * time.Second

	// DefaultName labels a pipeline in logs, metrics and traces.
	DefaultName = "pipeline"
)

// Executor is the part of a worker pool the engine needs.
// workerpool.Pool satisfies it.
type Executor interface {
	// SubmitWithContext queues a task. The context bounds queuing and is
	// handed to the task when it runs.
	SubmitWithContext(ctx context.Context, task workerpool.Task) error

	// ShutdownNow stops the pool without waiting for in-flight tasks.
	ShutdownNow() <-chan struct{}
}

var _ Executor = workerpool.Pool(nil)

// stageKind tags a stage descriptor.
type stageKind int

const (
	stageTransform stageKind = iota
	stageInspect
)

func (k stageKind) String() string {
	switch k {
	case stageTransform:
		return "transform"
	case stageInspect:
		return "inspect"
	default:
		return "unknown"
	}
}

// stage is one type-erased step of every element task.
type stage struct {
	kind stageKind
	fn   func(ctx context.Context, value any) (any, error)
}

// settings is the configuration carried from a pipeline to the ones derived from it.
type settings struct {
	pool    Executor
	timeout time.Duration
	name    string
	logger  zerolog.Logger
	metrics *metrics.Registry
	tracer  trace.Tracer
}

// Pipeline is an immutable, lazily evaluated chain of per-element stages
// over a fixed set of inputs. Nothing runs until Execute.
//
// Every method returning a *Pipeline returns a new value; the receiver is
// never modified and stays usable.
type Pipeline[T any] struct {
	inputs   []any
	stages   []stage
	settings settings
}

// From creates a pipeline over a copy of items with no stages.
// A nil or empty slice yields a pipeline with zero element tasks.
func From[T any](items []T) *Pipeline[T] {
	inputs := make([]any, len(items))
	for i, item := range items {
		inputs[i] = item
	}

	return &Pipeline[T]{
		inputs: inputs,
		settings: settings{
			timeout: DefaultTimeout,
			name:    DefaultName,
			logger:  logger.Nop(),
		},
	}
}

// Map appends a transform stage. An error from fn fails that element.
func Map[T, U any](p *Pipeline[T], fn func(ctx context.Context, value T) (U, error)) *Pipeline[U] {
	return &Pipeline[U]{
		inputs: p.inputs,
		stages: appendStage(p.stages, stage{
			kind: stageTransform,
			fn: func(ctx context.Context, value any) (any, error) {
				return fn(ctx, as[T](value))
			},
		}),
		settings: p.settings,
	}
}

// Transform appends a transform stage that cannot fail.
func Transform[T, U any](p *Pipeline[T], fn func(value T) U) *Pipeline[U] {
	return Map(p, func(_ context.Context, value T) (U, error) {
		return fn(value), nil
	})
}

// Inspect appends a stage that hands each value to fn and passes it on
// unchanged. An error from fn fails that element.
func (p *Pipeline[T]) Inspect(fn func(ctx context.Context, value T) error) *Pipeline[T] {
	return p.derive(appendStage(p.stages, stage{
		kind: stageInspect,
		fn: func(ctx context.Context, value any) (any, error) {
			return value, fn(ctx, as[T](value))
		},
	}), p.settings)
}

// Consume appends an inspect stage for side effects that cannot fail.
func (p *Pipeline[T]) Consume(fn func(value T)) *Pipeline[T] {
	return p.Inspect(func(_ context.Context, value T) error {
		fn(value)
		return nil
	})
}

// WithPool attaches the pool element tasks are dispatched to.
// A nil pool detaches it, making execution sequential again.
//
// The pool stays owned by the caller, but an Execute that times out or is
// interrupted calls its ShutdownNow.
func (p *Pipeline[T]) WithPool(pool Executor) *Pipeline[T] {
	s := p.settings
	s.pool = pool
	return p.derive(p.stages, s)
}

// WithTimeout overrides the aggregate deadline of pooled executions.
// It requires an attached pool and a positive duration.
func (p *Pipeline[T]) WithTimeout(d time.Duration) (*Pipeline[T], error) {
	if p.settings.pool == nil {
		return nil, bferrors.NewValidationError("pipeline", "timeout", d, "requires an attached pool").
			WithHint("call WithPool before WithTimeout; sequential execution has no timeout")
	}
	if err := validation.ValidatePositiveDuration("pipeline", "timeout", d); err != nil {
		return nil, err
	}

	s := p.settings
	s.timeout = d
	return p.derive(p.stages, s), nil
}

// WithName sets the label used in logs, metrics and traces.
func (p *Pipeline[T]) WithName(name string) *Pipeline[T] {
	s := p.settings
	if name == "" {
		name = DefaultName
	}
	s.name = name
	return p.derive(p.stages, s)
}

// WithLogger sets the logger. Pipelines log nothing by default.
func (p *Pipeline[T]) WithLogger(log zerolog.Logger) *Pipeline[T] {
	s := p.settings
	s.logger = log
	return p.derive(p.stages, s)
}

// WithMetrics records executions into registry. nil disables metrics.
func (p *Pipeline[T]) WithMetrics(registry *metrics.Registry) *Pipeline[T] {
	s := p.settings
	s.metrics = registry
	return p.derive(p.stages, s)
}

// WithTracer sets the tracer for execution spans. By default the tracer of
// the global otel provider is used.
func (p *Pipeline[T]) WithTracer(tracer trace.Tracer) *Pipeline[T] {
	s := p.settings
	s.tracer = tracer
	return p.derive(p.stages, s)
}

// Len returns the number of element tasks, always the number of inputs.
func (p *Pipeline[T]) Len() int {
	return len(p.inputs)
}

// Stages returns the number of stages each element task runs.
func (p *Pipeline[T]) Stages() int {
	return len(p.stages)
}

// Timeout returns the aggregate deadline applied to pooled executions.
func (p *Pipeline[T]) Timeout() time.Duration {
	return p.settings.timeout
}

// Pool returns the attached pool, or nil.
func (p *Pipeline[T]) Pool() Executor {
	return p.settings.pool
}

// Name returns the pipeline label.
func (p *Pipeline[T]) Name() string {
	return p.settings.name
}

func (p *Pipeline[T]) derive(stages []stage, s settings) *Pipeline[T] {
	return &Pipeline[T]{
		inputs:   p.inputs,
		stages:   stages,
		settings: s,
	}
}

// appendStage returns a new slice so pipelines derived from the same
// parent never share a backing array.
func appendStage(stages []stage, s stage) []stage {
	out := make([]stage, len(stages), len(stages)+1)
	copy(out, stages)
	return append(out, s)
}

// as converts a type-erased value back to T. A nil interface becomes the
// zero value, which matters when T is itself an interface type.
func as[T any](value any) T {
	v, _ := value.(T)
	return v
}

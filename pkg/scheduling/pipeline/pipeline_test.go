package pipeline

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vnykmshr/batchflow/internal/testutil"
	bferrors "github.com/vnykmshr/batchflow/pkg/common/errors"
	"github.com/vnykmshr/batchflow/pkg/scheduling/workerpool"
)

// recordingExecutor counts submissions and runs nothing.
type recordingExecutor struct {
	submitted int
	stopped   int
}

func (r *recordingExecutor) SubmitWithContext(ctx context.Context, task workerpool.Task) error {
	r.submitted++
	return nil
}

func (r *recordingExecutor) ShutdownNow() <-chan struct{} {
	r.stopped++
	done := make(chan struct{})
	close(done)
	return done
}

func double(_ context.Context, v int) (int, error) {
	return v * 2, nil
}

func TestFrom(t *testing.T) {
	items := []int{1, 2, 3}
	p := From(items)

	testutil.AssertEqual(t, p.Len(), 3)
	testutil.AssertEqual(t, p.Stages(), 0)
	testutil.AssertEqual(t, p.Timeout(), DefaultTimeout)
	testutil.AssertEqual(t, p.Name(), DefaultName)
	testutil.AssertEqual(t, p.Pool(), Executor(nil))

	// Later changes to the caller's slice are not observed.
	items[0] = 100
	got, err := p.Execute(context.Background())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, got[0], 1)
}

func TestFromEmpty(t *testing.T) {
	testutil.AssertEqual(t, From[int](nil).Len(), 0)
	testutil.AssertEqual(t, From([]string{}).Len(), 0)
}

func TestStagesPreserveLength(t *testing.T) {
	p := From([]int{1, 2, 3, 4})
	q := Map(p, double)
	r := Map(q, func(_ context.Context, v int) (string, error) {
		return strconv.Itoa(v), nil
	}).Consume(func(string) {})

	testutil.AssertEqual(t, q.Len(), 4)
	testutil.AssertEqual(t, r.Len(), 4)
	testutil.AssertEqual(t, q.Stages(), 1)
	testutil.AssertEqual(t, r.Stages(), 3)
}

func TestAppendDoesNotMutateReceiver(t *testing.T) {
	base := Map(From([]int{1, 2, 3}), double)

	// Siblings derived from the same parent must not share stages.
	plusOne := Transform(base, func(v int) int { return v + 1 })
	timesTen := Transform(base, func(v int) int { return v * 10 })

	ctx := context.Background()

	got, err := base.Execute(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(got), 3)
	testutil.AssertEqual(t, got[2], 6)

	got, err = plusOne.Execute(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, got[2], 7)

	got, err = timesTen.Execute(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, got[2], 60)

	testutil.AssertEqual(t, base.Stages(), 1)
}

func TestWithTimeoutRequiresPool(t *testing.T) {
	p := From([]int{1, 2, 3})

	q, err := p.WithTimeout(time.Second)
	testutil.AssertErrorIs(t, err, bferrors.ErrInvalidConfiguration)
	testutil.AssertEqual(t, bferrors.IsValidationError(err), true)
	testutil.AssertEqual(t, q == nil, true)

	// The receiver is untouched.
	testutil.AssertEqual(t, p.Timeout(), DefaultTimeout)
	testutil.AssertEqual(t, p.Pool(), Executor(nil))
}

func TestWithTimeout(t *testing.T) {
	exec := &recordingExecutor{}
	p := From([]int{1}).WithPool(exec)

	q, err := p.WithTimeout(5 * time.Second)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, q.Timeout(), 5*time.Second)
	testutil.AssertEqual(t, p.Timeout(), DefaultTimeout)

	_, err = p.WithTimeout(0)
	testutil.AssertErrorIs(t, err, bferrors.ErrInvalidConfiguration)

	_, err = p.WithTimeout(-time.Second)
	var verr *bferrors.ValidationError
	testutil.AssertEqual(t, errors.As(err, &verr), true)
	testutil.AssertEqual(t, verr.Field, "timeout")
}

func TestWithPool(t *testing.T) {
	exec := &recordingExecutor{}
	p := From([]int{1, 2})

	pooled := p.WithPool(exec)
	testutil.AssertEqual(t, pooled.Pool(), Executor(exec))
	testutil.AssertEqual(t, p.Pool(), Executor(nil))

	timed, err := pooled.WithTimeout(time.Minute)
	testutil.AssertNoError(t, err)

	// Swapping the pool carries the timeout forward; nil detaches.
	other := timed.WithPool(&recordingExecutor{})
	testutil.AssertEqual(t, other.Timeout(), time.Minute)
	testutil.AssertEqual(t, timed.WithPool(nil).Pool(), Executor(nil))
}

func TestWithName(t *testing.T) {
	p := From([]int{1})
	testutil.AssertEqual(t, p.WithName("ingest").Name(), "ingest")
	testutil.AssertEqual(t, p.WithName("").Name(), DefaultName)
	testutil.AssertEqual(t, p.Name(), DefaultName)
}

func TestAmbientSettingsAreCarried(t *testing.T) {
	p := From([]int{1}).
		WithName("carry").
		WithLogger(zerolog.Nop())

	q := Map(p, func(_ context.Context, v int) (string, error) {
		return strconv.Itoa(v), nil
	}).Inspect(func(context.Context, string) error { return nil })

	testutil.AssertEqual(t, q.Name(), "carry")
}

func TestNoWorkUntilExecute(t *testing.T) {
	calls := 0
	p := Map(From([]int{1, 2, 3}), func(_ context.Context, v int) (int, error) {
		calls++
		return v, nil
	}).Consume(func(int) { calls++ })

	testutil.AssertEqual(t, calls, 0)

	_, err := p.Execute(context.Background())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, calls, 6)
}

func TestInterfaceElementsWithNil(t *testing.T) {
	p := Map(From([]error{nil, errors.New("x")}), func(_ context.Context, err error) (bool, error) {
		return err == nil, nil
	})

	got, err := p.Execute(context.Background())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, got[0], true)
	testutil.AssertEqual(t, got[1], false)
}

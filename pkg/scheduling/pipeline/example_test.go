package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	bferrors "github.com/vnykmshr/batchflow/pkg/common/errors"
	"github.com/vnykmshr/batchflow/pkg/scheduling/pipeline"
	"github.com/vnykmshr/batchflow/pkg/scheduling/workerpool"
)

// Example runs a pipeline sequentially; results keep the input order.
func Example() {
	words := pipeline.From([]string{"alpha", "beta", "gamma"})
	upper := pipeline.Transform(words, strings.ToUpper)

	out, err := upper.Execute(context.Background())
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(out)

	// Output: [ALPHA BETA GAMMA]
}

// Example_parse chains a fallible transform into a side-effect stage.
func Example_parse() {
	p := pipeline.Map(pipeline.From([]string{"1", "2", "3"}), func(_ context.Context, s string) (int, error) {
		return strconv.Atoi(s)
	}).Consume(func(n int) {
		fmt.Println("parsed", n)
	})

	out, _ := pipeline.Collect(context.Background(), p)
	fmt.Println(out)

	// Output:
	// parsed 1
	// parsed 2
	// parsed 3
	// [1 2 3]
}

// Example_pooled fans elements out to a worker pool. Results arrive in
// completion order, so they are sorted here.
func Example_pooled() {
	pool := workerpool.NewExecutor(4)
	defer func() { <-pool.Shutdown() }()

	inputs := []int{1, 2, 3, 4, 5, 6, 7, 8}
	squares := pipeline.Transform(pipeline.From(inputs), func(n int) int { return n * n })

	p, err := squares.WithPool(pool).WithTimeout(10 * time.Second)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	out, err := p.Execute(context.Background())
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	sort.Ints(out)
	fmt.Println(out)

	// Output: [1 4 9 16 25 36 49 64]
}

// Example_timeout shows the error returned when the work outlasts the timeout.
func Example_timeout() {
	pool := workerpool.NewExecutor(1)

	slow := pipeline.From([]int{1, 2}).Inspect(func(ctx context.Context, _ int) error {
		select {
		case <-time.After(time.Minute):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	p, _ := slow.WithPool(pool).WithTimeout(10 * time.Millisecond)
	_, err := p.Execute(context.Background())

	var timeoutErr *pipeline.TimeoutError
	fmt.Println(errors.As(err, &timeoutErr), errors.Is(err, bferrors.ErrTimeout))
	fmt.Println("pool shut down:", pool.IsShutdown())
	<-pool.ShutdownNow()

	// Output:
	// true true
	// pool shut down: true
}

// Example_configurationError shows that a timeout needs a pool.
func Example_configurationError() {
	_, err := pipeline.From([]int{1}).WithTimeout(time.Second)
	fmt.Println(errors.Is(err, bferrors.ErrInvalidConfiguration))

	// Output: true
}

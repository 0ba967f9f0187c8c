// Package benchmark compares the pipeline engine against driving the worker
// pool by hand.
package benchmark

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vnykmshr/batchflow/pkg/scheduling/workerpool"
)

// BenchmarkWorkerPoolSubmit measures task submission performance.
func BenchmarkWorkerPoolSubmit(b *testing.B) {
	for _, workers := range []int{2, 4, 8} {
		b.Run(workerLabel(workers), func(b *testing.B) {
			pool, err := workerpool.NewSafe(workers, 1000)
			if err != nil {
				b.Fatalf("failed to create pool: %v", err)
			}
			defer func() { <-pool.Shutdown() }()

			go func() {
				for range pool.Results() {
				}
			}()

			task := workerpool.TaskFunc(func(_ context.Context) error {
				return nil
			})

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = pool.Submit(task)
			}
		})
	}
}

// BenchmarkWorkerPoolContention measures submission from many goroutines.
func BenchmarkWorkerPoolContention(b *testing.B) {
	pool := workerpool.NewExecutor(8)
	defer func() { <-pool.Shutdown() }()

	task := workerpool.TaskFunc(func(_ context.Context) error {
		return nil
	})

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = pool.Submit(task)
		}
	})
}

// BenchmarkWorkerPoolWithWork measures a fan-out and wait with a WaitGroup,
// the hand-written equivalent of a pooled pipeline execution.
func BenchmarkWorkerPoolWithWork(b *testing.B) {
	for _, work := range []time.Duration{0, time.Microsecond, 10 * time.Microsecond} {
		label := "NoWork"
		if work > 0 {
			label = work.String()
		}

		b.Run(label, func(b *testing.B) {
			pool := workerpool.NewExecutor(4)
			defer func() { <-pool.Shutdown() }()

			var (
				wg        sync.WaitGroup
				completed atomic.Int64
			)
			task := workerpool.TaskFunc(func(_ context.Context) error {
				defer wg.Done()
				if work > 0 {
					time.Sleep(work)
				}
				completed.Add(1)
				return nil
			})

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				wg.Add(1)
				if err := pool.Submit(task); err != nil {
					wg.Done()
				}
			}
			wg.Wait()
		})
	}
}

// BenchmarkWorkerPoolScaling measures submission across pool shapes.
func BenchmarkWorkerPoolScaling(b *testing.B) {
	scales := []struct {
		workers int
		queue   int
	}{
		{1, 100},
		{4, 100},
		{8, 100},
		{4, 0},
		{4, 1000},
	}

	for _, scale := range scales {
		b.Run(scaleLabel(scale.workers, scale.queue), func(b *testing.B) {
			pool := workerpool.NewWithConfig(workerpool.Config{
				WorkerCount:    scale.workers,
				QueueSize:      scale.queue,
				DiscardResults: true,
			})
			defer func() { <-pool.Shutdown() }()

			task := workerpool.TaskFunc(func(_ context.Context) error {
				return nil
			})

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = pool.Submit(task)
			}
		})
	}
}

// BenchmarkWorkerPoolShutdown compares draining shutdown with ShutdownNow.
func BenchmarkWorkerPoolShutdown(b *testing.B) {
	task := workerpool.TaskFunc(func(_ context.Context) error {
		return nil
	})

	b.Run("Graceful", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			pool := workerpool.NewWithConfig(workerpool.Config{WorkerCount: 4, QueueSize: 100, DiscardResults: true})
			for j := 0; j < 10; j++ {
				_ = pool.Submit(task)
			}
			<-pool.Shutdown()
		}
	})

	b.Run("Now", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			pool := workerpool.NewWithConfig(workerpool.Config{WorkerCount: 4, QueueSize: 100, DiscardResults: true})
			for j := 0; j < 10; j++ {
				_ = pool.Submit(task)
			}
			<-pool.ShutdownNow()
		}
	})
}

func workerLabel(workers int) string {
	return strconv.Itoa(workers) + "workers"
}

func scaleLabel(workers, queue int) string {
	return workerLabel(workers) + "_q" + strconv.Itoa(queue)
}

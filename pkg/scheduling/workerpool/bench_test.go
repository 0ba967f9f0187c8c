package workerpool

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/batchflow/pkg/metrics"
)

func noopTask(ctx context.Context) error { return nil }

// BenchmarkExecutor measures submission plus execution with result delivery off.
func BenchmarkExecutor(b *testing.B) {
	pool := NewExecutor(4)
	defer func() { <-pool.Shutdown() }()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = pool.Submit(TaskFunc(noopTask))
		}
	})
}

// BenchmarkWithResults measures the same load when every result is read.
func BenchmarkWithResults(b *testing.B) {
	pool := NewWithConfig(Config{WorkerCount: 4, QueueSize: 1000, BufferedResults: true})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range pool.Results() {
		}
	}()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = pool.Submit(TaskFunc(noopTask))
	}
	<-pool.Shutdown()
	wg.Wait()
}

// BenchmarkWorkerScaling runs a fixed amount of CPU work per task across pool sizes.
func BenchmarkWorkerScaling(b *testing.B) {
	work := TaskFunc(func(ctx context.Context) error {
		sum := 0
		for i := 0; i < 1000; i++ {
			sum += i
		}
		_ = sum
		return nil
	})

	for _, workers := range []int{1, 2, 4, 8, 16} {
		b.Run(fmt.Sprintf("Workers-%d", workers), func(b *testing.B) {
			pool := NewExecutor(workers)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = pool.Submit(work)
			}
			<-pool.Shutdown()
		})
	}
}

// BenchmarkMetricsOverhead compares a plain executor with an instrumented one.
func BenchmarkMetricsOverhead(b *testing.B) {
	b.Run("Plain", func(b *testing.B) {
		pool := NewExecutor(4)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_ = pool.Submit(TaskFunc(noopTask))
		}
		<-pool.Shutdown()
	})

	b.Run("Instrumented", func(b *testing.B) {
		pool := NewWithConfigAndMetrics(Config{
			WorkerCount:    4,
			QueueSize:      4,
			DiscardResults: true,
		}, "bench", metrics.Config{Enabled: true, Registry: prometheus.NewRegistry()})
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_ = pool.Submit(TaskFunc(noopTask))
		}
		<-pool.Shutdown()
	})
}

// BenchmarkShutdownNow measures tearing down a pool with a full queue.
func BenchmarkShutdownNow(b *testing.B) {
	for i := 0; i < b.N; i++ {
		pool := NewWithConfig(Config{WorkerCount: 2, QueueSize: 100, DiscardResults: true})
		for j := 0; j < 100; j++ {
			_ = pool.Submit(TaskFunc(noopTask))
		}
		<-pool.ShutdownNow()
	}
}

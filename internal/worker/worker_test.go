package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPool_StartStop(t *testing.T) {
	var processed atomic.Int64
	processor := func(ctx context.Context, job int) error {
		processed.Add(1)
		return nil
	}

	pool := NewPool("test", 2, 10, processor)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	for i := 0; i < 5; i++ {
		if err := pool.Submit(ctx, i); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	// Stop drains the queue before returning
	pool.Stop()

	if processed.Load() != 5 {
		t.Errorf("expected 5 jobs processed, got %d", processed.Load())
	}
}

func TestPool_ConcurrentSubmit(t *testing.T) {
	var processed atomic.Int64
	processor := func(ctx context.Context, job int) error {
		processed.Add(1)
		return nil
	}

	pool := NewPool("test", 4, 100, processor)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			pool.Submit(ctx, n)
		}(i)
	}
	wg.Wait()

	pool.Stop()

	if processed.Load() != 100 {
		t.Errorf("expected 100 jobs processed, got %d", processed.Load())
	}
}

func TestPool_ProcessorErrorsDoNotStopWorkers(t *testing.T) {
	var processed atomic.Int64
	processor := func(ctx context.Context, job int) error {
		processed.Add(1)
		if job%2 == 0 {
			return errors.New("boom")
		}
		return nil
	}

	pool := NewPool("test", 1, 10, processor)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	for i := 0; i < 6; i++ {
		pool.Submit(ctx, i)
	}
	pool.Stop()

	if processed.Load() != 6 {
		t.Errorf("expected 6 jobs processed, got %d", processed.Load())
	}
}

func TestPool_SubmitAfterStop(t *testing.T) {
	pool := NewPool("test", 1, 1, func(ctx context.Context, job int) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	pool.Stop()
	// Stop is idempotent
	pool.Stop()

	if err := pool.Submit(ctx, 1); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped, got %v", err)
	}
}

func TestPool_SubmitRespectsContext(t *testing.T) {
	// No workers are started, so the single buffer slot fills up.
	pool := NewPool("test", 1, 1, func(ctx context.Context, job int) error { return nil })

	if err := pool.Submit(context.Background(), 1); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := pool.Submit(ctx, 2); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}

	pool.Stop()
}

func TestPool_GracefulShutdown(t *testing.T) {
	var processed atomic.Int64
	processor := func(ctx context.Context, job int) error {
		time.Sleep(10 * time.Millisecond) // Simulate work
		processed.Add(1)
		return nil
	}

	pool := NewPool("test", 2, 50, processor)

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	for i := 0; i < 20; i++ {
		pool.Submit(ctx, i)
	}

	// Cancel immediately
	cancel()

	// Stop should wait for in-flight jobs
	done := make(chan struct{})
	go func() {
		pool.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pool.Stop() timed out")
	}

	t.Logf("processed %d jobs before shutdown", processed.Load())
}

func TestPool_ContextCancellation(t *testing.T) {
	var started atomic.Int64
	var completed atomic.Int64

	processor := func(ctx context.Context, job int) error {
		started.Add(1)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
			completed.Add(1)
			return nil
		}
	}

	pool := NewPool("test", 2, 10, processor)

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	for i := 0; i < 5; i++ {
		pool.Submit(ctx, i)
	}

	time.Sleep(50 * time.Millisecond)
	cancel()
	pool.Stop()

	if completed.Load() == 5 {
		t.Error("expected cancellation to cut jobs short")
	}
	t.Logf("started: %d, completed: %d", started.Load(), completed.Load())
}

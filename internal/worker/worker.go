package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var ErrStopped = errors.New("worker pool stopped")

type ProcessFunc[T any] func(ctx context.Context, job T) error

// Pool runs jobs of type T on a fixed number of goroutines fed by a
// buffered queue.
type Pool[T any] struct {
	name       string
	numWorkers int
	jobs       chan T
	processor  ProcessFunc[T]
	wg         sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

func NewPool[T any](name string, numWorkers int, bufferSize int, processor ProcessFunc[T]) *Pool[T] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if bufferSize < 0 {
		bufferSize = 0
	}
	return &Pool[T]{
		name:       name,
		numWorkers: numWorkers,
		jobs:       make(chan T, bufferSize),
		processor:  processor,
	}
}

func (p *Pool[T]) Start(ctx context.Context) {
	for i := 1; i <= p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

func (p *Pool[T]) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			if err := p.processor(ctx, job); err != nil {
				slog.Error("job failed", "pool", p.name, "worker", id, "error", err)
			}
		}
	}
}

// Submit queues job, blocking while the queue is full. It returns the
// context error if ctx ends first and ErrStopped after Stop.
func (p *Pool[T]) Submit(ctx context.Context, job T) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrStopped
	}

	select {
	case p.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop closes the queue and waits for the workers. Queued jobs are still
// processed unless the Start context has been cancelled.
func (p *Pool[T]) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
}

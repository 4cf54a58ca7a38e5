package utils

import (
	"context"
	"runtime"
	"sync"
)

const (
	MaxWorkers       = 32
	WorkerBufferSize = 4
)

// WorkerPool runs handler over submitted tasks on a fixed set of goroutines.
type WorkerPool[T any] struct {
	workers   int
	ctx       context.Context
	wg        sync.WaitGroup
	taskQueue chan T
	handler   func(T)
}

// Workers resolves a configured worker count: 0 or less means NumCPU, capped at MaxWorkers.
func Workers(n int) int {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if n > MaxWorkers {
		n = MaxWorkers
	}
	return n
}

func NewWorkerPool[T any](ctx context.Context, workers int, handler func(T)) *WorkerPool[T] {
	workers = Workers(workers)
	return &WorkerPool[T]{
		workers:   workers,
		ctx:       ctx,
		taskQueue: make(chan T, workers*WorkerBufferSize),
		handler:   handler,
	}
}

// Workers returns the effective number of goroutines.
func (p *WorkerPool[T]) Workers() int {
	return p.workers
}

func (p *WorkerPool[T]) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *WorkerPool[T]) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case task, ok := <-p.taskQueue:
			if !ok {
				return
			}
			p.handler(task)
		}
	}
}

// Submit queues a task. It returns false when the pool context is done.
func (p *WorkerPool[T]) Submit(task T) bool {
	select {
	case <-p.ctx.Done():
		return false
	case p.taskQueue <- task:
		return true
	}
}

// Stop closes the queue and waits for in-flight tasks.
func (p *WorkerPool[T]) Stop() {
	close(p.taskQueue)
	p.wg.Wait()
}

type indexed[T any] struct {
	i    int
	item T
}

// ForEach applies fn to every item on a pool of workers. The first error
// cancels the remaining work and is returned.
func ForEach[T any](ctx context.Context, workers int, items []T, fn func(ctx context.Context, i int, item T) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		once     sync.Once
		firstErr error
	)
	pool := NewWorkerPool(ctx, workers, func(t indexed[T]) {
		if ctx.Err() != nil {
			return
		}
		if err := fn(ctx, t.i, t.item); err != nil {
			once.Do(func() {
				firstErr = err
				cancel()
			})
		}
	})
	pool.Start()
	for i, item := range items {
		if !pool.Submit(indexed[T]{i: i, item: item}) {
			break
		}
	}
	pool.Stop()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

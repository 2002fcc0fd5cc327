package backend

import (
	"context"
	"errors"
	"sync"
)

var errPoolClosed = errors.New("worker pool closed")

// WorkerPool runs blocking database work on a fixed set of goroutines, sized
// independently of how many requests are in flight.
type WorkerPool struct {
	jobs   chan func()
	quit   chan struct{}
	wg     sync.WaitGroup
	closed sync.Once
}

// NewWorkerPool starts size workers.
func NewWorkerPool(size int) *WorkerPool {
	if size < 1 {
		size = 1
	}
	p := &WorkerPool{
		jobs: make(chan func()),
		quit: make(chan struct{}),
	}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.work()
	}
	return p
}

func (p *WorkerPool) work() {
	defer p.wg.Done()
	for {
		select {
		case job := <-p.jobs:
			job()
		case <-p.quit:
			return
		}
	}
}

// Submit hands job to an idle worker, waiting until one is free or ctx ends.
// Once Submit returns nil the job is guaranteed to run.
func (p *WorkerPool) Submit(ctx context.Context, job func()) error {
	select {
	case <-p.quit:
		return errPoolClosed
	default:
	}
	select {
	case p.jobs <- job:
		return nil
	case <-p.quit:
		return errPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the workers after their current jobs finish.
func (p *WorkerPool) Close() {
	p.closed.Do(func() {
		close(p.quit)
		p.wg.Wait()
	})
}

package sms

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type Job func(ctx context.Context) error

type WorkerPool struct {
	workers    int
	jobTimeout time.Duration
	jobs       chan Job
	wg         sync.WaitGroup
	errs       chan error

	mu     sync.RWMutex
	closed bool
}

func NewWorkerPool(workers, queueSize int, jobTimeout time.Duration) *WorkerPool {
	return &WorkerPool{
		workers:    workers,
		jobTimeout: jobTimeout,
		jobs:       make(chan Job, queueSize),
		errs:       make(chan error, workers),
	}
}

// Start launches the workers. Job errors are reported on the returned channel,
// which must be drained; it is closed by Close.
func (p *WorkerPool) Start(ctx context.Context) <-chan error {
	for i := 0; i < p.workers; i++ {
		go func(workerID int) {
			for job := range p.jobs {
				jctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.jobTimeout)
				if err := job(jctx); err != nil {
					p.errs <- fmt.Errorf("worker %d job failed: %w", workerID, err)
				}
				cancel()
				p.wg.Done()
			}
		}(i)
	}

	return p.errs
}

// QueueJob blocks until the job is queued, ctx is done or the pool is
// closed. It reports whether the job was queued.
func (p *WorkerPool) QueueJob(ctx context.Context, job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}

	p.wg.Add(1)
	select {
	case p.jobs <- job:
		return true
	case <-ctx.Done():
		p.wg.Done() // job not scheduled so undo add
		return false
	}
}

func (p *WorkerPool) Wait() {
	p.wg.Wait()
}

// Close stops accepting jobs, waits for queued ones to finish and closes the
// error channel.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
	close(p.errs)
}

package main

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

type Job func(ctx context.Context) error

// WorkerPool runs simulated phones. Every job is one text, possibly split
// into several webhook calls.
type WorkerPool struct {
	workers    int
	jobTimeout time.Duration
	jobs       chan Job
	wg         sync.WaitGroup
	errs       chan error
	closed     chan struct{}
	closeOnce  sync.Once

	completed atomic.Int64
	failed    atomic.Int64
}

func NewWorkerPool(workers int, jobTimeout time.Duration) *WorkerPool {
	return &WorkerPool{
		workers:    workers,
		jobTimeout: jobTimeout,
		jobs:       make(chan Job, workers),
		errs:       make(chan error, workers),
		closed:     make(chan struct{}),
	}
}

func (p *WorkerPool) Start(ctx context.Context) <-chan error {
	for i := range p.workers {
		go func(workerID int) {
			for job := range p.jobs {
				jctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.jobTimeout)
				if err := job(jctx); err != nil {
					p.failed.Add(1)
					p.errs <- fmt.Errorf("phone %d text failed: %w", workerID, err)
				} else {
					p.completed.Add(1)
				}
				cancel()
				p.wg.Done()
			}
		}(i)
	}

	return p.errs
}

func (p *WorkerPool) QueueJob(job Job) {
	select {
	case <-p.closed:
		return // nop if pool is closed
	default:
	}

	p.wg.Add(1)
	select {
	case p.jobs <- job:
	case <-p.closed:
		p.wg.Done() // job not scheduled so undo add
	}
}

func (p *WorkerPool) Completed() int64 {
	return p.completed.Load()
}

func (p *WorkerPool) Failed() int64 {
	return p.failed.Load()
}

func (p *WorkerPool) Close() {
	p.closeOnce.Do(func() {
		close(p.closed)
		p.wg.Wait()
		close(p.jobs)
		close(p.errs)
	})
}

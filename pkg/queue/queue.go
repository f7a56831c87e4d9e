// Package queue provides the bounded worker pool that runs identification
// jobs off the request-accepting goroutines.
package queue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/pastefind/pastefind/pkg/logger"
)

var log *logrus.Entry

func init() {
	log = logger.WithName("queue")
}

// Job is a unit of identification work. Execute receives the pool's
// lifetime context; jobs that carry a per-request context should stop on
// whichever ends first.
type Job interface {
	ID() string
	Execute(ctx context.Context)
}

// Stats is a snapshot of pool counters.
type Stats struct {
	Queued    int64
	Processed int64
}

// Pool is a fixed-size worker pool with a bounded job queue. Submit never
// blocks: a full queue is reported to the caller so the transport layer can
// shed load instead of stacking goroutines.
type Pool struct {
	workers int
	jobs    chan Job

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool
	closed  atomic.Bool

	queued    atomic.Int64
	processed atomic.Int64
}

// NewPool creates a pool with the given worker count and queue capacity.
func NewPool(workers, queueSize int) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		workers: workers,
		jobs:    make(chan Job, queueSize),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the workers. Calling Start twice is a no-op.
func (p *Pool) Start() {
	if p.started.Swap(true) {
		return
	}
	log.WithField("workers", p.workers).Info("Starting worker pool")
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	workerLog := log.WithField("workerID", id)
	workerLog.Debug("Worker started")

	for {
		select {
		case job, ok := <-p.jobs:
			if !ok {
				workerLog.Debug("Worker stopped")
				return
			}
			workerLog.WithField("jobID", job.ID()).Debug("Processing job")
			job.Execute(p.ctx)
			p.processed.Add(1)
		case <-p.ctx.Done():
			workerLog.Debug("Worker cancelled")
			return
		}
	}
}

// Submit enqueues a job. It fails fast when the pool is stopped or the
// queue is full.
func (p *Pool) Submit(job Job) error {
	if p.closed.Load() {
		return fmt.Errorf("worker pool is closed")
	}
	select {
	case p.jobs <- job:
		p.queued.Add(1)
		return nil
	case <-p.ctx.Done():
		return fmt.Errorf("worker pool is shutting down")
	default:
		return fmt.Errorf("job queue is full")
	}
}

// Stop drains queued jobs and waits for workers to finish.
func (p *Pool) Stop() {
	if p.closed.Swap(true) {
		return
	}
	log.Info("Stopping worker pool")
	close(p.jobs)
	p.wg.Wait()
	log.Info("Worker pool stopped")
}

// Cancel aborts the pool without draining the queue.
func (p *Pool) Cancel() {
	if p.closed.Swap(true) {
		return
	}
	p.cancel()
	p.wg.Wait()
	log.Info("Worker pool cancelled")
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Queued:    p.queued.Load(),
		Processed: p.processed.Load(),
	}
}

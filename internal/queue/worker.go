package queue

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jonesrussell/north-cloud/brainhub/internal/domain"
	"github.com/jonesrussell/north-cloud/brainhub/internal/platform/logger"
)

// WorkerState is the lifecycle a pooled worker moves through.
type WorkerState int32

const (
	WorkerIdle WorkerState = iota
	WorkerBusy
	WorkerStopping
	WorkerStopped
)

func (s WorkerState) String() string {
	switch s {
	case WorkerIdle:
		return "idle"
	case WorkerBusy:
		return "busy"
	case WorkerStopping:
		return "stopping"
	case WorkerStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Handler processes one leased job. Returning an error sends the job to
// Retry; returning nil completes it.
type Handler func(ctx context.Context, job *domain.JobRow) error

// worker is one goroutine in a Pool, tracking its own state and stats so the
// pool can report health without locking.
type worker struct {
	id int
	state atomic.Int32
	handler Handler
	jobTimeout time.Duration
	log logger.Logger

	jobsProcessed atomic.Int64
	jobsSucceeded atomic.Int64
	jobsFailed atomic.Int64
	lastJobAt atomic.Int64
}

func newWorker(id int, handler Handler, jobTimeout time.Duration, log logger.Logger) *worker {
	w := &worker{id: id, handler: handler, jobTimeout: jobTimeout, log: log}
	w.state.Store(int32(WorkerIdle))
	return w
}

func (w *worker) process(ctx context.Context, job *domain.JobRow) error {
	if !w.state.CompareAndSwap(int32(WorkerIdle), int32(WorkerBusy)) {
		return fmt.Errorf("worker %d: not idle, state %s", w.id, WorkerState(w.state.Load()))
	}
	defer w.state.Store(int32(WorkerIdle))

	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	start := time.Now()
	err := w.handler(jobCtx, job)
	duration := time.Since(start)

	w.jobsProcessed.Add(1)
	w.lastJobAt.Store(time.Now().UnixNano())

	if err != nil {
		w.jobsFailed.Add(1)
		w.log.Error("worker job failed",
			logger.Int("worker_id", w.id),
			logger.Int64("job_id", job.ID),
			logger.Duration("duration", duration),
			logger.Error(err),
		)
		return err
	}

	w.jobsSucceeded.Add(1)
	w.log.Info("worker job completed",
		logger.Int("worker_id", w.id),
		logger.Int64("job_id", job.ID),
		logger.Duration("duration", duration),
	)
	return nil
}

func (w *worker) stop() { w.state.Store(int32(WorkerStopping)) }

// Pool pulls leases for one queue and dispatches them across a fixed set of
// workers, adapted from the monorepo's worker pool (one job handler, N
// goroutines, atomic per-worker state) and generalized from an in-memory
// consumed-job channel to repeated database leases.
type Pool struct {
	repo *Repository
	queueName string
	workers []*worker
	handler Handler
	batchSize int
	pollEvery time.Duration
	jobTimeout time.Duration
	log logger.Logger

	stopCh chan struct{}
	doneCh chan struct{}
}

// PoolConfig configures a Pool.
type PoolConfig struct {
	QueueName string
	Concurrency int
	BatchSize int
	PollEvery time.Duration
	JobTimeout time.Duration
}

// SetDefaults fills in zero fields with the monorepo's usual worker-pool
// defaults (concurrency 4, poll every second, per-job timeout 5 minutes).
func (c *PoolConfig) SetDefaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.BatchSize <= 0 {
		c.BatchSize = c.Concurrency
	}
	if c.PollEvery <= 0 {
		c.PollEvery = time.Second
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = 5 * time.Minute
	}
}

// NewPool builds a worker pool bound to a single queue name.
func NewPool(repo *Repository, cfg PoolConfig, handler Handler, log logger.Logger) *Pool {
	cfg.SetDefaults()
	workers := make([]*worker, cfg.Concurrency)
	for i := range workers {
		workers[i] = newWorker(i, handler, cfg.JobTimeout, log)
	}
	return &Pool{
		repo: repo,
		queueName: cfg.QueueName,
		workers: workers,
		handler: handler,
		batchSize: cfg.BatchSize,
		pollEvery: cfg.PollEvery,
		jobTimeout: cfg.JobTimeout,
		log: log.With(logger.String("queue", cfg.QueueName)),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start runs the poll loop until ctx is cancelled or Stop is called.
func (p *Pool) Start(ctx context.Context) {
	go p.loop(ctx)
}

// Stop signals the poll loop to exit and blocks until it does.
func (p *Pool) Stop() {
	close(p.stopCh)
	<-p.doneCh
	for _, w := range p.workers {
		w.stop()
	}
}

func (p *Pool) loop(ctx context.Context) {
	defer close(p.doneCh)
	ticker := time.NewTicker(p.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.drain(ctx)
		}
	}
}

func (p *Pool) drain(ctx context.Context) {
	idle := p.idleWorkers()
	if len(idle) == 0 {
		return
	}

	jobs, err := p.repo.Lease(ctx, p.queueName, min(len(idle), p.batchSize))
	if err != nil {
		p.log.Error("lease failed", logger.Error(err))
		return
	}

	for i, job := range jobs {
		w := idle[i]
		go p.run(ctx, w, job)
	}
}

func (p *Pool) run(ctx context.Context, w *worker, job *domain.JobRow) {
	if err := w.process(ctx, job); err != nil {
		if retryErr := p.repo.Retry(ctx, job); retryErr != nil {
			p.log.Error("retry bookkeeping failed", logger.Int64("job_id", job.ID), logger.Error(retryErr))
		}
		return
	}
	if err := p.repo.Complete(ctx, job.ID); err != nil {
		p.log.Error("complete bookkeeping failed", logger.Int64("job_id", job.ID), logger.Error(err))
	}
}

func (p *Pool) idleWorkers() []*worker {
	var idle []*worker
	for _, w := range p.workers {
		if WorkerState(w.state.Load()) == WorkerIdle {
			idle = append(idle, w)
		}
	}
	return idle
}

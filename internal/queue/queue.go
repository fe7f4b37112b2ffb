package queue

import (
	"context"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jonesrussell/north-cloud/brainhub/internal/domain"
	"github.com/jonesrussell/north-cloud/brainhub/internal/platform/logger"
)

// Queue is the durable job queue's public entry point: createQueue/send/
// schedule/offWork in one object, matching operation set.
type Queue struct {
	repo *Repository
	cron *CronRunner
	monitor *Monitor
	log logger.Logger

	mu sync.Mutex
	pools map[string]*Pool
}

// New builds a Queue over an existing *sqlx.DB connection. Call Start to
// begin cron ticking and the archival monitor.
func New(db *sqlx.DB, monitorCfg MonitorConfig, reg prometheus.Registerer, log logger.Logger) *Queue {
	repo := NewRepository(db)
	return &Queue{
		repo: repo,
		cron: NewCronRunner(repo, log),
		monitor: NewMonitor(repo, monitorCfg, reg, log),
		log: log.With(logger.String("component", "queue")),
		pools: make(map[string]*Pool),
	}
}

// Send enqueues one job onto a named queue ( send()).
func (q *Queue) Send(ctx context.Context, queueName string, data any, opts domain.SendOptions) (int64, error) {
	return q.repo.Send(ctx, queueName, data, opts)
}

// Schedule upserts a named cron binding ( schedule()/unschedule()).
func (q *Queue) Schedule(ctx context.Context, s domain.Schedule) error {
	return q.cron.Upsert(ctx, s)
}

// Unschedule removes a named cron binding.
func (q *Queue) Unschedule(ctx context.Context, name string) error {
	return q.cron.Remove(ctx, name)
}

// TriggerNow fires a schedule immediately, outside its cron clock, used by
// the supervisor's triggerNow operation.
func (q *Queue) TriggerNow(ctx context.Context, name string) error {
	s, err := q.repo.GetSchedule(ctx, name)
	if err != nil {
		return err
	}
	if s == nil {
		return ErrJobNotFound
	}
	return q.cron.TriggerNow(ctx, *s)
}

// Work registers a handler for queueName and starts its worker pool (
// offWork()'s counterpart: "work" rather than stop).
func (q *Queue) Work(ctx context.Context, cfg PoolConfig, handler Handler) {
	pool := NewPool(q.repo, cfg, handler, q.log)

	q.mu.Lock()
	q.pools[cfg.QueueName] = pool
	q.mu.Unlock()

	pool.Start(ctx)
}

// OffWork stops the worker pool bound to queueName, if any ( offWork()).
func (q *Queue) OffWork(queueName string) {
	q.mu.Lock()
	pool, ok := q.pools[queueName]
	delete(q.pools, queueName)
	q.mu.Unlock()

	if ok {
		pool.Stop()
	}
}

// Start begins cron ticking and the archival/monitor background loop.
func (q *Queue) Start(ctx context.Context) error {
	if err := q.cron.Start(ctx); err != nil {
		return err
	}
	go q.monitor.Run(ctx)
	return nil
}

// Stop halts cron ticking and every registered worker pool.
func (q *Queue) Stop() {
	q.cron.Stop()

	q.mu.Lock()
	pools := make([]*Pool, 0, len(q.pools))
	for _, p := range q.pools {
		pools = append(pools, p)
	}
	q.pools = make(map[string]*Pool)
	q.mu.Unlock()

	for _, p := range pools {
		p.Stop()
	}
}

// Repository exposes the underlying repository for components (schedulers,
// admin endpoints) that need direct read access beyond send/schedule.
func (q *Queue) Repository() *Repository {
	return q.repo
}

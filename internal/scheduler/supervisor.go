// Package scheduler holds the Scheduled-Job Supervisor base type and the
// concrete jobs built on it, adapted from the monorepo's DBScheduler/
// AbstractSupervisor pair (internal/job/cron_manager.go,
// internal/job/supervisor.go): one queue name doubling as the schedule name,
// one registered worker pool, optional cron binding.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jonesrussell/north-cloud/brainhub/internal/domain"
	"github.com/jonesrussell/north-cloud/brainhub/internal/platform/logger"
	"github.com/jonesrussell/north-cloud/brainhub/internal/queue"
)

// State is the Supervisor's lifecycle, matching state machine:
// uninitialized -> worker-registered -> {scheduled | unscheduled} -> stopped.
type State int

const (
	StateUninitialized State = iota
	StateWorkerRegistered
	StateScheduled
	StateUnscheduled
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateWorkerRegistered:
		return "worker-registered"
	case StateScheduled:
		return "scheduled"
	case StateUnscheduled:
		return "unscheduled"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Supervisor is the base every concrete scheduled job embeds. taskName is
// used as both the queue name a worker pool drains and the schedule name a
// cron binding fires into, so a job and its trigger always share identity.
type Supervisor struct {
	taskName string
	defaultCron string
	body queue.Handler
	q *queue.Queue
	poolCfg queue.PoolConfig
	log logger.Logger

	mu sync.Mutex
	state State
	cron string
}

// NewSupervisor builds a Supervisor bound to taskName. body is the handler
// run for every leased job; poolCfg configures its worker pool (QueueName is
// forced to taskName regardless of what the caller sets).
func NewSupervisor(taskName, defaultCron string, body queue.Handler, q *queue.Queue, poolCfg queue.PoolConfig, log logger.Logger) *Supervisor {
	poolCfg.QueueName = taskName
	return &Supervisor{
		taskName: taskName,
		defaultCron: defaultCron,
		body: body,
		q: q,
		poolCfg: poolCfg,
		log: log.With(logger.String("task", taskName)),
		state: StateUninitialized,
	}
}

// TaskName reports the supervisor's queue/schedule identity.
func (s *Supervisor) TaskName() string { return s.taskName }

// Initialize registers the worker pool. If cron is non-empty it is used in
// place of the job's default cron; an empty defaultCron with an empty cron
// argument leaves the job worker-registered but unscheduled (:
// RecommendJob is "only initialized if at least one follow exists" — callers
// decide whether to call Initialize at all, and whether to pass a cron).
func (s *Supervisor) Initialize(ctx context.Context, cron string) error {
	s.mu.Lock()
	if s.state != StateUninitialized {
		s.mu.Unlock()
		return fmt.Errorf("scheduler: %s already initialized (state %s)", s.taskName, s.state)
	}
	s.mu.Unlock()

	s.q.Work(ctx, s.poolCfg, s.body)

	s.mu.Lock()
	s.state = StateWorkerRegistered
	s.mu.Unlock()

	effectiveCron := cron
	if effectiveCron == "" {
		effectiveCron = s.defaultCron
	}
	if effectiveCron == "" {
		s.mu.Lock()
		s.state = StateUnscheduled
		s.mu.Unlock()
		return nil
	}
	return s.Start(ctx, effectiveCron, false)
}

// Start binds (or rebinds) the job's cron schedule. An empty cron falls back
// to the job's default. runImmediately additionally enqueues one job outside
// the cron clock.
func (s *Supervisor) Start(ctx context.Context, cron string, runImmediately bool) error {
	if cron == "" {
		cron = s.defaultCron
	}
	if cron == "" {
		return fmt.Errorf("scheduler: %s has no cron to start with", s.taskName)
	}

	if err := s.q.Schedule(ctx, domain.Schedule{Name: s.taskName, Cron: cron, Data: json.RawMessage("{}")}); err != nil {
		return fmt.Errorf("scheduler: schedule %s: %w", s.taskName, err)
	}

	s.mu.Lock()
	s.cron = cron
	s.state = StateScheduled
	s.mu.Unlock()

	if runImmediately {
		if _, err := s.TriggerNow(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Stop unschedules the job, if scheduled, and stops its worker pool.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	wasScheduled := s.state == StateScheduled
	s.mu.Unlock()

	if wasScheduled {
		if err := s.q.Unschedule(ctx, s.taskName); err != nil {
			return fmt.Errorf("scheduler: unschedule %s: %w", s.taskName, err)
		}
	}
	s.q.OffWork(s.taskName)

	s.mu.Lock()
	s.state = StateStopped
	s.mu.Unlock()
	return nil
}

// SetCron rebinds the job to a new cron expression, replacing any previous
// binding.
func (s *Supervisor) SetCron(ctx context.Context, cron string) error {
	return s.Start(ctx, cron, false)
}

// TriggerNow enqueues one job immediately, outside the cron clock, returning
// the new job's id.
func (s *Supervisor) TriggerNow(ctx context.Context) (int64, error) {
	return s.q.Send(ctx, s.taskName, nil, domain.DefaultSendOptions())
}

// GetSchedule returns the job's persisted schedule row, or nil if it has
// none.
func (s *Supervisor) GetSchedule(ctx context.Context) (*domain.Schedule, error) {
	return s.q.Repository().GetSchedule(ctx, s.taskName)
}

// IsScheduled reports whether the supervisor currently holds a cron binding.
func (s *Supervisor) IsScheduled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateScheduled
}

// StateValue reports the supervisor's current lifecycle state.
func (s *Supervisor) StateValue() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

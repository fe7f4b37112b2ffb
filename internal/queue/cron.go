package queue

import (
	"context"
	"sync"
	"time"

	cron "github.com/robfig/cron/v3"

	"github.com/jonesrussell/north-cloud/brainhub/internal/domain"
	"github.com/jonesrussell/north-cloud/brainhub/internal/platform/logger"
)

// CronRunner ticks robfig/cron entries and turns firings into Send calls,
// adapted from the monorepo's DBScheduler (internal/job/cron_manager.go):
// one cron.Cron instance, one entry per schedule name, entries rebuilt from
// the database on reload. Missed firings while the process was down are
// collapsed into a single catch-up job rather than replayed one-by-one.
type CronRunner struct {
	repo *Repository
	cron *cron.Cron
	log logger.Logger
	entries map[string]cron.EntryID
	mu sync.Mutex
}

// NewCronRunner builds a CronRunner backed by repo.
func NewCronRunner(repo *Repository, log logger.Logger) *CronRunner {
	return &CronRunner{
		repo: repo,
		cron: cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
		log: log.With(logger.String("component", "cron_runner")),
		entries: make(map[string]cron.EntryID),
	}
}

// Start begins ticking and performs one missed-fire sweep for every known
// schedule before doing so.
func (c *CronRunner) Start(ctx context.Context) error {
	if err := c.Reload(ctx); err != nil {
		return err
	}
	c.cron.Start()
	return nil
}

// Stop halts ticking; in-flight Send calls are allowed to finish.
func (c *CronRunner) Stop() {
	<-c.cron.Stop().Done()
}

// Reload rebuilds all cron entries from the schedule table, catching up any
// schedule that missed its last expected firing while collapsing the catch
// up into a single immediate Send.
func (c *CronRunner) Reload(ctx context.Context) error {
	schedules, err := c.repo.GetSchedules(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	for name, id := range c.entries {
		c.cron.Remove(id)
		delete(c.entries, name)
	}
	c.mu.Unlock()

	for _, s := range schedules {
		if err := c.register(s); err != nil {
			c.log.Error("failed to register schedule", logger.String("schedule", s.Name), logger.Error(err))
			continue
		}
		c.catchUpIfMissed(ctx, s)
	}
	return nil
}

// Upsert registers or replaces one schedule and persists it.
func (c *CronRunner) Upsert(ctx context.Context, s domain.Schedule) error {
	if err := c.repo.UpsertSchedule(ctx, s); err != nil {
		return err
	}
	c.mu.Lock()
	if id, ok := c.entries[s.Name]; ok {
		c.cron.Remove(id)
		delete(c.entries, s.Name)
	}
	c.mu.Unlock()
	return c.register(s)
}

// Remove unschedules a schedule by name.
func (c *CronRunner) Remove(ctx context.Context, name string) error {
	c.mu.Lock()
	if id, ok := c.entries[name]; ok {
		c.cron.Remove(id)
		delete(c.entries, name)
	}
	c.mu.Unlock()
	return c.repo.DeleteSchedule(ctx, name)
}

// TriggerNow fires a schedule's queue immediately, bypassing the cron clock.
func (c *CronRunner) TriggerNow(ctx context.Context, s domain.Schedule) error {
	_, err := c.repo.Send(ctx, s.Name, s.Data, domain.DefaultSendOptions())
	if err != nil {
		return err
	}
	return c.repo.MarkFired(ctx, s.Name, time.Now())
}

func (c *CronRunner) register(s domain.Schedule) error {
	name := s.Name
	schedule := s
	id, err := c.cron.AddFunc(s.Cron, func() {
		ctx := context.Background()
		if _, sendErr := c.repo.Send(ctx, schedule.Name, schedule.Data, domain.DefaultSendOptions()); sendErr != nil {
			c.log.Error("cron send failed", logger.String("schedule", name), logger.Error(sendErr))
			return
		}
		if markErr := c.repo.MarkFired(ctx, schedule.Name, time.Now()); markErr != nil {
			c.log.Error("mark fired failed", logger.String("schedule", name), logger.Error(markErr))
		}
	})
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.entries[name] = id
	c.mu.Unlock()
	return nil
}

// catchUpIfMissed emits exactly one catch-up job when the schedule's
// computed previous firing time is after its recorded LastFired, collapsing
// any number of missed firings during downtime into that single job.
func (c *CronRunner) catchUpIfMissed(ctx context.Context, s *domain.Schedule) {
	if s.LastFired == nil {
		return
	}
	schedule, err := cron.ParseStandard(s.Cron)
	if err != nil {
		c.log.Error("cannot parse cron for catch-up check", logger.String("schedule", s.Name), logger.Error(err))
		return
	}
	next := schedule.Next(*s.LastFired)
	if next.After(time.Now()) {
		return
	}
	c.log.Info("collapsing missed firings into one catch-up job", logger.String("schedule", s.Name))
	if _, err := c.repo.Send(ctx, s.Name, s.Data, domain.DefaultSendOptions()); err != nil {
		c.log.Error("catch-up send failed", logger.String("schedule", s.Name), logger.Error(err))
		return
	}
	if err := c.repo.MarkFired(ctx, s.Name, time.Now()); err != nil {
		c.log.Error("catch-up mark fired failed", logger.String("schedule", s.Name), logger.Error(err))
	}
}

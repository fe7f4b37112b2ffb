package queue

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jonesrussell/north-cloud/brainhub/internal/platform/logger"
)

const (
	metricsNamespace = "brainhub"
	metricsSubsystem = "queue"
)

// Monitor polls job state counts and exposes them as Prometheus gauges,
// grounded on the monorepo's scheduler Metrics (one GaugeVec per dimension
// rather than a gauge per state), and also drives archival of terminal jobs
// past their retention window.
type Monitor struct {
	repo *Repository
	log logger.Logger
	state *prometheus.GaugeVec

	archiveAfter time.Duration
	purgeAfter time.Duration
	pollEvery time.Duration
}

// MonitorConfig configures Monitor's polling cadence and archival policy.
type MonitorConfig struct {
	PollEvery time.Duration
	ArchiveAfter time.Duration
	PurgeAfter time.Duration
}

// SetDefaults mirrors default archival policy.
func (c *MonitorConfig) SetDefaults() {
	if c.PollEvery <= 0 {
		c.PollEvery = 15 * time.Second
	}
	if c.ArchiveAfter <= 0 {
		c.ArchiveAfter = 7 * 24 * time.Hour
	}
	if c.PurgeAfter <= 0 {
		c.PurgeAfter = 90 * 24 * time.Hour
	}
}

// NewMonitor registers the queue-depth gauge on reg (nil uses the default
// registerer) and returns a Monitor ready to Run.
func NewMonitor(repo *Repository, cfg MonitorConfig, reg prometheus.Registerer, log logger.Logger) *Monitor {
	cfg.SetDefaults()
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gauge := promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name: "jobs_by_state",
		Help: "Number of job rows currently in each state",
	}, []string{"state"})

	return &Monitor{
		repo: repo,
		log: log.With(logger.String("component", "queue_monitor")),
		state: gauge,
		archiveAfter: cfg.ArchiveAfter,
		purgeAfter: cfg.PurgeAfter,
		pollEvery: cfg.PollEvery,
	}
}

// Run blocks, polling state counts and running archival sweeps until ctx is
// cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

func (m *Monitor) tick(ctx context.Context) {
	counts, err := m.repo.StateCounts(ctx)
	if err != nil {
		m.log.Error("state count poll failed", logger.Error(err))
	} else {
		for _, state := range []string{"created", "active", "retry", "completed", "failed", "cancelled"} {
			m.state.WithLabelValues(state).Set(0)
		}
		for state, count := range counts {
			m.state.WithLabelValues(string(state)).Set(float64(count))
		}
	}

	n, err := m.repo.ReclaimExpiredLeases(ctx, 10*time.Minute)
	if err != nil {
		m.log.Error("lease reclaim failed", logger.Error(err))
	} else if n > 0 {
		m.log.Info("reclaimed expired leases", logger.Int("count", n))
	}

	archived, err := m.repo.ArchiveCompleted(ctx, m.archiveAfter)
	if err != nil {
		m.log.Error("archive sweep failed", logger.Error(err))
	} else if archived > 0 {
		m.log.Info("archived terminal jobs", logger.Int("count", archived))
	}

	purged, err := m.repo.DeleteArchived(ctx, m.purgeAfter)
	if err != nil {
		m.log.Error("purge sweep failed", logger.Error(err))
	} else if purged > 0 {
		m.log.Info("purged archived jobs", logger.Int("count", purged))
	}
}

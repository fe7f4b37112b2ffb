package scheduler

import (
	"context"
	"time"

	"github.com/jonesrussell/north-cloud/brainhub/internal/database"
	"github.com/jonesrussell/north-cloud/brainhub/internal/domain"
	"github.com/jonesrussell/north-cloud/brainhub/internal/platform/logger"
	"github.com/jonesrussell/north-cloud/brainhub/internal/queue"
)

// ArchiveJob archives notes older than the configured threshold, reading
// AppConfig.AutoArchivedDays fresh on every run so an admin change takes
// effect on the next firing without a restart.
type ArchiveJob struct {
	*Supervisor
	notes *database.NoteRepository
	config *database.AppConfigRepository
	log logger.Logger
}

// NewArchiveJob builds the archive sweep job. It fires once a day by
// default.
func NewArchiveJob(q *queue.Queue, notes *database.NoteRepository, config *database.AppConfigRepository, log logger.Logger) *ArchiveJob {
	j := &ArchiveJob{notes: notes, config: config, log: log.With(logger.String("job", "archive"))}
	j.Supervisor = NewSupervisor("archive-job", "0 3 * * *", j.run, q, queue.PoolConfig{Concurrency: 1}, log)
	return j
}

func (j *ArchiveJob) run(ctx context.Context, _ *domain.JobRow) error {
	cfg, err := j.config.Get(ctx)
	if err != nil {
		return err
	}
	days := cfg.AutoArchivedDays
	if days <= 0 {
		days = 30
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	archived, err := j.notes.ArchiveOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	j.log.Info("archive sweep complete", logger.Int("archived", archived))
	return nil
}

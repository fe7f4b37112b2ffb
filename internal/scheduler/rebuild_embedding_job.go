package scheduler

import (
	"context"

	"github.com/jonesrussell/north-cloud/brainhub/internal/domain"
	"github.com/jonesrussell/north-cloud/brainhub/internal/embedding"
	"github.com/jonesrussell/north-cloud/brainhub/internal/platform/logger"
	"github.com/jonesrussell/north-cloud/brainhub/internal/queue"
)

// rebuildJobData carries the owner and mode a RebuildEmbeddingJob run
// applies to; the scheduled firing (no payload) runs an incremental
// rebuild for OwnerID 0. Owners are not iterated.
type rebuildJobData struct {
	OwnerID int64 `json:"ownerId"`
	Incremental bool `json:"incremental"`
}

// RebuildEmbeddingJob is a thin supervisor wrapper around embedding.Engine's
// Rebuild, giving it the same schedule/trigger/stop contract as every other
// scheduled job.
type RebuildEmbeddingJob struct {
	*Supervisor
	engine *embedding.Engine
	log logger.Logger
}

// NewRebuildEmbeddingJob builds the job. It fires nightly by default,
// running an incremental rebuild with the default payload.
func NewRebuildEmbeddingJob(q *queue.Queue, engine *embedding.Engine, log logger.Logger) *RebuildEmbeddingJob {
	j := &RebuildEmbeddingJob{engine: engine, log: log.With(logger.String("job", "rebuild-embedding"))}
	j.Supervisor = NewSupervisor("rebuild-embedding-job", "0 4 * * *", j.run, q, queue.PoolConfig{Concurrency: 1}, log)
	return j
}

func (j *RebuildEmbeddingJob) run(ctx context.Context, job *domain.JobRow) error {
	data, err := decodeOrDefault[rebuildJobData](job, rebuildJobData{Incremental: true})
	if err != nil {
		return err
	}
	if err := j.engine.Rebuild(ctx, data.OwnerID, data.Incremental); err != nil {
		return err
	}
	j.log.Info("embedding rebuild complete", logger.Int64("owner_id", data.OwnerID), logger.Bool("incremental", data.Incremental))
	return nil
}

package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/jonesrussell/north-cloud/brainhub/internal/database"
	"github.com/jonesrussell/north-cloud/brainhub/internal/domain"
	"github.com/jonesrussell/north-cloud/brainhub/internal/platform/logger"
	"github.com/jonesrussell/north-cloud/brainhub/internal/queue"
	"github.com/jonesrussell/north-cloud/brainhub/internal/storage"
)

// dbProgressKey is the progress_cache row DBJob publishes its backup/restore
// status into.
const dbProgressKey = "db_job"

// DBBackupProgress is the JSON shape published to ProgressCache while a
// backup or restore runs.
type DBBackupProgress struct {
	Op string `json:"op"`
	Path string `json:"path"`
	Done bool `json:"done"`
	Error string `json:"error,omitempty"`
	StartedAt time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt,omitempty"`
}

// dbJobData is the payload shape a DBJob job row carries: which operation to
// run, and against which archive path.
type dbJobData struct {
	Op string `json:"op"` // "backup" or "restore"
	Path string `json:"path"`
}

// DBJob runs ad hoc database backup/restore jobs by shelling out to
// pg_dump/pg_restore. A backup writes the dump to a local temporary file
// and uploads it to the blob store, so a restore can run against any
// configured BlobStore backend.
// Unlike the other scheduled jobs it has no default cron: it only ever runs
// via TriggerNow with an explicit payload.
type DBJob struct {
	*Supervisor
	dsn string
	blobs storage.BlobStore
	progress *database.ProgressCacheRepository
	log logger.Logger
}

// NewDBJob builds the backup/restore job. dsn is the Postgres connection
// string pg_dump/pg_restore connect with directly.
func NewDBJob(q *queue.Queue, dsn string, blobs storage.BlobStore, progress *database.ProgressCacheRepository, log logger.Logger) *DBJob {
	j := &DBJob{dsn: dsn, blobs: blobs, progress: progress, log: log.With(logger.String("job", "db"))}
	j.Supervisor = NewSupervisor("db-job", "", j.run, q, queue.PoolConfig{Concurrency: 1, JobTimeout: time.Hour}, log)
	return j
}

// TriggerBackup enqueues a backup run, dumping the database to path in the
// configured blob store.
func (j *DBJob) TriggerBackup(ctx context.Context, path string) (int64, error) {
	return j.q.Send(ctx, j.taskName, dbJobData{Op: "backup", Path: path}, domain.DefaultSendOptions())
}

// TriggerRestore enqueues a restore run, replaying the archive at path in
// the configured blob store against the live database.
func (j *DBJob) TriggerRestore(ctx context.Context, path string) (int64, error) {
	return j.q.Send(ctx, j.taskName, dbJobData{Op: "restore", Path: path}, domain.DefaultSendOptions())
}

func (j *DBJob) run(ctx context.Context, job *domain.JobRow) error {
	var data dbJobData
	if err := json.Unmarshal(job.Data, &data); err != nil {
		return fmt.Errorf("db job: unmarshal payload: %w", err)
	}

	progress := DBBackupProgress{Op: data.Op, Path: data.Path, StartedAt: time.Now()}
	j.publish(ctx, progress)

	var err error
	switch data.Op {
	case "backup":
		err = j.backup(ctx, data.Path)
	case "restore":
		err = j.restore(ctx, data.Path)
	default:
		err = fmt.Errorf("db job: unknown op %q", data.Op)
	}

	progress.Done = true
	progress.FinishedAt = time.Now()
	if err != nil {
		progress.Error = err.Error()
	}
	j.publish(ctx, progress)
	return err
}

func (j *DBJob) backup(ctx context.Context, path string) error {
	tmp, err := os.CreateTemp("", "brainhub-backup-*.dump")
	if err != nil {
		return fmt.Errorf("db backup: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	cmd := exec.CommandContext(ctx, "pg_dump", "--format=custom", "--file="+tmp.Name(), j.dsn)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("db backup: pg_dump: %w: %s", err, out)
	}

	data, err := os.ReadFile(tmp.Name())
	if err != nil {
		return fmt.Errorf("db backup: read dump: %w", err)
	}
	if err := j.blobs.UploadFile(ctx, path, data, "application/octet-stream"); err != nil {
		return fmt.Errorf("db backup: upload: %w", err)
	}
	return nil
}

func (j *DBJob) restore(ctx context.Context, path string) error {
	handle, err := j.blobs.GetFile(ctx, path)
	if err != nil {
		return fmt.Errorf("db restore: fetch archive: %w", err)
	}
	if handle.IsTemporary {
		defer handle.Cleanup()
	}

	cmd := exec.CommandContext(ctx, "pg_restore", "--clean", "--if-exists", "--dbname="+j.dsn, handle.LocalPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("db restore: pg_restore: %w: %s", err, out)
	}
	return nil
}

func (j *DBJob) publish(ctx context.Context, p DBBackupProgress) {
	if err := j.progress.Set(ctx, dbProgressKey, p); err != nil {
		j.log.Error("publish db job progress failed", logger.Error(err))
	}
}

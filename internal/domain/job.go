package domain

import (
	"encoding/json"
	"strconv"
	"time"
)

// JobState is the state machine a JobRow moves through. Terminal states are
// Completed, Failed, and Cancelled; Created and Active are live; Retry is a
// transient holding state between attempts.
type JobState string

const (
	JobCreated JobState = "created"
	JobActive JobState = "active"
	JobCompleted JobState = "completed"
	JobFailed JobState = "failed"
	JobCancelled JobState = "cancelled"
	JobRetry JobState = "retry"
)

// IsTerminal reports whether a job in this state will never transition again
// under normal operation (archival still applies to terminal jobs).
func (s JobState) IsTerminal() bool {
	switch s {
	case JobCompleted, JobFailed, JobCancelled:
		return true
	default:
		return false
	}
}

// JobRow is one durable work unit. LockToken/LockedAt model the lease that
// gives the queue its visibility-timeout semantics: a row with a non-nil
// LockToken whose LockedAt is older than the queue's lease duration is
// treated as abandoned and returned to Created, exactly like the monorepo's
// distributed job lock (AcquireLock/ReleaseLock/ClearStaleLocks) generalized
// from a single lock per crawl job to a lease per queue row.
type JobRow struct {
	ID int64 `db:"id" json:"id"`
	Queue string `db:"queue" json:"queue"`
	State JobState `db:"state" json:"state"`
	Data json.RawMessage `db:"data" json:"data"`
	RetryCount int `db:"retry_count" json:"retryCount"`
	RetryLimit int `db:"retry_limit" json:"retryLimit"`
	RetryDelay int `db:"retry_delay" json:"retryDelay"`
	RetryBackoff bool `db:"retry_backoff" json:"retryBackoff"`
	SingletonKey *string `db:"singleton_key" json:"singletonKey,omitempty"`
	LockToken *string `db:"lock_token" json:"lockToken,omitempty"`
	LockedAt *time.Time `db:"locked_at" json:"lockedAt,omitempty"`
	StartedAt *time.Time `db:"started_at" json:"startedAt,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	ArchivedAt *time.Time `db:"archived_at" json:"archivedAt,omitempty"`
}

// SendOptions configures how send() enqueues a job.
type SendOptions struct {
	RetryLimit int
	RetryDelay int
	RetryBackoff bool
	SingletonKey string
}

// DefaultSendOptions matches the archival policy's retry defaults.
func DefaultSendOptions() SendOptions {
	return SendOptions{RetryLimit: 3, RetryDelay: 60, RetryBackoff: true}
}

// Schedule is a named cron binding that emits one job per firing into a
// named queue. A schedule name is unique.
type Schedule struct {
	Name string `db:"name" json:"name"`
	Cron string `db:"cron" json:"cron"`
	Data json.RawMessage `db:"data" json:"data"`
	Tz string `db:"tz" json:"tz"`
	LastFired *time.Time `db:"last_fired" json:"lastFired,omitempty"`
}

// ProgressCache is the single-row JSON cache long-running jobs use to
// publish progress so a restart can resume.
type ProgressCache struct {
	Key string `db:"key" json:"key"`
	Value json.RawMessage `db:"value" json:"value"`
}

// UserScheduledTask is a per-user recurring prompt.
type UserScheduledTask struct {
	ID int64 `db:"id" json:"id"`
	OwnerID int64 `db:"owner_id" json:"ownerId"`
	Name string `db:"name" json:"name"`
	Prompt string `db:"prompt" json:"prompt"`
	Cron string `db:"cron" json:"cron"`
	Enabled bool `db:"enabled" json:"enabled"`
	LastRun *time.Time `db:"last_run" json:"lastRun,omitempty"`
	LastResult json.RawMessage `db:"last_result" json:"lastResult,omitempty"`
}

// TaskRunResult is the typed shape persisted into UserScheduledTask.LastResult.
type TaskRunResult struct {
	Success bool `json:"success"`
	Result string `json:"result,omitempty"`
	Error string `json:"error,omitempty"`
	ExecutedAt time.Time `json:"executedAt"`
}

// ScheduleNameForTask encodes a user task's id into its per-task schedule
// and queue name, e.g. "ai-scheduled-task-42".
func ScheduleNameForTask(baseName string, taskID int64) string {
	return baseName + "-" + strconv.FormatInt(taskID, 10)
}

// Follow is a public site an owner has subscribed to, polled by
// RecommendJob for its note feed.
type Follow struct {
	ID int64 `db:"id" json:"id"`
	OwnerID int64 `db:"owner_id" json:"ownerId"`
	SiteURL string `db:"site_url" json:"siteUrl"`
	SiteName string `db:"site_name" json:"siteName"`
	LastFetch *time.Time `db:"last_fetch" json:"lastFetch,omitempty"`
}

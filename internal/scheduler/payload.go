package scheduler

import (
	"encoding/json"
	"fmt"

	"github.com/jonesrussell/north-cloud/brainhub/internal/domain"
)

// decodeOrDefault unmarshals job.Data into T, falling back to def when the
// job carries no payload: empty, null, or the "{}" a Supervisor's cron
// schedule sends, rather than an explicit TriggerNow call with arguments.
func decodeOrDefault[T any](job *domain.JobRow, def T) (T, error) {
	if len(job.Data) == 0 || string(job.Data) == "null" || string(job.Data) == "{}" {
		return def, nil
	}
	var v T
	if err := json.Unmarshal(job.Data, &v); err != nil {
		return def, fmt.Errorf("decode job payload: %w", err)
	}
	return v, nil
}

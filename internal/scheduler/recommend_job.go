package scheduler

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/jonesrussell/north-cloud/brainhub/internal/database"
	"github.com/jonesrussell/north-cloud/brainhub/internal/domain"
	"github.com/jonesrussell/north-cloud/brainhub/internal/platform/circuitbreaker"
	"github.com/jonesrussell/north-cloud/brainhub/internal/platform/logger"
	"github.com/jonesrussell/north-cloud/brainhub/internal/queue"
)

const (
	recommendConcurrency = 5
	recommendHTTPTimeout = 10 * time.Second
	recommendProgressKey = "recommend_feed_cache"
)

// feedItem is one entry pulled from a followed site's public feed.
type feedItem struct {
	FollowID int64 `json:"followId"`
	SiteName string `json:"siteName"`
	Title string `json:"title"`
	Link string `json:"link"`
	Published string `json:"published,omitempty"`
}

// feedXML mirrors the RSS/Atom-ish shape this fetch understands; real feeds
// vary but the title/link pair is the only thing RecommendJob surfaces.
type feedXML struct {
	Channel struct {
		Items []struct {
			Title string `xml:"title"`
			Link string `xml:"link"`
			Pub string `xml:"pubDate"`
		} `xml:"item"`
	} `xml:"channel"`
}

// RecommendJob pulls public-note feeds from followed sites into the
// progress cache for the frontend to surface as recommendations. It is only
// ever initialized by the caller when at least one follow row exists;
// the supervisor itself does not check that precondition.
type RecommendJob struct {
	*Supervisor
	follows *database.FollowRepository
	progress *database.ProgressCacheRepository
	client *http.Client
	breaker *circuitbreaker.Breaker
	log logger.Logger
}

// NewRecommendJob builds the job. It fires every six hours by default.
func NewRecommendJob(q *queue.Queue, follows *database.FollowRepository, progress *database.ProgressCacheRepository, log logger.Logger) *RecommendJob {
	j := &RecommendJob{
		follows: follows,
		progress: progress,
		client: &http.Client{Timeout: recommendHTTPTimeout},
		breaker: circuitbreaker.New(circuitbreaker.DefaultConfig()),
		log: log.With(logger.String("job", "recommend")),
	}
	j.Supervisor = NewSupervisor("recommend-job", "0 */6 * * *", j.run, q, queue.PoolConfig{Concurrency: 1}, log)
	return j
}

func (j *RecommendJob) run(ctx context.Context, _ *domain.JobRow) error {
	follows, err := j.follows.All(ctx)
	if err != nil {
		return err
	}
	if len(follows) == 0 {
		return nil
	}

	items := j.fetchAll(ctx, follows)
	if err := j.progress.Set(ctx, recommendProgressKey, items); err != nil {
		return fmt.Errorf("recommend job: publish feed cache: %w", err)
	}
	j.log.Info("recommend sweep complete", logger.Int("follows", len(follows)), logger.Int("items", len(items)))
	return nil
}

// fetchAll pulls every follow's feed with at most recommendConcurrency
// requests in flight at once, each bounded by recommendHTTPTimeout.
func (j *RecommendJob) fetchAll(ctx context.Context, follows []*domain.Follow) []feedItem {
	sem := make(chan struct{}, recommendConcurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var all []feedItem

	for _, f := range follows {
		f := f
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			items, err := j.fetchOne(ctx, f)
			if err != nil {
				j.log.Error("recommend fetch failed", logger.String("site", f.SiteURL), logger.Error(err))
				return
			}

			mu.Lock()
			all = append(all, items...)
			mu.Unlock()

			if touchErr := j.follows.TouchLastFetch(ctx, f.ID, time.Now()); touchErr != nil {
				j.log.Error("touch follow last_fetch failed", logger.Int64("follow_id", f.ID), logger.Error(touchErr))
			}
		}()
	}
	wg.Wait()
	return all
}

func (j *RecommendJob) fetchOne(ctx context.Context, f *domain.Follow) ([]feedItem, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, recommendHTTPTimeout)
	defer cancel()

	var body []byte
	err := j.breaker.Execute(fetchCtx, func() error {
		req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, f.SiteURL, nil)
		if err != nil {
			return err
		}
		resp, err := j.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		body, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return nil, err
	}

	var parsed feedXML
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	items := make([]feedItem, 0, len(parsed.Channel.Items))
	for _, it := range parsed.Channel.Items {
		items = append(items, feedItem{
			FollowID: f.ID,
			SiteName: f.SiteName,
			Title: it.Title,
			Link: it.Link,
			Published: it.Pub,
		})
	}
	return items, nil
}

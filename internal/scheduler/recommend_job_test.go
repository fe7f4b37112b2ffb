package scheduler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/brainhub/internal/domain"
	"github.com/jonesrussell/north-cloud/brainhub/internal/platform/circuitbreaker"
)

const sampleRSS = `<?xml version="1.0"?>
<rss><channel>
<item><title>First post</title><link>https://example.com/1</link><pubDate>Mon, 01 Jan 2024 00:00:00 GMT</pubDate></item>
<item><title>Second post</title><link>https://example.com/2</link></item>
</channel></rss>`

func TestRecommendJob_FetchOne_ParsesFeedItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	j := &RecommendJob{client: srv.Client(), breaker: circuitbreaker.New(circuitbreaker.DefaultConfig())}
	follow := &domain.Follow{ID: 1, SiteName: "Example", SiteURL: srv.URL}

	items, err := j.fetchOne(t.Context(), follow)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "First post", items[0].Title)
	assert.Equal(t, "https://example.com/2", items[1].Link)
}

func TestRecommendJob_FetchOne_NonOKStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	j := &RecommendJob{client: srv.Client(), breaker: circuitbreaker.New(circuitbreaker.DefaultConfig())}
	follow := &domain.Follow{ID: 1, SiteURL: srv.URL}

	_, err := j.fetchOne(t.Context(), follow)
	assert.Error(t, err)
}

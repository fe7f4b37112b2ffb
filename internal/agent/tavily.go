package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jonesrussell/north-cloud/brainhub/internal/platform/proxyfetch"
)

const (
	tavilyBaseURL = "https://api.tavily.com"
	tavilyCallTimeout = 10 * time.Second
)

// tavilyClient is a minimal client over Tavily's search and extract
// endpoints. No example in the retrieval pack configures a Tavily
// SDK, so this is a small hand-rolled client over the shared proxyfetch
// transport rather than a vendored dependency.
type tavilyClient struct {
	apiKey string
	baseURL string
}

func newTavilyClient(apiKey string) *tavilyClient {
	return &tavilyClient{apiKey: apiKey, baseURL: tavilyBaseURL}
}

type tavilySearchRequest struct {
	APIKey string `json:"api_key"`
	Query string `json:"query"`
	MaxResults int `json:"max_results,omitempty"`
}

type tavilySearchResult struct {
	Title string `json:"title"`
	URL string `json:"url"`
	Content string `json:"content"`
}

type tavilySearchResponse struct {
	Results []tavilySearchResult `json:"results"`
}

func (c *tavilyClient) search(ctx context.Context, query string, maxResults int) ([]tavilySearchResult, error) {
	body, err := json.Marshal(tavilySearchRequest{APIKey: c.apiKey, Query: query, MaxResults: maxResults})
	if err != nil {
		return nil, fmt.Errorf("marshal tavily search request: %w", err)
	}
	var resp tavilySearchResponse
	if err := c.do(ctx, "/search", body, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

type tavilyExtractRequest struct {
	APIKey string `json:"api_key"`
	URLs []string `json:"urls"`
}

type tavilyExtractResult struct {
	URL string `json:"url"`
	RawContent string `json:"raw_content"`
	FailedReason string `json:"error,omitempty"`
}

type tavilyExtractResponse struct {
	Results []tavilyExtractResult `json:"results"`
}

func (c *tavilyClient) extract(ctx context.Context, urls []string) ([]tavilyExtractResult, error) {
	body, err := json.Marshal(tavilyExtractRequest{APIKey: c.apiKey, URLs: urls})
	if err != nil {
		return nil, fmt.Errorf("marshal tavily extract request: %w", err)
	}
	var resp tavilyExtractResponse
	if err := c.do(ctx, "/extract", body, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (c *tavilyClient) do(ctx context.Context, path string, body []byte, out any) error {
	ctx, cancel := context.WithTimeout(ctx, tavilyCallTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build tavily request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := proxyfetch.Client().Do(req)
	if err != nil {
		return fmt.Errorf("tavily request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tavily request: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

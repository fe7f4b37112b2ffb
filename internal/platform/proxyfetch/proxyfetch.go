// Package proxyfetch provides the single outbound HTTP client every
// external call (Tavily search/extract, a custom OpenAI-compatible
// provider, a model-list probe) is expected to share, so a developer can
// point BRAINHUB_HTTP_PROXY at a local record/replay proxy and capture
// fixtures without threading a client through every caller.
package proxyfetch

import (
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"
)

const envProxyURL = "BRAINHUB_HTTP_PROXY"

var (
	once sync.Once
	client *http.Client
)

// Client returns the process-wide HTTP client, built lazily on first use.
// When BRAINHUB_HTTP_PROXY is set, every request (including HTTPS, via
// CONNECT) is routed through it — pointed at an instance of the
// record/replay proxy in development, left unset in production.
func Client() *http.Client {
	once.Do(func() {
		client = newClient()
	})
	return client
}

func newClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if raw := os.Getenv(envProxyURL); raw != "" {
		if proxyURL, err := url.Parse(raw); err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout: 30 * time.Second,
	}
}

// Reset discards the cached client so the next Client() call rebuilds it,
// picking up a changed BRAINHUB_HTTP_PROXY value. Exercised by tests only.
func Reset() {
	once = sync.Once{}
	client = nil
}

package proxyfetch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/brainhub/internal/platform/proxyfetch"
)

func TestClient_IsSingleton(t *testing.T) {
	proxyfetch.Reset()
	t.Cleanup(proxyfetch.Reset)

	a := proxyfetch.Client()
	b := proxyfetch.Client()
	assert.Same(t, a, b)
}

func TestClient_PicksUpProxyEnvOnReset(t *testing.T) {
	proxyfetch.Reset()
	t.Cleanup(proxyfetch.Reset)

	t.Setenv("BRAINHUB_HTTP_PROXY", "http://127.0.0.1:8888")
	proxyfetch.Reset()

	c := proxyfetch.Client()
	require.NotNil(t, c)
	require.NotNil(t, c.Transport)
}

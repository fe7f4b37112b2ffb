package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMCPServer(t *testing.T, handle func(method string) mcpResponse) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req mcpRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		resp := handle(req.Method)
		resp.JSONRPC = "2.0"
		resp.ID = req.ID
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestRemoteMCPFederator_ListTools(t *testing.T) {
	srv := newMCPServer(t, func(method string) mcpResponse {
		assert.Equal(t, "tools/list", method)
		result, _ := json.Marshal(mcpToolsListResult{Tools: []mcpTool{
			{Name: "echo", Description: "echoes input", InputSchema: map[string]any{"type": "object"}},
		}})
		return mcpResponse{Result: result}
	})
	defer srv.Close()

	f := NewRemoteMCPFederator(MCPClientConfig{Name: "remote", BaseURL: srv.URL})
	specs, err := f.ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "echo", specs[0].Name)
}

func TestRemoteMCPFederator_CallTool(t *testing.T) {
	srv := newMCPServer(t, func(method string) mcpResponse {
		switch method {
		case "tools/list":
			result, _ := json.Marshal(mcpToolsListResult{Tools: []mcpTool{{Name: "echo"}}})
			return mcpResponse{Result: result}
		case "tools/call":
			result, _ := json.Marshal(mcpToolCallResult{Content: []mcpContentBlock{{Type: "text", Text: "pong"}}})
			return mcpResponse{Result: result}
		default:
			return mcpResponse{Error: &mcpErrorObject{Code: -1, Message: "unknown method"}}
		}
	})
	defer srv.Close()

	f := NewRemoteMCPFederator(MCPClientConfig{Name: "remote", BaseURL: srv.URL, Token: "tok"})
	out, handled, err := f.CallTool(context.Background(), "echo", json.RawMessage(`{"ping":true}`))
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, "pong", out)
}

func TestRemoteMCPFederator_CallTool_UnknownNotHandled(t *testing.T) {
	srv := newMCPServer(t, func(method string) mcpResponse {
		result, _ := json.Marshal(mcpToolsListResult{Tools: []mcpTool{{Name: "echo"}}})
		return mcpResponse{Result: result}
	})
	defer srv.Close()

	f := NewRemoteMCPFederator(MCPClientConfig{Name: "remote", BaseURL: srv.URL})
	_, handled, err := f.CallTool(context.Background(), "nope", nil)
	require.NoError(t, err)
	assert.False(t, handled)
}

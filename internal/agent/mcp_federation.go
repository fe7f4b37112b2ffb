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

const mcpFederationTimeout = 10 * time.Second

// MCPClientConfig names one remote MCP server the agent federates tools
// from. Token is sent as a bearer credential on
// every call, mirroring how the inbound SSE surface stashes its own bearer
// token per connection.
type MCPClientConfig struct {
	Name string
	BaseURL string
	Token string
}

// RemoteMCPFederator implements ToolFederator by calling a remote MCP
// server's JSON-RPC surface over plain HTTP POST, grounded on the monorepo's
// own stdio MCP service's Request/Response shapes adapted to an HTTP
// transport (tools/list, tools/call). A failed tools/list makes
// Registry.Specs/Call treat this source as having nothing; once the server
// lists the requested tool, a failed tools/call is returned from
// Registry.Call as that call's error.
type RemoteMCPFederator struct {
	cfg MCPClientConfig
}

// NewRemoteMCPFederator wraps cfg.
func NewRemoteMCPFederator(cfg MCPClientConfig) *RemoteMCPFederator {
	return &RemoteMCPFederator{cfg: cfg}
}

func (f *RemoteMCPFederator) ListTools(ctx context.Context) ([]ToolSpec, error) {
	var result mcpToolsListResult
	if err := f.call(ctx, "tools/list", nil, &result); err != nil {
		return nil, err
	}
	specs := make([]ToolSpec, len(result.Tools))
	for i, t := range result.Tools {
		specs[i] = ToolSpec{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema}
	}
	return specs, nil
}

func (f *RemoteMCPFederator) CallTool(ctx context.Context, name string, args json.RawMessage) (string, bool, error) {
	specs, err := f.ListTools(ctx)
	if err != nil {
		return "", false, err
	}
	known := false
	for _, s := range specs {
		if s.Name == name {
			known = true
			break
		}
	}
	if !known {
		return "", false, nil
	}

	params, err := json.Marshal(mcpToolCallParams{Name: name, Arguments: args})
	if err != nil {
		return "", true, fmt.Errorf("marshal mcp tool call params: %w", err)
	}
	var result mcpToolCallResult
	if err := f.call(ctx, "tools/call", params, &result); err != nil {
		return "", true, err
	}

	text := ""
	for _, block := range result.Content {
		text += block.Text
	}
	if result.IsError {
		return text, true, fmt.Errorf("mcp tool %s returned an error", name)
	}
	return text, true, nil
}

func (f *RemoteMCPFederator) call(ctx context.Context, method string, params json.RawMessage, out any) error {
	ctx, cancel := context.WithTimeout(ctx, mcpFederationTimeout)
	defer cancel()

	reqBody, err := json.Marshal(mcpRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("marshal mcp request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.cfg.BaseURL+"/messages", bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("build mcp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if f.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+f.cfg.Token)
	}

	resp, err := proxyfetch.Client().Do(req)
	if err != nil {
		return fmt.Errorf("mcp request to %s: %w", f.cfg.Name, err)
	}
	defer resp.Body.Close()

	var envelope mcpResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode mcp response from %s: %w", f.cfg.Name, err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("mcp server %s: %s", f.cfg.Name, envelope.Error.Message)
	}
	if len(envelope.Result) == 0 {
		return nil
	}
	return json.Unmarshal(envelope.Result, out)
}

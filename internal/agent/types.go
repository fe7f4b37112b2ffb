// Package agent builds the per-request chat agent: a fixed tool set
// authorized per caller, optional MCP-federated tools, RAG retrieval, and
// the completions/post-processing entry points the external surface calls
// into.
package agent

import (
	"context"
	"encoding/json"

	"github.com/jonesrussell/north-cloud/brainhub/internal/aiprovider"
)

// ChatMessage is one conversation turn, the same shape the provider facade
// passes to a vendor client.
type ChatMessage = aiprovider.ChatMessage

// ChatChunk is one piece of a streamed response.
type ChatChunk = aiprovider.ChatChunk

// Tool is one callable the agent can invoke on the resolved principal's
// behalf. Schema returns a JSON-schema "input" object, the same style the
// federated MCP tool list carries, so local and remote tools present
// uniformly to the model.
type Tool interface {
	Name() string
	Description() string
	Schema() map[string]any
	Execute(ctx context.Context, principal Principal, args json.RawMessage) (string, error)
}

// ToolSpec is the wire shape a tool is advertised to the model (and to an
// MCP tools/list caller) as.
type ToolSpec struct {
	Name string `json:"name"`
	Description string `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// Registry is the fixed local tool set plus whatever a federator merges in.
type Registry struct {
	local map[string]Tool
	federators []ToolFederator
}

// NewRegistry builds a Registry from the fixed local tool set.
func NewRegistry(tools...Tool) *Registry {
	r := &Registry{local: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		r.local[t.Name()] = t
	}
	return r
}

// AddFederator registers an MCP federation source. Its tools are merged in
// at Specs/Call time; federation failures there are never fatal.
func (r *Registry) AddFederator(f ToolFederator) {
	r.federators = append(r.federators, f)
}

// AddTool registers an additional local tool after construction. This is
// how the composition root closes the agent<->aitask construction cycle:
// the scheduled-task tools need a TaskManager that itself needs an *Agent
// to run prompts, so they can only be built once the Agent already exists
// — they are added to its Registry a moment after New returns rather than
// passed into NewRegistry up front.
func (r *Registry) AddTool(t Tool) {
	r.local[t.Name()] = t
}

// Specs returns every locally-registered tool's spec plus, best-effort,
// every federated tool's spec. A federator error is dropped, not returned.
func (r *Registry) Specs(ctx context.Context) []ToolSpec {
	specs := make([]ToolSpec, 0, len(r.local))
	for _, t := range r.local {
		specs = append(specs, ToolSpec{Name: t.Name(), Description: t.Description(), InputSchema: t.Schema()})
	}
	for _, f := range r.federators {
		remote, err := f.ListTools(ctx)
		if err != nil {
			continue
		}
		specs = append(specs, remote...)
	}
	return specs
}

// Call dispatches name to a local tool if one is registered, otherwise
// tries each federator in turn. Returns a CapabilityUnsupported error if no
// tool answers to name anywhere.
func (r *Registry) Call(ctx context.Context, principal Principal, name string, args json.RawMessage) (string, error) {
	if t, ok := r.local[name]; ok {
		return t.Execute(ctx, principal, args)
	}
	for _, f := range r.federators {
		if result, ok, err := f.CallTool(ctx, name, args); ok {
			return result, err
		}
	}
	return "", errUnknownTool(name)
}

// ToolFederator exposes a remote MCP server's tools as if they were local.
// Any error from ListTools or a false `ok` from CallTool is treated as
// "this source doesn't have it" rather than propagated — MCP federation is
// never fatal to agent construction or a completion.
type ToolFederator interface {
	ListTools(ctx context.Context) ([]ToolSpec, error)
	CallTool(ctx context.Context, name string, args json.RawMessage) (result string, handled bool, err error)
}

// Package mcpbridge adapts pkg/mcp.Adapter to the router.MCPAdapter
// interface, translating between the subprocess multiplexer's own
// types and the router's transport-agnostic view of an MCP server.
package mcpbridge

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel/codes"

	"github.com/gridctl/agenthub/internal/router"
	"github.com/gridctl/agenthub/internal/tracing"
	"github.com/gridctl/agenthub/pkg/mcp"
)

// Bridge wraps an *mcp.Adapter to satisfy router.MCPAdapter.
type Bridge struct {
	adapter *mcp.Adapter
}

// New wraps adapter for use as a router.MCPAdapter.
func New(adapter *mcp.Adapter) *Bridge {
	return &Bridge{adapter: adapter}
}

// ListServers implements router.MCPAdapter.
func (b *Bridge) ListServers() []router.MCPServerInfo {
	summaries := b.adapter.ListServers()
	out := make([]router.MCPServerInfo, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, router.MCPServerInfo{
			ID:           s.ID,
			Name:         s.Name,
			Capabilities: s.Capabilities,
			Status:       string(s.Status),
		})
	}
	return out
}

// ListTools implements router.MCPAdapter.
func (b *Bridge) ListTools(ctx context.Context, serverID string) ([]router.MCPTool, error) {
	tools, err := b.adapter.ListTools(ctx, serverID)
	if err != nil {
		return nil, err
	}
	out := make([]router.MCPTool, 0, len(tools))
	for _, t := range tools {
		out = append(out, router.MCPTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: decodeSchema(t.InputSchema),
		})
	}
	return out, nil
}

// ExecuteTool implements router.MCPAdapter.
func (b *Bridge) ExecuteTool(ctx context.Context, serverID, toolName string, params map[string]any) (map[string]any, error) {
	ctx, span := tracing.StartMCPCall(ctx, serverID, toolName)
	defer span.End()

	result, err := b.adapter.ExecuteTool(ctx, serverID, toolName, params)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return result, err
}

// decodeSchema best-effort-decodes a tool's raw JSON Schema into a
// plain map for wire transport. A malformed or absent schema yields
// nil rather than an error — tool listing should never fail because
// of a schema a server advertised badly.
func decodeSchema(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

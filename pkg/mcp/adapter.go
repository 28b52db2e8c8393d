package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/gridctl/agenthub/pkg/logging"
)

// ServerStatus is the lifecycle state of a registered MCP server.
type ServerStatus string

const (
	ServerRegistered ServerStatus = "registered"
	ServerConnecting ServerStatus = "connecting"
	ServerOnline     ServerStatus = "online"
	ServerOffline    ServerStatus = "offline"
	ServerError      ServerStatus = "error"
)

// ServerConfig describes how to launch and identify an MCP server
// subprocess. ID is optional; if empty one is derived from Name.
type ServerConfig struct {
	ID           string
	Name         string
	Command      []string
	WorkDir      string
	Env          map[string]string
	Capabilities []string
	AutoConnect  bool
}

// ServerSummary is the adapter's external view of a registered server.
type ServerSummary struct {
	ID           string
	Name         string
	Capabilities []string
	Status       ServerStatus
}

type registration struct {
	cfg    ServerConfig
	client *ProcessClient
	status ServerStatus
}

// Adapter owns the subprocesses of every registered MCP server and
// multiplexes tool listing/execution across them. Each server gets its
// own ProcessClient (its own stdin/stdout pair); concurrent requests to
// a given server are matched to their replies by ProcessClient.call's
// request-id table, and
// a subprocess exit fails only that server's outstanding requests.
type Adapter struct {
	mu      sync.RWMutex
	servers map[string]*registration
	logger  *slog.Logger
}

// NewAdapter creates an empty Adapter.
func NewAdapter() *Adapter {
	return &Adapter{
		servers: make(map[string]*registration),
		logger:  logging.NewDiscardLogger(),
	}
}

// SetLogger sets the adapter's logger and every already-registered
// server's client logger.
func (a *Adapter) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logger = logger
	for _, reg := range a.servers {
		reg.client.SetLogger(logger)
	}
}

// RegisterServer records a server configuration. If cfg.AutoConnect is
// set, the subprocess is launched immediately in the background;
// otherwise it stays in ServerRegistered until Connect is called.
func (a *Adapter) RegisterServer(ctx context.Context, cfg ServerConfig) (string, error) {
	if len(cfg.Command) == 0 {
		return "", fmt.Errorf("mcp server %q: no command specified", cfg.Name)
	}
	id := cfg.ID
	if id == "" {
		id = deriveServerID(cfg.Name)
	}

	client := NewProcessClient(cfg.Name, cfg.Command, cfg.WorkDir, cfg.Env)
	client.SetLogger(a.logger)

	a.mu.Lock()
	a.servers[id] = &registration{cfg: cfg, client: client, status: ServerRegistered}
	a.mu.Unlock()

	if cfg.AutoConnect {
		go func() {
			if err := a.Connect(context.Background(), id); err != nil {
				a.logger.Warn("mcp server auto-connect failed", "server_id", id, "error", err)
			}
		}()
	}
	return id, nil
}

// Connect spawns the subprocess, performs the MCP initialize
// handshake, fetches the tool list, and transitions the server to
// online. On failure the server transitions to error.
func (a *Adapter) Connect(ctx context.Context, serverID string) error {
	reg, err := a.lookup(serverID)
	if err != nil {
		return err
	}

	a.setStatus(serverID, ServerConnecting)
	if err := reg.client.Initialize(ctx); err != nil {
		a.setStatus(serverID, ServerError)
		return fmt.Errorf("connecting to mcp server %s: %w", serverID, err)
	}
	if err := reg.client.RefreshTools(ctx); err != nil {
		a.setStatus(serverID, ServerError)
		return fmt.Errorf("listing tools for mcp server %s: %w", serverID, err)
	}
	a.setStatus(serverID, ServerOnline)
	return nil
}

// Disconnect terminates the subprocess cleanly.
func (a *Adapter) Disconnect(serverID string) error {
	reg, err := a.lookup(serverID)
	if err != nil {
		return err
	}
	a.setStatus(serverID, ServerOffline)
	return reg.client.Close()
}

// ListServers returns every registered server's summary, sorted by
// name for deterministic output.
func (a *Adapter) ListServers() []ServerSummary {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]ServerSummary, 0, len(a.servers))
	for id, reg := range a.servers {
		out = append(out, ServerSummary{ID: id, Name: reg.cfg.Name, Capabilities: reg.cfg.Capabilities, Status: reg.status})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ListTools returns the cached tools/list response for serverID.
func (a *Adapter) ListTools(ctx context.Context, serverID string) ([]Tool, error) {
	reg, err := a.lookup(serverID)
	if err != nil {
		return nil, err
	}
	if !reg.client.IsInitialized() {
		return nil, fmt.Errorf("mcp server %s is not connected", serverID)
	}
	return reg.client.Tools(), nil
}

// ExecuteTool sends tools/call to serverID and flattens the result
// into a plain map, suitable for embedding in an outbound wire message.
func (a *Adapter) ExecuteTool(ctx context.Context, serverID, toolName string, params map[string]any) (map[string]any, error) {
	reg, err := a.lookup(serverID)
	if err != nil {
		return nil, err
	}
	if !reg.client.IsInitialized() {
		return nil, fmt.Errorf("mcp server %s is not connected", serverID)
	}

	result, err := reg.client.CallTool(ctx, toolName, params)
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	for i, c := range result.Content {
		if i > 0 {
			text.WriteByte('\n')
		}
		text.WriteString(c.Text)
	}
	if result.IsError {
		return nil, fmt.Errorf("tool %s on server %s returned an error: %s", toolName, serverID, text.String())
	}
	return map[string]any{"text": text.String()}, nil
}

// Close terminates every registered server's subprocess. Used during
// orchestrator shutdown.
func (a *Adapter) Close() {
	a.mu.RLock()
	regs := make([]*registration, 0, len(a.servers))
	for _, reg := range a.servers {
		regs = append(regs, reg)
	}
	a.mu.RUnlock()

	for _, reg := range regs {
		_ = reg.client.Close()
	}
}

func (a *Adapter) lookup(serverID string) (*registration, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	reg, ok := a.servers[serverID]
	if !ok {
		return nil, fmt.Errorf("unknown mcp server: %s", serverID)
	}
	return reg, nil
}

func (a *Adapter) setStatus(serverID string, status ServerStatus) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if reg, ok := a.servers[serverID]; ok {
		reg.status = status
	}
}

func deriveServerID(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", "-"))
}

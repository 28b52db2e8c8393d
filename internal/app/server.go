// Package app wires the ConnectionEndpoints, registries, router, MCP
// adapter, and config hot-reload into one runnable orchestrator
// instance, and owns the graceful shutdown sequence.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gridctl/agenthub/internal/hub"
	"github.com/gridctl/agenthub/internal/mcpbridge"
	"github.com/gridctl/agenthub/internal/pending"
	"github.com/gridctl/agenthub/internal/registry"
	"github.com/gridctl/agenthub/internal/reload"
	"github.com/gridctl/agenthub/internal/router"
	"github.com/gridctl/agenthub/internal/tasks"
	"github.com/gridctl/agenthub/internal/tracing"
	"github.com/gridctl/agenthub/pkg/config"
	"github.com/gridctl/agenthub/pkg/logging"
	"github.com/gridctl/agenthub/pkg/mcp"
	"github.com/gridctl/agenthub/pkg/wire"
)

// dispatcherProxy breaks the construction cycle between hub.Endpoint
// (needs a Dispatcher at construction time) and router.Router (needs
// the endpoints, as Outbound, at construction time): the endpoints are
// built first against the proxy, then the real router is built and
// assigned into it.
type dispatcherProxy struct {
	router *router.Router
}

func (p *dispatcherProxy) Dispatch(conn *hub.Connection, msg wire.Message) {
	_, span := tracing.StartDispatch(context.Background(), string(conn.Class), msg.Type)
	defer span.End()
	p.router.Dispatch(conn, msg)
}

func (p *dispatcherProxy) OnDisconnect(class hub.Class, connectionID string) {
	p.router.OnDisconnect(class, connectionID)
}

// shutdownHTTPTimeout bounds how long the drain sequence waits for
// in-flight HTTP upgrade requests to finish before forcing listeners
// closed.
const shutdownHTTPTimeout = 5 * time.Second

// App is one running orchestrator hub: three HTTP listeners fronting
// the Agent/Client/Service endpoints, the router, and the MCP adapter.
type App struct {
	cfg    *config.OrchestratorConfig
	logger *slog.Logger

	agents   *registry.AgentRegistry
	clients  *registry.ClientRegistry
	services *registry.ServiceRegistry
	pending  *pending.Table

	mcpAdapter *mcp.Adapter
	router     *router.Router

	agentEndpoint   *hub.Endpoint
	clientEndpoint  *hub.Endpoint
	serviceEndpoint *hub.Endpoint

	watcher       *reload.Watcher
	watcherCancel context.CancelFunc

	mu       sync.Mutex
	draining bool
}

// New builds an App from a loaded configuration. The returned App has
// not started listening yet; call Run.
func New(cfg *config.OrchestratorConfig, logger *slog.Logger) *App {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}

	agents := registry.NewAgentRegistry()
	clients := registry.NewClientRegistry()
	services := registry.NewServiceRegistry()
	agentTasks := tasks.NewAgentTaskRegistry()
	serviceTasks := tasks.NewServiceTaskRegistry()

	applyPreconfigured(agents, services, cfg)

	mcpAdapter := mcp.NewAdapter()
	mcpAdapter.SetLogger(logging.WithComponent(logger, "mcp"))

	proxy := &dispatcherProxy{}
	agentEndpoint := hub.NewEndpoint(hub.ClassAgent, proxy, proxy)
	clientEndpoint := hub.NewEndpoint(hub.ClassClient, proxy, proxy)
	serviceEndpoint := hub.NewEndpoint(hub.ClassService, proxy, proxy)
	agentEndpoint.SetLogger(logging.WithComponent(logger, "endpoint.agent"))
	clientEndpoint.SetLogger(logging.WithComponent(logger, "endpoint.client"))
	serviceEndpoint.SetLogger(logging.WithComponent(logger, "endpoint.service"))

	bridge := mcpbridge.New(mcpAdapter)
	rtr := router.New(
		agents, clients, services,
		agentTasks, serviceTasks,
		agentEndpoint, clientEndpoint, serviceEndpoint,
		bridge,
	)
	rtr.SetLogger(logging.WithComponent(logger, "router"))
	proxy.router = rtr

	a := &App{
		cfg:             cfg,
		logger:          logger,
		agents:          agents,
		clients:         clients,
		services:        services,
		pending:         pending.New(),
		mcpAdapter:      mcpAdapter,
		router:          rtr,
		agentEndpoint:   agentEndpoint,
		clientEndpoint:  clientEndpoint,
		serviceEndpoint: serviceEndpoint,
	}

	for _, sc := range cfg.MCPServers {
		if _, err := mcpAdapter.RegisterServer(context.Background(), mcp.ServerConfig{
			ID:           sc.ID,
			Name:         sc.Name,
			Command:      sc.Command,
			WorkDir:      sc.WorkDir,
			Env:          sc.Env,
			Capabilities: sc.Capabilities,
			AutoConnect:  sc.AutoConnect,
		}); err != nil {
			logger.Error("failed to register MCP server", "name", sc.Name, "error", err)
		}
	}

	return a
}

// applyPreconfigured installs the manifest's pre-configured Agent and
// Service tables (spec.md §4.2's "pre-configuration then connect"
// pattern).
func applyPreconfigured(agents *registry.AgentRegistry, services *registry.ServiceRegistry, cfg *config.OrchestratorConfig) {
	agentEntries := make([]registry.PreconfiguredAgent, 0, len(cfg.Agents))
	for _, a := range cfg.Agents {
		agentEntries = append(agentEntries, registry.PreconfiguredAgent{
			ID:           a.ID,
			Name:         a.Name,
			Capabilities: a.Capabilities,
			Manifest:     a.Manifest,
		})
	}
	agents.SetPreconfigured(agentEntries)

	serviceEntries := make([]registry.PreconfiguredService, 0, len(cfg.Services))
	for _, s := range cfg.Services {
		serviceEntries = append(serviceEntries, registry.PreconfiguredService{
			ID:           s.ID,
			Name:         s.Name,
			Capabilities: s.Capabilities,
		})
	}
	services.SetPreconfigured(serviceEntries)
}

// Run starts all three listeners (and the config watcher, if enabled)
// and blocks until ctx is cancelled, at which point it runs the
// graceful shutdown sequence and returns.
func (a *App) Run(ctx context.Context, configPath string) error {
	go a.agentEndpoint.Run()
	go a.clientEndpoint.Run()
	go a.serviceEndpoint.Run()

	httpServers := []*http.Server{
		a.listener(a.cfg.Ports.Agent, a.agentEndpoint, a.onAgentWelcome),
		a.listener(a.cfg.Ports.Client, a.clientEndpoint, a.onClientWelcome),
		a.listener(a.cfg.Ports.Service, a.serviceEndpoint, a.onServiceWelcome),
	}

	serverErr := make(chan error, len(httpServers))
	for _, srv := range httpServers {
		srv := srv
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- fmt.Errorf("listening on %s: %w", srv.Addr, err)
			}
		}()
	}

	if a.cfg.Reload.Enabled && configPath != "" {
		a.watcher = reload.NewWatcher(configPath, func() error { return a.reloadConfig(configPath) })
		a.watcher.SetLogger(logging.WithComponent(a.logger, "reload"))
		var watchCtx context.Context
		watchCtx, a.watcherCancel = context.WithCancel(ctx)
		go func() {
			if err := a.watcher.Watch(watchCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("config watcher stopped", "error", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		a.shutdown(httpServers)
		return err
	}

	a.shutdown(httpServers)
	return nil
}

// listener builds the http.Server fronting one endpoint, mounted at
// "/" on its configured port.
func (a *App) listener(port int, ep *hub.Endpoint, onWelcome func(*hub.Connection)) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", ep.ServeHTTP(onWelcome))
	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
}

// onAgentWelcome sends the connectionId welcome frame; Agents then
// follow with an explicit agent.register message.
func (a *App) onAgentWelcome(conn *hub.Connection) {
	sendWelcome(conn, "agent.welcome", map[string]string{"connectionId": conn.ID})
}

// onServiceWelcome mirrors onAgentWelcome for the Service endpoint.
func (a *App) onServiceWelcome(conn *hub.Connection) {
	sendWelcome(conn, "service.welcome", map[string]string{"connectionId": conn.ID})
}

// onClientWelcome auto-registers the Client (clients carry no explicit
// register-before-use step the way Agents/Services do) and welcomes it
// with its assigned clientId.
func (a *App) onClientWelcome(conn *hub.Connection) {
	client := a.clients.Register(conn.ID, "")
	sendWelcome(conn, "client.welcome", map[string]string{"clientId": client.ID})
}

func sendWelcome(conn *hub.Connection, typ string, content any) {
	msg, err := wire.NewMessage(uuid.NewString(), typ, content)
	if err != nil {
		return
	}
	conn.Send(msg)
}

// reloadConfig re-reads the config file and re-applies the
// pre-configured Agent/Service allow-list without restarting any
// listener, per spec.md's hot-reload requirement.
func (a *App) reloadConfig(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("reloading config: %w", err)
	}
	applyPreconfigured(a.agents, a.services, cfg)
	a.mu.Lock()
	a.cfg = cfg
	a.mu.Unlock()
	a.logger.Info("config reloaded", "path", configPath)
	return nil
}

// shutdown runs the drain sequence: stop accepting connections, reject
// new PendingResponse registrations, terminate MCP subprocesses, close
// all live connections, then return.
func (a *App) shutdown(httpServers []*http.Server) {
	a.mu.Lock()
	a.draining = true
	a.mu.Unlock()

	if a.watcherCancel != nil {
		a.watcherCancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownHTTPTimeout)
	defer cancel()
	for _, srv := range httpServers {
		_ = srv.Shutdown(ctx)
	}

	a.pending.Shutdown()
	a.mcpAdapter.Close()

	a.agentEndpoint.Stop()
	a.clientEndpoint.Stop()
	a.serviceEndpoint.Stop()
}

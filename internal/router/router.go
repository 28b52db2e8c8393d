// Package router implements the MessageRouter and TaskCoordinator: the
// dispatch table across the Agent, Client, and Service endpoints, task
// creation and lifecycle transitions, and notification propagation up
// task ancestry.
package router

import (
	"log/slog"
	"runtime/debug"

	"github.com/google/uuid"

	"github.com/gridctl/agenthub/internal/hub"
	"github.com/gridctl/agenthub/internal/model"
	"github.com/gridctl/agenthub/internal/registry"
	"github.com/gridctl/agenthub/internal/tasks"
	"github.com/gridctl/agenthub/pkg/logging"
	"github.com/gridctl/agenthub/pkg/wire"
)

// Outbound is the subset of hub.Endpoint the router needs to deliver
// messages. Satisfied by *hub.Endpoint; narrowed to an interface so
// tests can record sends without a real transport.
type Outbound interface {
	Send(connectionID string, msg wire.Message)
}

// Router receives parsed messages from the three endpoints, dispatches
// by (endpoint class, type), mutates the registries, and produces
// outbound messages. It is the single owner of all shared state —
// there is no separate event bus.
type Router struct {
	logger *slog.Logger

	agents   *registry.AgentRegistry
	clients  *registry.ClientRegistry
	services *registry.ServiceRegistry

	agentTasks   *tasks.AgentTaskRegistry
	serviceTasks *tasks.ServiceTaskRegistry

	agentOut   Outbound
	clientOut  Outbound
	serviceOut Outbound

	mcp MCPAdapter
}

// New builds a Router. mcp may be nil if no MCP servers are configured.
func New(
	agents *registry.AgentRegistry,
	clients *registry.ClientRegistry,
	services *registry.ServiceRegistry,
	agentTasks *tasks.AgentTaskRegistry,
	serviceTasks *tasks.ServiceTaskRegistry,
	agentOut, clientOut, serviceOut Outbound,
	mcpAdapter MCPAdapter,
) *Router {
	return &Router{
		logger:       logging.NewDiscardLogger(),
		agents:       agents,
		clients:      clients,
		services:     services,
		agentTasks:   agentTasks,
		serviceTasks: serviceTasks,
		agentOut:     agentOut,
		clientOut:    clientOut,
		serviceOut:   serviceOut,
		mcp:          mcpAdapter,
	}
}

// SetLogger sets the router's logger.
func (r *Router) SetLogger(logger *slog.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// Dispatch implements hub.Dispatcher. It is the single entry point for
// every inbound message from every endpoint.
func (r *Router) Dispatch(conn *hub.Connection, msg wire.Message) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("panic handling message", "type", msg.Type, "connection_id", conn.ID, "panic", rec, "stack", string(debug.Stack()))
			r.replyError(conn, msg.ID, wire.NewError(wire.ErrInternal, "internal error"))
		}
	}()

	switch conn.Class {
	case hub.ClassAgent:
		r.dispatchAgent(conn, msg)
	case hub.ClassClient:
		r.dispatchClient(conn, msg)
	case hub.ClassService:
		r.dispatchService(conn, msg)
	default:
		r.logger.Error("dispatch from unknown connection class", "class", conn.Class)
	}
}

// OnDisconnect implements hub.DisconnectObserver. On an Agent
// disconnect, every non-terminal task owned by that agent fails (I6);
// affected clients/parents are notified exactly as a task.error would.
func (r *Router) OnDisconnect(class hub.Class, connectionID string) {
	switch class {
	case hub.ClassAgent:
		agent := r.agents.OnDisconnect(connectionID)
		if agent == nil {
			return
		}
		failed := r.agentTasks.FailAllNonTerminalForAgent(agent.ID, "Agent disconnected before task completion")
		for _, t := range failed {
			r.deliverAgentTaskFailure(t)
		}
	case hub.ClassClient:
		r.clients.OnDisconnect(connectionID)
	case hub.ClassService:
		svc := r.services.OnDisconnect(connectionID)
		if svc == nil {
			return
		}
		failed := r.serviceTasks.FailAllNonTerminalForService(svc.ID, "Service disconnected before task completion")
		for _, t := range failed {
			r.deliverServiceTaskFailure(t)
		}
	}
}

func newID() string {
	return uuid.NewString()
}

// replyError sends a classified error back to the connection that sent
// originalID, referencing it as requestId.
func (r *Router) replyError(conn *hub.Connection, originalID string, err *wire.Error) {
	out := r.outboundFor(conn.Class)
	out.Send(conn.ID, wire.NewErrorMessage(newID(), originalID, err))
}

func (r *Router) outboundFor(class hub.Class) Outbound {
	switch class {
	case hub.ClassAgent:
		return r.agentOut
	case hub.ClassClient:
		return r.clientOut
	case hub.ClassService:
		return r.serviceOut
	default:
		return discardOutbound{}
	}
}

// send builds and delivers a Message of typ carrying content to
// connectionID over out.
func send(out Outbound, connectionID, typ string, content any) {
	msg, err := wire.NewMessage(newID(), typ, content)
	if err != nil {
		return
	}
	out.Send(connectionID, msg)
}

// reply builds and delivers a reply to the message with id msgID,
// whose requestId equals msgID.
func reply(out Outbound, connectionID, msgID, typ string, content any) {
	msg, err := wire.NewMessage(newID(), typ, content)
	if err != nil {
		return
	}
	msg.RequestID = msgID
	out.Send(connectionID, msg)
}

type discardOutbound struct{}

func (discardOutbound) Send(string, wire.Message) {}

// modelAgentStatus normalizes a wire status string.
func modelAgentStatus(s string) model.AgentStatus {
	return model.NormalizeStatus(s)
}

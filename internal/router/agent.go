package router

import (
	"context"
	"time"

	"github.com/gridctl/agenthub/internal/hub"
	"github.com/gridctl/agenthub/internal/model"
	"github.com/gridctl/agenthub/pkg/mcp"
	"github.com/gridctl/agenthub/pkg/wire"
)

const mcpCallTimeout = 30 * time.Second

// dispatchAgent handles every inbound message on the Agent endpoint.
func (r *Router) dispatchAgent(conn *hub.Connection, msg wire.Message) {
	if msg.Type == "agent.register" {
		r.handleAgentRegister(conn, msg)
		return
	}

	agent := r.agents.GetByConnectionID(conn.ID)
	if agent == nil {
		r.replyError(conn, msg.ID, wire.NewError(wire.ErrNotFound, "connection is not a registered agent"))
		return
	}

	switch msg.Type {
	case "agent.status.update":
		r.handleAgentStatusUpdate(agent, msg)
	case "task.result":
		r.handleTaskResult(agent, msg)
	case "task.error":
		r.handleTaskError(agent, msg)
	case "task.notification":
		r.handleTaskNotification(agent, msg)
	case "task.message":
		r.handleTaskMessageFromAgent(conn, agent, msg)
	case "agent.task.request":
		r.handleAgentTaskRequest(conn, agent, msg)
	case "agent.service.list.request":
		r.handleAgentServiceListRequest(conn, msg)
	case "service.task.execute":
		r.handleAgentServiceTaskExecute(conn, agent, msg)
	case "service.tools.list":
		r.handleServiceToolsList(conn, hub.ClassAgent, msg)
	case "agent.mcp.servers.list":
		r.handleMCPServersList(conn, hub.ClassAgent, msg)
	case "mcp.tools.list":
		r.handleMCPToolsList(conn, hub.ClassAgent, msg)
	case "mcp.tool.execute":
		r.handleMCPToolExecute(conn, hub.ClassAgent, msg, "mcp.tool.execute.result")
	case "pong":
		// app-level heartbeat ack; transport keepalive already handled by hub.
	default:
		r.replyError(conn, msg.ID, wire.NewError(wire.ErrUnsupported, "unsupported message type: %s", msg.Type))
	}
}

func (r *Router) handleAgentRegister(conn *hub.Connection, msg wire.Message) {
	var content agentRegisterContent
	if err := msg.DecodeContent(&content); err != nil || content.Name == "" {
		r.replyError(conn, msg.ID, wire.NewError(wire.ErrValidation, "agent.register requires a name"))
		return
	}

	agent := r.agents.Register(content.Name, conn.ID, content.Capabilities, content.Manifest)
	reply(r.agentOut, conn.ID, msg.ID, "agent.registered", agentRegisteredContent{
		ID:           agent.ID,
		Name:         agent.Name,
		Capabilities: agent.Capabilities,
		Status:       agent.Status,
	})
}

func (r *Router) handleAgentStatusUpdate(agent *model.Agent, msg wire.Message) {
	var content agentStatusUpdateContent
	if err := msg.DecodeContent(&content); err != nil {
		return
	}
	r.agents.UpdateStatus(agent.ID, modelAgentStatus(content.Status))
}

// handleTaskResult is the task.result reception path: transition to
// completed (idempotent), then notify the client and/or requesting
// parent agent exactly once each.
func (r *Router) handleTaskResult(agent *model.Agent, msg wire.Message) {
	var content taskResultContent
	if err := msg.DecodeContent(&content); err != nil || content.TaskID == "" {
		return
	}
	task := r.agentTasks.Complete(content.TaskID, content.Result)
	if task == nil {
		r.logger.Warn("task.result for unknown or already-terminal task", "task_id", content.TaskID)
		return
	}
	r.deliverAgentTaskResult(*task)
}

func (r *Router) handleTaskError(agent *model.Agent, msg wire.Message) {
	var content taskErrorContent
	if err := msg.DecodeContent(&content); err != nil || content.TaskID == "" {
		return
	}
	task := r.agentTasks.Fail(content.TaskID, content.Error)
	if task == nil {
		r.logger.Warn("task.error for unknown or already-terminal task", "task_id", content.TaskID)
		return
	}
	r.deliverAgentTaskFailure(*task)
}

// deliverAgentTaskResult sends the terminal success message to
// whichever of clientId/requestingAgentId the task carries (I3: one
// terminal client message per task).
func (r *Router) deliverAgentTaskResult(task model.AgentTask) {
	if task.ClientID != "" {
		send(r.clientOut, task.ClientID, "client.agent.task.result", clientAgentTaskResultContent{
			TaskID: task.TaskID,
			Status: task.Status,
			Result: task.Result,
		})
	}
	if task.RequestingAgentID != "" {
		parent := r.agents.GetByID(task.RequestingAgentID)
		if parent != nil && parent.ConnectionID != "" {
			send(r.agentOut, parent.ConnectionID, "childagent.response", childAgentResponseContent{
				ChildTaskID: task.TaskID,
				Status:      task.Status,
				Result:      task.Result,
			})
		}
	}
}

func (r *Router) deliverAgentTaskFailure(task model.AgentTask) {
	if task.ClientID != "" {
		send(r.clientOut, task.ClientID, "task.error", clientAgentTaskResultContent{
			TaskID: task.TaskID,
			Status: task.Status,
			Result: nil,
		})
	}
	if task.RequestingAgentID != "" {
		parent := r.agents.GetByID(task.RequestingAgentID)
		if parent != nil && parent.ConnectionID != "" {
			send(r.agentOut, parent.ConnectionID, "childagent.response", childAgentResponseContent{
				ChildTaskID: task.TaskID,
				Status:      task.Status,
				Error:       task.Error,
			})
		}
	}
}

// handleTaskNotification forwards a non-terminal progress message to
// the ultimate client ancestor (I4).
func (r *Router) handleTaskNotification(agent *model.Agent, msg wire.Message) {
	var content taskNotificationContent
	if err := msg.DecodeContent(&content); err != nil || content.TaskID == "" {
		return
	}
	task := r.agentTasks.Get(content.TaskID)
	if task == nil {
		r.logger.Warn("task.notification for unknown task", "task_id", content.TaskID)
		return
	}
	r.propagateToClient(*task, "task.notification", content.Message, content.Level, content.Data)
}

// handleTaskMessageFromAgent is the same propagation as a notification
// but rendered to the client as task.requestmessage, with an ack sent
// back to the originating agent.
func (r *Router) handleTaskMessageFromAgent(conn *hub.Connection, agent *model.Agent, msg wire.Message) {
	var content taskNotificationContent
	if err := msg.DecodeContent(&content); err != nil || content.TaskID == "" {
		return
	}
	task := r.agentTasks.Get(content.TaskID)
	if task == nil {
		r.logger.Warn("task.message for unknown task", "task_id", content.TaskID)
		return
	}
	r.propagateToClient(*task, "task.requestmessage", content.Message, content.Level, content.Data)
	reply(r.agentOut, conn.ID, msg.ID, "task.message.received", taskNotificationContent{TaskID: content.TaskID})
}

// handleAgentTaskRequest is agent-to-agent delegation: the requester
// receives an immediate accept, and a childagent.response on
// completion (delivered from handleTaskResult/handleTaskError).
func (r *Router) handleAgentTaskRequest(conn *hub.Connection, requester *model.Agent, msg wire.Message) {
	var content agentTaskRequestContent
	if err := msg.DecodeContent(&content); err != nil {
		r.replyError(conn, msg.ID, wire.NewError(wire.ErrValidation, "malformed agent.task.request"))
		return
	}

	target := r.resolveAgent(content.TargetAgentID, content.TargetAgentName)
	if target == nil {
		r.replyError(conn, msg.ID, wire.NewError(wire.ErrNotFound, "target agent not found"))
		return
	}
	if target.ConnectionID == "" {
		r.replyError(conn, msg.ID, wire.NewError(wire.ErrUnreachable, "target agent %s has no live connection", target.Name))
		return
	}

	task := r.agentTasks.Register(target.ID, "", requester.ID, content.ParentTaskID, content.TaskData, msg.ID)
	r.agentTasks.MarkRunning(task.TaskID)

	send(r.agentOut, target.ConnectionID, "task.execute", taskExecuteContent{
		TaskID:   task.TaskID,
		TaskType: content.TaskType,
		TaskData: content.TaskData,
	})
	reply(r.agentOut, conn.ID, msg.ID, "childagent.request.accepted", childAgentRequestAcceptedContent{ChildTaskID: task.TaskID})
}

func (r *Router) handleAgentServiceListRequest(conn *hub.Connection, msg wire.Message) {
	var content agentServiceListRequestContent
	_ = msg.DecodeContent(&content)
	services := r.servicesFiltered(content.Capabilities)
	reply(r.agentOut, conn.ID, msg.ID, "agent.service.list.response", agentServiceListResponseContent{Services: services})
}

// handleAgentServiceTaskExecute is the agent-to-service path: a
// ServiceTask is created and dispatched, gated by the agent's
// manifest-declared service allow-list (the only authorization this
// hub implements).
func (r *Router) handleAgentServiceTaskExecute(conn *hub.Connection, agent *model.Agent, msg wire.Message) {
	var content serviceTaskExecuteAgentContent
	if err := msg.DecodeContent(&content); err != nil {
		r.replyError(conn, msg.ID, wire.NewError(wire.ErrValidation, "malformed service.task.execute"))
		return
	}

	svc := r.resolveService(content.ServiceID, content.ServiceName)
	if svc == nil {
		r.replyError(conn, msg.ID, wire.NewError(wire.ErrNotFound, "service not found"))
		return
	}
	if !isAuthorized(agent, svc.Name) {
		r.replyError(conn, msg.ID, wire.NewError(wire.ErrUnauthorized, "agent %s is not authorized to use service %s", agent.Name, svc.Name))
		return
	}
	if svc.ConnectionID == "" {
		r.replyError(conn, msg.ID, wire.NewError(wire.ErrUnreachable, "service %s has no live connection", svc.Name))
		return
	}

	task := r.serviceTasks.Register(svc.ID, content.ToolID, agent.ID, content.ClientID, content.Params, msg.ID)
	r.serviceTasks.MarkRunning(task.TaskID)

	if content.ClientID != "" {
		send(r.clientOut, content.ClientID, "service.started", serviceStartedContent{
			TaskID: task.TaskID, ServiceID: svc.ID, ToolID: content.ToolID,
		})
	}
	send(r.serviceOut, svc.ConnectionID, "service.task.execute", serviceTaskExecuteContent{
		TaskID: task.TaskID, ToolID: content.ToolID, Params: content.Params,
	})
}

func (r *Router) handleServiceToolsList(conn *hub.Connection, class hub.Class, msg wire.Message) {
	var content serviceToolsListContent
	_ = msg.DecodeContent(&content)
	svc := r.services.GetByID(content.ServiceID)
	if svc == nil {
		r.replyError(conn, msg.ID, wire.NewError(wire.ErrNotFound, "service %s not found", content.ServiceID))
		return
	}
	reply(r.outboundFor(class), conn.ID, msg.ID, "service.tools.list.response", serviceToolsListResponseContent{
		ServiceID: svc.ID, Tools: svc.Tools,
	})
}

func (r *Router) handleMCPServersList(conn *hub.Connection, class hub.Class, msg wire.Message) {
	typ := "agent.mcp.servers.list.result"
	if class == hub.ClassClient {
		typ = "client.mcp.server.list.response"
	}
	if r.mcp == nil {
		reply(r.outboundFor(class), conn.ID, msg.ID, typ, mcpServerListResponseContent{Servers: nil})
		return
	}
	reply(r.outboundFor(class), conn.ID, msg.ID, typ, mcpServerListResponseContent{Servers: r.mcp.ListServers()})
}

// handleMCPToolsList lists a single server's tools under bare names
// when serverId is set, or aggregates every registered server's tools
// under server__tool-prefixed names when it is omitted, so a flat
// list stays disambiguable (see pkg/mcp/prefix.go's PrefixTool).
func (r *Router) handleMCPToolsList(conn *hub.Connection, class hub.Class, msg wire.Message) {
	var content mcpToolsListRequestContent
	if err := msg.DecodeContent(&content); err != nil {
		r.replyError(conn, msg.ID, wire.NewError(wire.ErrValidation, "malformed mcp.tools.list"))
		return
	}
	if r.mcp == nil {
		r.replyError(conn, msg.ID, wire.NewError(wire.ErrNotFound, "no MCP servers configured"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), mcpCallTimeout)
	defer cancel()

	if content.ServerID != "" {
		tools, err := r.mcp.ListTools(ctx, content.ServerID)
		if err != nil {
			r.replyError(conn, msg.ID, wire.NewError(wire.ErrInternal, "%v", err))
			return
		}
		reply(r.outboundFor(class), conn.ID, msg.ID, "mcp.tools.list.result", mcpToolsListResultContent{
			ServerID: content.ServerID, Tools: tools,
		})
		return
	}

	var aggregated []MCPTool
	for _, srv := range r.mcp.ListServers() {
		tools, err := r.mcp.ListTools(ctx, srv.ID)
		if err != nil {
			r.logger.Warn("skipping mcp server in aggregated tool list", "server_id", srv.ID, "error", err)
			continue
		}
		for _, t := range tools {
			aggregated = append(aggregated, MCPTool{
				Name:        mcp.PrefixTool(srv.ID, t.Name),
				Description: t.Description,
				InputSchema: t.InputSchema,
			})
		}
	}
	reply(r.outboundFor(class), conn.ID, msg.ID, "mcp.tools.list.result", mcpToolsListResultContent{Tools: aggregated})
}

// handleMCPToolExecute resolves which server to invoke from either an
// explicit serverId or a server__tool-prefixed toolName (the shape
// returned by an unfiltered mcp.tools.list).
func (r *Router) handleMCPToolExecute(conn *hub.Connection, class hub.Class, msg wire.Message, replyType string) {
	var content mcpToolExecuteRequestContent
	if err := msg.DecodeContent(&content); err != nil || content.ToolName == "" {
		r.replyError(conn, msg.ID, wire.NewError(wire.ErrValidation, "mcp.tool.execute requires toolName"))
		return
	}
	if r.mcp == nil {
		r.replyError(conn, msg.ID, wire.NewError(wire.ErrNotFound, "no MCP servers configured"))
		return
	}

	serverID, toolName := content.ServerID, content.ToolName
	if serverID == "" {
		if sid, tname, err := mcp.ParsePrefixedTool(toolName); err == nil {
			serverID, toolName = sid, tname
		}
	}
	if serverID == "" {
		r.replyError(conn, msg.ID, wire.NewError(wire.ErrValidation, "mcp.tool.execute requires serverId or a server__tool-prefixed toolName"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), mcpCallTimeout)
	defer cancel()
	result, err := r.mcp.ExecuteTool(ctx, serverID, toolName, content.Parameters)
	out := mcpToolExecuteResultContent{ServerID: serverID, ToolName: content.ToolName, Status: "success", Result: result}
	if err != nil {
		out.Status = "error"
		out.Error = err.Error()
	}
	reply(r.outboundFor(class), conn.ID, msg.ID, replyType, out)
}

func isAuthorized(agent *model.Agent, serviceName string) bool {
	required := agent.RequiredServices()
	if len(required) == 0 {
		return true
	}
	for _, name := range required {
		if name == serviceName {
			return true
		}
	}
	return false
}

func (r *Router) resolveAgent(id, name string) *model.Agent {
	if id != "" {
		return r.agents.GetByID(id)
	}
	if name != "" {
		return r.agents.GetByName(name)
	}
	return nil
}

func (r *Router) resolveService(id, name string) *model.Service {
	if id != "" {
		return r.services.GetByID(id)
	}
	if name != "" {
		return r.services.GetByName(name)
	}
	return nil
}

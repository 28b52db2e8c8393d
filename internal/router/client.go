package router

import (
	"context"

	"github.com/gridctl/agenthub/internal/hub"
	"github.com/gridctl/agenthub/pkg/wire"
)

// dispatchClient handles every inbound message on the Client endpoint.
// Clients are auto-registered on connect (by the connection's onWelcome
// hook, not here); client.register only sets an optional display name.
func (r *Router) dispatchClient(conn *hub.Connection, msg wire.Message) {
	switch msg.Type {
	case "client.register":
		r.handleClientRegister(conn, msg)
	case "client.agent.list.request":
		r.handleClientAgentListRequest(conn, msg)
	case "client.agent.task.create.request":
		r.handleClientAgentTaskCreateRequest(conn, msg)
	case "client.agent.task.status.request":
		r.handleClientAgentTaskStatusRequest(conn, msg)
	case "task.message":
		r.handleTaskMessageFromClient(conn, msg)
	case "client.mcp.server.list.request":
		r.handleMCPServersList(conn, hub.ClassClient, msg)
	case "mcp.server.tools":
		r.handleMCPServerToolsFromClient(conn, msg)
	case "mcp.tool.execute":
		r.handleMCPToolExecute(conn, hub.ClassClient, msg, "mcp.tool.execution.result")
	default:
		r.replyError(conn, msg.ID, wire.NewError(wire.ErrUnsupported, "unsupported message type: %s", msg.Type))
	}
}

func (r *Router) handleClientRegister(conn *hub.Connection, msg wire.Message) {
	var content clientRegisterContent
	if err := msg.DecodeContent(&content); err != nil {
		return
	}
	if content.Name != "" {
		r.clients.SetName(conn.ID, content.Name)
	}
}

func (r *Router) handleClientAgentListRequest(conn *hub.Connection, msg wire.Message) {
	var content clientAgentListRequestContent
	_ = msg.DecodeContent(&content)
	agents := r.agentsFiltered(content.Status, content.NameContains, content.Capabilities)
	reply(r.clientOut, conn.ID, msg.ID, "client.agent.list.response", clientAgentListResponseContent{Agents: agents})
}

// handleClientAgentTaskCreateRequest is the client-to-agent task
// creation path (§4.6): look up the agent, allocate a task, dispatch
// task.execute, and reply immediately with the new taskId.
func (r *Router) handleClientAgentTaskCreateRequest(conn *hub.Connection, msg wire.Message) {
	client := r.clients.GetByConnectionID(conn.ID)
	if client == nil {
		r.replyError(conn, msg.ID, wire.NewError(wire.ErrInternal, "connection has no associated client record"))
		return
	}

	var content clientAgentTaskCreateRequestContent
	if err := msg.DecodeContent(&content); err != nil {
		r.replyError(conn, msg.ID, wire.NewError(wire.ErrValidation, "malformed client.agent.task.create.request"))
		return
	}

	agent := r.resolveAgent(content.AgentID, content.AgentName)
	if agent == nil {
		r.replyError(conn, msg.ID, wire.NewError(wire.ErrNotFound, "agent not found"))
		return
	}

	task := r.agentTasks.Register(agent.ID, client.ID, "", "", content.TaskData, msg.ID)

	if agent.ConnectionID == "" {
		failed := r.agentTasks.Fail(task.TaskID, "Agent disconnected before task completion")
		if failed != nil {
			r.deliverAgentTaskFailure(*failed)
		}
		r.replyError(conn, msg.ID, wire.NewError(wire.ErrUnreachable, "agent %s has no live connection", agent.Name))
		return
	}

	send(r.agentOut, agent.ConnectionID, "task.execute", taskExecuteContent{
		TaskID:   task.TaskID,
		TaskData: content.TaskData,
	})
	r.agentTasks.MarkRunning(task.TaskID)

	reply(r.clientOut, conn.ID, msg.ID, "client.agent.task.create.response", clientAgentTaskCreateResponseContent{TaskID: task.TaskID})
}

func (r *Router) handleClientAgentTaskStatusRequest(conn *hub.Connection, msg wire.Message) {
	var content clientAgentTaskStatusRequestContent
	if err := msg.DecodeContent(&content); err != nil || content.TaskID == "" {
		r.replyError(conn, msg.ID, wire.NewError(wire.ErrValidation, "client.agent.task.status.request requires taskId"))
		return
	}
	task := r.agentTasks.Get(content.TaskID)
	if task == nil {
		r.replyError(conn, msg.ID, wire.NewError(wire.ErrNotFound, "task %s not found", content.TaskID))
		return
	}
	reply(r.clientOut, conn.ID, msg.ID, "client.agent.task.status.response", clientAgentTaskStatusResponseContent{
		TaskID: task.TaskID, Status: task.Status, Result: task.Result, Error: task.Error,
	})
}

// handleTaskMessageFromClient forwards a client's reply to a pending
// task.requestmessage back to the owning agent.
func (r *Router) handleTaskMessageFromClient(conn *hub.Connection, msg wire.Message) {
	var content taskNotificationContent
	if err := msg.DecodeContent(&content); err != nil || content.TaskID == "" {
		r.replyError(conn, msg.ID, wire.NewError(wire.ErrValidation, "task.message requires taskId"))
		return
	}
	task := r.agentTasks.Get(content.TaskID)
	if task == nil {
		r.replyError(conn, msg.ID, wire.NewError(wire.ErrNotFound, "task %s not found", content.TaskID))
		return
	}
	agent := r.agents.GetByID(task.AgentID)
	if agent == nil || agent.ConnectionID == "" {
		r.replyError(conn, msg.ID, wire.NewError(wire.ErrUnreachable, "agent for task %s is not connected", content.TaskID))
		return
	}
	send(r.agentOut, agent.ConnectionID, "task.messageresponse", taskNotificationContent{
		TaskID: content.TaskID, Message: content.Message, Level: content.Level, Data: content.Data,
	})
}

func (r *Router) handleMCPServerToolsFromClient(conn *hub.Connection, msg wire.Message) {
	var content mcpToolsListRequestContent
	if err := msg.DecodeContent(&content); err != nil || content.ServerID == "" {
		r.replyError(conn, msg.ID, wire.NewError(wire.ErrValidation, "mcp.server.tools requires serverId"))
		return
	}
	if r.mcp == nil {
		r.replyError(conn, msg.ID, wire.NewError(wire.ErrNotFound, "no MCP servers configured"))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), mcpCallTimeout)
	defer cancel()
	tools, err := r.mcp.ListTools(ctx, content.ServerID)
	if err != nil {
		r.replyError(conn, msg.ID, wire.NewError(wire.ErrInternal, "%v", err))
		return
	}
	reply(r.clientOut, conn.ID, msg.ID, "mcp.server.tools", mcpToolsListResultContent{ServerID: content.ServerID, Tools: tools})
}

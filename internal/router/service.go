package router

import (
	"github.com/gridctl/agenthub/internal/hub"
	"github.com/gridctl/agenthub/internal/model"
	"github.com/gridctl/agenthub/pkg/wire"
)

// dispatchService handles every inbound message on the Service
// endpoint.
func (r *Router) dispatchService(conn *hub.Connection, msg wire.Message) {
	if msg.Type == "service.register" {
		r.handleServiceRegister(conn, msg)
		return
	}

	svc := r.services.GetByConnectionID(conn.ID)
	if svc == nil {
		r.replyError(conn, msg.ID, wire.NewError(wire.ErrNotFound, "connection is not a registered service"))
		return
	}

	switch msg.Type {
	case "service.task.result":
		r.handleServiceTaskResult(svc, msg)
	case "service.task.notification":
		r.handleServiceTaskNotification(svc, msg)
	case "service.status":
		r.handleServiceStatus(conn, svc, msg)
	case "pong":
		// heartbeat ack only.
	default:
		r.replyError(conn, msg.ID, wire.NewError(wire.ErrUnsupported, "unsupported message type: %s", msg.Type))
	}
}

func (r *Router) handleServiceRegister(conn *hub.Connection, msg wire.Message) {
	var content serviceRegisterContent
	if err := msg.DecodeContent(&content); err != nil || content.Name == "" {
		r.replyError(conn, msg.ID, wire.NewError(wire.ErrValidation, "service.register requires a name"))
		return
	}
	svc := r.services.Register(content.Name, conn.ID, content.Capabilities, content.Tools)
	reply(r.serviceOut, conn.ID, msg.ID, "service.registered", serviceRegisteredContent{
		ID: svc.ID, Name: svc.Name, Capabilities: svc.Capabilities, Tools: svc.Tools, Status: svc.Status,
	})
}

// handleServiceTaskResult completes or fails the ServiceTask (the
// taxonomy carries no separate service.task.error type: a non-empty
// error field in the result marks the task failed) and delivers the
// outcome to the requesting agent and client.
func (r *Router) handleServiceTaskResult(svc *model.Service, msg wire.Message) {
	var content serviceTaskResultContent
	if err := msg.DecodeContent(&content); err != nil || content.TaskID == "" {
		return
	}

	var task *model.ServiceTask
	if content.Error != "" {
		task = r.serviceTasks.Fail(content.TaskID, content.Error)
	} else {
		task = r.serviceTasks.Complete(content.TaskID, content.Result)
	}
	if task == nil {
		r.logger.Warn("service task result for unknown or already-terminal task", "task_id", content.TaskID)
		return
	}
	r.deliverServiceTaskOutcome(*task)
}

func (r *Router) deliverServiceTaskOutcome(task model.ServiceTask) {
	if task.AgentID != "" {
		agent := r.agents.GetByID(task.AgentID)
		if agent != nil && agent.ConnectionID != "" {
			reply(r.agentOut, agent.ConnectionID, task.RequestID, "service.task.execute.response", serviceTaskExecuteResponseContent{
				TaskID: task.TaskID, Status: task.Status, Result: task.Result, Error: task.Error,
			})
		}
	}
	if task.ClientID != "" {
		send(r.clientOut, task.ClientID, "service.completed", serviceCompletedContent{
			TaskID: task.TaskID, Status: task.Status, Result: task.Result, Error: task.Error,
		})
	}
}

func (r *Router) deliverServiceTaskFailure(task model.ServiceTask) {
	r.deliverServiceTaskOutcome(task)
}

func (r *Router) handleServiceTaskNotification(svc *model.Service, msg wire.Message) {
	var content serviceTaskNotificationContent
	if err := msg.DecodeContent(&content); err != nil || content.TaskID == "" {
		return
	}
	task := r.serviceTasks.Get(content.TaskID)
	if task == nil {
		return
	}
	if task.AgentID != "" {
		agent := r.agents.GetByID(task.AgentID)
		if agent != nil && agent.ConnectionID != "" {
			send(r.agentOut, agent.ConnectionID, "service.notification", serviceTaskNotificationContent{
				TaskID: task.TaskID, Message: content.Message,
			})
		}
	}
	if task.ClientID != "" {
		send(r.clientOut, task.ClientID, "service.notification", serviceTaskNotificationContent{
			TaskID: task.TaskID, Message: content.Message,
		})
	}
}

func (r *Router) handleServiceStatus(conn *hub.Connection, svc *model.Service, msg wire.Message) {
	var content serviceStatusContent
	if err := msg.DecodeContent(&content); err != nil {
		return
	}
	status := modelAgentStatus(content.Status)
	r.services.UpdateStatus(svc.ID, status)
	reply(r.serviceOut, conn.ID, msg.ID, "service.status.updated", serviceStatusContent{Status: string(status)})
}

package router

import "github.com/gridctl/agenthub/internal/model"

// propagateToClient walks task ancestry from origin upward to the
// first client reached, delivering exactly one copy (I4). The walk is
// iterative with an implicit visited-clients set (a single client can
// only be reached once per call since the walk stops at the first
// client it finds), matching the design note to avoid recursion depth
// tied to task-graph depth.
//
// Per the spec's resolved open question, when an agent has more than
// one task in flight, the first in insertion order is treated as the
// parent; ByAgentID already returns tasks in that order.
func (r *Router) propagateToClient(origin model.AgentTask, clientMsgType string, message, level string, data map[string]any) {
	current := origin

	for {
		if current.ClientID != "" {
			content := clientAgentMessageContent{
				TaskID:              current.TaskID,
				AgentID:             origin.AgentID,
				Message:             message,
				Level:               level,
				Data:                data,
				IsChildAgentMessage: current.TaskID != origin.TaskID,
			}
			if content.IsChildAgentMessage {
				content.ChildTaskID = origin.TaskID
			}
			send(r.clientOut, current.ClientID, clientMsgType, content)
			return
		}

		if current.RequestingAgentID == "" {
			r.logger.Warn("notification dropped: no client ancestor", "task_id", origin.TaskID, "agent_id", origin.AgentID)
			return
		}

		parents := r.agentTasks.ByAgentID(current.RequestingAgentID)
		if len(parents) == 0 {
			r.logger.Warn("notification dropped: parent task not found", "task_id", origin.TaskID, "requesting_agent_id", current.RequestingAgentID)
			return
		}
		current = parents[0]
	}
}

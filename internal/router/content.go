package router

import "github.com/gridctl/agenthub/internal/model"

// Content shapes for the subset of each message's fields the router
// relies on (§4 of the external contract). All other wire fields are
// pass-through and never reach these structs.

type agentRegisterContent struct {
	Name         string         `json:"name"`
	Capabilities []string       `json:"capabilities"`
	Manifest     map[string]any `json:"manifest"`
}

type agentRegisteredContent struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Capabilities []string    `json:"capabilities,omitempty"`
	Status       model.AgentStatus `json:"status"`
}

type agentStatusUpdateContent struct {
	Status string `json:"status"`
}

type taskExecuteContent struct {
	TaskID   string         `json:"taskId"`
	TaskType string         `json:"taskType,omitempty"`
	TaskData map[string]any `json:"taskData,omitempty"`
}

type taskResultContent struct {
	TaskID string         `json:"taskId"`
	Result map[string]any `json:"result"`
}

type taskErrorContent struct {
	TaskID string `json:"taskId"`
	Error  string `json:"error"`
}

type taskNotificationContent struct {
	TaskID  string         `json:"taskId"`
	Message string         `json:"message,omitempty"`
	Level   string         `json:"level,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

type clientAgentMessageContent struct {
	TaskID              string         `json:"taskId"`
	ChildTaskID         string         `json:"childTaskId,omitempty"`
	AgentID             string         `json:"agentId"`
	IsChildAgentMessage bool           `json:"isChildAgentMessage,omitempty"`
	Message             string         `json:"message,omitempty"`
	Level               string         `json:"level,omitempty"`
	Data                map[string]any `json:"data,omitempty"`
}

type agentTaskRequestContent struct {
	TargetAgentID   string         `json:"targetAgentId,omitempty"`
	TargetAgentName string         `json:"targetAgentName,omitempty"`
	TaskType        string         `json:"taskType,omitempty"`
	TaskData        map[string]any `json:"taskData,omitempty"`
	ParentTaskID    string         `json:"parentTaskId,omitempty"`
}

type childAgentRequestAcceptedContent struct {
	ChildTaskID string `json:"childTaskId"`
}

type childAgentResponseContent struct {
	ChildTaskID string         `json:"childTaskId"`
	Status      model.TaskStatus `json:"status"`
	Result      map[string]any `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
}

type agentServiceListRequestContent struct {
	Capabilities []string `json:"capabilities,omitempty"`
}

type agentServiceListResponseContent struct {
	Services []model.Service `json:"services"`
}

type serviceTaskExecuteAgentContent struct {
	ServiceID   string         `json:"serviceId,omitempty"`
	ServiceName string         `json:"serviceName,omitempty"`
	ToolID      string         `json:"toolId"`
	Params      map[string]any `json:"params,omitempty"`
	ClientID    string         `json:"clientId,omitempty"`
}

type serviceTaskExecuteContent struct {
	TaskID string         `json:"taskId"`
	ToolID string         `json:"toolId"`
	Params map[string]any `json:"params,omitempty"`
}

type serviceTaskResultContent struct {
	TaskID string         `json:"taskId"`
	Result map[string]any `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

type serviceTaskNotificationContent struct {
	TaskID  string `json:"taskId"`
	Message string `json:"message,omitempty"`
}

type serviceTaskExecuteResponseContent struct {
	TaskID string         `json:"taskId"`
	Status model.TaskStatus `json:"status"`
	Result map[string]any `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

type serviceCompletedContent struct {
	TaskID string         `json:"taskId"`
	Status model.TaskStatus `json:"status"`
	Result map[string]any `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

type serviceStartedContent struct {
	TaskID    string `json:"taskId"`
	ServiceID string `json:"serviceId"`
	ToolID    string `json:"toolId"`
}

type serviceToolsListContent struct {
	ServiceID string `json:"serviceId,omitempty"`
}

type serviceToolsListResponseContent struct {
	ServiceID string                `json:"serviceId"`
	Tools     []model.ToolDescriptor `json:"tools"`
}

type serviceRegisterContent struct {
	Name         string                 `json:"name"`
	Capabilities []string               `json:"capabilities,omitempty"`
	Tools        []model.ToolDescriptor `json:"tools,omitempty"`
}

type serviceRegisteredContent struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	Capabilities []string               `json:"capabilities,omitempty"`
	Tools        []model.ToolDescriptor `json:"tools,omitempty"`
	Status       model.AgentStatus     `json:"status"`
}

type serviceStatusContent struct {
	Status string `json:"status"`
}

type clientRegisterContent struct {
	Name string `json:"name,omitempty"`
}

type clientWelcomeContent struct {
	ClientID string `json:"clientId"`
}

type agentWelcomeContent struct {
	ConnectionID string `json:"connectionId"`
}

type clientAgentListRequestContent struct {
	Status       string   `json:"status,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
	NameContains string   `json:"nameContains,omitempty"`
}

type clientAgentListResponseContent struct {
	Agents []model.Agent `json:"agents"`
}

type clientAgentTaskCreateRequestContent struct {
	AgentID   string         `json:"agentId,omitempty"`
	AgentName string         `json:"agentName,omitempty"`
	TaskData  map[string]any `json:"taskData,omitempty"`
}

type clientAgentTaskCreateResponseContent struct {
	TaskID string `json:"taskId"`
}

type clientAgentTaskStatusRequestContent struct {
	TaskID string `json:"taskId"`
}

type clientAgentTaskStatusResponseContent struct {
	TaskID string         `json:"taskId"`
	Status model.TaskStatus `json:"status"`
	Result map[string]any `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

type clientAgentTaskResultContent struct {
	TaskID string         `json:"taskId"`
	Status model.TaskStatus `json:"status"`
	Result map[string]any `json:"result"`
}

type mcpServerListResponseContent struct {
	Servers []MCPServerInfo `json:"servers"`
}

type mcpToolsListRequestContent struct {
	ServerID string `json:"serverId"`
}

type mcpToolsListResultContent struct {
	ServerID string     `json:"serverId"`
	Tools    []MCPTool  `json:"tools"`
}

type mcpToolExecuteRequestContent struct {
	ServerID   string         `json:"serverId"`
	ToolName   string         `json:"toolName"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

type mcpToolExecuteResultContent struct {
	ServerID string         `json:"serverId"`
	ToolName string         `json:"toolName"`
	Result   map[string]any `json:"result,omitempty"`
	Status   string         `json:"status"`
	Error    string         `json:"error,omitempty"`
}

// Package model defines the data entities shared by the registries,
// task registries, and router: Agent, Client, Service, and their tasks.
package model

import "time"

// AgentStatus is the canonical status vocabulary for Agents. Other
// strings received on the wire are treated as synonyms for online.
type AgentStatus string

const (
	StatusOnline      AgentStatus = "online"
	StatusOffline     AgentStatus = "offline"
	StatusBusy        AgentStatus = "busy"
	StatusError       AgentStatus = "error"
	StatusMaintenance AgentStatus = "maintenance"
)

// NormalizeStatus maps any wire string onto the canonical set, per the
// spec's resolved open question: unrecognized strings are synonyms for
// online (the source used active/available/online interchangeably).
func NormalizeStatus(s string) AgentStatus {
	switch AgentStatus(s) {
	case StatusOffline, StatusBusy, StatusError, StatusMaintenance:
		return AgentStatus(s)
	default:
		return StatusOnline
	}
}

// ToolDescriptor is declared by a Service at registration; the Service
// is authoritative over its own shape.
type ToolDescriptor struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	InputSchema  map[string]any `json:"inputSchema,omitempty"`
	OutputSchema map[string]any `json:"outputSchema,omitempty"`
}

// Agent is a registered worker attached to the Agent endpoint.
type Agent struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Capabilities []string       `json:"capabilities,omitempty"`
	Manifest     map[string]any `json:"manifest,omitempty"`
	Status       AgentStatus    `json:"status"`
	ConnectionID string         `json:"connectionId,omitempty"`
	RegisteredAt time.Time      `json:"registeredAt"`
}

// RequiredServices extracts manifest.requiredServices, the one
// authorization mechanism this hub implements: an allow-list of
// service names an Agent may invoke.
func (a *Agent) RequiredServices() []string {
	raw, ok := a.Manifest["requiredServices"]
	if !ok {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		if strs, ok := raw.([]string); ok {
			return strs
		}
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Client is auto-registered on connect and auto-marked offline on
// disconnect.
type Client struct {
	ID           string      `json:"id"`
	Name         string      `json:"name,omitempty"`
	Status       AgentStatus `json:"status"`
	ConnectionID string      `json:"connectionId,omitempty"`
	RegisteredAt time.Time   `json:"registeredAt"`
	LastActiveAt time.Time   `json:"lastActiveAt"`
}

// Service is a registered tool provider attached to the Service
// endpoint.
type Service struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Capabilities []string         `json:"capabilities,omitempty"`
	Tools        []ToolDescriptor `json:"tools,omitempty"`
	Status       AgentStatus      `json:"status"`
	ConnectionID string           `json:"connectionId,omitempty"`
	RegisteredAt time.Time        `json:"registeredAt"`
}

// TaskStatus is the lifecycle state of an AgentTask or ServiceTask.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// IsTerminal reports whether status is an absorbing state.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// AgentTask is a unit of work assigned to an Agent.
type AgentTask struct {
	TaskID            string         `json:"taskId"`
	AgentID           string         `json:"agentId"`
	ClientID          string         `json:"clientId,omitempty"`
	RequestingAgentID string         `json:"requestingAgentId,omitempty"`
	ParentTaskID      string         `json:"parentTaskId,omitempty"`
	Status            TaskStatus     `json:"status"`
	CreatedAt         time.Time      `json:"createdAt"`
	CompletedAt       time.Time      `json:"completedAt,omitempty"`
	TaskData          map[string]any `json:"taskData,omitempty"`
	Result            map[string]any `json:"result,omitempty"`
	Error             string         `json:"error,omitempty"`
	RequestID         string         `json:"requestId,omitempty"`
}

// ServiceTask is the same shape as AgentTask but targets a Service and
// carries a tool invocation.
type ServiceTask struct {
	TaskID      string         `json:"taskId"`
	ServiceID   string         `json:"serviceId"`
	ToolID      string         `json:"toolId"`
	Params      map[string]any `json:"params,omitempty"`
	AgentID     string         `json:"agentId,omitempty"`
	ClientID    string         `json:"clientId,omitempty"`
	Status      TaskStatus     `json:"status"`
	CreatedAt   time.Time      `json:"createdAt"`
	CompletedAt time.Time      `json:"completedAt,omitempty"`
	Result      map[string]any `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
	RequestID   string         `json:"requestId,omitempty"`
}

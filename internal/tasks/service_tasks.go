package tasks

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gridctl/agenthub/internal/model"
)

// ServiceTaskRegistry tracks ServiceTasks keyed by taskId. Same shape
// and transition rules as AgentTaskRegistry, but targets a Service.
type ServiceTaskRegistry struct {
	mu    sync.RWMutex
	tasks map[string]*model.ServiceTask
}

// NewServiceTaskRegistry creates an empty registry.
func NewServiceTaskRegistry() *ServiceTaskRegistry {
	return &ServiceTaskRegistry{tasks: make(map[string]*model.ServiceTask)}
}

// Register creates a new pending ServiceTask.
func (r *ServiceTaskRegistry) Register(serviceID, toolID, agentID, clientID string, params map[string]any, requestID string) *model.ServiceTask {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := &model.ServiceTask{
		TaskID:    uuid.NewString(),
		ServiceID: serviceID,
		ToolID:    toolID,
		Params:    params,
		AgentID:   agentID,
		ClientID:  clientID,
		Status:    model.TaskPending,
		CreatedAt: time.Now(),
		RequestID: requestID,
	}
	r.tasks[t.TaskID] = t
	return t
}

// Get returns a copy of the task with taskID, or nil.
func (r *ServiceTaskRegistry) Get(taskID string) *model.ServiceTask {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.tasks[taskID]; ok {
		cp := *t
		return &cp
	}
	return nil
}

// MarkRunning transitions taskID from pending to running.
func (r *ServiceTaskRegistry) MarkRunning(taskID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[taskID]
	if !ok || t.Status != model.TaskPending {
		return
	}
	t.Status = model.TaskRunning
}

// Complete transitions taskID to completed. Idempotent (I2).
func (r *ServiceTaskRegistry) Complete(taskID string, result map[string]any) *model.ServiceTask {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[taskID]
	if !ok || t.Status.IsTerminal() {
		return nil
	}
	t.Status = model.TaskCompleted
	t.Result = result
	t.CompletedAt = time.Now()
	cp := *t
	return &cp
}

// Fail transitions taskID to failed. Idempotent (I2).
func (r *ServiceTaskRegistry) Fail(taskID, reason string) *model.ServiceTask {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[taskID]
	if !ok || t.Status.IsTerminal() {
		return nil
	}
	t.Status = model.TaskFailed
	t.Error = reason
	t.CompletedAt = time.Now()
	cp := *t
	return &cp
}

// FailAllNonTerminalForService fails every pending/running task owned
// by serviceID with reason.
func (r *ServiceTaskRegistry) FailAllNonTerminalForService(serviceID, reason string) []model.ServiceTask {
	r.mu.Lock()
	defer r.mu.Unlock()
	var failed []model.ServiceTask
	for _, t := range r.tasks {
		if t.ServiceID == serviceID && !t.Status.IsTerminal() {
			t.Status = model.TaskFailed
			t.Error = reason
			t.CompletedAt = time.Now()
			failed = append(failed, *t)
		}
	}
	return failed
}

// Package tasks holds the authoritative lifecycle tables for AgentTask
// and ServiceTask: pending -> running -> completed|failed, with
// parent/child links for notification propagation.
package tasks

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gridctl/agenthub/internal/model"
)

// AgentTaskRegistry tracks AgentTasks keyed by taskId. order records
// insertion order so ancestor walks can pick "the first parent" (see
// Router's notification propagation) deterministically.
type AgentTaskRegistry struct {
	mu    sync.RWMutex
	tasks map[string]*model.AgentTask
	order []string
}

// NewAgentTaskRegistry creates an empty registry.
func NewAgentTaskRegistry() *AgentTaskRegistry {
	return &AgentTaskRegistry{tasks: make(map[string]*model.AgentTask)}
}

// Register creates a new pending AgentTask and returns it.
func (r *AgentTaskRegistry) Register(agentID, clientID, requestingAgentID, parentTaskID string, taskData map[string]any, requestID string) *model.AgentTask {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := &model.AgentTask{
		TaskID:            uuid.NewString(),
		AgentID:           agentID,
		ClientID:          clientID,
		RequestingAgentID: requestingAgentID,
		ParentTaskID:      parentTaskID,
		Status:            model.TaskPending,
		CreatedAt:         time.Now(),
		TaskData:          taskData,
		RequestID:         requestID,
	}
	r.tasks[t.TaskID] = t
	r.order = append(r.order, t.TaskID)
	return t
}

// Get returns a copy of the task with taskID, or nil.
func (r *AgentTaskRegistry) Get(taskID string) *model.AgentTask {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.tasks[taskID]; ok {
		cp := *t
		return &cp
	}
	return nil
}

// MarkRunning transitions taskID from pending to running. No-op if the
// task is unknown or already past pending.
func (r *AgentTaskRegistry) MarkRunning(taskID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[taskID]
	if !ok || t.Status != model.TaskPending {
		return
	}
	t.Status = model.TaskRunning
}

// Complete transitions taskID to completed with result. Idempotent:
// a second call on an already-terminal task is ignored (I2).
func (r *AgentTaskRegistry) Complete(taskID string, result map[string]any) *model.AgentTask {
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

// Fail transitions taskID to failed with reason. Idempotent like
// Complete.
func (r *AgentTaskRegistry) Fail(taskID, reason string) *model.AgentTask {
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

// ByAgentID returns all tasks assigned to agentID, in insertion order.
// Order matters where callers pick "the first" deterministically (see
// notification propagation).
func (r *AgentTaskRegistry) ByAgentID(agentID string) []model.AgentTask {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.AgentTask
	for _, id := range r.order {
		t := r.tasks[id]
		if t.AgentID == agentID {
			out = append(out, *t)
		}
	}
	return out
}

// ByAgentIDForChildTasks returns tasks this agent requested as a
// parent (requestingAgentId == agentID), in insertion order.
func (r *AgentTaskRegistry) ByAgentIDForChildTasks(agentID string) []model.AgentTask {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.AgentTask
	for _, id := range r.order {
		t := r.tasks[id]
		if t.RequestingAgentID == agentID {
			out = append(out, *t)
		}
	}
	return out
}

// FailAllNonTerminalForAgent fails every pending/running task owned by
// agentID with reason, returning the tasks that were transitioned.
// Used on agent disconnect (I6: disconnect liveness).
func (r *AgentTaskRegistry) FailAllNonTerminalForAgent(agentID, reason string) []model.AgentTask {
	r.mu.Lock()
	defer r.mu.Unlock()
	var failed []model.AgentTask
	for _, t := range r.tasks {
		if t.AgentID == agentID && !t.Status.IsTerminal() {
			t.Status = model.TaskFailed
			t.Error = reason
			t.CompletedAt = time.Now()
			failed = append(failed, *t)
		}
	}
	return failed
}

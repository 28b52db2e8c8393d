package tasks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridctl/agenthub/internal/model"
)

func TestServiceTaskLifecycle(t *testing.T) {
	r := NewServiceTaskRegistry()
	task := r.Register("svc-1", "read_file", "agent-1", "client-1", map[string]any{"path": "/x"}, "req-1")
	assert.Equal(t, model.TaskPending, task.Status)

	r.MarkRunning(task.TaskID)
	completed := r.Complete(task.TaskID, map[string]any{"contents": "hi"})
	require.NotNil(t, completed)
	assert.Equal(t, model.TaskCompleted, completed.Status)
}

func TestServiceTaskTerminalIsAbsorbing(t *testing.T) {
	r := NewServiceTaskRegistry()
	task := r.Register("svc-1", "read_file", "agent-1", "", nil, "")
	r.Fail(task.TaskID, "service offline")
	assert.Nil(t, r.Complete(task.TaskID, map[string]any{"x": 1}))
}

func TestServiceTaskFailAllNonTerminalForService(t *testing.T) {
	r := NewServiceTaskRegistry()
	running := r.Register("svc-1", "t1", "agent-1", "", nil, "")
	r.MarkRunning(running.TaskID)

	failed := r.FailAllNonTerminalForService("svc-1", "service disconnected")
	require.Len(t, failed, 1)
	assert.Equal(t, model.TaskFailed, r.Get(running.TaskID).Status)
}

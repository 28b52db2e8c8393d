package router

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridctl/agenthub/internal/hub"
	"github.com/gridctl/agenthub/internal/registry"
	"github.com/gridctl/agenthub/internal/tasks"
	"github.com/gridctl/agenthub/pkg/wire"
)

// fakeOutbound records every message sent to it, keyed by connectionID,
// standing in for a real hub.Endpoint in router-level tests.
type fakeOutbound struct {
	sent []sentMessage
}

type sentMessage struct {
	connectionID string
	msg          wire.Message
}

func (f *fakeOutbound) Send(connectionID string, msg wire.Message) {
	f.sent = append(f.sent, sentMessage{connectionID: connectionID, msg: msg})
}

func (f *fakeOutbound) last(connectionID, typ string) (wire.Message, bool) {
	for i := len(f.sent) - 1; i >= 0; i-- {
		s := f.sent[i]
		if s.connectionID == connectionID && s.msg.Type == typ {
			return s.msg, true
		}
	}
	return wire.Message{}, false
}

func (f *fakeOutbound) countOf(connectionID, typ string) int {
	n := 0
	for _, s := range f.sent {
		if s.connectionID == connectionID && s.msg.Type == typ {
			n++
		}
	}
	return n
}

type testHarness struct {
	agents       *registry.AgentRegistry
	clients      *registry.ClientRegistry
	services     *registry.ServiceRegistry
	agentTasks   *tasks.AgentTaskRegistry
	serviceTasks *tasks.ServiceTaskRegistry
	agentOut     *fakeOutbound
	clientOut    *fakeOutbound
	serviceOut   *fakeOutbound
	router       *Router
}

func newHarness(mcp MCPAdapter) *testHarness {
	h := &testHarness{
		agents:       registry.NewAgentRegistry(),
		clients:      registry.NewClientRegistry(),
		services:     registry.NewServiceRegistry(),
		agentTasks:   tasks.NewAgentTaskRegistry(),
		serviceTasks: tasks.NewServiceTaskRegistry(),
		agentOut:     &fakeOutbound{},
		clientOut:    &fakeOutbound{},
		serviceOut:   &fakeOutbound{},
	}
	h.router = New(h.agents, h.clients, h.services, h.agentTasks, h.serviceTasks, h.agentOut, h.clientOut, h.serviceOut, mcp)
	return h
}

func agentConn(id string) *hub.Connection  { return &hub.Connection{ID: id, Class: hub.ClassAgent} }
func clientConn(id string) *hub.Connection { return &hub.Connection{ID: id, Class: hub.ClassClient} }
func serviceConn(id string) *hub.Connection { return &hub.Connection{ID: id, Class: hub.ClassService} }

func mustMsg(t *testing.T, typ string, content any) wire.Message {
	t.Helper()
	msg, err := wire.NewMessage(newID(), typ, content)
	require.NoError(t, err)
	return msg
}

func decodeContent(t *testing.T, msg wire.Message, v any) {
	t.Helper()
	require.NoError(t, msg.DecodeContent(v))
}

// Scenario 1: happy path, client -> agent.
func TestHappyPathClientToAgent(t *testing.T) {
	h := newHarness(nil)

	h.clients.Register("client-conn", "")
	h.router.Dispatch(agentConn("agent-conn"), mustMsg(t, "agent.register", agentRegisterContent{
		Name: "Text Processing Agent",
	}))

	h.router.Dispatch(clientConn("client-conn"), mustMsg(t, "client.agent.task.create.request", clientAgentTaskCreateRequestContent{
		AgentName: "Text Processing Agent",
		TaskData:  map[string]any{"text": "hi", "op": "upper"},
	}))

	createResp, ok := h.clientOut.last("client-conn", "client.agent.task.create.response")
	require.True(t, ok)
	var createContent clientAgentTaskCreateResponseContent
	decodeContent(t, createResp, &createContent)
	require.NotEmpty(t, createContent.TaskID)

	execMsg, ok := h.agentOut.last("agent-conn", "task.execute")
	require.True(t, ok)
	var execContent taskExecuteContent
	decodeContent(t, execMsg, &execContent)
	assert.Equal(t, createContent.TaskID, execContent.TaskID)

	h.router.Dispatch(agentConn("agent-conn"), mustMsg(t, "task.result", taskResultContent{
		TaskID: createContent.TaskID,
		Result: map[string]any{"processedText": "HI"},
	}))

	resultMsg, ok := h.clientOut.last("client-conn", "client.agent.task.result")
	require.True(t, ok)
	var resultContent clientAgentTaskResultContent
	decodeContent(t, resultMsg, &resultContent)
	assert.Equal(t, "completed", string(resultContent.Status))
	assert.Equal(t, "HI", resultContent.Result["processedText"])
}

// Scenario 2: agent-to-agent delegation.
func TestAgentToAgentDelegation(t *testing.T) {
	h := newHarness(nil)

	h.router.Dispatch(agentConn("agent-a"), mustMsg(t, "agent.register", agentRegisterContent{Name: "Agent A"}))
	h.router.Dispatch(agentConn("agent-b"), mustMsg(t, "agent.register", agentRegisterContent{Name: "Data Analysis Agent"}))

	h.router.Dispatch(agentConn("agent-a"), mustMsg(t, "agent.task.request", agentTaskRequestContent{
		TargetAgentName: "Data Analysis Agent",
		TaskType:        "analyze",
		TaskData:        map[string]any{"x": 1},
	}))

	accepted, ok := h.agentOut.last("agent-a", "childagent.request.accepted")
	require.True(t, ok)
	var acceptedContent childAgentRequestAcceptedContent
	decodeContent(t, accepted, &acceptedContent)
	require.NotEmpty(t, acceptedContent.ChildTaskID)

	execMsg, ok := h.agentOut.last("agent-b", "task.execute")
	require.True(t, ok)
	var execContent taskExecuteContent
	decodeContent(t, execMsg, &execContent)
	assert.Equal(t, acceptedContent.ChildTaskID, execContent.TaskID)

	h.router.Dispatch(agentConn("agent-b"), mustMsg(t, "task.result", taskResultContent{
		TaskID: acceptedContent.ChildTaskID,
		Result: map[string]any{"summary": "done"},
	}))

	respMsg, ok := h.agentOut.last("agent-a", "childagent.response")
	require.True(t, ok)
	var respContent childAgentResponseContent
	decodeContent(t, respMsg, &respContent)
	assert.Equal(t, acceptedContent.ChildTaskID, respContent.ChildTaskID)
	assert.Equal(t, "completed", string(respContent.Status))
	assert.Equal(t, "done", respContent.Result["summary"])
}

// Scenario 3: notification propagation through a grandchild.
func TestNotificationPropagationToGrandchild(t *testing.T) {
	h := newHarness(nil)

	h.clients.Register("client-conn", "")
	h.router.Dispatch(agentConn("agent-a"), mustMsg(t, "agent.register", agentRegisterContent{Name: "Agent A"}))
	h.router.Dispatch(agentConn("agent-b"), mustMsg(t, "agent.register", agentRegisterContent{Name: "Agent B"}))

	h.router.Dispatch(clientConn("client-conn"), mustMsg(t, "client.agent.task.create.request", clientAgentTaskCreateRequestContent{
		AgentName: "Agent A",
		TaskData:  map[string]any{},
	}))
	createResp, _ := h.clientOut.last("client-conn", "client.agent.task.create.response")
	var createContent clientAgentTaskCreateResponseContent
	decodeContent(t, createResp, &createContent)

	h.router.Dispatch(agentConn("agent-a"), mustMsg(t, "agent.task.request", agentTaskRequestContent{
		TargetAgentName: "Agent B",
		TaskData:        map[string]any{},
	}))
	accepted, _ := h.agentOut.last("agent-a", "childagent.request.accepted")
	var acceptedContent childAgentRequestAcceptedContent
	decodeContent(t, accepted, &acceptedContent)

	h.router.Dispatch(agentConn("agent-b"), mustMsg(t, "task.notification", taskNotificationContent{
		TaskID:  acceptedContent.ChildTaskID,
		Message: "halfway",
	}))

	assert.Equal(t, 1, h.clientOut.countOf("client-conn", "task.notification"))
	notifyMsg, ok := h.clientOut.last("client-conn", "task.notification")
	require.True(t, ok)
	var notifyContent clientAgentMessageContent
	decodeContent(t, notifyMsg, &notifyContent)
	assert.Equal(t, "Agent B", func() string {
		ag := h.agents.GetByID(notifyContent.AgentID)
		return ag.Name
	}())
	assert.True(t, notifyContent.IsChildAgentMessage)
	assert.Equal(t, acceptedContent.ChildTaskID, notifyContent.ChildTaskID)
}

// Scenario 4: disconnect during execution.
func TestDisconnectDuringExecution(t *testing.T) {
	h := newHarness(nil)

	h.clients.Register("client-conn", "")
	h.router.Dispatch(agentConn("agent-conn"), mustMsg(t, "agent.register", agentRegisterContent{Name: "Agent A"}))

	h.router.Dispatch(clientConn("client-conn"), mustMsg(t, "client.agent.task.create.request", clientAgentTaskCreateRequestContent{
		AgentName: "Agent A",
		TaskData:  map[string]any{},
	}))
	createResp, _ := h.clientOut.last("client-conn", "client.agent.task.create.response")
	var createContent clientAgentTaskCreateResponseContent
	decodeContent(t, createResp, &createContent)

	h.router.OnDisconnect(hub.ClassAgent, "agent-conn")

	task := h.agentTasks.Get(createContent.TaskID)
	require.NotNil(t, task)
	assert.Equal(t, "failed", string(task.Status))
	assert.Contains(t, task.Error, "disconnected")

	errMsg, ok := h.clientOut.last("client-conn", "task.error")
	require.True(t, ok)
	assert.Equal(t, 0, h.clientOut.countOf("client-conn", "client.agent.task.result"))
	var errContent clientAgentTaskResultContent
	decodeContent(t, errMsg, &errContent)
	assert.Equal(t, createContent.TaskID, errContent.TaskID)
}

// Scenario 5: MCP tool execution via agent.
type fakeMCPAdapter struct {
	tools  map[string][]MCPTool
	result map[string]any
	err    error
}

func (f *fakeMCPAdapter) ListServers() []MCPServerInfo { return nil }
func (f *fakeMCPAdapter) ListTools(ctx context.Context, serverID string) ([]MCPTool, error) {
	return f.tools[serverID], nil
}
func (f *fakeMCPAdapter) ExecuteTool(ctx context.Context, serverID, toolName string, params map[string]any) (map[string]any, error) {
	return f.result, f.err
}

func TestMCPToolExecutionViaAgent(t *testing.T) {
	mcpAdapter := &fakeMCPAdapter{result: map[string]any{"contents": "file data"}}
	h := newHarness(mcpAdapter)
	h.router.Dispatch(agentConn("agent-conn"), mustMsg(t, "agent.register", agentRegisterContent{Name: "Agent A"}))

	req := mustMsg(t, "mcp.tool.execute", mcpToolExecuteRequestContent{
		ServerID: "filesystem-server",
		ToolName: "read_file",
		Parameters: map[string]any{"path": "/x"},
	})
	h.router.Dispatch(agentConn("agent-conn"), req)

	resp, ok := h.agentOut.last("agent-conn", "mcp.tool.execute.result")
	require.True(t, ok)
	assert.Equal(t, req.ID, resp.RequestID)
	var content mcpToolExecuteResultContent
	decodeContent(t, resp, &content)
	assert.Equal(t, "success", content.Status)
	assert.Equal(t, "file data", content.Result["contents"])
}

// Scenario 6: duplicate-name registration.
func TestDuplicateNameRegistration(t *testing.T) {
	h := newHarness(nil)

	h.router.Dispatch(agentConn("conn-1"), mustMsg(t, "agent.register", agentRegisterContent{Name: "Worker"}))
	first := h.agents.GetByName("Worker")
	require.NotNil(t, first)

	h.router.Dispatch(agentConn("conn-2"), mustMsg(t, "agent.register", agentRegisterContent{Name: "Worker"}))

	demoted := h.agents.GetByID(first.ID)
	require.NotNil(t, demoted)
	assert.Equal(t, "offline", string(demoted.Status))

	live := h.agents.GetByName("Worker")
	require.NotNil(t, live)
	assert.NotEqual(t, first.ID, live.ID)
}

func TestUnknownMessageTypeYieldsUnsupportedError(t *testing.T) {
	h := newHarness(nil)
	h.router.Dispatch(agentConn("agent-conn"), mustMsg(t, "agent.register", agentRegisterContent{Name: "Agent A"}))

	h.router.Dispatch(agentConn("agent-conn"), mustMsg(t, "bogus.type", map[string]any{}))
	errMsg, ok := h.agentOut.last("agent-conn", "error")
	require.True(t, ok)
	var content wire.ErrorContent
	decodeContent(t, errMsg, &content)
	assert.Equal(t, wire.ErrUnsupported, content.Code)
}

func TestServiceTaskExecuteRequiresAuthorization(t *testing.T) {
	h := newHarness(nil)

	h.router.Dispatch(agentConn("agent-conn"), mustMsg(t, "agent.register", agentRegisterContent{
		Name:     "Agent A",
		Manifest: map[string]any{"requiredServices": []any{"allowed-service"}},
	}))
	h.router.Dispatch(serviceConn("svc-conn"), mustMsg(t, "service.register", serviceRegisterContent{Name: "other-service"}))

	h.router.Dispatch(agentConn("agent-conn"), mustMsg(t, "service.task.execute", serviceTaskExecuteAgentContent{
		ServiceName: "other-service",
		ToolID:      "tool-1",
	}))

	errMsg, ok := h.agentOut.last("agent-conn", "error")
	require.True(t, ok)
	var content wire.ErrorContent
	decodeContent(t, errMsg, &content)
	assert.Equal(t, wire.ErrUnauthorized, content.Code)
}

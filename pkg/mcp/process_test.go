package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridctl/agenthub/pkg/logging"
)

func newTestProcessClient() *ProcessClient {
	return &ProcessClient{
		name:      "test-server",
		logger:    logging.NewDiscardLogger(),
		responses: make(map[int64]chan *Response),
	}
}

func TestProcessClient_ReadStderr(t *testing.T) {
	client := newTestProcessClient()
	reader := strings.NewReader("error: something failed\nwarning: disk space low\n")

	done := make(chan struct{})
	go func() {
		client.readStderr(reader)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("readStderr did not complete in time")
	}
}

func TestProcessClient_ReadStderr_Empty(t *testing.T) {
	client := newTestProcessClient()

	done := make(chan struct{})
	go func() {
		client.readStderr(bytes.NewReader(nil))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("readStderr did not complete in time")
	}
}

func TestProcessClient_ReadResponses_RoutesToWaitingCaller(t *testing.T) {
	client := newTestProcessClient()

	respCh := make(chan *Response, 1)
	client.responsesMu.Lock()
	client.responses[1] = respCh
	client.responsesMu.Unlock()

	result, _ := json.Marshal(map[string]string{"status": "ok"})
	idBytes := json.RawMessage(`1`)
	resp := Response{JSONRPC: "2.0", ID: &idBytes, Result: result}
	line, _ := json.Marshal(resp)

	r, w := newPipe(t)
	client.stdout = r

	done := make(chan struct{})
	go func() {
		client.readResponses()
		close(done)
	}()

	_, err := w.Write(append(line, '\n'))
	require.NoError(t, err)

	select {
	case got := <-respCh:
		assert.Equal(t, json.RawMessage(result), got.Result)
	case <-time.After(2 * time.Second):
		t.Fatal("response not routed in time")
	}

	w.Close()
	<-done
}

func TestProcessClient_ReadResponses_IgnoresNonJSON(t *testing.T) {
	client := newTestProcessClient()
	r, w := newPipe(t)
	client.stdout = r

	done := make(chan struct{})
	go func() {
		client.readResponses()
		close(done)
	}()

	_, err := w.Write([]byte("not json at all\n"))
	require.NoError(t, err)
	w.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("readResponses did not return after stdout closed")
	}
}

func TestProcessClient_ReadResponses_IgnoresUnmatchedID(t *testing.T) {
	client := newTestProcessClient()
	r, w := newPipe(t)
	client.stdout = r

	done := make(chan struct{})
	go func() {
		client.readResponses()
		close(done)
	}()

	idBytes := json.RawMessage(`42`)
	resp := Response{JSONRPC: "2.0", ID: &idBytes}
	line, _ := json.Marshal(resp)
	_, err := w.Write(append(line, '\n'))
	require.NoError(t, err)
	w.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("readResponses did not return after stdout closed")
	}
}

func TestProcessClient_FailAllOutstanding_OnSubprocessExit(t *testing.T) {
	client := newTestProcessClient()
	r, w := newPipe(t)
	client.stdout = r

	waiterA := make(chan *Response, 1)
	waiterB := make(chan *Response, 1)
	client.responsesMu.Lock()
	client.responses[1] = waiterA
	client.responses[2] = waiterB
	client.responsesMu.Unlock()

	done := make(chan struct{})
	go func() {
		client.readResponses()
		close(done)
	}()

	w.Close() // simulate subprocess exit: stdout reaches EOF

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("readResponses did not return on stdout close")
	}

	for _, ch := range []chan *Response{waiterA, waiterB} {
		select {
		case resp := <-ch:
			require.NotNil(t, resp.Error)
			assert.Equal(t, InternalError, resp.Error.Code)
		case <-time.After(2 * time.Second):
			t.Fatal("outstanding request was not failed on subprocess exit")
		}
	}
}

func TestProcessClient_Connect_EmptyCommand(t *testing.T) {
	client := NewProcessClient("empty", nil, "", nil)
	err := client.Connect(context.Background())
	assert.Error(t, err)
}

func TestProcessClient_Connect_Idempotent(t *testing.T) {
	client := NewProcessClient("echo-server", []string{"cat"}, "", nil)
	require.NoError(t, client.Connect(context.Background()))
	require.NoError(t, client.Connect(context.Background()))
	_ = client.Close()
}

func TestProcessClient_Send_NotConnected(t *testing.T) {
	client := newTestProcessClient()
	err := client.send(Request{JSONRPC: "2.0", Method: "ping"})
	assert.Error(t, err)
}

func TestProcessClient_SetLogger_NilIsNoop(t *testing.T) {
	client := newTestProcessClient()
	original := client.logger
	client.SetLogger(nil)
	assert.Same(t, original, client.logger)
}

func TestProcessClient_Close_NotStarted(t *testing.T) {
	client := NewProcessClient("never-started", []string{"cat"}, "", nil)
	assert.NoError(t, client.Close())
}

func TestProcessClient_NewProcessClient_EnvMerge(t *testing.T) {
	client := NewProcessClient("with-env", []string{"cat"}, "", map[string]string{"FOO": "bar"})
	found := false
	for _, kv := range client.env {
		if kv == "FOO=bar" {
			found = true
		}
	}
	assert.True(t, found, "expected merged env var FOO=bar, got %v", client.env)
}

func TestProcessClient_IsInitialized_DefaultsFalse(t *testing.T) {
	client := NewProcessClient("fresh", []string{"cat"}, "", nil)
	assert.False(t, client.IsInitialized())
}

// newPipe returns an in-memory pipe standing in for a subprocess's
// stdout, closable from the writer side to simulate process exit.
func newPipe(t *testing.T) (*io.PipeReader, *io.PipeWriter) {
	t.Helper()
	return io.Pipe()
}

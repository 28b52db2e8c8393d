package hub

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridctl/agenthub/pkg/wire"
)

type recordingDispatcher struct {
	mu   sync.Mutex
	msgs []wire.Message
	got  chan struct{}
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{got: make(chan struct{}, 16)}
}

func (d *recordingDispatcher) Dispatch(conn *Connection, msg wire.Message) {
	d.mu.Lock()
	d.msgs = append(d.msgs, msg)
	d.mu.Unlock()
	d.got <- struct{}{}
}

type recordingObserver struct {
	mu   sync.Mutex
	ids  []string
	seen chan struct{}
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{seen: make(chan struct{}, 16)}
}

func (o *recordingObserver) OnDisconnect(class Class, connectionID string) {
	o.mu.Lock()
	o.ids = append(o.ids, connectionID)
	o.mu.Unlock()
	o.seen <- struct{}{}
}

func dialTestServer(t *testing.T, e *Endpoint) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(e.ServeHTTP(func(conn *Connection) {
		welcome, err := wire.NewMessage("welcome-1", "orchestrator.welcome", map[string]string{"connectionId": conn.ID})
		require.NoError(t, err)
		conn.Send(welcome)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func TestEndpointAcceptAndWelcome(t *testing.T) {
	dispatcher := newRecordingDispatcher()
	e := NewEndpoint(ClassAgent, dispatcher, nil)
	go e.Run()
	t.Cleanup(e.Stop)

	srv := dialTestServer(t, e)
	ws, _, err := websocket.DefaultDialer.Dial(wsURL(srv.URL), nil)
	require.NoError(t, err)
	defer ws.Close()

	var msg wire.Message
	require.NoError(t, ws.ReadJSON(&msg))
	assert.Equal(t, "orchestrator.welcome", msg.Type)

	require.Eventually(t, func() bool { return e.Count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestEndpointDispatchesInboundMessages(t *testing.T) {
	dispatcher := newRecordingDispatcher()
	e := NewEndpoint(ClassClient, dispatcher, nil)
	go e.Run()
	t.Cleanup(e.Stop)

	srv := dialTestServer(t, e)
	ws, _, err := websocket.DefaultDialer.Dial(wsURL(srv.URL), nil)
	require.NoError(t, err)
	defer ws.Close()

	var welcome wire.Message
	require.NoError(t, ws.ReadJSON(&welcome))

	req, err := wire.NewMessage("req-1", "client.agent.list.request", nil)
	require.NoError(t, err)
	require.NoError(t, ws.WriteJSON(req))

	select {
	case <-dispatcher.got:
	case <-time.After(time.Second):
		t.Fatal("dispatcher never received message")
	}

	dispatcher.mu.Lock()
	defer dispatcher.mu.Unlock()
	require.Len(t, dispatcher.msgs, 1)
	assert.Equal(t, "client.agent.list.request", dispatcher.msgs[0].Type)
}

func TestEndpointMalformedFrameGetsError(t *testing.T) {
	dispatcher := newRecordingDispatcher()
	e := NewEndpoint(ClassAgent, dispatcher, nil)
	go e.Run()
	t.Cleanup(e.Stop)

	srv := dialTestServer(t, e)
	ws, _, err := websocket.DefaultDialer.Dial(wsURL(srv.URL), nil)
	require.NoError(t, err)
	defer ws.Close()

	var welcome wire.Message
	require.NoError(t, ws.ReadJSON(&welcome))

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`{"id":"x"}`)))

	var reply wire.Message
	require.NoError(t, ws.ReadJSON(&reply))
	assert.Equal(t, "error", reply.Type)
}

func TestEndpointOnDisconnectNotifiesObserver(t *testing.T) {
	dispatcher := newRecordingDispatcher()
	observer := newRecordingObserver()
	e := NewEndpoint(ClassService, dispatcher, observer)
	go e.Run()
	t.Cleanup(e.Stop)

	srv := dialTestServer(t, e)
	ws, _, err := websocket.DefaultDialer.Dial(wsURL(srv.URL), nil)
	require.NoError(t, err)

	var welcome wire.Message
	require.NoError(t, ws.ReadJSON(&welcome))
	ws.Close()

	select {
	case <-observer.seen:
	case <-time.After(time.Second):
		t.Fatal("observer never notified of disconnect")
	}
}

func TestEndpointSendToUnknownConnectionIsSoftError(t *testing.T) {
	dispatcher := newRecordingDispatcher()
	e := NewEndpoint(ClassAgent, dispatcher, nil)
	go e.Run()
	t.Cleanup(e.Stop)

	msg, err := wire.NewMessage("id-1", "ping", nil)
	require.NoError(t, err)
	assert.NotPanics(t, func() { e.Send("unknown-connection", msg) })
}

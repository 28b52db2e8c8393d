package hub

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/gridctl/agenthub/pkg/logging"
	"github.com/gridctl/agenthub/pkg/wire"
)

// Dispatcher receives every inbound message from every connection of
// an Endpoint, tagged with the connection it arrived on.
type Dispatcher interface {
	Dispatch(conn *Connection, msg wire.Message)
}

// DisconnectObserver is notified when a connection closes, so the
// owning registry can mark the corresponding participant offline.
type DisconnectObserver interface {
	OnDisconnect(class Class, connectionID string)
}

// Endpoint accepts inbound connections on a dedicated port for one
// participant class (Agent, Client, or Service) and keeps the
// authoritative map of live connections for that class.
//
// Register/unregister of connections is serialized through a single
// loop (the run goroutine), which takes the write lock for each
// membership change; lookups and iteration (Get, Count, Broadcast,
// Stop) take the read lock.
type Endpoint struct {
	class      Class
	dispatcher Dispatcher
	observer   DisconnectObserver
	logger     *slog.Logger
	upgrader   websocket.Upgrader

	mu          sync.RWMutex
	connections map[string]*Connection

	register   chan *Connection
	unregister chan *Connection
	done       chan struct{}
	stopped    chan struct{}
}

// NewEndpoint creates an Endpoint for the given participant class.
func NewEndpoint(class Class, dispatcher Dispatcher, observer DisconnectObserver) *Endpoint {
	return &Endpoint{
		class:       class,
		dispatcher:  dispatcher,
		observer:    observer,
		logger:      logging.NewDiscardLogger(),
		upgrader:    websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		connections: make(map[string]*Connection),
		register:    make(chan *Connection, 16),
		unregister:  make(chan *Connection, 16),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
}

// SetLogger sets the endpoint's logger.
func (e *Endpoint) SetLogger(logger *slog.Logger) {
	if logger != nil {
		e.logger = logger
	}
}

// Run processes connection registration/unregistration until Stop is
// called. Must be started before ServeHTTP receives traffic.
func (e *Endpoint) Run() {
	defer close(e.stopped)
	for {
		select {
		case conn := <-e.register:
			e.mu.Lock()
			e.connections[conn.ID] = conn
			e.mu.Unlock()
			e.logger.Info("connection accepted", "connection_id", conn.ID, "class", e.class)

		case conn := <-e.unregister:
			e.mu.Lock()
			_, ok := e.connections[conn.ID]
			delete(e.connections, conn.ID)
			e.mu.Unlock()
			if ok {
				e.logger.Info("connection closed", "connection_id", conn.ID, "class", e.class)
				if e.observer != nil {
					e.observer.OnDisconnect(e.class, conn.ID)
				}
			}

		case <-e.done:
			return
		}
	}
}

// ServeHTTP upgrades the request to a websocket connection, assigns it
// a connectionId, sends the caller's welcome message (via onWelcome),
// and launches its read/write pumps.
func (e *Endpoint) ServeHTTP(onWelcome func(*Connection)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := e.upgrader.Upgrade(w, r, nil)
		if err != nil {
			e.logger.Warn("websocket upgrade failed", "error", err)
			return
		}

		conn := newConnection(uuid.NewString(), e.class, ws, e.logger)
		e.register <- conn

		if onWelcome != nil {
			onWelcome(conn)
		}

		go conn.writePump()
		go conn.readPump(e.dispatcher.Dispatch, func(c *Connection) {
			e.unregister <- c
		})
	}
}

// Get returns the connection with the given id, or nil.
func (e *Endpoint) Get(connectionID string) *Connection {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.connections[connectionID]
}

// Send delivers msg to connectionID. Unknown ids are a soft error: the
// message is dropped and logged, never panics.
func (e *Endpoint) Send(connectionID string, msg wire.Message) {
	conn := e.Get(connectionID)
	if conn == nil {
		e.logger.Warn("send to unknown connection", "connection_id", connectionID, "class", e.class)
		return
	}
	conn.Send(msg)
}

// Broadcast sends msg to every live connection for which filter
// returns true (or every connection, if filter is nil). Used by the
// Client endpoint for global announcements.
func (e *Endpoint) Broadcast(filter func(*Connection) bool, msg wire.Message) {
	e.mu.RLock()
	targets := make([]*Connection, 0, len(e.connections))
	for _, conn := range e.connections {
		if filter == nil || filter(conn) {
			targets = append(targets, conn)
		}
	}
	e.mu.RUnlock()

	for _, conn := range targets {
		conn.Send(msg)
	}
}

// Count returns the number of live connections.
func (e *Endpoint) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.connections)
}

// Stop terminates all live connections and the run loop. Any
// PendingResponses tied to them are the caller's responsibility to
// fail out-of-band; Stop only tears down transport state.
func (e *Endpoint) Stop() {
	e.mu.RLock()
	conns := make([]*Connection, 0, len(e.connections))
	for _, c := range e.connections {
		conns = append(conns, c)
	}
	e.mu.RUnlock()

	for _, c := range conns {
		c.Close()
	}
	close(e.done)
	<-e.stopped
}

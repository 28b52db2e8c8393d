// Package pending implements the PendingResponseTable: a map from
// outbound messageId to a one-shot waiter, the canonical
// request/response-over-asynchronous-duplex primitive. The app creates
// one Table and shuts it down on exit; the router and the MCP adapter
// do not use it.
package pending

import (
	"context"
	"sync"
	"time"

	"github.com/gridctl/agenthub/pkg/wire"
)

// Filter optionally narrows which inbound messages resolve a waiter.
// A nil filter matches any message carrying the expected requestId.
type Filter func(wire.Message) bool

// Result is what a waiter observes: either a matching message or an
// error (timeout or shutdown). Exactly one of the two is set.
type Result struct {
	Message wire.Message
	Err     error
}

// entry is the internal bookkeeping for one outstanding wait.
type entry struct {
	ch     chan Result
	filter Filter
	timer  *time.Timer
}

// Table maps messageId -> waiter. Only one waiter per messageId is
// permitted in the task-result path (Await returns an error if the id
// is already registered); callers needing their own id space (the MCP
// adapter) manage their own correlation instead of sharing a Table.
type Table struct {
	mu      sync.Mutex
	entries map[string]*entry
	closed  bool
}

// New creates an empty PendingResponseTable.
func New() *Table {
	return &Table{entries: make(map[string]*entry)}
}

// Await registers messageID as awaiting a reply and blocks until a
// matching inbound message is delivered via Resolve, the timeout
// elapses, ctx is cancelled, or the table is shut down. Every path
// resolves with either a message or an error — never a silent
// discard (I5).
func (t *Table) Await(ctx context.Context, messageID string, timeout time.Duration, filter Filter) (wire.Message, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return wire.Message{}, wire.NewError(wire.ErrInternal, "pending response table is shut down")
	}
	if _, exists := t.entries[messageID]; exists {
		t.mu.Unlock()
		return wire.Message{}, wire.NewError(wire.ErrInternal, "duplicate wait registered for message %s", messageID)
	}

	e := &entry{ch: make(chan Result, 1), filter: filter}
	e.timer = time.AfterFunc(timeout, func() {
		t.resolveWith(messageID, Result{Err: wire.NewError(wire.ErrTimeout, "timed out waiting for response to %s", messageID)})
	})
	t.entries[messageID] = e
	t.mu.Unlock()

	select {
	case res := <-e.ch:
		return res.Message, res.Err
	case <-ctx.Done():
		t.removeAndStop(messageID)
		return wire.Message{}, ctx.Err()
	}
}

// Resolve delivers an inbound message to the waiter registered under
// msg.RequestID, if any and if it passes the waiter's filter. Returns
// true if a waiter was resolved.
func (t *Table) Resolve(msg wire.Message) bool {
	if msg.RequestID == "" {
		return false
	}
	t.mu.Lock()
	e, ok := t.entries[msg.RequestID]
	if !ok {
		t.mu.Unlock()
		return false
	}
	if e.filter != nil && !e.filter(msg) {
		t.mu.Unlock()
		return false
	}
	delete(t.entries, msg.RequestID)
	t.mu.Unlock()

	e.timer.Stop()
	e.ch <- Result{Message: msg}
	return true
}

// resolveWith delivers res to messageID's waiter, if still registered
// (used by the timeout timer).
func (t *Table) resolveWith(messageID string, res Result) {
	t.mu.Lock()
	e, ok := t.entries[messageID]
	if !ok {
		t.mu.Unlock()
		return
	}
	delete(t.entries, messageID)
	t.mu.Unlock()
	e.ch <- res
}

func (t *Table) removeAndStop(messageID string) {
	t.mu.Lock()
	e, ok := t.entries[messageID]
	if ok {
		delete(t.entries, messageID)
	}
	t.mu.Unlock()
	if ok {
		e.timer.Stop()
	}
}

// Shutdown rejects every outstanding wait with a shutdown error. Used
// when an endpoint stops.
func (t *Table) Shutdown() {
	t.mu.Lock()
	t.closed = true
	entries := t.entries
	t.entries = make(map[string]*entry)
	t.mu.Unlock()

	shutdownErr := wire.NewError(wire.ErrInternal, "endpoint shutting down")
	for _, e := range entries {
		e.timer.Stop()
		e.ch <- Result{Err: shutdownErr}
	}
}

// Pending returns the number of outstanding waits, for diagnostics.
func (t *Table) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

package registry

import (
	"sync"
	"time"

	"github.com/gridctl/agenthub/internal/model"
)

// ClientRegistry is the authoritative table of Clients. Clients are
// auto-registered on connect and auto-marked offline on disconnect;
// they have no pre-configuration table.
type ClientRegistry struct {
	mu     sync.RWMutex
	byID   map[string]*model.Client
	byConn map[string]string
}

// NewClientRegistry creates an empty registry.
func NewClientRegistry() *ClientRegistry {
	return &ClientRegistry{
		byID:   make(map[string]*model.Client),
		byConn: make(map[string]string),
	}
}

// Register creates a new Client bound to connectionID. name is
// optional (clients may register anonymously).
func (r *ClientRegistry) Register(connectionID, name string) *model.Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	c := &model.Client{
		ID:           newClientID(),
		Name:         name,
		Status:       model.StatusOnline,
		ConnectionID: connectionID,
		RegisteredAt: now,
		LastActiveAt: now,
	}
	r.byID[c.ID] = c
	r.byConn[connectionID] = c.ID
	return c
}

// GetByID returns a copy of the client with id, or nil.
func (r *ClientRegistry) GetByID(id string) *model.Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.byID[id]; ok {
		cp := *c
		return &cp
	}
	return nil
}

// GetByConnectionID returns the client bound to connectionID, or nil.
func (r *ClientRegistry) GetByConnectionID(connectionID string) *model.Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byConn[connectionID]
	if !ok {
		return nil
	}
	cp := *r.byID[id]
	return &cp
}

// SetName updates the display name of the client bound to
// connectionID. A no-op if the connection is unknown.
func (r *ClientRegistry) SetName(connectionID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byConn[connectionID]
	if !ok {
		return
	}
	r.byID[id].Name = name
}

// Touch updates lastActiveAt for the client bound to connectionID.
func (r *ClientRegistry) Touch(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byConn[connectionID]
	if !ok {
		return
	}
	r.byID[id].LastActiveAt = time.Now()
}

// OnDisconnect marks the client bound to connectionID offline and
// clears its connection binding.
func (r *ClientRegistry) OnDisconnect(connectionID string) *model.Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byConn[connectionID]
	if !ok {
		return nil
	}
	delete(r.byConn, connectionID)
	c := r.byID[id]
	c.Status = model.StatusOffline
	c.ConnectionID = ""
	cp := *c
	return &cp
}

// List returns every known client (online and offline).
func (r *ClientRegistry) List() []model.Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Client, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, *c)
	}
	return out
}

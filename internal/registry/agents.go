// Package registry holds the authoritative in-memory tables of
// connected Agents, Clients, and Services.
package registry

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gridctl/agenthub/internal/model"
)

// PreconfiguredAgent is a manifest-declared entry consulted at
// registration time, per the "pre-configuration then connect" pattern:
// represented as a separate table keyed by name, never a ghost entry
// in the live registry.
type PreconfiguredAgent struct {
	ID           string
	Name         string
	Capabilities []string
	Manifest     map[string]any
}

// AgentFilter narrows List results.
type AgentFilter struct {
	Status       model.AgentStatus
	Capabilities []string
	NameContains string
}

// AgentRegistry is the authoritative table of Agents, keyed by id, with
// secondary indexes by name and connectionId.
type AgentRegistry struct {
	mu     sync.RWMutex
	byID   map[string]*model.Agent
	byConn map[string]string // connectionId -> agentId

	preconfigured map[string]PreconfiguredAgent // name -> entry
}

// NewAgentRegistry creates an empty registry.
func NewAgentRegistry() *AgentRegistry {
	return &AgentRegistry{
		byID:          make(map[string]*model.Agent),
		byConn:        make(map[string]string),
		preconfigured: make(map[string]PreconfiguredAgent),
	}
}

// SetPreconfigured installs the manifest's pre-configured agent table.
func (r *AgentRegistry) SetPreconfigured(entries []PreconfiguredAgent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.preconfigured = make(map[string]PreconfiguredAgent, len(entries))
	for _, e := range entries {
		r.preconfigured[e.Name] = e
	}
}

// Register installs or replaces the live Agent for name on
// connectionID. If a live agent already holds name, it is demoted to
// offline first (I1: at most one online/busy agent per name). If name
// matches a pre-configured entry, its id and capabilities are merged
// in (pre-config capabilities union wire-declared capabilities, and
// the pre-configured id is adopted).
func (r *AgentRegistry) Register(name, connectionID string, capabilities []string, manifest map[string]any) *model.Agent {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Demote any live occupant of this name.
	for _, a := range r.byID {
		if a.Name == name && a.Status != model.StatusOffline {
			r.demoteLocked(a)
		}
	}

	id := newAgentID()
	if pre, ok := r.preconfigured[name]; ok {
		id = pre.ID
		capabilities = unionStrings(pre.Capabilities, capabilities)
		if manifest == nil {
			manifest = pre.Manifest
		}
	}

	// Reconnection by id preserves registeredAt.
	registeredAt := time.Now()
	if existing, ok := r.byID[id]; ok {
		registeredAt = existing.RegisteredAt
	}

	agent := &model.Agent{
		ID:           id,
		Name:         name,
		Capabilities: capabilities,
		Manifest:     manifest,
		Status:       model.StatusOnline,
		ConnectionID: connectionID,
		RegisteredAt: registeredAt,
	}
	r.byID[id] = agent
	r.byConn[connectionID] = id
	return agent
}

// demoteLocked sets a to offline and clears its connection binding.
// Caller must hold the write lock.
func (r *AgentRegistry) demoteLocked(a *model.Agent) {
	if a.ConnectionID != "" {
		delete(r.byConn, a.ConnectionID)
	}
	a.Status = model.StatusOffline
	a.ConnectionID = ""
}

// GetByID returns a copy of the agent with id, or nil.
func (r *AgentRegistry) GetByID(id string) *model.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if a, ok := r.byID[id]; ok {
		cp := *a
		return &cp
	}
	return nil
}

// GetByName returns the live agent with name, or nil. At most one
// live (non-offline) agent may exist per name.
func (r *AgentRegistry) GetByName(name string) *model.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.byID {
		if a.Name == name && a.Status != model.StatusOffline {
			cp := *a
			return &cp
		}
	}
	return nil
}

// GetByConnectionID returns the agent bound to connectionID, or nil.
func (r *AgentRegistry) GetByConnectionID(connectionID string) *model.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byConn[connectionID]
	if !ok {
		return nil
	}
	cp := *r.byID[id]
	return &cp
}

// UpdateStatus sets agent id's status. A no-op if the agent is
// unknown.
func (r *AgentRegistry) UpdateStatus(id string, status model.AgentStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.byID[id]; ok {
		a.Status = status
	}
}

// OnDisconnect clears the connection binding for whichever agent holds
// connectionID and marks it offline. Safe to call for unknown ids.
func (r *AgentRegistry) OnDisconnect(connectionID string) *model.Agent {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byConn[connectionID]
	if !ok {
		return nil
	}
	delete(r.byConn, connectionID)
	a := r.byID[id]
	a.Status = model.StatusOffline
	a.ConnectionID = ""
	cp := *a
	return &cp
}

// List returns agents matching filter, sorted by name for deterministic
// output. An empty filter returns everything.
func (r *AgentRegistry) List(filter AgentFilter) []model.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Agent, 0, len(r.byID))
	for _, a := range r.byID {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.NameContains != "" && !strings.Contains(strings.ToLower(a.Name), strings.ToLower(filter.NameContains)) {
			continue
		}
		if len(filter.Capabilities) > 0 && !hasAllCapabilities(a.Capabilities, filter.Capabilities) {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func hasAllCapabilities(have, want []string) bool {
	set := make(map[string]struct{}, len(have))
	for _, c := range have {
		set[c] = struct{}{}
	}
	for _, w := range want {
		if _, ok := set[w]; !ok {
			return false
		}
	}
	return true
}

func unionStrings(a, b []string) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			if _, ok := set[s]; !ok {
				set[s] = struct{}{}
				out = append(out, s)
			}
		}
	}
	return out
}


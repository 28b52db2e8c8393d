package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/gridctl/agenthub/internal/model"
)

// PreconfiguredService mirrors PreconfiguredAgent for Services.
type PreconfiguredService struct {
	ID           string
	Name         string
	Capabilities []string
}

// ServiceFilter narrows List results.
type ServiceFilter struct {
	Status       model.AgentStatus
	Capabilities []string
}

// ServiceRegistry is the authoritative table of Services, keyed by id.
// Service names are unique among live services, matching Agent
// semantics, and reconnection by id preserves registeredAt and tools
// unless a new registration payload overwrites them.
type ServiceRegistry struct {
	mu     sync.RWMutex
	byID   map[string]*model.Service
	byConn map[string]string

	preconfigured map[string]PreconfiguredService
}

// NewServiceRegistry creates an empty registry.
func NewServiceRegistry() *ServiceRegistry {
	return &ServiceRegistry{
		byID:          make(map[string]*model.Service),
		byConn:        make(map[string]string),
		preconfigured: make(map[string]PreconfiguredService),
	}
}

// SetPreconfigured installs the manifest's pre-configured service table.
func (r *ServiceRegistry) SetPreconfigured(entries []PreconfiguredService) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.preconfigured = make(map[string]PreconfiguredService, len(entries))
	for _, e := range entries {
		r.preconfigured[e.Name] = e
	}
}

// Register installs or replaces the live Service for name on
// connectionID, demoting any live occupant first, exactly as
// AgentRegistry.Register.
func (r *ServiceRegistry) Register(name, connectionID string, capabilities []string, tools []model.ToolDescriptor) *model.Service {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.byID {
		if s.Name == name && s.Status != model.StatusOffline {
			r.demoteLocked(s)
		}
	}

	id := newServiceID()
	if pre, ok := r.preconfigured[name]; ok {
		id = pre.ID
		capabilities = unionStrings(pre.Capabilities, capabilities)
	}

	registeredAt := time.Now()
	existingTools := tools
	if existing, ok := r.byID[id]; ok {
		registeredAt = existing.RegisteredAt
		if tools == nil {
			existingTools = existing.Tools
		}
	}

	svc := &model.Service{
		ID:           id,
		Name:         name,
		Capabilities: capabilities,
		Tools:        existingTools,
		Status:       model.StatusOnline,
		ConnectionID: connectionID,
		RegisteredAt: registeredAt,
	}
	r.byID[id] = svc
	r.byConn[connectionID] = id
	return svc
}

func (r *ServiceRegistry) demoteLocked(s *model.Service) {
	if s.ConnectionID != "" {
		delete(r.byConn, s.ConnectionID)
	}
	s.Status = model.StatusOffline
	s.ConnectionID = ""
}

// UpdateStatus sets service id's status. A no-op if the service is
// unknown.
func (r *ServiceRegistry) UpdateStatus(id string, status model.AgentStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byID[id]; ok {
		s.Status = status
	}
}

// GetByID returns a copy of the service with id, or nil.
func (r *ServiceRegistry) GetByID(id string) *model.Service {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.byID[id]; ok {
		cp := *s
		return &cp
	}
	return nil
}

// GetByName returns the live service with name, or nil.
func (r *ServiceRegistry) GetByName(name string) *model.Service {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.byID {
		if s.Name == name && s.Status != model.StatusOffline {
			cp := *s
			return &cp
		}
	}
	return nil
}

// GetByConnectionID returns the service bound to connectionID, or nil.
func (r *ServiceRegistry) GetByConnectionID(connectionID string) *model.Service {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byConn[connectionID]
	if !ok {
		return nil
	}
	cp := *r.byID[id]
	return &cp
}

// OnDisconnect marks the service bound to connectionID offline.
func (r *ServiceRegistry) OnDisconnect(connectionID string) *model.Service {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byConn[connectionID]
	if !ok {
		return nil
	}
	delete(r.byConn, connectionID)
	s := r.byID[id]
	s.Status = model.StatusOffline
	s.ConnectionID = ""
	cp := *s
	return &cp
}

// List returns services matching filter, sorted by name.
func (r *ServiceRegistry) List(filter ServiceFilter) []model.Service {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Service, 0, len(r.byID))
	for _, s := range r.byID {
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		if len(filter.Capabilities) > 0 && !hasAllCapabilities(s.Capabilities, filter.Capabilities) {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

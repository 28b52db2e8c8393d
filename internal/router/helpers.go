package router

import (
	"github.com/gridctl/agenthub/internal/model"
	"github.com/gridctl/agenthub/internal/registry"
)

func (r *Router) servicesFiltered(capabilities []string) []model.Service {
	return r.services.List(registry.ServiceFilter{Capabilities: capabilities})
}

func (r *Router) agentsFiltered(status, nameContains string, capabilities []string) []model.Agent {
	var st model.AgentStatus
	if status != "" {
		st = model.NormalizeStatus(status)
	}
	return r.agents.List(registry.AgentFilter{
		Status:       st,
		Capabilities: capabilities,
		NameContains: nameContains,
	})
}

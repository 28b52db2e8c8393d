package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridctl/agenthub/internal/registry"
	"github.com/gridctl/agenthub/pkg/config"
)

func TestApplyPreconfiguredInstallsAgentsAndServices(t *testing.T) {
	agents := registry.NewAgentRegistry()
	services := registry.NewServiceRegistry()
	cfg := &config.OrchestratorConfig{
		Agents: []config.AgentConfig{
			{Name: "worker", Capabilities: []string{"translate"}},
		},
		Services: []config.ServiceConfig{
			{Name: "billing", Capabilities: []string{"invoice"}},
		},
	}

	applyPreconfigured(agents, services, cfg)

	registered := agents.Register("worker", "conn-1", nil, nil)
	require.NotNil(t, registered)
	assert.Equal(t, []string{"translate"}, registered.Capabilities)

	svc := services.Register("billing", "conn-2", nil, nil)
	require.NotNil(t, svc)
	assert.Equal(t, []string{"invoice"}, svc.Capabilities)
}

func TestApplyPreconfiguredEmptyConfigIsNoop(t *testing.T) {
	agents := registry.NewAgentRegistry()
	services := registry.NewServiceRegistry()

	applyPreconfigured(agents, services, &config.OrchestratorConfig{})

	assert.Nil(t, agents.GetByName("anyone"))
	assert.Nil(t, services.GetByName("anyone"))
}

package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridctl/agenthub/internal/model"
)

func TestAgentRegisterAndLookup(t *testing.T) {
	r := NewAgentRegistry()
	a := r.Register("worker", "conn-1", []string{"translate"}, nil)

	byID := r.GetByID(a.ID)
	byName := r.GetByName("worker")
	require.NotNil(t, byID)
	require.NotNil(t, byName)
	assert.Equal(t, byID.ID, byName.ID)
	assert.Equal(t, model.StatusOnline, byID.Status)
}

func TestAgentDuplicateNameDemotesPrior(t *testing.T) {
	r := NewAgentRegistry()
	first := r.Register("worker", "conn-1", nil, nil)
	second := r.Register("worker", "conn-2", nil, nil)

	assert.NotEqual(t, first.ID, second.ID)

	stale := r.GetByID(first.ID)
	require.NotNil(t, stale)
	assert.Equal(t, model.StatusOffline, stale.Status)

	live := r.GetByName("worker")
	require.NotNil(t, live)
	assert.Equal(t, second.ID, live.ID)
}

func TestAgentPreconfiguredMergesCapabilities(t *testing.T) {
	r := NewAgentRegistry()
	r.SetPreconfigured([]PreconfiguredAgent{
		{ID: "fixed-id", Name: "worker", Capabilities: []string{"ocr"}},
	})

	a := r.Register("worker", "conn-1", []string{"translate"}, nil)
	assert.Equal(t, "fixed-id", a.ID)
	assert.ElementsMatch(t, []string{"ocr", "translate"}, a.Capabilities)
}

func TestAgentReconnectPreservesRegisteredAt(t *testing.T) {
	r := NewAgentRegistry()
	r.SetPreconfigured([]PreconfiguredAgent{{ID: "fixed-id", Name: "worker"}})

	first := r.Register("worker", "conn-1", nil, nil)
	r.OnDisconnect("conn-1")
	second := r.Register("worker", "conn-2", nil, nil)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.RegisteredAt, second.RegisteredAt)
}

func TestAgentOnDisconnectClearsBinding(t *testing.T) {
	r := NewAgentRegistry()
	a := r.Register("worker", "conn-1", nil, nil)

	disconnected := r.OnDisconnect("conn-1")
	require.NotNil(t, disconnected)
	assert.Equal(t, model.StatusOffline, disconnected.Status)
	assert.Nil(t, r.GetByConnectionID("conn-1"))

	stored := r.GetByID(a.ID)
	assert.Equal(t, "", stored.ConnectionID)
}

func TestAgentListFilters(t *testing.T) {
	r := NewAgentRegistry()
	r.Register("alpha", "conn-1", []string{"ocr"}, nil)
	r.Register("beta", "conn-2", []string{"translate"}, nil)

	onlyOCR := r.List(AgentFilter{Capabilities: []string{"ocr"}})
	require.Len(t, onlyOCR, 1)
	assert.Equal(t, "alpha", onlyOCR[0].Name)

	byName := r.List(AgentFilter{NameContains: "bet"})
	require.Len(t, byName, 1)
	assert.Equal(t, "beta", byName[0].Name)
}

func TestAgentRegistryConcurrentAccess(t *testing.T) {
	r := NewAgentRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			r.Register("worker", "conn", nil, nil)
			r.List(AgentFilter{})
		}(i)
	}
	wg.Wait()
	// No torn reads: the live occupant (if any) must be internally consistent.
	live := r.GetByName("worker")
	if live != nil {
		assert.Equal(t, model.StatusOnline, live.Status)
	}
}

package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridctl/agenthub/internal/model"
)

func TestServiceRegisterAndLookup(t *testing.T) {
	r := NewServiceRegistry()
	tools := []model.ToolDescriptor{{ID: "t1", Name: "read_file"}}
	s := r.Register("filesystem", "conn-1", nil, tools)

	byID := r.GetByID(s.ID)
	require.NotNil(t, byID)
	assert.Len(t, byID.Tools, 1)
}

func TestServiceReconnectPreservesTools(t *testing.T) {
	r := NewServiceRegistry()
	r.SetPreconfigured([]PreconfiguredService{{ID: "fixed", Name: "filesystem"}})

	tools := []model.ToolDescriptor{{ID: "t1", Name: "read_file"}}
	first := r.Register("filesystem", "conn-1", nil, tools)
	r.OnDisconnect("conn-1")

	// Reconnect with no tools payload: prior tools must be preserved.
	second := r.Register("filesystem", "conn-2", nil, nil)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, tools, second.Tools)
}

func TestServiceDuplicateNameDemotesPrior(t *testing.T) {
	r := NewServiceRegistry()
	first := r.Register("filesystem", "conn-1", nil, nil)
	second := r.Register("filesystem", "conn-2", nil, nil)

	assert.NotEqual(t, first.ID, second.ID)
	stale := r.GetByID(first.ID)
	assert.Equal(t, model.StatusOffline, stale.Status)
}

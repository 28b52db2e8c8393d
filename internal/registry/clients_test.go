package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridctl/agenthub/internal/model"
)

func TestClientRegisterAndLookup(t *testing.T) {
	r := NewClientRegistry()
	c := r.Register("conn-1", "")
	assert.Equal(t, model.StatusOnline, c.Status)

	byID := r.GetByID(c.ID)
	byConn := r.GetByConnectionID("conn-1")
	require.NotNil(t, byID)
	require.NotNil(t, byConn)
	assert.Equal(t, byID.ID, byConn.ID)
}

func TestClientOnDisconnect(t *testing.T) {
	r := NewClientRegistry()
	c := r.Register("conn-1", "dashboard")
	disconnected := r.OnDisconnect("conn-1")
	require.NotNil(t, disconnected)
	assert.Equal(t, model.StatusOffline, disconnected.Status)
	assert.Nil(t, r.GetByConnectionID("conn-1"))

	stored := r.GetByID(c.ID)
	assert.Equal(t, model.StatusOffline, stored.Status)
}

func TestClientOnDisconnectUnknownIsNoop(t *testing.T) {
	r := NewClientRegistry()
	assert.Nil(t, r.OnDisconnect("never-registered"))
}

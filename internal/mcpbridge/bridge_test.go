package mcpbridge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridctl/agenthub/pkg/mcp"
)

func TestBridge_ListServers_TranslatesStatus(t *testing.T) {
	adapter := mcp.NewAdapter()
	_, err := adapter.RegisterServer(context.Background(), mcp.ServerConfig{
		Name:         "File Search",
		Command:      []string{"cat"},
		Capabilities: []string{"search"},
	})
	require.NoError(t, err)

	b := New(adapter)
	servers := b.ListServers()
	require.Len(t, servers, 1)
	assert.Equal(t, "File Search", servers[0].Name)
	assert.Equal(t, "registered", servers[0].Status)
	assert.Equal(t, []string{"search"}, servers[0].Capabilities)
}

func TestBridge_ListTools_UnknownServerErrors(t *testing.T) {
	b := New(mcp.NewAdapter())
	_, err := b.ListTools(context.Background(), "missing")
	assert.Error(t, err)
}

func TestDecodeSchema_MalformedYieldsNil(t *testing.T) {
	assert.Nil(t, decodeSchema(nil))
	assert.Nil(t, decodeSchema([]byte("not json")))
	assert.Equal(t, map[string]any{"type": "object"}, decodeSchema([]byte(`{"type":"object"}`)))
}

package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"github.com/tkoester/knowbridge/internal/brain"
	"github.com/tkoester/knowbridge/internal/bridge"
	"github.com/tkoester/knowbridge/internal/store"
)

func newTestServer(t *testing.T, key string) *Server {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "bridge.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	b := bridge.New(bridge.Config{
		Store:  st,
		Policy: brain.DefaultPolicy(),
		Tiers:  brain.DefaultTiers(),
	})
	return New(b, "test", key)
}

func callReq(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: args},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	return text.Text
}

func TestAddThenSearch(t *testing.T) {
	s := newTestServer(t, "")
	ctx := context.Background()

	result, err := s.handleAdd(ctx, callReq(map[string]any{
		"source": "mcp",
		"texts":  []any{"Der Garten blüht im Frühling."},
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.JSONEq(t, `{"added": 1}`, resultText(t, result))

	result, err = s.handleSearch(ctx, callReq(map[string]any{
		"query": "Garten",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var out struct {
		Hits []struct {
			ID int64 `json:"id"`
		} `json:"hits"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &out))
	require.Len(t, out.Hits, 1)
}

func TestSearchRequiresQuery(t *testing.T) {
	s := newTestServer(t, "")

	result, err := s.handleSearch(context.Background(), callReq(nil))
	require.NoError(t, err)
	require.True(t, result.IsError)
}

func TestGetUnknownChunk(t *testing.T) {
	s := newTestServer(t, "")

	result, err := s.handleGet(context.Background(), callReq(map[string]any{
		"chunk_id": float64(7),
	}))
	require.NoError(t, err)
	require.True(t, result.IsError)
}

func TestBridgeKeyGatesWrites(t *testing.T) {
	s := newTestServer(t, "secret")
	ctx := context.Background()

	addArgs := map[string]any{
		"source": "mcp",
		"texts":  []any{"Eine Notiz."},
	}

	result, err := s.handleAdd(ctx, callReq(addArgs))
	require.NoError(t, err)
	require.True(t, result.IsError)

	addArgs["bridge_key"] = "secret"
	result, err = s.handleAdd(ctx, callReq(addArgs))
	require.NoError(t, err)
	require.False(t, result.IsError)
}

func TestBridgeKeyGatesWriteCommands(t *testing.T) {
	s := newTestServer(t, "secret")
	ctx := context.Background()

	// game.new mutates, so the key is required.
	result, err := s.handleRun(ctx, callReq(map[string]any{
		"command": "game.new",
		"args":    map[string]any{"kind": "echo"},
	}))
	require.NoError(t, err)
	require.True(t, result.IsError)

	// Reads pass without a key.
	result, err = s.handleRun(ctx, callReq(map[string]any{
		"command": "journal.prompt",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &out))
	require.Equal(t, "daily", out["theme"])
}

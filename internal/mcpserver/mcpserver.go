// Package mcpserver exposes the bridge over the Model Context Protocol via
// stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tkoester/knowbridge/internal/actions"
	"github.com/tkoester/knowbridge/internal/bridge"
	"github.com/tkoester/knowbridge/internal/store"
)

const serverName = "knowbridge"

// Server wraps an MCP stdio server around a Bridge. When key is non-empty,
// mutating tools require a matching bridge_key argument.
type Server struct {
	bridge *bridge.Bridge
	key    string
	mcp    *server.MCPServer
}

// New builds the server and registers all tools.
func New(b *bridge.Bridge, version, bridgeKey string) *Server {
	s := &Server{
		bridge: b,
		key:    bridgeKey,
		mcp: server.NewMCPServer(
			serverName,
			version,
			server.WithLogging(),
		),
	}
	s.registerTools()
	return s
}

// Serve blocks serving MCP requests on stdin/stdout.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool(
		"memory_search",
		mcp.WithDescription("Full-text search over stored chunks"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
		mcp.WithNumber("k", mcp.Description("Maximum number of hits")),
	), s.handleSearch)

	s.mcp.AddTool(mcp.NewTool(
		"memory_get",
		mcp.WithDescription("Fetch one chunk by id"),
		mcp.WithNumber("chunk_id", mcp.Required(), mcp.Description("Chunk id")),
	), s.handleGet)

	s.mcp.AddTool(mcp.NewTool(
		"memory_similar",
		mcp.WithDescription("Nearest neighbors of a stored chunk"),
		mcp.WithNumber("chunk_id", mcp.Required(), mcp.Description("Chunk id")),
		mcp.WithNumber("k", mcp.Description("Number of neighbors")),
	), s.handleSimilar)

	s.mcp.AddTool(mcp.NewTool(
		"memory_add",
		mcp.WithDescription("Split, dedupe and store a batch of texts"),
		mcp.WithString("source", mcp.Required(), mcp.Description("Origin of the texts")),
		mcp.WithString("title", mcp.Description("Optional title")),
		mcp.WithArray("texts", mcp.Required(), mcp.Description("Texts to store")),
		mcp.WithArray("tags", mcp.Description("Tags linked to every stored chunk")),
		mcp.WithString("bridge_key", mcp.Description("Write key when the server is locked")),
	), s.handleAdd)

	s.mcp.AddTool(mcp.NewTool(
		"actions_run",
		mcp.WithDescription("Dispatch a bridge command"),
		mcp.WithString("command", mcp.Required(), mcp.Description("Command name, e.g. journal.summarize")),
		mcp.WithObject("args", mcp.Description("Command arguments")),
		mcp.WithString("tier_mode", mcp.Description("Optional tier selector: under, core, over or all")),
		mcp.WithString("bridge_key", mcp.Description("Write key when the server is locked")),
	), s.handleRun)
}

// checkKey gates mutating tools behind the configured bridge key.
func (s *Server) checkKey(args map[string]any) error {
	if s.key == "" {
		return nil
	}
	if key, _ := args["bridge_key"].(string); key != s.key {
		return errors.New("missing or wrong bridge_key")
	}
	return nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func argInt(args map[string]any, key string, def int) int {
	if f, ok := args[key].(float64); ok {
		return int(f)
	}
	return def
}

func argStrings(args map[string]any, key string) []string {
	raw, _ := args[key].([]any)
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (s *Server) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	query, _ := args["query"].(string)
	if query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	hits, err := s.bridge.Search(ctx, query, argInt(args, "k", 5))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"hits": hits})
}

func (s *Server) handleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id := argInt(args, "chunk_id", -1)
	if id < 0 {
		return mcp.NewToolResultError("chunk_id is required"), nil
	}
	chunk, err := s.bridge.Fetch(ctx, int64(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("chunk %d not found", id)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(chunk)
}

func (s *Server) handleSimilar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id := argInt(args, "chunk_id", -1)
	if id < 0 {
		return mcp.NewToolResultError("chunk_id is required"), nil
	}
	neighbors, err := s.bridge.Similar(ctx, int64(id), argInt(args, "k", 5), nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"neighbors": neighbors})
}

func (s *Server) handleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	if err := s.checkKey(args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	source, _ := args["source"].(string)
	if source == "" {
		return mcp.NewToolResultError("source is required"), nil
	}
	texts := argStrings(args, "texts")
	if len(texts) == 0 {
		return mcp.NewToolResultError("texts must be a non-empty list of strings"), nil
	}
	title, _ := args["title"].(string)

	n, err := s.bridge.Ingest(ctx, actions.IngestParams{
		Source: source,
		Title:  title,
		Texts:  texts,
		Tags:   argStrings(args, "tags"),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"added": n})
}

func (s *Server) handleRun(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	command, _ := args["command"].(string)
	if command == "" {
		return mcp.NewToolResultError("command is required"), nil
	}
	if actions.IsWriteCommand(command) {
		if err := s.checkKey(args); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	cmdArgs, _ := args["args"].(map[string]any)
	tierMode, _ := args["tier_mode"].(string)

	result, err := s.bridge.Dispatch(ctx, command, cmdArgs, tierMode)
	if err != nil {
		// Caller errors surface as tool results; anything else is ours.
		if actions.IsCallerError(err) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return nil, err
	}
	return jsonResult(result)
}

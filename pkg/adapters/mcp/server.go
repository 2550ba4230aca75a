// Package mcp exposes a running keeper as an MCP (Model Context Protocol)
// server, so agent tooling can read the snapshot, set cells, and force
// flushes over stdio or SSE.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/taproot"
	"github.com/aretw0/taproot/pkg/value"
)

// Engine is the slice of the keeper the MCP server needs.
type Engine interface {
	Snapshot(ctx context.Context) (value.Value, error)
	Get(ctx context.Context, path string) (value.Value, error)
	Set(ctx context.Context, path string, v value.Value) error
	Flush(ctx context.Context) error
}

// Server wraps a keeper and exposes it as an MCP server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
}

// NewServer creates an MCP server around engine.
func NewServer(engine Engine) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("taproot-mcp", strings.TrimSpace(taproot.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: get_snapshot
	s.mcpServer.AddTool(mcp.NewTool("get_snapshot",
		mcp.WithDescription("Read the full serialized state tree as a JSON document."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		v, err := s.engine.Snapshot(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("snapshot failed: %v", err)), nil
		}
		return s.valueResult(v)
	})

	// TOOL: get_value
	s.mcpServer.AddTool(mcp.NewTool("get_value",
		mcp.WithDescription("Read the value at a dotted path in the state tree (e.g. 'rig.freq')."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Dotted path to the node")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, _ := request.GetArguments()["path"].(string)
		v, err := s.engine.Get(ctx, path)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("get %s: %v", path, err)), nil
		}
		return s.valueResult(v)
	})

	// TOOL: set_value
	s.mcpServer.AddTool(mcp.NewTool("set_value",
		mcp.WithDescription("Write a JSON value to the cell at a dotted path. The change is persisted after the debounce window."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Dotted path to the cell")),
		mcp.WithString("value", mcp.Required(), mcp.Description("The new value as a JSON document")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		path, _ := args["path"].(string)
		raw, _ := args["value"].(string)

		v, err := value.Decode([]byte(raw))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid value: %v", err)), nil
		}
		if err := s.engine.Set(ctx, path, v); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("set %s: %v", path, err)), nil
		}
		return mcp.NewToolResultText("ok"), nil
	})

	// TOOL: flush
	s.mcpServer.AddTool(mcp.NewTool("flush",
		mcp.WithDescription("Write the current snapshot to the store immediately, skipping the debounce window."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := s.engine.Flush(ctx); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("flush failed: %v", err)), nil
		}
		return mcp.NewToolResultText("ok"), nil
	})
}

func (s *Server) registerResources() {
	// EXPOSE: taproot://snapshot
	s.mcpServer.AddResource(mcp.NewResource("taproot://snapshot", "Current State Snapshot",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		v, err := s.engine.Snapshot(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read snapshot: %w", err)
		}
		data, err := value.EncodeIndent(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode snapshot: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "taproot://snapshot",
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}

func (s *Server) valueResult(v value.Value) (*mcp.CallToolResult, error) {
	data, err := value.EncodeIndent(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/taproot"
	"github.com/aretw0/taproot/internal/cli"
	mcpAdapter "github.com/aretw0/taproot/pkg/adapters/mcp"
	"github.com/aretw0/taproot/pkg/ports"
	"github.com/aretw0/taproot/pkg/schema"
	"github.com/aretw0/taproot/pkg/tree"
	"github.com/aretw0/taproot/pkg/value"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts a keeper around the configured store and exposes it as an MCP
server, so AI agents can read and mutate the state tree as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		cfg, err := resolveConfig(cmd)
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		debug, _ := cmd.Flags().GetBool("debug")

		// Logs must stay off stdout: stdio transport speaks JSON-RPC there.
		logger := cli.NewLogger(debug)
		log.SetOutput(os.Stderr)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, cleanup, err := cli.BuildStore(ctx, cfg, logger)
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		defer cleanup()

		var root tree.Node = tree.NewBranch()
		if store != nil {
			doc, err := store.Load(ctx)
			switch {
			case err == nil:
				if obj, ok := doc.(value.Object); ok {
					if err := schema.Validate(cfg.Schema, obj); err != nil {
						log.Fatalf("Error: snapshot violates schema: %v", err)
					}
				}
				root = tree.FromValueTyped(doc, cfg.Schema)
			case errors.Is(err, ports.ErrNotExist):
			default:
				log.Fatalf("Error loading snapshot: %v", err)
			}
		}

		opts := []taproot.Option{taproot.WithLogger(logger)}
		if store != nil {
			opts = append(opts, taproot.WithStore(store))
		}
		keeper, err := taproot.Open(ctx, root, opts...)
		if err != nil {
			log.Fatalf("Error opening keeper: %v", err)
		}
		defer func() {
			if err := keeper.Close(context.Background()); err != nil {
				logger.Error("failed to close keeper", "err", err)
			}
		}()

		srv := mcpAdapter.NewServer(keeper)

		switch transport {
		case "stdio":
			logger.Info("starting taproot MCP server (stdio)")
			if err := srv.ServeStdio(); err != nil {
				logger.Error("MCP server execution failed", "err", err)
				os.Exit(1)
			}
		case "sse":
			logger.Info("starting taproot MCP server (SSE)", "port", port)
			if err := srv.ServeSSE(ctx, port); err != nil {
				if !errors.Is(err, http.ErrServerClosed) {
					logger.Error("MCP server execution failed", "err", err)
					os.Exit(1)
				}
			}
			logger.Info("MCP server stopped gracefully")
		default:
			fmt.Printf("Unknown transport: %s. Supported: stdio, sse\n", transport)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}

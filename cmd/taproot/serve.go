package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/taproot"
	"github.com/aretw0/taproot/internal/cli"
	"github.com/aretw0/taproot/internal/logging"
	"github.com/aretw0/taproot/internal/presentation/tui"
	httpAdapter "github.com/aretw0/taproot/pkg/adapters/http"
	"github.com/aretw0/taproot/pkg/ports"
	"github.com/aretw0/taproot/pkg/schema"
	"github.com/aretw0/taproot/pkg/snapshot"
	"github.com/aretw0/taproot/pkg/tree"
	"github.com/aretw0/taproot/pkg/value"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the snapshot over HTTP",
	Long: `Starts a keeper around the configured store and exposes the state tree
as a JSON API with a server-sent event stream of flush events.

The tree's shape is taken from the stored snapshot; an empty store starts
with an empty tree that grows as values are set.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTP.Address = addr
		}
		debug, _ := cmd.Flags().GetBool("debug")

		// Interactive runs get readable text logs; deployments piping stdout
		// somewhere get machine-readable ones.
		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}
		var logger *slog.Logger
		if cli.IsInteractive() {
			logger = logging.New(level)
		} else {
			logger = logging.NewJSON(os.Stderr, level)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, cleanup, err := cli.BuildStore(ctx, cfg, logger)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		// The served tree mirrors whatever the store holds. A fresh store
		// starts from an empty branch.
		var root tree.Node = tree.NewBranch()
		if store != nil {
			doc, err := store.Load(ctx)
			switch {
			case err == nil:
				if obj, ok := doc.(value.Object); ok {
					if err := schema.Validate(cfg.Schema, obj); err != nil {
						fmt.Printf("Error: snapshot violates schema: %v\n", err)
						os.Exit(1)
					}
				}
				root = tree.FromValueTyped(doc, cfg.Schema)
			case errors.Is(err, ports.ErrNotExist):
				// keep the empty branch
			default:
				fmt.Printf("Error loading snapshot: %v\n", err)
				os.Exit(1)
			}
		}

		delay, err := cfg.DelayDuration()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		// The HTTP server is constructed after the keeper, so the flush
		// hook goes through an indirection.
		var srv *httpAdapter.Server

		opts := []taproot.Option{
			taproot.WithLogger(logger),
			taproot.WithHooks(snapshot.Hooks{
				OnFlush: func(e snapshot.FlushEvent) {
					if srv != nil {
						srv.NotifyFlush(e)
					}
				},
			}),
		}
		if store != nil {
			opts = append(opts, taproot.WithStore(store))
		}
		if delay > 0 {
			opts = append(opts, taproot.WithDelay(delay))
		}

		keeper, err := taproot.Open(ctx, root, opts...)
		if err != nil {
			fmt.Printf("Error opening keeper: %v\n", err)
			os.Exit(1)
		}

		srv = httpAdapter.NewServer(keeper,
			httpAdapter.WithLogger(logger),
			httpAdapter.WithInfo("taproot", taproot.Version),
			httpAdapter.WithSchema(cfg.Schema),
		)

		httpSrv := &http.Server{
			Addr:    cfg.HTTP.Address,
			Handler: srv.Handler(),
		}

		if cli.IsInteractive() {
			tui.PrintBanner()
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("taproot server listening", "addr", httpSrv.Addr, "persistence", keeper.Enabled())
			serverErrors <- httpSrv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case <-ctx.Done():
			logger.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				logger.Error("graceful shutdown did not complete", "err", err)
				if err := httpSrv.Close(); err != nil {
					logger.Error("failed to close server", "err", err)
				}
			}

			// Closing the keeper flushes any pending write.
			if err := keeper.Close(shutdownCtx); err != nil {
				logger.Error("failed to close keeper", "err", err)
				os.Exit(1)
			}
			logger.Info("taproot server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (overrides config)")
}

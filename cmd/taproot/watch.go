package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/taproot/internal/cli"
)

// watchCmd tails the flush event stream of a running taproot server.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch flush events from a running taproot server",
	Long: `Connects to the /events stream of a taproot server and prints each
flush as it happens. Useful to confirm debouncing behaviour while another
process mutates the tree.`,
	Run: func(cmd *cobra.Command, args []string) {
		url, _ := cmd.Flags().GetString("url")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Watching %s (ctrl-c to stop)\n", url)

		err := cli.WatchEvents(ctx, url, func(event, data string) {
			switch event {
			case "flush":
				fmt.Printf("flush %s\n", data)
			case "ping":
				// keepalive, ignore
			default:
				fmt.Printf("%s %s\n", event, data)
			}
		})
		if err != nil && ctx.Err() == nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().String("url", "http://localhost:8080", "Base URL of the taproot server")
}

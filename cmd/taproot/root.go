package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/taproot/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "taproot",
	Short: "Taproot keeps application state rooted in a snapshot store",
	Long: `Taproot persists a live state tree as JSON snapshots, detecting changes
and writing them back with a debounce so bursts of edits cost one save.

Commands operate on the store configured via --config (YAML or JSON) or,
for the common case, a plain JSON file given with --state.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a taproot config file (YAML or JSON)")
	rootCmd.PersistentFlags().String("state", "", "Path to a JSON snapshot file (shorthand for a file store)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// resolveConfig merges the persistent flags into a Config: --config loads a
// file, --state overrides the store with a plain file store.
func resolveConfig(cmd *cobra.Command) (cli.Config, error) {
	cfg := cli.DefaultConfig()

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := cli.LoadConfig(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if state, _ := cmd.Flags().GetString("state"); state != "" {
		cfg.Store.Type = "file"
		cfg.Store.Path = state
	}

	return cfg, nil
}

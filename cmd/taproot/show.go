package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/taproot/internal/cli"
	"github.com/aretw0/taproot/pkg/ports"
)

// showCmd reads the stored snapshot without starting a keeper.
var showCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "Print the stored snapshot, or a value inside it",
	Long: `Loads the snapshot from the configured store and prints it as JSON.
An optional dotted path (e.g. "rig.freq") selects a single value.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		debug, _ := cmd.Flags().GetBool("debug")
		logger := cli.NewLogger(debug)

		store, cleanup, err := cli.BuildStore(cmd.Context(), cfg, logger)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()
		if store == nil {
			fmt.Println("Error: persistence is disabled in the configuration")
			os.Exit(1)
		}

		doc, err := store.Load(cmd.Context())
		if err != nil {
			if errors.Is(err, ports.ErrNotExist) {
				fmt.Println("No snapshot stored yet")
				os.Exit(1)
			}
			fmt.Printf("Error loading snapshot: %v\n", err)
			os.Exit(1)
		}

		if len(args) == 1 {
			doc, err = cli.Dig(doc, args[0])
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
		}

		if err := cli.PrintValue(doc); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/taproot/internal/cli"
	"github.com/aretw0/taproot/pkg/ports"
	"github.com/aretw0/taproot/pkg/schema"
	"github.com/aretw0/taproot/pkg/value"
)

// setCmd edits the stored snapshot in place. It bypasses the keeper's
// debounce: a CLI edit is a one-shot operation, so it saves immediately.
var setCmd = &cobra.Command{
	Use:   "set <path> <value>",
	Short: "Set a value inside the stored snapshot",
	Long: `Loads the snapshot, sets a dotted path to the given value and saves it back.
The value is parsed as JSON when possible; anything else is taken as a string:

  taproot set rig.freq 14200000
  taproot set rig.mode usb
  taproot set display '{"brightness": 80}'`,
	Args: cobra.ExactArgs(2),
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
		if err != nil && !errors.Is(err, ports.ErrNotExist) {
			fmt.Printf("Error loading snapshot: %v\n", err)
			os.Exit(1)
		}

		newValue, err := cli.ParseValueArg(args[1])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		updated, err := cli.Put(doc, args[0], newValue)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		if obj, ok := updated.(value.Object); ok {
			if err := schema.Validate(cfg.Schema, obj); err != nil {
				fmt.Printf("Error: update violates schema: %v\n", err)
				os.Exit(1)
			}
		}

		if err := store.Save(cmd.Context(), updated); err != nil {
			fmt.Printf("Error saving snapshot: %v\n", err)
			os.Exit(1)
		}

		logger.Debug("snapshot updated", "path", args[0], "type", value.Name(newValue))
	},
}

func init() {
	rootCmd.AddCommand(setCmd)
}

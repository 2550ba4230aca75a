package main

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/taproot/internal/cli"
	"github.com/aretw0/taproot/internal/presentation/tui"
)

//go:embed docs.md
var docsMarkdown string

// docsCmd renders the built-in usage guide in the terminal.
var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Show the taproot usage guide",
	Run: func(cmd *cobra.Command, args []string) {
		if !cli.IsInteractive() {
			// Plain output for pipes and pagers.
			fmt.Print(docsMarkdown)
			return
		}

		render := tui.NewRenderer()
		out, err := render(docsMarkdown)
		if err != nil {
			fmt.Printf("Error rendering docs: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(out)
	},
}

func init() {
	rootCmd.AddCommand(docsCmd)
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/taproot"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of taproot",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("taproot version %s\n", strings.TrimSpace(taproot.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

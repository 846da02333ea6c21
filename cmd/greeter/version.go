package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/greeter"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of greeter",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "greeter version %s\n", strings.TrimSpace(greeter.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

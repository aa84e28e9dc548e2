package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/stepflow"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of stepflow",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "stepflow version %s\n", strings.TrimSpace(stepflow.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

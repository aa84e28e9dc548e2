package main

import (
	"fmt"

	"github.com/aretw0/stepflow/internal/compiler"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <definition>",
	Short: "Check a definition file for consistency",
	Long: `Parses the definition and reports every problem at once: missing or unknown
successors, unreachable states, cycles and incomplete states.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := compiler.NewParser(compiler.WithStrictFields()).ParseFile(args[0])
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is valid (%d states)\n", def.Name, len(def.States))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

package main

import (
	"fmt"

	"github.com/aretw0/stepflow/internal/cli"
	"github.com/aretw0/stepflow/internal/presentation/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph [definition]",
	Short: "Export the workflow as a Mermaid diagram",
	Long:  `Outputs a Mermaid flowchart (graph TD) of the definition, or of the configured quality-control workflow.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		var path string
		if len(args) > 0 {
			path = args[0]
		}
		def, err := cli.LoadDefinition(path, cfg)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(def, nil))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}

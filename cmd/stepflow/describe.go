package main

import (
	"fmt"
	"os"

	"github.com/aretw0/stepflow/internal/cli"
	"github.com/aretw0/stepflow/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var describeCmd = &cobra.Command{
	Use:   "describe [definition]",
	Short: "Print a readable summary of the workflow states",
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

		md := tui.DescribeMarkdown(def)
		if raw, _ := cmd.Flags().GetBool("raw"); raw || !cli.IsTerminal(os.Stdout) {
			fmt.Fprint(cmd.OutOrStdout(), md)
			return nil
		}
		out, err := tui.NewRenderer()(md)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().Bool("raw", false, "Print markdown without terminal rendering")
}

package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/stepflow"
	"github.com/aretw0/stepflow/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [definition]",
	Short: "Execute the workflow once, or once per JSON line with --batch",
	Long: `Executes the workflow and prints its result. Without a definition file the
quality-control workflow is built from configuration.

With --image the local file is uploaded first and its locator becomes the run
input. With --batch, inputs are read as JSON lines from stdin and one result
is written per line.

The exit code is 0 only when every execution succeeded.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		image, _ := cmd.Flags().GetString("image")
		key, _ := cmd.Flags().GetString("key")
		bucket, _ := cmd.Flags().GetString("bucket")
		labels, _ := cmd.Flags().GetStringSlice("labels")
		jsonMode, _ := cmd.Flags().GetBool("json")
		batch, _ := cmd.Flags().GetBool("batch")
		deadline, _ := cmd.Flags().GetDuration("deadline")
		debug, _ := cmd.Flags().GetBool("debug")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		res, err := cli.Build(ctx, cfg, logger, cli.BuildOptions{DemoLabels: labels, Debug: debug})
		if err != nil {
			return err
		}
		defer res.Close()

		var path string
		if len(args) > 0 {
			path = args[0]
		}
		def, err := cli.LoadDefinition(path, cfg)
		if err != nil {
			return err
		}

		profile := cli.OutputProfile(os.Stdout)
		if batch {
			runner := stepflow.NewRunner(cmd.InOrStdin(), cmd.OutOrStdout())
			runner.Headless = jsonMode || !cli.IsTerminal(os.Stdout)
			runner.Renderer = cli.Renderer(profile)
			summary, err := runner.Run(ctx, res.Engine, def)
			if err != nil {
				return err
			}
			if !summary.OK() {
				return exitStatus(1)
			}
			return nil
		}

		if key == "" && image == "" {
			key = cfg.SourceObjectKey
		}
		if bucket == "" {
			bucket = cfg.Bucket
		}
		result, err := cli.RunOnce(ctx, res, def, cli.RunOptions{
			ImagePath: image,
			Key:       key,
			Bucket:    bucket,
			Deadline:  deadline,
			JSON:      jsonMode || !cli.IsTerminal(os.Stdout),
			Profile:   profile,
		}, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if code := cli.ExitCode(result); code != 0 {
			return exitStatus(code)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("image", "", "Local image to upload before running")
	runCmd.Flags().String("key", "", "Object key (defaults to the image name or sourceObjectKey)")
	runCmd.Flags().String("bucket", "", "Bucket of the object (defaults to the configured bucket)")
	runCmd.Flags().StringSlice("labels", nil, "Labels returned by the demo detector, most confident first")
	runCmd.Flags().Bool("json", false, "Print results as JSON even on a terminal")
	runCmd.Flags().Bool("batch", false, "Read one JSON input per line from stdin")
	runCmd.Flags().Duration("deadline", time.Duration(0), "Run deadline (defaults to the workflow timeout)")
}

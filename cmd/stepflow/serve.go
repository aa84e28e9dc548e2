package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/stepflow/internal/cli"
	"github.com/aretw0/stepflow/internal/presentation/tui"
	httpAdapter "github.com/aretw0/stepflow/pkg/adapters/http"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve [definition]",
	Short: "Start the HTTP server",
	Long:  `Serves the workflow over a JSON API, with Prometheus metrics on /metrics.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}
		logger := newLogger(cfg)
		debug, _ := cmd.Flags().GetBool("debug")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		res, err := cli.Build(ctx, cfg, logger, cli.BuildOptions{Debug: debug})
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

		handler := httpAdapter.NewServer(res.Engine, def,
			httpAdapter.WithLogger(logger),
			httpAdapter.WithMetrics(res.Metrics, res.Registry),
		).Handler()

		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           handler,
			ReadHeaderTimeout: cfg.Server.ReadTimeout(),
			ReadTimeout:       cfg.Server.ReadTimeout(),
		}

		serverErrors := make(chan error, 1)
		go func() {
			tui.PrintBanner(cmd.ErrOrStderr())
			logger.Info("starting stepflow server", "addr", srv.Addr, "workflow", def.Name)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			logger.Info("shutdown signal received")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("graceful shutdown did not complete", "timeout", shutdownTimeout, "error", err)
				return srv.Close()
			}
			logger.Info("stepflow server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}

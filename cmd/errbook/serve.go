package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/errbook/internal/config"
	"github.com/phrazzld/errbook/internal/platform/logger"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:     "serve",
		GroupID: "system",
		Short:   "Serve the HTTP API and replicate changes in the background",
		Long: `Serve the collaborator HTTP API, flush the mutation queue periodically and
whenever connectivity to the remote endpoint is regained.

Changes to the log level in the config file are applied without a restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts, cmd, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config server.host:server.port)")
	return cmd
}

func runServe(ctx context.Context, opts *rootOptions, cmd *cobra.Command, addr string) error {
	app, l, err := opts.open(ctx, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer app.close()

	l.loader.Watch(func(cfg *config.Config, err error) {
		if err != nil {
			app.logger.Warn("ignoring invalid config change", slog.String("error", err.Error()))
			return
		}
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			app.logger.Warn("ignoring invalid log level", slog.String("error", err.Error()))
			return
		}
		app.logger.Info("log level updated", slog.String("level", cfg.Log.Level))
	})

	if err := app.startBackground(ctx); err != nil {
		return err
	}

	if addr == "" {
		addr = app.config.Server.Addr()
	}
	return app.serveHTTP(ctx, addr)
}

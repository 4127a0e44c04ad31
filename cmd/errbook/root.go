package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/phrazzld/errbook/internal/config"
	"github.com/phrazzld/errbook/internal/platform/logger"
	"github.com/spf13/cobra"
)

// rootOptions holds the persistent flags shared by all commands.
type rootOptions struct {
	configFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "errbook",
		Short: "Offline-first notebook of wrongly answered questions",
		Long: `errbook keeps the questions you got wrong, schedules them for spaced review
and replicates every change to a remote endpoint when one is reachable.

All data lives in a local SQLite database. Changes are queued and pushed in
per-entity batches by "errbook serve" or on demand with "errbook sync".`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "",
		"config file (default ./errbook.yaml or $HOME/.config/errbook/errbook.yaml)")

	cmd.AddGroup(
		&cobra.Group{ID: "records", Title: "Record Commands:"},
		&cobra.Group{ID: "system", Title: "System Commands:"},
	)

	cmd.AddCommand(
		newAddCmd(opts),
		newDueCmd(opts),
		newReviewCmd(opts),
		newStatsCmd(opts),
		newServeCmd(opts),
		newSyncCmd(opts),
		newMigrateCmd(opts),
	)

	return cmd
}

// loaded is the configuration of one command invocation.
type loaded struct {
	loader *config.Loader
	cfg    *config.Config
	logger *slog.Logger
	closer io.Closer
}

// loadConfig reads the configuration and sets up logging to console.
func (o *rootOptions) loadConfig(console io.Writer) (*loaded, error) {
	loader := config.NewLoader(o.configFile)
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, closer, err := logger.SetupTo(cfg.Log, console)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	return &loaded{loader: loader, cfg: cfg, logger: log, closer: closer}, nil
}

// open loads the configuration and builds the application.
func (o *rootOptions) open(ctx context.Context, console io.Writer) (*application, *loaded, error) {
	l, err := o.loadConfig(console)
	if err != nil {
		return nil, nil, err
	}

	app, err := newApplication(ctx, l.cfg, l.logger)
	if err != nil {
		_ = l.closer.Close()
		return nil, nil, err
	}
	app.closers = append(app.closers, l.closer)
	return app, l, nil
}

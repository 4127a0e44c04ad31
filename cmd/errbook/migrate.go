package main

import (
	"fmt"

	"github.com/phrazzld/errbook/internal/platform/sqlite"
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "migrate",
		GroupID: "system",
		Short:   "Apply pending schema migrations and print the schema version",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			l, err := opts.loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = l.closer.Close() }()

			db, err := sqlite.OpenAndMigrate(ctx, l.cfg.Storage.Path, l.logger)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			version, err := sqlite.SchemaVersion(ctx, db)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: schema version %d\n", l.cfg.Storage.Path, version)
			return nil
		},
	}
}

package main

import (
	"errors"
	"fmt"

	"github.com/phrazzld/errbook/internal/connectivity"
	"github.com/phrazzld/errbook/internal/syncer"
	"github.com/spf13/cobra"
)

func newSyncCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "sync",
		GroupID: "system",
		Short:   "Push all pending changes to the remote endpoint once",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			app, _, err := opts.open(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer app.close()

			if app.coordinator == nil {
				fmt.Fprintln(out, "sync is disabled: no sync.endpoint configured")
				return nil
			}

			if app.prober != nil && app.prober.Probe(ctx) == connectivity.StateOffline {
				fmt.Fprintln(out, "remote endpoint is unreachable; changes stay queued")
				return nil
			}

			res, err := app.coordinator.Flush(ctx)
			if errors.Is(err, syncer.ErrOffline) {
				fmt.Fprintln(out, "remote endpoint is unreachable; changes stay queued")
				return nil
			}
			if err != nil {
				return err
			}

			pending, err := app.coordinator.Pending(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "status: %s\npushed: %d\nfailed: %d\npending: %d\n",
				res.Status, res.Pushed, res.Failed, pending)
			if msg := app.coordinator.State().Error; msg != "" {
				fmt.Fprintf(out, "error: %s\n", msg)
			}
			if res.Status == syncer.StatusError {
				return fmt.Errorf("%d changes were rejected and stay queued", res.Failed)
			}
			return nil
		},
	}
}

package cli

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	syncengine "lifelines-backend/internal/sync"

	"github.com/spf13/cobra"
)

func newSyncCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replay queued mutations now and refresh the local snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withEngine(cmd, func(ctx context.Context, e *syncengine.Engine) error {
				report, err := e.Drain(ctx)
				if err != nil {
					return failure(err)
				}
				return opts.printer(cmd.OutOrStdout()).value(report, func(w io.Writer) {
					fmt.Fprintf(w, "committed %d, rejected %d, remaining %d\n", report.Committed, report.Rejected, report.Remaining)
				})
			})
		},
	}
}

func newRunCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Probe the server and drain the queue until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withEngine(cmd, func(ctx context.Context, e *syncengine.Engine) error {
				ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				fmt.Fprintf(cmd.ErrOrStderr(), "syncing with %s every %s\n", opts.cfg.APIURL, opts.cfg.SyncInterval)
				return e.Run(ctx)
			})
		},
	}
}

func newQueueCommand(opts *RootOptions) *cobra.Command {
	var rejected bool
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "List queued mutations (--rejected for the dead-letter list)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withEngine(cmd, func(ctx context.Context, e *syncengine.Engine) error {
				p := opts.printer(cmd.OutOrStdout())
				if rejected {
					dead, err := e.Rejected(ctx)
					if err != nil {
						return WrapExitError(ExitCommandError, "read dead-letter list", err)
					}
					return p.value(dead, func(w io.Writer) {
						for _, m := range dead {
							fmt.Fprintf(w, "%d\t%s %s\t%s: %s\n", m.Seq, m.Method, m.Path, m.Kind, m.Error)
						}
					})
				}
				queue, err := e.Pending(ctx)
				if err != nil {
					return WrapExitError(ExitCommandError, "read queue", err)
				}
				return p.value(queue, func(w io.Writer) {
					for _, m := range queue {
						fmt.Fprintf(w, "%d\t%s %s\t%s\tattempts=%d\n", m.Seq, m.Method, m.Path, m.State, m.Attempts)
					}
				})
			})
		},
	}
	cmd.Flags().BoolVar(&rejected, "rejected", false, "show mutations the server refused")
	return cmd
}

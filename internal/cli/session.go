package cli

import (
	"context"
	"fmt"
	"io"

	syncengine "lifelines-backend/internal/sync"

	"github.com/spf13/cobra"
)

func newLoginCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login <email> <password>",
		Short: "Sign in; falls back to the local registry when offline",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withEngine(cmd, func(ctx context.Context, e *syncengine.Engine) error {
				s, err := e.Login(ctx, args[0], args[1])
				if err != nil {
					return failure(err)
				}
				return opts.printer(cmd.OutOrStdout()).value(s, func(w io.Writer) {
					mode := "online"
					if s.Local {
						mode = "offline"
					}
					fmt.Fprintf(w, "signed in as %s (%s, %s)\n", s.User.Name, s.User.Role, mode)
				})
			})
		},
	}
}

func newLogoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withEngine(cmd, func(ctx context.Context, e *syncengine.Engine) error {
				if err := e.Logout(ctx); err != nil {
					return WrapExitError(ExitCommandError, "logout", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "signed out")
				return nil
			})
		},
	}
}

func newStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show connectivity, queue sizes and session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withEngine(cmd, func(ctx context.Context, e *syncengine.Engine) error {
				e.Tick(ctx)
				st, err := e.Status(ctx)
				if err != nil {
					return WrapExitError(ExitCommandError, "status", err)
				}
				return opts.printer(cmd.OutOrStdout()).value(st, func(w io.Writer) {
					fmt.Fprintf(w, "online:   %t\n", st.Online)
					fmt.Fprintf(w, "pending:  %d\n", st.Pending)
					fmt.Fprintf(w, "rejected: %d\n", st.Rejected)
					if st.LastSyncAt != nil {
						fmt.Fprintf(w, "synced:   %s\n", st.LastSyncAt.Format("2006-01-02 15:04:05"))
					}
					if st.LastError != "" {
						fmt.Fprintf(w, "error:    %s\n", st.LastError)
					}
					if st.Session != nil {
						fmt.Fprintf(w, "user:     %s (%s)\n", st.Session.User.Email, st.Session.User.Role)
					}
				})
			})
		},
	}
}

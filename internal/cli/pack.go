package cli

import (
	"context"
	"fmt"
	"os"

	syncengine "lifelines-backend/internal/sync"

	"github.com/spf13/cobra"
)

func newPackCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pack",
		Short: "Carry local state between devices",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "export <file>",
		Short: "Write the local snapshot and queue to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withEngine(cmd, func(ctx context.Context, e *syncengine.Engine) error {
				f, err := os.Create(args[0])
				if err != nil {
					return WrapExitError(ExitCommandError, "create pack file", err)
				}
				defer f.Close()
				if err := e.ExportPack(ctx, f); err != nil {
					return WrapExitError(ExitCommandError, "export pack", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "pack written to %s\n", args[0])
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Load a pack and queue its mutations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withEngine(cmd, func(ctx context.Context, e *syncengine.Engine) error {
				f, err := os.Open(args[0])
				if err != nil {
					return WrapExitError(ExitCommandError, "open pack file", err)
				}
				defer f.Close()
				n, err := e.ImportPack(ctx, f)
				if err != nil {
					return failure(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d queued mutation(s)\n", n)
				return nil
			})
		},
	})
	return cmd
}

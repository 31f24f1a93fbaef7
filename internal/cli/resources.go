package cli

import (
	"context"
	"fmt"
	"io"

	syncengine "lifelines-backend/internal/sync"

	"github.com/spf13/cobra"
)

func newResourcesCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "resources",
		Aliases: []string{"resource"},
		Short:   "Salvaged inventory",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List resources from the local snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withEngine(cmd, func(ctx context.Context, e *syncengine.Engine) error {
				list, err := e.Local().Resources(ctx)
				if err != nil {
					return failure(err)
				}
				return opts.printer(cmd.OutOrStdout()).value(list, func(w io.Writer) {
					for _, r := range list {
						reserved := "-"
						if r.ReservedForProjectID != nil {
							reserved = *r.ReservedForProjectID
						}
						fmt.Fprintf(w, "%s\t%s\t%g %s\t%s\t%s\n", r.ID, r.Type, r.Qty, r.Unit, r.Status, reserved)
					}
				})
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "reserve <resource-id> <project-id>",
		Short: "Reserve a resource for a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.mutate(cmd, "reserved", syncengine.Reserve(args[0], args[1]))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "release <resource-id>",
		Short: "Release a reservation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.mutate(cmd, "released", syncengine.Release(args[0]))
		},
	})
	return cmd
}

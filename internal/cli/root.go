// Package cli is lifelinesctl: a client that keeps working while the server is
// unreachable, on top of the sync engine.
package cli

import (
	"context"
	"fmt"

	"lifelines-backend/internal/config"
	syncengine "lifelines-backend/internal/sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	APIURL  string
	LocalDB string
	Format  string // "json" | "text"
	Verbose bool

	// Open builds the engine; tests replace it.
	Open func(ctx context.Context, cfg *config.ClientConfig) (*syncengine.Engine, error)

	cfg *config.ClientConfig
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{
		Open: func(ctx context.Context, cfg *config.ClientConfig) (*syncengine.Engine, error) {
			return syncengine.Open(ctx, cfg, nil)
		},
	}

	cmd := &cobra.Command{
		Use:   "lifelinesctl",
		Short: "LifeLines field client",
		Long: `Field client for the LifeLines reconstruction workflow.

Writes go to the server when it is reachable. Otherwise they are applied to a
local snapshot and queued; "sync" or "run" replays the queue in order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			level := zerolog.WarnLevel
			if opts.Verbose {
				level = zerolog.DebugLevel
			}
			zerolog.SetGlobalLevel(level)

			cfg, err := config.LoadClient()
			if err != nil {
				return WrapExitError(ExitCommandError, "load config", err)
			}
			if opts.APIURL != "" {
				cfg.APIURL = opts.APIURL
			}
			if opts.LocalDB != "" {
				cfg.LocalDB = opts.LocalDB
			}
			opts.cfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.APIURL, "api-url", "", "server API base URL (default $LIFELINES_API_URL)")
	cmd.PersistentFlags().StringVar(&opts.LocalDB, "local-db", "", "local SQLite file (default $LIFELINES_LOCAL_DB)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(newLoginCommand(opts))
	cmd.AddCommand(newLogoutCommand(opts))
	cmd.AddCommand(newStatusCommand(opts))
	cmd.AddCommand(newSyncCommand(opts))
	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newQueueCommand(opts))
	cmd.AddCommand(newProjectsCommand(opts))
	cmd.AddCommand(newBidCommand(opts))
	cmd.AddCommand(newResourcesCommand(opts))
	cmd.AddCommand(newPackCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// withEngine opens the engine for one command.
func (o *RootOptions) withEngine(cmd *cobra.Command, fn func(ctx context.Context, e *syncengine.Engine) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	e, err := o.Open(ctx, o.cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "open local store", err)
	}
	defer e.Close()
	return fn(ctx, e)
}

package cli

import (
	"context"
	"fmt"
	"io"

	"lifelines-backend/internal/application/lifecycle"
	"lifelines-backend/internal/domain"
	syncengine "lifelines-backend/internal/sync"

	"github.com/spf13/cobra"
)

// mutate runs one mutation through the engine and prints the outcome.
func (o *RootOptions) mutate(cmd *cobra.Command, what string, m syncengine.Mutation) error {
	return o.withEngine(cmd, func(ctx context.Context, e *syncengine.Engine) error {
		res, err := e.Execute(ctx, m)
		if err != nil {
			return failure(err)
		}
		return o.printer(cmd.OutOrStdout()).result(what, res)
	})
}

func newProjectsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "Read and change projects",
	}
	cmd.AddCommand(newProjectsListCommand(opts))
	cmd.AddCommand(newProjectsCreateCommand(opts))
	cmd.AddCommand(projectStep(opts, "publish", "Open a Draft project for bidding", "published", syncengine.Publish))
	cmd.AddCommand(projectStep(opts, "complete", "Close a Licensed project", "completed", syncengine.Complete))
	cmd.AddCommand(projectStep(opts, "delete", "Delete a project and its records", "deleted", syncengine.DeleteProject))
	cmd.AddCommand(newAssessCommand(opts))
	cmd.AddCommand(newPlanCommand(opts))
	cmd.AddCommand(newFeedbackCommand(opts))
	return cmd
}

func newProjectsListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects from the local snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withEngine(cmd, func(ctx context.Context, e *syncengine.Engine) error {
				s := e.Session()
				if s == nil {
					return failure(syncengine.ErrNoSession)
				}
				list, err := e.Local().ListProjects(ctx, s.User)
				if err != nil {
					return failure(err)
				}
				return opts.printer(cmd.OutOrStdout()).value(list, func(w io.Writer) {
					for _, p := range list {
						fmt.Fprintf(w, "%s\t%-10s\t%s\n", p.ID, p.Status, p.Title)
					}
				})
			})
		},
	}
}

func newProjectsCreateCommand(opts *RootOptions) *cobra.Command {
	var in lifecycle.CreateProjectInput
	var loc domain.Location
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a Draft project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lng") {
				in.Location = &loc
			}
			return opts.mutate(cmd, "created", syncengine.CreateProject(in))
		},
	}
	cmd.Flags().StringVar(&in.Title, "title", "", "project title (required)")
	cmd.Flags().StringVar(&in.Description, "description", "", "description")
	cmd.Flags().StringVar(&in.Visibility, "visibility", "", "public or private")
	cmd.Flags().BoolVar(&in.CommunityFeedbackEnabled, "feedback", false, "accept community input")
	cmd.Flags().Float64Var(&loc.Lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&loc.Lng, "lng", 0, "longitude")
	cmd.Flags().StringVar(&loc.Address, "address", "", "street address")
	cmd.Flags().StringVar(&loc.RegionID, "region-id", "", "region id")
	cmd.Flags().StringVar(&loc.RegionName, "region-name", "", "region name")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func projectStep(opts *RootOptions, use, short, done string, build func(id string) syncengine.Mutation) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <project-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.mutate(cmd, done, build(args[0]))
		},
	}
}

func newAssessCommand(opts *RootOptions) *cobra.Command {
	var in lifecycle.DamageReportInput
	cmd := &cobra.Command{
		Use:   "assess <project-id>",
		Short: "Save a damage report; without --severity one is generated from the images",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.mutate(cmd, "damage report", syncengine.SaveDamageReport(args[0], in))
		},
	}
	cmd.Flags().StringSliceVar(&in.Images, "image", nil, "image reference (repeatable)")
	cmd.Flags().StringVar(&in.Severity, "severity", "", "Low, Medium, High or Critical")
	cmd.Flags().StringSliceVar(&in.Issues, "issue", nil, "observed issue (repeatable)")
	return cmd
}

func newPlanCommand(opts *RootOptions) *cobra.Command {
	var in lifecycle.PlanInput
	cmd := &cobra.Command{
		Use:   "plan <project-id>",
		Short: "Generate and save the next plan version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.mutate(cmd, "plan", syncengine.SavePlan(args[0], in))
		},
	}
	cmd.Flags().BoolVar(&in.SustainabilityOptions.SolarPanels, "solar", false, "include solar panels")
	cmd.Flags().BoolVar(&in.SustainabilityOptions.Insulation, "insulation", false, "include insulation")
	cmd.Flags().BoolVar(&in.SustainabilityOptions.SeismicReinforcement, "seismic", false, "include seismic reinforcement")
	return cmd
}

func newFeedbackCommand(opts *RootOptions) *cobra.Command {
	var in lifecycle.CommunityInputInput
	cmd := &cobra.Command{
		Use:   "feedback <project-id>",
		Short: "Add community input to a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.mutate(cmd, "feedback recorded", syncengine.AddCommunityInput(args[0], in))
		},
	}
	cmd.Flags().StringVar(&in.Comment, "comment", "", "comment (required)")
	cmd.Flags().StringVar(&in.ApprovalSignal, "signal", "", "support, neutral or concern")
	_ = cmd.MarkFlagRequired("comment")
	return cmd
}

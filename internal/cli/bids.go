package cli

import (
	"lifelines-backend/internal/application/lifecycle"
	syncengine "lifelines-backend/internal/sync"

	"github.com/spf13/cobra"
)

func newBidCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bid",
		Short: "Submit, award and license bids",
	}

	var in lifecycle.BidInput
	submit := &cobra.Command{
		Use:   "submit <project-id>",
		Short: "Submit a bid on a Published project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.mutate(cmd, "bid submitted", syncengine.SubmitBid(args[0], in))
		},
	}
	submit.Flags().Float64Var(&in.Cost, "cost", 0, "total cost (required)")
	submit.Flags().Float64Var(&in.TimelineMonths, "months", 0, "timeline in months (required)")
	submit.Flags().IntVar(&in.ExperienceCount, "experience", 0, "comparable projects delivered")
	submit.Flags().Float64Var(&in.RecycledPercent, "recycled", 0, "recycled material percent (0-100)")
	_ = submit.MarkFlagRequired("cost")
	_ = submit.MarkFlagRequired("months")

	award := &cobra.Command{
		Use:   "award <project-id> <bid-id>",
		Short: "Award a bid; the other bids are rejected",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.mutate(cmd, "awarded", syncengine.Award(args[0], args[1]))
		},
	}

	var lic lifecycle.LicenseInput
	license := &cobra.Command{
		Use:   "license <project-id>",
		Short: "Issue the build license for an Awarded project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.mutate(cmd, "license issued", syncengine.IssueLicense(args[0], lic))
		},
	}
	license.Flags().StringVar(&lic.ValidFrom, "from", "", "valid from (YYYY-MM-DD, default today)")
	license.Flags().StringVar(&lic.ValidTo, "to", "", "valid to (YYYY-MM-DD, default today)")
	license.Flags().StringSliceVar(&lic.Conditions, "condition", nil, "license condition (repeatable)")

	cmd.AddCommand(submit, award, license)
	return cmd
}

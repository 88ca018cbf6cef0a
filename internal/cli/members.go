package cli

import (
	"github.com/spf13/cobra"
)

// ListOptions holds flags for the roster query commands.
type ListOptions struct {
	*RootOptions
	Year  string
	Group string
}

// NewMembersCommand creates the members command.
func NewMembersCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "members",
		Short: "List the members of a group",
		Long: `List the members of one group in display order.

Active members come first, then long-absent, then transferred; members of
the same standing keep their roster order.

Example:
  rollcall members --year 2024 --group 3`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts.RootOptions, cmd)
			return withApp(cmd.Context(), opts.RootOptions, f, func(a *app) error {
				members, err := a.engine.List(cmd.Context(), opts.Year, opts.Group)
				if err != nil {
					return f.FailEngine("failed to list members", err)
				}
				return f.Success(memberList(members))
			})
		},
	}

	cmd.Flags().StringVar(&opts.Year, "year", "", "roster year (required)")
	cmd.Flags().StringVar(&opts.Group, "group", "", "group (required)")
	_ = cmd.MarkFlagRequired("year")
	_ = cmd.MarkFlagRequired("group")

	return cmd
}

// NewYearsCommand creates the years command.
func NewYearsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "years",
		Short:         "List roster years, most recent first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			return withApp(cmd.Context(), rootOpts, f, func(a *app) error {
				years, err := a.engine.Years(cmd.Context())
				if err != nil {
					return f.FailEngine("failed to list years", err)
				}
				return f.Success(lines(years))
			})
		},
	}
}

// NewGroupsCommand creates the groups command.
func NewGroupsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "groups",
		Short:         "List the groups of a year",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts.RootOptions, cmd)
			return withApp(cmd.Context(), opts.RootOptions, f, func(a *app) error {
				groups, err := a.engine.Groups(cmd.Context(), opts.Year)
				if err != nil {
					return f.FailEngine("failed to list groups", err)
				}
				return f.Success(lines(groups))
			})
		},
	}

	cmd.Flags().StringVar(&opts.Year, "year", "", "roster year (required)")
	_ = cmd.MarkFlagRequired("year")

	return cmd
}

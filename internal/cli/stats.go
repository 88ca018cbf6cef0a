package cli

import (
	"github.com/spf13/cobra"
)

// StatsOptions holds flags for the stats command.
type StatsOptions struct {
	*RootOptions
	Year  string
	Date  string
	Dates bool // list recorded dates instead of a report
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize recorded attendance",
		Long: `Summarize the attendance recorded for one date.

Reports total present and absent, how many of the year's groups have
submitted, and each group's absentees with their reasons. Without --date
the most recent recorded date of the year is used.

Examples:
  rollcall stats --year 2024
  rollcall stats --year 2024 --date 2024-05-04
  rollcall stats --year 2024 --dates`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Year, "year", "", "roster year (required)")
	cmd.Flags().StringVar(&opts.Date, "date", "", "report date YYYY-MM-DD (default: most recent)")
	cmd.Flags().BoolVar(&opts.Dates, "dates", false, "list the recorded dates of the year")
	_ = cmd.MarkFlagRequired("year")

	return cmd
}

func runStats(opts *StatsOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	return withApp(ctx, opts.RootOptions, f, func(a *app) error {
		if opts.Dates {
			dates, err := a.stats.Dates(ctx, opts.Year)
			if err != nil {
				return f.FailEngine("failed to load dates", err)
			}
			return f.Success(lines(dates))
		}

		report, err := a.stats.Report(ctx, opts.Year, opts.Date)
		if err != nil {
			return f.FailEngine("failed to build report", err)
		}
		return f.Success(reportView{report})
	})
}

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/rollcall/internal/attendance"
	"github.com/roach88/rollcall/internal/engine"
	"github.com/roach88/rollcall/internal/selection"
)

// BatchOptions holds the selection flags shared by submit and validate.
// Each one overrides the corresponding field of the batch file.
type BatchOptions struct {
	*RootOptions
	Year  string
	Group string
	Date  string
}

func (o *BatchOptions) apply(b *BatchFile) {
	if o.Year != "" {
		b.Year = o.Year
	}
	if o.Group != "" {
		b.Group = o.Group
	}
	if o.Date != "" {
		b.Date = o.Date
	}
}

func (o *BatchOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Year, "year", "", "roster year (overrides the batch file)")
	cmd.Flags().StringVar(&o.Group, "group", "", "group (overrides the batch file)")
	cmd.Flags().StringVar(&o.Date, "date", "", "attendance date YYYY-MM-DD (overrides the batch file)")
}

// NewSubmitCommand creates the submit command.
func NewSubmitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "submit <batch.yaml>",
		Short: "Record one group's attendance",
		Long: `Record one group's attendance for one date.

The batch file lists every member's presence, absence reason and current
standing. Its year, group and date form the selection; they can be given
or overridden with flags. Without a date the current or next attendance
day is used.

Re-submitting a batch replaces the earlier entries for the same members
and date, so a failed or partial submission can simply be repeated.

Exit codes:
  0 - Submission recorded
  1 - Submission rejected, conflicting, or only partially recorded
  2 - Command error (unreadable file, store unavailable, etc.)

Examples:
  rollcall submit week18.yaml
  rollcall submit week18.yaml --group 3 --date 2024-05-04`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(opts, args[0], cmd)
		},
	}
	opts.addFlags(cmd)

	return cmd
}

func runSubmit(opts *BatchOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	batch, errs := LoadBatch(path)
	if len(errs) > 0 {
		return outputLoadErrors(f, path, errs)
	}
	opts.apply(batch)
	f.VerboseLog("Loaded %d entries from %s", len(batch.Entries), path)

	return withApp(cmd.Context(), opts.RootOptions, f, func(a *app) error {
		date := a.engine.DefaultDate()
		if batch.Date != "" {
			d, err := attendance.ParseDate(batch.Date)
			if err != nil {
				return f.FailEngine("invalid selection", fmt.Errorf("%w: %v", selection.ErrInvalid, err))
			}
			date = d
		}

		sel, err := selection.Confirm(batch.Year, batch.Group, date, a.engine.AttendanceDay())
		if err != nil {
			return f.FailEngine("invalid selection", err)
		}
		f.VerboseLog("Submitting for %s", sel)

		receipt, err := submitSelected(selection.WithSelection(cmd.Context(), sel), a.engine, batch.Entries)
		if err != nil {
			return f.FailEngine("submission failed", err)
		}
		return f.Success(receiptView{receipt})
	})
}

// submitSelected submits entries for the selection carried by ctx.
func submitSelected(ctx context.Context, eng *engine.Engine, entries []attendance.Entry) (engine.Receipt, error) {
	sel, err := selection.Require(ctx)
	if err != nil {
		return engine.Receipt{}, err
	}
	return eng.Submit(ctx, sel.Year, sel.Group, sel.Date, entries)
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <batch.yaml>",
		Short: "Check a batch file without submitting it",
		Long: `Check a batch file without touching the store.

Runs the batch schema and every check submit performs before reading the
roster: the date falls on the attendance day, names are unique, presence
and reason are known and consistent, and each status is known. Membership
in the group is only checked on submit.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}
	opts.addFlags(cmd)

	return cmd
}

func runValidate(opts *BatchOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	batch, errs := LoadBatch(path)
	if len(errs) > 0 {
		return outputLoadErrors(f, path, errs)
	}
	opts.apply(batch)

	cfg, err := opts.config()
	if err != nil {
		return f.Fail(ErrCodeGeneric, ExitCommandError, "invalid configuration", err, nil)
	}

	result := ValidationResult{
		File:    path,
		Year:    attendance.CleanCell(batch.Year),
		Group:   attendance.CleanCell(batch.Group),
		Date:    batch.Date,
		Entries: len(batch.Entries),
	}
	if batch.Date == "" {
		result.Errors = []string{"date is required"}
		return outputValidationErrors(f, result, ErrCodeValidation, ExitFailure)
	}
	date, err := attendance.ParseDate(batch.Date)
	if err != nil {
		result.Errors = []string{err.Error()}
		return outputValidationErrors(f, result, ErrCodeValidation, ExitFailure)
	}

	b := attendance.Batch{Year: result.Year, Group: result.Group, Date: date, Entries: batch.Entries}
	if _, err := engine.Validate(b, cfg.Weekday()); err != nil {
		result.Errors = []string{err.Error()}
		return outputValidationErrors(f, result, ErrCodeValidation, ExitFailure)
	}

	result.Valid = true
	return f.Success(result)
}

// outputLoadErrors reports the errors of LoadBatch. A missing file is a
// command error; anything else is a rejected batch.
func outputLoadErrors(f *OutputFormatter, path string, errs []error) error {
	result := ValidationResult{File: path}
	code, exit := ErrCodeGeneric, ExitFailure
	for i, err := range errs {
		result.Errors = append(result.Errors, err.Error())
		var le *LoadError
		if i == 0 && errors.As(err, &le) {
			code = le.Code
			if le.Code == ErrCodeNotFound {
				exit = ExitCommandError
			}
		}
	}
	return outputValidationErrors(f, result, code, exit)
}

// outputValidationErrors outputs a failed ValidationResult.
func outputValidationErrors(f *OutputFormatter, result ValidationResult, code string, exit int) error {
	if f.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    code,
				Message: result.Errors[0],
			},
		}

		encoder := json.NewEncoder(f.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(f.Writer, result)
	}

	return NewExitError(exit, fmt.Sprintf("%s: validation failed with %d error(s)", code, len(result.Errors)))
}

package cli

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/rollcall/internal/attendance"
)

// NewRosterCommand creates the roster command group.
func NewRosterCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Administer the roster table",
	}
	cmd.AddCommand(newRosterImportCommand(rootOpts))
	cmd.AddCommand(newRosterExportCommand(rootOpts))
	return cmd
}

func newRosterImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <roster.csv>",
		Short: "Replace the roster from a CSV file",
		Long: `Replace the whole roster table with the members of a CSV file.

The first line is the header: year, group, name, role, status (the Korean
spreadsheet headers are accepted too). Cells are cleaned as on every read.
Recorded attendance is not touched.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRosterImport(rootOpts, args[0], cmd)
		},
	}
}

func runRosterImport(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	members, err := readRosterCSV(path)
	if errors.Is(err, fs.ErrNotExist) {
		return f.Fail(ErrCodeNotFound, ExitCommandError, "roster file not found", err, nil)
	}
	if err != nil {
		return f.Fail(ErrCodeParse, ExitFailure, "invalid roster file", err, nil)
	}
	f.VerboseLog("Read %d members from %s", len(members), path)

	return withApp(cmd.Context(), opts, f, func(a *app) error {
		res, err := a.engine.ImportRoster(cmd.Context(), members)
		if err != nil {
			return f.FailEngine("roster import failed", err)
		}
		return f.Success(importResult{File: path, Members: res.Members, Written: res.Written, Revision: res.Revision})
	})
}

func readRosterCSV(path string) ([]attendance.Member, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: header line is missing", path)
	}
	return attendance.DecodeRoster(records[0], records[1:])
}

func newRosterExportCommand(rootOpts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the roster as CSV",
		Long: `Write the roster table as CSV with the canonical header.

With --format json the members are printed as the usual JSON envelope
instead.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			return withApp(cmd.Context(), rootOpts, f, func(a *app) error {
				members, err := a.engine.Members(cmd.Context())
				if err != nil {
					return f.FailEngine("failed to read roster", err)
				}
				if rootOpts.Format == "json" {
					return f.Success(memberList(members))
				}

				w := cmd.OutOrStdout()
				if output != "" {
					file, err := os.Create(output)
					if err != nil {
						return f.Fail(ErrCodeWriteFailed, ExitCommandError, "failed to create output file", err, nil)
					}
					defer file.Close()
					w = file
				}
				if err := writeRosterCSV(w, members); err != nil {
					return f.Fail(ErrCodeWriteFailed, ExitCommandError, "failed to write roster", err, nil)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")

	return cmd
}

func writeRosterCSV(w io.Writer, members []attendance.Member) error {
	header, rows := attendance.EncodeRoster(members)
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/rollcall/internal/config"
	"github.com/roach88/rollcall/internal/engine"
	"github.com/roach88/rollcall/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Overrides for the environment configuration. Empty means unset.
	Backend       string
	DBPath        string
	MongoURI      string
	MongoDatabase string
	AttendanceDay string

	// Config is loaded on first use; set it to bypass the environment.
	Config *config.Config

	// Logger defaults to a text handler on the command's stderr.
	Logger *slog.Logger

	// Tables replaces the configured backend (for testing).
	Tables store.TableStore

	// Clock and Sessions override the engine defaults (for testing).
	Clock    engine.Clock
	Sessions engine.SessionGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the rollcall CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollcall",
		Short: "rollcall - weekly attendance for small groups",
		Long: `Record weekly attendance for small groups.

Group leaders submit one batch per attendance day: who came, why the others
did not, and each member's current standing. Batches are merged into a
shared ledger and roster; concurrent submissions for different groups never
overwrite each other.

Configuration is read from ROLLCALL_* environment variables; the flags
below override them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.Logger == nil {
				opts.Logger = newLogger(cmd.ErrOrStderr(), opts)
				slog.SetDefault(opts.Logger)
			}
			return nil
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.Backend, "backend", "", "table backend (sqlite|mongo); overrides ROLLCALL_BACKEND")
	flags.StringVar(&opts.DBPath, "db", "", "SQLite database path; overrides ROLLCALL_DB")
	flags.StringVar(&opts.MongoURI, "mongo-uri", "", "MongoDB URI; overrides ROLLCALL_MONGO_URI")
	flags.StringVar(&opts.MongoDatabase, "mongo-db", "", "MongoDB database; overrides ROLLCALL_MONGO_DATABASE")
	flags.StringVar(&opts.AttendanceDay, "attendance-day", "", "weekday attendance is recorded on; overrides ROLLCALL_ATTENDANCE_DAY")

	// Add subcommands
	cmd.AddCommand(NewMembersCommand(opts))
	cmd.AddCommand(NewYearsCommand(opts))
	cmd.AddCommand(NewGroupsCommand(opts))
	cmd.AddCommand(NewSubmitCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewRosterCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// newLogger builds the process logger: text on w, JSON when the output
// format is JSON, debug level when verbose.
func newLogger(w io.Writer, opts *RootOptions) *slog.Logger {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level}
	if opts.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

func (o *RootOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// config returns the configuration, loading it from the environment and
// applying flag overrides on first use.
func (o *RootOptions) config() (config.Config, error) {
	if o.Config != nil {
		return *o.Config, nil
	}
	cfg, err := config.Parse()
	if err != nil {
		return config.Config{}, err
	}
	if o.Backend != "" {
		cfg.Backend = o.Backend
	}
	if o.DBPath != "" {
		cfg.DBPath = o.DBPath
	}
	if o.MongoURI != "" {
		cfg.MongoURI = o.MongoURI
	}
	if o.MongoDatabase != "" {
		cfg.MongoDatabase = o.MongoDatabase
	}
	if o.AttendanceDay != "" {
		cfg.AttendanceDay = o.AttendanceDay
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	o.Config = &cfg
	return cfg, nil
}

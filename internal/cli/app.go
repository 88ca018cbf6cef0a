package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/rollcall/internal/config"
	"github.com/roach88/rollcall/internal/engine"
	"github.com/roach88/rollcall/internal/stats"
	"github.com/roach88/rollcall/internal/store"
	"github.com/roach88/rollcall/internal/store/mongostore"
)

// app is everything a store-backed command needs.
type app struct {
	cfg    config.Config
	engine *engine.Engine
	stats  *stats.Reader
	close  func() error
}

// openApp loads the configuration, opens the configured backend and builds
// the engine over it. Callers must call close.
func openApp(ctx context.Context, opts *RootOptions) (*app, error) {
	cfg, err := opts.config()
	if err != nil {
		return nil, fmt.Errorf("configuration: %w", err)
	}

	tables, closeFn, err := openTables(ctx, opts, cfg)
	if err != nil {
		return nil, err
	}

	engOpts := []engine.EngineOption{
		engine.WithRosterTable(cfg.RosterTable),
		engine.WithLedgerTable(cfg.LedgerTable),
		engine.WithAttendanceDay(cfg.Weekday()),
		engine.WithMaxAttempts(cfg.MaxAttempts),
		engine.WithRetryDelay(cfg.RetryDelay),
		engine.WithStoreTimeout(cfg.StoreTimeout),
		engine.WithLogger(opts.logger()),
	}
	if opts.Clock != nil {
		engOpts = append(engOpts, engine.WithClock(opts.Clock))
	}
	if opts.Sessions != nil {
		engOpts = append(engOpts, engine.WithSessionGenerator(opts.Sessions))
	}

	return &app{
		cfg:    cfg,
		engine: engine.New(tables, engOpts...),
		stats:  stats.NewReader(tables, cfg.RosterTable, cfg.LedgerTable),
		close:  closeFn,
	}, nil
}

func openTables(ctx context.Context, opts *RootOptions, cfg config.Config) (store.TableStore, func() error, error) {
	log := opts.logger()
	if opts.Tables != nil {
		return opts.Tables, func() error { return nil }, nil
	}

	switch cfg.Backend {
	case config.BackendMongo:
		cctx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
		defer cancel()
		log.Debug("connecting to mongo", "database", cfg.MongoDatabase)
		ms, err := mongostore.Connect(cctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to mongo: %w", err)
		}
		return ms, func() error {
			dctx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
			defer cancel()
			return ms.Close(dctx)
		}, nil
	default:
		log.Debug("opening database", "path", cfg.DBPath)
		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		return st, st.Close, nil
	}
}

// withApp opens the app, runs fn and closes the app. Open failures are
// reported through f.
func withApp(ctx context.Context, opts *RootOptions, f *OutputFormatter, fn func(*app) error) error {
	a, err := openApp(ctx, opts)
	if err != nil {
		return f.Fail(ErrCodeStoreOpen, ExitCommandError, "failed to open store", err, nil)
	}
	defer func() {
		if closeErr := a.close(); closeErr != nil {
			opts.logger().Error("error closing store", "error", closeErr)
		}
	}()
	return fn(a)
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/rollcall/internal/httpapi"
)

// shutdownTimeout bounds how long in-flight requests may take after a signal.
const shutdownTimeout = 10 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr         string
	SecureCookie bool
	AllowDevKey  bool

	// Ready, if set, receives the bound address once the server listens
	// (for testing).
	Ready chan<- string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the attendance API over HTTP",
		Long: `Serve the JSON attendance API.

Leaders confirm a selection with POST /selection; it is kept in a signed
cookie and used by GET /members and POST /submissions. The server stops
gracefully on SIGINT or SIGTERM.

Example:
  ROLLCALL_SESSION_KEY=$(openssl rand -hex 32) rollcall serve --addr :8080`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address; overrides ROLLCALL_ADDR")
	cmd.Flags().BoolVar(&opts.SecureCookie, "secure-cookie", false, "mark the session cookie Secure (behind TLS)")
	cmd.Flags().BoolVar(&opts.AllowDevKey, "allow-dev-key", false, "accept the built-in development session key (local use only)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	log := opts.logger()

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			log.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
			// Parent context cancelled (e.g., from test)
		}
	}()

	return withApp(ctx, opts.RootOptions, f, func(a *app) error {
		addr := a.cfg.Addr
		if opts.Addr != "" {
			addr = opts.Addr
		}

		if a.cfg.UsesDevSessionKey() {
			if !opts.AllowDevKey {
				return f.Fail(ErrCodeGeneric, ExitCommandError, "refusing to serve",
					errors.New("ROLLCALL_SESSION_KEY is the public development key; set a secret key or pass --allow-dev-key"), nil)
			}
			log.Warn("serving with the public development session key; cookies can be forged")
		}

		h := httpapi.NewHandler(a.engine, a.stats, httpapi.NewSessionStore(a.cfg.SessionKey, opts.SecureCookie), log)
		srv := &http.Server{
			Handler:           httpapi.Routes(h),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return f.Fail(ErrCodeGeneric, ExitCommandError, "failed to listen", err, nil)
		}

		serveErr := make(chan error, 1)
		go func() { serveErr <- srv.Serve(ln) }()

		log.Info("server listening", "addr", ln.Addr().String(), "backend", a.cfg.Backend)
		fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s. Press Ctrl-C to stop.\n", ln.Addr())
		if opts.Ready != nil {
			opts.Ready <- ln.Addr().String()
		}

		select {
		case err := <-serveErr:
			return f.Fail(ErrCodeGeneric, ExitFailure, "server error", err, nil)
		case <-ctx.Done():
		}

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return f.Fail(ErrCodeGeneric, ExitFailure, "shutdown failed", err, nil)
		}
		if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return f.Fail(ErrCodeGeneric, ExitFailure, "server error", err, nil)
		}

		log.Info("server stopped gracefully")
		return nil
	})
}

package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/roach88/fingerpick/internal/config"
	"github.com/roach88/fingerpick/internal/intentbus"
	"github.com/roach88/fingerpick/internal/surface"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	ConfigPath string
	Addr       string
	EnvFiles   []string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve picker sessions over WebSocket",
		Long: `Start the WebSocket surface. Each connection to /ws is an independent
picker session; /healthz reports liveness.

Configuration is read from --config (optional) over the defaults, then from
the environment (FINGERPICK_*, NATS_URL). A .env file is loaded first when
present. When a NATS URL is configured every session's intents are also
published to NATS.

Examples:
  fingerpick serve
  fingerpick serve --config ./fingerpick.yaml --addr :9090`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "path to config YAML")
	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().StringSliceVar(&opts.EnvFiles, "env", nil, ".env files to load (default .env)")

	return cmd
}

func runServe(ctx context.Context, opts *ServeOptions) error {
	logger := opts.Logger()
	if !opts.Verbose {
		logger = logger.Level(zerolog.InfoLevel)
	}

	if err := config.LoadDotEnv(opts.EnvFiles...); err != nil {
		return WrapExitError(ExitCommandError, "failed to load .env", err)
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if opts.Addr != "" {
		cfg.Server.Addr = opts.Addr
	}
	mc, err := cfg.Machine()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	srvOpts := []surface.Option{surface.WithLogger(logger)}
	if cfg.Bus.NATSURL != "" {
		bus, err := intentbus.Connect(cfg.Bus.NATSURL, cfg.Bus.SubjectPrefix, intentbus.WithLogger(logger))
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to connect intent bus", err)
		}
		defer bus.Close()
		srvOpts = append(srvOpts, surface.WithSessionSink(bus))
	}

	srv := surface.New(surface.Config{
		Machine:        mc,
		Language:       cfg.Language,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, srvOpts...)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to listen", err)
	}

	logger.Info().
		Str("addr", ln.Addr().String()).
		Str("mode", cfg.Mode).
		Int("threshold", cfg.Threshold).
		Bool("intent_bus", cfg.Bus.NATSURL != "").
		Msg("starting fingerpick surface")

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		srv.Close()
		return WrapExitError(ExitFailure, "HTTP server failed", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	// Hijacked WebSocket connections outlive Shutdown.
	srv.Close()

	logger.Info().Msg("fingerpick surface stopped")
	return nil
}
